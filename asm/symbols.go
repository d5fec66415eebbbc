package asm

import (
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Symbol is a label and the absolute address it names.
type Symbol struct {
	Name    string
	Address uint32
}

// SymbolTable maps labels to addresses and remembers definition order.
type SymbolTable struct {
	m *orderedmap.OrderedMap[string, uint32]
}

// NewSymbolTable creates an empty table.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{m: orderedmap.New[string, uint32]()}
}

// Define binds name to addr. A name can only be defined once; the first
// definition wins.
func (t *SymbolTable) Define(name string, addr uint32) error {
	if prev, ok := t.m.Get(name); ok {
		return fmt.Errorf("%w: %q already at 0x%x", ErrDuplicateLabel, name, prev)
	}
	t.m.Set(name, addr)
	return nil
}

// Lookup returns the address of name.
func (t *SymbolTable) Lookup(name string) (uint32, bool) {
	return t.m.Get(name)
}

// Len returns the number of symbols.
func (t *SymbolTable) Len() int {
	return t.m.Len()
}

// All returns the symbols in definition order.
func (t *SymbolTable) All() []Symbol {
	out := make([]Symbol, 0, t.m.Len())
	for pair := t.m.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, Symbol{Name: pair.Key, Address: pair.Value})
	}
	return out
}
