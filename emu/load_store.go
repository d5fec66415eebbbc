package emu

import (
	"fmt"

	"github.com/sarchlab/rv32sim/insts"
)

// LoadStoreUnit implements RV32 load and store operations.
type LoadStoreUnit struct {
	memory *Memory
}

// NewLoadStoreUnit creates a new LoadStoreUnit connected to the given
// memory.
func NewLoadStoreUnit(memory *Memory) *LoadStoreUnit {
	return &LoadStoreUnit{
		memory: memory,
	}
}

// Load reads the value op loads from addr. Byte and half-word loads are
// sign-extended; ld returns the low 32 bits of the double word.
func (lsu *LoadStoreUnit) Load(op insts.Op, addr uint32) (uint32, error) {
	switch op {
	case insts.OpLB:
		v, err := lsu.memory.Read8(addr)
		return uint32(int32(int8(v))), err
	case insts.OpLH:
		v, err := lsu.memory.Read16(addr)
		return uint32(int32(int16(v))), err
	case insts.OpLW:
		return lsu.memory.Read32(addr)
	case insts.OpLD:
		v, err := lsu.memory.Read64(addr)
		return uint32(v), err
	}
	return 0, fmt.Errorf("%s is not a load", op)
}

// Store writes the low bytes of value that op stores to addr. sd writes
// value zero-extended to 64 bits.
func (lsu *LoadStoreUnit) Store(op insts.Op, addr, value uint32) error {
	switch op {
	case insts.OpSB:
		return lsu.memory.Write8(addr, uint8(value))
	case insts.OpSH:
		return lsu.memory.Write16(addr, uint16(value))
	case insts.OpSW:
		return lsu.memory.Write32(addr, value)
	case insts.OpSD:
		return lsu.memory.Write64(addr, uint64(value))
	}
	return fmt.Errorf("%s is not a store", op)
}
