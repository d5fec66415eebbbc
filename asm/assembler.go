// Package asm implements a two-pass assembler for the RV32 subset in
// package insts.
//
// Pass 1 walks the source and assigns an address to every label. Pass 2
// walks it again, resolves branch and jump targets to PC-relative offsets
// and emits one Record per instruction and per data element. The text
// segment is terminated by a trap word so the emulator halts when it runs
// off the end of the program.
//
// Errors in a single line never stop assembly. They are logged, collected
// in Result.Diagnostics and the line is either encoded with a zero field
// (bad register, immediate or label) or skipped (unknown mnemonic, bad
// operand syntax).
package asm

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-logr/logr"

	"github.com/sarchlab/rv32sim/config"
	"github.com/sarchlab/rv32sim/loader"
)

// Assembly errors.
var (
	ErrUnknownMnemonic  = errors.New("unknown mnemonic")
	ErrUnknownDirective = errors.New("unsupported directive")
	ErrOperandSyntax    = errors.New("bad operand syntax")
	ErrUndefinedLabel   = errors.New("undefined label")
	ErrDuplicateLabel   = errors.New("duplicate label")
	ErrWrongSegment     = errors.New("statement not allowed in this segment")
)

// Segment identifies the text or data region.
type Segment uint8

// Segments.
const (
	SegmentText Segment = iota
	SegmentData
)

func (s Segment) String() string {
	if s == SegmentData {
		return "data"
	}
	return "text"
}

// Record is one line of machine code.
type Record struct {
	Address uint32
	// Value is the instruction word or the data element.
	Value uint64
	// Width is the record size in bytes. Instructions are 4 wide.
	Width   int
	Segment Segment
	// Sentinel marks the trap word closing the text segment.
	Sentinel bool
	// Source is the assembly line the record came from.
	Source string
	// Breakdown lists the encoded fields of an instruction.
	Breakdown string
}

// Word returns the low 32 bits of the value.
func (r Record) Word() uint32 {
	return uint32(r.Value)
}

// Diagnostic is a recoverable problem found on one source line.
type Diagnostic struct {
	Line   int
	Source string
	Err    error
}

func (d Diagnostic) Error() string {
	return fmt.Sprintf("line %d: %v (%s)", d.Line, d.Err, d.Source)
}

func (d Diagnostic) Unwrap() error {
	return d.Err
}

// Result is the output of an assembly run.
type Result struct {
	// Records holds the text segment, its sentinel and then the data
	// segment.
	Records     []Record
	Symbols     *SymbolTable
	Diagnostics []Diagnostic
}

// Err joins all diagnostics into one error. It is nil for a clean run.
func (r *Result) Err() error {
	errs := make([]error, 0, len(r.Diagnostics))
	for _, d := range r.Diagnostics {
		errs = append(errs, d)
	}
	return errors.Join(errs...)
}

// Program converts the records into loadable entries.
func (r *Result) Program() *loader.Program {
	prog := &loader.Program{Entries: make([]loader.Entry, 0, len(r.Records))}
	for _, rec := range r.Records {
		prog.Entries = append(prog.Entries, loader.Entry{
			Address: rec.Address,
			Value:   rec.Value,
			Width:   rec.Width,
		})
	}
	return prog
}

// Assembler translates assembly source into machine-code records.
type Assembler struct {
	log      logr.Logger
	textBase uint32
	dataBase uint32
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithLogger sets the logger diagnostics are reported to. V(1) adds notes
// about truncated immediates.
func WithLogger(l logr.Logger) Option {
	return func(a *Assembler) {
		a.log = l
	}
}

// WithMachineConfig takes the segment base addresses from cfg.
func WithMachineConfig(cfg *config.Machine) Option {
	return func(a *Assembler) {
		a.textBase = cfg.TextBase
		a.dataBase = cfg.DataOffset
	}
}

// New creates an Assembler with the default machine layout.
func New(opts ...Option) *Assembler {
	def := config.Default()
	a := &Assembler{
		log:      logr.Discard(),
		textBase: def.TextBase,
		dataBase: def.DataOffset,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Assemble runs both passes over lines.
func (a *Assembler) Assemble(lines []string) *Result {
	stmts := scan(lines)

	symbols, diags := a.layout(stmts)

	e := &emitter{
		a:       a,
		symbols: symbols,
		res:     &Result{Symbols: symbols, Diagnostics: diags},
	}
	e.run(stmts)

	return e.res
}

// AssembleReader reads source lines from r and assembles them.
func (a *Assembler) AssembleReader(r io.Reader) (*Result, error) {
	var lines []string

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read assembly source: %w", err)
	}

	return a.Assemble(lines), nil
}

// AssembleFile assembles the file at path.
func (a *Assembler) AssembleFile(path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open assembly file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return a.AssembleReader(f)
}

// BuildSymbols runs pass 1 alone with the default layout.
func BuildSymbols(lines []string) (*SymbolTable, []Diagnostic) {
	return New().layout(scan(lines))
}

// Assemble assembles lines with the default layout.
func Assemble(lines []string) *Result {
	return New().Assemble(lines)
}

// AssembleString is Assemble for a single multi-line source string.
func AssembleString(src string) *Result {
	return Assemble(strings.Split(src, "\n"))
}

func (a *Assembler) report(diags *[]Diagnostic, st statement, err error) {
	a.log.Error(err, "assembly error", "line", st.line, "source", st.source)
	*diags = append(*diags, Diagnostic{Line: st.line, Source: st.source, Err: err})
}

