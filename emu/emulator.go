package emu

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-logr/logr"

	"github.com/sarchlab/rv32sim/config"
	"github.com/sarchlab/rv32sim/insts"
	"github.com/sarchlab/rv32sim/loader"
)

// ErrCycleLimit is returned by Step once the configured cycle budget is
// spent.
var ErrCycleLimit = errors.New("max cycles reached")

// StepResult represents the result of executing a single cycle.
type StepResult struct {
	// Exited is true if the program reached the exit trap.
	Exited bool

	// ExitCode is the exit status if Exited is true.
	ExitCode int64

	// Err is set if the cycle faulted.
	Err error
}

// Emulator runs RV32 machine code through a sequential
// fetch/decode/execute/memory/write-back cycle.
type Emulator struct {
	cfg      *config.Machine
	regFile  *RegFile
	proc     *Processor
	memory   *Memory
	decoder  *insts.Decoder
	log      logr.Logger
	stdout   io.Writer
	stderr   io.Writer
	dataSink io.Writer

	// Execution units
	alu        *ALU
	lsu        *LoadStoreUnit
	branchUnit *BranchUnit

	maxCycles uint64 // 0 means no limit
}

// EmulatorOption is a functional option for configuring the Emulator.
type EmulatorOption func(*Emulator)

// WithStdout sets the writer that receives the register dump.
func WithStdout(w io.Writer) EmulatorOption {
	return func(e *Emulator) {
		e.stdout = w
	}
}

// WithStderr sets a custom stderr writer.
func WithStderr(w io.Writer) EmulatorOption {
	return func(e *Emulator) {
		e.stderr = w
	}
}

// WithDataSink sends the data snapshot to w instead of the configured
// snapshot file.
func WithDataSink(w io.Writer) EmulatorOption {
	return func(e *Emulator) {
		e.dataSink = w
	}
}

// WithLogger sets the logger. V(1) reports traps and faults, V(2) traces
// every stage.
func WithLogger(l logr.Logger) EmulatorOption {
	return func(e *Emulator) {
		e.log = l
	}
}

// WithMachineConfig sets the memory layout and trap outputs.
func WithMachineConfig(cfg *config.Machine) EmulatorOption {
	return func(e *Emulator) {
		e.cfg = cfg.Clone()
	}
}

// WithMaxCycles sets the maximum number of cycles to run.
// A value of 0 means no limit.
func WithMaxCycles(max uint64) EmulatorOption {
	return func(e *Emulator) {
		e.maxCycles = max
	}
}

// WithHardwiredZero makes x0 read as zero and discard writes.
func WithHardwiredZero(on bool) EmulatorOption {
	return func(e *Emulator) {
		e.regFile.HardwiredZero = on
	}
}

// NewEmulator creates a new RV32 emulator.
func NewEmulator(opts ...EmulatorOption) *Emulator {
	e := &Emulator{
		cfg:     config.Default(),
		regFile: &RegFile{},
		proc:    &Processor{},
		decoder: insts.NewDecoder(),
		log:     logr.Discard(),
		stdout:  os.Stdout,
		stderr:  os.Stderr,
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.maxCycles == 0 {
		e.maxCycles = e.cfg.MaxCycles
	}

	e.memory = NewMemoryFromConfig(e.cfg)
	e.alu = NewALU()
	e.lsu = NewLoadStoreUnit(e.memory)
	e.branchUnit = NewBranchUnit()
	e.regFile.PC = e.cfg.TextBase

	return e
}

// RegFile returns the emulator's register file.
func (e *Emulator) RegFile() *RegFile {
	return e.regFile
}

// Processor returns the emulator's scratch state.
func (e *Emulator) Processor() *Processor {
	return e.proc
}

// Memory returns the emulator's memory.
func (e *Emulator) Memory() *Memory {
	return e.memory
}

// Config returns the machine layout in use.
func (e *Emulator) Config() *config.Machine {
	return e.cfg
}

// Cycles returns the number of completed cycles.
func (e *Emulator) Cycles() uint64 {
	return e.proc.Cycles
}

// LoadProgram writes every entry of prog into memory and sets the PC to
// entry.
func (e *Emulator) LoadProgram(entry uint32, prog *loader.Program) error {
	if err := prog.Apply(e.memory); err != nil {
		return fmt.Errorf("failed to load program: %w", err)
	}
	e.regFile.PC = entry
	return nil
}

// Reset returns the emulator to power-on state: zeroed registers, scratch
// state and memory.
func (e *Emulator) Reset() {
	e.regFile.Reset()
	e.regFile.PC = e.cfg.TextBase
	e.proc.Reset()
	e.memory = NewMemoryFromConfig(e.cfg)
	e.lsu = NewLoadStoreUnit(e.memory)
}

// Step runs one full cycle.
func (e *Emulator) Step() StepResult {
	if e.maxCycles > 0 && e.proc.Cycles >= e.maxCycles {
		return StepResult{Err: ErrCycleLimit}
	}

	if err := e.Fetch(); err != nil {
		return StepResult{Err: err}
	}

	if e.Decode() {
		return e.trap()
	}

	e.Execute()

	if err := e.MemoryAccess(); err != nil {
		return StepResult{Err: err}
	}

	e.WriteBack()

	return StepResult{}
}

// Run executes cycles until the program reaches the exit trap or a cycle
// faults. Returns the exit code (-1 if error).
func (e *Emulator) Run() int64 {
	for {
		result := e.Step()
		if result.Exited {
			return result.ExitCode
		}
		if result.Err != nil {
			_, _ = fmt.Fprintf(e.stderr, "Emulation error: %v\n", result.Err)
			return -1
		}
	}
}

// Fetch reads the word at PC into IR.
func (e *Emulator) Fetch() error {
	word, err := e.memory.Read32(e.regFile.PC)
	if err != nil {
		e.log.V(1).Info("fetch fault", "pc", hex32(e.regFile.PC), "err", err.Error())
		return fmt.Errorf("fetch at PC=0x%08x: %w", e.regFile.PC, err)
	}

	e.proc.IR = word
	e.log.V(2).Info("fetch", "pc", hex32(e.regFile.PC), "ir", hex32(word))

	return nil
}

// Decode decodes IR and stages the operands. It reports true if IR is the
// exit trap, in which case nothing is staged. Unknown opcodes leave the
// scratch state unchanged.
func (e *Emulator) Decode() bool {
	inst := e.decoder.Decode(e.proc.IR)
	e.proc.Inst = inst

	if inst.IsTrap() {
		return true
	}

	p, r := e.proc, e.regFile
	imm := uint32(inst.Imm)

	switch inst.Opcode {
	case insts.OpcodeOp:
		p.Operand1 = r.ReadReg(inst.Rs1)
		p.Operand2 = r.ReadReg(inst.Rs2)
		p.Dest = inst.Rd
	case insts.OpcodeOpImm, insts.OpcodeLoad, insts.OpcodeJALR:
		p.Operand1 = r.ReadReg(inst.Rs1)
		p.Operand2 = imm
		p.Dest = inst.Rd
	case insts.OpcodeStore, insts.OpcodeBranch:
		p.Operand1 = r.ReadReg(inst.Rs1)
		p.Operand2 = r.ReadReg(inst.Rs2)
		p.ALUResult = imm
		p.Dest = 0
	case insts.OpcodeJAL:
		p.Operand1 = r.PC
		p.ALUResult = imm
		p.Dest = inst.Rd
	case insts.OpcodeLUI, insts.OpcodeAUIPC:
		p.Operand2 = imm
		p.Dest = inst.Rd
	default:
		e.log.V(1).Info("unknown opcode", "pc", hex32(r.PC), "ir", hex32(e.proc.IR))
		return false
	}

	e.log.V(2).Info("decode", "op", inst.Op.String(),
		"op1", int32(p.Operand1), "op2", int32(p.Operand2), "rd", p.Dest)

	return false
}

// Execute runs the ALU or resolves control flow for the staged instruction.
func (e *Emulator) Execute() {
	inst, p, r := e.proc.Inst, e.proc, e.regFile
	if inst == nil {
		return
	}

	switch inst.Format {
	case insts.FormatR:
		if v, ok := e.alu.Compute(inst.Op, p.Operand1, p.Operand2); ok {
			p.ALUResult = v
		}
	case insts.FormatI:
		switch {
		case inst.Opcode == insts.OpcodeLoad:
			p.ALUResult = p.Operand1 + p.Operand2
		case inst.Op == insts.OpJALR:
			target := e.branchUnit.RegisterTarget(p.Operand1, p.Operand2)
			e.link(p.Dest)
			r.PC = target
			p.SkipIncrement = true
		default:
			if v, ok := e.alu.Compute(inst.Op, p.Operand1, p.Operand2); ok {
				p.ALUResult = v
			}
		}
	case insts.FormatS:
		p.ALUResult = p.Operand1 + p.ALUResult
	case insts.FormatB:
		if e.branchUnit.Taken(inst.Op, p.Operand1, p.Operand2) {
			r.PC = e.branchUnit.Target(r.PC, p.ALUResult)
			p.SkipIncrement = true
		}
	case insts.FormatU:
		if inst.Op == insts.OpAUIPC {
			p.ALUResult = r.PC + p.Operand2
		} else {
			p.ALUResult = p.Operand2
		}
	case insts.FormatJ:
		e.link(p.Dest)
		r.PC = e.branchUnit.Target(r.PC, p.ALUResult)
		p.SkipIncrement = true
	default:
		return
	}

	e.log.V(2).Info("execute", "op", inst.Op.String(), "result", int32(p.ALUResult),
		"pc", hex32(r.PC), "redirect", p.SkipIncrement)
}

// link writes the return address for jal and jalr. rd = 0 discards it.
func (e *Emulator) link(rd uint8) {
	if rd != 0 {
		e.regFile.WriteReg(rd, e.regFile.PC+4)
	}
}

// MemoryAccess performs the load or store of the staged instruction.
func (e *Emulator) MemoryAccess() error {
	inst, p := e.proc.Inst, e.proc
	if inst == nil || inst.Op == insts.OpUnknown {
		return nil
	}

	switch inst.Opcode {
	case insts.OpcodeLoad:
		v, err := e.lsu.Load(inst.Op, p.ALUResult)
		if err != nil {
			return fmt.Errorf("%s at PC=0x%08x: %w", inst.Op, e.regFile.PC, err)
		}
		e.log.V(2).Info("memory load", "addr", hex32(p.ALUResult), "value", int32(v))
		p.ALUResult = v
	case insts.OpcodeStore:
		if err := e.lsu.Store(inst.Op, p.ALUResult, p.Operand2); err != nil {
			return fmt.Errorf("%s at PC=0x%08x: %w", inst.Op, e.regFile.PC, err)
		}
		e.log.V(2).Info("memory store", "addr", hex32(p.ALUResult), "value", int32(p.Operand2))
	}

	return nil
}

// WriteBack commits the result of R, I, load and U instructions, advances
// the PC unless a jump redirected it and ends the cycle.
func (e *Emulator) WriteBack() {
	inst, p, r := e.proc.Inst, e.proc, e.regFile

	if inst != nil && writesBack(inst) {
		r.WriteReg(p.Dest, p.ALUResult)
		e.log.V(2).Info("write back", "rd", p.Dest, "value", int32(p.ALUResult))
	}

	if !p.SkipIncrement {
		r.PC += 4
	}
	p.SkipIncrement = false
	p.Cycles++
}

func writesBack(inst *insts.Instruction) bool {
	if inst.Op == insts.OpUnknown {
		return false
	}

	switch inst.Opcode {
	case insts.OpcodeOp, insts.OpcodeOpImm, insts.OpcodeLoad,
		insts.OpcodeLUI, insts.OpcodeAUIPC:
		return true
	}

	return false
}

func hex32(v uint32) string {
	return fmt.Sprintf("0x%08x", v)
}
