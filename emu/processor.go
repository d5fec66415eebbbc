package emu

import "github.com/sarchlab/rv32sim/insts"

// Processor holds the per-cycle scratch state the five stages hand to each
// other. Architectural state (registers and PC) lives in RegFile.
type Processor struct {
	// IR is the word fetched this cycle.
	IR uint32

	// Inst is IR decoded. It is nil before the first Decode.
	Inst *insts.Instruction

	Operand1 uint32
	Operand2 uint32

	// Dest is the destination register index.
	Dest uint8

	// ALUResult carries the ALU output, the effective address or the
	// loaded value between stages. Stores and branches stage their
	// immediate here during Decode.
	ALUResult uint32

	// SkipIncrement is set by a taken branch or a jump and consumed by
	// WriteBack.
	SkipIncrement bool

	// Cycles counts completed cycles.
	Cycles uint64
}

// Reset zeroes the scratch state and the cycle counter.
func (p *Processor) Reset() {
	*p = Processor{}
}
