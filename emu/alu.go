package emu

import "github.com/sarchlab/rv32sim/insts"

// ALU implements the RV32 integer and M-extension arithmetic.
type ALU struct{}

// NewALU creates a new ALU.
func NewALU() *ALU {
	return &ALU{}
}

// Compute returns the result of op applied to a and b. Register-register
// and register-immediate forms share an implementation. Ops the ALU does
// not handle return 0 and false.
func (alu *ALU) Compute(op insts.Op, a, b uint32) (uint32, bool) {
	switch op {
	case insts.OpADD, insts.OpADDI:
		return a + b, true
	case insts.OpSUB:
		return a - b, true
	case insts.OpMUL:
		return a * b, true
	case insts.OpDIV:
		return alu.div(a, b), true
	case insts.OpREM:
		return alu.rem(a, b), true
	case insts.OpAND, insts.OpANDI:
		return a & b, true
	case insts.OpOR, insts.OpORI:
		return a | b, true
	case insts.OpXOR:
		return a ^ b, true
	case insts.OpSLL, insts.OpSLLI:
		return a << (b & 0x1F), true
	case insts.OpSRL, insts.OpSRLI:
		return a >> (b & 0x1F), true
	case insts.OpSRA, insts.OpSRAI:
		return uint32(int32(a) >> (b & 0x1F)), true
	case insts.OpSLT, insts.OpSLTI:
		if int32(a) < int32(b) {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

// div is signed division. Division by zero yields 0.
func (alu *ALU) div(a, b uint32) uint32 {
	if b == 0 {
		return 0
	}
	return uint32(int32(a) / int32(b))
}

// rem is the signed remainder. Remainder by zero yields 0.
func (alu *ALU) rem(a, b uint32) uint32 {
	if b == 0 {
		return 0
	}
	return uint32(int32(a) % int32(b))
}
