package insts

import (
	"fmt"
	"strings"
)

// Operands is a fully resolved instruction ready to be packed.
// Imm holds the source-level value: a plain immediate, a shift amount, a
// byte offset for branches and jumps, or the 20-bit upper immediate.
type Operands struct {
	Spec Spec
	Rd   uint8
	Rs1  uint8
	Rs2  uint8
	Imm  int64
}

// NotApplicable marks a field the format does not carry.
const NotApplicable = "NULL"

// Encode packs the operands into a 32-bit word in canonical field order.
func Encode(o Operands) (uint32, error) {
	s := o.Spec
	rd := uint32(o.Rd) & 0x1F
	rs1 := uint32(o.Rs1) & 0x1F
	rs2 := uint32(o.Rs2) & 0x1F
	opcode := uint32(s.Opcode) & 0x7F
	f3 := uint32(s.Funct3) & 0x7
	f7 := uint32(s.Funct7) & 0x7F

	switch s.Format {
	case FormatR:
		return f7<<25 | rs2<<20 | rs1<<15 | f3<<12 | rd<<7 | opcode, nil
	case FormatI:
		imm := FitImmediate(o.Imm, s.ImmWidth())
		if s.Shift {
			imm |= f7 << ShamtWidth
		}
		return PackI(imm) | rs1<<15 | f3<<12 | rd<<7 | opcode, nil
	case FormatS:
		imm := FitImmediate(o.Imm, ImmWidthS)
		return PackS(imm) | rs2<<20 | rs1<<15 | f3<<12 | opcode, nil
	case FormatB:
		imm := FitImmediate(o.Imm, ImmWidthB)
		return PackB(imm) | rs2<<20 | rs1<<15 | f3<<12 | opcode, nil
	case FormatU:
		imm := FitImmediate(o.Imm, ImmWidthU)
		return PackU(imm) | rd<<7 | opcode, nil
	case FormatJ:
		imm := FitImmediate(o.Imm, ImmWidthJ)
		return PackJ(imm) | rd<<7 | opcode, nil
	default:
		return 0, fmt.Errorf("cannot encode %q: unknown format", s.Mnemonic)
	}
}

// Breakdown renders the fields of an encoded instruction as
// opcode-funct3-funct7-rd-rs1-rs2-imm, each in binary or NULL.
func Breakdown(o Operands) string {
	s := o.Spec
	fields := []string{
		BinaryField(uint32(s.Opcode), OpcodeWidth),
		NotApplicable, NotApplicable, NotApplicable,
		NotApplicable, NotApplicable, NotApplicable,
	}
	if s.HasFunct3 {
		fields[1] = BinaryField(uint32(s.Funct3), Funct3Width)
	}
	if s.HasFunct7 {
		fields[2] = BinaryField(uint32(s.Funct7), Funct7Width)
	}

	for _, role := range s.Operands {
		switch role {
		case RoleRd:
			fields[3] = BinaryField(uint32(o.Rd), RegWidth)
		case RoleRs1:
			fields[4] = BinaryField(uint32(o.Rs1), RegWidth)
		case RoleRs2:
			fields[5] = BinaryField(uint32(o.Rs2), RegWidth)
		case RoleImm, RoleTarget:
			w := s.ImmWidth()
			fields[6] = BinaryField(FitImmediate(o.Imm, w), w)
		}
	}

	return strings.Join(fields, "-")
}
