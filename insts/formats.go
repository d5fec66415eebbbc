package insts

import (
	"fmt"
	"sort"
)

// Format is one of the six RV32 base encoding layouts.
type Format uint8

// Instruction formats.
const (
	FormatUnknown Format = iota
	FormatR              // funct7 | rs2 | rs1 | funct3 | rd | opcode
	FormatI              // imm[11:0] | rs1 | funct3 | rd | opcode
	FormatS              // imm[11:5] | rs2 | rs1 | funct3 | imm[4:0] | opcode
	FormatB              // imm[12|10:5] | rs2 | rs1 | funct3 | imm[4:1|11] | opcode
	FormatU              // imm[31:12] | rd | opcode
	FormatJ              // imm[20|10:1|11|19:12] | rd | opcode
)

func (f Format) String() string {
	switch f {
	case FormatR:
		return "R"
	case FormatI:
		return "I"
	case FormatS:
		return "S"
	case FormatB:
		return "B"
	case FormatU:
		return "U"
	case FormatJ:
		return "J"
	default:
		return "?"
	}
}

// Major opcodes (bits [6:0]).
const (
	OpcodeLoad   uint8 = 0b0000011
	OpcodeOpImm  uint8 = 0b0010011
	OpcodeAUIPC  uint8 = 0b0010111
	OpcodeStore  uint8 = 0b0100011
	OpcodeOp     uint8 = 0b0110011
	OpcodeLUI    uint8 = 0b0110111
	OpcodeBranch uint8 = 0b1100011
	OpcodeJALR   uint8 = 0b1100111
	OpcodeJAL    uint8 = 0b1101111
)

// Field widths in bits.
const (
	OpcodeWidth = 7
	RegWidth    = 5
	Funct3Width = 3
	Funct7Width = 7
	ShamtWidth  = 5
	ImmWidthI   = 12
	ImmWidthS   = 12
	ImmWidthB   = 13
	ImmWidthU   = 20
	ImmWidthJ   = 21
)

// Trap words. The assembler terminates the text segment with TrapWord;
// LegacyExitWord is the software-exit encoding older machine-code files use.
const (
	TrapWord       uint32 = 0xFFFFFFFF
	LegacyExitWord uint32 = 0xEF000011
)

// IsTrap reports whether word halts the processor instead of executing.
func IsTrap(word uint32) bool {
	return word == TrapWord || word == LegacyExitWord
}

// Op identifies a supported operation.
type Op uint8

// Supported operations.
const (
	OpUnknown Op = iota
	OpADD
	OpSUB
	OpMUL
	OpDIV
	OpREM
	OpAND
	OpOR
	OpXOR
	OpSLL
	OpSRL
	OpSRA
	OpSLT
	OpADDI
	OpANDI
	OpORI
	OpSLTI
	OpSLLI
	OpSRLI
	OpSRAI
	OpLB
	OpLH
	OpLW
	OpLD
	OpJALR
	OpSB
	OpSH
	OpSW
	OpSD
	OpBEQ
	OpBNE
	OpBLT
	OpBGE
	OpLUI
	OpAUIPC
	OpJAL
	OpEXIT
)

// Role is the meaning of one source operand.
type Role uint8

// Operand roles.
const (
	RoleRd Role = iota
	RoleRs1
	RoleRs2
	RoleImm
	RoleTarget
)

// Spec holds the fixed fields of one mnemonic. Specs are built once and
// never mutated.
type Spec struct {
	Mnemonic string
	Op       Op
	Format   Format
	Opcode   uint8
	Funct3   uint8
	Funct7   uint8

	// HasFunct3 and HasFunct7 tell whether the field is part of the
	// encoding or a "not applicable" placeholder.
	HasFunct3 bool
	HasFunct7 bool

	// Shift marks I-type shifts whose immediate is a 5-bit shamt with
	// funct7 packed into imm[11:5].
	Shift bool

	// Operands lists the roles in source order.
	Operands []Role
}

// ImmWidth returns the width of the immediate field the mnemonic encodes.
func (s Spec) ImmWidth() int {
	switch s.Format {
	case FormatI:
		if s.Shift {
			return ShamtWidth
		}
		return ImmWidthI
	case FormatS:
		return ImmWidthS
	case FormatB:
		return ImmWidthB
	case FormatU:
		return ImmWidthU
	case FormatJ:
		return ImmWidthJ
	default:
		return 0
	}
}

// IsLoad reports whether the mnemonic reads memory.
func (s Spec) IsLoad() bool { return s.Opcode == OpcodeLoad }

var (
	rOperands = []Role{RoleRd, RoleRs1, RoleRs2}
	iOperands = []Role{RoleRd, RoleRs1, RoleImm}
	sOperands = []Role{RoleRs2, RoleImm, RoleRs1}
	bOperands = []Role{RoleRs1, RoleRs2, RoleTarget}
	uOperands = []Role{RoleRd, RoleImm}
	jOperands = []Role{RoleRd, RoleTarget}
)

func rSpec(m string, op Op, f3, f7 uint8) Spec {
	return Spec{Mnemonic: m, Op: op, Format: FormatR, Opcode: OpcodeOp,
		Funct3: f3, Funct7: f7, HasFunct3: true, HasFunct7: true, Operands: rOperands}
}

func iSpec(m string, op Op, opcode, f3 uint8) Spec {
	return Spec{Mnemonic: m, Op: op, Format: FormatI, Opcode: opcode,
		Funct3: f3, HasFunct3: true, Operands: iOperands}
}

func shiftSpec(m string, op Op, f3, f7 uint8) Spec {
	return Spec{Mnemonic: m, Op: op, Format: FormatI, Opcode: OpcodeOpImm,
		Funct3: f3, Funct7: f7, HasFunct3: true, HasFunct7: true, Shift: true,
		Operands: iOperands}
}

func sSpec(m string, op Op, f3 uint8) Spec {
	return Spec{Mnemonic: m, Op: op, Format: FormatS, Opcode: OpcodeStore,
		Funct3: f3, HasFunct3: true, Operands: sOperands}
}

func bSpec(m string, op Op, f3 uint8) Spec {
	return Spec{Mnemonic: m, Op: op, Format: FormatB, Opcode: OpcodeBranch,
		Funct3: f3, HasFunct3: true, Operands: bOperands}
}

// formatTables lists every supported mnemonic grouped by format.
var formatTables = map[Format][]Spec{
	FormatR: {
		rSpec("add", OpADD, 0b000, 0b0000000),
		rSpec("sub", OpSUB, 0b000, 0b0100000),
		rSpec("mul", OpMUL, 0b000, 0b0000001),
		rSpec("div", OpDIV, 0b100, 0b0000001),
		rSpec("rem", OpREM, 0b110, 0b0000001),
		rSpec("and", OpAND, 0b111, 0b0000000),
		rSpec("or", OpOR, 0b110, 0b0000000),
		rSpec("xor", OpXOR, 0b100, 0b0000000),
		rSpec("sll", OpSLL, 0b001, 0b0000000),
		rSpec("srl", OpSRL, 0b101, 0b0000000),
		rSpec("sra", OpSRA, 0b101, 0b0100000),
		rSpec("slt", OpSLT, 0b010, 0b0000000),
	},
	FormatI: {
		iSpec("addi", OpADDI, OpcodeOpImm, 0b000),
		iSpec("andi", OpANDI, OpcodeOpImm, 0b111),
		iSpec("ori", OpORI, OpcodeOpImm, 0b110),
		iSpec("slti", OpSLTI, OpcodeOpImm, 0b010),
		shiftSpec("slli", OpSLLI, 0b001, 0b0000000),
		shiftSpec("srli", OpSRLI, 0b101, 0b0000000),
		shiftSpec("srai", OpSRAI, 0b101, 0b0100000),
		iSpec("lb", OpLB, OpcodeLoad, 0b000),
		iSpec("lh", OpLH, OpcodeLoad, 0b001),
		iSpec("lw", OpLW, OpcodeLoad, 0b010),
		iSpec("ld", OpLD, OpcodeLoad, 0b011),
		iSpec("jalr", OpJALR, OpcodeJALR, 0b000),
	},
	FormatS: {
		sSpec("sb", OpSB, 0b000),
		sSpec("sh", OpSH, 0b001),
		sSpec("sw", OpSW, 0b010),
		sSpec("sd", OpSD, 0b011),
	},
	FormatB: {
		bSpec("beq", OpBEQ, 0b000),
		bSpec("bne", OpBNE, 0b001),
		bSpec("blt", OpBLT, 0b100),
		bSpec("bge", OpBGE, 0b101),
	},
	FormatU: {
		{Mnemonic: "lui", Op: OpLUI, Format: FormatU, Opcode: OpcodeLUI, Operands: uOperands},
		{Mnemonic: "auipc", Op: OpAUIPC, Format: FormatU, Opcode: OpcodeAUIPC, Operands: uOperands},
	},
	FormatJ: {
		{Mnemonic: "jal", Op: OpJAL, Format: FormatJ, Opcode: OpcodeJAL, Operands: jOperands},
	},
}

// fieldKey identifies an operation by the fixed fields a decoder sees.
type fieldKey struct {
	opcode uint8
	funct3 uint8
	funct7 uint8
}

func keyOf(s Spec) fieldKey {
	k := fieldKey{opcode: s.Opcode}
	if s.HasFunct3 {
		k.funct3 = s.Funct3
	}
	if s.HasFunct7 {
		k.funct7 = s.Funct7
	}
	return k
}

var (
	byMnemonic = map[string]Spec{}
	byOp       = map[Op]Spec{}
	byFields   = map[fieldKey]Spec{}
)

func init() {
	for _, f := range []Format{FormatR, FormatI, FormatS, FormatB, FormatU, FormatJ} {
		for _, s := range formatTables[f] {
			if prev, dup := byMnemonic[s.Mnemonic]; dup {
				panic(fmt.Sprintf("insts: mnemonic %q in both %v and %v tables",
					s.Mnemonic, prev.Format, s.Format))
			}
			k := keyOf(s)
			if prev, dup := byFields[k]; dup {
				panic(fmt.Sprintf("insts: %q and %q share fixed fields", prev.Mnemonic, s.Mnemonic))
			}
			byMnemonic[s.Mnemonic] = s
			byOp[s.Op] = s
			byFields[k] = s
		}
	}
}

// Lookup returns the fixed fields for a mnemonic. The match is exact and
// expects a lower-case mnemonic.
func Lookup(mnemonic string) (Spec, bool) {
	s, ok := byMnemonic[mnemonic]
	return s, ok
}

// SpecFor returns the spec of a decoded operation.
func SpecFor(op Op) (Spec, bool) {
	s, ok := byOp[op]
	return s, ok
}

// Specs returns all supported mnemonics sorted by name.
func Specs() []Spec {
	out := make([]Spec, 0, len(byMnemonic))
	for _, s := range byMnemonic {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Mnemonic < out[j].Mnemonic })
	return out
}

func (o Op) String() string {
	if o == OpEXIT {
		return "EXIT"
	}
	if s, ok := byOp[o]; ok {
		return s.Mnemonic
	}
	return "unknown"
}
