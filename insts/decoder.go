package insts

// Instruction represents a decoded RV32 instruction.
type Instruction struct {
	Op     Op     // Operation
	Format Format // Encoding format
	Word   uint32 // Raw instruction word

	// Fixed fields as they appear in the word
	Opcode uint8
	Funct3 uint8
	Funct7 uint8

	// Register fields
	Rd  uint8
	Rs1 uint8
	Rs2 uint8

	// Imm is the sign-extended immediate. For U-type it is already shifted
	// into bits [31:12]; for I-type shifts it is the 5-bit shamt.
	Imm int32
}

// IsTrap reports whether the instruction is the exit trap.
func (i *Instruction) IsTrap() bool {
	return i.Op == OpEXIT
}

// Decoder decodes RV32 machine code into instructions.
type Decoder struct{}

// NewDecoder creates a new RV32 instruction decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode decodes a 32-bit instruction word. Words whose fixed fields match
// no supported mnemonic decode with Op == OpUnknown; the register and
// immediate fields are still extracted for the format the opcode implies.
func (d *Decoder) Decode(word uint32) *Instruction {
	inst := &Instruction{Op: OpUnknown, Format: FormatUnknown, Word: word}

	if IsTrap(word) {
		inst.Op = OpEXIT
		return inst
	}

	inst.Opcode = uint8(word & 0x7F)         // bits [6:0]
	inst.Rd = uint8((word >> 7) & 0x1F)      // bits [11:7]
	inst.Funct3 = uint8((word >> 12) & 0x7)  // bits [14:12]
	inst.Rs1 = uint8((word >> 15) & 0x1F)    // bits [19:15]
	inst.Rs2 = uint8((word >> 20) & 0x1F)    // bits [24:20]
	inst.Funct7 = uint8((word >> 25) & 0x7F) // bits [31:25]

	key := fieldKey{opcode: inst.Opcode}

	switch inst.Opcode {
	case OpcodeOp:
		inst.Format = FormatR
		key.funct3, key.funct7 = inst.Funct3, inst.Funct7
	case OpcodeOpImm:
		inst.Format = FormatI
		key.funct3 = inst.Funct3
		if inst.Funct3 == 0b001 || inst.Funct3 == 0b101 {
			// Shift immediate: imm[11:5] is funct7, imm[4:0] is shamt
			key.funct7 = inst.Funct7
			inst.Imm = int32(inst.Rs2)
		} else {
			inst.Imm = UnpackI(word)
		}
	case OpcodeLoad, OpcodeJALR:
		inst.Format = FormatI
		key.funct3 = inst.Funct3
		inst.Imm = UnpackI(word)
	case OpcodeStore:
		inst.Format = FormatS
		key.funct3 = inst.Funct3
		inst.Imm = UnpackS(word)
	case OpcodeBranch:
		inst.Format = FormatB
		key.funct3 = inst.Funct3
		inst.Imm = UnpackB(word)
	case OpcodeLUI, OpcodeAUIPC:
		inst.Format = FormatU
		inst.Imm = UnpackU(word)
	case OpcodeJAL:
		inst.Format = FormatJ
		inst.Imm = UnpackJ(word)
	default:
		return inst
	}

	if s, ok := byFields[key]; ok {
		inst.Op = s.Op
	}

	return inst
}
