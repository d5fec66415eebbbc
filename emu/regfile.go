// Package emu provides functional RV32 emulation.
package emu

import "github.com/sarchlab/rv32sim/insts"

// RegFile represents the RV32 register file.
// It contains 32 general-purpose registers (X0-X31) and the program
// counter (PC).
type RegFile struct {
	// X holds general-purpose registers X0-X31.
	// X[0] is an ordinary register unless HardwiredZero is set.
	X [insts.NumRegs]uint32

	// PC is the program counter.
	PC uint32

	// HardwiredZero makes X0 read as 0 and ignore writes, as in the
	// ratified ISA.
	HardwiredZero bool
}

// ReadReg reads a register value. Out-of-range indices return 0.
func (r *RegFile) ReadReg(reg uint8) uint32 {
	if reg >= insts.NumRegs {
		return 0
	}
	if reg == 0 && r.HardwiredZero {
		return 0
	}
	return r.X[reg]
}

// WriteReg writes a value to a register. Out-of-range indices are ignored.
func (r *RegFile) WriteReg(reg uint8, value uint32) {
	if reg >= insts.NumRegs {
		return
	}
	if reg == 0 && r.HardwiredZero {
		return
	}
	r.X[reg] = value
}

// ReadSigned reads a register as a two's complement value.
func (r *RegFile) ReadSigned(reg uint8) int32 {
	return int32(r.ReadReg(reg))
}

// Reset clears every register and the PC.
func (r *RegFile) Reset() {
	r.X = [insts.NumRegs]uint32{}
	r.PC = 0
}
