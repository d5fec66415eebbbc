package emu

import "github.com/sarchlab/rv32sim/insts"

// BranchUnit evaluates conditional branch predicates.
type BranchUnit struct{}

// NewBranchUnit creates a new BranchUnit.
func NewBranchUnit() *BranchUnit {
	return &BranchUnit{}
}

// Taken reports whether the branch op is taken for operands a and b.
// blt and bge compare as signed values.
func (bu *BranchUnit) Taken(op insts.Op, a, b uint32) bool {
	switch op {
	case insts.OpBEQ:
		return a == b
	case insts.OpBNE:
		return a != b
	case insts.OpBLT:
		return int32(a) < int32(b)
	case insts.OpBGE:
		return int32(a) >= int32(b)
	}
	return false
}

// Target returns pc advanced by a signed byte offset.
func (bu *BranchUnit) Target(pc, offset uint32) uint32 {
	return pc + offset
}

// RegisterTarget returns the jalr destination (base + offset) with bit 0
// cleared.
func (bu *BranchUnit) RegisterTarget(base, offset uint32) uint32 {
	return (base + offset) &^ 1
}
