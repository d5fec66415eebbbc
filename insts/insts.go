// Package insts provides RV32 instruction definitions, encoding and decoding.
//
// This package holds the fixed per-mnemonic fields of the supported RISC-V
// subset and the codecs that move operands in and out of a 32-bit word. It
// supports:
//   - R-type: add, sub, mul, div, rem, and, or, xor, sll, srl, sra, slt
//   - I-type: addi, andi, ori, slti, slli, srli, srai, lb, lh, lw, ld, jalr
//   - S-type: sb, sh, sw, sd
//   - B-type: beq, bne, blt, bge
//   - U-type: lui, auipc
//   - J-type: jal
//
// Usage:
//
//	spec, _ := insts.Lookup("addi")
//	word, _ := insts.Encode(insts.Operands{Spec: spec, Rd: 1, Rs1: 0, Imm: 5})
//	inst := insts.NewDecoder().Decode(word) // ADDI x1, x0, 5
package insts
