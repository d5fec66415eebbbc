package asm_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rv32sim/asm"
)

func addrOf(t *asm.SymbolTable, name string) uint32 {
	addr, ok := t.Lookup(name)
	ExpectWithOffset(1, ok).To(BeTrue(), name)
	return addr
}

var _ = Describe("BuildSymbols", func() {
	It("should place labels in both segments", func() {
		symbols, diags := asm.BuildSymbols([]string{
			".text",
			"main: addi x1, x0, 1",
			"loop:",
			"  addi x1, x1, -1",
			"  bne x1, x0, loop",
			"done: jal x0, done",
			".data",
			"arr: .word 1, 2, 3",
			"msg: .asciz \"hi\"",
			"end: .byte 1",
		})
		Expect(diags).To(BeEmpty())
		Expect(symbols.All()).To(Equal([]asm.Symbol{
			{Name: "main", Address: 0},
			{Name: "loop", Address: 4},
			{Name: "done", Address: 12},
			{Name: "arr", Address: 0x10000000},
			{Name: "msg", Address: 0x1000000C},
			{Name: "end", Address: 0x1000000F},
		}))
	})

	It("should advance data addresses by element width", func() {
		symbols, _ := asm.BuildSymbols([]string{
			".data",
			"a: .byte 1, 2, 3",
			"b: .half 1, 2",
			"c: .dword 5",
			"d: .word 7,, 8",
			"e:",
		})
		Expect(addrOf(symbols, "b")).To(Equal(uint32(0x10000003)))
		Expect(addrOf(symbols, "c")).To(Equal(uint32(0x10000007)))
		Expect(addrOf(symbols, "d")).To(Equal(uint32(0x1000000F)))
		Expect(addrOf(symbols, "e")).To(Equal(uint32(0x10000017)))
	})

	It("should count invalid instructions and skip comments", func() {
		symbols, _ := asm.BuildSymbols([]string{
			"# header comment",
			"",
			"   # indented comment",
			"bogus x1, x2",
			"addi x1, x0, 1 # trailing comment",
			"here:",
		})
		Expect(addrOf(symbols, "here")).To(Equal(uint32(8)))
	})

	It("should accept a label glued to its statement", func() {
		symbols, _ := asm.BuildSymbols([]string{"addi x1, x0, 1", "loop:addi x1, x1, 1"})
		Expect(addrOf(symbols, "loop")).To(Equal(uint32(4)))
	})

	It("should reset the text counter on .text", func() {
		symbols, _ := asm.BuildSymbols([]string{
			"addi x1, x0, 1",
			".data",
			".word 1",
			".text",
			"again: addi x1, x0, 1",
		})
		Expect(addrOf(symbols, "again")).To(Equal(uint32(0)))
	})

	It("should keep the first definition of a duplicate label", func() {
		symbols, diags := asm.BuildSymbols([]string{"x: addi x1, x0, 1", "x: addi x1, x0, 2"})
		Expect(addrOf(symbols, "x")).To(Equal(uint32(0)))
		Expect(diags).To(HaveLen(1))
		Expect(diags[0].Line).To(Equal(2))
		Expect(diags[0]).To(MatchError(asm.ErrDuplicateLabel))
	})
})

var _ = Describe("SymbolTable", func() {
	It("should preserve definition order", func() {
		t := asm.NewSymbolTable()
		Expect(t.Define("zeta", 8)).To(Succeed())
		Expect(t.Define("alpha", 4)).To(Succeed())
		Expect(t.Len()).To(Equal(2))
		Expect(t.All()[0].Name).To(Equal("zeta"))

		_, ok := t.Lookup("missing")
		Expect(ok).To(BeFalse())
	})
})
