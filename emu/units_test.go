package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rv32sim/emu"
	"github.com/sarchlab/rv32sim/insts"
)

var _ = Describe("ALU", func() {
	var alu *emu.ALU

	BeforeEach(func() {
		alu = emu.NewALU()
	})

	neg := func(v int32) uint32 { return uint32(v) }

	DescribeTable("Compute",
		func(op insts.Op, a, b, want uint32) {
			got, ok := alu.Compute(op, a, b)
			Expect(ok).To(BeTrue())
			Expect(got).To(Equal(want))
		},
		Entry("add", insts.OpADD, uint32(2), uint32(3), uint32(5)),
		Entry("add wraps", insts.OpADD, uint32(0xFFFFFFFF), uint32(1), uint32(0)),
		Entry("addi negative", insts.OpADDI, uint32(5), neg(-1), uint32(4)),
		Entry("sub", insts.OpSUB, uint32(3), uint32(5), neg(-2)),
		Entry("mul", insts.OpMUL, neg(-3), uint32(7), neg(-21)),
		Entry("div signed", insts.OpDIV, neg(-7), uint32(2), neg(-3)),
		Entry("div by zero", insts.OpDIV, uint32(42), uint32(0), uint32(0)),
		Entry("rem signed", insts.OpREM, neg(-7), uint32(2), neg(-1)),
		Entry("rem by zero", insts.OpREM, uint32(42), uint32(0), uint32(0)),
		Entry("and", insts.OpAND, uint32(0b1100), uint32(0b1010), uint32(0b1000)),
		Entry("andi", insts.OpANDI, uint32(0xFF), uint32(0x0F), uint32(0x0F)),
		Entry("or", insts.OpOR, uint32(0b1100), uint32(0b1010), uint32(0b1110)),
		Entry("ori", insts.OpORI, uint32(0x10), uint32(0x01), uint32(0x11)),
		Entry("xor", insts.OpXOR, uint32(0b1100), uint32(0b1010), uint32(0b0110)),
		Entry("sll masks the amount", insts.OpSLL, uint32(1), uint32(33), uint32(2)),
		Entry("slli", insts.OpSLLI, uint32(3), uint32(4), uint32(48)),
		Entry("srl is logical", insts.OpSRL, uint32(0x80000000), uint32(31), uint32(1)),
		Entry("srli", insts.OpSRLI, uint32(0x100), uint32(4), uint32(0x10)),
		Entry("sra is arithmetic", insts.OpSRA, uint32(0x80000000), uint32(31), uint32(0xFFFFFFFF)),
		Entry("srai", insts.OpSRAI, neg(-16), uint32(2), neg(-4)),
		Entry("slt true", insts.OpSLT, neg(-1), uint32(1), uint32(1)),
		Entry("slt false", insts.OpSLT, uint32(1), neg(-1), uint32(0)),
		Entry("slti", insts.OpSLTI, uint32(3), uint32(4), uint32(1)),
	)

	It("should not handle memory or control ops", func() {
		_, ok := alu.Compute(insts.OpLW, 1, 2)
		Expect(ok).To(BeFalse())
		_, ok = alu.Compute(insts.OpBEQ, 1, 2)
		Expect(ok).To(BeFalse())
	})
})

var _ = Describe("BranchUnit", func() {
	var bu *emu.BranchUnit

	BeforeEach(func() {
		bu = emu.NewBranchUnit()
	})

	DescribeTable("Taken",
		func(op insts.Op, a, b int32, want bool) {
			Expect(bu.Taken(op, uint32(a), uint32(b))).To(Equal(want))
		},
		Entry("beq equal", insts.OpBEQ, int32(4), int32(4), true),
		Entry("beq differ", insts.OpBEQ, int32(4), int32(5), false),
		Entry("bne differ", insts.OpBNE, int32(4), int32(5), true),
		Entry("bne equal", insts.OpBNE, int32(0), int32(0), false),
		Entry("blt signed", insts.OpBLT, int32(-1), int32(0), true),
		Entry("blt equal", insts.OpBLT, int32(3), int32(3), false),
		Entry("bge equal", insts.OpBGE, int32(3), int32(3), true),
		Entry("bge signed", insts.OpBGE, int32(-5), int32(2), false),
		Entry("not a branch", insts.OpADD, int32(0), int32(0), false),
	)

	It("should clear bit 0 of a register target", func() {
		Expect(bu.RegisterTarget(0x101, 0x10)).To(Equal(uint32(0x110)))
		Expect(bu.RegisterTarget(0x100, 0xFFFFFFFF)).To(Equal(uint32(0xFE)))
	})

	It("should wrap backward targets", func() {
		Expect(bu.Target(8, 0xFFFFFFFC)).To(Equal(uint32(4)))
	})
})

var _ = Describe("LoadStoreUnit", func() {
	var (
		m   *emu.Memory
		lsu *emu.LoadStoreUnit
	)

	BeforeEach(func() {
		m = emu.NewMemory()
		lsu = emu.NewLoadStoreUnit(m)
	})

	It("should sign-extend byte and half loads", func() {
		Expect(m.Write32(0x10000000, 0x8000FF80)).To(Succeed())

		Expect(lsu.Load(insts.OpLB, 0x10000000)).To(Equal(uint32(0xFFFFFF80)))
		Expect(lsu.Load(insts.OpLH, 0x10000002)).To(Equal(uint32(0xFFFF8000)))
		Expect(lsu.Load(insts.OpLW, 0x10000000)).To(Equal(uint32(0x8000FF80)))
	})

	It("should store only the low bytes", func() {
		Expect(lsu.Store(insts.OpSB, 0x10000000, 0x12345678)).To(Succeed())
		Expect(lsu.Store(insts.OpSH, 0x10000004, 0x12345678)).To(Succeed())

		Expect(m.Read32(0x10000000)).To(Equal(uint32(0x78)))
		Expect(m.Read32(0x10000004)).To(Equal(uint32(0x5678)))
	})

	It("should zero-extend sd and read the low word with ld", func() {
		Expect(m.Write32(0x1000000C, 0xFFFFFFFF)).To(Succeed())
		Expect(lsu.Store(insts.OpSD, 0x10000008, 0xCAFEBABE)).To(Succeed())

		Expect(m.Read64(0x10000008)).To(Equal(uint64(0xCAFEBABE)))
		Expect(lsu.Load(insts.OpLD, 0x10000008)).To(Equal(uint32(0xCAFEBABE)))
	})

	It("should reject non-memory ops", func() {
		_, err := lsu.Load(insts.OpADD, 0)
		Expect(err).To(HaveOccurred())
		Expect(lsu.Store(insts.OpLW, 0, 0)).NotTo(Succeed())
	})

	It("should surface out-of-range faults", func() {
		_, err := lsu.Load(insts.OpLW, 0x20000000)
		Expect(err).To(MatchError(emu.ErrOutOfRange))
	})
})
