package asm_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rv32sim/asm"
	"github.com/sarchlab/rv32sim/config"
	"github.com/sarchlab/rv32sim/insts"
	"github.com/sarchlab/rv32sim/loader"
)

func assemble(lines ...string) *asm.Result {
	return asm.New(asm.WithLogger(GinkgoLogr)).Assemble(lines)
}

func textRecords(res *asm.Result) []asm.Record {
	var out []asm.Record
	for _, r := range res.Records {
		if r.Segment == asm.SegmentText && !r.Sentinel {
			out = append(out, r)
		}
	}
	return out
}

func dataRecords(res *asm.Result) []asm.Record {
	var out []asm.Record
	for _, r := range res.Records {
		if r.Segment == asm.SegmentData {
			out = append(out, r)
		}
	}
	return out
}

var _ = Describe("Assembler", func() {
	Describe("instruction encoding", func() {
		It("should encode addi x1, x0, 5", func() {
			res := assemble("addi x1, x0, 5")
			Expect(res.Err()).NotTo(HaveOccurred())

			recs := textRecords(res)
			Expect(recs).To(HaveLen(1))
			Expect(recs[0].Address).To(BeZero())
			Expect(recs[0].Word()).To(Equal(uint32(0x00500093)))
			Expect(recs[0].Breakdown).To(Equal("0010011-000-NULL-00001-00000-NULL-000000000101"))
			Expect(recs[0].Source).To(Equal("addi x1, x0, 5"))
		})

		It("should resolve a backward branch to a negative offset", func() {
			res := assemble(
				"loop: addi x1, x1, -1",
				"      bne x1, x0, loop",
			)
			Expect(res.Err()).NotTo(HaveOccurred())

			bne := textRecords(res)[1]
			Expect(bne.Address).To(Equal(uint32(4)))
			Expect(bne.Word()).To(Equal(uint32(0xFE009EE3)))
			Expect(insts.UnpackB(bne.Word())).To(Equal(int32(-4)))
		})

		It("should resolve a forward branch to a positive offset", func() {
			res := assemble(
				"beq x0, x0, end",
				"addi x1, x0, 1",
				"end: addi x2, x0, 2",
			)
			beq := textRecords(res)[0]
			Expect(insts.UnpackB(beq.Word())).To(Equal(int32(8)))
			Expect(beq.Breakdown).To(HaveSuffix("-0000000001000"))
		})

		It("should take a literal branch offset as is", func() {
			res := assemble("blt x1, x2, -8")
			Expect(insts.UnpackB(textRecords(res)[0].Word())).To(Equal(int32(-8)))
		})

		It("should resolve jal targets in both directions", func() {
			res := assemble(
				"top: jal ra, fn",
				"jal fn",
				"fn: jal x0, top",
			)
			Expect(res.Err()).NotTo(HaveOccurred())

			recs := textRecords(res)
			Expect(recs[0].Word()).To(Equal(uint32(0x008000EF)))
			Expect(insts.UnpackJ(recs[1].Word())).To(Equal(int32(4)))
			Expect(recs[1].Word() >> 7 & 0x1F).To(Equal(uint32(1)))
			Expect(insts.UnpackJ(recs[2].Word())).To(Equal(int32(-8)))
		})

		It("should accept both I-type operand shapes and ABI names", func() {
			res := assemble(
				"lw t0, 8(sp)",
				"lw x5, x2, 8",
				"jalr zero, 0(ra)",
				"lb a0, (a1)",
			)
			Expect(res.Err()).NotTo(HaveOccurred())

			recs := textRecords(res)
			Expect(recs[0].Word()).To(Equal(recs[1].Word()))
			Expect(recs[2].Word()).To(Equal(uint32(0x00008067)))
			Expect(insts.UnpackI(recs[3].Word())).To(BeZero())
		})

		It("should encode stores and upper immediates", func() {
			res := assemble(
				"sw x2, 0(x1)",
				"lui x5, 0x12345",
				"srai x1, x2, 3",
			)
			recs := textRecords(res)
			Expect(recs[0].Word()).To(Equal(uint32(0x0020A023)))
			Expect(recs[1].Word()).To(Equal(uint32(0x123452B7)))
			Expect(recs[2].Word()).To(Equal(uint32(0x40315093)))
		})

		It("should ignore mnemonic case and trailing comments", func() {
			res := assemble("ADDI x1, x0, 5 # five")
			Expect(res.Err()).NotTo(HaveOccurred())
			Expect(textRecords(res)[0].Word()).To(Equal(uint32(0x00500093)))
		})

		It("should honour the configured text base", func() {
			cfg := config.Default()
			cfg.TextBase = 0x100
			res := asm.New(asm.WithMachineConfig(cfg)).Assemble([]string{"l: jal x0, l"})
			Expect(res.Records[0].Address).To(Equal(uint32(0x100)))
			Expect(addrOf(res.Symbols, "l")).To(Equal(uint32(0x100)))
		})
	})

	Describe("sentinel", func() {
		It("should close the text segment on the switch to data", func() {
			res := assemble(
				"addi x1, x0, 1",
				"addi x2, x0, 2",
				".data",
				".word 5",
			)
			Expect(res.Records).To(HaveLen(4))
			Expect(res.Records[2].Sentinel).To(BeTrue())
			Expect(res.Records[2].Address).To(Equal(uint32(8)))
			Expect(res.Records[2].Word()).To(Equal(insts.TrapWord))
		})

		It("should close the text segment at end of input", func() {
			res := assemble("addi x1, x0, 1")
			last := res.Records[len(res.Records)-1]
			Expect(last.Sentinel).To(BeTrue())
			Expect(last.Address).To(Equal(uint32(4)))
		})

		It("should emit exactly one sentinel after the last instruction", func() {
			res := assemble(
				".data",
				"v: .word 1",
				".text",
				"addi x1, x0, 1",
			)
			var sentinels []asm.Record
			for _, r := range res.Records {
				if r.Sentinel {
					sentinels = append(sentinels, r)
				}
			}
			Expect(sentinels).To(HaveLen(1))
			Expect(sentinels[0].Address).To(Equal(uint32(4)))
		})

		It("should order text before data", func() {
			res := assemble(".data", ".byte 1", ".text", "addi x1, x0, 1")
			Expect(res.Records[0].Segment).To(Equal(asm.SegmentText))
			Expect(res.Records[len(res.Records)-1].Segment).To(Equal(asm.SegmentData))
		})
	})

	Describe("data directives", func() {
		It("should place .byte elements at consecutive addresses", func() {
			res := assemble(".data", ".word 9", ".byte 1,2,3", "after: .byte 4")
			data := dataRecords(res)
			Expect(data).To(HaveLen(5))
			for i, want := range []uint32{0x10000004, 0x10000005, 0x10000006} {
				Expect(data[1+i].Address).To(Equal(want))
				Expect(data[1+i].Width).To(Equal(1))
				Expect(data[1+i].Value).To(Equal(uint64(i + 1)))
			}
			Expect(addrOf(res.Symbols, "after")).To(Equal(uint32(0x10000007)))
		})

		It("should mask values to the element width", func() {
			data := dataRecords(assemble(".data", ".byte -1", ".half -2", ".word 0xFFFFFFFF", ".dword -1"))
			Expect(data[0].Value).To(Equal(uint64(0xFF)))
			Expect(data[1].Value).To(Equal(uint64(0xFFFE)))
			Expect(data[2].Value).To(Equal(uint64(0xFFFFFFFF)))
			Expect(data[3].Value).To(Equal(^uint64(0)))
		})

		It("should emit one byte per character and a terminator", func() {
			data := dataRecords(assemble(".data", `s: .asciz "a#b\n"`, "t: .byte 7"))
			Expect(data).To(HaveLen(6))
			Expect(data[0].Value).To(Equal(uint64('a')))
			Expect(data[1].Value).To(Equal(uint64('#')))
			Expect(data[3].Value).To(Equal(uint64('\n')))
			Expect(data[4].Value).To(BeZero())
			Expect(data[5].Address).To(Equal(uint32(0x10000005)))
		})
	})

	Describe("diagnostics", func() {
		It("should zero a bad register and keep the record", func() {
			res := assemble("addi x99, x0, 1")
			Expect(res.Diagnostics).To(HaveLen(1))
			Expect(res.Diagnostics[0]).To(MatchError(insts.ErrBadRegister))
			Expect(textRecords(res)[0].Word()).To(Equal(uint32(0x00100013)))
		})

		It("should zero a bad immediate and keep the record", func() {
			res := assemble("addi x1, x0, five")
			Expect(res.Err()).To(MatchError(insts.ErrBadImmediate))
			Expect(textRecords(res)[0].Word()).To(Equal(uint32(0x00000093)))
		})

		It("should skip an unknown mnemonic but keep later addresses", func() {
			res := assemble("frob x1, x2", "next: addi x1, x0, 1")
			Expect(res.Err()).To(MatchError(asm.ErrUnknownMnemonic))

			recs := textRecords(res)
			Expect(recs).To(HaveLen(1))
			Expect(recs[0].Address).To(Equal(uint32(4)))
			Expect(addrOf(res.Symbols, "next")).To(Equal(uint32(4)))
		})

		It("should skip lines with the wrong operand shape", func() {
			res := assemble("add x1, x2", "sw x1, x2", "jal x1, x2, x3")
			Expect(res.Diagnostics).To(HaveLen(3))
			for _, d := range res.Diagnostics {
				Expect(d).To(MatchError(asm.ErrOperandSyntax))
			}
			Expect(textRecords(res)).To(BeEmpty())
		})

		It("should encode an undefined label as offset zero", func() {
			res := assemble("beq x1, x2, nowhere")
			Expect(res.Err()).To(MatchError(asm.ErrUndefinedLabel))
			Expect(insts.UnpackB(textRecords(res)[0].Word())).To(BeZero())
		})

		It("should reject statements in the wrong segment", func() {
			res := assemble(
				".word 1",
				".data",
				"addi x1, x0, 1",
				".globl main",
				".asciz nope",
			)
			Expect(res.Diagnostics).To(HaveLen(4))
			Expect(res.Diagnostics[0]).To(MatchError(asm.ErrUnknownDirective))
			Expect(res.Diagnostics[1]).To(MatchError(asm.ErrWrongSegment))
			Expect(res.Diagnostics[2]).To(MatchError(asm.ErrUnknownDirective))
			Expect(res.Diagnostics[3]).To(MatchError(asm.ErrOperandSyntax))
			Expect(res.Diagnostics[3].Line).To(Equal(5))
		})

		It("should join every diagnostic into Err", func() {
			res := assemble("frob", "addi x1, x0, oops")
			err := res.Err()
			Expect(errors.Is(err, asm.ErrUnknownMnemonic)).To(BeTrue())
			Expect(errors.Is(err, insts.ErrBadImmediate)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring("line 2"))
		})
	})

	Describe("WriteTo", func() {
		It("should write the machine-code file format", func() {
			res := assemble(
				"addi x1, x0, 5",
				".data",
				".byte 1, 0xff",
				".half 2",
				".word -1",
				".dword 3",
			)

			var buf bytes.Buffer
			n, err := res.WriteTo(&buf)
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(int64(buf.Len())))
			Expect(buf.String()).To(Equal(
				"0x0 0x00500093 , addi x1, x0, 5 # 0010011-000-NULL-00001-00000-NULL-000000000101\n" +
					"0x4 0xFFFFFFFF , END\n" +
					"\n" +
					"0x10000000 0x01\n" +
					"0x10000001 0xff\n" +
					"0x10000002 0x0002\n" +
					"0x10000004 0xffffffff\n" +
					"0x10000008 0x0000000000000003\n"))
		})

		It("should round trip through the loader", func() {
			res := assemble("loop: addi x1, x1, -1", "bne x1, x0, loop", ".data", ".half 0x1234", ".dword 7")

			var buf bytes.Buffer
			_, err := res.WriteTo(&buf)
			Expect(err).NotTo(HaveOccurred())

			prog, err := loader.Parse(&buf)
			Expect(err).NotTo(HaveOccurred())
			Expect(prog).To(Equal(res.Program()))
		})
	})

	Describe("files", func() {
		var tempDir string

		BeforeEach(func() {
			var err error
			tempDir, err = os.MkdirTemp("", "asm-test")
			Expect(err).NotTo(HaveOccurred())
		})

		AfterEach(func() {
			_ = os.RemoveAll(tempDir)
		})

		It("should assemble a file and write the output", func() {
			src := filepath.Join(tempDir, "prog.s")
			Expect(os.WriteFile(src, []byte("addi x1, x0, 5\n"), 0644)).To(Succeed())

			res, err := asm.New().AssembleFile(src)
			Expect(err).NotTo(HaveOccurred())

			out := filepath.Join(tempDir, "prog.mc")
			Expect(res.WriteFile(out)).To(Succeed())

			data, err := os.ReadFile(out)
			Expect(err).NotTo(HaveOccurred())
			Expect(strings.HasPrefix(string(data), "0x0 0x00500093 , ")).To(BeTrue())
		})

		It("should fail for a missing file", func() {
			_, err := asm.New().AssembleFile(filepath.Join(tempDir, "missing.s"))
			Expect(err).To(MatchError(os.ErrNotExist))
		})
	})

	It("should assemble a multi-line string", func() {
		res := asm.AssembleString("addi x1, x0, 1\naddi x2, x0, 2\n")
		Expect(textRecords(res)).To(HaveLen(2))
	})
})
