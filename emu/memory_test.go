package emu_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rv32sim/config"
	"github.com/sarchlab/rv32sim/emu"
)

var _ = Describe("Memory", func() {
	var m *emu.Memory

	BeforeEach(func() {
		m = emu.NewMemory()
	})

	Describe("Translate", func() {
		It("should map low addresses directly", func() {
			idx, ok := m.Translate(0x40, 4)
			Expect(ok).To(BeTrue())
			Expect(idx).To(Equal(uint32(0x40)))
		})

		It("should map data addresses above the low region", func() {
			idx, ok := m.Translate(0x10000010, 4)
			Expect(ok).To(BeTrue())
			Expect(idx).To(Equal(uint32(4096 + 0x10)))
		})

		It("should honour a custom gap", func() {
			cfg := config.Default()
			cfg.LowRegionSize = 1024
			m = emu.NewMemoryFromConfig(cfg)

			idx, ok := m.Translate(0x10000000, 4)
			Expect(ok).To(BeTrue())
			Expect(idx).To(Equal(uint32(1024)))
		})

		It("should reject code accesses that spill into the data region", func() {
			_, ok := m.Translate(4094, 4)
			Expect(ok).To(BeFalse())
		})

		It("should reject data accesses past the buffer", func() {
			_, ok := m.Translate(0x10000000+4093, 4)
			Expect(ok).To(BeFalse())

			_, ok = m.Translate(0x10000000+4092, 4)
			Expect(ok).To(BeTrue())
		})

		It("should reject addresses between the regions", func() {
			_, ok := m.Translate(0x2000, 1)
			Expect(ok).To(BeFalse())
		})
	})

	Describe("Read and Write", func() {
		It("should store words little-endian", func() {
			Expect(m.Write32(0x10000000, 0xAABBCCDD)).To(Succeed())

			b, err := m.Read8(0x10000000)
			Expect(err).NotTo(HaveOccurred())
			Expect(b).To(Equal(uint8(0xDD)))

			h, err := m.Read16(0x10000002)
			Expect(err).NotTo(HaveOccurred())
			Expect(h).To(Equal(uint16(0xAABB)))
		})

		It("should round trip every width", func() {
			Expect(m.Write8(0x10, 0x7F)).To(Succeed())
			Expect(m.Write16(0x20, 0xBEEF)).To(Succeed())
			Expect(m.Write32(0x30, 0xDEADBEEF)).To(Succeed())
			Expect(m.Write64(0x10000008, 0x0102030405060708)).To(Succeed())

			Expect(m.Read8(0x10)).To(Equal(uint8(0x7F)))
			Expect(m.Read16(0x20)).To(Equal(uint16(0xBEEF)))
			Expect(m.Read32(0x30)).To(Equal(uint32(0xDEADBEEF)))
			Expect(m.Read64(0x10000008)).To(Equal(uint64(0x0102030405060708)))
			Expect(m.Read32(0x1000000C)).To(Equal(uint32(0x01020304)))
		})

		It("should fault instead of touching memory out of range", func() {
			err := m.Write32(0x10001000, 1)
			Expect(err).To(HaveOccurred())
			Expect(errors.Is(err, emu.ErrOutOfRange)).To(BeTrue())

			var accessErr *emu.AccessError
			Expect(errors.As(err, &accessErr)).To(BeTrue())
			Expect(accessErr.Addr).To(Equal(uint32(0x10001000)))
			Expect(accessErr.Write).To(BeTrue())
			Expect(accessErr.Error()).To(ContainSubstring("write of 4 bytes at 0x10001000"))

			_, err = m.Read16(0x0FFF)
			Expect(err).To(MatchError(emu.ErrOutOfRange))
		})

		It("should leave neighbours alone on a byte write", func() {
			Expect(m.Write32(0x10000000, 0x11223344)).To(Succeed())
			Expect(m.Write8(0x10000001, 0xFF)).To(Succeed())
			Expect(m.Read32(0x10000000)).To(Equal(uint32(0x1122FF44)))
		})
	})

	Describe("DataWords", func() {
		It("should cover the whole data segment", func() {
			Expect(m.Write32(0x10000004, 9)).To(Succeed())

			words := m.DataWords()
			Expect(words).To(HaveLen(1024))
			Expect(words[0]).To(Equal(emu.DataWord{Addr: 0x10000000, Value: 0}))
			Expect(words[1]).To(Equal(emu.DataWord{Addr: 0x10000004, Value: 9}))
			Expect(words[1023].Addr).To(Equal(uint32(0x10000FFC)))
		})
	})
})
