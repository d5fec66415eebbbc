package emu

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/sarchlab/akita/v4/mem/mem"

	"github.com/sarchlab/rv32sim/config"
)

// ErrOutOfRange is returned when an access falls outside physical memory.
var ErrOutOfRange = errors.New("address out of range")

// AccessError describes a rejected memory access.
type AccessError struct {
	Addr  uint32
	Size  int
	Write bool
}

func (e *AccessError) Error() string {
	kind := "read"
	if e.Write {
		kind = "write"
	}
	return fmt.Sprintf("%s of %d bytes at 0x%08x: %v", kind, e.Size, e.Addr, ErrOutOfRange)
}

func (e *AccessError) Unwrap() error {
	return ErrOutOfRange
}

// Memory is the byte-addressable little-endian main memory. Addresses below
// the data offset map to the low region directly; data addresses are
// translated to addr - DataOffset + LowRegionSize.
type Memory struct {
	cfg     config.Machine
	storage *mem.Storage
}

// NewMemory creates a memory with the default machine layout.
func NewMemory() *Memory {
	return NewMemoryFromConfig(config.Default())
}

// NewMemoryFromConfig creates a memory with the layout in cfg.
func NewMemoryFromConfig(cfg *config.Machine) *Memory {
	return &Memory{
		cfg:     *cfg,
		storage: mem.NewStorage(uint64(cfg.MemorySize)),
	}
}

// Config returns the layout the memory was built with.
func (m *Memory) Config() config.Machine {
	return m.cfg
}

// Translate maps a logical address to its physical index. The second
// return value is false when [addr, addr+size) does not fit in the
// region the address belongs to.
func (m *Memory) Translate(addr uint32, size int) (uint32, bool) {
	end := uint64(addr) + uint64(size)

	if addr < m.cfg.DataOffset {
		return addr, end <= uint64(m.cfg.LowRegionSize)
	}

	idx := uint64(addr-m.cfg.DataOffset) + uint64(m.cfg.LowRegionSize)
	return uint32(idx), idx+uint64(size) <= uint64(m.cfg.MemorySize)
}

func (m *Memory) read(addr uint32, size int) ([]byte, error) {
	idx, ok := m.Translate(addr, size)
	if !ok {
		return nil, &AccessError{Addr: addr, Size: size}
	}

	data, err := m.storage.Read(uint64(idx), uint64(size))
	if err != nil {
		return nil, fmt.Errorf("failed to read storage at 0x%08x: %w", addr, err)
	}

	return data, nil
}

func (m *Memory) write(addr uint32, data []byte) error {
	idx, ok := m.Translate(addr, len(data))
	if !ok {
		return &AccessError{Addr: addr, Size: len(data), Write: true}
	}

	if err := m.storage.Write(uint64(idx), data); err != nil {
		return fmt.Errorf("failed to write storage at 0x%08x: %w", addr, err)
	}

	return nil
}

// Read8 reads a byte.
func (m *Memory) Read8(addr uint32) (uint8, error) {
	data, err := m.read(addr, 1)
	if err != nil {
		return 0, err
	}
	return data[0], nil
}

// Read16 reads a little-endian half word.
func (m *Memory) Read16(addr uint32) (uint16, error) {
	data, err := m.read(addr, 2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(data), nil
}

// Read32 reads a little-endian word.
func (m *Memory) Read32(addr uint32) (uint32, error) {
	data, err := m.read(addr, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(data), nil
}

// Read64 reads a little-endian double word.
func (m *Memory) Read64(addr uint32) (uint64, error) {
	data, err := m.read(addr, 8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(data), nil
}

// Write8 writes a byte.
func (m *Memory) Write8(addr uint32, value uint8) error {
	return m.write(addr, []byte{value})
}

// Write16 writes a little-endian half word.
func (m *Memory) Write16(addr uint32, value uint16) error {
	return m.write(addr, binary.LittleEndian.AppendUint16(nil, value))
}

// Write32 writes a little-endian word.
func (m *Memory) Write32(addr uint32, value uint32) error {
	return m.write(addr, binary.LittleEndian.AppendUint32(nil, value))
}

// Write64 writes a little-endian double word.
func (m *Memory) Write64(addr uint32, value uint64) error {
	return m.write(addr, binary.LittleEndian.AppendUint64(nil, value))
}

// DataWord is one word of the data segment.
type DataWord struct {
	Addr  uint32
	Value uint32
}

// DataWords returns every word of the data segment in address order,
// including zero words.
func (m *Memory) DataWords() []DataWord {
	n := m.cfg.DataSize() / 4
	words := make([]DataWord, 0, n)

	for i := uint32(0); i < n; i++ {
		addr := m.cfg.DataOffset + i*4
		v, err := m.Read32(addr)
		if err != nil {
			break
		}
		words = append(words, DataWord{Addr: addr, Value: v})
	}

	return words
}
