// Package loader reads machine-code files produced by the assembler.
//
// Each non-blank line starts with two hex fields, an address and a value:
//
//	0x0 0x00500093 , addi x1, x0, 5 # 0010011-000-NULL-00001-00000-NULL-000000000101
//	0x10000000 0x2a
//
// Anything after the value is commentary and is ignored. The width of a
// record is inferred from the number of hex digits in its value: up to 2
// digits is a byte, 4 a half word, 8 a word and 16 a double word.
package loader

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ErrSyntax is returned for lines that do not start with two hex fields.
var ErrSyntax = errors.New("malformed machine-code line")

// Entry is one (address, value) pair.
type Entry struct {
	Address uint32
	Value   uint64
	// Width is the record size in bytes: 1, 2, 4 or 8.
	Width int
}

// Program is the ordered content of a machine-code file.
type Program struct {
	Entries []Entry
}

// Memory is the store a Program is applied to.
type Memory interface {
	Write8(addr uint32, value uint8) error
	Write16(addr uint32, value uint16) error
	Write32(addr uint32, value uint32) error
}

// Load opens and parses a machine-code file.
func Load(path string) (*Program, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open machine-code file: %w", err)
	}
	defer func() { _ = f.Close() }()

	prog, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return prog, nil
}

// Parse reads machine-code lines from r.
func Parse(r io.Reader) (*Program, error) {
	prog := &Program{}
	scanner := bufio.NewScanner(r)
	lineNo := 0

	for scanner.Scan() {
		lineNo++

		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		entry, err := parseLine(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}

		prog.Entries = append(prog.Entries, entry)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read machine code: %w", err)
	}

	return prog, nil
}

func parseLine(line string) (Entry, error) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return Entry{}, fmt.Errorf("%w: %q", ErrSyntax, line)
	}

	addrDigits, err := hexDigits(fields[0])
	if err != nil {
		return Entry{}, err
	}
	addr, err := strconv.ParseUint(addrDigits, 16, 32)
	if err != nil {
		return Entry{}, fmt.Errorf("%w: bad address %q", ErrSyntax, fields[0])
	}

	valueDigits, err := hexDigits(strings.TrimSuffix(fields[1], ","))
	if err != nil {
		return Entry{}, err
	}
	width, err := widthOf(valueDigits)
	if err != nil {
		return Entry{}, err
	}
	value, err := strconv.ParseUint(valueDigits, 16, 64)
	if err != nil {
		return Entry{}, fmt.Errorf("%w: bad value %q", ErrSyntax, fields[1])
	}

	return Entry{Address: uint32(addr), Value: value, Width: width}, nil
}

func hexDigits(tok string) (string, error) {
	digits := strings.TrimPrefix(strings.TrimPrefix(tok, "0x"), "0X")
	if digits == "" {
		return "", fmt.Errorf("%w: empty hex field %q", ErrSyntax, tok)
	}
	return digits, nil
}

func widthOf(digits string) (int, error) {
	switch n := len(digits); {
	case n <= 2:
		return 1, nil
	case n <= 4:
		return 2, nil
	case n <= 8:
		return 4, nil
	case n <= 16:
		return 8, nil
	default:
		return 0, fmt.Errorf("%w: value %q wider than 64 bits", ErrSyntax, digits)
	}
}

// Apply writes every entry into m in file order. Double words are written
// as two little-endian words.
func (p *Program) Apply(m Memory) error {
	for _, e := range p.Entries {
		var err error

		switch e.Width {
		case 1:
			err = m.Write8(e.Address, uint8(e.Value))
		case 2:
			err = m.Write16(e.Address, uint16(e.Value))
		case 4:
			err = m.Write32(e.Address, uint32(e.Value))
		case 8:
			err = m.Write32(e.Address, uint32(e.Value))
			if err == nil {
				err = m.Write32(e.Address+4, uint32(e.Value>>32))
			}
		default:
			err = fmt.Errorf("unsupported width %d", e.Width)
		}

		if err != nil {
			return fmt.Errorf("failed to load 0x%08x: %w", e.Address, err)
		}
	}

	return nil
}

