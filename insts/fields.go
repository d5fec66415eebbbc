package insts

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Codec errors. The assembler substitutes a zero field when it sees them.
var (
	ErrBadRegister  = errors.New("invalid register")
	ErrBadImmediate = errors.New("invalid immediate")
)

// NumRegs is the size of the integer register file.
const NumRegs = 32

var abiNames = [NumRegs]string{
	"zero", "ra", "sp", "gp", "tp",
	"t0", "t1", "t2",
	"s0", "s1",
	"a0", "a1", "a2", "a3", "a4", "a5", "a6", "a7",
	"s2", "s3", "s4", "s5", "s6", "s7", "s8", "s9", "s10", "s11",
	"t3", "t4", "t5", "t6",
}

var abiRegs = func() map[string]uint8 {
	m := make(map[string]uint8, NumRegs+1)
	for i, n := range abiNames {
		m[n] = uint8(i)
	}
	m["fp"] = 8
	return m
}()

// ParseRegister converts an "x<N>" token (or its ABI alias) into a 5-bit
// register index.
func ParseRegister(tok string) (uint8, error) {
	tok = strings.TrimSuffix(strings.TrimSpace(tok), ",")
	if r, ok := abiRegs[tok]; ok {
		return r, nil
	}
	if len(tok) < 2 || tok[0] != 'x' {
		return 0, fmt.Errorf("%w: %q", ErrBadRegister, tok)
	}
	n, err := strconv.ParseUint(tok[1:], 10, 8)
	if err != nil || n >= NumRegs {
		return 0, fmt.Errorf("%w: %q", ErrBadRegister, tok)
	}
	return uint8(n), nil
}

// RegisterName returns the canonical "x<N>" spelling.
func RegisterName(r uint8) string {
	return "x" + strconv.Itoa(int(r))
}

// ParseImmediate parses a signed decimal, hex (0x), octal (0o) or binary
// (0b) integer.
func ParseImmediate(tok string) (int64, error) {
	tok = strings.TrimSuffix(strings.TrimSpace(tok), ",")
	if tok == "" {
		return 0, fmt.Errorf("%w: empty", ErrBadImmediate)
	}
	v, err := strconv.ParseInt(tok, 0, 64)
	if err == nil {
		return v, nil
	}
	// Accept values that only fit unsigned, e.g. 0xFFFFFFFF.
	u, uerr := strconv.ParseUint(tok, 0, 64)
	if uerr != nil {
		return 0, fmt.Errorf("%w: %q", ErrBadImmediate, tok)
	}
	return int64(u), nil
}

// FitsSigned reports whether v is representable as a bits-wide two's
// complement value.
func FitsSigned(v int64, bits int) bool {
	lo := -(int64(1) << (bits - 1))
	hi := (int64(1) << (bits - 1)) - 1
	return v >= lo && v <= hi
}

// FitImmediate masks v to a bits-wide two's complement field.
func FitImmediate(v int64, bits int) uint32 {
	return uint32(uint64(v) & mask(bits))
}

// SignExtend interprets the low bits of v as a two's complement value.
func SignExtend(v uint32, bits int) int32 {
	shift := 32 - bits
	return int32(v<<shift) >> shift
}

// BinaryField renders the low bits of v, most significant bit first.
func BinaryField(v uint32, bits int) string {
	return fmt.Sprintf("%0*b", bits, uint64(v)&mask(bits))
}

func mask(bits int) uint64 {
	return (uint64(1) << bits) - 1
}

func bit(v uint32, n int) uint32 {
	return (v >> n) & 1
}

func bitsOf(v uint32, hi, lo int) uint32 {
	return (v >> lo) & uint32(mask(hi-lo+1))
}

// PackI places a 12-bit immediate at imm[11:0] = word[31:20].
func PackI(imm uint32) uint32 {
	return bitsOf(imm, 11, 0) << 20
}

// PackS places imm[11:5] at word[31:25] and imm[4:0] at word[11:7].
func PackS(imm uint32) uint32 {
	return bitsOf(imm, 11, 5)<<25 | bitsOf(imm, 4, 0)<<7
}

// PackB scatters a 13-bit branch offset: imm[12] -> 31, imm[10:5] -> 30:25,
// imm[4:1] -> 11:8, imm[11] -> 7. imm[0] is dropped.
func PackB(imm uint32) uint32 {
	return bit(imm, 12)<<31 |
		bitsOf(imm, 10, 5)<<25 |
		bitsOf(imm, 4, 1)<<8 |
		bit(imm, 11)<<7
}

// PackU places a 20-bit immediate at word[31:12].
func PackU(imm uint32) uint32 {
	return bitsOf(imm, 19, 0) << 12
}

// PackJ scatters a 21-bit jump offset: imm[20] -> 31, imm[10:1] -> 30:21,
// imm[11] -> 20, imm[19:12] -> 19:12. imm[0] is dropped.
func PackJ(imm uint32) uint32 {
	return bit(imm, 20)<<31 |
		bitsOf(imm, 10, 1)<<21 |
		bit(imm, 11)<<20 |
		bitsOf(imm, 19, 12)<<12
}

// UnpackI returns the sign-extended I-type immediate.
func UnpackI(word uint32) int32 {
	return SignExtend(bitsOf(word, 31, 20), ImmWidthI)
}

// UnpackS returns the sign-extended S-type immediate.
func UnpackS(word uint32) int32 {
	return SignExtend(bitsOf(word, 31, 25)<<5|bitsOf(word, 11, 7), ImmWidthS)
}

// UnpackB returns the sign-extended branch offset.
func UnpackB(word uint32) int32 {
	imm := bit(word, 31)<<12 |
		bitsOf(word, 30, 25)<<5 |
		bitsOf(word, 11, 8)<<1 |
		bit(word, 7)<<11
	return SignExtend(imm, ImmWidthB)
}

// UnpackU returns the upper immediate already shifted into place.
func UnpackU(word uint32) int32 {
	return int32(word & 0xFFFFF000)
}

// UnpackJ returns the sign-extended jump offset.
func UnpackJ(word uint32) int32 {
	imm := bit(word, 31)<<20 |
		bitsOf(word, 30, 21)<<1 |
		bit(word, 20)<<11 |
		bitsOf(word, 19, 12)<<12
	return SignExtend(imm, ImmWidthJ)
}
