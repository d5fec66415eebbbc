package benchmarks

import "github.com/sarchlab/rv32sim/emu"

// dataBase is the first data-segment address under the default layout.
const dataBase = 0x10000000

// GetSamplePrograms returns the built-in sample programs. Each one stresses
// a different part of the assembler and the pipeline and records the state
// it must leave at the exit trap.
func GetSamplePrograms() []Benchmark {
	return []Benchmark{
		countdown(),
		storeLoad(),
		divideByZero(),
		functionCall(),
		byteHalfData(),
		doublewordStore(),
		arraySum(),
		upperImmediates(),
		bubbleSort(),
	}
}

// countdown is a tight backward-branch loop.
func countdown() Benchmark {
	return Benchmark{
		Name:        "countdown",
		Description: "10-iteration loop closed by a backward bne",
		Source: []string{
			"    addi x1, x0, 10",
			"loop:",
			"    addi x1, x1, -1",
			"    bne x1, x0, loop",
			"    addi x2, x0, 1",
		},
		Expected: map[uint8]uint32{1: 0, 2: 1},
	}
}

// storeLoad round-trips a word through the data segment.
func storeLoad() Benchmark {
	return Benchmark{
		Name:        "store_load",
		Description: "sw then lw through a lui-formed data address",
		Setup: func(regFile *emu.RegFile, _ *emu.Memory) {
			regFile.WriteReg(2, 0xCAFE)
		},
		Source: []string{
			"lui x1, 0x10000",
			"sw x2, 0(x1)",
			"lw x3, 0(x1)",
		},
		Expected:     map[uint8]uint32{1: dataBase, 3: 0xCAFE},
		ExpectedData: map[uint32]uint32{dataBase: 0xCAFE},
	}
}

// divideByZero checks that division by zero yields zero and that signed
// division truncates toward zero.
func divideByZero() Benchmark {
	return Benchmark{
		Name:        "divide_by_zero",
		Description: "div and rem by zero, then by non-zero divisors",
		Source: []string{
			"addi x1, x0, 14",
			"addi x2, x0, 0",
			"div x3, x1, x2",
			"rem x4, x1, x2",
			"addi x5, x0, 7",
			"div x6, x1, x5",
			"addi x8, x0, 5",
			"rem x9, x1, x8",
			"addi x10, x0, -7",
			"div x11, x1, x10",
		},
		Expected: map[uint8]uint32{
			3:  0,
			4:  0,
			6:  2,
			9:  4,
			11: 0xFFFFFFFE,
		},
	}
}

// functionCall links through ra and returns with jalr.
func functionCall() Benchmark {
	return Benchmark{
		Name:        "function_call",
		Description: "jal into a leaf routine and jalr back",
		Source: []string{
			"    addi a0, x0, 6",
			"    jal ra, square",
			"    addi s1, a0, 0",
			"    jal x0, end",
			"square:",
			"    mul a0, a0, a0",
			"    jalr x0, 0(ra)",
			"end:",
		},
		Expected: map[uint8]uint32{1: 8, 9: 36, 10: 36},
	}
}

// byteHalfData loads sign-extended bytes and halfwords laid out by data
// directives.
func byteHalfData() Benchmark {
	return Benchmark{
		Name:        "byte_half_data",
		Description: ".byte, .half and .asciz read back with lb and lh",
		Source: []string{
			".data",
			"b: .byte -3, 4",
			"h: .half -300",
			`s: .asciz "ok"`,
			".text",
			"lui x1, 0x10000",
			"lb x2, 0(x1)",
			"lb x3, 1(x1)",
			"lh x4, 2(x1)",
			"lb x5, 4(x1)",
			"lb x6, 6(x1)",
		},
		Expected: map[uint8]uint32{
			2: 0xFFFFFFFD,
			3: 4,
			4: 0xFFFFFED4,
			5: 'o',
			6: 0,
		},
	}
}

// doublewordStore shows that sd writes a zero-extended register and ld
// keeps only the low word.
func doublewordStore() Benchmark {
	return Benchmark{
		Name:        "doubleword_store",
		Description: "sd of a negative register followed by ld and lw",
		Source: []string{
			"lui x1, 0x10000",
			"addi x2, x0, -1",
			"sd x2, 8(x1)",
			"ld x3, 8(x1)",
			"lw x4, 12(x1)",
		},
		Expected: map[uint8]uint32{3: 0xFFFFFFFF, 4: 0},
		ExpectedData: map[uint32]uint32{
			dataBase + 8:  0xFFFFFFFF,
			dataBase + 12: 0,
		},
	}
}

// arraySum walks a .word array with a counted blt loop.
func arraySum() Benchmark {
	return Benchmark{
		Name:        "array_sum",
		Description: "sum a four-element .word array and store the total",
		Source: []string{
			".data",
			"arr: .word 10, 20, 30, -5",
			".text",
			"    lui x5, 0x10000",
			"    addi x1, x0, 0",
			"    addi x2, x0, 4",
			"    addi x3, x0, 0",
			"loop:",
			"    slli x6, x1, 2",
			"    add x6, x6, x5",
			"    lw x7, 0(x6)",
			"    add x3, x3, x7",
			"    addi x1, x1, 1",
			"    blt x1, x2, loop",
			"    sw x3, 16(x5)",
		},
		Expected:     map[uint8]uint32{1: 4, 3: 55},
		ExpectedData: map[uint32]uint32{dataBase + 16: 55},
	}
}

// upperImmediates covers lui and pc-relative auipc.
func upperImmediates() Benchmark {
	return Benchmark{
		Name:        "upper_immediates",
		Description: "lui and auipc combined with addi",
		Source: []string{
			"lui x1, 0xABCDE",
			"auipc x2, 0",
			"auipc x3, 2",
			"addi x4, x1, 0x123",
		},
		Expected: map[uint8]uint32{
			1: 0xABCDE000,
			2: 4,
			3: 0x2008,
			4: 0xABCDE123,
		},
	}
}

// bubbleSort sorts ten words in place with nested loops.
func bubbleSort() Benchmark {
	expected := make(map[uint32]uint32, 10)
	for i := uint32(0); i < 10; i++ {
		expected[dataBase+4*i] = i
	}

	return Benchmark{
		Name:        "bubble_sort",
		Description: "in-place bubble sort of ten .word values",
		Source: []string{
			".data",
			"arr: .word 5, 3, 9, 1, 7, 2, 8, 6, 4, 0",
			".text",
			"    lui x10, 0x10000",
			"    addi x11, x0, 10",
			"    addi x12, x0, 0",
			"outer:",
			"    bge x12, x11, done",
			"    addi x13, x0, 0",
			"    sub x14, x11, x12",
			"    addi x14, x14, -1",
			"inner:",
			"    bge x13, x14, next",
			"    slli x15, x13, 2",
			"    add x15, x15, x10",
			"    lw x16, 0(x15)",
			"    lw x17, 4(x15)",
			"    bge x17, x16, noswap",
			"    sw x17, 0(x15)",
			"    sw x16, 4(x15)",
			"noswap:",
			"    addi x13, x13, 1",
			"    jal x0, inner",
			"next:",
			"    addi x12, x12, 1",
			"    jal x0, outer",
			"done:",
		},
		Expected:     map[uint8]uint32{12: 10},
		ExpectedData: expected,
	}
}
