// Package benchmarks runs sample assembly programs end to end: assemble,
// write machine code, load it back and execute it to the exit trap.
package benchmarks

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/go-logr/logr"

	"github.com/sarchlab/rv32sim/asm"
	"github.com/sarchlab/rv32sim/config"
	"github.com/sarchlab/rv32sim/emu"
	"github.com/sarchlab/rv32sim/loader"
)

// BenchmarkResult holds the outcome of a single program run.
type BenchmarkResult struct {
	// Name identifies the benchmark
	Name string `json:"name"`

	// Description explains what the program exercises
	Description string `json:"description"`

	// Cycles is the number of completed cycles before the trap
	Cycles uint64 `json:"cycles"`

	// Records is the number of machine-code records the program assembled to
	Records int `json:"records"`

	// Diagnostics counts assembler diagnostics
	Diagnostics int `json:"diagnostics"`

	// ExitCode is 0 at the trap and -1 on a fault
	ExitCode int64 `json:"exit_code"`

	// Error describes why the program did not reach the trap
	Error string `json:"error,omitempty"`

	// Mismatches lists register and data words that differ from the
	// expected values
	Mismatches []string `json:"mismatches,omitempty"`

	// WallTime is the actual time taken to run the simulation
	WallTime time.Duration `json:"wall_time_ns"`
}

// Passed reports whether the program assembled cleanly, reached the trap
// and left the expected state.
func (r BenchmarkResult) Passed() bool {
	return r.Diagnostics == 0 && r.ExitCode == 0 && r.Error == "" && len(r.Mismatches) == 0
}

// Benchmark defines a single sample program.
type Benchmark struct {
	// Name identifies the benchmark
	Name string

	// Description explains what the program exercises
	Description string

	// Source is the assembly program
	Source []string

	// Setup prepares the emulator state after the program is loaded
	Setup func(regFile *emu.RegFile, memory *emu.Memory)

	// Expected maps register index to its value at the trap
	Expected map[uint8]uint32

	// ExpectedData maps data-segment address to the word stored there at
	// the trap
	ExpectedData map[uint32]uint32
}

// HarnessConfig configures the benchmark harness.
type HarnessConfig struct {
	// Machine is the memory layout (default: config.Default())
	Machine *config.Machine

	// MaxCycles bounds each run so a broken program cannot spin forever
	MaxCycles uint64

	// Logger receives assembler and emulator diagnostics
	Logger logr.Logger

	// Output is where to write results (default: os.Stdout)
	Output io.Writer

	// Verbose also prints each program's register dump
	Verbose bool
}

// DefaultConfig returns a default harness configuration.
func DefaultConfig() HarnessConfig {
	return HarnessConfig{
		Machine:   config.Default(),
		MaxCycles: 1_000_000,
		Logger:    logr.Discard(),
		Output:    os.Stdout,
		Verbose:   false,
	}
}

// Harness runs sample programs and reports results.
type Harness struct {
	config     HarnessConfig
	benchmarks []Benchmark
}

// NewHarness creates a new benchmark harness.
func NewHarness(config HarnessConfig) *Harness {
	if config.Output == nil {
		config.Output = os.Stdout
	}
	if config.Machine == nil {
		config.Machine = DefaultConfig().Machine
	}
	if config.Logger.GetSink() == nil {
		config.Logger = logr.Discard()
	}
	return &Harness{
		config:     config,
		benchmarks: []Benchmark{},
	}
}

// AddBenchmark adds a benchmark to the harness.
func (h *Harness) AddBenchmark(b Benchmark) {
	h.benchmarks = append(h.benchmarks, b)
}

// AddBenchmarks adds multiple benchmarks to the harness.
func (h *Harness) AddBenchmarks(benchmarks []Benchmark) {
	h.benchmarks = append(h.benchmarks, benchmarks...)
}

// RunAll executes all benchmarks and returns results.
func (h *Harness) RunAll() []BenchmarkResult {
	results := make([]BenchmarkResult, 0, len(h.benchmarks))

	for _, bench := range h.benchmarks {
		results = append(results, h.runBenchmark(bench))
	}

	return results
}

// runBenchmark executes a single benchmark. The program goes through the
// machine-code text format so the assembler and loader agree on it.
func (h *Harness) runBenchmark(bench Benchmark) BenchmarkResult {
	result := BenchmarkResult{
		Name:        bench.Name,
		Description: bench.Description,
		ExitCode:    -1,
	}
	log := h.config.Logger.WithValues("benchmark", bench.Name)

	res := asm.New(asm.WithLogger(log), asm.WithMachineConfig(h.config.Machine)).Assemble(bench.Source)
	result.Records = len(res.Records)
	result.Diagnostics = len(res.Diagnostics)

	var mc bytes.Buffer
	if _, err := res.WriteTo(&mc); err != nil {
		result.Error = err.Error()
		return result
	}

	prog, err := loader.Parse(&mc)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	dump := io.Discard
	if h.config.Verbose {
		dump = h.config.Output
	}
	var stderr bytes.Buffer

	e := emu.NewEmulator(
		emu.WithMachineConfig(h.config.Machine),
		emu.WithMaxCycles(h.config.MaxCycles),
		emu.WithLogger(log),
		emu.WithStdout(dump),
		emu.WithStderr(&stderr),
		emu.WithDataSink(io.Discard),
	)
	if err := e.LoadProgram(h.config.Machine.TextBase, prog); err != nil {
		result.Error = err.Error()
		return result
	}

	if bench.Setup != nil {
		bench.Setup(e.RegFile(), e.Memory())
	}

	start := time.Now()
	result.ExitCode = e.Run()
	result.WallTime = time.Since(start)
	result.Cycles = e.Cycles()
	result.Error = strings.TrimSpace(stderr.String())

	result.Mismatches = h.compare(bench, e)

	return result
}

func (h *Harness) compare(bench Benchmark, e *emu.Emulator) []string {
	var mismatches []string

	for _, reg := range slices.Sorted(maps.Keys(bench.Expected)) {
		want := bench.Expected[reg]
		if got := e.RegFile().ReadReg(reg); got != want {
			mismatches = append(mismatches,
				fmt.Sprintf("x%d = %d, want %d", reg, int32(got), int32(want)))
		}
	}

	for _, addr := range slices.Sorted(maps.Keys(bench.ExpectedData)) {
		want := bench.ExpectedData[addr]
		got, err := e.Memory().Read32(addr)
		if err != nil {
			mismatches = append(mismatches, fmt.Sprintf("[0x%08x]: %v", addr, err))
			continue
		}
		if got != want {
			mismatches = append(mismatches,
				fmt.Sprintf("[0x%08x] = %d, want %d", addr, int32(got), int32(want)))
		}
	}

	return mismatches
}

// PrintResults outputs benchmark results in a human-readable format.
func (h *Harness) PrintResults(results []BenchmarkResult) {
	_, _ = fmt.Fprintln(h.config.Output, "=== rv32sim Sample Program Results ===")
	_, _ = fmt.Fprintln(h.config.Output, "")

	for _, r := range results {
		status := "PASS"
		if !r.Passed() {
			status = "FAIL"
		}

		_, _ = fmt.Fprintf(h.config.Output, "Benchmark: %s [%s]\n", r.Name, status)
		_, _ = fmt.Fprintf(h.config.Output, "  Description: %s\n", r.Description)
		_, _ = fmt.Fprintf(h.config.Output, "  Exit Code:   %d\n", r.ExitCode)
		_, _ = fmt.Fprintf(h.config.Output, "  Cycles:      %d\n", r.Cycles)
		_, _ = fmt.Fprintf(h.config.Output, "  Records:     %d\n", r.Records)
		if r.Diagnostics > 0 {
			_, _ = fmt.Fprintf(h.config.Output, "  Diagnostics: %d\n", r.Diagnostics)
		}
		if r.Error != "" {
			_, _ = fmt.Fprintf(h.config.Output, "  Error:       %s\n", r.Error)
		}
		for _, m := range r.Mismatches {
			_, _ = fmt.Fprintf(h.config.Output, "  Mismatch:    %s\n", m)
		}
		_, _ = fmt.Fprintf(h.config.Output, "  Wall Time:   %v\n", r.WallTime)
		_, _ = fmt.Fprintln(h.config.Output, "")
	}
}

// PrintCSV outputs benchmark results in CSV format for easy comparison.
func (h *Harness) PrintCSV(results []BenchmarkResult) {
	_, _ = fmt.Fprintln(h.config.Output, "name,cycles,records,diagnostics,exit_code,passed,wall_time_ns")

	for _, r := range results {
		_, _ = fmt.Fprintf(h.config.Output, "%s,%d,%d,%d,%d,%t,%d\n",
			r.Name,
			r.Cycles,
			r.Records,
			r.Diagnostics,
			r.ExitCode,
			r.Passed(),
			r.WallTime.Nanoseconds(),
		)
	}
}

// BenchmarkReport is the JSON output format for benchmark results.
type BenchmarkReport struct {
	// Timestamp when the benchmark was run
	Timestamp string `json:"timestamp"`

	// Machine is the layout the programs ran on
	Machine *config.Machine `json:"machine"`

	// Results is the list of individual benchmark results
	Results []BenchmarkResult `json:"results"`

	// Passed is the number of programs that passed
	Passed int `json:"passed"`

	// TotalCycles is the sum of all simulated cycles
	TotalCycles uint64 `json:"total_cycles"`
}

// PrintJSON outputs benchmark results in JSON format for automated comparison.
func (h *Harness) PrintJSON(results []BenchmarkResult) error {
	report := BenchmarkReport{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Machine:   h.config.Machine,
		Results:   results,
	}
	for _, r := range results {
		report.TotalCycles += r.Cycles
		if r.Passed() {
			report.Passed++
		}
	}

	encoder := json.NewEncoder(h.config.Output)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}
