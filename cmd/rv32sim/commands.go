package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/peterbourgon/ff/v3/ffcli"

	"github.com/sarchlab/rv32sim/asm"
	"github.com/sarchlab/rv32sim/benchmarks"
	"github.com/sarchlab/rv32sim/emu"
	"github.com/sarchlab/rv32sim/insts"
	"github.com/sarchlab/rv32sim/loader"
)

var errMissingArg = errors.New("missing argument")

// runFlags are shared by run and exec.
type runFlags struct {
	maxCycles    uint64
	snapshotPath string
	hardwired    bool
}

func (f *runFlags) register(fs *flag.FlagSet) {
	fs.Uint64Var(&f.maxCycles, "max-cycles", 0, "stop after this many cycles (0: machine config value)")
	fs.StringVar(&f.snapshotPath, "snapshot", "", "data snapshot path written at the trap (default: machine config value)")
	fs.BoolVar(&f.hardwired, "zero", false, "hardwire x0 to zero")
}

func (a *app) assembleCommand() *ffcli.Command {
	fs := flag.NewFlagSet("rv32sim assemble", flag.ContinueOnError)
	out := fs.String("o", "", "output machine-code file (default: <input>.mc)")

	return &ffcli.Command{
		Name:       "assemble",
		ShortUsage: "rv32sim assemble [-o out.mc] <file.s>",
		ShortHelp:  "assemble source into a machine-code file",
		FlagSet:    fs,
		Exec: func(_ context.Context, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("%w: source file", errMissingArg)
			}
			if err := a.setup(); err != nil {
				return err
			}

			res, err := a.assemble(args[0])
			if err != nil {
				return err
			}

			path := *out
			if path == "" {
				path = strings.TrimSuffix(args[0], filepath.Ext(args[0])) + ".mc"
			}
			if err := res.WriteFile(path); err != nil {
				return err
			}
			a.log.V(1).Info("wrote machine code", "path", path, "records", len(res.Records))

			if len(res.Diagnostics) > 0 {
				return exitError(1)
			}
			return nil
		},
	}
}

func (a *app) runCommand() *ffcli.Command {
	fs := flag.NewFlagSet("rv32sim run", flag.ContinueOnError)
	var rf runFlags
	rf.register(fs)

	return &ffcli.Command{
		Name:       "run",
		ShortUsage: "rv32sim run [flags] <file.mc>",
		ShortHelp:  "run a machine-code file to the exit trap",
		FlagSet:    fs,
		Exec: func(_ context.Context, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("%w: machine-code file", errMissingArg)
			}
			if err := a.setup(); err != nil {
				return err
			}

			prog, err := loader.Load(args[0])
			if err != nil {
				return err
			}

			return a.execute(prog, rf)
		},
	}
}

func (a *app) execCommand() *ffcli.Command {
	fs := flag.NewFlagSet("rv32sim exec", flag.ContinueOnError)
	var rf runFlags
	rf.register(fs)

	return &ffcli.Command{
		Name:       "exec",
		ShortUsage: "rv32sim exec [flags] <file.s>",
		ShortHelp:  "assemble source and run it without writing machine code",
		FlagSet:    fs,
		Exec: func(_ context.Context, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("%w: source file", errMissingArg)
			}
			if err := a.setup(); err != nil {
				return err
			}

			res, err := a.assemble(args[0])
			if err != nil {
				return err
			}

			return a.execute(res.Program(), rf)
		},
	}
}

func (a *app) decodeCommand() *ffcli.Command {
	return &ffcli.Command{
		Name:       "decode",
		ShortUsage: "rv32sim decode <word> [<word>...]",
		ShortHelp:  "dump the decoded fields of instruction words",
		Exec: func(_ context.Context, args []string) error {
			if len(args) == 0 {
				return fmt.Errorf("%w: instruction word", errMissingArg)
			}

			dumper := spew.ConfigState{Indent: "  ", DisablePointerAddresses: true}
			decoder := insts.NewDecoder()

			for _, arg := range args {
				word, err := strconv.ParseUint(arg, 0, 32)
				if err != nil {
					return fmt.Errorf("invalid instruction word %q: %w", arg, err)
				}
				dumper.Fdump(a.stdout, decoder.Decode(uint32(word)))
			}

			return nil
		},
	}
}

func (a *app) symbolsCommand() *ffcli.Command {
	return &ffcli.Command{
		Name:       "symbols",
		ShortUsage: "rv32sim symbols <file.s>",
		ShortHelp:  "list labels and their addresses in definition order",
		Exec: func(_ context.Context, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("%w: source file", errMissingArg)
			}
			if err := a.setup(); err != nil {
				return err
			}

			res, err := a.assemble(args[0])
			if err != nil {
				return err
			}

			for _, sym := range res.Symbols.All() {
				_, _ = fmt.Fprintf(a.stdout, "%-16s 0x%08x\n", sym.Name, sym.Address)
			}
			return nil
		},
	}
}

func (a *app) benchCommand() *ffcli.Command {
	fs := flag.NewFlagSet("rv32sim bench", flag.ContinueOnError)
	csv := fs.Bool("csv", false, "print results as CSV")
	asJSON := fs.Bool("json", false, "print results as JSON")
	verbose := fs.Bool("dump", false, "print each program's register dump")

	return &ffcli.Command{
		Name:       "bench",
		ShortUsage: "rv32sim bench [-csv | -json]",
		ShortHelp:  "run the built-in sample programs",
		FlagSet:    fs,
		Exec: func(_ context.Context, _ []string) error {
			if err := a.setup(); err != nil {
				return err
			}

			cfg := benchmarks.DefaultConfig()
			cfg.Machine = a.machine
			cfg.Logger = a.log
			cfg.Output = a.stdout
			cfg.Verbose = *verbose
			if a.machine.MaxCycles > 0 {
				cfg.MaxCycles = a.machine.MaxCycles
			}

			harness := benchmarks.NewHarness(cfg)
			harness.AddBenchmarks(benchmarks.GetSamplePrograms())
			results := harness.RunAll()

			switch {
			case *asJSON:
				if err := harness.PrintJSON(results); err != nil {
					return err
				}
			case *csv:
				harness.PrintCSV(results)
			default:
				harness.PrintResults(results)
			}

			for _, r := range results {
				if !r.Passed() {
					return exitError(1)
				}
			}
			return nil
		},
	}
}

// assemble assembles path and reports every diagnostic on stderr.
func (a *app) assemble(path string) (*asm.Result, error) {
	res, err := asm.New(
		asm.WithLogger(a.log),
		asm.WithMachineConfig(a.machine),
	).AssembleFile(path)
	if err != nil {
		return nil, err
	}

	for _, d := range res.Diagnostics {
		_, _ = fmt.Fprintf(a.stderr, "%s:%v\n", path, d)
	}

	return res, nil
}

// execute loads prog and runs it to the trap. A non-zero exit code is
// returned as an exitError.
func (a *app) execute(prog *loader.Program, rf runFlags) error {
	machine := a.machine.Clone()
	if rf.snapshotPath != "" {
		machine.SnapshotPath = rf.snapshotPath
	}

	opts := []emu.EmulatorOption{
		emu.WithMachineConfig(machine),
		emu.WithLogger(a.log),
		emu.WithStdout(a.stdout),
		emu.WithStderr(a.stderr),
		emu.WithHardwiredZero(rf.hardwired),
	}
	if rf.maxCycles > 0 {
		opts = append(opts, emu.WithMaxCycles(rf.maxCycles))
	}

	e := emu.NewEmulator(opts...)
	if err := e.LoadProgram(machine.TextBase, prog); err != nil {
		return err
	}

	code := e.Run()
	a.log.V(1).Info("program finished", "exit", code, "cycles", e.Cycles())

	if code != 0 {
		return exitError(code)
	}
	return nil
}
