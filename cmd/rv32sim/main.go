// Package main provides the rv32sim command line: assemble RV32 source into
// machine code, run machine code to the exit trap, or do both at once.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
	"github.com/peterbourgon/ff/v3"
	"github.com/peterbourgon/ff/v3/ffcli"

	"github.com/sarchlab/rv32sim/config"
)

// exitError carries a program exit code out of a subcommand.
type exitError int64

func (e exitError) Error() string {
	return fmt.Sprintf("exit status %d", int64(e))
}

// app holds the flags shared by every subcommand and the state derived
// from them.
type app struct {
	stdout io.Writer
	stderr io.Writer

	configPath string
	verbosity  int

	machine *config.Machine
	log     logr.Logger
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{stdout: stdout, stderr: stderr, log: logr.Discard()}
}

func (a *app) registerFlags(fs *flag.FlagSet) {
	fs.StringVar(&a.configPath, "config", "", "path to machine config (YAML or JSON)")
	fs.IntVar(&a.verbosity, "v", 0, "log verbosity (1: assembler notes, 2: stage trace)")
}

// setup loads the machine config and builds the logger.
func (a *app) setup() error {
	a.log = funcr.New(func(prefix, args string) {
		if prefix != "" {
			_, _ = fmt.Fprintf(a.stderr, "%s: %s\n", prefix, args)
			return
		}
		_, _ = fmt.Fprintln(a.stderr, args)
	}, funcr.Options{Verbosity: a.verbosity}).WithName("rv32sim")

	if a.configPath == "" {
		a.machine = config.Default()
		return nil
	}

	machine, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	a.machine = machine
	a.log.V(1).Info("loaded machine config", "path", a.configPath)

	return nil
}

func (a *app) rootCommand() *ffcli.Command {
	fs := flag.NewFlagSet("rv32sim", flag.ContinueOnError)
	a.registerFlags(fs)

	return &ffcli.Command{
		Name:       "rv32sim",
		ShortUsage: "rv32sim [flags] <subcommand> [flags] <args>",
		ShortHelp:  "RV32 assembler and five-stage simulator",
		FlagSet:    fs,
		Options:    []ff.Option{ff.WithEnvVarPrefix("RV32SIM")},
		Subcommands: []*ffcli.Command{
			a.assembleCommand(),
			a.runCommand(),
			a.execCommand(),
			a.decodeCommand(),
			a.symbolsCommand(),
			a.benchCommand(),
		},
		Exec: func(context.Context, []string) error {
			return flag.ErrHelp
		},
	}
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	a := newApp(os.Stdout, os.Stderr)
	err := a.rootCommand().ParseAndRun(ctx, os.Args[1:])

	var code exitError
	switch {
	case err == nil:
	case errors.As(err, &code):
		os.Exit(int(code))
	case errors.Is(err, flag.ErrHelp):
		os.Exit(2)
	default:
		fmt.Fprintf(os.Stderr, "rv32sim: %v\n", err)
		os.Exit(1)
	}
}
