// Package main provides the entry point for rv32sim.
// rv32sim is a two-pass RV32 assembler and five-stage instruction simulator.
//
// For the full CLI, use: go run ./cmd/rv32sim
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("rv32sim - RV32 assembler and simulator")
	fmt.Println("")
	fmt.Println("Usage: rv32sim [flags] <subcommand> [flags] <args>")
	fmt.Println("")
	fmt.Println("Subcommands:")
	fmt.Println("  assemble   Assemble source into a machine-code file")
	fmt.Println("  run        Run a machine-code file to the exit trap")
	fmt.Println("  exec       Assemble and run in one step")
	fmt.Println("  decode     Dump the fields of instruction words")
	fmt.Println("  symbols    List labels and their addresses")
	fmt.Println("  bench      Run the built-in sample programs")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/rv32sim' for the full CLI.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/rv32sim' instead.")
	}
}
