package emu

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

// WriteSnapshot writes every non-zero word of the data segment to w as
// "<address> <value>" lines in lower-case hex.
func WriteSnapshot(w io.Writer, m *Memory) error {
	bw := bufio.NewWriter(w)
	for _, dw := range m.DataWords() {
		if dw.Value == 0 {
			continue
		}
		if _, err := fmt.Fprintf(bw, "%08x %08x\n", dw.Addr, dw.Value); err != nil {
			return fmt.Errorf("failed to write data snapshot: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to write data snapshot: %w", err)
	}
	return nil
}

// DumpState prints the register file and the first n data words as signed
// decimals.
func DumpState(w io.Writer, r *RegFile, m *Memory, n int) {
	_, _ = fmt.Fprintf(w, "\n=== REGISTER DUMP ===\n")
	for i := range r.X {
		_, _ = fmt.Fprintf(w, "R%-2d = %d\n", i, r.ReadSigned(uint8(i)))
	}

	_, _ = fmt.Fprintf(w, "\nFinal array:\n")
	base := m.Config().DataOffset
	for i := 0; i < n; i++ {
		v, err := m.Read32(base + uint32(i)*4)
		if err != nil {
			break
		}
		_, _ = fmt.Fprintf(w, "[%d] = %d\n", i, int32(v))
	}
}

// trap handles the exit trap: it persists the data segment, dumps the
// machine state and halts.
func (e *Emulator) trap() StepResult {
	e.log.V(1).Info("exit trap", "pc", hex32(e.regFile.PC), "cycles", e.proc.Cycles)

	if err := e.persistSnapshot(); err != nil {
		e.log.Error(err, "data snapshot not written")
	}

	DumpState(e.stdout, e.regFile, e.memory, e.cfg.DumpWords)

	return StepResult{Exited: true, ExitCode: 0}
}

func (e *Emulator) persistSnapshot() error {
	if e.dataSink != nil {
		return WriteSnapshot(e.dataSink, e.memory)
	}

	if e.cfg.SnapshotPath == "" {
		return nil
	}

	f, err := os.Create(e.cfg.SnapshotPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", e.cfg.SnapshotPath, err)
	}

	if err := WriteSnapshot(f, e.memory); err != nil {
		_ = f.Close()
		return err
	}

	return f.Close()
}
