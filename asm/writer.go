package asm

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

// WriteTo writes the records in machine-code file format: the text
// segment with its source and field breakdown, the closing trap word, a
// blank line and then the data segment with each value printed at its own
// width.
func (r *Result) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	var n int64

	printf := func(format string, args ...any) error {
		k, err := fmt.Fprintf(bw, format, args...)
		n += int64(k)
		return err
	}

	dataStarted := false
	for _, rec := range r.Records {
		var err error

		switch {
		case rec.Sentinel:
			err = printf("0x%x 0x%08X , END\n", rec.Address, rec.Word())
		case rec.Segment == SegmentText:
			err = printf("0x%x 0x%08x , %s # %s\n", rec.Address, rec.Word(), rec.Source, rec.Breakdown)
		default:
			if !dataStarted {
				if err = printf("\n"); err != nil {
					break
				}
				dataStarted = true
			}
			err = printf("0x%x 0x%0*x\n", rec.Address, rec.Width*2, rec.Value)
		}

		if err != nil {
			return n, fmt.Errorf("failed to write machine code: %w", err)
		}
	}

	if !dataStarted {
		if err := printf("\n"); err != nil {
			return n, fmt.Errorf("failed to write machine code: %w", err)
		}
	}

	if err := bw.Flush(); err != nil {
		return n, fmt.Errorf("failed to write machine code: %w", err)
	}

	return n, nil
}

// WriteFile writes the machine code to path.
func (r *Result) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create machine-code file: %w", err)
	}

	if _, err := r.WriteTo(f); err != nil {
		_ = f.Close()
		return err
	}

	return f.Close()
}
