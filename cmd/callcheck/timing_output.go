package main

import (
	"io"

	"callcheck/internal/observ"
)

// printTimings writes the phase table of timer to out.
func printTimings(out io.Writer, timer *observ.Timer) error {
	if out == nil || timer == nil {
		return nil
	}
	_, err := io.WriteString(out, timer.Summary())
	return err
}
