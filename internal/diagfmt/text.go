package diagfmt

import (
	"fmt"
	"io"
	"sync"

	"callcheck/internal/diag"
	"callcheck/internal/sigcheck"
)

// Text writes the plain format: one finding message per line in call order,
// then a blank line and the call report. Several files are separated by a
// "<path>:" heading.
func Text(w io.Writer, reports []FileReport, opts Opts) error {
	for i, r := range reports {
		if len(reports) > 1 {
			if i > 0 {
				if _, err := io.WriteString(w, "\n"); err != nil {
					return err
				}
			}
			if _, err := fmt.Fprintf(w, "%s:\n", opts.path(r.Path)); err != nil {
				return err
			}
		}
		if err := writeMessages(w, r.items(opts.Max)); err != nil {
			return err
		}
		if err := TextReport(w, r); err != nil {
			return err
		}
	}
	return nil
}

// TextReport writes only the call report of r, preceded by a blank line
// when there were findings. Unparsed files have no report.
func TextReport(w io.Writer, r FileReport) error {
	if !r.Parsed {
		return nil
	}
	if r.Bag != nil && countStream(r.Bag.Items()) > 0 {
		if _, err := io.WriteString(w, "\n"); err != nil {
			return err
		}
	}
	return sigcheck.RenderSignatures(w, r.Functions)
}

func writeMessages(w io.Writer, items []diag.Diagnostic) error {
	for _, d := range items {
		if isObservation(d) {
			continue
		}
		if _, err := io.WriteString(w, d.Message+"\n"); err != nil {
			return err
		}
	}
	return nil
}

func countStream(items []diag.Diagnostic) int {
	n := 0
	for _, d := range items {
		if !isObservation(d) {
			n++
		}
	}
	return n
}

// StreamReporter prints finding messages as soon as they are reported.
// Write errors are remembered and returned by Err.
type StreamReporter struct {
	mu  sync.Mutex
	w   io.Writer
	n   int
	err error
}

// NewStreamReporter creates a StreamReporter writing to w.
func NewStreamReporter(w io.Writer) *StreamReporter {
	return &StreamReporter{w: w}
}

func (s *StreamReporter) Report(d diag.Diagnostic) {
	if isObservation(d) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return
	}
	if _, err := io.WriteString(s.w, d.Message+"\n"); err != nil {
		s.err = err
		return
	}
	s.n++
}

// Count returns how many messages were written.
func (s *StreamReporter) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.n
}

// Err returns the first write error.
func (s *StreamReporter) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}
