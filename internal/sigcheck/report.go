package sigcheck

import (
	"fmt"
	"io"
	"strings"
)

// ReportHeader opens the function call summary.
const ReportHeader = "List of function calls:"

// FormatEntry renders one summary line: name(label,label,...):calls.
func FormatEntry(sig Signature) string {
	return fmt.Sprintf("%s(%s):%d", sig.Name, strings.Join(sig.Labels(), ","), sig.Calls)
}

// Render writes the summary of reg in name order.
func Render(w io.Writer, reg *Registry) error {
	return RenderSignatures(w, reg.Snapshot())
}

// RenderSignatures writes the summary for already collected signatures. The
// caller is responsible for their order; Registry.Snapshot yields name order.
func RenderSignatures(w io.Writer, sigs []Signature) error {
	if _, err := fmt.Fprintln(w, ReportHeader); err != nil {
		return err
	}
	for _, sig := range sigs {
		if _, err := fmt.Fprintln(w, FormatEntry(sig)); err != nil {
			return err
		}
	}
	return nil
}
