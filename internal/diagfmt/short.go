package diagfmt

import (
	"io"

	"callcheck/internal/diag"
	"callcheck/internal/sigcheck"
)

// Short writes one "severity code path:line message" line per diagnostic,
// sorted, followed by each file's call report.
func Short(w io.Writer, reports []FileReport, opts Opts) error {
	var all []diag.Diagnostic
	for _, r := range reports {
		for _, d := range r.items(opts.Max) {
			d.Primary.Path = opts.path(d.Primary.Path)
			d.Notes = append([]diag.Note(nil), d.Notes...)
			for i := range d.Notes {
				d.Notes[i].Loc.Path = opts.path(d.Notes[i].Loc.Path)
			}
			all = append(all, d)
		}
	}
	if out := diag.FormatShortDiagnostics(all, opts.ShowNotes); out != "" {
		if _, err := io.WriteString(w, out+"\n"); err != nil {
			return err
		}
	}
	for _, r := range reports {
		if !r.Parsed {
			continue
		}
		if err := sigcheck.RenderSignatures(w, r.Functions); err != nil {
			return err
		}
	}
	return nil
}
