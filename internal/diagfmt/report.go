package diagfmt

import (
	"fmt"
	"io"

	"callcheck/internal/diag"
	"callcheck/internal/sigcheck"
)

// FileReport is the formatter's view of one checked file.
type FileReport struct {
	Path      string
	Parsed    bool
	Bag       *diag.Bag
	Functions []sigcheck.Signature
}

func (r FileReport) items(max int) []diag.Diagnostic {
	if r.Bag == nil {
		return nil
	}
	items := r.Bag.Items()
	if max > 0 && len(items) > max {
		items = items[:max]
	}
	return items
}

// Write renders reports in the given format.
func Write(w io.Writer, format Format, reports []FileReport, opts Opts) error {
	switch format {
	case FormatText, "":
		return Text(w, reports, opts)
	case FormatPretty:
		return Pretty(w, reports, opts)
	case FormatShort:
		return Short(w, reports, opts)
	case FormatJSON:
		return JSON(w, reports, opts)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

// observational diagnostics (timings) are not part of the text stream
func isObservation(d diag.Diagnostic) bool {
	return d.Code >= diag.ObsInfo && d.Code < diag.ObsInfo+1000
}
