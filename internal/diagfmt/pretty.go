package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"callcheck/internal/diag"
	"callcheck/internal/sigcheck"
)

type palette struct {
	err, warn, info, note, path, header, name, count *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		err:    color.New(color.FgRed, color.Bold),
		warn:   color.New(color.FgYellow, color.Bold),
		info:   color.New(color.FgCyan),
		note:   color.New(color.FgBlue),
		path:   color.New(color.Bold),
		header: color.New(color.Bold, color.Underline),
		name:   color.New(color.FgGreen),
		count:  color.New(color.FgMagenta),
	}
	for _, c := range []*color.Color{p.err, p.warn, p.info, p.note, p.path, p.header, p.name, p.count} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) severity(sev diag.Severity) *color.Color {
	switch sev {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warn
	default:
		return p.info
	}
}

// Pretty форматирует диагностики в человекочитаемый вид:
//
//	error[CHK4001]: prog.ll:12: <message>
//	  note: <note>
//
// затем таблица вызовов. Диагностики идут в порядке обхода.
func Pretty(w io.Writer, reports []FileReport, opts Opts) error {
	p := newPalette(opts.Color)
	for i, r := range reports {
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		if len(reports) > 1 {
			if _, err := fmt.Fprintf(w, "%s\n", p.path.Sprint(opts.path(r.Path))); err != nil {
				return err
			}
		}
		for _, d := range r.items(opts.Max) {
			if err := prettyDiagnostic(w, p, d, opts); err != nil {
				return err
			}
		}
		if r.Bag != nil && r.Bag.Dropped() > 0 {
			if _, err := fmt.Fprintf(w, "%s: %d more diagnostics not shown\n", p.note.Sprint("note"), r.Bag.Dropped()); err != nil {
				return err
			}
		}
		if r.Parsed {
			if err := prettyReport(w, p, r.Functions); err != nil {
				return err
			}
		}
	}
	return nil
}

func prettyDiagnostic(w io.Writer, p palette, d diag.Diagnostic, opts Opts) error {
	sev := strings.ToLower(d.Severity.String())
	loc := d.Primary.Line.String()
	if d.Primary.Path != "" {
		loc = opts.path(d.Primary.Path) + ":" + loc
	}
	if _, err := fmt.Fprintf(w, "%s: %s: %s\n",
		p.severity(d.Severity).Sprintf("%s[%s]", sev, d.Code.ID()),
		p.path.Sprint(loc),
		d.Message); err != nil {
		return err
	}
	if d.Detail != nil && d.Detail.Position >= 0 {
		if _, err := fmt.Fprintf(w, "  %s: argument #%d of '%s'\n", p.note.Sprint("at"), d.Detail.Position+1, d.Detail.Function); err != nil {
			return err
		}
	}
	if !opts.ShowNotes {
		return nil
	}
	for _, n := range d.Notes {
		if _, err := fmt.Fprintf(w, "  %s: %s\n", p.note.Sprint("note"), n.Msg); err != nil {
			return err
		}
	}
	return nil
}

func prettyReport(w io.Writer, p palette, sigs []sigcheck.Signature) error {
	if _, err := fmt.Fprintln(w, p.header.Sprint(sigcheck.ReportHeader)); err != nil {
		return err
	}
	for i := range sigs {
		s := &sigs[i]
		_, err := fmt.Fprintf(w, "%s(%s):%s\n",
			p.name.Sprint(s.Name),
			strings.Join(s.Labels(), ","),
			p.count.Sprint(s.Calls))
		if err != nil {
			return err
		}
	}
	return nil
}
