package diagfmt

import (
	"encoding/json"
	"io"

	"callcheck/internal/diag"
	"callcheck/internal/source"
)

// LocationJSON is where a call happened.
type LocationJSON struct {
	File string `json:"file,omitempty"`
	Line uint32 `json:"line,omitempty"` // 0 = unknown
}

// NoteJSON is an attached note.
type NoteJSON struct {
	Message  string       `json:"message"`
	Location LocationJSON `json:"location"`
}

// DetailJSON is the structured part of a finding.
type DetailJSON struct {
	Function string `json:"function"`
	Argument *int   `json:"argument,omitempty"` // 0-based; absent for arity findings
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
}

// DiagnosticJSON is one finding.
type DiagnosticJSON struct {
	Severity string       `json:"severity"`
	Code     string       `json:"code"`
	Message  string       `json:"message"`
	Location LocationJSON `json:"location"`
	Detail   *DetailJSON  `json:"detail,omitempty"`
	Notes    []NoteJSON   `json:"notes,omitempty"`
}

// FunctionJSON is one line of the call report.
type FunctionJSON struct {
	Name   string   `json:"name"`
	Params []string `json:"params"`
	Calls  int      `json:"calls"`
}

// FileJSON holds the result of one file.
type FileJSON struct {
	Path        string           `json:"path"`
	Parsed      bool             `json:"parsed"`
	Diagnostics []DiagnosticJSON `json:"diagnostics"`
	Dropped     int              `json:"dropped,omitempty"`
	Functions   []FunctionJSON   `json:"functions"`
}

// Output is the root JSON document.
type Output struct {
	Files []FileJSON `json:"files"`
	Count int        `json:"count"` // total diagnostics across files
}

func makeLocation(loc source.Location, opts Opts) LocationJSON {
	return LocationJSON{File: opts.path(loc.Path), Line: uint32(loc.Line)}
}

// BuildOutput формирует структуру JSON-вывода без сериализации.
func BuildOutput(reports []FileReport, opts Opts) Output {
	out := Output{Files: make([]FileJSON, 0, len(reports))}
	for _, r := range reports {
		f := FileJSON{
			Path:        opts.path(r.Path),
			Parsed:      r.Parsed,
			Diagnostics: make([]DiagnosticJSON, 0),
			Functions:   make([]FunctionJSON, 0, len(r.Functions)),
		}
		if r.Bag != nil {
			f.Dropped = r.Bag.Dropped()
		}
		for _, d := range r.items(opts.Max) {
			f.Diagnostics = append(f.Diagnostics, diagnosticJSON(d, opts))
		}
		for i := range r.Functions {
			s := &r.Functions[i]
			f.Functions = append(f.Functions, FunctionJSON{Name: s.Name, Params: s.Labels(), Calls: s.Calls})
		}
		out.Count += len(f.Diagnostics)
		out.Files = append(out.Files, f)
	}
	return out
}

func diagnosticJSON(d diag.Diagnostic, opts Opts) DiagnosticJSON {
	dj := DiagnosticJSON{
		Severity: d.Severity.String(),
		Code:     d.Code.ID(),
		Message:  d.Message,
		Location: makeLocation(d.Primary, opts),
	}
	if d.Detail != nil {
		dj.Detail = &DetailJSON{
			Function: d.Detail.Function,
			Expected: d.Detail.Expected,
			Actual:   d.Detail.Actual,
		}
		if d.Detail.Position >= 0 {
			pos := d.Detail.Position
			dj.Detail.Argument = &pos
		}
	}
	// тайминги без заметки бессмысленны, поэтому всегда с ней
	if (opts.ShowNotes || d.Code == diag.ObsTimings) && len(d.Notes) > 0 {
		dj.Notes = make([]NoteJSON, len(d.Notes))
		for i, n := range d.Notes {
			dj.Notes[i] = NoteJSON{
				Message:  n.Msg,
				Location: makeLocation(n.Loc, opts),
			}
		}
	}
	return dj
}

// JSON writes BuildOutput as indented JSON.
func JSON(w io.Writer, reports []FileReport, opts Opts) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(BuildOutput(reports, opts))
}
