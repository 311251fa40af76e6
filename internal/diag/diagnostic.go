package diag

import (
	"callcheck/internal/source"
)

type Note struct {
	Loc source.Location
	Msg string
}

// Detail carries the structured half of a call-site finding. Position is the
// zero-based argument index, or -1 when the finding concerns the whole call.
type Detail struct {
	Function string
	Position int
	Expected string
	Actual   string
}

type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Primary  source.Location
	Detail   *Detail
	Notes    []Note
}
