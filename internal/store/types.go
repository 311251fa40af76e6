package store

import (
	"fmt"
	"strings"
	"time"
)

// Run is one row of the runs table.
type Run struct {
	ID        int64
	Path      string
	Hash      string // hex SHA-256 of the checked content
	StartedAt time.Time
	Parsed    bool
	CallSites int
	Findings  int
	HasErrors bool
}

// Function is one line of a stored call report.
type Function struct {
	Name   string
	Params []string // display labels
	Calls  int
}

// String renders the function the way the call report does.
func (f Function) String() string {
	return fmt.Sprintf("%s(%s):%d", f.Name, strings.Join(f.Params, ","), f.Calls)
}

// Diagnostic is a stored finding, kept in the order it was reported.
type Diagnostic struct {
	Severity string
	Code     string
	Line     uint32 // 0 = unknown
	Message  string
}

// RunDetail is a run with its report and findings.
type RunDetail struct {
	Run
	Functions   []Function
	Diagnostics []Diagnostic
}
