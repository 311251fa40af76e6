package pipeline

import "time"

// Stage describes a step of checking one file.
type Stage string

const (
	StageLoad     Stage = "load"
	StageParse    Stage = "parse"
	StageValidate Stage = "validate"
	StageReport   Stage = "report"
)

// Status captures progress state within a stage.
type Status string

const (
	StatusQueued  Status = "queued"
	StatusWorking Status = "working"
	StatusDone    Status = "done"
	StatusError   Status = "error"
)

// Event reports progress for a file (or for the whole run when File is empty).
type Event struct {
	File     string
	Stage    Stage
	Status   Status
	Err      error
	Elapsed  time.Duration
	Findings int // error diagnostics, set on StatusDone
	Cached   bool
}

// ProgressSink consumes progress events. Implementations used from
// directory checks must be goroutine-safe.
type ProgressSink interface {
	OnEvent(Event)
}

// Notify sends evt to sink when sink is set.
func Notify(sink ProgressSink, evt Event) {
	if sink != nil {
		sink.OnEvent(evt)
	}
}
