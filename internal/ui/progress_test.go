package ui

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"callcheck/internal/pipeline"
)

func newModel(t *testing.T, files ...string) *progressModel {
	t.Helper()
	m, ok := NewProgressModel("callcheck", files, make(chan pipeline.Event)).(*progressModel)
	require.True(t, ok)
	return m
}

func TestApplyEventTracksStatus(t *testing.T) {
	m := newModel(t, "a.ll", "b.ll")

	m.applyEvent(pipeline.Event{File: "a.ll", Stage: pipeline.StageParse, Status: pipeline.StatusWorking})
	assert.Equal(t, "parsing", m.items[0].status)
	assert.InDelta(t, 0.15, m.percent(), 1e-9)

	m.applyEvent(pipeline.Event{File: "a.ll", Stage: pipeline.StageReport, Status: pipeline.StatusDone, Findings: 2, Cached: true})
	m.applyEvent(pipeline.Event{File: "b.ll", Stage: pipeline.StageLoad, Status: pipeline.StatusError})
	assert.Equal(t, "done", m.items[0].status)
	assert.Equal(t, "error", m.items[1].status)
	assert.Equal(t, 2, m.finished())
	assert.InDelta(t, 1.0, m.percent(), 1e-9)
	assert.Equal(t, 2, m.findings)

	// события чужих файлов игнорируются
	assert.Nil(t, m.applyEvent(pipeline.Event{File: "zzz.ll", Status: pipeline.StatusDone}))
}

func TestViewListsFiles(t *testing.T) {
	m := newModel(t, "a.ll", "b.ll")
	m.applyEvent(pipeline.Event{File: "a.ll", Stage: pipeline.StageReport, Status: pipeline.StatusDone, Findings: 1})

	_, _ = m.Update(doneMsg{})
	view := m.View()
	assert.True(t, strings.HasPrefix(stripANSI(view), "done: callcheck (1/2), 1 findings"))
	assert.Contains(t, view, "a.ll")
	assert.Contains(t, view, "1 findings")
	assert.Contains(t, view, "queued")
}

func TestViewEmpty(t *testing.T) {
	assert.Empty(t, newModel(t).View())
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short.ll", truncate("short.ll", 20))
	assert.Equal(t, "very/lo...", truncate("very/long/path/to/file.ll", 13))
	assert.Equal(t, "ab", truncate("abcdef", 2))
}

func stripANSI(s string) string {
	var b strings.Builder
	inEsc := false
	for _, r := range s {
		switch {
		case r == '\x1b':
			inEsc = true
		case inEsc && (r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z'):
			inEsc = false
		case !inEsc:
			b.WriteRune(r)
		}
	}
	return b.String()
}
