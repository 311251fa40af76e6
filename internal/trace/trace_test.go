package trace

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelFiltersScopes(t *testing.T) {
	tests := []struct {
		level Level
		scope Scope
		want  bool
	}{
		{LevelOff, ScopeDriver, false},
		{LevelError, ScopeDriver, false},
		{LevelPhase, ScopePass, true},
		{LevelPhase, ScopeFile, false},
		{LevelDetail, ScopeFile, true},
		{LevelDetail, ScopeCallSite, false},
		{LevelDebug, ScopeCallSite, true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.level.ShouldEmit(tt.scope), "%s/%s", tt.level, tt.scope)
	}
}

func TestParseFlags(t *testing.T) {
	lvl, err := ParseLevel("DETAIL")
	require.NoError(t, err)
	assert.Equal(t, LevelDetail, lvl)
	_, err = ParseLevel("loud")
	require.Error(t, err)

	mode, err := ParseMode("both")
	require.NoError(t, err)
	assert.Equal(t, ModeBoth, mode)

	format, err := ParseFormat("ndjson")
	require.NoError(t, err)
	assert.Equal(t, FormatNDJSON, format)
}

func TestStreamTracerWritesSpans(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelPhase, FormatText)

	root := Begin(tr, ScopeDriver, "check", 0)
	pass := Begin(tr, ScopePass, "parse", root.ID())
	file := Begin(tr, ScopeFile, "file:a.ll", pass.ID())
	file.End("")
	pass.WithExtra("calls", "3").End("ok")
	root.End("")

	out := buf.String()
	assert.Contains(t, out, "[driver] → check")
	assert.Contains(t, out, "[pass]   ← parse (ok) {calls=3}")
	assert.NotContains(t, out, "file:a.ll")
	assert.Equal(t, 4, strings.Count(out, "\n"))
}

func TestInertSpanForwardsParent(t *testing.T) {
	tr := NewRingTracer(8, LevelPhase)
	root := Begin(tr, ScopeDriver, "check", 0)
	skipped := Begin(tr, ScopeFile, "file:x.ll", root.ID())
	assert.Equal(t, root.ID(), skipped.ID())
	assert.Zero(t, skipped.End(""))
}

func TestRingTracerWrapsAround(t *testing.T) {
	tr := NewRingTracer(3, LevelDebug)
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		Point(tr, ScopeCallSite, name, "", 0)
	}
	snap := tr.Snapshot()
	require.Len(t, snap, 3)
	assert.Equal(t, "c", snap[0].Name)
	assert.Equal(t, "e", snap[2].Name)

	var buf bytes.Buffer
	require.NoError(t, tr.Dump(&buf, FormatNDJSON))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	var ev map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &ev))
	assert.Equal(t, "c", ev["name"])
	assert.Equal(t, "callsite", ev["scope"])
}

func TestNewBuildsConfiguredTracer(t *testing.T) {
	tr, err := New(Config{Level: LevelOff})
	require.NoError(t, err)
	assert.False(t, tr.Enabled())

	var buf bytes.Buffer
	tr, err = New(Config{Level: LevelPhase, Mode: ModeBoth, Output: &buf, RingSize: 4})
	require.NoError(t, err)
	Begin(tr, ScopeDriver, "check", 0).End("")
	require.NoError(t, tr.Close())

	assert.Contains(t, buf.String(), "check")
	ring := FindRing(tr)
	require.NotNil(t, ring)
	assert.Len(t, ring.Snapshot(), 2)
}

func TestContextPropagation(t *testing.T) {
	assert.Equal(t, Nop, FromContext(context.Background()))

	tr := NewRingTracer(8, LevelPhase)
	ctx := WithTracer(context.Background(), tr)
	assert.Same(t, tr, FromContext(ctx).(*RingTracer))

	span := Begin(tr, ScopeDriver, "check", 0)
	ctx = WithSpan(ctx, span)
	assert.Equal(t, span.ID(), CurrentSpan(ctx))
	assert.Zero(t, CurrentSpan(context.Background()))
}
