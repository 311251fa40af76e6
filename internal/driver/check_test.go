package driver

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"callcheck/internal/diag"
	"callcheck/internal/pipeline"
	"callcheck/internal/sigcheck"
	"callcheck/internal/trace"
)

const arityIR = `define void @f(i32 %a) {
entry:
  ret void
}

define i32 @main() {
entry:
  call void @f(i32 1)
  call void bitcast (void (i32)* @f to void (i32, i32)*)(i32 1, i32 2)
  ret i32 0
}
`

const cleanIR = `declare i32 @puts(i8*)

define double @sq(double %x) {
entry:
  %r = fmul double %x, %x
  ret double %r
}

define i32 @main() {
entry:
  %0 = call double @sq(double 2.0)
  ret i32 0
}
`

func writeIR(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func messages(bag *diag.Bag) []string {
	var out []string
	for _, d := range bag.Items() {
		out = append(out, d.Message)
	}
	return out
}

func TestCheckReportsArityMismatch(t *testing.T) {
	path := writeIR(t, t.TempDir(), "prog.ll", arityIR)

	res, err := Check(context.Background(), path, Options{})
	require.NoError(t, err)
	require.True(t, res.Parsed)
	assert.True(t, res.HasErrors())
	assert.Equal(t, []string{
		"Function 'f' call on line unknown: Expected 1 arguments but 2 are present",
	}, messages(res.Bag))
	assert.Equal(t, diag.CheckArityMismatch, res.Bag.Items()[0].Code)

	require.Len(t, res.Functions, 1)
	assert.Equal(t, "f(int):2", sigcheck.FormatEntry(res.Functions[0]))
}

func TestCheckCleanProgram(t *testing.T) {
	res, err := CheckSource(context.Background(), "clean.ll", []byte(cleanIR), Options{})
	require.NoError(t, err)
	assert.False(t, res.HasErrors())
	assert.Zero(t, res.Bag.Len())
	require.Len(t, res.Functions, 1)
	assert.Equal(t, "sq(double):1", sigcheck.FormatEntry(res.Functions[0]))
	assert.Equal(t, 2, res.Summary.Defined)
	assert.Equal(t, 1, res.Summary.Declared)
}

func TestCheckMissingFile(t *testing.T) {
	var streamed []diag.Diagnostic
	res, err := Check(context.Background(), filepath.Join(t.TempDir(), "nope.ll"), Options{
		Reporter: diag.ReporterFunc(func(d diag.Diagnostic) { streamed = append(streamed, d) }),
	})
	require.NoError(t, err)
	assert.False(t, res.Parsed)
	require.Equal(t, 1, res.Bag.Len())
	assert.Equal(t, diag.IOLoadFileError, res.Bag.Items()[0].Code)
	assert.Len(t, streamed, 1)
}

func TestCheckMalformedIR(t *testing.T) {
	res, err := CheckSource(context.Background(), "bad.ll", []byte("define i32 @f( {"), Options{})
	require.NoError(t, err)
	assert.False(t, res.Parsed)
	require.Equal(t, 1, res.Bag.Len())
	assert.Equal(t, diag.ParseIRError, res.Bag.Items()[0].Code)
	assert.Empty(t, res.Functions)
}

func TestCheckStreamsInCallOrder(t *testing.T) {
	var got []string
	opts := Options{Reporter: diag.ReporterFunc(func(d diag.Diagnostic) { got = append(got, d.Message) })}
	res, err := CheckSource(context.Background(), "prog.ll", []byte(arityIR), opts)
	require.NoError(t, err)
	assert.Equal(t, messages(res.Bag), got)
}

func TestCheckTimingsAndTrace(t *testing.T) {
	ring := trace.NewRingTracer(64, trace.LevelPhase)
	ctx := trace.WithTracer(context.Background(), ring)

	res, err := CheckSource(ctx, "prog.ll", []byte(arityIR), Options{EnableTimings: true})
	require.NoError(t, err)
	require.NotNil(t, res.Timer)
	assert.Len(t, res.Timer.Report().Phases, 3)

	last := res.Bag.Items()[res.Bag.Len()-1]
	assert.Equal(t, diag.ObsTimings, last.Code)
	assert.Equal(t, diag.SevInfo, last.Severity)

	var names []string
	for _, ev := range ring.Snapshot() {
		if ev.Kind == trace.KindSpanBegin {
			names = append(names, ev.Name)
		}
	}
	assert.Equal(t, []string{"parse", "validate"}, names)
}

func TestCheckUsesCache(t *testing.T) {
	disk, err := OpenDiskCacheAt(t.TempDir())
	require.NoError(t, err)
	cache, err := NewResultCache(4, disk)
	require.NoError(t, err)

	var mu sync.Mutex
	var events []pipeline.Event
	opts := Options{Cache: cache, Progress: pipeline.SinkFunc(func(e pipeline.Event) {
		mu.Lock()
		events = append(events, e)
		mu.Unlock()
	})}

	first, err := CheckSource(context.Background(), "prog.ll", []byte(arityIR), opts)
	require.NoError(t, err)
	assert.False(t, first.Cached)

	second, err := CheckSource(context.Background(), "prog.ll", []byte(arityIR), opts)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, messages(first.Bag), messages(second.Bag))
	assert.Equal(t, first.Functions, second.Functions)
	assert.True(t, events[len(events)-1].Cached)

	// другой набор опций даёт другой ключ
	opts.ReportUnresolved = true
	third, err := CheckSource(context.Background(), "prog.ll", []byte(arityIR), opts)
	require.NoError(t, err)
	assert.False(t, third.Cached)
}

func TestCheckCacheHitKeepsTimings(t *testing.T) {
	cache, err := NewResultCache(4, nil)
	require.NoError(t, err)
	opts := Options{Cache: cache, EnableTimings: true}

	countTimings := func(bag *diag.Bag) int {
		n := 0
		for _, d := range bag.Items() {
			if d.Code == diag.ObsTimings {
				n++
			}
		}
		return n
	}

	first, err := CheckSource(context.Background(), "prog.ll", []byte(arityIR), opts)
	require.NoError(t, err)
	require.False(t, first.Cached)
	assert.Equal(t, 1, countTimings(first.Bag))

	second, err := CheckSource(context.Background(), "prog.ll", []byte(arityIR), opts)
	require.NoError(t, err)
	require.True(t, second.Cached)
	// кэш хранит находки без таймингов, отчёт добавляется заново
	assert.Equal(t, 1, countTimings(second.Bag))
	assert.Equal(t, messages(first.Bag)[:1], messages(second.Bag)[:1])
	require.NotNil(t, second.Timer)
}

func TestCheckCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := CheckSource(ctx, "prog.ll", []byte(arityIR), Options{})
	require.ErrorIs(t, err, context.Canceled)
}

func TestCheckDir(t *testing.T) {
	dir := t.TempDir()
	writeIR(t, dir, "b.ll", cleanIR)
	writeIR(t, dir, "a.ll", arityIR)
	writeIR(t, dir, "nested/c.ll", arityIR)
	writeIR(t, dir, "notes.txt", "not ir")

	var mu sync.Mutex
	done := 0
	opts := Options{Jobs: 2, EnableTimings: true, Progress: pipeline.SinkFunc(func(e pipeline.Event) {
		if e.Status == pipeline.StatusDone {
			mu.Lock()
			done++
			mu.Unlock()
		}
	})}

	res, err := CheckDir(context.Background(), dir, opts)
	require.NoError(t, err)
	require.Len(t, res.Files, 3)
	assert.True(t, strings.HasSuffix(res.Files[0].Path, "a.ll"))
	assert.True(t, strings.HasSuffix(res.Files[1].Path, "b.ll"))
	assert.True(t, strings.HasSuffix(res.Files[2].Path, "nested/c.ll"))
	assert.True(t, res.Files[0].HasErrors())
	assert.False(t, res.Files[1].HasErrors())
	assert.True(t, res.HasErrors())
	assert.Equal(t, 3, done)
	assert.NotNil(t, res.Timer())

	// реестры файлов независимы
	assert.Equal(t, "f(int):2", sigcheck.FormatEntry(res.Files[0].Functions[0]))
	assert.Equal(t, "f(int):2", sigcheck.FormatEntry(res.Files[2].Functions[0]))
}

func TestCheckDirEmpty(t *testing.T) {
	res, err := CheckDir(context.Background(), t.TempDir(), Options{})
	require.NoError(t, err)
	assert.Empty(t, res.Files)
	assert.False(t, res.HasErrors())
}
