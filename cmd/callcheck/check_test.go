package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"callcheck/internal/diagfmt"
)

func TestCheckTextReportsMismatch(t *testing.T) {
	path := writeFile(t, t.TempDir(), "prog.ll", arityIR)

	stdout, _, err := runCLI(t, "check", path)
	require.ErrorIs(t, err, errFindings)
	assert.Equal(t, arityOutput, stdout)
}

func TestCheckCleanFileSucceeds(t *testing.T) {
	path := writeFile(t, t.TempDir(), "clean.ll", cleanIR)

	stdout, _, err := runCLI(t, "check", path)
	require.NoError(t, err)
	assert.Equal(t, "List of function calls:\nsq(double):1\n", stdout)
}

func TestCheckMissingFile(t *testing.T) {
	stdout, _, err := runCLI(t, "check", filepath.Join(t.TempDir(), "missing.ll"))
	require.ErrorIs(t, err, errFindings)
	assert.Contains(t, stdout, "failed to load file")
	assert.NotContains(t, stdout, "List of function calls:")
}

func TestCheckMaxDiagnosticsLimitsStream(t *testing.T) {
	ir := `define void @f(i32 %a) {
entry:
  ret void
}

define i32 @main() {
entry:
  call void bitcast (void (i32)* @f to void ()*)()
  call void bitcast (void (i32)* @f to void (i32, i32)*)(i32 1, i32 2)
  ret i32 0
}
`
	path := writeFile(t, t.TempDir(), "two.ll", ir)

	stdout, stderr, err := runCLI(t, "--max-diagnostics", "1", "check", path)
	require.ErrorIs(t, err, errFindings)
	lines := strings.Split(strings.TrimRight(stdout, "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "Expected 1 arguments but 0 are present")
	assert.Equal(t, "f(int):2", lines[3])
	// отброшенная находка видна в stderr, stdout не меняется
	assert.Contains(t, stderr, "1 more diagnostics not shown (--max-diagnostics=1)")
	assert.NotContains(t, stdout, "not shown")
}

func TestCheckDefaultPrintsEveryFinding(t *testing.T) {
	const calls = 150
	var b strings.Builder
	b.WriteString("define void @h(i8* %p) {\nentry:\n  ret void\n}\n\ndefine i32 @main() {\nentry:\n")
	for i := 0; i < calls; i++ {
		b.WriteString("  call void bitcast (void (i8*)* @h to void (i32)*)(i32 1)\n")
	}
	b.WriteString("  ret i32 0\n}\n")
	path := writeFile(t, t.TempDir(), "many.ll", b.String())

	stdout, stderr, err := runCLI(t, "check", path)
	require.ErrorIs(t, err, errFindings)

	mismatch := "Function 'h' call on line unknown: argument type mismatch. Expected 'pointer type' but argument is of type 'int'"
	assert.Equal(t, calls, strings.Count(stdout, mismatch+"\n"))
	assert.True(t, strings.HasSuffix(stdout, "List of function calls:\nh(pointer type):150\n"))
	assert.NotContains(t, stderr, "not shown")
}

func TestCheckJSONDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.ll", arityIR)
	writeFile(t, dir, "nested/b.ll", cleanIR)

	stdout, _, err := runCLI(t, "check", "--format", "json", "--ui", "off", "--path-mode", "absolute", dir)
	require.ErrorIs(t, err, errFindings)

	var out diagfmt.Output
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))
	require.Len(t, out.Files, 2)
	assert.Equal(t, 1, out.Count)
	assert.True(t, strings.HasSuffix(out.Files[0].Path, "a.ll"))
	assert.True(t, strings.HasSuffix(out.Files[1].Path, "nested/b.ll"))
}

func TestCheckEmptyDirectory(t *testing.T) {
	stdout, stderr, err := runCLI(t, "check", "--ui", "off", t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "no .ll files")
}

func TestCheckTimings(t *testing.T) {
	path := writeFile(t, t.TempDir(), "clean.ll", cleanIR)

	stdout, stderr, err := runCLI(t, "--timings", "check", path)
	require.NoError(t, err)
	assert.Equal(t, "List of function calls:\nsq(double):1\n", stdout)
	assert.Contains(t, stderr, "timings:")
	assert.Contains(t, stderr, "validate")
}

func TestCheckDiskCacheReuse(t *testing.T) {
	t.Setenv("CALLCHECK_CACHE_DIR", filepath.Join(t.TempDir(), "cache"))
	path := writeFile(t, t.TempDir(), "prog.ll", arityIR)

	first, _, err := runCLI(t, "check", "--disk-cache", path)
	require.ErrorIs(t, err, errFindings)
	second, _, err := runCLI(t, "check", "--disk-cache", path)
	require.ErrorIs(t, err, errFindings)
	assert.Equal(t, arityOutput, first)
	assert.Equal(t, first, second)

	entries, err := os.ReadDir(filepath.Join(os.Getenv("CALLCHECK_CACHE_DIR")))
	require.NoError(t, err)
	assert.NotEmpty(t, entries)

	stdout, _, err := runCLI(t, "cache", "clean")
	require.NoError(t, err)
	assert.Contains(t, stdout, "cache cleaned")
}

func TestCheckConfigSetsFormat(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, configFileName, "[check]\nformat = \"short\"\n")
	path := writeFile(t, dir, "prog.ll", arityIR)

	stdout, _, err := runCLI(t, "check", path)
	require.ErrorIs(t, err, errFindings)
	assert.Contains(t, stdout, "error CHK4001")

	// явный флаг сильнее конфига
	stdout, _, err = runCLI(t, "check", "--format", "text", path)
	require.ErrorIs(t, err, errFindings)
	assert.Equal(t, arityOutput, stdout)
}

func TestCheckRejectsBadFlags(t *testing.T) {
	path := writeFile(t, t.TempDir(), "clean.ll", cleanIR)

	_, _, err := runCLI(t, "check", "--format", "xml", path)
	require.Error(t, err)
	assert.NotErrorIs(t, err, errFindings)

	_, _, err = runCLI(t, "check", "--ui", "maybe", path)
	require.Error(t, err)

	_, _, err = runCLI(t, "check", "--jobs", "-1", path)
	require.Error(t, err)
}

func TestCheckWithTraceFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "clean.ll", cleanIR)
	tracePath := filepath.Join(dir, "trace.log")

	_, _, err := runCLI(t, "--trace", tracePath, "--trace-level", "debug", "check", path)
	require.NoError(t, err)

	data, err := os.ReadFile(tracePath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "parse")
	assert.Contains(t, string(data), "call:sq")
}

func TestCheckWritesCPUProfile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "clean.ll", cleanIR)
	profile := filepath.Join(dir, "cpu.pprof")

	_, _, err := runCLI(t, "--cpu-profile", profile, "check", path)
	require.NoError(t, err)
	st, err := os.Stat(profile)
	require.NoError(t, err)
	assert.Positive(t, st.Size())
}
