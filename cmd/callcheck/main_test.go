package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
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

const cleanIR = `define double @sq(double %x) {
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

const arityOutput = "Function 'f' call on line unknown: Expected 1 arguments but 2 are present\n" +
	"\n" +
	"List of function calls:\n" +
	"f(int):2\n"

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// runCLI executes a fresh command tree and captures its output.
func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	root := newRootCmd()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(append([]string{"--color", "off"}, args...))
	err := root.ExecuteContext(context.Background())
	stopProfiling(root)
	closeTracing(root)
	return stdout.String(), stderr.String(), err
}
