package sigcheck

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderEmptyRegistry(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, NewRegistry()))
	assert.Equal(t, "List of function calls:\n", buf.String())
}

func TestFormatEntry(t *testing.T) {
	assert.Equal(t, "main():1", FormatEntry(Signature{Name: "main", Calls: 1}))
	assert.Equal(t, "f(char,double,pointer type):4",
		FormatEntry(Signature{Name: "f", Params: []TypeClass{Int8, Float64, Pointer}, Calls: 4}))
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("closed") }

func TestRenderPropagatesWriteErrors(t *testing.T) {
	reg := NewRegistry()
	reg.Observe("f", nil)
	require.Error(t, Render(failingWriter{}, reg))
}
