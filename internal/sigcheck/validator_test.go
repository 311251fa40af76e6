package sigcheck

import (
	"bytes"
	"context"
	"slices"
	"testing"

	"github.com/llir/llvm/ir/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"callcheck/internal/diag"
	"callcheck/internal/source"
)

func defined(name string, params ...types.Type) *Callee {
	return &Callee{Name: name, Params: params}
}

func declared(name string, params ...types.Type) *Callee {
	return &Callee{Name: name, Params: params, Declaration: true}
}

func call(c *Callee, line source.Line, args ...types.Type) CallSite {
	return CallSite{Callee: c, Args: args, Loc: source.Location{Path: "t.ll", Line: line}}
}

func runSites(t *testing.T, opts Options, sites ...CallSite) (*Registry, *diag.Bag) {
	t.Helper()
	reg := NewRegistry()
	bag := diag.NewBag(0)
	v := NewValidator(reg, diag.BagReporter{Bag: bag}, opts)
	require.NoError(t, v.Run(context.Background(), slices.Values(sites)))
	return reg, bag
}

func messages(bag *diag.Bag) []string {
	out := make([]string, 0, bag.Len())
	for _, d := range bag.Items() {
		out = append(out, d.Message)
	}
	return out
}

func reportOf(t *testing.T, reg *Registry) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, reg))
	return buf.String()
}

func TestMatchingCallIsSilent(t *testing.T) {
	f := defined("f", types.I32, types.Float)
	reg, bag := runSites(t, Options{}, call(f, 3, types.I32, types.Float))

	assert.Zero(t, bag.Len())
	assert.Equal(t, "List of function calls:\nf(int,float):1\n", reportOf(t, reg))
}

func TestArityMismatch(t *testing.T) {
	g := defined("g", types.I32)
	reg, bag := runSites(t, Options{}, call(g, 12, types.I32, types.I32))

	require.Equal(t, []string{"Function 'g' call on line 12: Expected 1 arguments but 2 are present"}, messages(bag))
	d := bag.Items()[0]
	assert.Equal(t, diag.CheckArityMismatch, d.Code)
	assert.Equal(t, diag.SevError, d.Severity)
	assert.Equal(t, &diag.Detail{Function: "g", Position: -1, Expected: "1", Actual: "2"}, d.Detail)
	assert.Equal(t, "List of function calls:\ng(int):1\n", reportOf(t, reg))
}

func TestTypeMismatch(t *testing.T) {
	h := defined("h", types.I8Ptr)
	reg, bag := runSites(t, Options{}, call(h, 7, types.I32))

	require.Equal(t, []string{
		"Function 'h' call on line 7: argument type mismatch. Expected 'pointer type' but argument is of type 'int'",
	}, messages(bag))
	assert.Equal(t, 0, bag.Items()[0].Detail.Position)
	assert.Equal(t, "List of function calls:\nh(pointer type):1\n", reportOf(t, reg))
}

func TestDeclarationOnlyCalleeIsCountedNotChecked(t *testing.T) {
	k := declared("k", types.I32)
	reg, bag := runSites(t, Options{},
		call(k, 1),
		call(k, 2, types.I32, types.I32),
		call(k, 3, types.Double, types.I8, types.I8Ptr),
	)

	assert.Zero(t, bag.Len())
	sig, ok := reg.Lookup("k")
	require.True(t, ok)
	assert.Equal(t, 3, sig.Calls)
	assert.Equal(t, []TypeClass{Int32}, sig.Params)
}

func TestSecondCallMismatchOnly(t *testing.T) {
	f := defined("f", types.I32, types.Double)
	reg, bag := runSites(t, Options{},
		call(f, 4, types.I32, types.Double),
		call(f, 5, types.I32, types.Float),
	)

	require.Equal(t, []string{
		"Function 'f' call on line 5: argument type mismatch. Expected 'double' but argument is of type 'float'",
	}, messages(bag))
	sig, _ := reg.Lookup("f")
	assert.Equal(t, 2, sig.Calls)
}

func TestArityShortCircuitsTypeChecks(t *testing.T) {
	f := defined("f", types.I32, types.I32)
	_, bag := runSites(t, Options{}, call(f, 8, types.Double))

	require.Equal(t, 1, bag.Len())
	assert.Equal(t, diag.CheckArityMismatch, bag.Items()[0].Code)
}

func TestEveryMismatchedPositionIsReported(t *testing.T) {
	f := defined("mix", types.I8, types.I32, types.Double)
	_, bag := runSites(t, Options{}, call(f, 2, types.I32, types.I32, types.I8Ptr))

	assert.Equal(t, []string{
		"Function 'mix' call on line 2: argument type mismatch. Expected 'char' but argument is of type 'int'",
		"Function 'mix' call on line 2: argument type mismatch. Expected 'double' but argument is of type 'pointer type'",
	}, messages(bag))
}

func TestUnknownNeverMatches(t *testing.T) {
	f := defined("wide", types.I64)
	reg, bag := runSites(t, Options{}, call(f, 6, types.I64))

	assert.Equal(t, []string{
		"Function 'wide' call on line 6: argument type mismatch. Expected 'UndefinedType' but argument is of type 'UndefinedType'",
	}, messages(bag))
	assert.Equal(t, "List of function calls:\nwide(UndefinedType):1\n", reportOf(t, reg))
}

func TestUnresolvedCalleeIsSkipped(t *testing.T) {
	site := CallSite{Args: []types.Type{types.I32}, Loc: source.Location{Line: 9}}

	reg, bag := runSites(t, Options{}, site)
	assert.Zero(t, bag.Len())
	assert.Zero(t, reg.Len())

	_, bag = runSites(t, Options{ReportUnresolved: true}, site)
	require.Equal(t, 1, bag.Len())
	assert.Equal(t, diag.SevInfo, bag.Items()[0].Severity)
	assert.Equal(t, diag.CheckUnresolvedCallee, bag.Items()[0].Code)
}

func TestMissingLineIsReportedAsUnknown(t *testing.T) {
	g := defined("g")
	_, bag := runSites(t, Options{}, call(g, 0, types.I32))
	assert.Equal(t, []string{"Function 'g' call on line unknown: Expected 0 arguments but 1 are present"}, messages(bag))
}

func TestSignatureFrozenAtFirstObservation(t *testing.T) {
	// a later call names the same function with a different declaration
	first := defined("f", types.I32)
	later := defined("f", types.Double, types.Double)
	reg, bag := runSites(t, Options{},
		call(first, 1, types.I32),
		call(later, 2, types.Double, types.Double),
	)

	assert.Zero(t, bag.Len(), "each call is checked against its own callee declaration")
	assert.Equal(t, "List of function calls:\nf(int):2\n", reportOf(t, reg))
}

func TestStats(t *testing.T) {
	reg := NewRegistry()
	v := NewValidator(reg, nil, Options{})
	v.Visit(call(defined("a", types.I32), 1, types.I32))
	v.Visit(call(declared("puts", types.I8Ptr), 2, types.I8Ptr))
	v.Visit(CallSite{})
	v.Visit(call(defined("a", types.I32), 3))

	assert.Equal(t, Stats{CallSites: 4, Unresolved: 1, External: 1, Checked: 2, Findings: 1}, v.Stats())
	assert.Same(t, reg, v.Registry())
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	v := NewValidator(nil, nil, Options{})
	err := v.Run(ctx, slices.Values([]CallSite{call(defined("a"), 1)}))
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, v.Registry().Len())
}

func TestRunsAreDeterministic(t *testing.T) {
	sites := []CallSite{
		call(defined("z", types.I32), 1, types.Float),
		call(declared("printf", types.I8Ptr), 2, types.I8Ptr, types.I32),
		call(defined("a", types.I8, types.I8), 3, types.I8),
		call(defined("z", types.I32), 4, types.I32),
	}
	render := func() string {
		reg, bag := runSites(t, Options{}, sites...)
		var buf bytes.Buffer
		for _, m := range messages(bag) {
			buf.WriteString(m + "\n")
		}
		require.NoError(t, Render(&buf, reg))
		return buf.String()
	}
	first := render()
	assert.Equal(t, first, render())
	assert.Equal(t, "Function 'z' call on line 1: argument type mismatch. Expected 'int' but argument is of type 'float'\n"+
		"Function 'a' call on line 3: Expected 2 arguments but 1 are present\n"+
		"List of function calls:\n"+
		"a(char,char):1\n"+
		"printf(pointer type):1\n"+
		"z(int):2\n", first)
}
