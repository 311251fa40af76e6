package sigcheck

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryObserveFreezesFirstSignature(t *testing.T) {
	reg := NewRegistry()
	first := []TypeClass{Int32, Float32}

	sig := reg.Observe("f", first)
	require.Equal(t, 1, sig.Calls)

	// caller-side mutation must not leak into the registry
	first[0] = Pointer

	again := reg.Observe("f", []TypeClass{Float64})
	assert.Same(t, sig, again)
	assert.Equal(t, 2, again.Calls)
	assert.Equal(t, []TypeClass{Int32, Float32}, again.Params)
}

func TestRegistryCountsRegardlessOfOrder(t *testing.T) {
	names := []string{"b", "a", "b", "c", "a", "b"}
	reg := NewRegistry()
	for _, n := range names {
		reg.Observe(n, []TypeClass{Int8})
	}

	require.Equal(t, 3, reg.Len())
	got := map[string]int{}
	for _, sig := range reg.All() {
		got[sig.Name] = sig.Calls
	}
	assert.Equal(t, map[string]int{"a": 2, "b": 3, "c": 1}, got)
}

func TestRegistryAllIsNameOrdered(t *testing.T) {
	reg := NewRegistry()
	for _, n := range []string{"zeta", "Alpha", "mid", "alpha"} {
		reg.Observe(n, nil)
	}
	var names []string
	for _, sig := range reg.All() {
		names = append(names, sig.Name)
	}
	assert.Equal(t, []string{"Alpha", "alpha", "mid", "zeta"}, names)
}

func TestRegistryZeroParams(t *testing.T) {
	reg := NewRegistry()
	sig := reg.Observe("main", nil)
	assert.NotNil(t, sig.Params)
	assert.Empty(t, sig.Params)
	assert.Empty(t, sig.Labels())
}

func TestRegistryUnboundedArity(t *testing.T) {
	params := make([]TypeClass, 300)
	for i := range params {
		params[i] = Int32
	}
	reg := NewRegistry()
	sig := reg.Observe("wide", params)
	assert.Len(t, sig.Params, 300)
}

func TestRegistrySnapshotIsDetached(t *testing.T) {
	reg := NewRegistry()
	reg.Observe("f", []TypeClass{Int32})
	snap := reg.Snapshot()
	snap[0].Params[0] = Pointer
	snap[0].Calls = 99

	sig, ok := reg.Lookup("f")
	require.True(t, ok)
	assert.Equal(t, []TypeClass{Int32}, sig.Params)
	assert.Equal(t, 1, sig.Calls)

	_, ok = reg.Lookup("missing")
	assert.False(t, ok)
}
