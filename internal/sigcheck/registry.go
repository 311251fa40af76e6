package sigcheck

import (
	"slices"
	"sort"
)

// Signature is what the registry remembers about one callee: the parameter
// classes seen at its first call and how many calls have been observed since.
type Signature struct {
	Name   string
	Params []TypeClass
	Calls  int
}

// Registry maps callee names to signatures for a single analysis run.
// It is not safe for concurrent use; every run owns its own Registry.
type Registry struct {
	entries map[string]*Signature
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*Signature)}
}

// Observe records one call to name. The first observation freezes params
// (copied) as the signature; later observations only bump the counter.
func (r *Registry) Observe(name string, params []TypeClass) *Signature {
	if sig, ok := r.entries[name]; ok {
		sig.Calls++
		return sig
	}
	sig := &Signature{
		Name:   name,
		Params: slices.Clone(params),
		Calls:  1,
	}
	if sig.Params == nil {
		sig.Params = []TypeClass{}
	}
	r.entries[name] = sig
	return sig
}

// Lookup returns the entry for name, if any.
func (r *Registry) Lookup(name string) (*Signature, bool) {
	sig, ok := r.entries[name]
	return sig, ok
}

// Len returns the number of distinct callees seen.
func (r *Registry) Len() int {
	return len(r.entries)
}

// All returns every entry ordered by name.
func (r *Registry) All() []*Signature {
	out := make([]*Signature, 0, len(r.entries))
	for _, sig := range r.entries {
		out = append(out, sig)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Snapshot returns detached copies of All, suitable for caching and storage.
func (r *Registry) Snapshot() []Signature {
	all := r.All()
	out := make([]Signature, len(all))
	for i, sig := range all {
		out[i] = Signature{Name: sig.Name, Params: slices.Clone(sig.Params), Calls: sig.Calls}
	}
	return out
}

// Labels returns the display labels of the signature's parameters.
func (s *Signature) Labels() []string {
	out := make([]string, len(s.Params))
	for i, p := range s.Params {
		out[i] = p.Label()
	}
	return out
}
