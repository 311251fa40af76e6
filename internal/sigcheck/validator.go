package sigcheck

import (
	"context"
	"fmt"
	"iter"

	"github.com/llir/llvm/ir/types"

	"callcheck/internal/diag"
	"callcheck/internal/source"
)

// Callee is the resolved target of a call instruction.
type Callee struct {
	Name string
	// Params are the declared parameter types, in declaration order.
	Params []types.Type
	// Declaration is true when the function has no body in the analysed module.
	Declaration bool
}

// CallSite is one call instruction as delivered by the program walker.
// A nil Callee means the target could not be determined statically.
type CallSite struct {
	Callee *Callee
	Args   []types.Type
	Loc    source.Location
}

// Options tweak what the validator reports beyond the default findings.
type Options struct {
	// ReportUnresolved emits an info diagnostic for calls whose target is unknown.
	ReportUnresolved bool
}

// Stats counts how call sites were handled during a run.
type Stats struct {
	CallSites  int
	Unresolved int
	External   int
	Checked    int
	Findings   int
}

// Validator checks call sites against callee signatures and feeds the Registry.
type Validator struct {
	reg      *Registry
	reporter diag.Reporter
	opts     Options
	stats    Stats
}

// NewValidator binds a validator to the registry of the current run.
func NewValidator(reg *Registry, reporter diag.Reporter, opts Options) *Validator {
	if reg == nil {
		reg = NewRegistry()
	}
	if reporter == nil {
		reporter = diag.NopReporter{}
	}
	return &Validator{reg: reg, reporter: reporter, opts: opts}
}

// Registry returns the registry this validator writes to.
func (v *Validator) Registry() *Registry {
	return v.reg
}

// Stats returns the counters accumulated so far.
func (v *Validator) Stats() Stats {
	return v.stats
}

// Run visits every call site of seq in order. It stops early only when ctx is
// cancelled; findings never abort the walk.
func (v *Validator) Run(ctx context.Context, seq iter.Seq[CallSite]) error {
	for cs := range seq {
		if err := ctx.Err(); err != nil {
			return err
		}
		v.Visit(cs)
	}
	return nil
}

// Visit processes a single call site.
func (v *Validator) Visit(cs CallSite) {
	v.stats.CallSites++
	callee := cs.Callee
	if callee == nil {
		v.stats.Unresolved++
		if v.opts.ReportUnresolved {
			diag.ReportInfo(v.reporter, diag.CheckUnresolvedCallee, cs.Loc,
				fmt.Sprintf("Call on line %s: callee cannot be resolved statically", cs.Loc.Line)).Emit()
		}
		return
	}

	params := ClassifyAll(callee.Params)
	v.reg.Observe(callee.Name, params)

	// без тела проверять не с чем
	if callee.Declaration {
		v.stats.External++
		return
	}
	v.stats.Checked++

	expected, actual := len(params), len(cs.Args)
	if expected != actual {
		v.stats.Findings++
		diag.ReportError(v.reporter, diag.CheckArityMismatch, cs.Loc,
			ArityMessage(callee.Name, cs.Loc.Line, expected, actual)).
			WithDetail(diag.Detail{
				Function: callee.Name,
				Position: -1,
				Expected: fmt.Sprint(expected),
				Actual:   fmt.Sprint(actual),
			}).
			Emit()
		return
	}

	for j, want := range params {
		got := Classify(cs.Args[j])
		if Compatible(want, got) {
			continue
		}
		v.stats.Findings++
		diag.ReportError(v.reporter, diag.CheckTypeMismatch, cs.Loc,
			TypeMessage(callee.Name, cs.Loc.Line, want, got)).
			WithDetail(diag.Detail{
				Function: callee.Name,
				Position: j,
				Expected: want.Label(),
				Actual:   got.Label(),
			}).
			Emit()
	}
}

// ArityMessage renders the argument-count finding.
func ArityMessage(name string, line source.Line, expected, actual int) string {
	return fmt.Sprintf("Function '%s' call on line %s: Expected %d arguments but %d are present",
		name, line, expected, actual)
}

// TypeMessage renders the argument-type finding.
func TypeMessage(name string, line source.Line, expected, actual TypeClass) string {
	return fmt.Sprintf("Function '%s' call on line %s: argument type mismatch. Expected '%s' but argument is of type '%s'",
		name, line, expected.Label(), actual.Label())
}
