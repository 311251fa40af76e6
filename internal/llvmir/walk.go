package llvmir

import (
	"iter"
	"strings"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/metadata"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"callcheck/internal/sigcheck"
	"callcheck/internal/source"
)

// maxIndirections bounds cast/alias chains so that a cyclic alias cannot hang the walk.
const maxIndirections = 32

// CallSites yields every call instruction of m in module order:
// functions, then basic blocks, then instructions.
func CallSites(m *ir.Module, path string) iter.Seq[sigcheck.CallSite] {
	return func(yield func(sigcheck.CallSite) bool) {
		if m == nil {
			return
		}
		for _, f := range m.Funcs {
			for _, b := range f.Blocks {
				for _, inst := range b.Insts {
					c, ok := inst.(*ir.InstCall)
					if !ok {
						continue
					}
					if !yield(Site(c, path)) {
						return
					}
				}
			}
		}
	}
}

// Site converts a call instruction into a CallSite.
func Site(c *ir.InstCall, path string) sigcheck.CallSite {
	cs := sigcheck.CallSite{
		Args: make([]types.Type, len(c.Args)),
		Loc:  source.Location{Path: path, Line: LineOf(c.Metadata)},
	}
	for i, arg := range c.Args {
		cs.Args[i] = arg.Type()
	}
	if f := ResolveCallee(c.Callee); f != nil {
		cs.Callee = &sigcheck.Callee{
			Name:        f.Name(),
			Params:      ParamTypes(f),
			Declaration: IsDeclaration(f),
		}
	}
	return cs
}

// ResolveCallee strips bitcast/addrspacecast expressions and follows aliases
// until it reaches a function. Anything else (loaded function pointers,
// inline asm, ifuncs) is unresolved and yields nil.
func ResolveCallee(v value.Value) *ir.Func {
	for depth := 0; depth < maxIndirections && v != nil; depth++ {
		switch c := v.(type) {
		case *ir.Func:
			return c
		case *ir.Alias:
			v = c.Aliasee
		case *constant.ExprBitCast:
			v = c.From
		case *constant.ExprAddrSpaceCast:
			v = c.From
		default:
			return nil
		}
	}
	return nil
}

// ParamTypes returns the declared parameter types of f.
func ParamTypes(f *ir.Func) []types.Type {
	if f.Sig != nil {
		return f.Sig.Params
	}
	out := make([]types.Type, len(f.Params))
	for i, p := range f.Params {
		out[i] = p.Type()
	}
	return out
}

// IsDeclaration reports whether f has no body in this module.
func IsDeclaration(f *ir.Func) bool {
	return len(f.Blocks) == 0
}

// LineOf returns the line of the !dbg location among the attachments, or the
// unknown line when there is none.
func LineOf(mds []*metadata.Attachment) source.Line {
	for _, att := range mds {
		if att == nil || strings.TrimPrefix(att.Name, "!") != "dbg" {
			continue
		}
		if loc, ok := att.Node.(*metadata.DILocation); ok && loc != nil {
			return source.LineFromInt64(loc.Line)
		}
	}
	return 0
}
