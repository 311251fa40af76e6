package sigcheck

import (
	"github.com/llir/llvm/ir/types"
)

// TypeClass is the coarse category a parameter or argument type falls into.
// The zero value is Unknown.
type TypeClass uint8

const (
	Unknown TypeClass = iota
	Void
	Int8
	Int32
	Float32
	Float64
	Pointer
)

// Classify maps an LLVM type onto its TypeClass. Any shape outside the known
// set, including a nil type, is Unknown.
func Classify(t types.Type) TypeClass {
	switch t := t.(type) {
	case *types.VoidType:
		if t != nil {
			return Void
		}
	case *types.IntType:
		if t == nil {
			return Unknown
		}
		switch t.BitSize {
		case 8:
			return Int8
		case 32:
			return Int32
		}
	case *types.FloatType:
		if t == nil {
			return Unknown
		}
		switch t.Kind {
		case types.FloatKindFloat:
			return Float32
		case types.FloatKindDouble:
			return Float64
		}
	case *types.PointerType:
		if t != nil {
			return Pointer
		}
	}
	return Unknown
}

// ClassifyAll classifies every type of a parameter or argument list, keeping order.
func ClassifyAll(ts []types.Type) []TypeClass {
	out := make([]TypeClass, len(ts))
	for i, t := range ts {
		out[i] = Classify(t)
	}
	return out
}

// Label returns the display label used in diagnostics and in the report.
func (c TypeClass) Label() string {
	switch c {
	case Void:
		return "void"
	case Int8:
		return "char"
	case Int32:
		return "int"
	case Float32:
		return "float"
	case Float64:
		return "double"
	case Pointer:
		return "pointer type"
	default:
		return "UndefinedType"
	}
}

func (c TypeClass) String() string {
	return c.Label()
}
