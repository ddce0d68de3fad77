// Package vm executes a bytecode.Elysia against a stack of register
// frames (§4.5), following the teacher's lang/machine package's shape: a
// runtime value union, a Thread owning a frame stack, and a step loop that
// fetches/decodes/executes one instruction at a time.
package vm

import (
	"fmt"

	"github.com/felys-lang/felys/lang/namespace"
)

// Kind tags Object's active field, mirroring ir.Const's four literal kinds
// plus the five compound/runtime-only shapes of §3's Object union.
type Kind uint8

const (
	Int Kind = iota
	Float
	Bool
	Str
	List
	Tuple
	GroupVal
	Pointer
	Void
)

func (k Kind) String() string {
	switch k {
	case Int:
		return "int"
	case Float:
		return "float"
	case Bool:
		return "bool"
	case Str:
		return "str"
	case List:
		return "list"
	case Tuple:
		return "tuple"
	case GroupVal:
		return "group"
	case Pointer:
		return "pointer"
	default:
		return "void"
	}
}

// Object is the runtime value union (§3, §4.5). List/Tuple/Str/Group
// payloads are shared by slice/string aliasing, which is Go's idiomatic
// stand-in for the spec's "reference-counted shared immutable data": the
// garbage collector reclaims them instead of an explicit refcount, which
// is strictly simpler and was chosen over hand-rolling refcounting in a
// GC'd host language.
type Object struct {
	Kind     Kind
	Int      int32
	Float    float32
	Bool     bool
	Str      string
	List     []Object
	Tuple    []Object
	GroupDef uint32 // index into Elysia.Groups
	Fields   []Object
	PtrKind  namespace.Kind
	PtrIdx   uint32
}

func IntVal(v int32) Object      { return Object{Kind: Int, Int: v} }
func FloatVal(v float32) Object  { return Object{Kind: Float, Float: v} }
func BoolVal(v bool) Object      { return Object{Kind: Bool, Bool: v} }
func StrVal(v string) Object     { return Object{Kind: Str, Str: v} }
func VoidVal() Object            { return Object{Kind: Void} }

// Len implements the `meta` pseudo-field that for-loop desugaring reads
// from List/Tuple/Str receivers (§4.2, §9).
func (o Object) Len() (int, bool) {
	switch o.Kind {
	case List:
		return len(o.List), true
	case Tuple:
		return len(o.Tuple), true
	case Str:
		return len([]rune(o.Str)), true
	default:
		return 0, false
	}
}

func (o Object) Truthy() bool {
	switch o.Kind {
	case Bool:
		return o.Bool
	case Int:
		return o.Int != 0
	case Float:
		return o.Float != 0
	case Str:
		return o.Str != ""
	case List:
		return len(o.List) != 0
	case Tuple:
		return len(o.Tuple) != 0
	default:
		return true
	}
}

func (o Object) String() string {
	switch o.Kind {
	case Int:
		return fmt.Sprintf("%d", o.Int)
	case Float:
		return fmt.Sprintf("%g", o.Float)
	case Bool:
		return fmt.Sprintf("%t", o.Bool)
	case Str:
		return o.Str
	case List:
		return fmt.Sprintf("%v", o.List)
	case Tuple:
		return fmt.Sprintf("%v", o.Tuple)
	case GroupVal:
		return fmt.Sprintf("<group #%d>", o.GroupDef)
	case Pointer:
		return fmt.Sprintf("<pointer %v#%d>", o.PtrKind, o.PtrIdx)
	default:
		return "void"
	}
}

func Equal(a, b Object) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case Int:
		return a.Int == b.Int
	case Float:
		return a.Float == b.Float
	case Bool:
		return a.Bool == b.Bool
	case Str:
		return a.Str == b.Str
	case List, Tuple:
		as, bs := a.List, b.List
		if a.Kind == Tuple {
			as, bs = a.Tuple, b.Tuple
		}
		if len(as) != len(bs) {
			return false
		}
		for i := range as {
			if !Equal(as[i], bs[i]) {
				return false
			}
		}
		return true
	case GroupVal:
		if a.GroupDef != b.GroupDef || len(a.Fields) != len(b.Fields) {
			return false
		}
		for i := range a.Fields {
			if !Equal(a.Fields[i], b.Fields[i]) {
				return false
			}
		}
		return true
	case Pointer:
		return a.PtrKind == b.PtrKind && a.PtrIdx == b.PtrIdx
	default:
		return true
	}
}
