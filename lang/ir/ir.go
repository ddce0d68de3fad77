// Package ir defines the per-function control-flow graph in SSA form that
// lang/build produces, lang/optimize rewrites, and lang/codegen lowers to
// bytecode (§3). All inter-block links are Label ids into Function's
// id-keyed maps, never pointers, so the inherently cyclic SSA graph at loop
// headers is represented as an "arena + index" structure (§9).
package ir

import (
	"golang.org/x/exp/slices"

	"github.com/felys-lang/felys/lang/interner"
	"github.com/felys-lang/felys/lang/namespace"
)

// Var names an SSA value: it is defined exactly once across the whole
// function (§3 invariant). 0 is never a valid Var.
type Var uint32

// Label identifies a fragment: the distinguished Entry/Exit blocks, or an
// ordinary block by small integer id.
type Label struct {
	Kind LabelKind
	ID   uint32 // meaningful only when Kind == LabelBlock
}

type LabelKind uint8

const (
	LabelEntry LabelKind = iota
	LabelBlock
	LabelExit
)

func EntryLabel() Label       { return Label{Kind: LabelEntry} }
func ExitLabel() Label        { return Label{Kind: LabelExit} }
func BlockLabel(id uint32) Label { return Label{Kind: LabelBlock, ID: id} }

func (l Label) String() string {
	switch l.Kind {
	case LabelEntry:
		return "entry"
	case LabelExit:
		return "exit"
	default:
		return "b" + itoa(l.ID)
	}
}

func itoa(u uint32) string {
	if u == 0 {
		return "0"
	}
	var buf [10]byte
	i := len(buf)
	for u > 0 {
		i--
		buf[i] = byte('0' + u%10)
		u /= 10
	}
	return string(buf[i:])
}

// ConstKind enumerates the four constant-pool payload shapes (§3). Integers
// and floats are the fixed widths resolved in SPEC_FULL.md's Open Questions
// section: int32 and float32 respectively, matching the bytecode wire
// format (§6).
type ConstKind uint8

const (
	CInt ConstKind = iota
	CFloat
	CBool
	CStr
)

// Const is a deduplicated constant-pool entry. Float is stored as its
// float32 bit pattern so Const can be Hash+Eq; equality on Float is bitwise
// (NaN-aware) by construction, which is exactly what constant-pool
// deduplication wants (§3).
type Const struct {
	Kind  ConstKind
	Int   int32
	Float uint32 // math.Float32bits
	Bool  bool
	Str   string
}

func IntConst(v int32) Const      { return Const{Kind: CInt, Int: v} }
func FloatConst(bits uint32) Const { return Const{Kind: CFloat, Float: bits} }
func BoolConst(v bool) Const      { return Const{Kind: CBool, Bool: v} }
func StrConst(v string) Const     { return Const{Kind: CStr, Str: v} }

// Op enumerates binary/unary operators, shared between ir.Instruction,
// optimize's constant evaluator, and the VM so folding and execution agree
// (§4.5).
type Op uint8

const (
	Add Op = iota
	Sub
	Mul
	Div
	Mod
	Eql
	Neq
	Lt
	Gt
	Le
	Ge
	And
	Or
	Neg
	Not
)

func (op Op) String() string {
	names := [...]string{"+", "-", "*", "/", "%", "==", "!=", "<", ">", "<=", ">=", "and", "or", "-", "not"}
	if int(op) < len(names) {
		return names[op]
	}
	return "?"
}

// Instruction is one of the twelve shapes of §3. Dst is 0 for instructions
// with no result (there are none in this IR: every instruction defines
// exactly one Var, possibly dead).
type Instruction struct {
	Op   InstrOp
	Dst  Var
	A, B Var   // generic operand slots, meaning depends on Op
	Args []Var // Call/List/Tuple/Method argument lists
	ID   uint32  // Field/Method name id, Load const-pool index, Pointer leaf idx
	Kind namespace.Kind // only meaningful for InstrPointer
	BinOp Op            // only meaningful for InstrBinary
	UnOp  Op            // only meaningful for InstrUnary
}

type InstrOp uint8

const (
	InstrArg InstrOp = iota
	InstrField
	InstrUnpack
	InstrPointer
	InstrLoad
	InstrBinary
	InstrUnary
	InstrCall
	InstrList
	InstrTuple
	InstrIndex
	InstrMethod
)

// Phi is a pseudo-instruction selecting one of several incoming values
// depending on which predecessor was actually taken (§3).
type Phi struct {
	Dst    Var
	Labels []Label // predecessor label for Inputs[i]
	Inputs []Var
}

// TermOp enumerates terminator shapes.
type TermOp uint8

const (
	TermBranch TermOp = iota
	TermJump
	TermReturn
)

// Terminator ends a fragment: Branch(cond, yes, no), Jump(target), or
// Return(var) (§3).
type Terminator struct {
	Op       TermOp
	Cond     Var
	Yes, No  Label
	Target   Label
	RetVar   Var
}

// Fragment is one basic block: its phis, the predecessors that feed them,
// its straight-line instructions, and its terminator (§3). Terminator is a
// pointer so "no terminator yet" (mid-construction) is representable.
type Fragment struct {
	Phis         []Phi
	Predecessors []Label
	Instructions []Instruction
	Terminator   *Terminator
}

// Function is the per-function IR: a dense instruction-level CFG keyed by
// Label, in pruned SSA form once the builder finishes (§3).
type Function struct {
	Name      interner.ID
	Args      []Var
	NumVars   uint32 // total Vars allocated, for register-file sizing
	Entry     *Fragment
	Fragments map[uint32]*Fragment // LabelBlock id -> Fragment
	Exit      *Fragment
}

// Fragment returns the Fragment for l, or nil if l does not (yet) exist.
func (f *Function) Fragment(l Label) *Fragment {
	switch l.Kind {
	case LabelEntry:
		return f.Entry
	case LabelExit:
		return f.Exit
	default:
		return f.Fragments[l.ID]
	}
}

// SetFragment installs frag at l, creating Entry/Exit in place or inserting
// into the Fragments map.
func (f *Function) SetFragment(l Label, frag *Fragment) {
	switch l.Kind {
	case LabelEntry:
		f.Entry = frag
	case LabelExit:
		f.Exit = frag
	default:
		if f.Fragments == nil {
			f.Fragments = make(map[uint32]*Fragment)
		}
		f.Fragments[l.ID] = frag
	}
}

// Labels returns every label with a live fragment, Entry first and Exit
// last, in deterministic ascending id order between them.
func (f *Function) Labels() []Label {
	ids := make([]uint32, 0, len(f.Fragments))
	for id := range f.Fragments {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	out := make([]Label, 0, len(ids)+2)
	out = append(out, EntryLabel())
	for _, id := range ids {
		out = append(out, BlockLabel(id))
	}
	out = append(out, ExitLabel())
	return out
}

// GroupDef is the layout of a user-defined group (§3): positional fields,
// their named-access index, and its resolved method table.
type GroupDef struct {
	Name    interner.ID
	Fields  []interner.ID
	Indices map[interner.ID]int
	Methods map[interner.ID]uint32 // method name id -> function index (filled by build.BuildProgram)
}
