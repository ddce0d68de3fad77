// Package optimize implements sparse conditional constant propagation
// (SCCP) over lang/build's SSA form, with the accompanying rewrite,
// trivial-phi rename, dead-code sweep, and empty-block compaction passes
// that together fold constant expressions, drop unreachable code, and
// collapse always-taken branches (§4.3).
package optimize

import (
	"github.com/felys-lang/felys/lang/ir"
	"github.com/felys-lang/felys/lang/reporting"
	"github.com/felys-lang/felys/lang/token"
)

// lattice is the three-value SCCP lattice: every Var starts at Top (no
// information), rises to a single Const once every reaching definition
// agrees, and falls to Bottom the moment two reaching definitions disagree
// or the defining instruction is not a pure fold candidate.
type latKind uint8

const (
	top latKind = iota
	isConst
	bottom
)

type value struct {
	kind latKind
	c    ir.Const
}

func topVal() value    { return value{kind: top} }
func bottomVal() value { return value{kind: bottom} }
func constVal(c ir.Const) value { return value{kind: isConst, c: c} }

// meet is idempotent and commutative; Top is the identity, Bottom absorbs,
// and two distinct constants meet to Bottom (§4.3 "Lattice").
func meet(a, b value) value {
	if a.kind == top {
		return b
	}
	if b.kind == top {
		return a
	}
	if a.kind == bottom || b.kind == bottom {
		return bottomVal()
	}
	if constEqual(a.c, b.c) {
		return a
	}
	return bottomVal()
}

func constEqual(a, b ir.Const) bool { return a == b }

func valueEqual(a, b value) bool {
	if a.kind != b.kind {
		return false
	}
	return a.kind != isConst || constEqual(a.c, b.c)
}

// analyzer runs one function's SCCP fixpoint: a CFG-edge worklist (flow)
// and a use-chain worklist (ssa), exactly as described in §4.3's "SCCP
// driver", collapsed to fragment-level re-analysis instead of
// single-instruction re-analysis for simplicity (still correct: the
// lattice is monotone, so reanalyzing a whole fragment on any input change
// only ever does extra, harmless work).
type analyzer struct {
	f          *ir.Function
	constants  []ir.Const
	values     map[ir.Var]value
	alive      map[ir.Label]map[ir.Label]bool // target -> set of live predecessor edges
	visited    map[ir.Label]bool
	flowQ      [][2]ir.Label
	ssaQ       []ir.Var
	usage      map[ir.Var][]ir.Label // fragments that read this var
	err        error
}

func newAnalyzer(f *ir.Function, constants []ir.Const) *analyzer {
	an := &analyzer{
		f:         f,
		constants: constants,
		values:    map[ir.Var]value{},
		alive:     map[ir.Label]map[ir.Label]bool{},
		visited:   map[ir.Label]bool{},
		usage:     map[ir.Var][]ir.Label{},
	}
	for _, v := range f.Args {
		an.values[v] = bottomVal()
	}
	an.buildUsageIndex()
	an.pushFlow(ir.EntryLabel(), ir.EntryLabel())
	return an
}

func (an *analyzer) buildUsageIndex() {
	addUse := func(v ir.Var, lbl ir.Label) {
		if v == 0 {
			return
		}
		an.usage[v] = append(an.usage[v], lbl)
	}
	for _, lbl := range an.f.Labels() {
		frag := an.f.Fragment(lbl)
		if frag == nil {
			continue
		}
		for _, phi := range frag.Phis {
			for _, in := range phi.Inputs {
				addUse(in, lbl)
			}
		}
		for _, in := range frag.Instructions {
			addUse(in.A, lbl)
			addUse(in.B, lbl)
			for _, a := range in.Args {
				addUse(a, lbl)
			}
		}
		if frag.Terminator != nil {
			switch frag.Terminator.Op {
			case ir.TermBranch:
				addUse(frag.Terminator.Cond, lbl)
			case ir.TermReturn:
				addUse(frag.Terminator.RetVar, lbl)
			}
		}
	}
}

func (an *analyzer) pushFlow(pred, label ir.Label) { an.flowQ = append(an.flowQ, [2]ir.Label{pred, label}) }

func (an *analyzer) valueOf(v ir.Var) value {
	if v == 0 {
		return bottomVal()
	}
	if val, ok := an.values[v]; ok {
		return val
	}
	return topVal()
}

func (an *analyzer) setValue(v ir.Var, newVal value) {
	if v == 0 {
		return
	}
	old, ok := an.values[v]
	if ok && valueEqual(old, meet(old, newVal)) && valueEqual(old, newVal) {
		return
	}
	merged := newVal
	if ok {
		merged = meet(old, newVal)
	}
	if ok && valueEqual(old, merged) {
		return
	}
	an.values[v] = merged
	an.ssaQ = append(an.ssaQ, v)
}

// run drains both worklists to a fixpoint, returning the first analyzer
// fault raised while folding a Binary/Unary instruction or a non-bool
// Branch condition (§4.3).
func (an *analyzer) run() error {
	for len(an.flowQ) > 0 || len(an.ssaQ) > 0 {
		if len(an.flowQ) > 0 {
			edge := an.flowQ[0]
			an.flowQ = an.flowQ[1:]
			an.processEdge(edge[0], edge[1])
		} else {
			v := an.ssaQ[0]
			an.ssaQ = an.ssaQ[1:]
			for _, lbl := range an.usage[v] {
				if an.visited[lbl] {
					an.analyzeFragment(lbl)
				}
			}
		}
		if an.err != nil {
			return an.err
		}
	}
	return an.err
}

func (an *analyzer) processEdge(pred, label ir.Label) {
	if an.alive[label] == nil {
		an.alive[label] = map[ir.Label]bool{}
	}
	an.alive[label][pred] = true
	an.visited[label] = true
	an.analyzeFragment(label)
}

func (an *analyzer) analyzeFragment(label ir.Label) {
	frag := an.f.Fragment(label)
	if frag == nil {
		return
	}
	for _, phi := range frag.Phis {
		v := topVal()
		for i, predLbl := range phi.Labels {
			if an.alive[label][predLbl] {
				v = meet(v, an.valueOf(phi.Inputs[i]))
			}
		}
		an.setValue(phi.Dst, v)
	}
	for _, in := range frag.Instructions {
		an.analyzeInstr(in)
		if an.err != nil {
			return
		}
	}
	an.analyzeTerm(label, frag.Terminator)
}

func (an *analyzer) analyzeInstr(in ir.Instruction) {
	switch in.Op {
	case ir.InstrLoad:
		an.setValue(in.Dst, constVal(an.constants[in.ID]))
	case ir.InstrBinary:
		a, b := an.valueOf(in.A), an.valueOf(in.B)
		switch {
		case a.kind == isConst && b.kind == isConst:
			res, err := foldBinary(in.BinOp, a.c, b.c)
			if err != nil {
				an.err = err
				return
			}
			an.setValue(in.Dst, constVal(res))
		case a.kind == bottom || b.kind == bottom:
			an.setValue(in.Dst, bottomVal())
		default:
			an.setValue(in.Dst, topVal())
		}
	case ir.InstrUnary:
		a := an.valueOf(in.A)
		switch a.kind {
		case isConst:
			res, err := foldUnary(in.UnOp, a.c)
			if err != nil {
				an.err = err
				return
			}
			an.setValue(in.Dst, constVal(res))
		case bottom:
			an.setValue(in.Dst, bottomVal())
		default:
			an.setValue(in.Dst, topVal())
		}
	default:
		an.setValue(in.Dst, bottomVal())
	}
}

func (an *analyzer) analyzeTerm(label ir.Label, term *ir.Terminator) {
	if term == nil {
		return
	}
	switch term.Op {
	case ir.TermBranch:
		cv := an.valueOf(term.Cond)
		switch cv.kind {
		case isConst:
			if cv.c.Kind != ir.CBool {
				an.err = reporting.ConstantType(token.Span{}, "branch condition", "bool")
				return
			}
			if cv.c.Bool {
				an.pushFlow(label, term.Yes)
			} else {
				an.pushFlow(label, term.No)
			}
		case bottom:
			an.pushFlow(label, term.Yes)
			an.pushFlow(label, term.No)
		}
	case ir.TermJump:
		an.pushFlow(label, term.Target)
	}
}
