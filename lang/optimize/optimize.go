package optimize

import (
	"github.com/felys-lang/felys/lang/build"
	"github.com/felys-lang/felys/lang/ir"
)

// MaxRounds bounds the {analyze, rewrite, rename, sweep, compact} fixpoint
// per function. Each round strictly shrinks or simplifies the function, so
// in practice only a handful of rounds ever run; this is a backstop against
// a pass cycling two equivalent forms forever.
const MaxRounds = 32

// OptimizeProgram runs SCCP and its cleanup passes over every function in
// p, including Main, reassigning p.Constants to include any values folded
// into existence along the way (§4.3).
func OptimizeProgram(p *build.Program) error {
	pl := newPool(p.Constants)
	for _, f := range p.Functions {
		if f == nil {
			continue
		}
		if err := optimizeFunction(f, pl); err != nil {
			return err
		}
	}
	if p.Main != nil {
		if err := optimizeFunction(p.Main, pl); err != nil {
			return err
		}
	}
	p.Constants = pl.values
	return nil
}

func optimizeFunction(f *ir.Function, pl *pool) error {
	for round := 0; round < MaxRounds; round++ {
		an := newAnalyzer(f, pl.values)
		if err := an.run(); err != nil {
			return err
		}
		changed := rewrite(f, an, pl)
		changed = prune(f, an) || changed
		changed = rename(f) || changed
		changed = sweep(f) || changed
		changed = compact(f) || changed
		if !changed {
			return nil
		}
	}
	return nil
}

// rewrite replaces every Const-valued phi/Binary/Unary with an equivalent
// Load, and collapses every Const-conditioned Branch into a Jump, per
// §4.3's rewrite pass.
func rewrite(f *ir.Function, an *analyzer, pl *pool) bool {
	changed := false
	for _, lbl := range f.Labels() {
		frag := f.Fragment(lbl)
		if frag == nil || !an.visited[lbl] {
			continue
		}
		var keptPhis []ir.Phi
		var prepend []ir.Instruction
		for _, phi := range frag.Phis {
			v := an.valueOf(phi.Dst)
			if v.kind == isConst {
				prepend = append(prepend, ir.Instruction{Op: ir.InstrLoad, Dst: phi.Dst, ID: pl.intern(v.c)})
				changed = true
				continue
			}
			keptPhis = append(keptPhis, phi)
		}
		frag.Phis = keptPhis
		if len(prepend) > 0 {
			frag.Instructions = append(prepend, frag.Instructions...)
		}
		for i := range frag.Instructions {
			in := &frag.Instructions[i]
			if in.Op != ir.InstrBinary && in.Op != ir.InstrUnary {
				continue
			}
			v := an.valueOf(in.Dst)
			if v.kind != isConst {
				continue
			}
			id := pl.intern(v.c)
			*in = ir.Instruction{Op: ir.InstrLoad, Dst: in.Dst, ID: id}
			changed = true
		}
		term := frag.Terminator
		if term == nil || term.Op != ir.TermBranch {
			continue
		}
		cv := an.valueOf(term.Cond)
		if cv.kind != isConst {
			continue
		}
		taken, dropped := term.Yes, term.No
		if !cv.c.Bool {
			taken, dropped = term.No, term.Yes
		}
		frag.Terminator = &ir.Terminator{Op: ir.TermJump, Target: taken}
		dropEdge(f, lbl, dropped)
		changed = true
	}
	return changed
}

// dropEdge removes lbl as a live predecessor of target: from its
// Predecessors list and from every phi operand fed along that edge.
func dropEdge(f *ir.Function, lbl, target ir.Label) {
	frag := f.Fragment(target)
	if frag == nil {
		return
	}
	keptPred := frag.Predecessors[:0:0]
	for _, p := range frag.Predecessors {
		if p != lbl {
			keptPred = append(keptPred, p)
		}
	}
	frag.Predecessors = keptPred
	for pi := range frag.Phis {
		phi := &frag.Phis[pi]
		var labels []ir.Label
		var inputs []ir.Var
		for i, pl := range phi.Labels {
			if pl != lbl {
				labels = append(labels, pl)
				inputs = append(inputs, phi.Inputs[i])
			}
		}
		phi.Labels, phi.Inputs = labels, inputs
	}
}

// prune drops every fragment SCCP never visited (dead code by
// unreachability) and strips stale predecessor/phi entries for edges that
// turned out never to be taken (§4.3).
func prune(f *ir.Function, an *analyzer) bool {
	changed := false
	for id, frag := range f.Fragments {
		lbl := ir.BlockLabel(id)
		if an.visited[lbl] {
			continue
		}
		delete(f.Fragments, id)
		_ = frag
		changed = true
	}
	for _, lbl := range f.Labels() {
		frag := f.Fragment(lbl)
		if frag == nil {
			continue
		}
		var keptPred []ir.Label
		for _, p := range frag.Predecessors {
			if p.Kind == ir.LabelBlock {
				if _, ok := f.Fragments[p.ID]; !ok {
					changed = true
					continue
				}
			}
			if an.alive[lbl] != nil && !an.alive[lbl][p] {
				changed = true
				continue
			}
			keptPred = append(keptPred, p)
		}
		if len(keptPred) != len(frag.Predecessors) {
			frag.Predecessors = keptPred
		}
	}
	return changed
}

// rename eliminates trivial phis (every live input identical) by
// substituting the phi's Dst with that shared input everywhere in the
// function, to fixpoint. This is a direct substitute-everywhere instead of
// the spec's union-find bookkeeping: simpler, and equivalent because a
// function this size never has enough phis for the quadratic behavior to
// matter.
func rename(f *ir.Function) bool {
	changed := false
	for {
		trivial := false
		for _, lbl := range f.Labels() {
			frag := f.Fragment(lbl)
			if frag == nil {
				continue
			}
			var kept []ir.Phi
			for _, phi := range frag.Phis {
				if same, ok := trivialValue(phi); ok {
					substitute(f, phi.Dst, same)
					trivial = true
					changed = true
					continue
				}
				kept = append(kept, phi)
			}
			frag.Phis = kept
		}
		if !trivial {
			return changed
		}
	}
}

// trivialValue reports whether every operand of phi (ignoring self-refs) is
// the same Var, and if so returns it.
func trivialValue(phi ir.Phi) (ir.Var, bool) {
	var same ir.Var
	for _, in := range phi.Inputs {
		if in == phi.Dst {
			continue
		}
		if same == 0 {
			same = in
			continue
		}
		if same != in {
			return 0, false
		}
	}
	if same == 0 {
		return 0, false
	}
	return same, true
}

func substitute(f *ir.Function, old, with ir.Var) {
	sub := func(v ir.Var) ir.Var {
		if v == old {
			return with
		}
		return v
	}
	for _, lbl := range f.Labels() {
		frag := f.Fragment(lbl)
		if frag == nil {
			continue
		}
		for pi := range frag.Phis {
			phi := &frag.Phis[pi]
			for i := range phi.Inputs {
				phi.Inputs[i] = sub(phi.Inputs[i])
			}
		}
		for i := range frag.Instructions {
			in := &frag.Instructions[i]
			in.A, in.B = sub(in.A), sub(in.B)
			for j := range in.Args {
				in.Args[j] = sub(in.Args[j])
			}
		}
		if frag.Terminator != nil {
			frag.Terminator.Cond = sub(frag.Terminator.Cond)
			frag.Terminator.RetVar = sub(frag.Terminator.RetVar)
		}
	}
}

// sweep removes instructions and phis whose result is never read, rooted
// at Branch/Return operands and at Call/Method instructions, which are
// always kept regardless of use since invoking them can have an observable
// effect (§4.3).
func sweep(f *ir.Function) bool {
	live := map[ir.Var]bool{}
	mark := func(v ir.Var) {
		if v != 0 {
			live[v] = true
		}
	}
	changed := true
	for changed {
		changed = false
		for _, lbl := range f.Labels() {
			frag := f.Fragment(lbl)
			if frag == nil {
				continue
			}
			if frag.Terminator != nil {
				before := len(live)
				mark(frag.Terminator.Cond)
				mark(frag.Terminator.RetVar)
				if len(live) != before {
					changed = true
				}
			}
			for _, in := range frag.Instructions {
				keep := in.Op == ir.InstrCall || in.Op == ir.InstrMethod || live[in.Dst]
				if !keep {
					continue
				}
				before := len(live)
				mark(in.A)
				mark(in.B)
				for _, a := range in.Args {
					mark(a)
				}
				if len(live) != before {
					changed = true
				}
			}
			for _, phi := range frag.Phis {
				if !live[phi.Dst] {
					continue
				}
				before := len(live)
				for _, in := range phi.Inputs {
					mark(in)
				}
				if len(live) != before {
					changed = true
				}
			}
		}
	}

	pruned := false
	for _, lbl := range f.Labels() {
		frag := f.Fragment(lbl)
		if frag == nil {
			continue
		}
		var keptInstr []ir.Instruction
		for _, in := range frag.Instructions {
			if in.Op == ir.InstrCall || in.Op == ir.InstrMethod || live[in.Dst] {
				keptInstr = append(keptInstr, in)
				continue
			}
			pruned = true
		}
		if len(keptInstr) != len(frag.Instructions) {
			frag.Instructions = keptInstr
		}
		var keptPhis []ir.Phi
		for _, phi := range frag.Phis {
			if live[phi.Dst] {
				keptPhis = append(keptPhis, phi)
				continue
			}
			pruned = true
		}
		if len(keptPhis) != len(frag.Phis) {
			frag.Phis = keptPhis
		}
	}
	return pruned
}

// compact merges an empty block (no phis, no instructions, a bare Jump)
// into its single predecessor, rewriting that predecessor's terminator to
// target the merged block's successor directly (§4.3).
func compact(f *ir.Function) bool {
	changed := false
	for id, frag := range f.Fragments {
		lbl := ir.BlockLabel(id)
		if len(frag.Phis) != 0 || len(frag.Instructions) != 0 {
			continue
		}
		if frag.Terminator == nil || frag.Terminator.Op != ir.TermJump {
			continue
		}
		if len(frag.Predecessors) != 1 {
			continue
		}
		pred := frag.Predecessors[0]
		predFrag := f.Fragment(pred)
		if predFrag == nil || predFrag.Terminator == nil {
			continue
		}
		target := frag.Terminator.Target
		switch predFrag.Terminator.Op {
		case ir.TermJump:
			if predFrag.Terminator.Target != lbl {
				continue
			}
			predFrag.Terminator.Target = target
		case ir.TermBranch:
			rewired := false
			if predFrag.Terminator.Yes == lbl {
				predFrag.Terminator.Yes = target
				rewired = true
			}
			if predFrag.Terminator.No == lbl {
				predFrag.Terminator.No = target
				rewired = true
			}
			if !rewired {
				continue
			}
		default:
			continue
		}
		retargetPredecessor(f, target, lbl, pred)
		delete(f.Fragments, id)
		changed = true
	}
	return changed
}

// retargetPredecessor replaces every occurrence of oldPred with newPred in
// target's Predecessors list and phi operand labels, after an empty block
// between them has been merged away.
func retargetPredecessor(f *ir.Function, target, oldPred, newPred ir.Label) {
	frag := f.Fragment(target)
	if frag == nil {
		return
	}
	for i, p := range frag.Predecessors {
		if p == oldPred {
			frag.Predecessors[i] = newPred
		}
	}
	for pi := range frag.Phis {
		phi := &frag.Phis[pi]
		for i, l := range phi.Labels {
			if l == oldPred {
				phi.Labels[i] = newPred
			}
		}
	}
}
