// Package codegen lowers optimized SSA ir.Function values to flat
// bytecode.Callable values: reverse-post-order linearization, phi
// deconstruction via parallel copies on branch trampolines, linear-scan
// register allocation with loop-extended live intervals, and two-pass
// address patching, grounded on the teacher's lang/compiler/asm.go
// assembler (§4.4).
package codegen

import "github.com/felys-lang/felys/lang/ir"

// successors returns the (0, 1, or 2) labels a fragment's terminator can
// transfer control to. A fragment with a nil Terminator (should not occur
// in a finished Function, but codegen is defensive) has none.
func successors(frag *ir.Fragment) []ir.Label {
	if frag == nil || frag.Terminator == nil {
		return nil
	}
	switch frag.Terminator.Op {
	case ir.TermJump:
		return []ir.Label{frag.Terminator.Target}
	case ir.TermBranch:
		return []ir.Label{frag.Terminator.Yes, frag.Terminator.No}
	default:
		return nil
	}
}

// reversePostOrder walks f from Entry, returning every label reachable
// from it in reverse-postorder (§4.4). Labels not reachable from Entry are
// dead code the builder or optimizer left behind and are dropped here,
// which is codegen's final backstop against unreachable fragments even if
// optimize's own pruning pass did not run.
func reversePostOrder(f *ir.Function) []ir.Label {
	visited := make(map[ir.Label]bool)
	var post []ir.Label
	var visit func(l ir.Label)
	visit = func(l ir.Label) {
		if visited[l] {
			return
		}
		visited[l] = true
		for _, s := range successors(f.Fragment(l)) {
			visit(s)
		}
		post = append(post, l)
	}
	visit(ir.EntryLabel())
	// reverse post to get RPO
	rpo := make([]ir.Label, len(post))
	for i, l := range post {
		rpo[len(post)-1-i] = l
	}
	return rpo
}

// backEdges reports every (source, target) successor edge in order whose
// target's RPO position is at or before its source's, per §4.4's
// definition of a loop back-edge.
func backEdges(f *ir.Function, order []ir.Label) [][2]ir.Label {
	pos := make(map[ir.Label]int, len(order))
	for i, l := range order {
		pos[l] = i
	}
	var edges [][2]ir.Label
	for _, l := range order {
		for _, s := range successors(f.Fragment(l)) {
			if pos[s] <= pos[l] {
				edges = append(edges, [2]ir.Label{l, s})
			}
		}
	}
	return edges
}
