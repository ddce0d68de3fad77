package codegen

import (
	"cmp"

	"golang.org/x/exp/slices"

	"github.com/felys-lang/felys/lang/ir"
)

// interval is a Var's live range as a closed span [start, end] of linear
// instruction positions across the whole function (§4.4).
type interval struct {
	v          ir.Var
	start, end int
}

// linearize assigns every instruction and terminator in order a distinct
// position (all phis of a block share one position at its start), and
// records each block's start and terminator positions, so live
// intervals and loop extension can be computed in a single coordinate
// space (§4.4 "Live interval computation").
type linearize struct {
	blockStart map[ir.Label]int
	blockEnd   map[ir.Label]int // position of the terminator itself
	defPos     map[ir.Var]int
	lastUse    map[ir.Var]int
}

func linearizePositions(f *ir.Function, order []ir.Label) *linearize {
	lz := &linearize{
		blockStart: map[ir.Label]int{},
		blockEnd:   map[ir.Label]int{},
		defPos:     map[ir.Var]int{},
		lastUse:    map[ir.Var]int{},
	}
	pos := 0
	use := func(v ir.Var, at int) {
		if v == 0 {
			return
		}
		if cur, ok := lz.lastUse[v]; !ok || at > cur {
			lz.lastUse[v] = at
		}
	}
	for _, l := range order {
		frag := f.Fragment(l)
		lz.blockStart[l] = pos
		for _, phi := range frag.Phis {
			lz.defPos[phi.Dst] = pos
		}
		pos++ // phis of a block share one position
		for _, instr := range frag.Instructions {
			use(instr.A, pos)
			use(instr.B, pos)
			for _, a := range instr.Args {
				use(a, pos)
			}
			if instr.Dst != 0 {
				lz.defPos[instr.Dst] = pos
			}
			pos++
		}
		lz.blockEnd[l] = pos
		if frag.Terminator != nil && frag.Terminator.Op == ir.TermBranch {
			use(frag.Terminator.Cond, pos)
		}
		if frag.Terminator != nil && frag.Terminator.Op == ir.TermReturn {
			use(frag.Terminator.RetVar, pos)
		}
		pos++
	}
	// Phi inputs are used at the end of the corresponding predecessor block.
	for _, l := range order {
		for _, phi := range f.Fragment(l).Phis {
			for i, pred := range phi.Labels {
				if end, ok := lz.blockEnd[pred]; ok {
					use(phi.Inputs[i], end)
				}
			}
		}
	}
	return lz
}

// computeIntervals builds one interval per live Var, extending any whose
// live range crosses a loop back-edge to cover the whole loop body (§4.4
// "loop-extended live intervals"), so a value defined before a loop and
// used inside it is never given a register that a later definition
// elsewhere in the loop body clobbers.
func computeIntervals(f *ir.Function, order []ir.Label) []interval {
	lz := linearizePositions(f, order)
	ends := make(map[ir.Var]int, len(lz.defPos))
	for v, d := range lz.defPos {
		end := d
		if u, ok := lz.lastUse[v]; ok && u > end {
			end = u
		}
		ends[v] = end
	}

	for _, edge := range backEdges(f, order) {
		src, target := edge[0], edge[1]
		rangeStart, rangeEnd := lz.blockStart[target], lz.blockEnd[src]
		for v, d := range lz.defPos {
			end := ends[v]
			if d <= rangeEnd && end >= rangeStart {
				if rangeEnd > ends[v] {
					ends[v] = rangeEnd
				}
			}
		}
	}

	out := make([]interval, 0, len(lz.defPos))
	for v, d := range lz.defPos {
		out = append(out, interval{v: v, start: d, end: ends[v]})
	}
	return out
}

// allocateRegisters assigns every Var a register id via linear-scan over
// intervals sorted by start, reclaiming a register as soon as its
// previous occupant's interval ends (§4.4).
func allocateRegisters(f *ir.Function, order []ir.Label) (map[ir.Var]uint8, int) {
	intervals := computeIntervals(f, order)
	slices.SortFunc(intervals, func(a, b interval) int { return cmp.Compare(a.start, b.start) })

	type active struct {
		end int
		reg uint8
	}
	var activeList []active
	var free []uint8
	next := uint8(0)
	reg := make(map[ir.Var]uint8, len(intervals))

	for _, iv := range intervals {
		kept := activeList[:0]
		for _, a := range activeList {
			if a.end < iv.start {
				free = append(free, a.reg)
			} else {
				kept = append(kept, a)
			}
		}
		activeList = kept

		var r uint8
		if len(free) > 0 {
			// smallest free register, to keep allocation deterministic and
			// register counts tight.
			min := 0
			for i := 1; i < len(free); i++ {
				if free[i] < free[min] {
					min = i
				}
			}
			r = free[min]
			free = append(free[:min], free[min+1:]...)
		} else {
			r = next
			next++
		}
		reg[iv.v] = r
		activeList = append(activeList, active{end: iv.end, reg: r})
	}
	return reg, int(next)
}
