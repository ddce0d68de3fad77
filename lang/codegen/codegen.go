package codegen

import (
	"cmp"

	"golang.org/x/exp/slices"

	"github.com/felys-lang/felys/lang/bytecode"
	"github.com/felys-lang/felys/lang/build"
	"github.com/felys-lang/felys/lang/interner"
	"github.com/felys-lang/felys/lang/ir"
)

// compileFunction lowers one SSA ir.Function to a bytecode.Callable:
// reverse-post-order linearization, register allocation, and phi
// deconstruction via parallel copies, all described in §4.4.
func compileFunction(f *ir.Function) bytecode.Callable {
	order := reversePostOrder(f)
	regOf, numRegs := allocateRegisters(f, order)
	scratch := uint8(numRegs) // one extra register reserved for cycle-breaking copies

	chunkOf := make(map[ir.Label]int, len(order))
	chunks := make([]chunk, len(order))
	for i, l := range order {
		chunkOf[l] = i
	}

	reg := func(v ir.Var) uint8 { return regOf[v] }

	edgeCopies := func(from, to ir.Label) []copy {
		var cs []copy
		for _, phi := range f.Fragment(to).Phis {
			for i, pred := range phi.Labels {
				if pred == from {
					cs = append(cs, copy{dst: reg(phi.Dst), src: reg(phi.Inputs[i])})
					break
				}
			}
		}
		return cs
	}

	// trampolines collected while translating Branch terminators; appended
	// after every real block so real-block chunk indices stay stable.
	var trampolines []chunk
	trampolineFor := func(from, to ir.Label) int {
		cs := edgeCopies(from, to)
		idx := len(order) + len(trampolines)
		instrs := sequentialize(cs, scratch)
		instrs = append(instrs, asmInstr{op: bytecode.JUMP, isJump: true, target: chunkOf[to]})
		trampolines = append(trampolines, chunk{instrs: instrs})
		return idx
	}

	for i, l := range order {
		frag := f.Fragment(l)
		var instrs []asmInstr
		for _, in := range frag.Instructions {
			instrs = append(instrs, translateInstr(in, reg))
		}
		switch frag.Terminator.Op {
		case ir.TermJump:
			cs := edgeCopies(l, frag.Terminator.Target)
			instrs = append(instrs, sequentialize(cs, scratch)...)
			instrs = append(instrs, asmInstr{op: bytecode.JUMP, isJump: true, target: chunkOf[frag.Terminator.Target]})
		case ir.TermBranch:
			yesIdx := chunkOf[frag.Terminator.Yes]
			if len(f.Fragment(frag.Terminator.Yes).Phis) > 0 {
				yesIdx = trampolineFor(l, frag.Terminator.Yes)
			}
			noIdx := chunkOf[frag.Terminator.No]
			if len(f.Fragment(frag.Terminator.No).Phis) > 0 {
				noIdx = trampolineFor(l, frag.Terminator.No)
			}
			instrs = append(instrs, asmInstr{
				op: bytecode.BRANCH, regs: []uint8{reg(frag.Terminator.Cond)},
				isBranch: true, yes: yesIdx, no: noIdx,
			})
		case ir.TermReturn:
			instrs = append(instrs, asmInstr{op: bytecode.RETURN, regs: []uint8{reg(frag.Terminator.RetVar)}})
		}
		chunks[i] = chunk{instrs: instrs}
	}
	chunks = append(chunks, trampolines...)

	code := assemble(chunks)
	return bytecode.Callable{Args: uint8(len(f.Args)), Regs: uint8(numRegs) + 1, Code: code}
}

func translateInstr(in ir.Instruction, reg func(ir.Var) uint8) asmInstr {
	switch in.Op {
	case ir.InstrArg:
		return asmInstr{op: bytecode.LOADARG, regs: []uint8{reg(in.Dst)}, imm: []uint32{in.ID}}
	case ir.InstrLoad:
		return asmInstr{op: bytecode.LOADK, regs: []uint8{reg(in.Dst)}, imm: []uint32{in.ID}}
	case ir.InstrField:
		return asmInstr{op: bytecode.FIELD, regs: []uint8{reg(in.Dst), reg(in.A)}, imm: []uint32{in.ID}}
	case ir.InstrUnpack:
		return asmInstr{op: bytecode.UNPACK, regs: []uint8{reg(in.Dst), reg(in.A)}, imm: []uint32{in.ID}}
	case ir.InstrPointer:
		return asmInstr{op: bytecode.POINTER, regs: []uint8{reg(in.Dst)}, imm: []uint32{uint32(in.Kind), in.ID}}
	case ir.InstrBinary:
		return asmInstr{op: binOpcode(in.BinOp), regs: []uint8{reg(in.Dst), reg(in.A), reg(in.B)}}
	case ir.InstrUnary:
		return asmInstr{op: binOpcode(in.UnOp), regs: []uint8{reg(in.Dst), reg(in.A)}}
	case ir.InstrCall:
		return asmInstr{
			op: bytecode.CALL, regs: []uint8{reg(in.Dst), reg(in.A)},
			imm: []uint32{uint32(len(in.Args))}, variadic: regsOf(in.Args, reg),
		}
	case ir.InstrList:
		return asmInstr{
			op: bytecode.LIST, regs: []uint8{reg(in.Dst)},
			imm: []uint32{uint32(len(in.Args))}, variadic: regsOf(in.Args, reg),
		}
	case ir.InstrTuple:
		return asmInstr{
			op: bytecode.TUPLE, regs: []uint8{reg(in.Dst)},
			imm: []uint32{uint32(len(in.Args))}, variadic: regsOf(in.Args, reg),
		}
	case ir.InstrIndex:
		return asmInstr{op: bytecode.INDEX, regs: []uint8{reg(in.Dst), reg(in.A), reg(in.B)}}
	case ir.InstrMethod:
		return asmInstr{
			op: bytecode.METHOD, regs: []uint8{reg(in.Dst), reg(in.A)},
			imm: []uint32{in.ID, uint32(len(in.Args))}, variadic: regsOf(in.Args, reg),
		}
	default:
		panic("codegen: unknown instruction op")
	}
}

func regsOf(vars []ir.Var, reg func(ir.Var) uint8) []uint8 {
	out := make([]uint8, len(vars))
	for i, v := range vars {
		out[i] = reg(v)
	}
	return out
}

// CompileProgram lowers every function in p to a bytecode.Elysia: the main
// callable, every other function in declaration-reserved order, the
// deduplicated constant pool, and each group's layout table (§6, §9).
func CompileProgram(in *interner.Interner, p *build.Program) *bytecode.Elysia {
	e := &bytecode.Elysia{
		Main: compileFunction(p.Main),
		Data: p.Constants,
	}
	for _, f := range p.Functions {
		e.Text = append(e.Text, compileFunction(f))
	}
	for _, g := range p.Groups {
		e.Groups = append(e.Groups, groupLayout(g))
	}
	return e
}

func groupLayout(g *ir.GroupDef) bytecode.Group {
	indices := make([]bytecode.IDPair, 0, len(g.Indices))
	for id, idx := range g.Indices {
		indices = append(indices, bytecode.IDPair{ID: uint32(id), Idx: uint32(idx)})
	}
	sortPairs(indices)
	methods := make([]bytecode.IDPair, 0, len(g.Methods))
	for id, idx := range g.Methods {
		methods = append(methods, bytecode.IDPair{ID: uint32(id), Idx: idx})
	}
	sortPairs(methods)
	return bytecode.Group{Indices: indices, Methods: methods}
}

// sortPairs orders by ID so the serialized group layout is deterministic
// despite being built from Go maps (§7 "Bytecode round trip").
func sortPairs(ps []bytecode.IDPair) {
	slices.SortFunc(ps, func(a, b bytecode.IDPair) int { return cmp.Compare(a.ID, b.ID) })
}
