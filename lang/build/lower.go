package build

import (
	"fmt"
	"math"
	"strconv"

	"github.com/felys-lang/felys/lang/ast"
	"github.com/felys-lang/felys/lang/ir"
	"github.com/felys-lang/felys/lang/namespace"
	"github.com/felys-lang/felys/lang/reporting"
)

// metaField is the interned name of the VM pseudo-field that List/Tuple/Str
// expose as their element count, used to desugar `for` loops (§4.2, §9
// "for-loop iteration protocol").
const metaField = "meta"

func (b *Builder) lowerBlock(cur ir.Label, blk *ast.Block) (end ir.Label, val ir.Var, hasVal bool) {
	for i, stmt := range blk.Stmts {
		last := i == len(blk.Stmts)-1
		switch s := stmt.(type) {
		case *ast.EmptyStmt:
			// nothing to do
		case *ast.ExprStmt:
			v, has, next := b.lowerExpr(cur, s.X)
			cur = next
			if last {
				val, hasVal = v, has
			}
		case *ast.SemiStmt:
			_, _, next := b.lowerExpr(cur, s.X)
			cur = next
		case *ast.AssignStmt:
			cur = b.lowerAssign(cur, s)
		default:
			panic(fmt.Sprintf("build: unknown stmt %T", stmt))
		}
	}
	return cur, val, hasVal
}

func (b *Builder) lowerAssign(cur ir.Label, s *ast.AssignStmt) ir.Label {
	val, has, next := b.lowerExpr(cur, s.X)
	cur = next
	if !has {
		b.errs.Add(reporting.NoReturnValue(s.Span()))
		val = b.loadDummy(cur)
	}
	if s.Op != ast.Assign {
		ident, ok := s.Pat.(*ast.IdentPat)
		if !ok {
			b.errs.Add(reporting.ValueNotDefined(s.Span(), "<compound assignment target>"))
			return cur
		}
		old, ok := b.lookup(cur, ident.Name)
		if !ok {
			b.errs.Add(reporting.ValueNotDefined(s.Span(), ident.Name))
			old = b.loadDummy(cur)
		}
		op := assignBinOp(s.Op)
		dst := b.newVar()
		b.emit(cur, ir.Instruction{Op: ir.InstrBinary, Dst: dst, A: old, B: val, BinOp: op})
		val = dst
	}
	b.bindPattern(cur, s.Pat, val)
	return cur
}

func assignBinOp(op ast.AssignOp) ir.Op {
	switch op {
	case ast.AssignAdd:
		return ir.Add
	case ast.AssignSub:
		return ir.Sub
	case ast.AssignMul:
		return ir.Mul
	case ast.AssignDiv:
		return ir.Div
	case ast.AssignMod:
		return ir.Mod
	default:
		panic("build: not a compound assign op")
	}
}

func (b *Builder) bindPattern(cur ir.Label, pat ast.Pat, v ir.Var) {
	switch p := pat.(type) {
	case *ast.AnyPat:
		// discard
	case *ast.IdentPat:
		b.define(cur, p.Name, v)
	case *ast.TuplePat:
		for i, sub := range p.Elems {
			ev := b.newVar()
			b.emit(cur, ir.Instruction{Op: ir.InstrUnpack, Dst: ev, A: v, ID: uint32(i)})
			b.bindPattern(cur, sub, ev)
		}
	case *ast.LitPat:
		// literal patterns are not valid assignment targets; nothing to bind.
	default:
		panic(fmt.Sprintf("build: unknown pattern %T", pat))
	}
}

// loadDummy emits a Load of Int(0) to stand in for a value that a prior
// fault could not compute, keeping the rest of the IR well-formed so
// building can continue collecting further faults.
func (b *Builder) loadDummy(cur ir.Label) ir.Var {
	dst := b.newVar()
	id := b.pool.intern(ir.IntConst(0))
	b.emit(cur, ir.Instruction{Op: ir.InstrLoad, Dst: dst, ID: id})
	return dst
}

func (b *Builder) lowerExpr(cur ir.Label, e ast.Expr) (val ir.Var, has bool, next ir.Label) {
	switch x := e.(type) {
	case *ast.ParenExpr:
		return b.lowerExpr(cur, x.X)

	case *ast.LitExpr:
		c, err := b.litToConst(x)
		if err != nil {
			b.errs.Add(err)
			return b.loadDummy(cur), true, cur
		}
		dst := b.newVar()
		id := b.pool.intern(c)
		b.emit(cur, ir.Instruction{Op: ir.InstrLoad, Dst: dst, ID: id})
		return dst, true, cur

	case *ast.PathExpr:
		return b.lowerPath(cur, x)

	case *ast.BinaryExpr:
		lv, lhas, cur1 := b.lowerExpr(cur, x.LHS)
		rv, rhas, cur2 := b.lowerExpr(cur1, x.RHS)
		if !lhas || !rhas {
			b.errs.Add(reporting.NoReturnValue(x.Span()))
		}
		dst := b.newVar()
		b.emit(cur2, ir.Instruction{Op: ir.InstrBinary, Dst: dst, A: lv, B: rv, BinOp: binOp(x.Op)})
		return dst, true, cur2

	case *ast.UnaryExpr:
		sv, shas, cur1 := b.lowerExpr(cur, x.X)
		if !shas {
			b.errs.Add(reporting.NoReturnValue(x.Span()))
		}
		dst := b.newVar()
		b.emit(cur1, ir.Instruction{Op: ir.InstrUnary, Dst: dst, A: sv, UnOp: unOp(x.Op)})
		return dst, true, cur1

	case *ast.CallExpr:
		fv, fhas, cur1 := b.lowerExpr(cur, x.Callee)
		if !fhas {
			b.errs.Add(reporting.NoReturnValue(x.Span()))
		}
		args, cur2 := b.lowerExprList(cur1, x.Args)
		dst := b.newVar()
		b.emit(cur2, ir.Instruction{Op: ir.InstrCall, Dst: dst, A: fv, Args: args})
		return dst, true, cur2

	case *ast.FieldExpr:
		rv, rhas, cur1 := b.lowerExpr(cur, x.Recv)
		if !rhas {
			b.errs.Add(reporting.NoReturnValue(x.Span()))
		}
		dst := b.newVar()
		id := b.in.Intern(x.Name)
		b.emit(cur1, ir.Instruction{Op: ir.InstrField, Dst: dst, A: rv, ID: uint32(id)})
		return dst, true, cur1

	case *ast.MethodExpr:
		rv, rhas, cur1 := b.lowerExpr(cur, x.Recv)
		if !rhas {
			b.errs.Add(reporting.NoReturnValue(x.Span()))
		}
		args, cur2 := b.lowerExprList(cur1, x.Args)
		dst := b.newVar()
		id := b.in.Intern(x.Name)
		b.emit(cur2, ir.Instruction{Op: ir.InstrMethod, Dst: dst, A: rv, ID: uint32(id), Args: args})
		return dst, true, cur2

	case *ast.IndexExpr:
		rv, rhas, cur1 := b.lowerExpr(cur, x.Recv)
		iv, ihas, cur2 := b.lowerExpr(cur1, x.Index)
		if !rhas || !ihas {
			b.errs.Add(reporting.NoReturnValue(x.Span()))
		}
		dst := b.newVar()
		b.emit(cur2, ir.Instruction{Op: ir.InstrIndex, Dst: dst, A: rv, B: iv})
		return dst, true, cur2

	case *ast.TupleExpr:
		args, cur1 := b.lowerExprList(cur, x.Elems)
		dst := b.newVar()
		b.emit(cur1, ir.Instruction{Op: ir.InstrTuple, Dst: dst, Args: args})
		return dst, true, cur1

	case *ast.ListExpr:
		args, cur1 := b.lowerExprList(cur, x.Elems)
		dst := b.newVar()
		b.emit(cur1, ir.Instruction{Op: ir.InstrList, Dst: dst, Args: args})
		return dst, true, cur1

	case *ast.BlockExpr:
		return b.lowerBlockAsExpr(cur, x.Block)

	case *ast.IfExpr:
		return b.lowerIf(cur, x)

	case *ast.LoopExpr:
		return b.lowerLoop(cur, x)

	case *ast.WhileExpr:
		return b.lowerWhile(cur, x)

	case *ast.ForExpr:
		return b.lowerFor(cur, x)

	case *ast.BreakExpr:
		return b.lowerBreak(cur, x)

	case *ast.ContinueExpr:
		return b.lowerContinue(cur, x)

	case *ast.ReturnExpr:
		return b.lowerReturn(cur, x)

	default:
		panic(fmt.Sprintf("build: unknown expr %T", e))
	}
}

func (b *Builder) lowerBlockAsExpr(cur ir.Label, blk *ast.Block) (ir.Var, bool, ir.Label) {
	end, val, has := b.lowerBlock(cur, blk)
	return val, has, end
}

func (b *Builder) lowerExprList(cur ir.Label, exprs []ast.Expr) ([]ir.Var, ir.Label) {
	vars := make([]ir.Var, 0, len(exprs))
	for _, e := range exprs {
		v, has, next := b.lowerExpr(cur, e)
		cur = next
		if !has {
			b.errs.Add(reporting.NoReturnValue(e.Span()))
			v = b.loadDummy(cur)
		}
		vars = append(vars, v)
	}
	return vars, cur
}

func binOp(op ast.BinOp) ir.Op {
	switch op {
	case ast.Add:
		return ir.Add
	case ast.Sub:
		return ir.Sub
	case ast.Mul:
		return ir.Mul
	case ast.Div:
		return ir.Div
	case ast.Mod:
		return ir.Mod
	case ast.Eql:
		return ir.Eql
	case ast.Neq:
		return ir.Neq
	case ast.Lt:
		return ir.Lt
	case ast.Gt:
		return ir.Gt
	case ast.Le:
		return ir.Le
	case ast.Ge:
		return ir.Ge
	case ast.LogAnd:
		return ir.And
	case ast.LogOr:
		return ir.Or
	default:
		panic("build: unknown BinOp")
	}
}

func unOp(op ast.UnOp) ir.Op {
	switch op {
	case ast.Neg:
		return ir.Neg
	case ast.Not:
		return ir.Not
	default:
		panic("build: unknown UnOp")
	}
}

// lowerPath resolves a single- or multi-segment identifier reference
// (§4.2 "Path resolution"). A single-segment path first checks the local
// SSA scope; if absent, or if the path has more than one segment, it falls
// back to the namespace, yielding an Instruction::Pointer.
func (b *Builder) lowerPath(cur ir.Label, x *ast.PathExpr) (ir.Var, bool, ir.Label) {
	if len(x.Components) == 1 {
		if v, ok := b.lookup(cur, x.Components[0]); ok {
			return v, true, cur
		}
	}
	path := make(namespace.Path, len(x.Components))
	for i, c := range x.Components {
		path[i] = b.in.Intern(c)
	}
	leaf, err := b.ns.Get(path)
	if err != nil {
		b.errs.Add(reporting.ValueNotDefined(x.Span(), x.Components[len(x.Components)-1]))
		return b.loadDummy(cur), true, cur
	}
	dst := b.newVar()
	b.emit(cur, ir.Instruction{Op: ir.InstrPointer, Dst: dst, Kind: leaf.Kind, ID: leaf.Idx})
	return dst, true, cur
}

func (b *Builder) lowerIf(cur ir.Label, x *ast.IfExpr) (ir.Var, bool, ir.Label) {
	condVar, condHas, cur1 := b.lowerExpr(cur, x.Cond)
	if !condHas {
		b.errs.Add(reporting.NoReturnValue(x.Cond.Span()))
	}
	thenL := b.newLabel()
	join := b.newLabel()

	var elseL ir.Label
	hasElse := x.Else != nil || x.ElseIf != nil
	if hasElse {
		elseL = b.newLabel()
	} else {
		elseL = join
	}

	b.addEdge(cur1, thenL)
	b.addEdge(cur1, elseL)
	b.setTerm(cur1, ir.Terminator{Op: ir.TermBranch, Cond: condVar, Yes: thenL, No: elseL})
	b.seal(thenL)

	thenEnd, thenVal, thenHas := b.lowerBlock(thenL, x.Then)
	if b.alive(thenEnd) {
		if thenHas {
			b.define(thenEnd, retName, thenVal)
		}
		b.addEdge(thenEnd, join)
		b.setTerm(thenEnd, ir.Terminator{Op: ir.TermJump, Target: join})
	} else {
		thenHas = false
	}

	elseHas := false
	if hasElse {
		b.seal(elseL)
		var elseEnd ir.Label
		var elseVal ir.Var
		if x.Else != nil {
			elseEnd, elseVal, elseHas = b.lowerBlock(elseL, x.Else)
		} else {
			v, has, end := b.lowerIf(elseL, x.ElseIf)
			elseEnd, elseVal, elseHas = end, v, has
		}
		if b.alive(elseEnd) {
			if elseHas {
				b.define(elseEnd, retName, elseVal)
			}
			b.addEdge(elseEnd, join)
			b.setTerm(elseEnd, ir.Terminator{Op: ir.TermJump, Target: join})
		} else {
			elseHas = false
		}
	}

	b.seal(join)
	if thenHas && elseHas {
		v, ok := b.lookup(join, retName)
		return v, ok, join
	}
	return 0, false, join
}

func (b *Builder) pushLoop(header, after ir.Label) *loopState {
	ls := &loopState{header: header, after: after}
	b.cur.loops = append(b.cur.loops, ls)
	return ls
}

func (b *Builder) popLoop() {
	b.cur.loops = b.cur.loops[:len(b.cur.loops)-1]
}

func (b *Builder) currentLoop() *loopState {
	if len(b.cur.loops) == 0 {
		return nil
	}
	return b.cur.loops[len(b.cur.loops)-1]
}

func (b *Builder) lowerLoop(cur ir.Label, x *ast.LoopExpr) (ir.Var, bool, ir.Label) {
	header := b.newLabel()
	after := b.newLabel()
	b.addEdge(cur, header)
	b.setTerm(cur, ir.Terminator{Op: ir.TermJump, Target: header})

	ls := b.pushLoop(header, after)
	bodyEnd, _, _ := b.lowerBlock(header, x.Body)
	if b.alive(bodyEnd) {
		b.addEdge(bodyEnd, header)
		b.setTerm(bodyEnd, ir.Terminator{Op: ir.TermJump, Target: header})
	}
	b.popLoop()
	b.seal(header)
	b.seal(after)

	if ls.hasVal {
		v, ok := b.lookup(after, retName)
		return v, ok, after
	}
	return 0, false, after
}

func (b *Builder) lowerWhile(cur ir.Label, x *ast.WhileExpr) (ir.Var, bool, ir.Label) {
	header := b.newLabel()
	b.addEdge(cur, header)
	b.setTerm(cur, ir.Terminator{Op: ir.TermJump, Target: header})

	condVar, condHas, header2 := b.lowerExpr(header, x.Cond)
	if !condHas {
		b.errs.Add(reporting.NoReturnValue(x.Cond.Span()))
	}
	body := b.newLabel()
	after := b.newLabel()
	b.addEdge(header2, body)
	b.addEdge(header2, after)
	b.setTerm(header2, ir.Terminator{Op: ir.TermBranch, Cond: condVar, Yes: body, No: after})
	b.seal(body)

	ls := b.pushLoop(header, after)
	bodyEnd, _, _ := b.lowerBlock(body, x.Body)
	if b.alive(bodyEnd) {
		b.addEdge(bodyEnd, header)
		b.setTerm(bodyEnd, ir.Terminator{Op: ir.TermJump, Target: header})
	}
	b.popLoop()
	b.seal(header)
	b.seal(after)

	if ls.hasVal {
		v, ok := b.lookup(after, retName)
		return v, ok, after
	}
	return 0, false, after
}

// lowerFor desugars `for pat in iter { body }` exactly as specified in
// §4.2/§9: `i=0; len=iter.meta; while i<len { element=iter[i]; i=i+1;
// pat:=element; body }`. This only works for List/Tuple/Str receivers that
// expose a `meta` length; see SPEC_FULL.md's Open Questions for why this
// shape was kept rather than generalized to a proper iterator protocol.
func (b *Builder) lowerFor(cur ir.Label, x *ast.ForExpr) (ir.Var, bool, ir.Label) {
	iterVar, iterHas, cur1 := b.lowerExpr(cur, x.Iter)
	if !iterHas {
		b.errs.Add(reporting.NoReturnValue(x.Iter.Span()))
	}
	lenVar := b.newVar()
	b.emit(cur1, ir.Instruction{Op: ir.InstrField, Dst: lenVar, A: iterVar, ID: uint32(b.in.Intern(metaField))})

	suffix := b.cur.forCounter
	b.cur.forCounter++
	iName := fmt.Sprintf("$for%d_i", suffix)

	zero := b.newVar()
	id := b.pool.intern(ir.IntConst(0))
	b.emit(cur1, ir.Instruction{Op: ir.InstrLoad, Dst: zero, ID: id})
	b.define(cur1, iName, zero)

	header := b.newLabel()
	b.addEdge(cur1, header)
	b.setTerm(cur1, ir.Terminator{Op: ir.TermJump, Target: header})

	iVar, _ := b.lookup(header, iName)
	condVar := b.newVar()
	b.emit(header, ir.Instruction{Op: ir.InstrBinary, Dst: condVar, A: iVar, B: lenVar, BinOp: ir.Lt})

	body := b.newLabel()
	after := b.newLabel()
	b.addEdge(header, body)
	b.addEdge(header, after)
	b.setTerm(header, ir.Terminator{Op: ir.TermBranch, Cond: condVar, Yes: body, No: after})
	b.seal(body)

	elemVar := b.newVar()
	b.emit(body, ir.Instruction{Op: ir.InstrIndex, Dst: elemVar, A: iterVar, B: iVar})
	nextI := b.newVar()
	one := b.newVar()
	oneID := b.pool.intern(ir.IntConst(1))
	b.emit(body, ir.Instruction{Op: ir.InstrLoad, Dst: one, ID: oneID})
	b.emit(body, ir.Instruction{Op: ir.InstrBinary, Dst: nextI, A: iVar, B: one, BinOp: ir.Add})
	b.define(body, iName, nextI)
	b.bindPattern(body, x.Pat, elemVar)

	ls := b.pushLoop(header, after)
	bodyEnd, _, _ := b.lowerBlock(body, x.Body)
	if b.alive(bodyEnd) {
		b.addEdge(bodyEnd, header)
		b.setTerm(bodyEnd, ir.Terminator{Op: ir.TermJump, Target: header})
	}
	b.popLoop()
	b.seal(header)
	b.seal(after)

	if ls.hasVal {
		v, ok := b.lookup(after, retName)
		return v, ok, after
	}
	return 0, false, after
}

func (b *Builder) lowerBreak(cur ir.Label, x *ast.BreakExpr) (ir.Var, bool, ir.Label) {
	ls := b.currentLoop()
	if ls == nil {
		b.errs.Add(reporting.OutsideLoop(x.Span()))
		return 0, false, cur
	}
	if x.Value != nil {
		v, has, next := b.lowerExpr(cur, x.Value)
		cur = next
		if has {
			b.define(cur, retName, v)
			ls.hasVal = true
		}
	}
	b.addEdge(cur, ls.after)
	b.setTerm(cur, ir.Terminator{Op: ir.TermJump, Target: ls.after})
	return 0, false, cur
}

func (b *Builder) lowerContinue(cur ir.Label, x *ast.ContinueExpr) (ir.Var, bool, ir.Label) {
	ls := b.currentLoop()
	if ls == nil {
		b.errs.Add(reporting.OutsideLoop(x.Span()))
		return 0, false, cur
	}
	b.addEdge(cur, ls.header)
	b.setTerm(cur, ir.Terminator{Op: ir.TermJump, Target: ls.header})
	return 0, false, cur
}

func (b *Builder) lowerReturn(cur ir.Label, x *ast.ReturnExpr) (ir.Var, bool, ir.Label) {
	if x.Value == nil {
		b.errs.Add(reporting.NoReturnValue(x.Span()))
		return 0, false, cur
	}
	v, has, next := b.lowerExpr(cur, x.Value)
	cur = next
	if !has {
		b.errs.Add(reporting.NoReturnValue(x.Value.Span()))
		v = b.loadDummy(cur)
	}
	b.define(cur, retName, v)
	b.addEdge(cur, ir.ExitLabel())
	b.setTerm(cur, ir.Terminator{Op: ir.TermJump, Target: ir.ExitLabel()})
	return 0, false, cur
}

// litToConst parses a literal's source-faithful lexeme into a constant-pool
// value, reporting InvalidInt/InvalidStrChunk on failure (§3, §7).
func (b *Builder) litToConst(x *ast.LitExpr) (ir.Const, error) {
	switch x.Kind {
	case ast.LitInt:
		v, err := strconv.ParseInt(x.Sym, x.Base, 32)
		if err != nil {
			return ir.Const{}, reporting.InvalidInt(x.Span(), x.Sym)
		}
		return ir.IntConst(int32(v)), nil
	case ast.LitFloat:
		v, err := strconv.ParseFloat(x.Sym, 32)
		if err != nil {
			return ir.Const{}, reporting.InvalidInt(x.Span(), x.Sym)
		}
		return ir.FloatConst(math.Float32bits(float32(v))), nil
	case ast.LitBool:
		return ir.BoolConst(x.Bool), nil
	case ast.LitStr:
		s, err := b.decodeChunks(x)
		if err != nil {
			return ir.Const{}, err
		}
		return ir.StrConst(s), nil
	default:
		panic("build: unknown literal kind")
	}
}

func (b *Builder) decodeChunks(x *ast.LitExpr) (string, error) {
	var out []byte
	for _, c := range x.Chunks {
		switch c.Kind {
		case ast.ChunkSlice:
			out = append(out, c.Text...)
		case ast.ChunkEscape:
			switch c.Text {
			case "n":
				out = append(out, '\n')
			case "t":
				out = append(out, '\t')
			case "r":
				out = append(out, '\r')
			case "\\":
				out = append(out, '\\')
			case "\"":
				out = append(out, '"')
			case "'":
				out = append(out, '\'')
			default:
				return "", reporting.InvalidStrChunk(x.Span(), c.Text)
			}
		case ast.ChunkUnicode:
			v, err := strconv.ParseUint(c.Text, 16, 32)
			if err != nil {
				return "", reporting.InvalidStrChunk(x.Span(), c.Text)
			}
			out = append(out, []byte(string(rune(v)))...)
		default:
			return "", reporting.InvalidStrChunk(x.Span(), c.Text)
		}
	}
	return string(out), nil
}
