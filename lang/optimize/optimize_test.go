package optimize_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/felys-lang/felys/lang/ast"
	"github.com/felys-lang/felys/lang/build"
	"github.com/felys-lang/felys/lang/codegen"
	"github.com/felys-lang/felys/lang/interner"
	"github.com/felys-lang/felys/lang/ir"
	"github.com/felys-lang/felys/lang/namespace"
	"github.com/felys-lang/felys/lang/optimize"
	"github.com/felys-lang/felys/lang/reporting"
	"github.com/felys-lang/felys/lang/vm"
)

func intLit(v int32) *ast.LitExpr {
	sign, n := "", v
	if n < 0 {
		sign, n = "-", -n
	}
	digits := []byte{}
	if n == 0 {
		digits = []byte{'0'}
	}
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return &ast.LitExpr{Kind: ast.LitInt, Base: 10, Sym: sign + string(digits)}
}

func buildProgram(t *testing.T, root *ast.Root) *build.Program {
	t.Helper()
	in := interner.New(16)
	ns := namespace.New()
	errs := &reporting.ErrorList{}
	p := build.BuildProgram(in, ns, errs, root)
	require.False(t, errs.HasErrors(), errs.Error())
	return p
}

// countInstrs sums every instruction across every live fragment of f,
// Entry and Exit included.
func countInstrs(f *ir.Function) int {
	n := 0
	for _, lbl := range f.Labels() {
		frag := f.Fragment(lbl)
		if frag != nil {
			n += len(frag.Instructions)
		}
	}
	return n
}

func TestOptimizeFoldsConstantArithmetic(t *testing.T) {
	body := &ast.Block{Stmts: []ast.Stmt{
		&ast.ExprStmt{X: &ast.ReturnExpr{Value: &ast.BinaryExpr{
			Op: ast.Add, LHS: intLit(1), RHS: intLit(2),
		}}},
	}}
	root := &ast.Root{Items: []ast.Item{&ast.Main{Arg: "arg", Body: body}}}
	p := buildProgram(t, root)

	require.NoError(t, optimize.OptimizeProgram(p))

	for _, in := range p.Main.Entry.Instructions {
		require.NotEqual(t, ir.InstrBinary, in.Op, "constant binary op should have folded to a Load")
	}

	// The optimized program must still compile to bytecode.
	e := codegen.CompileProgram(interner.New(16), p)
	_ = e
}

func TestOptimizeCollapsesConstantBranch(t *testing.T) {
	ifExpr := &ast.IfExpr{
		Cond: &ast.LitExpr{Kind: ast.LitBool, Bool: false},
		Then: &ast.Block{Stmts: []ast.Stmt{&ast.ExprStmt{X: intLit(1)}}},
		Else: &ast.Block{Stmts: []ast.Stmt{&ast.ExprStmt{X: intLit(2)}}},
	}
	body := &ast.Block{Stmts: []ast.Stmt{&ast.ExprStmt{X: &ast.ReturnExpr{Value: ifExpr}}}}
	root := &ast.Root{Items: []ast.Item{&ast.Main{Arg: "arg", Body: body}}}
	p := buildProgram(t, root)

	before := len(p.Main.Fragments)
	require.NoError(t, optimize.OptimizeProgram(p))
	after := len(p.Main.Fragments)
	require.LessOrEqual(t, after, before, "folding an always-false branch should prune the dead arm")

	in := interner.New(16)
	ns := namespace.New()
	errs := &reporting.ErrorList{}
	p2 := build.BuildProgram(in, ns, errs, root)
	require.False(t, errs.HasErrors())
	require.NoError(t, optimize.OptimizeProgram(p2))
	e := codegen.CompileProgram(in, p2)
	thread := vm.New(e, nil)
	ret, _, err := thread.Run(vm.VoidVal(), 0)
	require.NoError(t, err)
	require.Equal(t, int32(2), ret.Int)
}

func TestOptimizeIsIdempotent(t *testing.T) {
	body := &ast.Block{Stmts: []ast.Stmt{
		&ast.AssignStmt{Pat: &ast.IdentPat{Name: "unused"}, Op: ast.Assign,
			X: &ast.BinaryExpr{Op: ast.Mul, LHS: intLit(6), RHS: intLit(7)}},
		&ast.ExprStmt{X: &ast.ReturnExpr{Value: intLit(5)}},
	}}
	root := &ast.Root{Items: []ast.Item{&ast.Main{Arg: "arg", Body: body}}}
	p := buildProgram(t, root)

	require.NoError(t, optimize.OptimizeProgram(p))
	firstRoundInstrs := countInstrs(p.Main)
	firstRoundBlocks := len(p.Main.Fragments)

	require.NoError(t, optimize.OptimizeProgram(p))
	require.Equal(t, firstRoundInstrs, countInstrs(p.Main), "a second optimize pass must be a no-op")
	require.Equal(t, firstRoundBlocks, len(p.Main.Fragments))
}

func TestOptimizeDeadCodeEliminatesUnusedLoad(t *testing.T) {
	body := &ast.Block{Stmts: []ast.Stmt{
		&ast.AssignStmt{Pat: &ast.IdentPat{Name: "unused"}, Op: ast.Assign, X: intLit(42)},
		&ast.ExprStmt{X: &ast.ReturnExpr{Value: intLit(1)}},
	}}
	root := &ast.Root{Items: []ast.Item{&ast.Main{Arg: "arg", Body: body}}}
	p := buildProgram(t, root)

	before := countInstrs(p.Main)
	require.NoError(t, optimize.OptimizeProgram(p))
	after := countInstrs(p.Main)
	require.Less(t, after, before, "the dead `unused` binding should be swept")
}
