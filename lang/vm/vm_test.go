package vm_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/felys-lang/felys/lang/ast"
	"github.com/felys-lang/felys/lang/build"
	"github.com/felys-lang/felys/lang/codegen"
	"github.com/felys-lang/felys/lang/interner"
	"github.com/felys-lang/felys/lang/namespace"
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

func compile(t *testing.T, root *ast.Root) (*interner.Interner, *vm.Thread) {
	t.Helper()
	in := interner.New(16)
	ns := namespace.New()
	errs := &reporting.ErrorList{}
	p := build.BuildProgram(in, ns, errs, root)
	require.False(t, errs.HasErrors(), errs.Error())
	e := codegen.CompileProgram(in, p)
	return in, vm.New(e, nil)
}

func TestRunArithmetic(t *testing.T) {
	body := &ast.Block{Stmts: []ast.Stmt{
		&ast.ExprStmt{X: &ast.ReturnExpr{Value: &ast.BinaryExpr{
			Op: ast.Add, LHS: intLit(1), RHS: intLit(2),
		}}},
	}}
	root := &ast.Root{Items: []ast.Item{
		&ast.Main{Arg: "arg", Body: body},
	}}
	_, thread := compile(t, root)
	ret, stdout, err := thread.Run(vm.VoidVal(), 0)
	require.NoError(t, err)
	require.Equal(t, "", stdout)
	require.Equal(t, vm.Int, ret.Kind)
	require.Equal(t, int32(3), ret.Int)
}

func TestRunIfElse(t *testing.T) {
	ifExpr := &ast.IfExpr{
		Cond: &ast.LitExpr{Kind: ast.LitBool, Bool: false},
		Then: &ast.Block{Stmts: []ast.Stmt{&ast.ExprStmt{X: intLit(1)}}},
		Else: &ast.Block{Stmts: []ast.Stmt{&ast.ExprStmt{X: intLit(2)}}},
	}
	body := &ast.Block{Stmts: []ast.Stmt{&ast.ExprStmt{X: &ast.ReturnExpr{Value: ifExpr}}}}
	root := &ast.Root{Items: []ast.Item{&ast.Main{Arg: "arg", Body: body}}}
	_, thread := compile(t, root)
	ret, _, err := thread.Run(vm.VoidVal(), 0)
	require.NoError(t, err)
	require.Equal(t, int32(2), ret.Int)
}

func TestRunWhileLoopAccumulates(t *testing.T) {
	// i = 0; acc = 0; while i < 3 { acc = acc + i; i = i + 1; }; return acc;
	loopBody := &ast.Block{Stmts: []ast.Stmt{
		&ast.AssignStmt{
			Pat: &ast.IdentPat{Name: "acc"},
			Op:  ast.Assign,
			X: &ast.BinaryExpr{Op: ast.Add,
				LHS: &ast.PathExpr{Components: []string{"acc"}},
				RHS: &ast.PathExpr{Components: []string{"i"}}},
		},
		&ast.AssignStmt{
			Pat: &ast.IdentPat{Name: "i"},
			Op:  ast.Assign,
			X: &ast.BinaryExpr{Op: ast.Add,
				LHS: &ast.PathExpr{Components: []string{"i"}}, RHS: intLit(1)},
		},
	}
	body := &ast.Block{Stmts: []ast.Stmt{
		&ast.AssignStmt{Pat: &ast.IdentPat{Name: "i"}, Op: ast.Assign, X: intLit(0)},
		&ast.AssignStmt{Pat: &ast.IdentPat{Name: "acc"}, Op: ast.Assign, X: intLit(0)},
		&ast.ExprStmt{X: &ast.WhileExpr{
			Cond: &ast.BinaryExpr{Op: ast.Lt,
				LHS: &ast.PathExpr{Components: []string{"i"}}, RHS: intLit(3)},
			Body: loopBody,
		}},
		&ast.ExprStmt{X: &ast.ReturnExpr{Value: &ast.PathExpr{Components: []string{"acc"}}}},
	}}
	root := &ast.Root{Items: []ast.Item{&ast.Main{Arg: "arg", Body: body}}}
	_, thread := compile(t, root)
	ret, _, err := thread.Run(vm.VoidVal(), 0)
	require.NoError(t, err)
	require.Equal(t, int32(0+1+2), ret.Int)
}

func TestRunTimeout(t *testing.T) {
	loopBody := &ast.Block{Stmts: []ast.Stmt{}}
	body := &ast.Block{Stmts: []ast.Stmt{
		&ast.ExprStmt{X: &ast.LoopExpr{Body: loopBody}},
		&ast.ExprStmt{X: &ast.ReturnExpr{Value: intLit(0)}},
	}}
	root := &ast.Root{Items: []ast.Item{&ast.Main{Arg: "arg", Body: body}}}
	_, thread := compile(t, root)
	_, _, err := thread.Run(vm.VoidVal(), 5*time.Millisecond)
	require.Error(t, err)
	require.Equal(t, reporting.ErrTimeout, err)
}

func TestGroupConstructAndField(t *testing.T) {
	root := &ast.Root{Items: []ast.Item{
		&ast.Group{Name: "Point", Fields: []string{"x", "y"}},
		&ast.Main{Arg: "arg", Body: &ast.Block{Stmts: []ast.Stmt{
			&ast.AssignStmt{Pat: &ast.IdentPat{Name: "p"}, Op: ast.Assign,
				X: &ast.CallExpr{
					Callee: &ast.PathExpr{Components: []string{"Point"}},
					Args:   []ast.Expr{intLit(3), intLit(4)},
				}},
			&ast.ExprStmt{X: &ast.ReturnExpr{Value: &ast.FieldExpr{
				Recv: &ast.PathExpr{Components: []string{"p"}}, Name: "y",
			}}},
		}}},
	}}
	_, thread := compile(t, root)
	ret, _, err := thread.Run(vm.VoidVal(), 0)
	require.NoError(t, err)
	require.Equal(t, int32(4), ret.Int)
}
