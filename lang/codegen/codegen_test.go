package codegen

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/felys-lang/felys/lang/ast"
	"github.com/felys-lang/felys/lang/build"
	"github.com/felys-lang/felys/lang/bytecode"
	"github.com/felys-lang/felys/lang/interner"
	"github.com/felys-lang/felys/lang/namespace"
	"github.com/felys-lang/felys/lang/reporting"
)

func intLit(v int32) *ast.LitExpr {
	sign := ""
	n := v
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

func buildAndCompile(t *testing.T, root *ast.Root) *bytecode.Elysia {
	t.Helper()
	in := interner.New(16)
	ns := namespace.New()
	errs := &reporting.ErrorList{}
	p := build.BuildProgram(in, ns, errs, root)
	require.False(t, errs.HasErrors(), errs.Error())
	return CompileProgram(in, p)
}

func TestCompileIdentityFunction(t *testing.T) {
	body := &ast.Block{Stmts: []ast.Stmt{
		&ast.ExprStmt{X: &ast.ReturnExpr{Value: &ast.PathExpr{Components: []string{"x"}}}},
	}}
	root := &ast.Root{Items: []ast.Item{
		&ast.Fn{Name: "id", Args: []string{"x"}, Body: body},
		&ast.Main{Arg: "arg", Body: &ast.Block{Stmts: []ast.Stmt{&ast.ExprStmt{X: intLit(0)}}}},
	}}
	e := buildAndCompile(t, root)
	require.Len(t, e.Text, 1)
	fn := e.Text[0]
	require.Equal(t, uint8(1), fn.Args)
	require.NotEmpty(t, fn.Code)
	require.Equal(t, byte(bytecode.LOADARG), fn.Code[0])

	roundTripped, err := bytecode.Load(bytecode.Dump(e))
	require.NoError(t, err)
	require.Equal(t, e, roundTripped)
}

func TestCompileIfElseEmitsBranch(t *testing.T) {
	ifExpr := &ast.IfExpr{
		Cond: &ast.PathExpr{Components: []string{"x"}},
		Then: &ast.Block{Stmts: []ast.Stmt{&ast.ExprStmt{X: intLit(1)}}},
		Else: &ast.Block{Stmts: []ast.Stmt{&ast.ExprStmt{X: intLit(2)}}},
	}
	body := &ast.Block{Stmts: []ast.Stmt{&ast.ExprStmt{X: &ast.ReturnExpr{Value: ifExpr}}}}
	root := &ast.Root{Items: []ast.Item{
		&ast.Fn{Name: "pick", Args: []string{"x"}, Body: body},
		&ast.Main{Arg: "arg", Body: &ast.Block{Stmts: []ast.Stmt{&ast.ExprStmt{X: intLit(0)}}}},
	}}
	e := buildAndCompile(t, root)
	require.Len(t, e.Data, 3) // 1, 2, and main's 0
	require.Contains(t, e.Text[0].Code, byte(bytecode.BRANCH))
}

func TestCompileWhileLoopBackEdge(t *testing.T) {
	loopBody := &ast.Block{Stmts: []ast.Stmt{&ast.ExprStmt{X: &ast.BreakExpr{Value: intLit(9)}}}}
	whileExpr := &ast.WhileExpr{Cond: &ast.LitExpr{Kind: ast.LitBool, Bool: true}, Body: loopBody}
	body := &ast.Block{Stmts: []ast.Stmt{&ast.ExprStmt{X: &ast.ReturnExpr{Value: whileExpr}}}}
	root := &ast.Root{Items: []ast.Item{
		&ast.Fn{Name: "f", Body: body},
		&ast.Main{Arg: "arg", Body: &ast.Block{Stmts: []ast.Stmt{&ast.ExprStmt{X: intLit(0)}}}},
	}}
	e := buildAndCompile(t, root)
	require.NotEmpty(t, e.Text[0].Code)
}
