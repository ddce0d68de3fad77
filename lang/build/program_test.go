package build

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/felys-lang/felys/lang/ast"
	"github.com/felys-lang/felys/lang/interner"
	"github.com/felys-lang/felys/lang/ir"
	"github.com/felys-lang/felys/lang/namespace"
	"github.com/felys-lang/felys/lang/reporting"
)

func identExpr(name string) *ast.PathExpr {
	return &ast.PathExpr{Components: []string{name}}
}

func intLit(v int64) *ast.LitExpr {
	return &ast.LitExpr{Kind: ast.LitInt, Base: 10, Sym: itoaTest(v)}
}

func itoaTest(v int64) string {
	if v == 0 {
		return "0"
	}
	neg := v < 0
	if neg {
		v = -v
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

func mainFn(body *ast.Block) *ast.Main {
	return &ast.Main{Arg: "arg", Body: body}
}

func buildRoot(t *testing.T, root *ast.Root) (*Program, *reporting.ErrorList) {
	t.Helper()
	in := interner.New(16)
	ns := namespace.New()
	errs := &reporting.ErrorList{}
	p := BuildProgram(in, ns, errs, root)
	return p, errs
}

func TestBuildSimpleReturn(t *testing.T) {
	body := &ast.Block{Stmts: []ast.Stmt{
		&ast.ExprStmt{X: &ast.ReturnExpr{Value: identExpr("x")}},
	}}
	root := &ast.Root{Items: []ast.Item{
		&ast.Fn{Name: "foo", Args: []string{"x"}, Body: body},
		mainFn(&ast.Block{Stmts: []ast.Stmt{&ast.ExprStmt{X: intLit(0)}}}),
	}}
	p, errs := buildRoot(t, root)
	require.False(t, errs.HasErrors(), errs.Error())
	require.Len(t, p.Functions, 1)

	fn := p.Functions[0]
	require.Len(t, fn.Args, 1)
	exit := fn.Fragment(ir.ExitLabel())
	require.NotNil(t, exit.Terminator)
	require.Equal(t, ir.TermReturn, exit.Terminator.Op)
	require.Equal(t, fn.Args[0], exit.Terminator.RetVar)
}

func TestBuildIfElseBothBranchesYieldValue(t *testing.T) {
	cond := &ast.PathExpr{Components: []string{"x"}}
	ifExpr := &ast.IfExpr{
		Cond: cond,
		Then: &ast.Block{Stmts: []ast.Stmt{&ast.ExprStmt{X: intLit(1)}}},
		Else: &ast.Block{Stmts: []ast.Stmt{&ast.ExprStmt{X: intLit(2)}}},
	}
	body := &ast.Block{Stmts: []ast.Stmt{
		&ast.ExprStmt{X: &ast.ReturnExpr{Value: ifExpr}},
	}}
	root := &ast.Root{Items: []ast.Item{
		&ast.Fn{Name: "pick", Args: []string{"x"}, Body: body},
		mainFn(&ast.Block{Stmts: []ast.Stmt{&ast.ExprStmt{X: intLit(0)}}}),
	}}
	p, errs := buildRoot(t, root)
	require.False(t, errs.HasErrors(), errs.Error())

	fn := p.Functions[0]
	exit := fn.Fragment(ir.ExitLabel())
	require.NotNil(t, exit.Terminator)
	require.NotZero(t, exit.Terminator.RetVar)
	// three distinct constants across the whole program: 1, 2 (the two
	// branches) and 0 (main's trailing expression).
	require.Len(t, p.Constants, 3)
}

func TestBuildWhileBreakValue(t *testing.T) {
	loopBody := &ast.Block{Stmts: []ast.Stmt{
		&ast.ExprStmt{X: &ast.BreakExpr{Value: intLit(7)}},
	}}
	whileExpr := &ast.WhileExpr{Cond: &ast.LitExpr{Kind: ast.LitBool, Bool: true}, Body: loopBody}
	body := &ast.Block{Stmts: []ast.Stmt{
		&ast.ExprStmt{X: &ast.ReturnExpr{Value: whileExpr}},
	}}
	root := &ast.Root{Items: []ast.Item{
		&ast.Fn{Name: "f", Body: body},
		mainFn(&ast.Block{Stmts: []ast.Stmt{&ast.ExprStmt{X: intLit(0)}}}),
	}}
	p, errs := buildRoot(t, root)
	require.False(t, errs.HasErrors(), errs.Error())
	require.NotNil(t, p.Functions[0].Fragment(ir.ExitLabel()).Terminator)
}

func TestBuildBreakOutsideLoop(t *testing.T) {
	body := &ast.Block{Stmts: []ast.Stmt{
		&ast.SemiStmt{X: &ast.BreakExpr{}},
		&ast.ExprStmt{X: &ast.ReturnExpr{Value: intLit(0)}},
	}}
	root := &ast.Root{Items: []ast.Item{
		&ast.Fn{Name: "f", Body: body},
		mainFn(&ast.Block{Stmts: []ast.Stmt{&ast.ExprStmt{X: intLit(0)}}}),
	}}
	_, errs := buildRoot(t, root)
	require.True(t, errs.HasErrors())
	require.Contains(t, errs.Error(), "OutsideLoop")
}

func TestBuildMainNotFound(t *testing.T) {
	root := &ast.Root{Items: []ast.Item{
		&ast.Fn{Name: "f", Body: &ast.Block{}},
	}}
	_, errs := buildRoot(t, root)
	require.True(t, errs.HasErrors())
	require.Contains(t, errs.Error(), "MainNotFound")
}

func TestBuildDuplicatePath(t *testing.T) {
	root := &ast.Root{Items: []ast.Item{
		&ast.Fn{Name: "f", Body: &ast.Block{}},
		&ast.Fn{Name: "f", Body: &ast.Block{}},
		mainFn(&ast.Block{Stmts: []ast.Stmt{&ast.ExprStmt{X: intLit(0)}}}),
	}}
	_, errs := buildRoot(t, root)
	require.True(t, errs.HasErrors())
	require.Contains(t, errs.Error(), "DuplicatePath")
}

func TestBuildGroupMethodDispatch(t *testing.T) {
	group := &ast.Group{Name: "Point", Fields: []string{"x", "y"}}
	method := &ast.Method{Name: "sum", Body: &ast.Block{Stmts: []ast.Stmt{
		&ast.ExprStmt{X: &ast.ReturnExpr{Value: &ast.FieldExpr{Recv: identExpr("self"), Name: "x"}}},
	}}}
	impl := &ast.Impl{GroupName: "Point", Members: []ast.ImplMember{method}}
	root := &ast.Root{Items: []ast.Item{
		group, impl,
		mainFn(&ast.Block{Stmts: []ast.Stmt{&ast.ExprStmt{X: intLit(0)}}}),
	}}
	p, errs := buildRoot(t, root)
	require.False(t, errs.HasErrors(), errs.Error())
	require.Len(t, p.Groups, 1)
	require.Len(t, p.Functions, 1)
	methodFn := p.Functions[0]
	require.Len(t, methodFn.Args, 1) // implicit self
}
