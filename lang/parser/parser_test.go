package parser_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/felys-lang/felys/lang/ast"
	"github.com/felys-lang/felys/lang/parser"
)

func parseExpr(t *testing.T, src string) ast.Expr {
	t.Helper()
	root, err := parser.Parse([]byte("fn main(_){" + src + ";}"))
	require.NoError(t, err)
	require.Len(t, root.Items, 1)
	main, ok := root.Items[0].(*ast.Main)
	require.True(t, ok)
	require.Len(t, main.Body.Stmts, 1)
	semi, ok := main.Body.Stmts[0].(*ast.SemiStmt)
	require.True(t, ok)
	return semi.X
}

func TestParsePrecedenceClimbsCorrectly(t *testing.T) {
	x := parseExpr(t, "1 + 2 * 3")
	bin, ok := x.(*ast.BinaryExpr)
	require.True(t, ok)
	require.Equal(t, ast.Add, bin.Op)
	rhs, ok := bin.RHS.(*ast.BinaryExpr)
	require.True(t, ok)
	require.Equal(t, ast.Mul, rhs.Op)
}

func TestParseUnaryBindsTighterThanBinary(t *testing.T) {
	x := parseExpr(t, "-1 + 2")
	bin, ok := x.(*ast.BinaryExpr)
	require.True(t, ok)
	_, ok = bin.LHS.(*ast.UnaryExpr)
	require.True(t, ok)
}

func TestParseNotBindsLooserThanEquality(t *testing.T) {
	x := parseExpr(t, "not a == b")
	un, ok := x.(*ast.UnaryExpr)
	require.True(t, ok)
	require.Equal(t, ast.Not, un.Op)
	_, ok = un.X.(*ast.BinaryExpr)
	require.True(t, ok)
}

func TestParseLogicalPrecedence(t *testing.T) {
	x := parseExpr(t, "a and b or c")
	bin, ok := x.(*ast.BinaryExpr)
	require.True(t, ok)
	require.Equal(t, ast.LogOr, bin.Op)
	_, ok = bin.LHS.(*ast.BinaryExpr)
	require.True(t, ok)
}

func TestParsePostfixChain(t *testing.T) {
	x := parseExpr(t, "a.b(1, 2)[0].c")
	field, ok := x.(*ast.FieldExpr)
	require.True(t, ok)
	require.Equal(t, "c", field.Name)
	idx, ok := field.Recv.(*ast.IndexExpr)
	require.True(t, ok)
	method, ok := idx.Recv.(*ast.MethodExpr)
	require.True(t, ok)
	require.Equal(t, "b", method.Name)
	require.Len(t, method.Args, 2)
}

func TestParseParenVsSingleElementTuple(t *testing.T) {
	paren := parseExpr(t, "(1 + 2)")
	_, ok := paren.(*ast.ParenExpr)
	require.True(t, ok)

	tuple := parseExpr(t, "(1,)")
	tup, ok := tuple.(*ast.TupleExpr)
	require.True(t, ok)
	require.Len(t, tup.Elems, 1)
}

func TestParseMultiElementTuple(t *testing.T) {
	x := parseExpr(t, "(1, 2, 3)")
	tup, ok := x.(*ast.TupleExpr)
	require.True(t, ok)
	require.Len(t, tup.Elems, 3)
}

func TestParseListLiteral(t *testing.T) {
	x := parseExpr(t, "[1, 2, 3]")
	list, ok := x.(*ast.ListExpr)
	require.True(t, ok)
	require.Len(t, list.Elems, 3)
}

func TestParsePath(t *testing.T) {
	x := parseExpr(t, "std::io::print")
	path, ok := x.(*ast.PathExpr)
	require.True(t, ok)
	require.Equal(t, []string{"std", "io", "print"}, path.Components)
}

func TestParseIfElseIfElse(t *testing.T) {
	x := parseExpr(t, "if a { 1 } else if b { 2 } else { 3 }")
	ifExpr, ok := x.(*ast.IfExpr)
	require.True(t, ok)
	require.NotNil(t, ifExpr.ElseIf)
	require.NotNil(t, ifExpr.ElseIf.Else)
}

func TestParseForLoop(t *testing.T) {
	x := parseExpr(t, "for x in xs { x; }")
	forExpr, ok := x.(*ast.ForExpr)
	require.True(t, ok)
	pat, ok := forExpr.Pat.(*ast.IdentPat)
	require.True(t, ok)
	require.Equal(t, "x", pat.Name)
}

func TestParseBreakAndReturnWithAndWithoutValue(t *testing.T) {
	bare := parseExpr(t, "break")
	b, ok := bare.(*ast.BreakExpr)
	require.True(t, ok)
	require.Nil(t, b.Value)

	withVal := parseExpr(t, "return 1 + 1")
	r, ok := withVal.(*ast.ReturnExpr)
	require.True(t, ok)
	require.NotNil(t, r.Value)
}

func TestParseIntLiteralBases(t *testing.T) {
	x := parseExpr(t, "0x2a")
	lit, ok := x.(*ast.LitExpr)
	require.True(t, ok)
	require.Equal(t, ast.LitInt, lit.Kind)
	require.Equal(t, 16, lit.Base)
	require.Equal(t, "2a", lit.Sym)
}

func TestParseStringLiteralChunks(t *testing.T) {
	x := parseExpr(t, `"a\nb"`)
	lit, ok := x.(*ast.LitExpr)
	require.True(t, ok)
	require.Equal(t, ast.LitStr, lit.Kind)
	require.Len(t, lit.Chunks, 3)
	require.Equal(t, ast.ChunkSlice, lit.Chunks[0].Kind)
	require.Equal(t, ast.ChunkEscape, lit.Chunks[1].Kind)
	require.Equal(t, ast.ChunkSlice, lit.Chunks[2].Kind)
}

func TestParseFullProgram(t *testing.T) {
	src := `
group Counter(count);

impl Counter {
	fn new() { Counter(0) }

	fn increment(self) {
		Counter(self.count + 1)
	}
}

fn main(_) {
	x = Counter::new();
	x.increment();
	x.count;
}
`
	root, err := parser.Parse([]byte(src))
	require.NoError(t, err)
	require.Len(t, root.Items, 3)

	group, ok := root.Items[0].(*ast.Group)
	require.True(t, ok)
	require.Equal(t, "Counter", group.Name)
	require.Equal(t, []string{"count"}, group.Fields)

	impl, ok := root.Items[1].(*ast.Impl)
	require.True(t, ok)
	require.Equal(t, "Counter", impl.GroupName)
	require.Len(t, impl.Members, 2)

	_, ok = impl.Members[0].(*ast.Associated)
	require.True(t, ok)

	method, ok := impl.Members[1].(*ast.Method)
	require.True(t, ok)
	require.Equal(t, "increment", method.Name)
	require.Empty(t, method.Args)

	_, ok = root.Items[2].(*ast.Main)
	require.True(t, ok)
}

func TestParseMalformedInputReportsError(t *testing.T) {
	_, err := parser.Parse([]byte("fn main(_) { 1 + }"))
	require.Error(t, err)
}
