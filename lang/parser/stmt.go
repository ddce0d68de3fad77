package parser

import (
	"github.com/felys-lang/felys/lang/ast"
	"github.com/felys-lang/felys/lang/token"
)

// parseBlock is "{ stmt... }". The final statement may be a bare
// expression (ExprStmt) that becomes the block's value; every other
// statement is Empty, Semi, or Assign (§3).
func (p *Parser) parseBlock() (*ast.Block, bool) {
	start, ok := p.expect(token.LBRACE)
	if !ok {
		return nil, false
	}
	var stmts []ast.Stmt
	for !p.at(token.RBRACE) {
		st, ok := p.parseStmt()
		if !ok {
			return nil, false
		}
		stmts = append(stmts, st)
	}
	end, ok := p.expect(token.RBRACE)
	if !ok {
		return nil, false
	}
	return &ast.Block{Sp: token.MakeSpan(start.sp.Start, end.sp.End), Stmts: stmts}, true
}

// parseStmt tries, in order: Empty, Assign, Semi(expr), Expr(expr). Assign
// and the Semi/Expr pair are a genuine ordered choice (both can start with
// the same tokens, e.g. a bare tuple), so they go through peg rather than
// a single committed parse. An expression statement with no trailing ";"
// is only valid as a block's last statement; the builder (not the parser)
// enforces that (§4.2 BlockEarlyReturn).
func (p *Parser) parseStmt() (ast.Stmt, bool) {
	if tk, ok := p.accept(token.SEMI); ok {
		return &ast.EmptyStmt{Sp: tk.sp}, true
	}

	st, ok := p.peg(
		pegAlt{"assign-stmt", func() (interface{}, bool) { return p.parseAssignStmt() }},
		pegAlt{"semi-or-expr-stmt", func() (interface{}, bool) { return p.parseSemiOrExprStmt() }},
	)
	if !ok {
		return nil, false
	}
	return st.(ast.Stmt), true
}

func (p *Parser) parseSemiOrExprStmt() (ast.Stmt, bool) {
	x, ok := p.parseExpr()
	if !ok {
		return nil, false
	}
	if end, ok := p.accept(token.SEMI); ok {
		return &ast.SemiStmt{Sp: token.MakeSpan(x.Span().Start, end.sp.End), X: x}, true
	}
	return &ast.ExprStmt{Sp: x.Span(), X: x}, true
}

func (p *Parser) parseAssignStmt() (*ast.AssignStmt, bool) {
	pat, ok := p.parsePat()
	if !ok {
		return nil, false
	}
	tk := p.peek()
	var op ast.AssignOp
	switch tk.tok {
	case token.EQ:
		op = ast.Assign
	case token.PLUS_EQ:
		op = ast.AssignAdd
	case token.MINUS_EQ:
		op = ast.AssignSub
	case token.STAR_EQ:
		op = ast.AssignMul
	case token.SLASH_EQ:
		op = ast.AssignDiv
	case token.PCT_EQ:
		op = ast.AssignMod
	default:
		p.fail(tk.sp, "expected an assignment operator")
		return nil, false
	}
	p.advance()
	x, ok := p.parseExpr()
	if !ok {
		return nil, false
	}
	end, ok := p.expect(token.SEMI)
	if !ok {
		return nil, false
	}
	return &ast.AssignStmt{Sp: token.MakeSpan(pat.Span().Start, end.sp.End), Pat: pat, Op: op, X: x}, true
}

// parsePat is one of Any("_"), Tuple, Lit, Ident (§3). The wildcard is
// spelled with the identifier "_", so it is recognized before falling
// through to the generic identifier case.
func (p *Parser) parsePat() (ast.Pat, bool) {
	if tk, ok := p.accept(token.IDENT); ok {
		if tk.lit == "_" {
			return &ast.AnyPat{Sp: tk.sp}, true
		}
		return &ast.IdentPat{Sp: tk.sp, Name: tk.lit}, true
	}
	if p.at(token.LPAREN) {
		return p.parseTuplePat()
	}
	if lit, ok := p.parseLitOnly(); ok {
		return &ast.LitPat{Sp: lit.Sp, Lit: lit}, true
	}
	p.fail(p.peek().sp, "expected a pattern")
	return nil, false
}

func (p *Parser) parseTuplePat() (*ast.TuplePat, bool) {
	start, ok := p.expect(token.LPAREN)
	if !ok {
		return nil, false
	}
	var elems []ast.Pat
	for !p.at(token.RPAREN) {
		e, ok := p.parsePat()
		if !ok {
			return nil, false
		}
		elems = append(elems, e)
		if _, ok := p.accept(token.COMMA); !ok {
			break
		}
	}
	end, ok := p.expect(token.RPAREN)
	if !ok {
		return nil, false
	}
	return &ast.TuplePat{Sp: token.MakeSpan(start.sp.Start, end.sp.End), Elems: elems}, true
}
