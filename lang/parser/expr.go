package parser

import (
	"github.com/felys-lang/felys/lang/ast"
	"github.com/felys-lang/felys/lang/token"
)

// parseExpr is the entry point of the precedence chain (§4.1/§9):
// disjunction -> conjunction -> inversion -> equality -> comparison ->
// term -> factor -> unary -> evaluation -> primary. Tuples are not a
// separate precedence level; they only ever appear parenthesized, handled
// in primary.
func (p *Parser) parseExpr() (ast.Expr, bool) { return p.parseDisjunction() }

// binOpLevel parses next, then a maximal left-associative chain of
// operators in ops, each followed by another next. This is the immediate
// left-recursive pattern the grammar uses at every binary-operator level,
// implemented by iteration rather than by general seed-and-grow
// left-recursion (see the package doc comment).
func (p *Parser) binOpLevel(next func() (ast.Expr, bool), ops map[token.Token]ast.BinOp) (ast.Expr, bool) {
	lhs, ok := next()
	if !ok {
		return nil, false
	}
	for {
		op, matched := ops[p.peek().tok]
		if !matched {
			return lhs, true
		}
		p.advance()
		rhs, ok := next()
		if !ok {
			return nil, false
		}
		lhs = &ast.BinaryExpr{Sp: token.MakeSpan(lhs.Span().Start, rhs.Span().End), Op: op, LHS: lhs, RHS: rhs}
	}
}

func (p *Parser) parseDisjunction() (ast.Expr, bool) {
	return p.binOpLevel(p.parseConjunction, map[token.Token]ast.BinOp{token.OR: ast.LogOr})
}

func (p *Parser) parseConjunction() (ast.Expr, bool) {
	return p.binOpLevel(p.parseInversion, map[token.Token]ast.BinOp{token.AND: ast.LogAnd})
}

// parseInversion is the prefix "not", binding looser than comparison and
// arithmetic but tighter than "and"/"or" (§9).
func (p *Parser) parseInversion() (ast.Expr, bool) {
	if tk, ok := p.accept(token.NOT); ok {
		rhs, ok := p.parseInversion()
		if !ok {
			return nil, false
		}
		return &ast.UnaryExpr{Sp: token.MakeSpan(tk.sp.Start, rhs.Span().End), Op: ast.Not, X: rhs}, true
	}
	return p.parseEquality()
}

func (p *Parser) parseEquality() (ast.Expr, bool) {
	return p.binOpLevel(p.parseComparison, map[token.Token]ast.BinOp{token.EQL: ast.Eql, token.NEQ: ast.Neq})
}

func (p *Parser) parseComparison() (ast.Expr, bool) {
	return p.binOpLevel(p.parseTerm, map[token.Token]ast.BinOp{
		token.LT: ast.Lt, token.GT: ast.Gt, token.LE: ast.Le, token.GE: ast.Ge,
	})
}

func (p *Parser) parseTerm() (ast.Expr, bool) {
	return p.binOpLevel(p.parseFactor, map[token.Token]ast.BinOp{token.PLUS: ast.Add, token.MINUS: ast.Sub})
}

func (p *Parser) parseFactor() (ast.Expr, bool) {
	return p.binOpLevel(p.parseUnary, map[token.Token]ast.BinOp{
		token.STAR: ast.Mul, token.SLASH: ast.Div, token.PERCENT: ast.Mod,
	})
}

// parseUnary is the prefix "-", binding tighter than any binary operator.
func (p *Parser) parseUnary() (ast.Expr, bool) {
	if tk, ok := p.accept(token.MINUS); ok {
		rhs, ok := p.parseUnary()
		if !ok {
			return nil, false
		}
		return &ast.UnaryExpr{Sp: token.MakeSpan(tk.sp.Start, rhs.Span().End), Op: ast.Neg, X: rhs}, true
	}
	return p.parseEvaluation()
}

// parseEvaluation is the postfix chain: call, field access, method call,
// and indexing, all left-recursive over primary in the grammar this is
// drawn from and implemented here as a loop for the same reason as
// binOpLevel.
func (p *Parser) parseEvaluation() (ast.Expr, bool) {
	x, ok := p.parsePrimary()
	if !ok {
		return nil, false
	}
	for {
		switch {
		case p.at(token.LPAREN):
			p.advance()
			args, end, ok := p.parseArgList()
			if !ok {
				return nil, false
			}
			x = &ast.CallExpr{Sp: token.MakeSpan(x.Span().Start, end.End), Callee: x, Args: args}
		case p.at(token.DOT):
			p.advance()
			name, ok := p.expect(token.IDENT)
			if !ok {
				return nil, false
			}
			if p.at(token.LPAREN) {
				p.advance()
				args, end, ok := p.parseArgList()
				if !ok {
					return nil, false
				}
				x = &ast.MethodExpr{Sp: token.MakeSpan(x.Span().Start, end.End), Recv: x, Name: name.lit, Args: args}
				continue
			}
			x = &ast.FieldExpr{Sp: token.MakeSpan(x.Span().Start, name.sp.End), Recv: x, Name: name.lit}
		case p.at(token.LBRACK):
			p.advance()
			idx, ok := p.parseExpr()
			if !ok {
				return nil, false
			}
			end, ok := p.expect(token.RBRACK)
			if !ok {
				return nil, false
			}
			x = &ast.IndexExpr{Sp: token.MakeSpan(x.Span().Start, end.sp.End), Recv: x, Index: idx}
		default:
			return x, true
		}
	}
}

// parseArgList parses a comma-separated (optionally trailing-comma)
// expression list up to and including the closing ')'; the '(' is already
// consumed by the caller.
func (p *Parser) parseArgList() ([]ast.Expr, token.Span, bool) {
	var args []ast.Expr
	if !p.at(token.RPAREN) {
		e, ok := p.parseExpr()
		if !ok {
			return nil, token.Span{}, false
		}
		args = append(args, e)
		for {
			if _, ok := p.accept(token.COMMA); !ok {
				break
			}
			if p.at(token.RPAREN) {
				break
			}
			e, ok := p.parseExpr()
			if !ok {
				return nil, token.Span{}, false
			}
			args = append(args, e)
		}
	}
	end, ok := p.expect(token.RPAREN)
	if !ok {
		return nil, token.Span{}, false
	}
	return args, end.sp, true
}

func (p *Parser) parsePrimary() (ast.Expr, bool) {
	switch p.peek().tok {
	case token.LBRACE:
		blk, ok := p.parseBlock()
		if !ok {
			return nil, false
		}
		return &ast.BlockExpr{Sp: blk.Sp, Block: blk}, true
	case token.BREAK:
		return p.parseBreak()
	case token.CONTINUE:
		tk := p.advance()
		return &ast.ContinueExpr{Sp: tk.sp}, true
	case token.RETURN:
		return p.parseReturn()
	case token.IF:
		return p.parseIf()
	case token.WHILE:
		return p.parseWhile()
	case token.LOOP:
		return p.parseLoop()
	case token.FOR:
		return p.parseFor()
	case token.LPAREN:
		return p.parseParenOrTuple()
	case token.LBRACK:
		return p.parseList()
	case token.INT, token.FLOAT, token.TRUE, token.FALSE, token.STRING:
		lit, ok := p.parseLitOnly()
		if !ok {
			return nil, false
		}
		return lit, true
	case token.IDENT:
		return p.parsePath()
	default:
		p.fail(p.peek().sp, "expected an expression")
		return nil, false
	}
}

// canStartExpr reports whether the current token can begin an expression,
// used to tell a bare "break"/"return" from one carrying a value.
func (p *Parser) canStartExpr() bool {
	switch p.peek().tok {
	case token.SEMI, token.RBRACE, token.RPAREN, token.RBRACK, token.COMMA, token.EOF:
		return false
	default:
		return true
	}
}

func (p *Parser) parseBreak() (*ast.BreakExpr, bool) {
	tk := p.advance()
	n := &ast.BreakExpr{Sp: tk.sp}
	if p.canStartExpr() {
		v, ok := p.parseExpr()
		if !ok {
			return nil, false
		}
		n.Value = v
		n.Sp = token.MakeSpan(tk.sp.Start, v.Span().End)
	}
	return n, true
}

func (p *Parser) parseReturn() (*ast.ReturnExpr, bool) {
	tk := p.advance()
	n := &ast.ReturnExpr{Sp: tk.sp}
	if p.canStartExpr() {
		v, ok := p.parseExpr()
		if !ok {
			return nil, false
		}
		n.Value = v
		n.Sp = token.MakeSpan(tk.sp.Start, v.Span().End)
	}
	return n, true
}

func (p *Parser) parseIf() (*ast.IfExpr, bool) {
	start, ok := p.expect(token.IF)
	if !ok {
		return nil, false
	}
	cond, ok := p.parseExpr()
	if !ok {
		return nil, false
	}
	then, ok := p.parseBlock()
	if !ok {
		return nil, false
	}
	n := &ast.IfExpr{Sp: token.MakeSpan(start.sp.Start, then.Sp.End), Cond: cond, Then: then}
	if _, ok := p.accept(token.ELSE); !ok {
		return n, true
	}
	if p.at(token.IF) {
		elseIf, ok := p.parseIf()
		if !ok {
			return nil, false
		}
		n.ElseIf = elseIf
		n.Sp = token.MakeSpan(start.sp.Start, elseIf.Sp.End)
		return n, true
	}
	elseBlk, ok := p.parseBlock()
	if !ok {
		return nil, false
	}
	n.Else = elseBlk
	n.Sp = token.MakeSpan(start.sp.Start, elseBlk.Sp.End)
	return n, true
}

func (p *Parser) parseWhile() (*ast.WhileExpr, bool) {
	start, ok := p.expect(token.WHILE)
	if !ok {
		return nil, false
	}
	cond, ok := p.parseExpr()
	if !ok {
		return nil, false
	}
	body, ok := p.parseBlock()
	if !ok {
		return nil, false
	}
	return &ast.WhileExpr{Sp: token.MakeSpan(start.sp.Start, body.Sp.End), Cond: cond, Body: body}, true
}

func (p *Parser) parseLoop() (*ast.LoopExpr, bool) {
	start, ok := p.expect(token.LOOP)
	if !ok {
		return nil, false
	}
	body, ok := p.parseBlock()
	if !ok {
		return nil, false
	}
	return &ast.LoopExpr{Sp: token.MakeSpan(start.sp.Start, body.Sp.End), Body: body}, true
}

func (p *Parser) parseFor() (*ast.ForExpr, bool) {
	start, ok := p.expect(token.FOR)
	if !ok {
		return nil, false
	}
	pat, ok := p.parsePat()
	if !ok {
		return nil, false
	}
	if _, ok := p.expect(token.IN); !ok {
		return nil, false
	}
	iter, ok := p.parseExpr()
	if !ok {
		return nil, false
	}
	body, ok := p.parseBlock()
	if !ok {
		return nil, false
	}
	return &ast.ForExpr{Sp: token.MakeSpan(start.sp.Start, body.Sp.End), Pat: pat, Iter: iter, Body: body}, true
}

// parseParenOrTuple is "(" expr ")" (a Paren) or "(" expr ("," expr)* ","?
// ")" with at least one comma (a Tuple); a trailing comma after a single
// element disambiguates a one-element tuple from a parenthesized
// expression (§3's TupleExpr doc comment).
func (p *Parser) parseParenOrTuple() (ast.Expr, bool) {
	start, ok := p.expect(token.LPAREN)
	if !ok {
		return nil, false
	}
	if end, ok := p.accept(token.RPAREN); ok {
		return &ast.TupleExpr{Sp: token.MakeSpan(start.sp.Start, end.sp.End)}, true
	}
	first, ok := p.parseExpr()
	if !ok {
		return nil, false
	}
	if _, ok := p.accept(token.COMMA); !ok {
		end, ok := p.expect(token.RPAREN)
		if !ok {
			return nil, false
		}
		return &ast.ParenExpr{Sp: token.MakeSpan(start.sp.Start, end.sp.End), X: first}, true
	}
	elems := []ast.Expr{first}
	for !p.at(token.RPAREN) {
		e, ok := p.parseExpr()
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
	return &ast.TupleExpr{Sp: token.MakeSpan(start.sp.Start, end.sp.End), Elems: elems}, true
}

func (p *Parser) parseList() (*ast.ListExpr, bool) {
	start, ok := p.expect(token.LBRACK)
	if !ok {
		return nil, false
	}
	var elems []ast.Expr
	if !p.at(token.RBRACK) {
		e, ok := p.parseExpr()
		if !ok {
			return nil, false
		}
		elems = append(elems, e)
		for {
			if _, ok := p.accept(token.COMMA); !ok {
				break
			}
			if p.at(token.RBRACK) {
				break
			}
			e, ok := p.parseExpr()
			if !ok {
				return nil, false
			}
			elems = append(elems, e)
		}
	}
	end, ok := p.expect(token.RBRACK)
	if !ok {
		return nil, false
	}
	return &ast.ListExpr{Sp: token.MakeSpan(start.sp.Start, end.sp.End), Elems: elems}, true
}

// parsePath is a possibly multi-segment identifier reference, e.g. "x" or
// "std::io::print" (§3). ID is allocated here, at parse time.
func (p *Parser) parsePath() (*ast.PathExpr, bool) {
	first, ok := p.expect(token.IDENT)
	if !ok {
		return nil, false
	}
	components := []string{first.lit}
	end := first.sp
	for {
		if _, ok := p.accept(token.COLONCOLON); !ok {
			break
		}
		seg, ok := p.expect(token.IDENT)
		if !ok {
			return nil, false
		}
		components = append(components, seg.lit)
		end = seg.sp
	}
	return &ast.PathExpr{Sp: token.MakeSpan(first.sp.Start, end.End), ID: p.nextPathID(), Components: components}, true
}
