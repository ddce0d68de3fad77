package parser

import (
	"github.com/felys-lang/felys/lang/ast"
	"github.com/felys-lang/felys/lang/token"
)

// parseItem parses one top-level Group, Impl, Fn, or Main declaration
// (§3's Item, source grammar in §9).
func (p *Parser) parseItem() (ast.Item, bool) {
	switch p.peek().tok {
	case token.GROUP:
		return p.parseGroup()
	case token.IMPL:
		return p.parseImpl()
	case token.FN:
		isMain := p.lookahead(func() bool {
			p.advance()
			return p.at(token.MAIN)
		})
		if isMain {
			return p.parseMain()
		}
		return p.parseFn()
	default:
		p.fail(p.peek().sp, "expected 'group', 'impl', or 'fn'")
		return nil, false
	}
}

// parseGroup is "group Name(field, ...);".
func (p *Parser) parseGroup() (*ast.Group, bool) {
	start, ok := p.expect(token.GROUP)
	if !ok {
		return nil, false
	}
	name, ok := p.expect(token.IDENT)
	if !ok {
		return nil, false
	}
	if _, ok := p.expect(token.LPAREN); !ok {
		return nil, false
	}
	fields, ok := p.identList()
	if !ok {
		return nil, false
	}
	if _, ok := p.expect(token.RPAREN); !ok {
		return nil, false
	}
	end, ok := p.expect(token.SEMI)
	if !ok {
		return nil, false
	}
	return &ast.Group{Sp: token.MakeSpan(start.sp.Start, end.sp.End), Name: name.lit, Fields: fields}, true
}

// identList parses a comma-separated (optionally trailing-comma) list of
// identifiers, possibly empty.
func (p *Parser) identList() ([]string, bool) {
	var out []string
	id, ok := p.accept(token.IDENT)
	if !ok {
		return out, true
	}
	out = append(out, id.lit)
	for {
		if _, ok := p.accept(token.COMMA); !ok {
			return out, true
		}
		if !p.at(token.IDENT) {
			return out, true // trailing comma
		}
		id, _ := p.accept(token.IDENT)
		out = append(out, id.lit)
	}
}

// parseImpl is "impl Name { member... }".
func (p *Parser) parseImpl() (*ast.Impl, bool) {
	start, ok := p.expect(token.IMPL)
	if !ok {
		return nil, false
	}
	name, ok := p.expect(token.IDENT)
	if !ok {
		return nil, false
	}
	if _, ok := p.expect(token.LBRACE); !ok {
		return nil, false
	}
	var members []ast.ImplMember
	for !p.at(token.RBRACE) {
		m, ok := p.parseImplMember()
		if !ok {
			return nil, false
		}
		members = append(members, m)
	}
	end, ok := p.expect(token.RBRACE)
	if !ok {
		return nil, false
	}
	return &ast.Impl{Sp: token.MakeSpan(start.sp.Start, end.sp.End), GroupName: name.lit, Members: members}, true
}

// parseImplMember is "fn name(args) { body }". A first parameter literally
// spelled "self" marks a Method (and is stripped from Args, since
// lang/build always reinjects a synthetic self for Method bodies);
// otherwise the member is Associated.
func (p *Parser) parseImplMember() (ast.ImplMember, bool) {
	start, ok := p.expect(token.FN)
	if !ok {
		return nil, false
	}
	name, ok := p.expect(token.IDENT)
	if !ok {
		return nil, false
	}
	if _, ok := p.expect(token.LPAREN); !ok {
		return nil, false
	}
	args, ok := p.identList()
	if !ok {
		return nil, false
	}
	if _, ok := p.expect(token.RPAREN); !ok {
		return nil, false
	}
	body, ok := p.parseBlock()
	if !ok {
		return nil, false
	}
	sp := token.MakeSpan(start.sp.Start, body.Sp.End)
	if len(args) > 0 && args[0] == "self" {
		return &ast.Method{Sp: sp, Name: name.lit, Args: args[1:], Body: body}, true
	}
	return &ast.Associated{Sp: sp, Name: name.lit, Args: args, Body: body}, true
}

// parseFn is "fn name(args) { body }".
func (p *Parser) parseFn() (*ast.Fn, bool) {
	start, ok := p.expect(token.FN)
	if !ok {
		return nil, false
	}
	name, ok := p.expect(token.IDENT)
	if !ok {
		return nil, false
	}
	if _, ok := p.expect(token.LPAREN); !ok {
		return nil, false
	}
	args, ok := p.identList()
	if !ok {
		return nil, false
	}
	if _, ok := p.expect(token.RPAREN); !ok {
		return nil, false
	}
	body, ok := p.parseBlock()
	if !ok {
		return nil, false
	}
	return &ast.Fn{Sp: token.MakeSpan(start.sp.Start, body.Sp.End), Name: name.lit, Args: args, Body: body}, true
}

// parseMain is "fn main(arg) { body }".
func (p *Parser) parseMain() (*ast.Main, bool) {
	start, ok := p.expect(token.FN)
	if !ok {
		return nil, false
	}
	if _, ok := p.expect(token.MAIN); !ok {
		return nil, false
	}
	if _, ok := p.expect(token.LPAREN); !ok {
		return nil, false
	}
	arg, ok := p.expect(token.IDENT)
	if !ok {
		return nil, false
	}
	if _, ok := p.expect(token.RPAREN); !ok {
		return nil, false
	}
	body, ok := p.parseBlock()
	if !ok {
		return nil, false
	}
	return &ast.Main{Sp: token.MakeSpan(start.sp.Start, body.Sp.End), Arg: arg.lit, Body: body}, true
}
