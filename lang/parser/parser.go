// Package parser implements a packrat PEG parser (§4.1) that turns a
// Felys token stream into a lang/ast.Root. Its three primitives —
// attempt, peg, and lookahead — live in engine.go; see that file's doc
// comment for which rules use which, and why most of this grammar is
// plain single-token-dispatch recursive descent rather than backtracking
// choice. Binary operator and postfix chains are the only left-recursive
// rules in this grammar, and since that recursion is always the
// immediate, iterable kind it is implemented directly as a loop
// ("precedence climbing") rather than with general seed-and-grow
// left-recursion machinery.
package parser

import (
	"fmt"

	"github.com/felys-lang/felys/lang/ast"
	"github.com/felys-lang/felys/lang/scanner"
	"github.com/felys-lang/felys/lang/token"
)

type tokInfo struct {
	tok token.Token
	lit string
	sp  token.Span
}

type memoKey struct {
	pos  int
	rule string
}

type memoEntry struct {
	end int
	val interface{}
	ok  bool
}

// Parser holds the full pre-scanned token stream and the packrat memo
// table for one parse.
type Parser struct {
	toks []tokInfo
	pos  int

	memo map[memoKey]memoEntry

	errPos int
	errSp  token.Span
	errMsg string

	// predDepth is nonzero while a lookahead predicate (engine.go) is
	// running; fail does not latch a furthest-forward error while it is
	// nonzero, since a predicate's failure is expected, not reported.
	predDepth int

	pathSeq ast.PathID
}

// New scans src in full and returns a Parser positioned at its first
// token. Lex errors are not fatal here: they surface as parse failures the
// first time the parser expects a token the scanner could not produce.
func New(src []byte) *Parser {
	sc := scanner.New(src)
	p := &Parser{memo: map[memoKey]memoEntry{}}
	for {
		tok, lit, sp := sc.Scan()
		if tok == token.SELF {
			// self is bound and referenced like any other identifier.
			tok, lit = token.IDENT, "self"
		}
		p.toks = append(p.toks, tokInfo{tok, lit, sp})
		if tok == token.EOF {
			break
		}
	}
	for _, e := range sc.Errors() {
		p.fail(e.Sp, e.Msg)
	}
	return p
}

// Parse scans and parses src in one call, returning the resulting Root or
// the single furthest-forward parse error.
func Parse(src []byte) (*ast.Root, error) {
	return New(src).ParseRoot()
}

// ParseRoot parses the whole token stream as a sequence of top-level items.
func (p *Parser) ParseRoot() (*ast.Root, error) {
	var items []ast.Item
	for !p.at(token.EOF) {
		it, ok := p.parseItem()
		if !ok {
			return nil, p.err()
		}
		items = append(items, it)
	}
	return &ast.Root{Items: items}, nil
}

func (p *Parser) err() error {
	if p.errMsg == "" {
		return fmt.Errorf("parse error at end of input")
	}
	line, col := p.errSp.Start.LineCol()
	return fmt.Errorf("%d:%d: %s", line, col, p.errMsg)
}

func (p *Parser) nextPathID() ast.PathID {
	p.pathSeq++
	return p.pathSeq
}

// --- terminal primitives ---

func (p *Parser) peek() tokInfo { return p.toks[p.pos] }

func (p *Parser) at(t token.Token) bool { return p.peek().tok == t }

func (p *Parser) advance() tokInfo {
	tk := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return tk
}

func (p *Parser) accept(t token.Token) (tokInfo, bool) {
	if p.at(t) {
		return p.advance(), true
	}
	return tokInfo{}, false
}

// expect consumes t or records a furthest-forward failure.
func (p *Parser) expect(t token.Token) (tokInfo, bool) {
	if tk, ok := p.accept(t); ok {
		return tk, true
	}
	p.fail(p.peek().sp, fmt.Sprintf("expected %s, got %s", t.GoString(), p.peek().tok.GoString()))
	return tokInfo{}, false
}

func (p *Parser) fail(sp token.Span, msg string) {
	if p.predDepth > 0 {
		return
	}
	if p.pos >= p.errPos {
		p.errPos = p.pos
		p.errSp = sp
		p.errMsg = msg
	}
}
