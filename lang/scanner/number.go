package scanner

import (
	"strings"
	"unicode/utf8"

	"github.com/felys-lang/felys/lang/token"
)

// digits consumes a maximal run of one base's digits (DFA-recognized via
// digitDFAFor, §4.1), ignoring underscores used as separators.
func (s *Scanner) digits(base int) string {
	dfa := digitDFAFor(base)
	n := dfa.match(s.src, s.off)
	var sb strings.Builder
	consumed := 0
	for consumed < n {
		if s.cur != '_' {
			sb.WriteRune(s.cur)
		}
		consumed += s.curWidth
		s.advance()
	}
	return sb.String()
}

// number scans an int or float literal starting at the digit already in
// s.cur. Integers may carry a 0x/0o/0b base prefix (§3); underscores are
// accepted anywhere between digits as a visual separator and stripped
// before the literal reaches lang/ast, so lang/build's strconv.ParseInt
// sees plain digits.
func (s *Scanner) number(start token.Pos) (token.Token, string, token.Span) {
	base := 10
	prefixed := false
	if s.cur == '0' {
		switch s.peekRune() {
		case 'x', 'X':
			base, prefixed = 16, true
		case 'o', 'O':
			base, prefixed = 8, true
		case 'b', 'B':
			base, prefixed = 2, true
		}
	}
	if prefixed {
		marker := 'x'
		if base == 8 {
			marker = 'o'
		} else if base == 2 {
			marker = 'b'
		}
		s.advance() // '0'
		s.advance() // 'x'/'o'/'b'
		digits := s.digits(base)
		sp := token.MakeSpan(start, s.pos())
		if digits == "" {
			s.errorf(sp, "malformed number literal")
		}
		// The base marker is kept as a one-byte prefix so lang/parser can
		// recover ast.LitExpr.Base without the scanner importing lang/ast.
		return token.INT, string(marker) + digits, sp
	}

	intPart := s.digits(10)
	isFloat := false
	var frac string
	if s.cur == '.' && isDigit(s.peekRune()) {
		isFloat = true
		s.advance() // '.'
		frac = s.digits(10)
	}

	sp := token.MakeSpan(start, s.pos())
	if !isFloat {
		return token.INT, intPart, sp
	}
	return token.FLOAT, intPart + "." + frac, sp
}

// peekRune looks at the rune right after s.cur without consuming anything.
func (s *Scanner) peekRune() rune {
	next := s.off + s.curWidth
	if next >= len(s.src) {
		return -1
	}
	r, _ := utf8.DecodeRune(s.src[next:])
	return r
}
