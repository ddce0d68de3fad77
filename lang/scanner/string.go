package scanner

import (
	"strings"

	"github.com/felys-lang/felys/lang/token"
)

// stringLit scans a double-quoted string literal. It returns the raw
// content between the quotes, escapes untouched: lang/parser is the one
// that splits that text into lang/ast's Chunk slices (§3), since chunking
// is an AST concern and the scanner otherwise has no dependency on lang/ast.
// Each "\x" escape unit is recognized whole, via escapeDFA (§4.1), rather
// than by special-casing the backslash byte.
func (s *Scanner) stringLit(start token.Pos) (token.Token, string, token.Span) {
	s.advance() // opening '"'

	var sb strings.Builder
	for {
		if s.cur == -1 || s.cur == '\n' {
			sp := token.MakeSpan(start, s.pos())
			s.errorf(sp, "string literal not terminated")
			return token.STRING, sb.String(), sp
		}
		if s.cur == '"' {
			s.advance()
			break
		}
		if n := escapeDFA.match(s.src, s.off); n > 0 {
			consumed := 0
			for consumed < n {
				sb.WriteRune(s.cur)
				consumed += s.curWidth
				s.advance()
			}
			continue
		}
		sb.WriteRune(s.cur)
		s.advance()
	}

	return token.STRING, sb.String(), token.MakeSpan(start, s.pos())
}
