package parser

import (
	"github.com/felys-lang/felys/lang/ast"
	"github.com/felys-lang/felys/lang/token"
)

// parseLitOnly parses one literal token (int, float, bool, string) into a
// LitExpr, with no fallback to other expression forms; used by patterns,
// which only accept literal values (§3's LitPat).
func (p *Parser) parseLitOnly() (*ast.LitExpr, bool) {
	tk := p.peek()
	switch tk.tok {
	case token.INT:
		p.advance()
		base, sym := splitIntBase(tk.lit)
		return &ast.LitExpr{Sp: tk.sp, Kind: ast.LitInt, Base: base, Sym: sym}, true
	case token.FLOAT:
		p.advance()
		return &ast.LitExpr{Sp: tk.sp, Kind: ast.LitFloat, Sym: tk.lit}, true
	case token.TRUE:
		p.advance()
		return &ast.LitExpr{Sp: tk.sp, Kind: ast.LitBool, Bool: true}, true
	case token.FALSE:
		p.advance()
		return &ast.LitExpr{Sp: tk.sp, Kind: ast.LitBool, Bool: false}, true
	case token.STRING:
		p.advance()
		return &ast.LitExpr{Sp: tk.sp, Kind: ast.LitStr, Chunks: splitChunks(tk.lit)}, true
	default:
		return nil, false
	}
}

// splitIntBase recovers the base lang/scanner encoded as a one-byte prefix
// ('x', 'o', or 'b') on a prefixed INT literal's text, returning the
// strconv.ParseInt-ready base and digit string.
func splitIntBase(lit string) (int, string) {
	if lit == "" {
		return 10, lit
	}
	switch lit[0] {
	case 'x':
		return 16, lit[1:]
	case 'o':
		return 8, lit[1:]
	case 'b':
		return 2, lit[1:]
	default:
		return 10, lit
	}
}

// splitChunks turns a string token's raw, still-escaped text into the
// lang/ast Chunk sequence (§3): a maximal run of literal bytes, a
// single-character backslash escape, or a "\u{...}" Unicode escape.
func splitChunks(raw string) []ast.Chunk {
	var out []ast.Chunk
	var slice []byte
	flush := func() {
		if len(slice) > 0 {
			out = append(out, ast.Chunk{Kind: ast.ChunkSlice, Text: string(slice)})
			slice = slice[:0]
		}
	}
	rs := []rune(raw)
	for i := 0; i < len(rs); i++ {
		if rs[i] != '\\' || i == len(rs)-1 {
			slice = append(slice, string(rs[i])...)
			continue
		}
		flush()
		i++
		if rs[i] == 'u' && i+1 < len(rs) && rs[i+1] == '{' {
			i += 2
			start := i
			for i < len(rs) && rs[i] != '}' {
				i++
			}
			out = append(out, ast.Chunk{Kind: ast.ChunkUnicode, Text: string(rs[start:i])})
			continue
		}
		out = append(out, ast.Chunk{Kind: ast.ChunkEscape, Text: string(rs[i])})
	}
	flush()
	return out
}
