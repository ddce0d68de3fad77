package scanner_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/felys-lang/felys/lang/scanner"
	"github.com/felys-lang/felys/lang/token"
)

type scanned struct {
	tok token.Token
	lit string
}

func scanAll(t *testing.T, src string) []scanned {
	t.Helper()
	s := scanner.New([]byte(src))
	var out []scanned
	for {
		tok, lit, _ := s.Scan()
		out = append(out, scanned{tok, lit})
		if tok == token.EOF {
			return out
		}
	}
}

func TestScanPunctAndOperators(t *testing.T) {
	got := scanAll(t, "+ - += == != <= >= :: : ;")
	want := []token.Token{
		token.PLUS, token.MINUS, token.PLUS_EQ, token.EQL, token.NEQ,
		token.LE, token.GE, token.COLONCOLON, token.COLON, token.SEMI, token.EOF,
	}
	require.Len(t, got, len(want))
	for i, w := range want {
		require.Equal(t, w, got[i].tok, "token %d", i)
	}
}

func TestScanKeywordsAndIdents(t *testing.T) {
	got := scanAll(t, "fn main group foobar2 self")
	require.Equal(t, token.FN, got[0].tok)
	require.Equal(t, token.MAIN, got[1].tok)
	require.Equal(t, token.GROUP, got[2].tok)
	require.Equal(t, token.IDENT, got[3].tok)
	require.Equal(t, "foobar2", got[3].lit)
	require.Equal(t, token.SELF, got[4].tok)
}

func TestScanIntLiterals(t *testing.T) {
	got := scanAll(t, "123 0x2a 0o52 0b101010 1_000")
	require.Equal(t, token.INT, got[0].tok)
	require.Equal(t, "123", got[0].lit)
	require.Equal(t, token.INT, got[1].tok)
	require.Equal(t, "x2a", got[1].lit)
	require.Equal(t, token.INT, got[2].tok)
	require.Equal(t, "o52", got[2].lit)
	require.Equal(t, token.INT, got[3].tok)
	require.Equal(t, "b101010", got[3].lit)
	require.Equal(t, token.INT, got[4].tok)
	require.Equal(t, "1000", got[4].lit)
}

func TestScanFloatLiteral(t *testing.T) {
	got := scanAll(t, "3.14")
	require.Equal(t, token.FLOAT, got[0].tok)
	require.Equal(t, "3.14", got[0].lit)
}

func TestScanStringLiteral(t *testing.T) {
	got := scanAll(t, `"hi\nthere\u{1F600}"`)
	require.Equal(t, token.STRING, got[0].tok)
	require.Equal(t, `hi\nthere\u{1F600}`, got[0].lit)
}

func TestScanSkipsLineComments(t *testing.T) {
	got := scanAll(t, "1 // a comment\n2")
	require.Equal(t, token.INT, got[0].tok)
	require.Equal(t, "1", got[0].lit)
	require.Equal(t, token.INT, got[1].tok)
	require.Equal(t, "2", got[1].lit)
}

func TestScanIllegalCharacterIsReported(t *testing.T) {
	s := scanner.New([]byte("1 $ 2"))
	for {
		tok, _, _ := s.Scan()
		if tok == token.EOF {
			break
		}
	}
	require.NotEmpty(t, s.Errors())
}
