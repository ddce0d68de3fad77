package token

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTokenString(t *testing.T) {
	for tok := Token(0); tok < maxToken; tok++ {
		if tok.String() == "" {
			t.Errorf("missing string representation of token %d", tok)
		}
	}
}

func TestLookup(t *testing.T) {
	for tok := AND; tok < maxToken; tok++ {
		require.Equal(t, tok, Lookup(tok.String()))
		require.True(t, IsKeyword(tok.String()))
	}
	require.Equal(t, IDENT, Lookup("notakeyword"))
	require.False(t, IsKeyword("notakeyword"))
}

func TestAssignOp(t *testing.T) {
	cases := []struct {
		tok  Token
		want Token
	}{
		{PLUS_EQ, PLUS},
		{MINUS_EQ, MINUS},
		{STAR_EQ, STAR},
		{SLASH_EQ, SLASH},
		{PCT_EQ, PERCENT},
	}
	for _, c := range cases {
		got, ok := c.tok.AssignOp()
		require.True(t, ok)
		require.Equal(t, c.want, got)
	}
	_, ok := EQ.AssignOp()
	require.False(t, ok)
}

func TestGoString(t *testing.T) {
	require.Equal(t, "'+'", PLUS.GoString())
	require.Equal(t, "identifier", IDENT.GoString())
}
