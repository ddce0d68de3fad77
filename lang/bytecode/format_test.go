package bytecode

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/felys-lang/felys/lang/ir"
)

func sample() *Elysia {
	return &Elysia{
		Main: Callable{Args: 1, Regs: 3, Code: []byte{byte(LOADARG), 0, byte(RETURN), 0}},
		Text: []Callable{
			{Args: 2, Regs: 4, Code: []byte{byte(ADD), 2, 0, 1}},
		},
		Data: []ir.Const{
			ir.IntConst(42),
			ir.StrConst("hi"),
			ir.BoolConst(true),
		},
		Groups: []Group{
			{Indices: []IDPair{{ID: 1, Idx: 0}, {ID: 2, Idx: 1}}, Methods: []IDPair{{ID: 3, Idx: 0}}},
		},
	}
}

func TestRoundTrip(t *testing.T) {
	e := sample()
	got, err := Load(Dump(e))
	require.NoError(t, err)
	require.Equal(t, e, got)
}

func TestRoundTripChecked(t *testing.T) {
	e := sample()
	got, err := LoadChecked(DumpChecked(e))
	require.NoError(t, err)
	require.Equal(t, e, got)
}

func TestLoadCheckedDetectsCorruption(t *testing.T) {
	e := sample()
	buf := DumpChecked(e)
	buf[0] ^= 0xFF
	_, err := LoadChecked(buf)
	require.Error(t, err)
}

func TestOpcodeStringCoversTable(t *testing.T) {
	require.Equal(t, "ADD", ADD.String())
	require.Contains(t, NOT.String(), "NOT")
}
