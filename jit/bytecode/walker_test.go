package bytecode

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// buildAbcD builds the program for /a(b|c)d/, matching the example used
// throughout the codegen and vm tests: CHAR a, CBRA 1 (CHAR b | CHAR c)
// KET, CHAR d, END.
func buildAbcD() []byte {
	b := NewBuilder()
	b.Char(Char, 'a')
	b.OpenCapture(CBra, "cbra_end", 1)
	b.Label("alt1")
	b.Char(Char, 'b')
	b.Alt("alt2")
	b.Label("alt2")
	b.Char(Char, 'c')
	b.Ket(Ket, "alt1")
	b.Label("cbra_end")
	b.Char(Char, 'd')
	b.End()
	return b.Program()
}

func TestWalkNextOpcode(t *testing.T) {
	code := buildAbcD()

	var positions []int
	pos := 0
	for pos < len(code) {
		positions = append(positions, pos)
		next, ok := NextOpcode(code, pos)
		require.True(t, ok, "pos %d: op %s", pos, Opcode(code[pos]))
		require.Greater(t, next, pos)
		pos = next
	}
	require.Equal(t, len(code), pos)

	var ops []Opcode
	for _, p := range positions {
		ops = append(ops, Opcode(code[p]))
	}
	require.Equal(t, []Opcode{Char, CBra, Char, Alt, Char, Ket, Char, End}, ops)
}

func TestNextOpcodeUnknown(t *testing.T) {
	_, ok := NextOpcode([]byte{0xFF}, 0)
	require.False(t, ok)
}

func TestBracketEnd(t *testing.T) {
	code := buildAbcD()
	// CBRA starts right after the leading CHAR 'a' (2 bytes: op + rune).
	cbraPos := 2
	require.Equal(t, byte(CBra), code[cbraPos])

	end := BracketEnd(code, cbraPos)
	require.NotEqual(t, -1, end)
	require.Equal(t, byte(Char), code[end]) // the CHAR 'd' right after the bracket
}
