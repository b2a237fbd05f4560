package codegen

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mna/pcrejit/jit/asm"
	"github.com/mna/pcrejit/jit/bytecode"
	"github.com/mna/pcrejit/jit/layout"
)

// /a(b|c)d/
func buildAbcD() []byte {
	b := bytecode.NewBuilder()
	b.Char(bytecode.Char, 'a')
	b.OpenCapture(bytecode.CBra, "cbra_end", 1)
	b.Label("alt1")
	b.Char(bytecode.Char, 'b')
	b.Alt("alt2")
	b.Label("alt2")
	b.Char(bytecode.Char, 'c')
	b.Ket(bytecode.Ket, "alt1")
	b.Label("cbra_end")
	b.Char(bytecode.Char, 'd')
	b.End()
	return b.Program()
}

func compileTestProgram(t *testing.T, code []byte, opts Options) *asm.Program {
	t.Helper()
	l, err := layout.Plan(code, nil, 0)
	require.NoError(t, err)
	s := NewSession(code, l, opts)
	prog, err := s.Compile()
	require.NoError(t, err)
	require.NotNil(t, prog)
	return prog
}

func TestCompileAbcD(t *testing.T) {
	prog := compileTestProgram(t, buildAbcD(), Options{})
	require.NotEmpty(t, prog.Instrs)
	require.Equal(t, 1, prog.Captures)

	var matchChars, jmps int
	for _, in := range prog.Instrs {
		switch in.Op {
		case asm.MatchChar:
			matchChars++
		case asm.Jmp:
			jmps++
			require.GreaterOrEqual(t, in.N1, 0, "every jump must have been patched by the time Compile returns")
		}
	}
	require.Equal(t, 4, matchChars, "a, b, c, d: compileNode visits every Char node in both alternatives, not just the one that would match at runtime")
}

// /a*b/
func buildAStarB() []byte {
	b := bytecode.NewBuilder()
	b.Iter(bytecode.Star, 0, 0xFFFFFFFF, func() { b.Char(bytecode.Char, 'a') })
	b.Char(bytecode.Char, 'b')
	b.End()
	return b.Program()
}

func TestCompileStarIterator(t *testing.T) {
	prog := compileTestProgram(t, buildAStarB(), Options{})
	require.NotEmpty(t, prog.Instrs)
}

// /(?=a)b/ : positive lookahead
func buildLookaheadAB() []byte {
	b := bytecode.NewBuilder()
	b.OpenAssert(bytecode.Assert, "assert_end")
	b.Label("assert_start")
	b.Char(bytecode.Char, 'a')
	b.Ket(bytecode.Ket, "assert_start")
	b.Label("assert_end")
	b.Char(bytecode.Char, 'b')
	b.End()
	return b.Program()
}

func TestCompileLookahead(t *testing.T) {
	prog := compileTestProgram(t, buildLookaheadAB(), Options{})

	var pushPos, popPos int
	for _, in := range prog.Instrs {
		switch in.Op {
		case asm.PushPos:
			pushPos++
		case asm.PopPos:
			popPos++
		}
	}
	// One pair for the assertion itself, plus one pair each for the root
	// alternative and the assertion body's only alternative, since
	// compileAlternatives saves and restores the cursor per alternative.
	require.Equal(t, 3, pushPos)
	require.Equal(t, 3, popPos)
}

func TestCompileUnsupportedOpcodeSurfacesError(t *testing.T) {
	code := []byte{byte(bytecode.Opcode(250))}
	l, err := layout.Plan(code, nil, 0)
	if err != nil {
		// Planning itself may reject an unrecognized opcode before codegen
		// ever runs; either failure point demonstrates the same contract.
		return
	}
	s := NewSession(code, l, Options{})
	_, err = s.Compile()
	require.Error(t, err)
}
