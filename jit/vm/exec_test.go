package vm_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mna/pcrejit/jit/asm"
	"github.com/mna/pcrejit/jit/bytecode"
	"github.com/mna/pcrejit/jit/codegen"
	"github.com/mna/pcrejit/jit/layout"
	"github.com/mna/pcrejit/jit/vm"
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

func compile(t *testing.T, code []byte) *asm.Program {
	t.Helper()
	l, err := layout.Plan(code, nil, 0)
	require.NoError(t, err)
	s := codegen.NewSession(code, l, codegen.Options{})
	prog, err := s.Compile()
	require.NoError(t, err)
	return prog
}

func TestExecAbcDMatchesFirstAlternative(t *testing.T) {
	prog := compile(t, buildAbcD())
	th := vm.NewThread(prog, []byte("abd"), 0, false, false, nil, 0)
	result := th.Exec()
	require.Equal(t, asm.ResultMatch, result)

	ov := th.Ovector()
	require.Equal(t, 1, ov[2])
	require.Equal(t, 2, ov[3])
}

func TestExecAbcDMatchesSecondAlternative(t *testing.T) {
	prog := compile(t, buildAbcD())
	th := vm.NewThread(prog, []byte("acd"), 0, false, false, nil, 0)
	result := th.Exec()
	require.Equal(t, asm.ResultMatch, result)
}

func TestExecAbcDNoMatch(t *testing.T) {
	prog := compile(t, buildAbcD())
	th := vm.NewThread(prog, []byte("axd"), 0, false, false, nil, 0)
	result := th.Exec()
	require.Equal(t, asm.ResultNoMatch, result)
}

// /a*b/ greedy star
func buildAStarB() []byte {
	b := bytecode.NewBuilder()
	b.Iter(bytecode.Star, 0, 0xFFFFFFFF, func() { b.Char(bytecode.Char, 'a') })
	b.Char(bytecode.Char, 'b')
	b.End()
	return b.Program()
}

func TestExecStarIteratorConsumesAllRepetitions(t *testing.T) {
	prog := compile(t, buildAStarB())
	th := vm.NewThread(prog, []byte("aaab"), 0, false, false, nil, 0)
	result := th.Exec()
	require.Equal(t, asm.ResultMatch, result)
}
