package asm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuilderPatch(t *testing.T) {
	b := NewBuilder()
	jl := b.NewJumpList()
	b.MatchChar('a', false)
	site := b.JmpIfNotOK(jl)
	b.MatchChar('b', false)
	b.Halt(ResultMatch)
	target := b.Pos()
	b.PatchHere(jl)
	b.Halt(ResultNoMatch)

	prog := b.Program()
	require.Equal(t, target, prog.Instrs[site].N1)
	require.True(t, jl.Empty())
}

func TestBuilderMerge(t *testing.T) {
	b := NewBuilder()
	outer := b.NewJumpList()
	inner := b.NewJumpList()

	s1 := b.Jmp(inner)
	s2 := b.Jmp(outer)
	b.Merge(outer, inner)

	target := b.Pos()
	b.PatchHere(outer)

	prog := b.Program()
	require.Equal(t, target, prog.Instrs[s1].N1)
	require.Equal(t, target, prog.Instrs[s2].N1)
}

func TestBuilderClassInterning(t *testing.T) {
	b := NewBuilder()
	var bm [32]byte
	bm[0] = 0xFF

	i1 := b.Class(bm, false)
	i2 := b.Class(bm, true)

	prog := b.Program()
	require.Equal(t, prog.Instrs[i1].N1, prog.Instrs[i2].N1, "identical bitmaps intern to the same Classes slot")
	require.Len(t, prog.Classes, 1)
	require.False(t, prog.Instrs[0].Flag)
	require.True(t, prog.Instrs[1].Flag)
}

func TestBuilderCallNativeRegistersOncePerCall(t *testing.T) {
	b := NewBuilder()
	fn := func(interface{}) bool { return true }
	b.CallNative(fn)
	b.CallNative(fn)

	prog := b.Program()
	require.Len(t, prog.Natives, 2, "each CallNative call registers its own closure")
}

func TestJumpListAddAndPatchNilSafe(t *testing.T) {
	b := NewBuilder()
	var jl *JumpList
	require.True(t, jl.Empty())
	idx := b.Jmp(jl) // nil jump list: caller already knows it won't be patched later
	b.Patch(nil, 5)  // must not panic
	prog := b.Program()
	require.Equal(t, -1, prog.Instrs[idx].N1)
}
