package layout

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slices"

	"github.com/mna/pcrejit/jit/bytecode"
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

func TestPlanOptimizedCaptureDefault(t *testing.T) {
	code := buildAbcD()
	l, err := Plan(code, nil, 0)
	require.NoError(t, err)
	require.Equal(t, 1, l.MaxCapture)
	require.True(t, l.Optimized[1], "capture 1 has no backreference or condition, should be optimized")
}

func TestPlanCaptureUnoptimizedByBackref(t *testing.T) {
	b2 := bytecode.NewBuilder()
	b2.Label("cbra_start")
	b2.OpenCapture(bytecode.CBra, "cbra_end2", 1)
	b2.Char(bytecode.Char, 'a')
	b2.Ket(bytecode.Ket, "cbra_start")
	b2.Label("cbra_end2")
	b2.Ref(bytecode.Ref, 1)
	b2.End()
	code := b2.Program()

	l, err := Plan(code, nil, 0)
	require.NoError(t, err)
	require.False(t, l.Optimized[1], "capture referenced by OP_REF must not be optimized")
}

func TestPlanDuplicateNamedGroupUnoptimized(t *testing.T) {
	b := bytecode.NewBuilder()
	b.Label("g1")
	b.OpenCapture(bytecode.CBra, "g1end", 1)
	b.Char(bytecode.Char, 'a')
	b.Ket(bytecode.Ket, "g1")
	b.Label("g1end")
	b.Label("g2")
	b.OpenCapture(bytecode.CBra, "g2end", 2)
	b.Char(bytecode.Char, 'b')
	b.Ket(bytecode.Ket, "g2")
	b.Label("g2end")
	b.End()
	code := b.Program()

	names := NamedGroups{"x": {1, 2}}
	l, err := Plan(code, names, 0)
	require.NoError(t, err)
	require.False(t, l.Optimized[1])
	require.False(t, l.Optimized[2])
}

func TestPrivateOffsetsAssignedOncePerOwner(t *testing.T) {
	code := buildAbcD()
	l, err := Plan(code, nil, 10)
	require.NoError(t, err)
	// the CBRA at position 2 (after CHAR 'a') owns one private-data slot
	require.Contains(t, l.PrivateOffset, 2)
	require.Equal(t, 10, l.PrivateOffset[2])
	require.Equal(t, 1, l.TotalSize)
}

// Three groups sharing one name (PCRE's "(?<x>a)(?<x>b)(?<x>c)" shape):
// every one of them must come out unoptimized, regardless of which two a
// \k<x> reference would actually resolve to at runtime.
func TestPlanDuplicateNamedGroupThreeWayUnoptimized(t *testing.T) {
	b := bytecode.NewBuilder()
	b.Label("g1")
	b.OpenCapture(bytecode.CBra, "g1end", 1)
	b.Char(bytecode.Char, 'a')
	b.Ket(bytecode.Ket, "g1")
	b.Label("g1end")
	b.Label("g2")
	b.OpenCapture(bytecode.CBra, "g2end", 2)
	b.Char(bytecode.Char, 'b')
	b.Ket(bytecode.Ket, "g2")
	b.Label("g2end")
	b.Label("g3")
	b.OpenCapture(bytecode.CBra, "g3end", 3)
	b.Char(bytecode.Char, 'c')
	b.Ket(bytecode.Ket, "g3")
	b.Label("g3end")
	b.End()
	code := b.Program()

	names := NamedGroups{"x": {1, 2, 3}}
	l, err := Plan(code, names, 0)
	require.NoError(t, err)

	var unoptimized []int
	for n, opt := range l.Optimized {
		if n > 0 && !opt {
			unoptimized = append(unoptimized, n)
		}
	}
	slices.Sort(unoptimized)
	require.True(t, slices.Equal([]int{1, 2, 3}, unoptimized))
}

func TestFrameSizePossessiveSingleCaptureNoFrame(t *testing.T) {
	b := bytecode.NewBuilder()
	b.Label("start")
	b.OpenCapture(bytecode.CBraPos, "end", 1)
	b.Char(bytecode.Char, 'a')
	b.Ket(bytecode.KetRPos, "start")
	b.Label("end")
	b.End()
	code := b.Program()

	l, err := Plan(code, nil, 0)
	require.NoError(t, err)
	fs, err := FrameSize(code, 0, l)
	require.NoError(t, err)
	require.Equal(t, NoFrame, fs)
}
