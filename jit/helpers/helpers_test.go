package helpers

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCharAtASCII(t *testing.T) {
	r, w := CharAt([]byte("abc"), 1)
	require.Equal(t, 'b', r)
	require.Equal(t, 1, w)
}

func TestCharAtMultiByte(t *testing.T) {
	r, w := CharAt([]byte("aéb"), 1) // 'é' is 2 bytes in UTF-8
	require.Equal(t, 'é', r)
	require.Equal(t, 2, w)
}

func TestCharAtPastEnd(t *testing.T) {
	r, w := CharAt([]byte("a"), 5)
	require.Equal(t, rune(0), r)
	require.Equal(t, 0, w)
}

func TestCharBeforeMultiByte(t *testing.T) {
	subj := []byte("aéb")
	r, w := CharBefore(subj, 3) // just after 'é', before 'b'
	require.Equal(t, 'é', r)
	require.Equal(t, 2, w)
}

func TestCRLFWidth(t *testing.T) {
	subj := []byte("\r\nx")
	r, w := CharAt(subj, 0)
	require.Equal(t, '\r', r)
	require.Equal(t, 2, CRLFWidth(subj, 0, r, w))

	subj2 := []byte("\rx")
	r2, w2 := CharAt(subj2, 0)
	require.Equal(t, 1, CRLFWidth(subj2, 0, r2, w2))
}

func TestWordBoundary(t *testing.T) {
	require.True(t, WordBoundary(0, false, 'a', true), "start of subject before a word char is a boundary")
	require.False(t, WordBoundary('a', true, 'b', true), "word-to-word is not a boundary")
	require.True(t, WordBoundary('a', true, ' ', true), "word-to-nonword is a boundary")
	require.True(t, WordBoundary('a', true, 0, false), "word char at end of subject is a boundary")
	require.False(t, WordBoundary(0, false, 0, false), "empty subject has no boundary")
}

func TestCaselessEqualASCII(t *testing.T) {
	require.True(t, CaselessEqual('A', 'a', false))
	require.False(t, CaselessEqual('A', 'b', false))
}

func TestCaselessEqualUCP(t *testing.T) {
	require.True(t, CaselessEqual('İ', 'İ', true))
	require.True(t, CaselessEqual('K', 'k', true))
}

func TestRevertFrames(t *testing.T) {
	ovector := []int{10, 20, 99, 99}
	cells := []FrameCell{
		{Kind: KindSOM, Start: 3},
		{Kind: KindCapture, Num: 1, Start: 5, End: 8},
	}
	var som int
	RevertFrames(cells, ovector, func(v int) { som = v })
	require.Equal(t, 5, ovector[2])
	require.Equal(t, 8, ovector[3])
	require.Equal(t, 3, som)
}

func TestGetUCD(t *testing.T) {
	rec := GetUCD('A')
	require.Equal(t, "L", rec.Category)
	require.True(t, rec.HasOther)
	require.Equal(t, 'a', rec.OtherCase)
}
