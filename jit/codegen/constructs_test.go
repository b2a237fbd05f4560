package codegen

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mna/pcrejit/jit/asm"
	"github.com/mna/pcrejit/jit/bytecode"
)

// /(a)(?(1)b|c)/ : a capture-set conditional
func buildCondOnCapture() []byte {
	b := bytecode.NewBuilder()
	b.OpenCapture(bytecode.CBra, "cbra_end", 1)
	b.Label("cbra_body")
	b.Char(bytecode.Char, 'a')
	b.Ket(bytecode.Ket, "cbra_body")
	b.Label("cbra_end")
	b.OpenCond(bytecode.Cond, "cond_end")
	b.Label("cond_start")
	b.CRef(1)
	b.Char(bytecode.Char, 'b')
	b.Alt("cond_no")
	b.Label("cond_no")
	b.Char(bytecode.Char, 'c')
	b.Ket(bytecode.Ket, "cond_start")
	b.Label("cond_end")
	b.End()
	return b.Program()
}

func TestCompileConditionalOnCapture(t *testing.T) {
	prog := compileTestProgram(t, buildCondOnCapture(), Options{})
	require.NotEmpty(t, prog.Instrs)
	require.Equal(t, 1, prog.Captures)
	require.NotEmpty(t, prog.Natives, "CRef lowers to a CallNative capture-set check")
}

// /(?(R1)a|b)/ : recursion-context conditional, not inside any capture
func buildCondOnRecursion() []byte {
	b := bytecode.NewBuilder()
	b.OpenCond(bytecode.Cond, "cond_end")
	b.Label("cond_start")
	b.RRef(1)
	b.Char(bytecode.Char, 'a')
	b.Alt("cond_no")
	b.Label("cond_no")
	b.Char(bytecode.Char, 'b')
	b.Ket(bytecode.Ket, "cond_start")
	b.Label("cond_end")
	b.End()
	return b.Program()
}

func TestCompileConditionalOnRecursion(t *testing.T) {
	prog := compileTestProgram(t, buildCondOnRecursion(), Options{})
	require.NotEmpty(t, prog.Instrs)
	require.NotEmpty(t, prog.Natives)
}

// /(a)b\1/ : caseful backreference to group 1
func buildBackrefAB1() []byte {
	b := bytecode.NewBuilder()
	b.OpenCapture(bytecode.CBra, "cbra_end", 1)
	b.Label("cbra_body")
	b.Char(bytecode.Char, 'a')
	b.Ket(bytecode.Ket, "cbra_body")
	b.Label("cbra_end")
	b.Char(bytecode.Char, 'b')
	b.Ref(bytecode.Ref, 1)
	b.End()
	return b.Program()
}

func TestCompileBackreference(t *testing.T) {
	prog := compileTestProgram(t, buildBackrefAB1(), Options{})
	require.NotEmpty(t, prog.Instrs)
	require.Equal(t, 1, prog.Captures)
	require.NotEmpty(t, prog.Natives, "REF lowers to a single MatchBackreference CallNative")
}

// /(a)b\1/i : caseless backreference, same shape but REFI
func buildBackrefCaselessAB1() []byte {
	b := bytecode.NewBuilder()
	b.OpenCapture(bytecode.CBra, "cbra_end", 1)
	b.Label("cbra_body")
	b.Char(bytecode.Char, 'a')
	b.Ket(bytecode.Ket, "cbra_body")
	b.Label("cbra_end")
	b.Char(bytecode.Char, 'b')
	b.Ref(bytecode.RefI, 1)
	b.End()
	return b.Program()
}

func TestCompileCaselessBackreference(t *testing.T) {
	prog := compileTestProgram(t, buildBackrefCaselessAB1(), Options{})
	require.NotEmpty(t, prog.Instrs)
	require.NotEmpty(t, prog.Natives)
}

// buildSelfRecursionCode builds /(a(?1)?)/ with the Recurse target label
// ("cbra_start") defined before the Recurse site, so constructStart already
// has an entry for it by the time compileRecurse runs and it takes the
// immediate CallTo path rather than the deferred RecurseEntry one.
func buildSelfRecursionCode() []byte {
	b := bytecode.NewBuilder()
	b.Label("cbra_start")
	b.OpenCapture(bytecode.CBra, "cbra_end", 1)
	b.Char(bytecode.Char, 'a')
	b.BraZero(bytecode.BraZero)
	b.OpenBracket(bytecode.Bra, "inner_end")
	b.Recurse("cbra_start")
	b.Label("inner_end")
	b.Ket(bytecode.Ket, "inner_end")
	b.Label("cbra_end")
	b.Ket(bytecode.Ket, "cbra_start")
	b.End()
	return b.Program()
}

func TestCompileSelfRecursion(t *testing.T) {
	prog := compileTestProgram(t, buildSelfRecursionCode(), Options{})
	require.NotEmpty(t, prog.Instrs)

	var calls int
	for _, in := range prog.Instrs {
		if in.Op == asm.Call {
			calls++
		}
	}
	require.Equal(t, 1, calls)
}

// /(?<=a)b/ : positive lookbehind, fixed one-character width
func buildLookbehindAB() []byte {
	b := bytecode.NewBuilder()
	b.OpenAssert(bytecode.AssertBack, "assert_end")
	b.Reverse(1)
	b.Label("assert_start")
	b.Char(bytecode.Char, 'a')
	b.Ket(bytecode.Ket, "assert_start")
	b.Label("assert_end")
	b.Char(bytecode.Char, 'b')
	b.End()
	return b.Program()
}

func TestCompileLookbehind(t *testing.T) {
	prog := compileTestProgram(t, buildLookbehindAB(), Options{})

	var pushPos, popPos, rewind int
	for _, in := range prog.Instrs {
		switch in.Op {
		case asm.PushPos:
			pushPos++
		case asm.PopPos:
			popPos++
		case asm.Rewind:
			rewind++
		}
	}
	// Same cursor save/restore pairs as the lookahead case: the assertion's
	// own pair plus one per alternative (root and assertion body).
	require.Equal(t, 3, pushPos)
	require.Equal(t, 3, popPos)
	require.Equal(t, 1, rewind)
}

// /(?<!a)b/ : negative lookbehind
func buildNegativeLookbehindAB() []byte {
	b := bytecode.NewBuilder()
	b.OpenAssert(bytecode.AssertBackNot, "assert_end")
	b.Reverse(1)
	b.Label("assert_start")
	b.Char(bytecode.Char, 'a')
	b.Ket(bytecode.Ket, "assert_start")
	b.Label("assert_end")
	b.Char(bytecode.Char, 'b')
	b.End()
	return b.Program()
}

func TestCompileNegativeLookbehind(t *testing.T) {
	prog := compileTestProgram(t, buildNegativeLookbehindAB(), Options{})
	require.NotEmpty(t, prog.Instrs)

	var setOK int
	for _, in := range prog.Instrs {
		if in.Op == asm.SetOK {
			setOK++
		}
	}
	require.GreaterOrEqual(t, setOK, 1, "negative assertion forces OK back to true on a failed body")
}

// /a++b/ : possessive quantifier, never reopened by backtracking
func buildPossessivePlusAB() []byte {
	b := bytecode.NewBuilder()
	b.Iter(bytecode.PosPlus, 1, 0xFFFFFFFF, func() { b.Char(bytecode.Char, 'a') })
	b.Char(bytecode.Char, 'b')
	b.End()
	return b.Program()
}

func TestCompilePossessiveIterator(t *testing.T) {
	prog := compileTestProgram(t, buildPossessivePlusAB(), Options{})
	require.NotEmpty(t, prog.Instrs)

	var stackChecks int
	for _, in := range prog.Instrs {
		if in.Op == asm.StackCheck {
			stackChecks++
		}
	}
	require.Equal(t, 1, stackChecks, "the unbounded possessive tail still runs through the per-iteration stack check")
}

// /(?:a)++b/ : a possessive bracket (CBraPos is the capturing possessive
// form; this exercises the non-capturing BraPos opener with a KetRPos close)
func buildPossessiveBracketAB() []byte {
	b := bytecode.NewBuilder()
	b.OpenCapture(bytecode.BraPos, "bra_end", 0) // possessive openers carry the 2-byte number field
	b.Label("bra_start")
	b.Char(bytecode.Char, 'a')
	b.Label("bra_end")
	b.Ket(bytecode.KetRPos, "bra_start")
	b.Char(bytecode.Char, 'b')
	b.End()
	return b.Program()
}

func TestCompilePossessiveBracket(t *testing.T) {
	prog := compileTestProgram(t, buildPossessiveBracketAB(), Options{})
	require.NotEmpty(t, prog.Instrs)
	require.Zero(t, prog.Captures, "BraPos is the non-capturing possessive opener")
}

// /\p{L}/ : an XCLASS with a single non-negated "L" general-category clause
// and an all-zero bitmap prefix (the bitmap only ever matches the ASCII
// subset; the Unicode-wide part always goes through the property clause).
func buildXClassLetter() []byte {
	b := bytecode.NewBuilder()
	var bitmap [32]byte
	b.XClass(bitmap, []byte{0, 'L'})
	b.End()
	return b.Program()
}

func TestCompileXClassProperty(t *testing.T) {
	prog := compileTestProgram(t, buildXClassLetter(), Options{})
	require.NotEmpty(t, prog.Instrs)
	require.Len(t, prog.Natives, 1, "the property-clause suffix always lowers to one CallNative")

	var matchClass int
	for _, in := range prog.Instrs {
		if in.Op == asm.MatchClass {
			matchClass++
		}
	}
	require.Equal(t, 1, matchClass, "the 32-byte bitmap prefix always emits its own MatchClass check alongside the native property call")
}

// /\P{N}/ : a negated XCLASS property clause combined with a non-empty
// bitmap prefix (digits 0-9), exercising both halves of compileXClass.
func buildXClassNegatedWithBitmap() []byte {
	b := bytecode.NewBuilder()
	b.XClass(digitBitmap, []byte{1, 'N'})
	b.End()
	return b.Program()
}

func TestCompileXClassNegatedWithBitmapPrefix(t *testing.T) {
	prog := compileTestProgram(t, buildXClassNegatedWithBitmap(), Options{})
	require.NotEmpty(t, prog.Instrs)
	require.Len(t, prog.Natives, 1)

	var matchClass int
	for _, in := range prog.Instrs {
		if in.Op == asm.MatchClass {
			matchClass++
		}
	}
	require.Equal(t, 1, matchClass, "a non-empty bitmap prefix still emits its own MatchClass check")
}
