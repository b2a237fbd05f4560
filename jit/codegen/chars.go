package codegen

import (
	"encoding/binary"

	"github.com/mna/pcrejit/jit/asm"
	"github.com/mna/pcrejit/jit/bytecode"
)

// compileSimple handles every opcode that is matched inline, on a single
// instruction, with no nested construct: anchors, literal characters,
// classes, and word-boundary tests (spec.md §4.3's "Anchors", "Simple
// characters", "Classes" subsections). Anchors are guaranteed not to fail
// the whole match irrecoverably on their own terms, but per invariant 4
// they still contribute their failure branch to fail like any other node
// — an anchor simply never succeeds in being "guaranteed not to fail" in
// the general case (only OP_SOM at the very first instruction is).
func (s *Session) compileSimple(pos int, fail *asm.JumpList) (next int) {
	op := s.opcodeAt(pos)
	size, ok := bytecode.Size(s.code, pos)
	if !ok {
		s.fail(errUnsupported(op, pos))
		return pos
	}

	switch op {
	case bytecode.Circ:
		s.b.AnchorBOL(false)
	case bytecode.CircM:
		s.b.AnchorBOL(true)
	case bytecode.Doll:
		s.b.AnchorEOL(false)
	case bytecode.DollM:
		s.b.AnchorEOL(true)
	case bytecode.Sod:
		s.b.AnchorSOD()
	case bytecode.Som:
		s.b.AnchorSOM()
	case bytecode.Eod:
		s.b.AnchorEOD()
	case bytecode.Eodn:
		s.b.AnchorEODN()

	case bytecode.WordBoundary:
		s.emitWordBoundary(false)
	case bytecode.NotWordBoundary:
		s.emitWordBoundary(true)

	case bytecode.Char:
		s.b.MatchChar(decodeRune(s.code[pos+1:pos+size]), false)
	case bytecode.CharI:
		s.b.MatchChar(decodeRune(s.code[pos+1:pos+size]), true)
	case bytecode.NotChar:
		s.b.MatchNotChar(decodeRune(s.code[pos+1:pos+size]), false)
	case bytecode.NotCharI:
		s.b.MatchNotChar(decodeRune(s.code[pos+1:pos+size]), true)

	case bytecode.Any:
		s.b.MatchAny(false)
	case bytecode.AllAny:
		s.b.MatchAny(true)

	case bytecode.Class:
		var bm [32]byte
		copy(bm[:], s.code[pos+1:pos+33])
		s.b.Class(bm, false)
	case bytecode.NClass:
		var bm [32]byte
		copy(bm[:], s.code[pos+1:pos+33])
		s.b.Class(bm, true)
	case bytecode.XClass:
		s.compileXClass(pos, size)

	case bytecode.Digit:
		s.b.Class(digitBitmap, false)
	case bytecode.NotDigit:
		s.b.Class(digitBitmap, true)
	case bytecode.WordChar:
		s.b.Class(wordCharBitmap, false)
	case bytecode.NotWordChar:
		s.b.Class(wordCharBitmap, true)
	case bytecode.Space:
		s.b.Class(spaceBitmap, false)
	case bytecode.NotSpace:
		s.b.Class(spaceBitmap, true)

	default:
		s.fail(errUnsupported(op, pos))
		return pos + size
	}

	s.b.JmpIfNotOK(fail)
	return pos + size
}

// compileXClass handles OP_XCLASS (extended class: optional bitmap prefix
// plus Unicode-property clauses). The private bitmap prefix is decoded and
// registered the same way a plain CLASS would be; the property-clause
// suffix is a lookup-table contract (spec.md §1's explicit out-of-scope
// list), so it is represented as a single CallNative dispatching into
// jit/helpers.GetUCD rather than being expanded into inline range checks.
func (s *Session) compileXClass(pos, size int) {
	payload := s.code[pos+3 : pos+size]
	if len(payload) >= 32 {
		var bm [32]byte
		copy(bm[:], payload[:32])
		s.b.Class(bm, false)
	}
	s.b.CallNative(xclassPropertyNative(payload))
}

func decodeRune(b []byte) rune {
	r, _ := decodeRuneImpl(b)
	return r
}

// decodeRuneImpl reimplements a minimal UTF-8 leader decode for the
// literal rune payload a CHAR-family opcode carries (already validated by
// bytecode.Size), avoiding a dependency on unicode/utf8 here since the
// payload's width is already known.
func decodeRuneImpl(b []byte) (rune, int) {
	if len(b) == 0 {
		return 0, 0
	}
	if b[0] < 0x80 {
		return rune(b[0]), 1
	}
	n := 0
	switch {
	case b[0]&0xE0 == 0xC0:
		n = 2
	case b[0]&0xF0 == 0xE0:
		n = 3
	case b[0]&0xF8 == 0xF0:
		n = 4
	}
	if n == 0 || len(b) < n {
		return 0xFFFD, 1
	}
	r := rune(b[0] & (0x7F >> uint(n)))
	for i := 1; i < n; i++ {
		r = r<<6 | rune(b[i]&0x3F)
	}
	return r, n
}

func (s *Session) emitWordBoundary(negate bool) {
	s.b.CallNative(wordBoundaryNative(negate))
}

func be16(b []byte) uint16 { return binary.BigEndian.Uint16(b) }
func be32(b []byte) uint32 { return binary.BigEndian.Uint32(b) }
