package bytecode

import "encoding/binary"

// Link fields (bracket/alt/ket links, assertion ends, recurse targets) are
// encoded as an absolute 4-byte big-endian byte offset into the enclosing
// program. This is this package's own wire format for the "opcode stream
// with embedded link offsets" described in spec.md §3 — the regex
// compiler that produces it is out of scope, so the concrete encoding is
// this package's contract to define, not PCRE's.
const linkSize = 4

// Size returns the number of bytes occupied by the instruction at pos,
// including its opcode byte, or ok=false if op is not a recognized opcode
// (the JIT declines and falls back to an interpreter in that case, per
// spec.md §4.1).
func Size(code []byte, pos int) (size int, ok bool) {
	if pos < 0 || pos >= len(code) {
		return 0, false
	}
	op := Opcode(code[pos])
	switch op {
	case End, Circ, CircM, Doll, DollM, Sod, Som, Eod, Eodn,
		WordBoundary, NotWordBoundary, Any, AllAny, Digit, NotDigit,
		WordChar, NotWordChar, Space, NotSpace,
		Commit, Accept, AssertAccept, Fail:
		return 1, true

	case Char, CharI, NotChar, NotCharI:
		if pos+1 >= len(code) {
			return 0, false
		}
		n := runeLen(code[pos+1])
		if n == 0 || pos+1+n > len(code) {
			return 0, false
		}
		return 1 + n, true

	case Class, NClass:
		if pos+1+32 > len(code) {
			return 0, false
		}
		return 1 + 32, true

	case XClass:
		if pos+1+2 > len(code) {
			return 0, false
		}
		n := int(binary.BigEndian.Uint16(code[pos+1:]))
		if pos+1+2+n > len(code) {
			return 0, false
		}
		return 1 + 2 + n, true

	case Star, MinStar, Plus, MinPlus, Query, MinQuery,
		Upto, MinUpto, Exact, PosStar, PosPlus, PosQuery, PosUpto,
		CrRange, CrMinRange:
		// iterator header: min(4) max(4) followed by an inline atom
		if pos+1+8 > len(code) {
			return 0, false
		}
		atomSize, ok := Size(code, pos+1+8)
		if !ok {
			return 0, false
		}
		return 1 + 8 + atomSize, true

	case Bra, SBra, Once, OnceNC:
		if pos+1+linkSize > len(code) {
			return 0, false
		}
		return 1 + linkSize, true

	case CBra, SCBra, BraPos, SBraPos, CBraPos, SCBraPos:
		if pos+1+linkSize+2 > len(code) {
			return 0, false
		}
		return 1 + linkSize + 2, true

	case Cond, SCond:
		if pos+1+linkSize > len(code) {
			return 0, false
		}
		return 1 + linkSize, true

	case BraZero, BraMinZero:
		return 1, true

	case Alt:
		if pos+1+linkSize > len(code) {
			return 0, false
		}
		return 1 + linkSize, true

	case Ket, KetRMax, KetRMin, KetRPos:
		if pos+1+linkSize > len(code) {
			return 0, false
		}
		return 1 + linkSize, true

	case CRef:
		if pos+1+2 > len(code) {
			return 0, false
		}
		return 1 + 2, true

	case NCRef:
		if pos+1+4 > len(code) {
			return 0, false
		}
		return 1 + 4, true

	case RRef, NRRef:
		if pos+1+4 > len(code) {
			return 0, false
		}
		return 1 + 4, true

	case Assert, AssertNot, AssertBack, AssertBackNot:
		if pos+1+linkSize > len(code) {
			return 0, false
		}
		return 1 + linkSize, true

	case Reverse:
		if pos+1+4 > len(code) {
			return 0, false
		}
		return 1 + 4, true

	case Ref, RefI:
		if pos+1+2 > len(code) {
			return 0, false
		}
		return 1 + 2, true

	case Recurse:
		if pos+1+4 > len(code) {
			return 0, false
		}
		return 1 + 4, true

	case Mark:
		if pos+1 >= len(code) {
			return 0, false
		}
		n := int(code[pos+1])
		if pos+2+n > len(code) {
			return 0, false
		}
		return 2 + n, true
	}
	return 0, false
}

// NextOpcode is the canonical single-instruction decoder (spec.md §4.1): it
// returns the position just past the instruction at pos, or ok=false if pos
// does not hold a recognized opcode.
func NextOpcode(code []byte, pos int) (next int, ok bool) {
	sz, ok := Size(code, pos)
	if !ok {
		return 0, false
	}
	return pos + sz, true
}

// BracketEnd walks alternative separators belonging to the same group
// starting at openPos (which must hold a bracket-opening opcode, optionally
// preceded by having already consumed a BraZero/BraMinZero wrapper) and
// returns the position just past the matching closing ket.
func BracketEnd(code []byte, openPos int) int {
	sz, ok := Size(code, openPos)
	if !ok {
		return -1
	}
	pos := openPos + sz
	for {
		op := Opcode(code[pos])
		if op == Alt {
			pos = int(readLink(code, pos))
			continue
		}
		if IsKet(op) {
			next, ok := NextOpcode(code, pos)
			if !ok {
				return -1
			}
			return next
		}
		if IsBracketOpen(op) || op == Assert || op == AssertNot || op == AssertBack || op == AssertBackNot {
			// A nested group: skip it whole, so its own Alt and Ket are not
			// taken for this group's.
			end := BracketEnd(code, pos)
			if end < 0 {
				return -1
			}
			pos = end
			continue
		}
		// Any other opcode of the current alternative: step past it.
		n, ok := NextOpcode(code, pos)
		if !ok {
			return -1
		}
		pos = n
	}
}

// readLink reads the absolute-offset link field following the opcode byte
// at pos.
func readLink(code []byte, pos int) uint32 {
	return binary.BigEndian.Uint32(code[pos+1:])
}

// ReadLink exposes readLink for other jit/* packages that must follow
// bracket/alt/ket/assert/recurse links.
func ReadLink(code []byte, pos int) uint32 { return readLink(code, pos) }

func runeLen(lead byte) int {
	switch {
	case lead&0x80 == 0:
		return 1
	case lead&0xE0 == 0xC0:
		return 2
	case lead&0xF0 == 0xE0:
		return 3
	case lead&0xF8 == 0xF0:
		return 4
	}
	return 0
}
