package codegen

import "github.com/mna/pcrejit/jit/helpers"

// posixBitmap builds a 32-byte bitmap classifying every byte 0-255 by
// pred, the same shape OP_CLASS/OP_NCLASS carry inline but that
// DIGIT/NOTDIGIT/WORDCHAR/NOTWORDCHAR/SPACE/NOTSPACE only imply (they are
// PCRE's "use the compiled-in ctype table" shorthand opcodes). Building it
// once per distinct predicate at session-compile time keeps the matching
// path identical for both spellings: a literal CLASS opcode and its
// named-shorthand equivalent both resolve to a MatchClass instruction.
func posixBitmap(pred func(byte) bool) [32]byte {
	var bm [32]byte
	for c := 0; c < 256; c++ {
		if pred(byte(c)) {
			bm[c>>3] |= 1 << uint(c&7)
		}
	}
	return bm
}

func isDigitByte(c byte) bool  { return c >= '0' && c <= '9' }
func isSpaceByte(c byte) bool  { return helpers.IsHSpace(rune(c)) || helpers.IsVSpace(rune(c)) }
func isWordByte(c byte) bool   { return helpers.IsWordChar(rune(c)) }

var (
	digitBitmap    = posixBitmap(isDigitByte)
	spaceBitmap    = posixBitmap(isSpaceByte)
	wordCharBitmap = posixBitmap(isWordByte)
)
