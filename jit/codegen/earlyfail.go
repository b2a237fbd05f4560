package codegen

import "github.com/mna/pcrejit/jit/bytecode"

// detectEarlyFail mirrors the original JIT's detect_early_fail
// optimization: a bracket whose single alternative is nothing but a fixed
// run of literal characters can be rejected by comparing that whole run
// against the subject before ever entering the bracket's capture/frame
// machinery, instead of failing one character at a time deep inside it.
// Reports the literal run and true only when bodyPos leads straight to a
// Ket with no Alt in between (a single-alternative body) and at least two
// characters (a one-character run gains nothing over the ordinary path).
func (s *Session) detectEarlyFail(bodyPos int) ([]rune, bool) {
	var chars []rune
	pos := bodyPos
	for s.opcodeAt(pos) == bytecode.Char {
		size, ok := bytecode.Size(s.code, pos)
		if !ok {
			return nil, false
		}
		chars = append(chars, decodeRune(s.code[pos+1:pos+size]))
		pos += size
	}
	if !bytecode.IsKet(s.opcodeAt(pos)) {
		return nil, false
	}
	if len(chars) < 2 {
		return nil, false
	}
	return chars, true
}
