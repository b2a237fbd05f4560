package codegen

import (
	"github.com/mna/pcrejit/jit/asm"
	"github.com/mna/pcrejit/jit/bytecode"
)

// compileAssert handles the four lookaround opcodes (spec.md §4.3
// "Assertions"): a lookaround body never consumes from the subject as far
// as the enclosing construct is concerned, so the cursor is always saved
// before the body and restored after, whichever way the body came out.
//
// A backward assertion's body opens with a Reverse opcode carrying the
// fixed back-step count (PCRE requires lookbehind bodies to be
// fixed-width); that step is taken before compiling the body's
// alternatives.
//
// Positive and negative assertions share the same body compilation and
// differ only in how the body's outcome (carried in the OK flag set by
// compileAlternatives's own internal JmpIfNotOK sites converging at
// bodyFail) is turned into the assertion's own outcome:
//   - positive: body failed (OK false) -> assertion fails
//   - negative: body succeeded (OK true) -> assertion fails, then force OK
//     back to true for the case the body failed (assertion succeeds)
func (s *Session) compileAssert(pos int, fail *asm.JumpList) int {
	op := s.opcodeAt(pos)
	size, ok := bytecode.Size(s.code, pos)
	if !ok {
		s.fail(errUnsupported(op, pos))
		return pos
	}

	negative := op == bytecode.AssertNot || op == bytecode.AssertBackNot
	backward := op == bytecode.AssertBack || op == bytecode.AssertBackNot
	bodyPos := pos + size

	s.b.PushPos()

	if backward {
		backSteps := be32(s.code[bodyPos+1:])
		s.b.Rewind(int(backSteps))
		revSize, ok := bytecode.Size(s.code, bodyPos)
		if !ok {
			s.fail(errUnsupported(s.opcodeAt(bodyPos), bodyPos))
			return bodyPos
		}
		bodyPos += revSize
	}

	ketPos, bodyFail := s.compileAlternatives(bodyPos)
	ketSize, ok := bytecode.Size(s.code, ketPos)
	if !ok {
		s.fail(errUnsupported(s.opcodeAt(ketPos), ketPos))
		return ketPos
	}
	afterKet := ketPos + ketSize

	// Converge here: fallthrough means the body matched (OK true), the
	// patched bodyFail jump means it didn't (OK false).
	s.b.PatchHere(bodyFail)

	s.b.PopPos() // lookaround never consumes, on either outcome

	if negative {
		s.b.JmpIfOK(fail) // body matched: the negative assertion fails
		s.b.SetOK(true)   // body failed: the negative assertion succeeds
	} else {
		s.b.JmpIfNotOK(fail)
	}

	return afterKet
}
