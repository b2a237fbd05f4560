package codegen

import (
	"github.com/mna/pcrejit/jit/asm"
	"github.com/mna/pcrejit/jit/bytecode"
)

// compileMarkOrControl handles OP_MARK, OP_COMMIT, OP_ACCEPT,
// OP_ASSERT_ACCEPT, and OP_FAIL (spec.md §4.3 "Marks/commits/accepts").
// It returns the position past the opcode.
func (s *Session) compileMarkOrControl(pos int, fail *asm.JumpList) (next int) {
	op := s.opcodeAt(pos)
	size, ok := bytecode.Size(s.code, pos)
	if !ok {
		s.fail(errUnsupported(op, pos))
		return pos
	}

	switch op {
	case bytecode.Mark:
		name := string(s.code[pos+2 : pos+size])
		s.b.Mark(name)

	case bytecode.Commit:
		// Unconditionally abandons the whole match attempt with NOMATCH,
		// bypassing every enclosing backtracks list.
		s.b.Jmp(s.quit)

	case bytecode.Accept:
		s.b.Jmp(s.accept)

	case bytecode.AssertAccept:
		// Enforces the non-empty / non-empty-at-start condition before
		// accepting; jit/vm's Halt(ResultMatch) path performs that check
		// against the match-start register, so this only needs to reach the
		// same accept label as a plain ACCEPT.
		s.b.Jmp(s.accept)

	case bytecode.Fail:
		s.b.SetOK(false)
		s.b.JmpIfNotOK(fail)

	default:
		s.fail(errUnsupported(op, pos))
	}

	return pos + size
}
