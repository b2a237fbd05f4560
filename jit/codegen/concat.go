package codegen

import (
	"github.com/mna/pcrejit/jit/asm"
	"github.com/mna/pcrejit/jit/bytecode"
)

// compileAlternatives is the entry point for a bracket body or the root
// program: it compiles each alternative in turn, wiring one alternative's
// failure into the next alternative's start, and returns the jump list
// entered once every alternative has been tried and failed (spec.md
// §4.3's "records an alternative-matching-path label" for the bracket
// case, generalized to the top level too since the root program is
// itself an implicit single-alternative-or-more construct).
//
// Each alternative gets its own save/restore pair around the attempt,
// the same discipline compileAssert already applies around a whole
// assertion body (assert.go's PushPos/PopPos): an alternative that
// consumes one or more characters before failing partway through must
// hand the next alternative the same subject position it itself started
// from, not wherever its own failed attempt left the cursor. Without
// this, /a(bz|bc)d/ against "abcd" loses alt1 ("bz") on the 'z' vs 'c'
// mismatch with the cursor already one past 'b', and alt2 ("bc") then
// starts comparing its own leading 'b' against subject[2] == 'c' instead
// of subject[1] == 'b' — an incorrect no-match for a pattern with no
// repetition involved at all.
//
// A successful alternative also needs to skip every alternative after
// it (matched) instead of falling through into its neighbor's freshly
// emitted code, which would otherwise run unconditionally right after —
// alternation, not concatenation, is what spec.md invariant 1 requires.
func (s *Session) compileAlternatives(pos int) (terminalPos int, fail *asm.JumpList) {
	outerFail := s.b.NewJumpList()
	matched := s.b.NewJumpList()
	for {
		s.b.PushPos()
		next, altFail := s.compileConcat(pos)
		op := s.opcodeAt(next)

		// Fallthrough means this alternative matched: the saved cursor is
		// no longer needed, and every later alternative must be skipped.
		s.b.Pop()
		s.b.Jmp(matched)

		// altFail's sites land here on failure: restore the cursor this
		// alternative pushed before trying the next one, or giving up.
		s.b.PatchHere(altFail)
		s.b.PopPos()

		if op == bytecode.Alt {
			pos = int(bytecode.ReadLink(s.code, next))
			continue
		}

		s.b.Jmp(outerFail)
		s.b.PatchHere(matched)
		return next, outerFail
	}
}

// compileConcat walks a single alternative's concatenated constructs
// until it reaches a terminal opcode (Alt, a Ket variant, or End), which
// it does not consume, returning that position and the accumulated
// failure jump list for everything compiled in this alternative.
func (s *Session) compileConcat(pos int) (next int, fail *asm.JumpList) {
	fail = s.b.NewJumpList()
	for {
		op := s.opcodeAt(pos)
		if op == bytecode.Alt || bytecode.IsKet(op) || op == bytecode.End {
			return pos, fail
		}
		pos = s.compileNode(pos, fail)
		if s.err != nil {
			return pos, fail
		}
	}
}

// compileNode dispatches pos to the sub-emitter for its opcode family and
// returns the position immediately following the construct it compiled.
// fail accumulates this node's ordinary failure sites; compound
// constructs (brackets, iterators, assertions) instead merge their own
// internally-built fail list into it once their own backtracking path is
// fully wired, per spec.md's Record.NextBacktracks propagation.
func (s *Session) compileNode(pos int, fail *asm.JumpList) (next int) {
	op := s.opcodeAt(pos)

	switch {
	case op == bytecode.BraZero || op == bytecode.BraMinZero:
		return s.compileBracket(pos, fail)

	case bytecode.IsBracketOpen(op):
		return s.compileBracket(pos, fail)

	case isIteratorOp(op):
		return s.compileIterator(pos, fail)

	case op == bytecode.Assert || op == bytecode.AssertNot ||
		op == bytecode.AssertBack || op == bytecode.AssertBackNot:
		return s.compileAssert(pos, fail)

	case op == bytecode.Ref || op == bytecode.RefI:
		return s.compileBackref(pos, fail)

	case op == bytecode.Recurse:
		return s.compileRecurse(pos, fail)

	case op == bytecode.Mark || op == bytecode.Commit || op == bytecode.Accept ||
		op == bytecode.AssertAccept || op == bytecode.Fail:
		return s.compileMarkOrControl(pos, fail)

	case op == bytecode.CRef || op == bytecode.NCRef || op == bytecode.RRef || op == bytecode.NRRef:
		return s.compileCondRef(pos, fail)

	default:
		return s.compileSimple(pos, fail)
	}
}

func isIteratorOp(op bytecode.Opcode) bool {
	switch op {
	case bytecode.Star, bytecode.MinStar, bytecode.Plus, bytecode.MinPlus,
		bytecode.Query, bytecode.MinQuery, bytecode.Upto, bytecode.MinUpto,
		bytecode.Exact, bytecode.PosStar, bytecode.PosPlus, bytecode.PosQuery,
		bytecode.PosUpto, bytecode.CrRange, bytecode.CrMinRange:
		return true
	}
	return false
}
