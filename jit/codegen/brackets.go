package codegen

import (
	"github.com/mna/pcrejit/jit/asm"
	"github.com/mna/pcrejit/jit/bytecode"
)

// compileBracket handles spec.md §4.3's compile_bracket_matchingpath: it
// reads the optional BRAZERO/BRAMINZERO wrapper and the opening op
// (BRA/CBRA/SBRA/SCBRA/COND/SCOND/ONCE/ONCE_NC/BRAPOS/...), compiles the
// body's alternatives, and dispatches on the matching ket
// (KET/KETRMAX/KETRMIN/KETRPOS) to decide whether the construct repeats.
//
// COND/SCOND need no special case here: their body already has the shape
// "condition-test-opcode concat... [Alt noBranch] Ket" (compileCondRef,
// in cond.go, emits the test as an ordinary node that feeds its failure
// into the same fail list compileConcat threads through every other
// node), so a false condition takes exactly the same path a failed first
// alternative would: on to the next Alt, or to the caller's fail list if
// there is none. This is the literal behavior spec.md §4.3 describes as
// "treat condition-failed as the alternative-selection jump".
func (s *Session) compileBracket(pos int, fail *asm.JumpList) int {
	zeroOptional := false
	if op := s.opcodeAt(pos); op == bytecode.BraZero || op == bytecode.BraMinZero {
		zeroOptional = true
		pos++
	}

	op := s.opcodeAt(pos)
	size, ok := bytecode.Size(s.code, pos)
	if !ok {
		s.fail(errUnsupported(op, pos))
		return pos
	}

	capturing := bytecode.IsCapturing(op)
	possessive := bytecode.IsPossessiveBracket(op)
	var captureNum int
	if capturing {
		captureNum = int(be16(s.code[pos+1+4:]))
	}
	optimizedCap := capturing && captureNum < len(s.layout.Optimized) && s.layout.Optimized[captureNum]
	// A zero-matched optional repetition can abandon the body after
	// CapStart already ran but before CapEnd does (see the bodyFail landing
	// point below), so this construct's capture can't rely on the
	// optimized in-place write with no save: force the paired save so the
	// abort path has something to restore from. Without this, a failed
	// iteration of e.g. "(a)*" leaves the capture half-set: a fresh start
	// offset paired with the previous iteration's (or the initial -1) end
	// offset.
	if zeroOptional {
		optimizedCap = false
	}
	bodyPos := pos + size

	// Skipped for a BraZero/BraMinZero bracket: a failed body there means
	// zero repetitions (see the bodyFail landing below), not a caller failure.
	if chars, ok := s.detectEarlyFail(bodyPos); ok && !zeroOptional {
		s.b.CallNative(earlyFailNative(chars))
		s.b.JmpIfNotOK(fail)
	}

	bodyStart := s.b.Pos()
	// Recurse targets name a bracket-open offset directly (never through its
	// BraZero wrapper, which isn't part of the recursed unit), so register
	// under pos, the already-unwrapped position, not origPos.
	s.constructStart[pos] = bodyStart
	if capturing {
		s.b.CapStart(captureNum, optimizedCap)
	}

	ketPos, bodyFail := s.compileAlternatives(bodyPos)
	ketOp := s.opcodeAt(ketPos)
	ketSize, ok := bytecode.Size(s.code, ketPos)
	if !ok {
		s.fail(errUnsupported(ketOp, ketPos))
		return ketPos
	}
	afterKet := ketPos + ketSize

	if capturing {
		s.b.CapEnd(captureNum, optimizedCap)
	}

	switch {
	case possessive || ketOp == bytecode.KetRPos:
		// Possessive: once matched, the construct is never reopened by a
		// later failure downstream (spec.md §4.4 "Possessive bracket: no
		// backtracking alternatives"), so its own failure propagates straight
		// to the caller instead of feeding a local retry loop.
		s.b.Merge(fail, bodyFail)

	case ketOp == bytecode.KetRMax || ketOp == bytecode.KetRMin:
		// Repeating bracket (greedy or lazy): attempt another iteration
		// immediately after a successful one. A literal port would drive this
		// choice from the backtracking path instead, popping the saved
		// STR_PTR to decide whether to advance further or retreat a step;
		// this package takes the forward-biased approximation of always
		// trying one more repetition before giving up (see DESIGN.md).
		s.b.JmpTo(bodyStart)
		if zeroOptional {
			s.b.PatchHere(bodyFail)
			if capturing {
				s.b.CapRestoreStart(captureNum)
			}
			s.b.SetOK(true)
		} else {
			s.b.Merge(fail, bodyFail)
		}

	default: // plain Ket: executes exactly once
		if zeroOptional {
			s.b.PatchHere(bodyFail)
			if capturing {
				s.b.CapRestoreStart(captureNum)
			}
			s.b.SetOK(true)
		} else {
			s.b.Merge(fail, bodyFail)
		}
	}

	return afterKet
}
