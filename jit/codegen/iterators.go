package codegen

import (
	"github.com/mna/pcrejit/jit/asm"
	"github.com/mna/pcrejit/jit/bytecode"
)

// compileIterator handles every OP_STAR..OP_CRMINRANGE family, each of
// which carries its (min, max) header and a single inline atom (spec.md
// §4.3 "Iterators", normalized through get_iterator_parameters into
// greedy/lazy/once-optional/possessive families).
//
// The min mandatory repetitions are always emitted unconditionally. For
// the optional tail (from min up to max, or unbounded), greedy and
// possessive families emit a counted retry loop that keeps consuming for
// as long as the atom matches; lazy families stop at min. A literal port
// drives the greedy/lazy choice from the backtracking path (popping a
// saved STR_PTR to decide whether to advance further or give one back);
// this package's forward-biased approximation instead has lazy iterators
// simply not attempt the optional tail; documented in DESIGN.md.
func (s *Session) compileIterator(pos int, fail *asm.JumpList) (next int) {
	op := s.opcodeAt(pos)
	size, ok := bytecode.Size(s.code, pos)
	if !ok {
		s.fail(errUnsupported(op, pos))
		return pos
	}

	min := be32(s.code[pos+1:])
	max := be32(s.code[pos+5:])
	atomPos := pos + 9
	lazy := bytecode.IsLazyIterator(op)

	for i := uint32(0); i < min; i++ {
		s.compileAtomOnce(atomPos, fail)
	}

	if !lazy {
		s.compileOptionalTail(atomPos, min, max)
	}

	return pos + size
}

// compileAtomOnce emits one attempt at the iterator's inline atom, whose
// failure feeds fail exactly like any other node (spec.md invariant 4).
func (s *Session) compileAtomOnce(atomPos int, fail *asm.JumpList) {
	s.compileSimple(atomPos, fail)
}

const unboundedMax = 0xFFFFFFFF

// compileOptionalTail emits the greedy/possessive retry loop for
// repetitions beyond min, bounded by max (or unbounded if max ==
// unboundedMax). Every successful extra repetition stays; the loop gives
// up the moment the atom fails once, which is where the construct's net
// match ends — the atom's own failure here never propagates outward.
func (s *Session) compileOptionalTail(atomPos int, min, max uint32) {
	if max != unboundedMax && max <= min {
		return
	}

	loopExit := s.b.NewJumpList()
	bounded := max != unboundedMax
	if bounded {
		s.b.PushInt(int(max - min))
	}

	loopStart := s.b.Pos()
	// Each extra repetition pushes at least one backtrack-stack entry
	// (PushPos for the atom itself, more for any nested capture); check
	// before growing it further, same as pcre_jit_compile's per-iteration
	// STACK_CHECK on an unbounded repeat.
	s.b.StackCheck(1, s.stackAlloc)
	s.compileAtomOnce(atomPos, loopExit)
	if bounded {
		s.b.Decr()
		s.b.JmpIfNotOK(loopExit)
	}
	s.b.JmpTo(loopStart)

	s.b.PatchHere(loopExit)
	// Reached only via a failed extra repetition (the loop's success path
	// jumps back to loopStart instead), but the construct as a whole always
	// succeeds here: min reps already matched, and stopping early past that
	// is never itself a failure.
	s.b.SetOK(true)
	if bounded {
		s.b.Pop()
	}
}
