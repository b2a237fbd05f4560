package codegen

import (
	"github.com/mna/pcrejit/jit/asm"
	"github.com/mna/pcrejit/jit/bytecode"
)

// compileRecurse handles the Recurse opcode (spec.md §4.3 "Recursion"). Its
// link field names a bracket-open offset in the source opcode stream; the
// callee's body always starts at that same offset's matching-path
// entry point, already recorded by compileBracket in Session.constructStart
// if the group has been compiled by the time we get here (the overwhelming
// majority of patterns define a group before anything recurses into it).
// When the target isn't known yet (forward recursion; a self recursion
// already finds its group, since compileBracket records the group's start
// before compiling its body), the call site is deferred to a RecurseEntry and resolved once Compile finishes
// walking the whole program.
func (s *Session) compileRecurse(pos int, fail *asm.JumpList) int {
	op := s.opcodeAt(pos)
	size, ok := bytecode.Size(s.code, pos)
	if !ok {
		s.fail(errUnsupported(op, pos))
		return pos
	}

	target := int(bytecode.ReadLink(s.code, pos))
	group := s.recurseGroupNum(target)
	// Recursion is this package's one genuinely unbounded source of work
	// (a loop always terminates against the subject length; a recursive
	// group can call itself indefinitely on a zero-width match), so this is
	// where match_limit (spec.md §7) is enforced.
	s.b.CallLimitCheck(s.callLimit)
	if asmPC, ok := s.constructStart[target]; ok {
		s.b.CallTo(asmPC, group)
	} else {
		entry := s.recurseEntry(uint32(target))
		s.b.Call(entry.Calls, group)
	}
	s.b.JmpIfNotOK(fail)

	return pos + size
}

// recurseGroupNum reads the capture number at a recursion target, for
// Thread.InRecursion's bookkeeping (spec.md's RRef/NRRef "currently inside
// recursion of group n" test uses the same capture numbering CRef does).
// Non-capturing targets and whole-pattern recursion (?R) report 0, PCRE's
// "any group" sentinel.
func (s *Session) recurseGroupNum(target int) int {
	if target <= 0 || target >= len(s.code) {
		return 0
	}
	op := s.opcodeAt(target)
	if !bytecode.IsCapturing(op) {
		return 0
	}
	return int(be16(s.code[target+1+4:]))
}
