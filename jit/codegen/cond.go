package codegen

import (
	"github.com/mna/pcrejit/jit/asm"
	"github.com/mna/pcrejit/jit/bytecode"
)

// compileCondRef handles the four condition-test opcodes that only ever
// appear as the first opcode of a COND/SCOND body (spec.md §4.3
// "Conditional sub-dispatch"). It is dispatched exactly like any other
// simple node: its failure feeds the same fail list every other
// construct in the enclosing alternative uses, which is what makes a
// false condition fall through to the next Alt (the "no" branch) or to
// the caller's fail list with no special-casing in compileBracket.
func (s *Session) compileCondRef(pos int, fail *asm.JumpList) (next int) {
	op := s.opcodeAt(pos)
	size, ok := bytecode.Size(s.code, pos)
	if !ok {
		s.fail(errUnsupported(op, pos))
		return pos
	}

	switch op {
	case bytecode.CRef:
		// CREF(capture-set?): compare OVECTOR(ref) to "begin-1", i.e. whether
		// the capture has ever been set. jit/vm exposes that test as a single
		// native check over its own ovector.
		num := int(be16(s.code[pos+1:]))
		s.b.CallNative(captureSetNative(num))

	case bytecode.NCRef:
		// NCREF(any-of-name-group-set?): indirect call to do_searchovector;
		// here, a native closure that scans every capture number sharing the
		// referenced name index.
		idx := int(be32(s.code[pos+1:]))
		s.b.CallNative(namedCaptureSetNative(idx))

	case bytecode.RRef:
		// RREF(recursion context): compile-time evaluable against the current
		// recursion depth tracked by jit/vm.
		group := be32(s.code[pos+1:])
		s.b.CallNative(recursionContextNative(group))

	case bytecode.NRRef:
		idx := be32(s.code[pos+1:])
		s.b.CallNative(namedRecursionContextNative(idx))

	default:
		s.fail(errUnsupported(op, pos))
		return pos + size
	}

	s.b.JmpIfNotOK(fail)
	return pos + size
}
