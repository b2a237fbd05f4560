package codegen

import (
	"github.com/mna/pcrejit/jit/asm"
	"github.com/mna/pcrejit/jit/bytecode"
)

// compileBackref handles REF/REFI (spec.md §4.3 "Back-references"). The
// comparison against the captured text and the cursor advance it implies
// on success both need the live ovector and subject slice, neither of
// which this package's asm.Program operates over directly; both are
// delegated to a single CallNative closure the same way \b and the
// Unicode-property clauses are (jit/codegen/natives.go).
func (s *Session) compileBackref(pos int, fail *asm.JumpList) int {
	op := s.opcodeAt(pos)
	size, ok := bytecode.Size(s.code, pos)
	if !ok {
		s.fail(errUnsupported(op, pos))
		return pos
	}

	num := int(be16(s.code[pos+1:]))
	caseless := op == bytecode.RefI

	s.b.CallNative(backrefNative(num, caseless))
	s.b.JmpIfNotOK(fail)

	return pos + size
}
