package vm

import (
	"github.com/mna/pcrejit/jit/asm"
	"github.com/mna/pcrejit/jit/helpers"
)

// Exec runs the assembled program to completion, returning one of
// asm.Result{NoMatch,Match,Partial,MatchLimit,StackLimit}. Grounded in
// control shape on the teacher's machine.run: a pc variable indexing into a
// flat instruction slice, decoded one opcode at a time in a big switch,
// with no recursive Go call per construct (jit/codegen already flattened
// every construct into this single instruction stream).
func (t *Thread) Exec() int {
	instrs := t.prog.Instrs
	pc := 0

	for {
		if pc < 0 || pc >= len(instrs) {
			return asm.ResultNoMatch
		}
		in := instrs[pc]
		pc++

		switch in.Op {
		case asm.Nop:
			// no-op

		case asm.MatchChar:
			r, w := t.decodeAt(t.pos)
			t.ok = w > 0 && t.equalRune(r, in.R, in.Flag)
			if t.ok {
				t.pos += w
			} else {
				t.notePartial()
			}

		case asm.MatchNotChar:
			r, w := t.decodeAt(t.pos)
			t.ok = w > 0 && !t.equalRune(r, in.R, in.Flag)
			if t.ok {
				t.pos += w
			} else {
				t.notePartial()
			}

		case asm.MatchClass:
			r, w := t.decodeAt(t.pos)
			t.ok = w > 0 && t.classMatches(in.N1, r, in.Flag)
			if t.ok {
				t.pos += w
			} else {
				t.notePartial()
			}

		case asm.MatchAny:
			r, w := t.decodeAt(t.pos)
			t.ok = w > 0 && (in.Flag || r != '\n')
			if t.ok {
				t.pos += w
			} else {
				t.notePartial()
			}

		case asm.AnchorBOL:
			t.ok = (t.pos == 0 && !t.notBOL) || (in.Flag && t.precedingIsNewline())
		case asm.AnchorEOL:
			t.ok = (t.pos == len(t.subject) && !t.notEOL) || (in.Flag && t.currentIsNewline())
		case asm.AnchorSOD:
			t.ok = t.pos == 0
		case asm.AnchorSOM:
			t.ok = t.pos == t.matchStart
		case asm.AnchorEOD:
			t.ok = t.pos == len(t.subject)
		case asm.AnchorEODN:
			t.ok = t.pos == len(t.subject) ||
				(t.pos == len(t.subject)-1 && t.subject[t.pos] == '\n')

		case asm.Jmp:
			pc = in.N1

		case asm.JmpIfNotOK:
			if !t.ok {
				pc = in.N1
			}

		case asm.JmpIfOK:
			if t.ok {
				pc = in.N1
			}

		case asm.Call:
			t.calls = append(t.calls, pc)
			t.recursion = append(t.recursion, uint32(in.N2))
			pc = in.N1

		case asm.Ret:
			n := len(t.calls) - 1
			pc = t.calls[n]
			t.calls = t.calls[:n]
			t.recursion = t.recursion[:len(t.recursion)-1]

		case asm.CallNative:
			t.ok = t.prog.Natives[in.N1](t)

		case asm.PushPos:
			t.backtrack = append(t.backtrack, t.pos)
			t.trackDepth()
		case asm.PopPos:
			n := len(t.backtrack) - 1
			t.pos = t.backtrack[n]
			t.backtrack = t.backtrack[:n]
		case asm.PushInt:
			t.backtrack = append(t.backtrack, in.N1)
			t.trackDepth()
		case asm.Pop:
			t.backtrack = t.backtrack[:len(t.backtrack)-1]
		case asm.Decr:
			n := len(t.backtrack) - 1
			t.backtrack[n]--
			t.ok = t.backtrack[n] > 0

		case asm.CapStart:
			t.setCapture(2*in.N1, t.pos, in.Flag)
		case asm.CapEnd:
			t.setCapture(2*in.N1+1, t.pos, in.Flag)
		case asm.CapRestore:
			n := len(t.backtrack) - 1
			t.ovector[2*in.N1+1] = t.backtrack[n]
			t.ovector[2*in.N1] = t.backtrack[n-1]
			t.backtrack = t.backtrack[:n-1]
		case asm.CapRestoreStart:
			n := len(t.backtrack) - 1
			t.ovector[2*in.N1] = t.backtrack[n]
			t.backtrack = t.backtrack[:n]

		case asm.Advance:
			t.pos = t.stepForward(t.pos, in.N1)
		case asm.Rewind:
			t.pos = t.stepBackward(t.pos, in.N1)

		case asm.CallLimitCheck:
			t.callCount++
			if t.callCount > t.callLimit {
				pc = in.N1
			}

		case asm.StackCheck:
			// The backtracking stack is a growable Go slice; this package has no
			// fixed-size arena to exhaust, so the check never fails here. Kept as
			// a real case (not folded into default) so a future fixed-capacity
			// Thread can wire an actual limit through without touching callers.

		case asm.Mark:
			t.mark = in.Str

		case asm.Commit:
			return asm.ResultNoMatch

		case asm.SetOK:
			t.ok = in.Flag

		case asm.Halt:
			if in.N1 == asm.ResultMatch {
				if t.rejectEmpty() {
					return asm.ResultNoMatch
				}
				t.ovector[0] = t.matchStart
				t.ovector[1] = t.pos
			}
			return in.N1
		}
	}
}

func (t *Thread) setCapture(slot, pos int, optimized bool) {
	if !optimized {
		t.backtrack = append(t.backtrack, t.ovector[slot])
		t.trackDepth()
	}
	t.ovector[slot] = pos
}

func (t *Thread) trackDepth() {
	if len(t.backtrack) > t.maxBacktrack {
		t.maxBacktrack = len(t.backtrack)
	}
}

func (t *Thread) decodeAt(pos int) (rune, int) {
	if !t.utf {
		if pos >= len(t.subject) {
			return 0, 0
		}
		return rune(t.subject[pos]), 1
	}
	return helpers.CharAt(t.subject, pos)
}

func (t *Thread) decodeBefore(pos int) (rune, int) {
	if !t.utf {
		if pos <= 0 {
			return 0, 0
		}
		return rune(t.subject[pos-1]), 1
	}
	return helpers.CharBefore(t.subject, pos)
}

func (t *Thread) stepForward(pos, n int) int {
	for i := 0; i < n; i++ {
		_, w := t.decodeAt(pos)
		if w == 0 {
			break
		}
		pos += w
	}
	return pos
}

func (t *Thread) stepBackward(pos, n int) int {
	for i := 0; i < n; i++ {
		_, w := t.decodeBefore(pos)
		if w == 0 {
			break
		}
		pos -= w
	}
	return pos
}

func (t *Thread) precedingIsNewline() bool {
	r, w := t.decodeBefore(t.pos)
	return w > 0 && r == '\n'
}

func (t *Thread) currentIsNewline() bool {
	r, w := t.decodeAt(t.pos)
	return w > 0 && r == '\n'
}

func (t *Thread) equalRune(subject, literal rune, caseless bool) bool {
	if !caseless {
		return subject == literal
	}
	return caselessEqual(subject, literal, t.ucp)
}

func (t *Thread) classMatches(classIdx int, r rune, negate bool) bool {
	if r >= 256 {
		// The bitmap only ever covers the Latin-1 range; XCLASS carries the
		// Unicode-property clauses for anything wider, same as
		// compile_xclass_matchingpath's bitmap+property split.
		return negate
	}
	bm := t.prog.Classes[classIdx]
	bit := bm[r/8]&(1<<uint(r%8)) != 0
	if negate {
		return !bit
	}
	return bit
}

func caselessEqual(a, b rune, ucp bool) bool { return helpers.CaselessEqual(a, b, ucp) }
