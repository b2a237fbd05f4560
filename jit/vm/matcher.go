package vm

import "github.com/mna/pcrejit/jit/asm"

// Match runs prog against subject, scanning successive start offsets (the
// way pcre_jit_exec's outer loop re-invokes the generated matcher) until
// one succeeds, the subject is exhausted, or AnchoredStart/opts.Anchored
// restricts the attempt to startOffset itself. It returns the finished
// Thread on a match, the Thread holding the partial ovector on a PARTIAL
// result, or nil with the terminal result code (NoMatch, MatchLimit,
// StackLimit, ...) otherwise.
//
// Partial-match handling (spec.md §8's testable property 6) is a
// simplification of PCRE2's real soft/hard distinction: this scans every
// start offset exactly as a full match would, and if none succeeds but at
// least one attempt ran out of subject mid-construct (Thread.notePartial),
// it reports PARTIAL using the earliest such attempt's starting offset
// rather than PCRE2's full "longest successful partial, preferring later
// starts under certain option combinations" rule. PARTIAL_HARD additionally
// short-circuits the scan the first time this happens, since "hard" means
// failing fast at end-of-input instead of continuing to search for a later,
// possibly longer, partial candidate.
func Match(prog *asm.Program, subject []byte, startOffset int, opts MatchOptions) (*Thread, int) {
	pos := startOffset
	anchoredOnly := prog.AnchoredStart || opts.Anchored
	var partialFrom *Thread

	for {
		th := NewThreadOpts(prog, subject, pos, startOffset, opts)
		result := th.Exec()
		switch result {
		case asm.ResultMatch:
			return th, result
		case asm.ResultNoMatch:
			if hitPos, ok := th.HitPartial(); ok {
				if partialFrom == nil {
					partialFrom = th
				}
				if opts.PartialHard {
					return finishPartial(partialFrom, hitPos)
				}
			}
			if anchoredOnly || pos >= len(subject) {
				if partialFrom != nil {
					hitPos, _ := partialFrom.HitPartial()
					return finishPartial(partialFrom, hitPos)
				}
				return nil, asm.ResultNoMatch
			}
			pos = advanceOneCodePoint(subject, pos, opts.UTF)
		default:
			return nil, result
		}
	}
}

func finishPartial(th *Thread, hitPos int) (*Thread, int) {
	th.ovector[0] = th.matchStart
	th.ovector[1] = hitPos
	for i := 2; i < len(th.ovector); i++ {
		th.ovector[i] = -1
	}
	return th, asm.ResultPartial
}

func advanceOneCodePoint(subject []byte, pos int, utf bool) int {
	if !utf {
		return pos + 1
	}
	_, w := (&Thread{subject: subject, utf: utf}).decodeAt(pos)
	if w == 0 {
		return pos + 1
	}
	return pos + w
}
