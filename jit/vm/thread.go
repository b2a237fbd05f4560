// Package vm executes an *asm.Program against a subject string. It is this
// package's own substitute for the real JIT's generated machine code: the
// generated target here is a plain Go data structure (asm.Program), and this
// package is the one piece of "processor" standing in for hardware. Grounded
// in shape on the teacher's lang/machine package (machine.go's pc-driven
// opcode switch, thread.go's per-run call/iterator stacks), generalized from
// "interpret a Starlark function" to "interpret an assembled match attempt".
package vm

import (
	"github.com/mna/pcrejit/jit/asm"
)

// Thread holds everything one Exec call needs: the subject, the live
// capture table, the backtracking stack the assembled program's
// PushPos/PushInt/Pop/Decr/CapStart/CapEnd family operates over, and the
// bookkeeping spec.md §6 assigns to "the running match": mark register,
// recursion depth stack, call-limit counter.
type Thread struct {
	prog    *asm.Program
	subject []byte
	utf     bool
	ucp     bool

	pos        int // current subject cursor, in bytes
	matchStart int // \G anchor: where this match attempt began

	ovector []int // 2*(Captures+1) entries; -1 means unset

	names map[int][]int // name-table index -> every capture number sharing it

	backtrack    []int // generic int stack: PushPos/PushInt/Pop/Decr/CapStart/CapEnd saves
	maxBacktrack int   // peak len(backtrack) reached, for StackDepthReached
	calls        []int // return-address stack for Call/Ret

	recursion []uint32 // currently active Recurse call targets, by group number

	mark string

	callCount int
	callLimit int

	// searchStart is the offset the caller originally asked Match to search
	// from (spec.md §8's NOTEMPTY_ATSTART boundary case: "only when
	// STR_PTR == str at accept" means the overall search start, not merely
	// this attempt's matchStart after the outer loop has already advanced
	// past earlier failed offsets).
	searchStart     int
	notBOL          bool
	notEOL          bool
	notEmpty        bool
	notEmptyAtStart bool

	// partial tracks spec.md §6/§8's PARTIAL_SOFT/PARTIAL_HARD request: a
	// character-consuming instruction that ran out of subject exactly at
	// t.pos == len(subject), rather than finding a mismatched code point,
	// reports that this attempt's prefix might have matched had the subject
	// continued. hitEnd/hitPos record the furthest such point reached.
	partialSoft bool
	partialHard bool
	hitEnd      bool
	hitPos      int

	ok bool
}

// MatchOptions bundles the per-Exec-call runtime knobs spec.md §6 lists
// under "Option bits (recognized)": the ones this package models at
// match time rather than at compile time (UTF/UCP stay compile-time
// configuration, carried here too only because jit/vm's character
// decoding needs them on every call).
type MatchOptions struct {
	UTF, UCP        bool
	Names           map[int][]int
	CallLimit       int
	NotBOL          bool
	NotEOL          bool
	NotEmpty        bool
	NotEmptyAtStart bool
	PartialSoft     bool
	PartialHard     bool
	Anchored        bool
}

// NewThread prepares a Thread to execute prog against subject, starting the
// match attempt at startPos. names maps a compiled name-table index (as
// used by NCREF/NRREF and the xclass/backref natives) to the capture
// numbers sharing that name, for duplicate-named-group support.
func NewThread(prog *asm.Program, subject []byte, startPos int, utf, ucp bool, names map[int][]int, callLimit int) *Thread {
	return NewThreadOpts(prog, subject, startPos, startPos, MatchOptions{UTF: utf, UCP: ucp, Names: names, CallLimit: callLimit})
}

// NewThreadOpts is NewThread's full-option counterpart: searchStart is the
// offset the overall Match call began scanning from (see Thread.searchStart),
// which may differ from startPos once the outer scan loop has advanced past
// one or more failed attempts.
func NewThreadOpts(prog *asm.Program, subject []byte, startPos, searchStart int, opts MatchOptions) *Thread {
	ovector := make([]int, 2*(prog.Captures+1))
	for i := range ovector {
		ovector[i] = -1
	}
	callLimit := opts.CallLimit
	if callLimit <= 0 {
		callLimit = 1 << 30
	}
	return &Thread{
		prog:            prog,
		subject:         subject,
		utf:             opts.UTF,
		ucp:             opts.UCP,
		pos:             startPos,
		matchStart:      startPos,
		searchStart:     searchStart,
		ovector:         ovector,
		names:           opts.Names,
		callLimit:       callLimit,
		notBOL:          opts.NotBOL,
		notEOL:          opts.NotEOL,
		notEmpty:        opts.NotEmpty,
		notEmptyAtStart: opts.NotEmptyAtStart,
		partialSoft:     opts.PartialSoft,
		partialHard:     opts.PartialHard,
		hitPos:          -1,
	}
}

// HitPartial reports whether this attempt ran out of subject at a point a
// longer subject might have carried to a full match, and where.
func (t *Thread) HitPartial() (pos int, ok bool) { return t.hitPos, t.hitEnd }

// notePartial records spec.md §8's boundary case: a character-consuming
// opcode failed specifically because the subject ran out right under it,
// not because the next code point mismatched. Only meaningful when the
// caller asked for PARTIAL_SOFT/PARTIAL_HARD; harmless bookkeeping
// otherwise.
func (t *Thread) notePartial() {
	if !t.partialSoft && !t.partialHard {
		return
	}
	if t.pos != len(t.subject) {
		return
	}
	if !t.hitEnd || t.pos > t.hitPos {
		t.hitEnd = true
		t.hitPos = t.pos
	}
}

// rejectEmpty implements spec.md §8's NOTEMPTY/NOTEMPTY_ATSTART boundary
// case: an empty match (matchStart == pos) is converted back to a failure
// when NOTEMPTY is set unconditionally, or when NOTEMPTY_ATSTART is set and
// this attempt began at the overall search's starting offset.
func (t *Thread) rejectEmpty() bool {
	if t.pos != t.matchStart {
		return false
	}
	if t.notEmpty {
		return true
	}
	return t.notEmptyAtStart && t.matchStart == t.searchStart
}

// --- nativeThread implementation (jit/codegen/natives.go's contract) ---

func (t *Thread) CurrentRune() (rune, bool) {
	r, w := t.decodeAt(t.pos)
	return r, w > 0
}

func (t *Thread) PrecedingRune() (rune, bool) {
	r, w := t.decodeBefore(t.pos)
	return r, w > 0
}

func (t *Thread) RuneAhead(n int) (rune, bool) {
	pos := t.stepForward(t.pos, n)
	r, w := t.decodeAt(pos)
	return r, w > 0
}

func (t *Thread) UCPEnabled() bool { return t.ucp }

func (t *Thread) CaptureSet(n int) bool {
	if n < 0 || 2*n >= len(t.ovector) {
		return false
	}
	return t.ovector[2*n] >= 0
}

func (t *Thread) NamesForIndex(idx int) []int { return t.names[idx] }

func (t *Thread) InRecursion(group uint32) bool {
	if group == 0 {
		return len(t.recursion) > 0
	}
	for _, g := range t.recursion {
		if g == group {
			return true
		}
	}
	return false
}

func (t *Thread) MatchBackreference(num int, caseless bool) bool {
	if !t.CaptureSet(num) {
		return false
	}
	start, end := t.ovector[2*num], t.ovector[2*num+1]
	captured := t.subject[start:end]

	if !caseless {
		if t.pos+len(captured) > len(t.subject) {
			return false
		}
		for i, b := range captured {
			if t.subject[t.pos+i] != b {
				return false
			}
		}
		t.pos += len(captured)
		return true
	}

	pos := t.pos
	ci := 0
	for ci < len(captured) {
		cr, cw := t.decodeAt(start + ci)
		sr, sw := t.decodeAt(pos)
		if cw == 0 || sw == 0 || !caselessEqual(cr, sr, t.ucp) {
			return false
		}
		ci += cw
		pos += sw
	}
	t.pos = pos
	return true
}

// Ovector returns the finished capture table after a successful Exec.
func (t *Thread) Ovector() []int { return t.ovector }

// Mark returns the last (?:*MARK:name) control verb value set, if any.
func (t *Thread) Mark() string { return t.mark }

// StackDepthReached reports the deepest the backtracking stack grew during
// this thread's Exec call, for StackHandle's reuse hint.
func (t *Thread) StackDepthReached() int { return t.maxBacktrack }
