package codegen

import "github.com/mna/pcrejit/jit/helpers"

// nativeThread is the minimal view a CallNative closure needs into the
// running match; jit/vm.Thread satisfies it. Kept as an interface here so
// jit/codegen does not import jit/vm (which in turn must import jit/asm,
// which jit/codegen already imports — this avoids a three-way cycle).
type nativeThread interface {
	// CurrentRune decodes the rune at the current subject cursor, reporting
	// ok=false at end of subject.
	CurrentRune() (r rune, ok bool)
	// RuneAhead decodes the rune n code points ahead of the current cursor
	// without consuming anything (n==0 behaves like CurrentRune), for
	// guards that need to peek past the first character of a run.
	RuneAhead(n int) (r rune, ok bool)
	// PrecedingRune decodes the rune immediately before the current cursor,
	// reporting ok=false at the start of subject.
	PrecedingRune() (r rune, ok bool)
	// UCPEnabled reports whether the running program was compiled with the
	// Unicode-property option, gating full vs. ASCII case folding.
	UCPEnabled() bool

	// CaptureSet reports whether capture n has participated in the match so
	// far (its ovector start is not the "unset" sentinel).
	CaptureSet(n int) bool
	// NamesForIndex resolves a compiled name-table index to every capture
	// number sharing that name (duplicate-named groups).
	NamesForIndex(idx int) []int
	// InRecursion reports whether the matcher is currently inside a
	// recursive invocation of group (0 means "any group").
	InRecursion(group uint32) bool

	// MatchBackreference compares the subject at the current cursor against
	// the text captured by group num, advancing the cursor past it on
	// success. Reports false (cursor unchanged) if the capture never
	// participated or the subject doesn't match it.
	MatchBackreference(num int, caseless bool) bool
}

// wordBoundaryNative implements \b/\B as a CallNative closure: the
// helper-routine contract (spec.md C5's word_boundary) is satisfied by a
// single Go function referenced from every \b/\B site instead of an
// assembled subroutine, since Go already gives every call site a shared,
// single compiled body for free.
func wordBoundaryNative(negate bool) func(interface{}) bool {
	return func(raw interface{}) bool {
		t := raw.(nativeThread)
		before, hasBefore := t.PrecedingRune()
		after, hasAfter := t.CurrentRune()
		b := helpers.WordBoundary(before, hasBefore, after, hasAfter)
		if negate {
			return !b
		}
		return b
	}
}

// xclassPropertyNative evaluates the Unicode-property clauses trailing an
// XCLASS's bitmap prefix, consulting jit/helpers.GetUCD the same way the
// original's compile_xclass_matchingpath calls get_ucd for each PT_*
// clause it cannot resolve with the inline bitmap alone.
func xclassPropertyNative(clauses []byte) func(interface{}) bool {
	props := parseXClassProperties(clauses)
	return func(raw interface{}) bool {
		t := raw.(nativeThread)
		r, ok := t.CurrentRune()
		if !ok {
			return false
		}
		rec := helpers.GetUCD(r)
		for _, p := range props {
			if matchesXClassProperty(p, rec, r) {
				return true
			}
		}
		return false
	}
}

// xclassProperty is one decoded \p{...}/\P{...} clause.
type xclassProperty struct {
	category string
	negate   bool
}

// parseXClassProperties decodes the simple encoding this package's own
// XCLASS payload uses for property clauses: a run of (negateByte,
// categoryByte) pairs following the 32-byte bitmap prefix. The real PCRE
// wire format is richer (script and extended-category enums); since the
// producing compiler is out of scope (spec.md §1), this is this package's
// own minimal contract covering the general-category clauses the spec's
// worked examples exercise.
func parseXClassProperties(payload []byte) []xclassProperty {
	if len(payload) <= 32 {
		return nil
	}
	rest := payload[32:]
	var out []xclassProperty
	for i := 0; i+1 < len(rest); i += 2 {
		out = append(out, xclassProperty{negate: rest[i] != 0, category: string(rest[i+1])})
	}
	return out
}

func matchesXClassProperty(p xclassProperty, rec helpers.UCDRecord, r rune) bool {
	match := rec.Category == p.category
	if p.negate {
		return !match
	}
	return match
}

func captureSetNative(n int) func(interface{}) bool {
	return func(raw interface{}) bool { return raw.(nativeThread).CaptureSet(n) }
}

func namedCaptureSetNative(idx int) func(interface{}) bool {
	return func(raw interface{}) bool {
		t := raw.(nativeThread)
		for _, n := range t.NamesForIndex(idx) {
			if t.CaptureSet(n) {
				return true
			}
		}
		return false
	}
}

func recursionContextNative(group uint32) func(interface{}) bool {
	return func(raw interface{}) bool { return raw.(nativeThread).InRecursion(group) }
}

func namedRecursionContextNative(idx uint32) func(interface{}) bool {
	return func(raw interface{}) bool {
		t := raw.(nativeThread)
		for _, n := range t.NamesForIndex(int(idx)) {
			if t.InRecursion(uint32(n)) {
				return true
			}
		}
		return false
	}
}

// earlyFailNative implements detect_early_fail's guard: compares chars
// against the subject at the current cursor without consuming it (the full
// bracket body re-reads and consumes those same characters on the normal
// path if this guard doesn't already reject the match).
func earlyFailNative(chars []rune) func(interface{}) bool {
	return func(raw interface{}) bool {
		t := raw.(nativeThread)
		for i, want := range chars {
			r, ok := t.RuneAhead(i)
			if !ok || r != want {
				return false
			}
		}
		return true
	}
}

// backrefNative implements \1, \k<name> and friends: the comparison and
// the cursor advance on success both happen inside jit/vm, which is the
// only place that already owns both the subject slice and the ovector.
func backrefNative(num int, caseless bool) func(interface{}) bool {
	return func(raw interface{}) bool {
		return raw.(nativeThread).MatchBackreference(num, caseless)
	}
}
