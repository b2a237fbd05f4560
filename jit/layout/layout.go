// Package layout implements the private-data and frame planner (spec.md
// §4.2, component C2): it decides where each opcode's scratch slot lives in
// the caller-provided stack frame, and which capturing brackets can update
// the ovector in place instead of saving/restoring it on the backtracking
// stack.
package layout

import (
	"fmt"

	"github.com/dolthub/swiss"

	"github.com/mna/pcrejit/jit/bytecode"
)

// Layout is the result of planning a compiled opcode stream. It must be
// computed once, before any matching-path code is emitted, and never
// mutated afterward (spec.md §3 invariant 2).
type Layout struct {
	// PrivateOffset maps the byte position of an opcode that owns private
	// data to the slot offset assigned to it.
	PrivateOffset map[int]int
	// TotalSize is the total number of private-data slots required across the
	// whole program (base_offset + TotalSize == first unassigned slot).
	TotalSize int
	// Optimized reports, per capture number (1-based, index 0 unused), whether
	// the capture's ovector entries can be updated in place.
	Optimized []bool
	// NeedsMarkSlot is true if any OP_MARK appears in the program.
	NeedsMarkSlot bool
	// MaxCapture is the highest capture number referenced anywhere.
	MaxCapture int
}

// NamedGroups maps a capture group name to every capture number sharing that
// name (PCRE allows duplicate-named groups in different alternatives). It is
// supplied by the caller because this package's input opcode stream has no
// name table of its own (spec.md places name-table management at the
// compiler session level, described in §3 under "Compiler session").
type NamedGroups map[string][]int

// Plan runs both planner passes (get_private_data_length and
// set_private_data_ptrs in spec.md §4.2) and the optimized-capture
// detection pass, returning the completed Layout.
//
// baseOffset is the private-data base offset already consumed by the
// caller's frame (e.g. argument-block fields); slot offsets in the returned
// Layout start at baseOffset.
func Plan(code []byte, names NamedGroups, baseOffset int) (*Layout, error) {
	l := &Layout{PrivateOffset: make(map[int]int)}

	refd, condd, err := collectCaptureUsage(code, names)
	if err != nil {
		return nil, err
	}

	offset := baseOffset
	pos := 0
	for pos < len(code) {
		op := bytecode.Opcode(code[pos])
		size, ok := bytecode.Size(code, pos)
		if !ok {
			return nil, fmt.Errorf("layout: unsupported opcode %s at %d", op, pos)
		}

		switch {
		case isIterator(op):
			atomPos := pos + 1 + 8
			atomOp := bytecode.Opcode(code[atomPos])
			min := be32(code[pos+1:])
			max := be32(code[pos+5:])
			n := iteratorSlots(op, atomOp, min, max)
			if n > 0 {
				l.PrivateOffset[pos] = offset
				offset += n
			}

		case bytecode.IsBracketOpen(op):
			l.PrivateOffset[pos] = offset
			offset++ // saved STR_PTR / alternative-dispatch cell
			if needsFrame(op) {
				offset++ // frame-size integer slot
			} else if op == bytecode.Cond {
				// COND gets the slot only when its matching ket repeats
				if end := bytecode.BracketEnd(code, pos); end >= 1+4 {
					if k := bytecode.Opcode(code[end-1-4]); k == bytecode.KetRMax || k == bytecode.KetRMin {
						offset++
					}
				}
			}
			if bytecode.IsCapturing(op) {
				num := int(be16(code[pos+1+4:]))
				if num > l.MaxCapture {
					l.MaxCapture = num
				}
			}

		case op == bytecode.Assert || op == bytecode.AssertNot ||
			op == bytecode.AssertBack || op == bytecode.AssertBackNot:
			l.PrivateOffset[pos] = offset
			offset += 2 // private-data pointer save + frame-size integer

		case op == bytecode.Mark:
			l.NeedsMarkSlot = true
		}
		pos += size
	}
	l.TotalSize = offset - baseOffset

	l.Optimized = make([]bool, l.MaxCapture+1)
	for n := 1; n <= l.MaxCapture; n++ {
		l.Optimized[n] = true
	}
	for n := range refd {
		if n >= 0 && n < len(l.Optimized) {
			l.Optimized[n] = false
		}
	}
	for n := range condd {
		if n >= 0 && n < len(l.Optimized) {
			l.Optimized[n] = false
		}
	}
	for _, nums := range names {
		if len(nums) > 1 {
			for _, n := range nums {
				if n >= 0 && n < len(l.Optimized) {
					l.Optimized[n] = false
				}
			}
		}
	}
	markPossessiveCaptures(code, l.Optimized)

	return l, nil
}

// collectCaptureUsage scans the whole program once for OP_REF/OP_REFI
// targets and CREF/NCREF condition targets, the two non-structural reasons
// a capture cannot be optimized (spec.md §4.2 points (a) and (b)). A swiss
// map is used for the "referenced capture numbers" set: duplicate-named
// groups can push this set's size into the dozens for heavily backreferenced
// grammars, where swiss's open addressing beats a Go map's bucket chains.
func collectCaptureUsage(code []byte, names NamedGroups) (refd, condd map[int]struct{}, err error) {
	refdSet := swiss.NewMap[int, struct{}](8)
	condSet := swiss.NewMap[int, struct{}](8)

	pos := 0
	for pos < len(code) {
		op := bytecode.Opcode(code[pos])
		size, ok := bytecode.Size(code, pos)
		if !ok {
			return nil, nil, fmt.Errorf("layout: unsupported opcode %s at %d", op, pos)
		}
		switch op {
		case bytecode.Ref, bytecode.RefI:
			refdSet.Put(int(be16(code[pos+1:])), struct{}{})
		case bytecode.CRef:
			condSet.Put(int(be16(code[pos+1:])), struct{}{})
		case bytecode.NCRef:
			idx := int(be32(code[pos+1:]))
			for _, nums := range names {
				_ = idx // name index resolution is owned by the compiler session;
				// here we conservatively mark every capture sharing any name as
				// condition-referenced, since this pass has no name table to
				// resolve idx precisely against.
				for _, n := range nums {
					condSet.Put(n, struct{}{})
				}
			}
		}
		pos += size
	}

	refd = make(map[int]struct{}, refdSet.Count())
	refdSet.Iter(func(k int, _ struct{}) bool { refd[k] = struct{}{}; return false })
	condd = make(map[int]struct{}, condSet.Count())
	condSet.Iter(func(k int, _ struct{}) bool { condd[k] = struct{}{}; return false })
	return refd, condd, nil
}

func markPossessiveCaptures(code []byte, optimized []bool) {
	pos := 0
	for pos < len(code) {
		op := bytecode.Opcode(code[pos])
		size, ok := bytecode.Size(code, pos)
		if !ok {
			return
		}
		if op == bytecode.CBraPos || op == bytecode.SCBraPos {
			num := int(be16(code[pos+1+4:]))
			if num >= 0 && num < len(optimized) {
				optimized[num] = false
			}
		}
		pos += size
	}
}

func isIterator(op bytecode.Opcode) bool {
	switch op {
	case bytecode.Star, bytecode.MinStar, bytecode.Plus, bytecode.MinPlus,
		bytecode.Query, bytecode.MinQuery, bytecode.Upto, bytecode.MinUpto,
		bytecode.Exact, bytecode.PosStar, bytecode.PosPlus, bytecode.PosQuery,
		bytecode.PosUpto, bytecode.CrRange, bytecode.CrMinRange:
		return true
	}
	return false
}

// iteratorSlots implements the "class-iterator-size" rule from the glossary:
// single-value iterators take one slot, two-value (counted) iterators take
// two, and class iterators over a bounded equal range take zero.
func iteratorSlots(op, atomOp bytecode.Opcode, min, max uint32) int {
	isClassAtom := atomOp == bytecode.Class || atomOp == bytecode.NClass ||
		atomOp == bytecode.XClass || atomOp == bytecode.Any || atomOp == bytecode.AllAny

	switch op {
	case bytecode.Query, bytecode.MinQuery, bytecode.PosQuery:
		return 1
	case bytecode.CrRange, bytecode.CrMinRange:
		if isClassAtom {
			if min == max {
				return 0
			}
			return 2
		}
		return 2
	default: // Star, MinStar, Plus, MinPlus, Upto, MinUpto, Exact, PosStar, PosPlus, PosUpto
		if isClassAtom {
			if op == bytecode.PosStar || op == bytecode.PosPlus || op == bytecode.PosUpto {
				return 1
			}
			return 2
		}
		return 2
	}
}

// needsFrame reports whether opening op requires a saved-frame-size integer
// slot in addition to its base private-data cell, per spec.md §4.2: "A
// saved-frame-size integer is added for each ASSERT*, ONCE, ONCE_NC, BRAPOS,
// SBRA, SBRAPOS, SCOND, CBRAPOS, SCBRAPOS, and for COND iff its matching ket
// is greedy/lazy repeating." The COND case needs the matching ket, which
// Plan inspects itself; this boolean covers the unconditional opcodes.
func needsFrame(op bytecode.Opcode) bool {
	switch op {
	case bytecode.Once, bytecode.OnceNC, bytecode.BraPos, bytecode.SBra,
		bytecode.SBraPos, bytecode.SCond, bytecode.CBraPos, bytecode.SCBraPos:
		return true
	}
	return false
}

// FrameEntry*Words are the number of stack words a single saved-frame entry
// occupies: 2 for set-string-begin or set-mark, 3 for a capture-save.
const (
	FrameEntrySOMWords    = 2
	FrameEntryMarkWords   = 2
	FrameEntryCaptureWords = 3
	FrameSentinelWords    = 1
	// NoFrame is the sentinel FrameSize returns when a possessive capturing
	// bracket needs no saved frame at all (spec.md §4.2 special case).
	NoFrame = -1
)

// FrameSize computes get_framesize for the bracket or assertion opening at
// pos: the saved-frame size, counting a capture-save entry (3 words) for
// the construct's own capture and every capture nested directly in its
// body (non-optimized captures only), a set-string-begin entry (2 words), a set-mark entry (2
// words) if the layout needs a mark slot, plus the sentinel end word.
//
// For a possessive capturing bracket at the top of the construct whose body
// is exactly one capture-save entry, NoFrame is returned: the bracket's own
// ovector write already does the job a one-entry frame would do.
func FrameSize(code []byte, pos int, l *Layout) (int, error) {
	op := bytecode.Opcode(code[pos])
	captures, err := countNestedCaptures(code, pos, l)
	if err != nil {
		return 0, err
	}
	if bytecode.IsCapturing(op) {
		// the construct's own capture is saved in its frame as well
		if num := int(be16(code[pos+1+4:])); num < len(l.Optimized) && !l.Optimized[num] {
			captures++
		}
	}

	if bytecode.IsPossessiveBracket(op) && captures == 1 && !l.NeedsMarkSlot {
		return NoFrame, nil
	}

	size := FrameEntrySOMWords + FrameSentinelWords
	if l.NeedsMarkSlot {
		size += FrameEntryMarkWords
	}
	size += captures * FrameEntryCaptureWords
	return size, nil
}

// countNestedCaptures counts non-optimized capturing brackets directly
// reachable within the construct opening at pos (not descending into
// further atomic/assertion sub-frames, which save their own).
func countNestedCaptures(code []byte, pos int, l *Layout) (int, error) {
	size, ok := bytecode.Size(code, pos)
	if !ok {
		return 0, fmt.Errorf("layout: unsupported opcode at %d", pos)
	}
	end := bytecode.BracketEnd(code, pos)
	if end < 0 {
		return 0, fmt.Errorf("layout: malformed bracket at %d", pos)
	}

	count := 0
	p := pos + size
	for p < end {
		op := bytecode.Opcode(code[p])
		sz, ok := bytecode.Size(code, p)
		if !ok {
			return 0, fmt.Errorf("layout: unsupported opcode %s at %d", op, p)
		}
		if bytecode.IsCapturing(op) {
			num := int(be16(code[p+1+4:]))
			if num < len(l.Optimized) && !l.Optimized[num] {
				count++
			}
		}
		if bytecode.IsBracketOpen(op) || op == bytecode.Assert || op == bytecode.AssertNot ||
			op == bytecode.AssertBack || op == bytecode.AssertBackNot {
			// skip over the whole sub-construct; its own captures are saved by
			// its own frame, not ours, unless it's a plain transparent Bra.
			if op == bytecode.Bra {
				p += sz
				continue
			}
			sub := bytecode.BracketEnd(code, p)
			if sub < 0 {
				return 0, fmt.Errorf("layout: malformed sub-bracket at %d", p)
			}
			p = sub
			continue
		}
		p += sz
	}
	return count, nil
}

func be16(b []byte) uint16 { return uint16(b[0])<<8 | uint16(b[1]) }
func be32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}
