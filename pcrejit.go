// Package pcrejit implements spec.md §6's external interface over the
// matching-path/backtracking-path JIT pipeline in jit/bytecode,
// jit/layout, jit/codegen, jit/asm and jit/vm: Compile turns a PCRE opcode
// stream into a directly-executable Regex, and Regex.Exec runs it against
// a subject. Go's own runtime already manages memory jit_exec's stack
// handle exists to avoid repeatedly mmap-ing (spec.md's AllocateStack/
// FreeStack/SetStackCallback), so this package's StackHandle is a thin
// capacity hint for jit/vm's backtracking-stack slice, not a raw memory
// allocator.
package pcrejit

import (
	"fmt"

	"github.com/mna/pcrejit/jit/asm"
	"github.com/mna/pcrejit/jit/codegen"
	"github.com/mna/pcrejit/jit/layout"
	"github.com/mna/pcrejit/jit/vm"
)

// Option is one of spec.md §6's compile-time option bits.
type Option uint32

const (
	OptionUTF Option = 1 << iota
	OptionUCP
	OptionDollarEndOnly
	OptionJavaScriptCompat
)

// NamedGroups re-exports jit/layout's capture-name-sharing map, the shape
// jit/layout.Plan needs to detect duplicate-named groups.
type NamedGroups = layout.NamedGroups

// Options configures a Compile call.
type Options struct {
	Flags     Option
	Newline   codegen.NewlineConvention
	CallLimit int

	// Names maps a capture group name to every capture number sharing it,
	// for jit/layout's duplicate-named-group detection.
	Names NamedGroups
	// NameIndex maps a compiled name-table index (the encoding NCREF/NRREF
	// opcodes carry) to the capture numbers sharing that name, for
	// jit/vm.Thread.NamesForIndex at match time. Supplied by the caller
	// because the opcode stream's name table is produced by the regex
	// compiler this package's input already assumes out of scope (spec.md
	// §1).
	NameIndex map[int][]int
}

// Regex is a compiled, directly-executable program: spec.md §6's match
// entry point plus the argument-block/executable-table pair it operates
// over, collapsed into one value since jit/vm.Program already serves as
// the executable table.
type Regex struct {
	prog *asm.Program
	opts Options
}

// Compile runs the C1-C5 pipeline (spec.md §2's control/data flow) over
// code, an already-produced PCRE opcode stream, and returns the executable
// Regex. Codegen declining an opcode it doesn't recognize (spec.md §4.1's
// "the JIT declines and falls back to an interpreter") surfaces here as a
// plain error; there is no interpreter fallback in this repository; spec.md
// §1 places the fallback path itself out of scope.
func Compile(code []byte, opts Options) (*Regex, error) {
	l, err := layout.Plan(code, opts.Names, 0)
	if err != nil {
		return nil, fmt.Errorf("pcrejit: plan private data: %w", err)
	}

	s := codegen.NewSession(code, l, codegen.Options{
		UTF:              opts.Flags&OptionUTF != 0,
		UCP:              opts.Flags&OptionUCP != 0,
		Newline:          opts.Newline,
		DollarEndOnly:    opts.Flags&OptionDollarEndOnly != 0,
		JavaScriptCompat: opts.Flags&OptionJavaScriptCompat != 0,
		CallLimit:        opts.CallLimit,
	})
	prog, err := s.Compile()
	if err != nil {
		return nil, fmt.Errorf("pcrejit: codegen: %w", err)
	}

	return &Regex{prog: prog, opts: opts}, nil
}

// Match is the outcome of a single Exec call: Ovector holds
// 2*(Captures+1) byte offsets into the subject (index 0/1 is the whole
// match), -1 where a capture never participated, and Mark carries the
// last (*MARK:name) control verb reached, if any.
type Match struct {
	Ovector []int
	Mark    string
	// Partial reports a spec.md §6 PARTIAL result: the subject ran out
	// while a longer one might have completed the match. Ovector[0:2] holds
	// (hit_start, str_ptr) per spec.md §8's testable property 6, and every
	// other capture slot is unset.
	Partial bool
}

// ExecOption is one of spec.md §6's per-call option bits: the ones that are
// recognized at match time rather than baked in by Compile (ANCHORED,
// NOTBOL, NOTEOL, NOTEMPTY, NOTEMPTY_ATSTART, PARTIAL_SOFT, PARTIAL_HARD).
type ExecOption uint32

const (
	ExecAnchored ExecOption = 1 << iota
	ExecNotBOL
	ExecNotEOL
	ExecNotEmpty
	ExecNotEmptyAtStart
	ExecPartialSoft
	ExecPartialHard
)

// Exec runs the compiled program against subject starting no earlier than
// startOffset, scanning forward one code point at a time until it matches,
// the subject is exhausted, or a resource limit is hit (spec.md §7's
// MATCHLIMIT/STACKLIMIT). It returns (nil, nil) on an ordinary no-match, a
// non-nil *Match on success, or an error for anything else. A PARTIAL
// result is reported through Match.Partial rather than as an error only
// when exopts requested it; requesting no partial flag and reaching one
// anyway is reported as NoMatch, matching PCRE2's own "partial matching was
// not enabled" behavior.
func (re *Regex) Exec(subject []byte, startOffset int, h *StackHandle, exopts ExecOption) (*Match, error) {
	opts := vm.MatchOptions{
		UTF:             re.opts.Flags&OptionUTF != 0,
		UCP:             re.opts.Flags&OptionUCP != 0,
		Names:           re.opts.NameIndex,
		CallLimit:       re.opts.CallLimit,
		NotBOL:          exopts&ExecNotBOL != 0,
		NotEOL:          exopts&ExecNotEOL != 0,
		NotEmpty:        exopts&ExecNotEmpty != 0,
		NotEmptyAtStart: exopts&ExecNotEmptyAtStart != 0,
		PartialSoft:     exopts&ExecPartialSoft != 0,
		PartialHard:     exopts&ExecPartialHard != 0,
		Anchored:        exopts&ExecAnchored != 0,
	}

	th, result := vm.Match(re.prog, subject, startOffset, opts)
	if h != nil {
		h.observe(th)
	}

	switch result {
	case asm.ResultMatch:
		return &Match{Ovector: th.Ovector(), Mark: th.Mark()}, nil
	case asm.ResultNoMatch:
		return nil, nil
	case asm.ResultMatchLimit:
		return nil, fmt.Errorf("pcrejit: match limit exceeded")
	case asm.ResultStackLimit:
		return nil, fmt.Errorf("pcrejit: backtracking stack limit exceeded")
	case asm.ResultPartial:
		return &Match{Ovector: th.Ovector(), Mark: th.Mark(), Partial: true}, nil
	case asm.ResultBadOption:
		return nil, fmt.Errorf("pcrejit: bad option")
	case asm.ResultRecursionLimit:
		return nil, fmt.Errorf("pcrejit: recursion limit exceeded")
	default:
		return nil, fmt.Errorf("pcrejit: unknown result code %d", result)
	}
}

// Disassemble renders the compiled program one instruction per line, this
// package's analogue to a native JIT's disassembly dump (there being no
// machine code here for an actual disassembler to decode, see jit/asm's
// doc comment for why Program itself is the executable artifact).
func (re *Regex) Disassemble() string { return asm.Disassemble(re.prog) }

// CodeSize reports the number of assembled instructions, this package's
// analogue to pcre2_pattern_info's PCRE2_INFO_JITSIZE (a native JIT reports
// bytes of machine code; this one reports instruction count since Instr is
// a fixed-size Go struct, not variable-length native encoding). It reports 0
// after FreeJIT.
func (re *Regex) CodeSize() int {
	if re.prog == nil {
		return 0
	}
	return len(re.prog.Instrs)
}

// FreeJIT drops this Regex's reference to its compiled program, spec.md
// §6's pcre2_code_free_jit counterpart. Go's GC reclaims the program once
// nothing else references it; this method exists so callers that port
// code managing JIT lifetime explicitly have a method to call, matching
// the original API shape.
func (re *Regex) FreeJIT() { re.prog = nil }

// TargetName reports the executing target's name, spec.md §6's
// PCRE2_CONFIG_JITTARGET counterpart. A native JIT names the CPU
// architecture it emitted code for; this target is jit/vm's own
// instruction interpreter, not a CPU.
func TargetName() string { return "pcrejit-vm (interpreted, non-native)" }

// StackHandle is spec.md §6's stack-handle equivalent: a reusable capacity
// hint for the backtracking stack jit/vm.Thread grows during Exec, so a
// caller running many Exec calls against the same or similarly-sized
// subjects doesn't pay a fresh slice-growth cost on each one. There is no
// separate memory arena to allocate or free, since jit/vm.Thread already
// allocates its backtracking stack from the Go heap; SetStackCallback and
// FreeStack are retained as explicit methods only for API symmetry with
// the original's caller-provided allocator hook.
type StackHandle struct {
	hint int
}

// AllocateStack creates a StackHandle sized for roughly depth backtracking
// entries.
func AllocateStack(depth int) *StackHandle { return &StackHandle{hint: depth} }

// SetStackCallback updates the handle's capacity hint, mirroring the
// original's ability to swap the allocator backing a stack handle at
// runtime.
func (h *StackHandle) SetStackCallback(depth int) { h.hint = depth }

// FreeStack releases the handle. Go's GC does the actual reclaiming; this
// method exists for symmetry with AllocateStack.
func (h *StackHandle) FreeStack() {}

func (h *StackHandle) observe(th *vm.Thread) {
	if th == nil {
		return
	}
	if n := th.StackDepthReached(); n > h.hint {
		h.hint = n
	}
}
