// Package asm is the low-level assembler that spec.md §1 describes as an
// external collaborator "specified only by the contracts in §4": a fixed
// operation vocabulary for emitting instructions, defining labels, and
// patching forward jumps. Where a real JIT would hand this vocabulary to a
// per-architecture machine-code encoder, this package's Program is itself
// the executable artifact: jit/vm interprets it. See SPEC_FULL.md for why
// that substitution is the idiomatic-Go rendition of "native machine code"
// here.
package asm

import "fmt"

// Op is one instruction in the assembled target program.
type Op uint8

//nolint:revive
const (
	Nop Op = iota

	MatchChar    // R=literal code point; Flag=caseless; sets OK, advances on success
	MatchNotChar // negated literal code point
	MatchClass   // N1=index into Program.Classes; Flag=negate
	MatchAny     // Flag=dotAll (matches newlines too)

	AnchorBOL   // Flag=multiline
	AnchorEOL   // Flag=multiline
	AnchorSOD   // start of subject
	AnchorSOM   // start of this match attempt (\G)
	AnchorEOD   // absolute end of subject
	AnchorEODN  // end of subject, or before a single trailing newline

	Jmp        // N1=target pc
	JmpIfNotOK // N1=target pc
	JmpIfOK    // N1=target pc

	Call       // N1=target pc; N2=recursion group number; pushes return address on the internal call stack
	Ret        // pops the internal call stack and resumes there
	CallNative // N1=index into Program.Natives; callee sets OK directly

	PushPos // push current subject offset onto the backtracking stack
	PopPos  // pop the top of the backtracking stack into the subject offset
	PushInt // N1=literal value, pushed onto the backtracking stack
	Pop     // discard the top backtracking-stack word
	Decr    // decrement the top backtracking-stack word in place; sets OK = (new value > 0)

	CapStart        // N1=capture number; Flag=optimized (write ovector directly vs save+write)
	CapEnd          // N1=capture number; Flag=optimized
	CapRestore      // N1=capture number; pops the saved prior start/end back into the ovector
	CapRestoreStart // N1=capture number; pops a lone saved prior start (CapEnd never ran) back into the ovector

	Advance // N1=code points to consume without comparison (REVERSE's complement, bulk skip)
	Rewind  // N1=code points to step the subject pointer back

	CallLimitCheck // N1=fail target; decrements the shared call counter, jumps there at zero
	StackCheck     // N1=fail target (STACKLIMIT); N2=words needed, if the backtracking stack can't grow enough

	Mark   // Str=mark name
	Commit // unconditionally abandons the whole match attempt (NOMATCH)

	SetOK // Flag=literal value to force into the OK register

	Halt // N1=Result code; ends execution
)

var opNames = [...]string{
	Nop: "nop", MatchChar: "matchchar", MatchNotChar: "matchnotchar",
	MatchClass: "matchclass", MatchAny: "matchany", AnchorBOL: "anchorbol",
	AnchorEOL: "anchoreol", AnchorSOD: "anchorsod", AnchorSOM: "anchorsom",
	AnchorEOD: "anchoreod", AnchorEODN: "anchoreodn", Jmp: "jmp",
	JmpIfNotOK: "jmpifnotok", JmpIfOK: "jmpifok", Call: "call", Ret: "ret",
	CallNative: "callnative", PushPos: "pushpos", PopPos: "poppos",
	PushInt: "pushint", Pop: "pop", Decr: "decr", CapStart: "capstart",
	CapEnd: "capend", CapRestore: "caprestore", CapRestoreStart: "caprestorestart",
	Advance: "advance",
	Rewind: "rewind", CallLimitCheck: "calllimitcheck", StackCheck: "stackcheck",
	Mark: "mark", Commit: "commit", SetOK: "setok", Halt: "halt",
}

func (op Op) String() string {
	if int(op) < len(opNames) && opNames[op] != "" {
		return opNames[op]
	}
	return fmt.Sprintf("illegal op (%d)", op)
}

// Instr is one assembled instruction. Not every field is meaningful for
// every Op; see the Op constant comments above for which fields it reads.
type Instr struct {
	Op   Op
	N1   int
	N2   int
	R    rune
	Flag bool
	Str  string
}
