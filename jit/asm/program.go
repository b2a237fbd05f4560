package asm

// Result codes a Program's Halt instruction can produce, mirroring
// spec.md §7's named return values for a match attempt.
const (
	ResultNoMatch = iota
	ResultMatch
	ResultPartial
	ResultMatchLimit
	ResultStackLimit
	ResultBadOption
	ResultRecursionLimit
)

// Program is the assembled, directly-interpretable artifact this package
// produces in place of per-architecture native machine code. jit/vm walks
// Instrs with a program counter exactly the way a CPU would walk real
// instructions; Classes and Natives are its two non-code data segments.
type Program struct {
	Instrs  []Instr
	Classes [][32]byte
	Natives []NativeFunc

	// Captures is the highest capture group number the program writes into
	// the ovector (jit/layout.Layout.MaxCapture, carried through so jit/vm
	// can size the ovector without re-walking the source opcode stream).
	Captures int

	// FrameWords is the private-data/frame-size planning result
	// (jit/layout.Layout.TotalSize), the number of words jit/vm must
	// allocate in the argument block's private-data area per match attempt.
	FrameWords int

	// StartBitmap, when non-nil, is a start-of-match first-code-point
	// class. jit/codegen never sets it and jit/vm does not read it: every
	// start offset is tried by running the program.
	StartBitmap *[32]byte
	// RequiredByte is a slot for a literal byte known to appear later in
	// every match. jit/codegen never sets it (it stays 0) and jit/vm does
	// not read it.
	RequiredByte int

	// AnchoredStart reports whether the program can only ever match at the
	// start of the subject (or after a starting offset), letting jit/vm
	// skip its scan loop after the first attempt. jit/codegen leaves it
	// false; jit/vm.Match honors it when it is set.
	AnchoredStart bool
}
