package asm

// JumpList accumulates instruction sites whose jump target is not yet
// known, exactly the "jump lists for deferred label fixup" design from
// spec.md §9: every helper call, alternative terminator, and recurse call
// starts life as an unresolved jump, and a single sweep patches every site
// in the list once the target address is established. This mirrors the
// teacher's own two-pass fixup (compiler.go's block.addr assignment and
// asm.go's indexToAddr translation), generalized from "one CFG" to
// "N independently-owned backtrack/helper/recurse targets".
type JumpList struct {
	sites []int // instruction indices awaiting a target patch
}

// Add records that the instruction at idx needs patching once this list is
// resolved.
func (jl *JumpList) Add(idx int) { jl.sites = append(jl.sites, idx) }

// Empty reports whether no site is pending (true for a nil list, and after
// Patch has resolved the list).
func (jl *JumpList) Empty() bool { return jl == nil || len(jl.sites) == 0 }

// Builder assembles a Program one instruction at a time, in the order the
// matching-path and backtracking-path emitters (jit/codegen) visit the
// opcode stream.
type Builder struct {
	instrs  []Instr
	classes [][32]byte
	natives []NativeFunc
}

// NativeFunc is a lookup-table or decoding contract the spec places out of
// scope for the codegen/backtracking logic itself (Unicode property
// tables, casefolding tables): a Go closure invoked via CallNative. The
// argument is the running jit/vm.Thread, passed as interface{} here so
// this package stays free of a dependency on jit/vm; jit/vm type-asserts
// it back on the call side.
type NativeFunc func(thread interface{}) bool

func NewBuilder() *Builder { return &Builder{} }

// Pos returns the address (instruction index) the next Emit call will
// occupy — i.e. "here", for placing a label.
func (b *Builder) Pos() int { return len(b.instrs) }

// NewJumpList returns a fresh, empty JumpList.
func (b *Builder) NewJumpList() *JumpList { return &JumpList{} }

// Patch resolves every site recorded in jl to target. It is safe to call
// with a nil or empty jl.
func (b *Builder) Patch(jl *JumpList, target int) {
	if jl == nil {
		return
	}
	for _, idx := range jl.sites {
		b.instrs[idx].N1 = target
	}
	jl.sites = nil
}

// PatchHere patches jl to the current position.
func (b *Builder) PatchHere(jl *JumpList) { b.Patch(jl, b.Pos()) }

// Merge appends src's unresolved sites into dst, for the "next_backtracks"/
// "top_backtracks" propagation pattern in spec.md §3 (a construct that
// fails forwards its failure into its parent's list).
func (b *Builder) Merge(dst, src *JumpList) {
	if src == nil {
		return
	}
	dst.sites = append(dst.sites, src.sites...)
}

func (b *Builder) emit(i Instr) int {
	b.instrs = append(b.instrs, i)
	return len(b.instrs) - 1
}

func (b *Builder) Nop() int { return b.emit(Instr{Op: Nop}) }

func (b *Builder) MatchChar(r rune, caseless bool) int {
	return b.emit(Instr{Op: MatchChar, R: r, Flag: caseless})
}
func (b *Builder) MatchNotChar(r rune, caseless bool) int {
	return b.emit(Instr{Op: MatchNotChar, R: r, Flag: caseless})
}

// Class registers bitmap (if not already known) and emits MatchClass.
func (b *Builder) Class(bitmap [32]byte, negate bool) int {
	idx := b.internClass(bitmap)
	return b.emit(Instr{Op: MatchClass, N1: idx, Flag: negate})
}

func (b *Builder) internClass(bitmap [32]byte) int {
	for i, c := range b.classes {
		if c == bitmap {
			return i
		}
	}
	b.classes = append(b.classes, bitmap)
	return len(b.classes) - 1
}

func (b *Builder) MatchAny(dotAll bool) int { return b.emit(Instr{Op: MatchAny, Flag: dotAll}) }

func (b *Builder) AnchorBOL(multiline bool) int { return b.emit(Instr{Op: AnchorBOL, Flag: multiline}) }
func (b *Builder) AnchorEOL(multiline bool) int { return b.emit(Instr{Op: AnchorEOL, Flag: multiline}) }
func (b *Builder) AnchorSOD() int               { return b.emit(Instr{Op: AnchorSOD}) }
func (b *Builder) AnchorSOM() int               { return b.emit(Instr{Op: AnchorSOM}) }
func (b *Builder) AnchorEOD() int               { return b.emit(Instr{Op: AnchorEOD}) }
func (b *Builder) AnchorEODN() int              { return b.emit(Instr{Op: AnchorEODN}) }

// Jmp emits an unconditional jump and records it in jl for later patching;
// jl may be nil if target is already known (pass JmpTo instead).
func (b *Builder) Jmp(jl *JumpList) int {
	idx := b.emit(Instr{Op: Jmp, N1: -1})
	if jl != nil {
		jl.Add(idx)
	}
	return idx
}

// JmpTo emits an unconditional jump to an already-known address.
func (b *Builder) JmpTo(target int) int { return b.emit(Instr{Op: Jmp, N1: target}) }

func (b *Builder) JmpIfNotOK(jl *JumpList) int {
	idx := b.emit(Instr{Op: JmpIfNotOK, N1: -1})
	if jl != nil {
		jl.Add(idx)
	}
	return idx
}

func (b *Builder) JmpIfOK(jl *JumpList) int {
	idx := b.emit(Instr{Op: JmpIfOK, N1: -1})
	if jl != nil {
		jl.Add(idx)
	}
	return idx
}

// Call emits a fast-call; jl accumulates call sites awaiting the callee's
// body label, exactly as spec.md §3's "Recurse entry. pending-call jump
// list (all call sites to be patched when the body label is known)." group
// is the source capture number the recursion enters (0 for a non-capturing
// group or whole-pattern recursion), carried in N2 for InRecursion checks.
func (b *Builder) Call(jl *JumpList, group int) int {
	idx := b.emit(Instr{Op: Call, N1: -1, N2: group})
	if jl != nil {
		jl.Add(idx)
	}
	return idx
}

func (b *Builder) CallTo(target, group int) int {
	return b.emit(Instr{Op: Call, N1: target, N2: group})
}

func (b *Builder) Ret() int { return b.emit(Instr{Op: Ret}) }

// CallNative registers fn (if new) and emits CallNative.
func (b *Builder) CallNative(fn NativeFunc) int {
	idx := b.internNative(fn)
	return b.emit(Instr{Op: CallNative, N1: idx})
}

func (b *Builder) internNative(fn NativeFunc) int {
	b.natives = append(b.natives, fn)
	return len(b.natives) - 1
}

func (b *Builder) PushPos() int       { return b.emit(Instr{Op: PushPos}) }
func (b *Builder) PopPos() int        { return b.emit(Instr{Op: PopPos}) }
func (b *Builder) PushInt(v int) int  { return b.emit(Instr{Op: PushInt, N1: v}) }
func (b *Builder) Pop() int           { return b.emit(Instr{Op: Pop}) }
func (b *Builder) Decr() int          { return b.emit(Instr{Op: Decr}) }

func (b *Builder) CapStart(num int, optimized bool) int {
	return b.emit(Instr{Op: CapStart, N1: num, Flag: optimized})
}
func (b *Builder) CapEnd(num int, optimized bool) int {
	return b.emit(Instr{Op: CapEnd, N1: num, Flag: optimized})
}
func (b *Builder) CapRestore(num int) int { return b.emit(Instr{Op: CapRestore, N1: num}) }

// CapRestoreStart undoes a single CapStart push whose matching CapEnd never
// ran (a zero-matched optional repetition bailing out of its body before
// closing the bracket): see brackets.go's compileBracket for why this needs
// a one-word restore distinct from CapRestore's paired start+end pop.
func (b *Builder) CapRestoreStart(num int) int {
	return b.emit(Instr{Op: CapRestoreStart, N1: num})
}

func (b *Builder) Advance(n int) int { return b.emit(Instr{Op: Advance, N1: n}) }
func (b *Builder) Rewind(n int) int  { return b.emit(Instr{Op: Rewind, N1: n}) }

func (b *Builder) CallLimitCheck(jl *JumpList) int {
	idx := b.emit(Instr{Op: CallLimitCheck, N1: -1})
	if jl != nil {
		jl.Add(idx)
	}
	return idx
}

func (b *Builder) StackCheck(words int, jl *JumpList) int {
	idx := b.emit(Instr{Op: StackCheck, N1: -1, N2: words})
	if jl != nil {
		jl.Add(idx)
	}
	return idx
}

func (b *Builder) Mark(name string) int { return b.emit(Instr{Op: Mark, Str: name}) }
func (b *Builder) Commit() int          { return b.emit(Instr{Op: Commit}) }
func (b *Builder) SetOK(v bool) int     { return b.emit(Instr{Op: SetOK, Flag: v}) }
func (b *Builder) Halt(result int) int  { return b.emit(Instr{Op: Halt, N1: result}) }

// Program finalizes the assembled instructions. Every JumpList the caller
// holds must already be patched (checked by codegen, not here: this
// package has no notion of which lists "belong" to a finished compile).
func (b *Builder) Program() *Program {
	return &Program{
		Instrs:  b.instrs,
		Classes: b.classes,
		Natives: b.natives,
	}
}
