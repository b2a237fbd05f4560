package bytecode

import (
	"encoding/binary"
	"unicode/utf8"
)

// Builder assembles an opcode stream by hand. It exists because the regex
// parser/compiler that would normally produce this stream is out of scope
// (spec.md §1); tests and callers that need a concrete program build one
// directly with a Builder, the same role compiler.Asm plays for the
// teacher's VM bytecode when bypassing its parser.
type Builder struct {
	code []byte
	// fixups maps a byte offset holding a pending link field to the label it
	// refers to; Label resolves them against the position reached so far.
	fixups map[int]string
	labels map[string]int
}

func NewBuilder() *Builder {
	return &Builder{fixups: make(map[int]string), labels: make(map[string]int)}
}

// Label records that name refers to the current write position.
func (b *Builder) Label(name string) { b.labels[name] = len(b.code) }

// Pos returns the current write position.
func (b *Builder) Pos() int { return len(b.code) }

func (b *Builder) op(op Opcode) { b.code = append(b.code, byte(op)) }

func (b *Builder) link(label string) {
	b.fixups[len(b.code)] = label
	b.code = append(b.code, 0, 0, 0, 0)
}

func (b *Builder) uint32(v uint32) {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	b.code = append(b.code, tmp[:]...)
}

func (b *Builder) uint16(v uint16) {
	var tmp [2]byte
	binary.BigEndian.PutUint16(tmp[:], v)
	b.code = append(b.code, tmp[:]...)
}

// Char emits Char/CharI/NotChar/NotCharI with the given literal code point.
func (b *Builder) Char(op Opcode, r rune) {
	b.op(op)
	var tmp [utf8.UTFMax]byte
	n := utf8.EncodeRune(tmp[:], r)
	b.code = append(b.code, tmp[:n]...)
}

// Simple emits a fixed, argument-less opcode (anchors, Any, Fail, etc).
func (b *Builder) Simple(op Opcode) { b.op(op) }

// Class emits Class/NClass with the given 32-byte bitmap.
func (b *Builder) Class(op Opcode, bitmap [32]byte) {
	b.op(op)
	b.code = append(b.code, bitmap[:]...)
}

// XClass emits an XCLASS extended class: a 2-byte payload length followed
// by the 32-byte bitmap prefix and any trailing property-clause bytes (see
// jit/codegen/natives.go's parseXClassProperties for that trailing format).
func (b *Builder) XClass(bitmap [32]byte, propertyClauses []byte) {
	b.op(XClass)
	payload := append(append([]byte{}, bitmap[:]...), propertyClauses...)
	b.uint16(uint16(len(payload)))
	b.code = append(b.code, payload...)
}

// Iter emits an iterator header (min, max; max==0xFFFFFFFF means unbounded)
// followed by calling atom to emit the single inline atom it repeats.
func (b *Builder) Iter(op Opcode, min, max uint32, atom func()) {
	b.op(op)
	b.uint32(min)
	b.uint32(max)
	atom()
}

// OpenBracket emits a non-capturing bracket opener (Bra/SBra/Once/OnceNC)
// whose link points to label (set later with Label), typically the
// position just past the matching ket.
func (b *Builder) OpenBracket(op Opcode, endLabel string) {
	b.op(op)
	b.link(endLabel)
}

// OpenCapture emits a capturing/possessive bracket opener with its capture
// number.
func (b *Builder) OpenCapture(op Opcode, endLabel string, captureNum uint16) {
	b.op(op)
	b.link(endLabel)
	b.uint16(captureNum)
}

// OpenCond emits Cond/SCond.
func (b *Builder) OpenCond(op Opcode, endLabel string) {
	b.op(op)
	b.link(endLabel)
}

func (b *Builder) BraZero(op Opcode) { b.op(op) } // BraZero or BraMinZero

// Alt emits an alternative separator whose link points to nextLabel (the
// next alternative, or the ket if this is the last one).
func (b *Builder) Alt(nextLabel string) {
	b.op(Alt)
	b.link(nextLabel)
}

// Ket emits a closing ket whose link points back to the bracket's start
// (startLabel), the position the repeat machinery restarts from.
func (b *Builder) Ket(op Opcode, startLabel string) {
	b.op(op)
	b.link(startLabel)
}

func (b *Builder) CRef(captureNum uint16) {
	b.op(CRef)
	b.uint16(captureNum)
}

func (b *Builder) NCRef(nameIndex uint32) {
	b.op(NCRef)
	b.uint32(nameIndex)
}

func (b *Builder) RRef(groupNum uint32) {
	b.op(RRef)
	b.uint32(groupNum)
}

func (b *Builder) NRRef(nameIndex uint32) {
	b.op(NRRef)
	b.uint32(nameIndex)
}

// OpenAssert emits Assert/AssertNot/AssertBack/AssertBackNot.
func (b *Builder) OpenAssert(op Opcode, endLabel string) {
	b.op(op)
	b.link(endLabel)
}

func (b *Builder) Reverse(backSteps uint32) {
	b.op(Reverse)
	b.uint32(backSteps)
}

func (b *Builder) Ref(op Opcode, captureNum uint16) {
	b.op(op)
	b.uint16(captureNum)
}

func (b *Builder) Recurse(targetLabel string) {
	b.op(Recurse)
	b.link(targetLabel)
}

func (b *Builder) Mark(op Opcode, name string) {
	b.op(op)
	b.code = append(b.code, byte(len(name)))
	b.code = append(b.code, name...)
}

func (b *Builder) End() { b.op(End) }

// Program resolves all pending label fixups and returns the finished
// opcode stream.
func (b *Builder) Program() []byte {
	for pos, label := range b.fixups {
		target, ok := b.labels[label]
		if !ok {
			panic("bytecode: undefined label " + label)
		}
		binary.BigEndian.PutUint32(b.code[pos:], uint32(target))
	}
	return b.code
}
