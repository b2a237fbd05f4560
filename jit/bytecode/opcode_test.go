package bytecode

import (
	"strings"
	"testing"
)

func TestOpcodeString(t *testing.T) {
	for op := Opcode(0); op <= opcodeMax; op++ {
		if opcodeNames[op] == "" {
			t.Errorf("missing string representation of opcode %d", op)
			continue
		}
		if s := op.String(); strings.Contains(s, "illegal") {
			t.Errorf("invalid string representation of opcode %d", op)
		}
	}
}

func TestIsKet(t *testing.T) {
	for _, op := range []Opcode{Ket, KetRMax, KetRMin, KetRPos} {
		if !IsKet(op) {
			t.Errorf("%s: want ket", op)
		}
	}
	if IsKet(Char) {
		t.Errorf("char: want not-ket")
	}
}
