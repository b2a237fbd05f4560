package codegen

import (
	"fmt"

	"github.com/mna/pcrejit/jit/bytecode"
)

func errUnsupported(op bytecode.Opcode, pos int) error {
	return fmt.Errorf("codegen: unsupported opcode %s at %d", op, pos)
}
