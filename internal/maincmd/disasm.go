package maincmd

import (
	"context"
	"fmt"

	"github.com/mna/mainer"
	"github.com/mna/pcrejit"
)

// Disasm compiles args[0]'s opcode file and prints the assembled program.
func (c *Cmd) Disasm(ctx context.Context, stdio mainer.Stdio, args []string) error {
	code, err := readOpcodes(args[0])
	if err != nil {
		return printError(stdio, err)
	}
	opts, err := c.compileOptions()
	if err != nil {
		return printError(stdio, err)
	}

	re, err := pcrejit.Compile(code, opts)
	if err != nil {
		return printError(stdio, fmt.Errorf("compile: %w", err))
	}

	fmt.Fprint(stdio.Stdout, re.Disassemble())
	return nil
}
