package maincmd

import (
	"context"
	"fmt"

	"github.com/mna/mainer"
	"github.com/mna/pcrejit"
)

// Compile runs the C1-C5 pipeline over args[0]'s opcode file and prints a
// one-line summary: the instruction count (Regex.CodeSize, pcrejit's
// analogue of pcre2_pattern_info's JITSIZE) and the target name.
func (c *Cmd) Compile(ctx context.Context, stdio mainer.Stdio, args []string) error {
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

	fmt.Fprintf(stdio.Stdout, "%s: ok, %d instruction(s), target %s\n", args[0], re.CodeSize(), pcrejit.TargetName())
	return nil
}
