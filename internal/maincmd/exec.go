package maincmd

import (
	"context"
	"fmt"

	"github.com/mna/mainer"
	"github.com/mna/pcrejit"
)

// Exec compiles args[0]'s opcode file and matches args[1] (the subject,
// taken as a literal command-line argument rather than a file: unlike the
// opcode stream, a subject is ordinary text) against it, printing the
// resulting ovector, mark, or failure code.
func (c *Cmd) Exec(ctx context.Context, stdio mainer.Stdio, args []string) error {
	code, err := readOpcodes(args[0])
	if err != nil {
		return printError(stdio, err)
	}
	subject := []byte(args[1])

	opts, err := c.compileOptions()
	if err != nil {
		return printError(stdio, err)
	}
	re, err := pcrejit.Compile(code, opts)
	if err != nil {
		return printError(stdio, fmt.Errorf("compile: %w", err))
	}

	m, err := re.Exec(subject, c.Offset, nil, c.execOptions())
	if err != nil {
		return printError(stdio, fmt.Errorf("exec: %w", err))
	}
	if m == nil {
		fmt.Fprintln(stdio.Stdout, "no match")
		return nil
	}

	if m.Partial {
		fmt.Fprintf(stdio.Stdout, "partial match: [%d, %d]\n", m.Ovector[0], m.Ovector[1])
		return nil
	}

	fmt.Fprintf(stdio.Stdout, "match: [%d, %d]\n", m.Ovector[0], m.Ovector[1])
	for i := 2; i+1 < len(m.Ovector); i += 2 {
		fmt.Fprintf(stdio.Stdout, "  group %d: [%d, %d]\n", i/2, m.Ovector[i], m.Ovector[i+1])
	}
	if m.Mark != "" {
		fmt.Fprintf(stdio.Stdout, "mark: %s\n", m.Mark)
	}
	return nil
}
