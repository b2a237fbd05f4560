// Package maincmd is cmd/pcrejit's command dispatch, structured the way the
// teacher's own internal/maincmd drives its parse/resolve/tokenize
// subcommands: a Cmd struct with `flag:"..."`-tagged fields that
// mna/mainer.Parser populates, and one exported method per subcommand,
// reflected into a name->func table by buildCmds. The subcommands differ
// entirely (compile/exec/disasm over a PCRE opcode stream instead of
// parse/resolve/tokenize over nenuphar source), but the dispatch shape is
// unchanged.
package maincmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/mna/mainer"
)

const binName = "pcrejit"

var (
	shortUsage = fmt.Sprintf(`
usage: %s [<option>...] <command> <opcode-file> [<arg>...]
Run '%[1]s --help' for details.
`, binName)

	longUsage = fmt.Sprintf(`usage: %s [<option>...] <command> <opcode-file> [<arg>...]
       %[1]s -h|--help
       %[1]s -v|--version

Drives the C1-C5 JIT pipeline (jit/bytecode, jit/layout, jit/codegen,
jit/asm, jit/vm) over an already-compiled PCRE opcode stream: this tool
never parses a regex pattern itself (spec.md §1 places the regex
parser/compiler out of this repository's scope), it only compiles and
exercises the bytecode a caller already produced.

The <command> can be one of:
       compile <opcode-file>              Run the planner and codegen
                                           pipeline and print a summary
                                           (instruction count and
                                           target name).
       disasm <opcode-file>                Compile and print the
                                           assembled program, one
                                           instruction per line.
       exec <opcode-file> <subject>        Compile and match subject
                                           against the program, printing
                                           the resulting ovector or
                                           failure code.

Valid flag options are:
       -h --help                 Show this help and exit.
       -v --version              Print version and exit.
       --utf                     Compile-time UTF mode (OptionUTF).
       --ucp                     Compile-time Unicode-property mode
                                 (OptionUCP).
       --dollar-endonly          OptionDollarEndOnly.
       --javascript-compat       OptionJavaScriptCompat.
       --newline <name>          One of lf, cr, crlf, any, anycrlf
                                 (default from PCREJIT_NEWLINE, else lf).
       --call-limit <n>          Match-attempt call-limit budget (0 means
                                 the built-in default; default from
                                 PCREJIT_CALL_LIMIT).

Valid flag options for the <exec> command are:
       --offset <n>              Start offset into the subject.
       --anchored                ExecAnchored.
       --notbol                  ExecNotBOL.
       --noteol                  ExecNotEOL.
       --notempty                ExecNotEmpty.
       --notempty-atstart        ExecNotEmptyAtStart.
       --partial-soft            ExecPartialSoft.
       --partial-hard            ExecPartialHard.

More information on the pcrejit repository:
       https://github.com/mna/pcrejit
`, binName)
)

type Cmd struct {
	BuildVersion string
	BuildDate    string

	Help    bool `flag:"h,help"`
	Version bool `flag:"v,version"`

	UTF                bool   `flag:"utf"`
	UCP                bool   `flag:"ucp"`
	DollarEndOnly      bool   `flag:"dollar-endonly"`
	JavaScriptCompat   bool   `flag:"javascript-compat"`
	Newline            string `flag:"newline"`
	CallLimit          int    `flag:"call-limit"`

	Offset          int  `flag:"offset"`
	Anchored        bool `flag:"anchored"`
	NotBOL          bool `flag:"notbol"`
	NotEOL          bool `flag:"noteol"`
	NotEmpty        bool `flag:"notempty"`
	NotEmptyAtStart bool `flag:"notempty-atstart"`
	PartialSoft     bool `flag:"partial-soft"`
	PartialHard     bool `flag:"partial-hard"`

	args  []string
	flags map[string]bool
	cmdFn func(context.Context, mainer.Stdio, []string) error
}

func (c *Cmd) SetArgs(args []string) {
	c.args = args
}

func (c *Cmd) SetFlags(flags map[string]bool) {
	c.flags = flags
}

func (c *Cmd) Validate() error {
	if c.Help || c.Version {
		return nil
	}

	if len(c.args) == 0 {
		return errors.New("no command specified")
	}

	cmdName := c.args[0]

	commands := buildCmds(c)
	c.cmdFn = commands[cmdName]
	if c.cmdFn == nil {
		return fmt.Errorf("unknown command: %s", c.args[0])
	}

	if len(c.args[1:]) == 0 {
		return fmt.Errorf("%s: an opcode-file argument is required", cmdName)
	}
	if cmdName == "exec" && len(c.args[2:]) == 0 {
		return fmt.Errorf("exec: a subject argument is required")
	}

	applyDefaults(c)
	return nil
}

func printError(stdio mainer.Stdio, err error) error {
	if err != nil {
		fmt.Fprintf(stdio.Stderr, "%s\n", err)
	}
	return err
}

func (c *Cmd) Main(args []string, stdio mainer.Stdio) mainer.ExitCode {
	p := mainer.Parser{
		EnvVars:   false,
		EnvPrefix: binName + "_",
	}
	if err := p.Parse(args, c); err != nil {
		fmt.Fprintf(stdio.Stderr, "invalid arguments: %s\n%s", err, shortUsage)
		return mainer.InvalidArgs
	}

	switch {
	case c.Help:
		fmt.Fprint(stdio.Stdout, longUsage)
		return mainer.Success

	case c.Version:
		fmt.Fprintf(stdio.Stdout, "%s %s %s\n", binName, c.BuildVersion, c.BuildDate)
		return mainer.Success
	}

	ctx := mainer.CancelOnSignal(context.Background(), os.Interrupt)
	if err := c.cmdFn(ctx, stdio, c.args[1:]); err != nil {
		return mainer.Failure
	}
	return mainer.Success
}

// valid commands are those that take a mainer.Stdio and a slice of strings
// as input, and return an error as output.
func buildCmds(v interface{}) map[string]func(context.Context, mainer.Stdio, []string) error {
	cmds := make(map[string]func(context.Context, mainer.Stdio, []string) error)

	vv := reflect.ValueOf(v)
	vt := vv.Type()
	for i := 0; i < vt.NumMethod(); i++ {
		m := vt.Method(i)
		mt := m.Type

		if mt.NumIn() != 4 || mt.NumOut() != 1 {
			continue
		}
		if rt := mt.Out(0); rt.Kind() != reflect.Interface || rt.Name() != "error" {
			continue
		}
		if p0 := mt.In(0); p0.Kind() != reflect.Ptr || p0.Elem().Name() != "Cmd" {
			continue
		}
		if p1 := mt.In(1); p1.Kind() != reflect.Interface || p1.Name() != "Context" {
			continue
		}
		if p2 := mt.In(2); p2.Kind() != reflect.Struct || p2.Name() != "Stdio" {
			continue
		}
		if p3 := mt.In(3); p3.Kind() != reflect.Slice || p3.Elem().Name() != "string" {
			continue
		}
		cmds[strings.ToLower(m.Name)] = vv.Method(i).Interface().(func(context.Context, mainer.Stdio, []string) error)
	}
	return cmds
}
