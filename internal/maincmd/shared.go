package maincmd

import (
	"fmt"
	"os"

	"github.com/mna/pcrejit"
	"github.com/mna/pcrejit/jit/codegen"
)

// readOpcodes loads the raw PCRE opcode stream a regex compiler would have
// produced (spec.md §1 places that compiler itself out of scope: every
// subcommand here starts from an already-compiled bytecode file, never
// from a pattern string).
func readOpcodes(path string) ([]byte, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read opcode file: %w", err)
	}
	return b, nil
}

func (c *Cmd) compileOptions() (pcrejit.Options, error) {
	nl, err := parseNewline(c.Newline)
	if err != nil {
		return pcrejit.Options{}, err
	}

	var flags pcrejit.Option
	if c.UTF {
		flags |= pcrejit.OptionUTF
	}
	if c.UCP {
		flags |= pcrejit.OptionUCP
	}
	if c.DollarEndOnly {
		flags |= pcrejit.OptionDollarEndOnly
	}
	if c.JavaScriptCompat {
		flags |= pcrejit.OptionJavaScriptCompat
	}

	return pcrejit.Options{
		Flags:     flags,
		Newline:   nl,
		CallLimit: c.CallLimit,
	}, nil
}

func parseNewline(name string) (codegen.NewlineConvention, error) {
	switch name {
	case "", "lf":
		return codegen.NewlineLF, nil
	case "cr":
		return codegen.NewlineCR, nil
	case "crlf":
		return codegen.NewlineCRLF, nil
	case "any":
		return codegen.NewlineAny, nil
	case "anycrlf":
		return codegen.NewlineAnyCRLF, nil
	default:
		return 0, fmt.Errorf("unknown --newline value %q", name)
	}
}

func (c *Cmd) execOptions() pcrejit.ExecOption {
	var o pcrejit.ExecOption
	if c.Anchored {
		o |= pcrejit.ExecAnchored
	}
	if c.NotBOL {
		o |= pcrejit.ExecNotBOL
	}
	if c.NotEOL {
		o |= pcrejit.ExecNotEOL
	}
	if c.NotEmpty {
		o |= pcrejit.ExecNotEmpty
	}
	if c.NotEmptyAtStart {
		o |= pcrejit.ExecNotEmptyAtStart
	}
	if c.PartialSoft {
		o |= pcrejit.ExecPartialSoft
	}
	if c.PartialHard {
		o |= pcrejit.ExecPartialHard
	}
	return o
}
