package maincmd

import (
	"github.com/caarlos0/env/v6"
)

// defaults holds the environment-sourced fallbacks for flags the caller
// left unset, the same "caarlos0/env reads a small config struct" pattern
// the teacher's own dependency tree carries (env/v6 was already an
// indirect dependency via mna/mainer's module graph; this is where the
// repository actually calls it).
type defaults struct {
	Newline   string `env:"PCREJIT_NEWLINE" envDefault:"lf"`
	CallLimit int    `env:"PCREJIT_CALL_LIMIT" envDefault:"0"`
}

// applyDefaults fills c.Newline/c.CallLimit from the environment when the
// corresponding flag was not given on the command line. Parse errors in
// the environment are silently ignored in favor of the struct's own
// envDefault tags, since a malformed env var should not make every
// invocation of the tool fail validation.
func applyDefaults(c *Cmd) {
	var d defaults
	_ = env.Parse(&d)

	if !c.flags["newline"] && c.Newline == "" {
		c.Newline = d.Newline
	}
	if !c.flags["call-limit"] && c.CallLimit == 0 {
		c.CallLimit = d.CallLimit
	}
}
