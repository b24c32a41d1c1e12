package command

import (
	"strings"

	"github.com/kballard/go-shellquote"
)

const redacted = "REDACTED"

// Command is an external program invocation as an argv list. It is never
// passed through a shell.
type Command struct {
	Name string
	Args []string

	// SecretArgs are indexes into Args whose values must not appear in
	// rendered output. An "--option=value" argument keeps its option name.
	SecretArgs []int
}

// Argv returns the program followed by its arguments.
func (c Command) Argv() []string {
	return append([]string{c.Name}, c.Args...)
}

// String renders the command as a shell-quoted line with secrets masked. The
// result is meant for logs and the journal only.
func (c Command) String() string {
	argv := c.Argv()
	for _, i := range c.SecretArgs {
		if i < 0 || i >= len(c.Args) {
			continue
		}
		argv[i+1] = redact(c.Args[i])
	}
	return shellquote.Join(argv...)
}

func redact(arg string) string {
	if option, _, ok := strings.Cut(arg, "="); ok && strings.HasPrefix(option, "-") {
		return option + "=" + redacted
	}
	return redacted
}
