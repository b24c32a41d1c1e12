package cli

import (
	"bufio"
	"fmt"
	"strings"

	"golang.org/x/term"

	"github.com/martijn/innobackup-s3/internal/core/domain"
	"github.com/martijn/innobackup-s3/internal/infrastructure/filesystem"
)

// stdinPassword selects reading the password from standard input instead of a
// file.
const stdinPassword = "-"

// readPassword returns the database password named by the --password flag.
// "-" prompts on a terminal or reads the first line of piped input.
func readPassword(env *Environment, path string) (string, error) {
	if path != stdinPassword {
		return filesystem.ReadPassword(env.Fs, path)
	}

	if env.Stdin == nil {
		return "", domain.Errorf(domain.ErrCredentialRead, "no standard input to read the password from")
	}

	fd := int(env.Stdin.Fd())
	if term.IsTerminal(fd) {
		fmt.Fprint(env.Stderr, "Password: ")
		password, err := term.ReadPassword(fd)
		fmt.Fprintln(env.Stderr)
		if err != nil {
			return "", domain.Wrapf(err, domain.ErrCredentialRead, "failed to read password")
		}
		return string(password), nil
	}

	line, err := bufio.NewReader(env.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", domain.Wrapf(err, domain.ErrCredentialRead, "unable to read password from standard input")
	}
	return strings.TrimRight(line, "\r\n"), nil
}
