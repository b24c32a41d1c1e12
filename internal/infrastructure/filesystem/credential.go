package filesystem

import (
	"bufio"
	"io"
	"strings"

	"github.com/spf13/afero"

	"github.com/martijn/innobackup-s3/internal/core/domain"
)

// ReadPassword reads a one line password file. Trailing carriage returns and
// newlines are stripped; everything else is part of the secret.
func ReadPassword(fs afero.Fs, path string) (string, error) {
	f, err := fs.Open(path)
	if err != nil {
		return "", domain.Wrapf(err, domain.ErrCredentialRead, "unable to access password file %s", path)
	}
	defer f.Close()

	line, err := bufio.NewReader(f).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", domain.Wrapf(err, domain.ErrCredentialRead, "unable to read password file %s", path)
	}

	return strings.TrimRight(line, "\r\n"), nil
}
