package domain

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Error kinds. Every failure raised by the tools is marked with exactly one of
// these so callers can classify it with errors.Is.
var (
	ErrArgument         = errors.New("argument error")
	ErrDirectoryAccess  = errors.New("directory access error")
	ErrEmptyDirectory   = errors.New("empty directory")
	ErrCredentialRead   = errors.New("credential read error")
	ErrCommandExecution = errors.New("command execution error")
	ErrChainNotFound    = errors.New("backup chain not found")
	ErrStorageAccess    = errors.New("storage access error")
	ErrJournal          = errors.New("journal error")
)

// NonZeroExitError reports an external command that ran but exited with a
// failure status.
type NonZeroExitError struct {
	Command  string
	ExitCode int
}

func (e *NonZeroExitError) Error() string {
	return fmt.Sprintf("command did not execute successfully, executed %s, returned %d", e.Command, e.ExitCode)
}

// Errorf creates a new error of the given kind.
func Errorf(kind error, format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), kind)
}

// Wrapf wraps err with a message and marks the result with kind.
func Wrapf(err error, kind error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return errors.Mark(errors.Wrapf(err, format, args...), kind)
}

// IsArgumentError reports whether err was caused by a malformed invocation.
func IsArgumentError(err error) bool {
	return errors.Is(err, ErrArgument)
}
