package command

import (
	"context"
	"io"
	"os"
	"os/exec"

	"github.com/cockroachdb/errors"

	"github.com/martijn/innobackup-s3/internal/core/domain"
)

// Runner executes a command and reports its exit status.
type Runner interface {
	Run(ctx context.Context, cmd Command) (int, error)
}

// ExecRunner starts commands as child processes, streaming their output to
// Stdout and Stderr.
type ExecRunner struct {
	Stdout io.Writer
	Stderr io.Writer
}

func NewExecRunner() *ExecRunner {
	return &ExecRunner{Stdout: os.Stdout, Stderr: os.Stderr}
}

// Run waits for cmd to finish. A command that starts and exits non-zero is
// not an error here: the exit status is returned as is. Failing to start the
// command, or being interrupted through ctx, is a CommandExecutionError.
func (r *ExecRunner) Run(ctx context.Context, cmd Command) (int, error) {
	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	c.Stdout = r.Stdout
	c.Stderr = r.Stderr

	err := c.Run()
	if err == nil {
		return 0, nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return -1, domain.Wrapf(ctxErr, domain.ErrCommandExecution, "command %s was interrupted", cmd)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}

	return -1, domain.Wrapf(err, domain.ErrCommandExecution, "unable to execute command %s", cmd)
}
