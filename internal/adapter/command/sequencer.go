package command

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"

	"github.com/martijn/innobackup-s3/internal/core/domain"
	"github.com/martijn/innobackup-s3/internal/core/repository"
)

// Sequencer issues commands one at a time. In dry-run mode commands are
// rendered and logged exactly as in a real run but never handed to the
// runner, and every command reports success.
type Sequencer struct {
	runner  Runner
	dryRun  bool
	logger  zerolog.Logger
	journal repository.JournalRepository
	runID   string
}

func NewSequencer(runner Runner, dryRun bool, logger zerolog.Logger) *Sequencer {
	return &Sequencer{
		runner: runner,
		dryRun: dryRun,
		logger: logger,
	}
}

// WithJournal records every executed command as a step of runID.
func (s *Sequencer) WithJournal(journal repository.JournalRepository, runID string) *Sequencer {
	s.journal = journal
	s.runID = runID
	return s
}

// Execute runs cmd and returns its exit status.
func (s *Sequencer) Execute(ctx context.Context, cmd Command) (int, error) {
	rendered := cmd.String()
	s.logger.Info().Str("exec", rendered).Msg("executing command")

	step := s.startStep(ctx, rendered)

	if s.dryRun {
		s.finishStep(ctx, step, 0, nil)
		return 0, nil
	}

	code, err := s.runner.Run(ctx, cmd)
	s.finishStep(ctx, step, code, err)
	return code, err
}

// MustSucceed runs cmd and turns a non-zero exit status into a
// NonZeroExitError.
func (s *Sequencer) MustSucceed(ctx context.Context, cmd Command, what string) error {
	code, err := s.Execute(ctx, cmd)
	if err != nil {
		return errors.Wrapf(err, "%s", what)
	}
	if code != 0 {
		return errors.Wrapf(&domain.NonZeroExitError{Command: cmd.String(), ExitCode: code}, "%s", what)
	}
	return nil
}

func (s *Sequencer) startStep(ctx context.Context, rendered string) *domain.Step {
	if s.journal == nil {
		return nil
	}

	step := domain.NewStep(s.runID, rendered)
	if err := s.journal.CreateStep(ctx, step); err != nil {
		s.logger.Warn().Err(err).Msg("failed to record command in journal")
		return nil
	}
	return step
}

func (s *Sequencer) finishStep(ctx context.Context, step *domain.Step, code int, runErr error) {
	if step == nil {
		return
	}

	if runErr != nil {
		step.Fail(runErr)
	} else {
		step.Complete(code)
	}
	if err := s.journal.UpdateStep(ctx, step); err != nil {
		s.logger.Warn().Err(err).Msg("failed to update command in journal")
	}
}
