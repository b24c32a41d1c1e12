package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/martijn/innobackup-s3/internal/adapter/command"
	"github.com/martijn/innobackup-s3/internal/core/domain"
	"github.com/martijn/innobackup-s3/internal/core/repository"
)

// RunService records runs and their commands in the journal. The journal is
// optional and its failures never fail a run.
type RunService struct {
	journal repository.JournalRepository
	logger  zerolog.Logger
}

// NewRunService creates a run recorder. A nil journal disables recording.
func NewRunService(journal repository.JournalRepository, logger zerolog.Logger) *RunService {
	return &RunService{
		journal: journal,
		logger:  logger,
	}
}

// Start creates a run and records it. The returned run is always usable.
func (s *RunService) Start(ctx context.Context, runType domain.RunType, dryRun bool, args map[string]interface{}) (*domain.Run, bool) {
	run := domain.NewRun(runType, dryRun, args)
	if s.journal == nil {
		return run, false
	}

	if err := s.journal.CreateRun(ctx, run); err != nil {
		s.logger.Warn().Err(err).Str("run_id", run.ID).Msg("failed to record run in journal")
		return run, false
	}
	return run, true
}

// Sequencer returns a command sequencer that records its steps under run
// when the run was recorded.
func (s *RunService) Sequencer(runner command.Runner, dryRun bool, logger zerolog.Logger, run *domain.Run, recorded bool) *command.Sequencer {
	seq := command.NewSequencer(runner, dryRun, logger)
	if recorded {
		seq.WithJournal(s.journal, run.ID)
	}
	return seq
}

// Finish marks the run complete or failed.
func (s *RunService) Finish(ctx context.Context, run *domain.Run, recorded bool, runErr error) {
	if runErr != nil {
		run.Fail(runErr)
	} else {
		run.Complete()
	}

	if !recorded {
		return
	}
	// an interrupted run still gets its final status
	if err := s.journal.UpdateRun(context.WithoutCancel(ctx), run); err != nil {
		s.logger.Warn().Err(err).Str("run_id", run.ID).Msg("failed to update run in journal")
	}
}

// RunHistory is a journaled run with the commands it issued.
type RunHistory struct {
	Run   *domain.Run
	Steps []*domain.Step
}

// Recent returns up to limit journaled runs, newest first.
func (s *RunService) Recent(ctx context.Context, limit int) ([]RunHistory, error) {
	if s.journal == nil {
		return nil, domain.Errorf(domain.ErrJournal, "no journal configured")
	}

	runs, err := s.journal.ListRuns(ctx, limit)
	if err != nil {
		return nil, err
	}

	history := make([]RunHistory, 0, len(runs))
	for _, run := range runs {
		steps, err := s.journal.ListSteps(ctx, run.ID)
		if err != nil {
			return nil, err
		}
		history = append(history, RunHistory{Run: run, Steps: steps})
	}
	return history, nil
}

// Find returns one journaled run.
func (s *RunService) Find(ctx context.Context, id string) (*RunHistory, error) {
	if s.journal == nil {
		return nil, domain.Errorf(domain.ErrJournal, "no journal configured")
	}

	run, err := s.journal.FindRun(ctx, id)
	if err != nil {
		return nil, err
	}
	steps, err := s.journal.ListSteps(ctx, run.ID)
	if err != nil {
		return nil, err
	}
	return &RunHistory{Run: run, Steps: steps}, nil
}
