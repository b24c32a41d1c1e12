package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/martijn/innobackup-s3/internal/adapter/command"
	"github.com/martijn/innobackup-s3/internal/core/domain"
	"github.com/martijn/innobackup-s3/internal/core/repository"
)

type RestoreRequest struct {
	Bucket    string
	Directory string
	// CopyBack restores the downloaded chain into the database data directory
	CopyBack bool
}

func (r RestoreRequest) Args() map[string]interface{} {
	return map[string]interface{}{
		"bucket":    r.Bucket,
		"directory": r.Directory,
		"restore":   r.CopyBack,
	}
}

type RestoreResult struct {
	RunID string
	Chain domain.BackupChain
}

type RestoreService struct {
	storage repository.BackupStorage
	builder *command.Builder
	runner  command.Runner
	runs    *RunService
	cmp     domain.Comparator
	dryRun  bool
	logger  zerolog.Logger
}

// NewRestoreService wires the restore run. A nil cmp keeps byte order for
// the bucket listing.
func NewRestoreService(
	storage repository.BackupStorage,
	builder *command.Builder,
	runner command.Runner,
	runs *RunService,
	cmp domain.Comparator,
	dryRun bool,
	logger zerolog.Logger,
) *RestoreService {
	return &RestoreService{
		storage: storage,
		builder: builder,
		runner:  runner,
		runs:    runs,
		cmp:     cmp,
		dryRun:  dryRun,
		logger:  logger,
	}
}

// Restore downloads the most recent full backup and every later incremental
// from req.Bucket into req.Directory, then optionally copies it back.
func (s *RestoreService) Restore(ctx context.Context, req RestoreRequest) (*RestoreResult, error) {
	run, recorded := s.runs.Start(ctx, domain.RunTypeRestore, s.dryRun, req.Args())
	logger := s.logger.With().Str("run_id", run.ID).Logger()
	seq := s.runs.Sequencer(s.runner, s.dryRun, logger, run, recorded)

	result, err := s.restore(ctx, seq, logger, req)
	if result != nil {
		result.RunID = run.ID
	}

	s.runs.Finish(ctx, run, recorded, err)
	return result, err
}

func (s *RestoreService) restore(ctx context.Context, seq *command.Sequencer, logger zerolog.Logger, req RestoreRequest) (*RestoreResult, error) {
	if err := command.ValidateBucket(req.Bucket); err != nil {
		return nil, err
	}
	if err := command.ValidatePath("restore directory", req.Directory); err != nil {
		return nil, err
	}

	logger.Debug().Str("bucket", req.Bucket).Msg("listing backups")
	names, err := s.storage.ListBackups(ctx, req.Bucket)
	if err != nil {
		return nil, err
	}

	chain, err := domain.SelectChain(names, s.cmp)
	if err != nil {
		return nil, err
	}
	logger.Debug().Str("full", chain.Full().String()).Int("incrementals", len(chain.Incrementals())).Msg("selected backup chain")

	for _, name := range chain {
		logger.Debug().Str("backup", name.String()).Msg("adding backup to list of items to get")
		download, err := s.builder.Download(req.Bucket, name, req.Directory)
		if err != nil {
			return nil, err
		}
		if err := seq.MustSucceed(ctx, download, "copy from storage failed"); err != nil {
			return nil, err
		}
	}

	result := &RestoreResult{Chain: chain}
	if !req.CopyBack {
		return result, nil
	}

	copyBack, err := s.builder.CopyBack(req.Directory)
	if err != nil {
		return nil, err
	}
	if err := seq.MustSucceed(ctx, copyBack, "restore failed"); err != nil {
		return nil, err
	}

	return result, nil
}
