package service

import (
	"context"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/martijn/innobackup-s3/internal/adapter/command"
	"github.com/martijn/innobackup-s3/internal/core/domain"
	"github.com/martijn/innobackup-s3/internal/core/repository"
)

// BackupState is a step of the backup run.
type BackupState string

const (
	BackupStateStart       BackupState = "START"
	BackupStateResolveBase BackupState = "RESOLVE_BASE_DIR"
	BackupStateCreate      BackupState = "CREATE_BACKUP"
	BackupStateResolveNew  BackupState = "RESOLVE_NEW_DIR"
	BackupStateTransfer    BackupState = "TRANSFER_TO_STORAGE"
	BackupStateRemove      BackupState = "REMOVE_OLDEST"
	BackupStateDone        BackupState = "DONE"
	BackupStateFailed      BackupState = "FAILED"
)

type BackupRequest struct {
	Directory string
	Password  string
	Bucket    string
	Type      domain.BackupType
	NoRemove  bool
}

// Args returns the request as journal arguments with the password left out.
func (r BackupRequest) Args() map[string]interface{} {
	return map[string]interface{}{
		"directory":   r.Directory,
		"bucket":      r.Bucket,
		"backup_type": string(r.Type),
		"no_remove":   r.NoRemove,
	}
}

type BackupResult struct {
	RunID string
	// BaseDir is empty for a full backup into an empty directory
	BaseDir    string
	NewDir     string
	UploadName string
	// Removed is empty when nothing was removed
	Removed string
}

type BackupService struct {
	dirs    repository.BackupDirectory
	builder *command.Builder
	runner  command.Runner
	runs    *RunService
	cmp     domain.Comparator
	dryRun  bool
	logger  zerolog.Logger

	state BackupState
}

// NewBackupService wires the backup run. A nil cmp keeps the
// case-insensitive directory order.
func NewBackupService(
	dirs repository.BackupDirectory,
	builder *command.Builder,
	runner command.Runner,
	runs *RunService,
	cmp domain.Comparator,
	dryRun bool,
	logger zerolog.Logger,
) *BackupService {
	return &BackupService{
		dirs:    dirs,
		builder: builder,
		runner:  runner,
		runs:    runs,
		cmp:     cmp,
		dryRun:  dryRun,
		logger:  logger,
		state:   BackupStateStart,
	}
}

// State returns where the last run got to.
func (s *BackupService) State() BackupState {
	return s.state
}

// Backup takes a new backup below req.Directory, copies it to req.Bucket and
// removes the oldest local backup directory.
func (s *BackupService) Backup(ctx context.Context, req BackupRequest) (*BackupResult, error) {
	s.state = BackupStateStart

	run, recorded := s.runs.Start(ctx, domain.RunTypeBackup, s.dryRun, req.Args())
	logger := s.logger.With().Str("run_id", run.ID).Logger()
	seq := s.runs.Sequencer(s.runner, s.dryRun, logger, run, recorded)

	result, err := s.backup(ctx, seq, logger, req)
	if err != nil {
		failedIn := s.state
		s.state = BackupStateFailed
		err = newStateError(string(failedIn), err)
	} else {
		s.state = BackupStateDone
		result.RunID = run.ID
	}

	s.runs.Finish(ctx, run, recorded, err)
	return result, err
}

func (s *BackupService) backup(ctx context.Context, seq *command.Sequencer, logger zerolog.Logger, req BackupRequest) (*BackupResult, error) {
	if err := validateBackupRequest(req); err != nil {
		return nil, err
	}
	result := &BackupResult{}

	// 1. determine the most recent backup directory
	s.state = BackupStateResolveBase
	before, err := s.localSet(ctx, req.Directory)
	if err != nil {
		return nil, err
	}
	logger.Debug().Strs("directories", before.Names()).Msg("found backup directories")

	base, err := before.MostRecent()
	if err != nil && req.Type == domain.BackupTypeIncremental {
		return nil, err
	}
	result.BaseDir = base
	logger.Debug().Str("base", base).Msg("resolved base backup directory")

	// 2. take the backup
	s.state = BackupStateCreate
	if req.Type == domain.BackupTypeFull {
		err = s.createFull(ctx, seq, logger, req, base)
	} else {
		err = s.createIncremental(ctx, seq, req, base)
	}
	if err != nil {
		return nil, err
	}

	// 3. the new backup is now the most recent directory
	s.state = BackupStateResolveNew
	after, err := s.localSet(ctx, req.Directory)
	if err != nil {
		return nil, err
	}
	newDir, err := s.newDirectory(after, base)
	if err != nil {
		return nil, err
	}
	result.NewDir = newDir
	result.UploadName = domain.UploadName(newDir, req.Type)
	logger.Debug().Str("new", newDir).Str("upload", result.UploadName).Msg("resolved new backup directory")

	s.state = BackupStateTransfer
	upload, err := s.builder.Upload(filepath.Join(req.Directory, newDir), req.Bucket, result.UploadName)
	if err != nil {
		return nil, err
	}
	if err := seq.MustSucceed(ctx, upload, "copy to storage failed"); err != nil {
		return nil, err
	}

	// 4. retention, only after a successful transfer
	s.state = BackupStateRemove
	if req.NoRemove {
		logger.Debug().Msg("not removing oldest backup directory")
		return result, nil
	}

	oldest, err := after.Oldest()
	if err != nil {
		return nil, err
	}
	if oldest == newDir {
		logger.Warn().Str("directory", oldest).Msg("oldest backup directory is the new backup, not removing it")
		return result, nil
	}

	logger.Info().Str("directory", filepath.Join(req.Directory, oldest)).Msg("removing oldest backup directory")
	if s.dryRun {
		return result, nil
	}
	if err := s.dirs.Remove(ctx, req.Directory, oldest); err != nil {
		return nil, err
	}
	result.Removed = oldest

	return result, nil
}

func (s *BackupService) createIncremental(ctx context.Context, seq *command.Sequencer, req BackupRequest, base string) error {
	cmd, err := s.builder.IncrementalBackup(req.Directory, req.Password, filepath.Join(req.Directory, base))
	if err != nil {
		return err
	}
	return seq.MustSucceed(ctx, cmd, "backup failed")
}

// createFull takes the backup and applies the log to the directory it
// created.
func (s *BackupService) createFull(ctx context.Context, seq *command.Sequencer, logger zerolog.Logger, req BackupRequest, base string) error {
	cmd, err := s.builder.FullBackup(req.Directory)
	if err != nil {
		return err
	}
	if err := seq.MustSucceed(ctx, cmd, "backup failed"); err != nil {
		return err
	}

	created, err := s.localSet(ctx, req.Directory)
	if err != nil {
		return err
	}
	fullDir, err := s.newDirectory(created, base)
	if err != nil {
		return err
	}
	logger.Debug().Str("directory", fullDir).Msg("applying log to full backup")

	applyLog, err := s.builder.ApplyLog(filepath.Join(req.Directory, fullDir))
	if err != nil {
		return err
	}
	return seq.MustSucceed(ctx, applyLog, "apply log failed")
}

// newDirectory returns the most recent directory after the backup command.
// A real run that left the most recent directory unchanged produced nothing
// worth uploading. A dry run never creates one, so the most recent existing
// directory stands in for it.
func (s *BackupService) newDirectory(set domain.LocalBackupSet, base string) (string, error) {
	newDir, err := set.MostRecent()
	if err != nil {
		return "", err
	}
	if !s.dryRun && newDir == base {
		return "", domain.Errorf(domain.ErrDirectoryAccess,
			"backup tool produced no new directory in %s, most recent is still %s", set.Dir(), base)
	}
	return newDir, nil
}

func (s *BackupService) localSet(ctx context.Context, dir string) (domain.LocalBackupSet, error) {
	names, err := s.dirs.List(ctx, dir)
	if err != nil {
		return domain.LocalBackupSet{}, err
	}
	return domain.NewLocalBackupSet(dir, names, s.cmp), nil
}

func validateBackupRequest(req BackupRequest) error {
	if err := command.ValidatePath("backup directory", req.Directory); err != nil {
		return err
	}
	if err := command.ValidateBucket(req.Bucket); err != nil {
		return err
	}
	if err := command.ValidateSecret("password", req.Password); err != nil {
		return err
	}
	if req.Type != domain.BackupTypeFull && req.Type != domain.BackupTypeIncremental {
		return domain.Errorf(domain.ErrArgument, "unknown backup type %q", req.Type)
	}
	return nil
}
