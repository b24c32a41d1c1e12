package cli

import (
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/martijn/innobackup-s3/internal/adapter/command"
	"github.com/martijn/innobackup-s3/internal/core/domain"
	"github.com/martijn/innobackup-s3/internal/core/service"
	"github.com/martijn/innobackup-s3/internal/infrastructure/filesystem"
	"github.com/martijn/innobackup-s3/internal/logger"
)

type backupOptions struct {
	commonOptions
	directory    string
	passwordFile string
	bucket       string
	backupType   string
	noRemove     bool
}

// NewBackupCommand builds the backup tool.
func NewBackupCommand(env *Environment) *cobra.Command {
	opts := &backupOptions{}

	cmd := &cobra.Command{
		Use:   "innobackup-s3-backup",
		Short: "Perform backups based on innobackupex",
		Long: `Perform backups based on innobackupex and store them in S3.

A run performs the following steps:
  1. determine the most recent backup directory, the base for an incremental backup
  2. take an incremental backup on top of it, or a full backup followed by --apply-log
  3. copy the new backup directory to S3, full backups are stored as <name>-full
  4. remove the oldest backup directory

The backup directory must not be modified by anything else while a run is in
progress: the new backup is found by listing the directory again after the
backup tool finished.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBackup(cmd, env, opts)
		},
	}
	setupCommand(cmd)

	flags := cmd.Flags()
	flags.StringVarP(&opts.directory, "directory", "d", "", "innobackupex backup directory to target; expects the directories to follow the innobackupex directory date pattern (required)")
	flags.StringVarP(&opts.passwordFile, "password", "p", "", "path to password file, - reads it from standard input (required)")
	flags.StringVarP(&opts.bucket, "bucket", "s", "", "the name of the S3 bucket to place the backups in (required)")
	flags.StringVarP(&opts.backupType, "backup-type", "b", string(domain.BackupTypeIncremental), "the type of backup to perform; valid options are 'incremental' or 'full'")
	flags.BoolVar(&opts.noRemove, "no-remove", false, "do not remove the oldest backup present in the directory")
	addCommonFlags(cmd, &opts.commonOptions)

	return cmd
}

func runBackup(cmd *cobra.Command, env *Environment, opts *backupOptions) error {
	if opts.history > 0 || opts.runID != "" {
		return showHistory(cmd, env, opts.commonOptions)
	}
	if err := requireFlags(cmd, "directory", "password", "bucket"); err != nil {
		return err
	}
	backupType, err := domain.ParseBackupType(opts.backupType)
	if err != nil {
		return err
	}

	log := logger.New(env.Stderr, opts.verbose)
	log.Debug().
		Str("directory", opts.directory).
		Str("password_file", opts.passwordFile).
		Str("bucket", opts.bucket).
		Str("backup_type", string(backupType)).
		Bool("no_remove", opts.noRemove).
		Bool("test", opts.test).
		Msg("arguments")

	cfg, err := loadConfig(cmd, env, opts.commonOptions)
	if err != nil {
		return err
	}
	cmp, err := cfg.Comparator()
	if err != nil {
		return err
	}
	builder, err := command.NewBuilder(cfg.BackupTool, cfg.TransferTool)
	if err != nil {
		return err
	}

	password, err := readPassword(env, opts.passwordFile)
	if err != nil {
		return err
	}

	journal, closeJournal := openJournal(cfg, opts.test, log)
	defer closeJournal()

	svc := service.NewBackupService(
		filesystem.NewBackupDirectory(env.Fs),
		builder,
		env.Runner,
		service.NewRunService(journal, log),
		cmp,
		opts.test,
		log,
	)

	result, err := svc.Backup(cmd.Context(), service.BackupRequest{
		Directory: opts.directory,
		Password:  password,
		Bucket:    opts.bucket,
		Type:      backupType,
		NoRemove:  opts.noRemove,
	})
	if err != nil {
		return errors.Wrapf(err, "backup failed in %s", service.FailedState(err))
	}

	log.Info().
		Str("run_id", result.RunID).
		Str("backup", result.UploadName).
		Str("removed", result.Removed).
		Msg("backup complete")
	return nil
}
