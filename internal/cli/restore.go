package cli

import (
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/martijn/innobackup-s3/internal/adapter/command"
	"github.com/martijn/innobackup-s3/internal/core/service"
	"github.com/martijn/innobackup-s3/internal/logger"
)

type restoreOptions struct {
	commonOptions
	bucket    string
	directory string
	restore   bool
}

// NewRestoreCommand builds the restore tool.
func NewRestoreCommand(env *Environment) *cobra.Command {
	opts := &restoreOptions{}

	cmd := &cobra.Command{
		Use:   "innobackup-s3-restore",
		Short: "Retrieve the latest innobackupex backup chain from S3",
		Long: `Retrieve the latest innobackupex backup chain from an S3 bucket.

The most recent full backup (a name containing -FULL, in any case) and every
incremental backup stored after it are copied into the target directory.
With --restore the directory is then restored using innobackupex --copy-back.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRestore(cmd, env, opts)
		},
	}
	setupCommand(cmd)

	flags := cmd.Flags()
	flags.StringVarP(&opts.bucket, "bucket", "b", "", "the target S3 bucket to work with (required)")
	flags.StringVarP(&opts.directory, "directory", "d", "", "the directory where the innobackupex backups will be retrieved to (required)")
	flags.BoolVarP(&opts.restore, "restore", "r", false, "attempts to restore from the backups directory specified")
	addCommonFlags(cmd, &opts.commonOptions)

	return cmd
}

func runRestore(cmd *cobra.Command, env *Environment, opts *restoreOptions) error {
	if opts.history > 0 || opts.runID != "" {
		return showHistory(cmd, env, opts.commonOptions)
	}
	if err := requireFlags(cmd, "bucket", "directory"); err != nil {
		return err
	}

	log := logger.New(env.Stderr, opts.verbose)
	log.Debug().
		Str("bucket", opts.bucket).
		Str("directory", opts.directory).
		Bool("restore", opts.restore).
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

	storage, err := env.NewStorage(cmd.Context(), cfg.S3)
	if err != nil {
		return err
	}

	journal, closeJournal := openJournal(cfg, opts.test, log)
	defer closeJournal()

	svc := service.NewRestoreService(
		storage,
		builder,
		env.Runner,
		service.NewRunService(journal, log),
		cmp,
		opts.test,
		log,
	)

	result, err := svc.Restore(cmd.Context(), service.RestoreRequest{
		Bucket:    opts.bucket,
		Directory: opts.directory,
		CopyBack:  opts.restore,
	})
	if err != nil {
		return errors.Wrap(err, "restore failed")
	}

	log.Info().
		Str("run_id", result.RunID).
		Str("full", result.Chain.Full().String()).
		Int("incrementals", len(result.Chain.Incrementals())).
		Msg("restore complete")
	return nil
}
