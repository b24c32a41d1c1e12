package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/martijn/innobackup-s3/internal/adapter/command"
	"github.com/martijn/innobackup-s3/internal/adapter/objectstore"
	"github.com/martijn/innobackup-s3/internal/core/domain"
	"github.com/martijn/innobackup-s3/internal/core/repository"
	"github.com/martijn/innobackup-s3/internal/infrastructure/sqlite"
	"github.com/martijn/innobackup-s3/pkg/config"
)

const (
	ExitOK       = 0
	ExitFailure  = 1
	ExitArgument = 2
)

// Environment holds what the commands touch outside the process.
type Environment struct {
	Fs         afero.Fs
	Runner     command.Runner
	NewStorage func(ctx context.Context, cfg config.S3Config) (repository.BackupStorage, error)
	Stdin      *os.File
	Stdout     io.Writer
	Stderr     io.Writer
}

// DefaultEnvironment runs against the real filesystem, real processes and S3.
func DefaultEnvironment() *Environment {
	return &Environment{
		Fs:         afero.NewOsFs(),
		Runner:     command.NewExecRunner(),
		NewStorage: newS3Storage,
		Stdin:      os.Stdin,
		Stdout:     os.Stdout,
		Stderr:     os.Stderr,
	}
}

func newS3Storage(ctx context.Context, cfg config.S3Config) (repository.BackupStorage, error) {
	return objectstore.New(ctx, objectstore.Options{
		Region:          cfg.Region,
		Endpoint:        cfg.Endpoint,
		PathStyle:       cfg.PathStyle,
		AccessKeyID:     cfg.AccessKeyID,
		SecretAccessKey: cfg.SecretAccessKey,
	})
}

// commonOptions are the flags shared by both tools.
type commonOptions struct {
	configFile string
	test       bool
	verbose    bool
	history    int
	runID      string
}

func addCommonFlags(cmd *cobra.Command, opts *commonOptions) {
	flags := cmd.Flags()
	flags.StringVar(&opts.configFile, "config", "", "config file (default is "+config.DefaultConfigPath+")")
	flags.BoolVar(&opts.test, "test", false, "executes in test mode, no changes are made to the system, only commands are generated")
	flags.BoolVar(&opts.verbose, "verbose", false, "increases verbosity")
	flags.IntVar(&opts.history, "history", 0, "print the last N journaled runs and exit")
	flags.StringVar(&opts.runID, "run-id", "", "print one journaled run and exit")

	// Bound into the configuration when set
	flags.String("journal", "", "record runs in this SQLite journal")
	flags.String("backup-tool", "", "backup tool command (default "+config.DefaultBackupTool+")")
	flags.String("transfer-tool", "", "transfer tool command (default \""+config.DefaultTransferTool+"\")")
	flags.String("collation", "", "ordering of backup names: lexical, case-insensitive, natural or a language tag")
}

// setupCommand applies the behaviour both tools share: flag problems are
// argument errors, positional arguments are rejected, and errors are reported
// by Execute rather than by cobra.
func setupCommand(cmd *cobra.Command) {
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	cmd.Args = func(cmd *cobra.Command, args []string) error {
		if len(args) > 0 {
			return domain.Errorf(domain.ErrArgument, "unexpected arguments: %v", args)
		}
		return nil
	}
	cmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return domain.Wrapf(err, domain.ErrArgument, "invalid flags")
	})
}

// requireFlags fails with an argument error naming every missing flag.
func requireFlags(cmd *cobra.Command, names ...string) error {
	var missing []string
	for _, name := range names {
		if !cmd.Flags().Changed(name) {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return domain.Errorf(domain.ErrArgument, "required flag(s) %q not set", missing)
	}
	return nil
}

func loadConfig(cmd *cobra.Command, env *Environment, opts commonOptions) (*config.Config, error) {
	cfg, err := config.Load(env.Fs, opts.configFile, cmd.Flags())
	if err != nil {
		return nil, errors.Wrap(err, "failed to load config")
	}
	return cfg, nil
}

// openJournal opens the configured journal. Dry runs never write to disk, so
// they get an in-memory journal instead. A journal that cannot be opened is
// reported and skipped.
func openJournal(cfg *config.Config, dryRun bool, log zerolog.Logger) (repository.JournalRepository, func()) {
	if cfg.JournalPath == "" {
		return nil, func() {}
	}

	path := cfg.JournalPath
	if dryRun {
		path = sqlite.InMemory
	}

	db, err := sqlite.New(path)
	if err != nil {
		log.Warn().Err(err).Str("journal", path).Msg("continuing without journal")
		return nil, func() {}
	}

	return sqlite.NewJournalRepository(db), func() {
		if err := db.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close journal")
		}
	}
}

// ExitCode maps a command error onto the process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case domain.IsArgumentError(err):
		return ExitArgument
	default:
		return ExitFailure
	}
}

// Execute runs cmd until it finishes or the process is interrupted and
// returns the exit status. Argument errors print the usage first.
func Execute(cmd *cobra.Command) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return run(ctx, cmd)
}

func run(ctx context.Context, cmd *cobra.Command) int {
	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return ExitOK
	}

	out := cmd.ErrOrStderr()
	if domain.IsArgumentError(err) {
		fmt.Fprint(out, cmd.UsageString())
		fmt.Fprintln(out, "====== Error =====")
	}
	fmt.Fprintf(out, "error: %v\n", err)

	return ExitCode(err)
}
