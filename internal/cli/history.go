package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/martijn/innobackup-s3/internal/core/domain"
	"github.com/martijn/innobackup-s3/internal/core/service"
	"github.com/martijn/innobackup-s3/internal/infrastructure/sqlite"
	"github.com/martijn/innobackup-s3/internal/logger"
)

// showHistory prints journaled runs instead of performing one.
func showHistory(cmd *cobra.Command, env *Environment, opts commonOptions) error {
	cfg, err := loadConfig(cmd, env, opts)
	if err != nil {
		return err
	}
	if cfg.JournalPath == "" {
		return domain.Errorf(domain.ErrArgument, "--history and --run-id need a journal, set --journal or journal_path")
	}

	db, err := sqlite.New(cfg.JournalPath)
	if err != nil {
		return err
	}
	defer db.Close()

	runs := service.NewRunService(sqlite.NewJournalRepository(db), logger.New(env.Stderr, opts.verbose))

	if opts.runID != "" {
		run, err := runs.Find(cmd.Context(), opts.runID)
		if err != nil {
			return err
		}
		printRun(env.Stdout, *run)
		return nil
	}

	history, err := runs.Recent(cmd.Context(), opts.history)
	if err != nil {
		return err
	}
	for _, run := range history {
		printRun(env.Stdout, run)
	}
	return nil
}

func printRun(w io.Writer, h service.RunHistory) {
	run := h.Run
	mode := ""
	if run.DryRun {
		mode = " (test)"
	}
	fmt.Fprintf(w, "%s  %-7s  %-7s  %s%s\n", run.ID, run.Type, run.Status, run.StartTime.Format(time.RFC3339), mode)
	if run.Error != nil {
		fmt.Fprintf(w, "    error: %s\n", *run.Error)
	}

	for _, step := range h.Steps {
		code := "-"
		if step.ReturnCode != nil {
			code = fmt.Sprint(*step.ReturnCode)
		}
		fmt.Fprintf(w, "    [%s] %s\n", code, step.Command)
	}
}
