package service

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/martijn/innobackup-s3/internal/adapter/command"
	"github.com/martijn/innobackup-s3/internal/infrastructure/filesystem"
	"github.com/martijn/innobackup-s3/internal/infrastructure/sqlite"
)

const testBucket = "health-union-backups"

// fakeTool plays the external backup and transfer tools. A backup command
// creates the next directory from newDirs below the backup directory. codes
// fails any command carrying the given argument.
type fakeTool struct {
	fs      afero.Fs
	newDirs []string
	codes   map[string]int
	calls   []command.Command
}

func (f *fakeTool) Run(_ context.Context, cmd command.Command) (int, error) {
	f.calls = append(f.calls, cmd)

	for _, arg := range cmd.Args {
		if code := f.codes[arg]; code != 0 {
			return code, nil
		}
	}

	if cmd.Name == command.DefaultBackupTool && isBackupCommand(cmd) && len(f.newDirs) > 0 {
		dir := backupTarget(cmd)
		if err := f.fs.MkdirAll(filepath.Join(dir, f.newDirs[0]), 0o755); err != nil {
			return -1, err
		}
		f.newDirs = f.newDirs[1:]
	}
	return 0, nil
}

func (f *fakeTool) argvs() [][]string {
	out := make([][]string, 0, len(f.calls))
	for _, c := range f.calls {
		out = append(out, c.Argv())
	}
	return out
}

func isBackupCommand(cmd command.Command) bool {
	return cmd.Args[0] == "--incremental" || len(cmd.Args) == 1
}

func backupTarget(cmd command.Command) string {
	if cmd.Args[0] == "--incremental" {
		return cmd.Args[1]
	}
	return cmd.Args[0]
}

type testEnv struct {
	fs      afero.Fs
	tool    *fakeTool
	builder *command.Builder
	runs    *RunService
	journal *sqlite.DB
	logs    *bytes.Buffer
	logger  zerolog.Logger
}

func setupTestEnv(t *testing.T, dirs ...string) *testEnv {
	t.Helper()

	fs := afero.NewMemMapFs()
	for _, d := range dirs {
		require.NoError(t, fs.MkdirAll(d, 0o755))
	}

	builder, err := command.NewBuilder(command.DefaultBackupTool, command.DefaultTransferTool)
	require.NoError(t, err)

	db, err := sqlite.New(sqlite.InMemory)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logs := &bytes.Buffer{}
	logger := zerolog.New(logs)

	return &testEnv{
		fs:      fs,
		tool:    &fakeTool{fs: fs, codes: map[string]int{}},
		builder: builder,
		runs:    NewRunService(sqlite.NewJournalRepository(db), logger),
		journal: db,
		logs:    logs,
		logger:  logger,
	}
}

func (env *testEnv) backupService(dryRun bool) *BackupService {
	return NewBackupService(
		filesystem.NewBackupDirectory(env.fs),
		env.builder,
		env.tool,
		env.runs,
		nil,
		dryRun,
		env.logger,
	)
}

func (env *testEnv) dirExists(t *testing.T, path string) bool {
	t.Helper()
	ok, err := afero.DirExists(env.fs, path)
	require.NoError(t, err)
	return ok
}

func requireKind(t *testing.T, err, kind error) {
	t.Helper()
	require.Error(t, err)
	require.Truef(t, errors.Is(err, kind), "expected %v, got %v", kind, err)
}
