package service

import (
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/martijn/innobackup-s3/internal/core/domain"
	"github.com/martijn/innobackup-s3/internal/infrastructure/sqlite"
)

const restoreDir = "/var/restore"

type fakeStorage struct {
	names []string
	err   error
}

func (f *fakeStorage) ListBackups(_ context.Context, _ string) ([]string, error) {
	return f.names, f.err
}

func (env *testEnv) restoreService(storage *fakeStorage, dryRun bool) *RestoreService {
	return NewRestoreService(storage, env.builder, env.tool, env.runs, nil, dryRun, env.logger)
}

func TestRestoreChain(t *testing.T) {
	env := setupTestEnv(t)
	storage := &fakeStorage{names: []string{
		"2013-11-08_22-22-31/",
		"2013-10-26_16-09-39-FULL/",
		"2013-11-06_21-36-41/",
	}}

	result, err := env.restoreService(storage, false).Restore(context.Background(), RestoreRequest{
		Bucket:    testBucket,
		Directory: restoreDir,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.BackupChain{
		"2013-10-26_16-09-39-FULL/",
		"2013-11-06_21-36-41/",
		"2013-11-08_22-22-31/",
	}, result.Chain)

	assert.Equal(t, [][]string{
		{"aws", "s3", "cp", "s3://health-union-backups/2013-10-26_16-09-39-FULL/", restoreDir + "/2013-10-26_16-09-39-FULL", "--recursive"},
		{"aws", "s3", "cp", "s3://health-union-backups/2013-11-06_21-36-41/", restoreDir + "/2013-11-06_21-36-41", "--recursive"},
		{"aws", "s3", "cp", "s3://health-union-backups/2013-11-08_22-22-31/", restoreDir + "/2013-11-08_22-22-31", "--recursive"},
	}, env.tool.argvs())
}

func TestRestoreCopyBack(t *testing.T) {
	env := setupTestEnv(t)
	storage := &fakeStorage{names: []string{"2013-10-26_16-09-39-full/", "2013-11-06_21-36-41/"}}

	_, err := env.restoreService(storage, false).Restore(context.Background(), RestoreRequest{
		Bucket:    testBucket,
		Directory: restoreDir,
		CopyBack:  true,
	})
	require.NoError(t, err)

	require.Len(t, env.tool.calls, 3)
	assert.Equal(t, []string{"innobackupex", "--copy-back", restoreDir}, env.tool.calls[2].Argv())
}

func TestRestoreNoFullBackup(t *testing.T) {
	env := setupTestEnv(t)
	storage := &fakeStorage{names: []string{"2013-11-06_21-36-41/", "2013-11-08_22-22-31/"}}

	_, err := env.restoreService(storage, false).Restore(context.Background(), RestoreRequest{
		Bucket:    testBucket,
		Directory: restoreDir,
		CopyBack:  true,
	})
	requireKind(t, err, domain.ErrChainNotFound)
	assert.Empty(t, env.tool.calls)
}

func TestRestoreEmptyBucket(t *testing.T) {
	env := setupTestEnv(t)

	_, err := env.restoreService(&fakeStorage{}, false).Restore(context.Background(), RestoreRequest{
		Bucket:    testBucket,
		Directory: restoreDir,
	})
	requireKind(t, err, domain.ErrChainNotFound)
}

func TestRestoreListingFailure(t *testing.T) {
	env := setupTestEnv(t)
	storage := &fakeStorage{err: domain.Errorf(domain.ErrStorageAccess, "unable to list bucket %s", testBucket)}

	_, err := env.restoreService(storage, false).Restore(context.Background(), RestoreRequest{
		Bucket:    testBucket,
		Directory: restoreDir,
	})
	requireKind(t, err, domain.ErrStorageAccess)
}

func TestRestoreDownloadFailureIsFatal(t *testing.T) {
	env := setupTestEnv(t)
	env.tool.codes["cp"] = 1
	storage := &fakeStorage{names: []string{"2013-10-26_16-09-39-FULL/", "2013-11-06_21-36-41/"}}

	_, err := env.restoreService(storage, false).Restore(context.Background(), RestoreRequest{
		Bucket:    testBucket,
		Directory: restoreDir,
		CopyBack:  true,
	})
	require.Error(t, err)

	var exitErr *domain.NonZeroExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, 1, exitErr.ExitCode)
	assert.Len(t, env.tool.calls, 1)
}

func TestRestoreDryRun(t *testing.T) {
	env := setupTestEnv(t)
	storage := &fakeStorage{names: []string{"2013-10-26_16-09-39-FULL/", "2013-11-06_21-36-41/"}}

	result, err := env.restoreService(storage, true).Restore(context.Background(), RestoreRequest{
		Bucket:    testBucket,
		Directory: restoreDir,
		CopyBack:  true,
	})
	require.NoError(t, err)
	assert.Len(t, result.Chain, 2)
	assert.Empty(t, env.tool.calls)
	assert.Contains(t, env.logs.String(), "innobackupex --copy-back /var/restore")

	journal := sqlite.NewJournalRepository(env.journal)
	run, err := journal.FindRun(context.Background(), result.RunID)
	require.NoError(t, err)
	assert.True(t, run.DryRun)

	steps, err := journal.ListSteps(context.Background(), result.RunID)
	require.NoError(t, err)
	assert.Len(t, steps, 3)
}

func TestRestoreRejectsInvalidRequest(t *testing.T) {
	env := setupTestEnv(t)
	storage := &fakeStorage{names: []string{"2013-10-26_16-09-39-FULL/"}}

	_, err := env.restoreService(storage, false).Restore(context.Background(), RestoreRequest{
		Bucket:    testBucket,
		Directory: "-rf",
	})
	requireKind(t, err, domain.ErrArgument)
}
