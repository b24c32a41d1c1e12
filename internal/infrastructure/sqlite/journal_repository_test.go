package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/martijn/innobackup-s3/internal/core/domain"
)

func setupJournal(t *testing.T) *journalRepository {
	t.Helper()

	db, err := New(InMemory)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewJournalRepository(db).(*journalRepository)
}

func TestRunLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := setupJournal(t)

	run := domain.NewRun(domain.RunTypeBackup, true, map[string]interface{}{
		"directory": "/var/backups/mysql",
		"bucket":    "health-union-backups",
	})
	require.NoError(t, repo.CreateRun(ctx, run))

	found, err := repo.FindRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RunTypeBackup, found.Type)
	assert.True(t, found.DryRun)
	assert.Equal(t, domain.RunStatusRunning, found.Status)
	assert.Nil(t, found.EndTime)
	assert.Equal(t, "health-union-backups", found.Args["bucket"])

	run.Fail(errors.New("command did not execute successfully"))
	require.NoError(t, repo.UpdateRun(ctx, run))

	found, err = repo.FindRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RunStatusFailed, found.Status)
	require.NotNil(t, found.Error)
	assert.Equal(t, "command did not execute successfully", *found.Error)
	assert.NotNil(t, found.EndTime)
}

func TestFindRunMissing(t *testing.T) {
	repo := setupJournal(t)

	_, err := repo.FindRun(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrJournal))
}

func TestUpdateRunMissing(t *testing.T) {
	repo := setupJournal(t)

	run := domain.NewRun(domain.RunTypeRestore, false, nil)
	err := repo.UpdateRun(context.Background(), run)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrJournal))
}

func TestListRuns(t *testing.T) {
	ctx := context.Background()
	repo := setupJournal(t)

	first := domain.NewRun(domain.RunTypeBackup, false, map[string]interface{}{})
	second := domain.NewRun(domain.RunTypeRestore, false, map[string]interface{}{})
	second.StartTime = first.StartTime.Add(time.Second)
	require.NoError(t, repo.CreateRun(ctx, first))
	require.NoError(t, repo.CreateRun(ctx, second))

	runs, err := repo.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, second.ID, runs[0].ID)

	runs, err = repo.ListRuns(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestSteps(t *testing.T) {
	ctx := context.Background()
	repo := setupJournal(t)

	run := domain.NewRun(domain.RunTypeRestore, false, map[string]interface{}{})
	require.NoError(t, repo.CreateRun(ctx, run))

	download := domain.NewStep(run.ID, "aws s3 cp s3://bucket/2013-10-26_16-09-39-FULL/ /restore/2013-10-26_16-09-39-FULL --recursive")
	require.NoError(t, repo.CreateStep(ctx, download))
	assert.NotZero(t, download.ID)

	copyBack := domain.NewStep(run.ID, "innobackupex --copy-back /restore/2013-10-26_16-09-39-FULL")
	require.NoError(t, repo.CreateStep(ctx, copyBack))

	download.Complete(0)
	require.NoError(t, repo.UpdateStep(ctx, download))
	copyBack.Complete(1)
	require.NoError(t, repo.UpdateStep(ctx, copyBack))

	steps, err := repo.ListSteps(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, steps, 2)

	assert.Equal(t, download.Command, steps[0].Command)
	assert.Equal(t, domain.RunStatusSuccess, steps[0].Status)
	require.NotNil(t, steps[0].ReturnCode)
	assert.Equal(t, 0, *steps[0].ReturnCode)

	assert.Equal(t, domain.RunStatusFailed, steps[1].Status)
	require.NotNil(t, steps[1].ReturnCode)
	assert.Equal(t, 1, *steps[1].ReturnCode)
	assert.NotNil(t, steps[1].EndTime)
}

func TestUpdateStepMissing(t *testing.T) {
	repo := setupJournal(t)

	step := domain.NewStep("run", "true")
	step.ID = 42
	err := repo.UpdateStep(context.Background(), step)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrJournal))
}
