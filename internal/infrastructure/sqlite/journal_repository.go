package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/cockroachdb/errors"

	"github.com/martijn/innobackup-s3/internal/core/domain"
	"github.com/martijn/innobackup-s3/internal/core/repository"
)

type journalRepository struct {
	db *DB
}

func NewJournalRepository(db *DB) repository.JournalRepository {
	return &journalRepository{db: db}
}

func (r *journalRepository) CreateRun(ctx context.Context, run *domain.Run) error {
	argsJSON, err := json.Marshal(run.Args)
	if err != nil {
		return domain.Wrapf(err, domain.ErrJournal, "failed to marshal args")
	}

	query := `
		INSERT INTO run (id, type, dry_run, status, error, start_time, end_time, args)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.ExecContext(ctx, query,
		run.ID,
		run.Type,
		run.DryRun,
		run.Status,
		NullString(run.Error),
		run.StartTime,
		NullTime(run.EndTime),
		string(argsJSON),
	)
	if err != nil {
		return domain.Wrapf(err, domain.ErrJournal, "failed to create run")
	}

	return nil
}

func (r *journalRepository) UpdateRun(ctx context.Context, run *domain.Run) error {
	query := `
		UPDATE run
		SET status = ?, error = ?, end_time = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		run.Status,
		NullString(run.Error),
		NullTime(run.EndTime),
		run.ID,
	)
	if err != nil {
		return domain.Wrapf(err, domain.ErrJournal, "failed to update run")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return domain.Wrapf(err, domain.ErrJournal, "failed to get rows affected")
	}
	if rows == 0 {
		return domain.Errorf(domain.ErrJournal, "run not found: %s", run.ID)
	}

	return nil
}

func (r *journalRepository) FindRun(ctx context.Context, id string) (*domain.Run, error) {
	query := `
		SELECT id, type, dry_run, status, error, start_time, end_time, args
		FROM run
		WHERE id = ?
	`
	return r.scanRun(r.db.QueryRowContext(ctx, query, id))
}

func (r *journalRepository) ListRuns(ctx context.Context, limit int) ([]*domain.Run, error) {
	query := `
		SELECT id, type, dry_run, status, error, start_time, end_time, args
		FROM run
		ORDER BY start_time DESC
	`
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, domain.Wrapf(err, domain.ErrJournal, "failed to list runs")
	}
	defer rows.Close()

	var runs []*domain.Run
	for rows.Next() {
		run, err := r.scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, domain.Wrapf(err, domain.ErrJournal, "error iterating runs")
	}

	return runs, nil
}

func (r *journalRepository) CreateStep(ctx context.Context, step *domain.Step) error {
	query := `
		INSERT INTO step (run_id, command, status, return_code, error, start_time, end_time)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		step.RunID,
		step.Command,
		step.Status,
		NullInt(step.ReturnCode),
		NullString(step.Error),
		step.StartTime,
		NullTime(step.EndTime),
	)
	if err != nil {
		return domain.Wrapf(err, domain.ErrJournal, "failed to create step")
	}

	id, err := result.LastInsertId()
	if err != nil {
		return domain.Wrapf(err, domain.ErrJournal, "failed to get last insert id")
	}
	step.ID = id

	return nil
}

func (r *journalRepository) UpdateStep(ctx context.Context, step *domain.Step) error {
	query := `
		UPDATE step
		SET status = ?, return_code = ?, error = ?, end_time = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		step.Status,
		NullInt(step.ReturnCode),
		NullString(step.Error),
		NullTime(step.EndTime),
		step.ID,
	)
	if err != nil {
		return domain.Wrapf(err, domain.ErrJournal, "failed to update step")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return domain.Wrapf(err, domain.ErrJournal, "failed to get rows affected")
	}
	if rows == 0 {
		return domain.Errorf(domain.ErrJournal, "step not found: %d", step.ID)
	}

	return nil
}

func (r *journalRepository) ListSteps(ctx context.Context, runID string) ([]*domain.Step, error) {
	query := `
		SELECT id, run_id, command, status, return_code, error, start_time, end_time
		FROM step
		WHERE run_id = ?
		ORDER BY id ASC
	`

	var steps []*domain.Step
	if err := r.db.SelectContext(ctx, &steps, query, runID); err != nil {
		return nil, domain.Wrapf(err, domain.ErrJournal, "failed to list steps")
	}

	return steps, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *journalRepository) scanRun(row rowScanner) (*domain.Run, error) {
	var run domain.Run
	var argsJSON string
	var errorOutput sql.NullString
	var endTime sql.NullTime

	err := row.Scan(
		&run.ID,
		&run.Type,
		&run.DryRun,
		&run.Status,
		&errorOutput,
		&run.StartTime,
		&endTime,
		&argsJSON,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.Errorf(domain.ErrJournal, "run not found")
	}
	if err != nil {
		return nil, domain.Wrapf(err, domain.ErrJournal, "failed to scan run")
	}

	if errorOutput.Valid {
		run.Error = &errorOutput.String
	}
	if endTime.Valid {
		run.EndTime = &endTime.Time
	}

	if err := json.Unmarshal([]byte(argsJSON), &run.Args); err != nil {
		return nil, domain.Wrapf(err, domain.ErrJournal, "failed to unmarshal args")
	}

	return &run, nil
}
