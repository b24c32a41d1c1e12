package sqlite

import (
	"database/sql"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/martijn/innobackup-s3/internal/core/domain"
)

// InMemory opens a journal that disappears when the process exits.
const InMemory = ":memory:"

const schema = `
CREATE TABLE IF NOT EXISTS run (
	id TEXT PRIMARY KEY,
	type TEXT NOT NULL,
	dry_run INTEGER NOT NULL DEFAULT 0,
	status TEXT NOT NULL,
	error TEXT,
	start_time DATETIME NOT NULL,
	end_time DATETIME,
	args TEXT NOT NULL -- JSON object
);

CREATE TABLE IF NOT EXISTS step (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT NOT NULL,
	command TEXT NOT NULL,
	status TEXT NOT NULL,
	return_code INTEGER,
	error TEXT,
	start_time DATETIME NOT NULL,
	end_time DATETIME,
	FOREIGN KEY (run_id) REFERENCES run(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_run_start_time ON run(start_time);
CREATE INDEX IF NOT EXISTS idx_step_run_id ON step(run_id);
`

type DB struct {
	*sqlx.DB
}

func New(dbPath string) (*DB, error) {
	db, err := sqlx.Connect("sqlite", dbPath)
	if err != nil {
		return nil, domain.Wrapf(err, domain.ErrJournal, "failed to open journal %s", dbPath)
	}

	// Every pooled connection to :memory: would get its own empty database
	if dbPath == InMemory {
		db.SetMaxOpenConns(1)
	} else if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, domain.Wrapf(err, domain.ErrJournal, "failed to enable WAL mode")
	}

	// Backup and restore runs may overlap on the same journal
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, domain.Wrapf(err, domain.ErrJournal, "failed to set busy timeout")
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, domain.Wrapf(err, domain.ErrJournal, "failed to enable foreign keys")
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, domain.Wrapf(err, domain.ErrJournal, "failed to create schema")
	}

	return &DB{db}, nil
}

func (db *DB) Close() error {
	return errors.Wrap(db.DB.Close(), "failed to close journal")
}

// NullString helper for optional string fields
func NullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: *s, Valid: true}
}

// NullInt helper for optional int fields
func NullInt(i *int) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{Valid: false}
	}
	return sql.NullInt64{Int64: int64(*i), Valid: true}
}

// NullTime helper for optional time fields
func NullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{Valid: false}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
