package domain

import (
	"time"

	"github.com/google/uuid"
)

type RunStatus string

const (
	RunStatusRunning RunStatus = "running"
	RunStatusSuccess RunStatus = "success"
	RunStatusFailed  RunStatus = "failed"
)

type RunType string

const (
	RunTypeBackup  RunType = "backup"
	RunTypeRestore RunType = "restore"
)

// Run is one invocation of the backup or restore tool.
type Run struct {
	ID        string                 `db:"id"`
	Type      RunType                `db:"type"`
	DryRun    bool                   `db:"dry_run"`
	Status    RunStatus              `db:"status"`
	Error     *string                `db:"error"`
	StartTime time.Time              `db:"start_time"`
	EndTime   *time.Time             `db:"end_time"`
	Args      map[string]interface{} `db:"-"`
}

func NewRun(runType RunType, dryRun bool, args map[string]interface{}) *Run {
	return &Run{
		ID:        uuid.New().String(),
		Type:      runType,
		DryRun:    dryRun,
		Status:    RunStatusRunning,
		StartTime: time.Now(),
		Args:      args,
	}
}

func (r *Run) Complete() {
	now := time.Now()
	r.EndTime = &now
	r.Status = RunStatusSuccess
}

func (r *Run) Fail(err error) {
	now := time.Now()
	r.EndTime = &now
	r.Status = RunStatusFailed
	if err != nil {
		msg := err.Error()
		r.Error = &msg
	}
}

// Step is one external command issued during a run.
type Step struct {
	ID         int64      `db:"id"`
	RunID      string     `db:"run_id"`
	Command    string     `db:"command"`
	Status     RunStatus  `db:"status"`
	ReturnCode *int       `db:"return_code"`
	Error      *string    `db:"error"`
	StartTime  time.Time  `db:"start_time"`
	EndTime    *time.Time `db:"end_time"`
}

func NewStep(runID, command string) *Step {
	return &Step{
		RunID:     runID,
		Command:   command,
		Status:    RunStatusRunning,
		StartTime: time.Now(),
	}
}

func (s *Step) Complete(returnCode int) {
	now := time.Now()
	s.EndTime = &now
	s.ReturnCode = &returnCode
	if returnCode == 0 {
		s.Status = RunStatusSuccess
	} else {
		s.Status = RunStatusFailed
	}
}

func (s *Step) Fail(err error) {
	now := time.Now()
	s.EndTime = &now
	s.Status = RunStatusFailed
	if err != nil {
		msg := err.Error()
		s.Error = &msg
	}
}
