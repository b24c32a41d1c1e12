package repository

import (
	"context"

	"github.com/martijn/innobackup-s3/internal/core/domain"
)

// JournalRepository records runs and the commands issued during them.
type JournalRepository interface {
	CreateRun(ctx context.Context, run *domain.Run) error
	UpdateRun(ctx context.Context, run *domain.Run) error
	FindRun(ctx context.Context, id string) (*domain.Run, error)
	ListRuns(ctx context.Context, limit int) ([]*domain.Run, error)

	CreateStep(ctx context.Context, step *domain.Step) error
	UpdateStep(ctx context.Context, step *domain.Step) error
	ListSteps(ctx context.Context, runID string) ([]*domain.Step, error)
}
