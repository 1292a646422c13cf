package driven

import (
	"context"

	"github.com/custodia-labs/corpuswatch/internal/core/domain"
)

// SchedulerStore persists monitoring cycle history.
type SchedulerStore interface {
	// RecordCycle logs a completed cycle.
	RecordCycle(ctx context.Context, result *domain.CycleResult) error

	// History returns recent cycles, most recent first.
	History(ctx context.Context, limit int) ([]domain.CycleResult, error)

	// LastCycle returns the most recent cycle.
	// Returns nil and no error if no cycle has been recorded.
	LastCycle(ctx context.Context) (*domain.CycleResult, error)

	// PruneHistory keeps the most recent 'keep' cycles per trigger.
	PruneHistory(ctx context.Context, keep int) error
}
