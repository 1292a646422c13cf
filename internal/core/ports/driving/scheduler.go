package driving

import (
	"context"
	"time"

	"github.com/custodia-labs/corpuswatch/internal/core/domain"
)

// MonitoringScheduler runs monitoring cycles on a timer.
type MonitoringScheduler interface {
	// Start runs one cycle immediately and then arms the timer.
	// Calling Start on a running scheduler is a no-op.
	Start(ctx context.Context) error

	// Stop disarms the timer and waits for an in-flight cycle.
	// Calling Stop on a stopped scheduler is a no-op.
	Stop() error

	// ForceRun scans every enabled directory now, ignoring due times.
	ForceRun(ctx context.Context) domain.RunResult

	// RunCycle scans the directories that are due.
	RunCycle(ctx context.Context) domain.CycleResult

	// SetCheckInterval changes the timer cadence, restarting the timer if running.
	SetCheckInterval(d time.Duration) error

	// Status returns a snapshot of the scheduler.
	Status() domain.SchedulerStatus
}
