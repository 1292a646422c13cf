package domain

import "time"

// Scheduler defaults.
const (
	DefaultCheckInterval      = 5 * time.Minute
	DefaultCachePruneInterval = 24 * time.Hour
	DefaultHistoryKeep        = 100
)

// Clock returns the current time. Injected so tests can control it.
type Clock func() time.Time

// CycleTrigger identifies what started a monitoring cycle.
type CycleTrigger string

// Cycle triggers.
const (
	TriggerTimer  CycleTrigger = "timer"
	TriggerForced CycleTrigger = "forced"
	TriggerWatch  CycleTrigger = "watch"
)

// CycleResult represents the outcome of one monitoring cycle.
type CycleResult struct {
	// Trigger identifies what started the cycle.
	Trigger CycleTrigger

	// StartedAt is when the cycle started.
	StartedAt time.Time

	// EndedAt is when the cycle completed.
	EndedAt time.Time

	// Success indicates every due directory was scanned without a directory-level error.
	Success bool

	// Error contains the joined directory errors if Success is false.
	Error string

	// DirectoriesScanned is the number of directories scanned.
	DirectoriesScanned int

	// FilesProcessed is the number of files that reached StatusProcessed.
	FilesProcessed int

	// Refreshes is the number of refresh collaborator invocations.
	Refreshes int
}

// RunResult is returned to a caller who forced a run.
type RunResult struct {
	Success bool
	Error   string
	Scans   []ScanResult
}

// SchedulerStatus is a snapshot of the monitoring scheduler.
type SchedulerStatus struct {
	// Running indicates the periodic timer is armed.
	Running bool

	// CheckInterval is the timer cadence.
	CheckInterval time.Duration

	// NextRunEstimate is when the next tick is expected. Nil when stopped.
	NextRunEstimate *time.Time

	// LastCycle is the most recently completed cycle, if any.
	LastCycle *CycleResult
}

// SchedulerConfig holds scheduler configuration.
type SchedulerConfig struct {
	// CheckInterval is how often due directories are evaluated.
	CheckInterval time.Duration

	// CacheRetention is the age after which cache entries are pruned.
	CacheRetention time.Duration

	// CachePruneInterval is the minimum time between two prune sweeps.
	CachePruneInterval time.Duration

	// HistoryKeep is how many cycle results are retained per trigger.
	HistoryKeep int
}

// DefaultSchedulerConfig returns sensible defaults for the scheduler.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		CheckInterval:      DefaultCheckInterval,
		CacheRetention:     DefaultCacheRetention,
		CachePruneInterval: DefaultCachePruneInterval,
		HistoryKeep:        DefaultHistoryKeep,
	}
}
