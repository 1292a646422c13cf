package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/custodia-labs/corpuswatch/internal/core/domain"
	"github.com/custodia-labs/corpuswatch/internal/core/ports/driven"
	"github.com/custodia-labs/corpuswatch/internal/core/ports/driving"
	"github.com/custodia-labs/corpuswatch/internal/logger"
)

// Ensure MonitoringScheduler implements the interface.
var _ driving.MonitoringScheduler = (*MonitoringScheduler)(nil)

// MonitoringScheduler runs monitoring cycles on a timer.
// Cycles never overlap: timer-driven and forced cycles share one lock.
type MonitoringScheduler struct {
	config    domain.SchedulerConfig
	scanner   driving.Scanner
	dirs      driven.DirectoryStore
	cache     driven.ExtractionCache // optional, enables pruning
	refresher driven.CorpusRefresher // optional
	store     driven.SchedulerStore  // optional, cycle history
	now       domain.Clock

	cycleMu sync.Mutex

	mu        sync.Mutex
	running   bool
	stopCh    chan struct{}
	wg        sync.WaitGroup
	loopCtx   context.Context
	nextRun   time.Time
	lastCycle *domain.CycleResult
	lastPrune time.Time
}

// NewMonitoringScheduler creates a scheduler. cache, refresher and store may be nil.
func NewMonitoringScheduler(
	config domain.SchedulerConfig,
	scanner driving.Scanner,
	dirs driven.DirectoryStore,
	cache driven.ExtractionCache,
	refresher driven.CorpusRefresher,
	store driven.SchedulerStore,
) *MonitoringScheduler {
	defaults := domain.DefaultSchedulerConfig()
	if config.CheckInterval <= 0 {
		config.CheckInterval = defaults.CheckInterval
	}
	if config.CachePruneInterval <= 0 {
		config.CachePruneInterval = defaults.CachePruneInterval
	}
	if config.HistoryKeep <= 0 {
		config.HistoryKeep = defaults.HistoryKeep
	}
	return &MonitoringScheduler{
		config:    config,
		scanner:   scanner,
		dirs:      dirs,
		cache:     cache,
		refresher: refresher,
		store:     store,
		now:       time.Now,
	}
}

// WithClock replaces the clock used for cycle timestamps.
func (s *MonitoringScheduler) WithClock(clock domain.Clock) *MonitoringScheduler {
	s.now = clock
	return s
}

// Start runs one cycle immediately and then arms the timer. It does not block.
// The loop ends when Stop is called or ctx is cancelled.
func (s *MonitoringScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		logger.Warn("scheduler: %v", domain.ErrSchedulerAlreadyRunning)
		return nil
	}
	s.running = true
	s.loopCtx = ctx
	s.launch(ctx, true)
	logger.Info("Scheduler started, checking every %s", s.config.CheckInterval)
	return nil
}

// Stop disarms the timer and waits for an in-flight cycle to finish.
func (s *MonitoringScheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		logger.Warn("scheduler: %v", domain.ErrSchedulerNotRunning)
		return nil
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	s.wg.Wait()
	logger.Info("Scheduler stopped")
	return nil
}

// SetCheckInterval changes the timer cadence. A running scheduler restarts:
// it runs one cycle immediately and re-arms the timer from now.
func (s *MonitoringScheduler) SetCheckInterval(d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("%w: check interval must be positive", domain.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.config.CheckInterval = d
	if s.running {
		close(s.stopCh)
		s.launch(s.loopCtx, true)
	}
	logger.Info("Scheduler check interval set to %s", d)
	return nil
}

// launch starts a loop goroutine. The caller holds s.mu.
func (s *MonitoringScheduler) launch(ctx context.Context, immediate bool) {
	stopCh := make(chan struct{})
	s.stopCh = stopCh
	interval := s.config.CheckInterval
	s.nextRun = s.now().Add(interval)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop(ctx, stopCh, interval, immediate)
	}()
}

// loop is the main scheduler loop.
func (s *MonitoringScheduler) loop(ctx context.Context, stopCh chan struct{}, interval time.Duration, immediate bool) {
	if immediate {
		s.RunCycle(ctx)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.mu.Lock()
			if s.stopCh == stopCh {
				s.running = false
			}
			s.mu.Unlock()
			return
		case <-stopCh:
			return
		case <-ticker.C:
			s.mu.Lock()
			s.nextRun = s.now().Add(interval)
			s.mu.Unlock()
			s.RunCycle(ctx)
		}
	}
}

// RunCycle scans the directories that are due.
func (s *MonitoringScheduler) RunCycle(ctx context.Context) domain.CycleResult {
	cycle, _ := s.runCycle(ctx, domain.TriggerTimer, true)
	return cycle
}

// ForceRun scans every enabled directory now, ignoring due times.
// The timer is left unchanged.
func (s *MonitoringScheduler) ForceRun(ctx context.Context) domain.RunResult {
	cycle, scans := s.runCycle(ctx, domain.TriggerForced, false)
	return domain.RunResult{
		Success: cycle.Success,
		Error:   cycle.Error,
		Scans:   scans,
	}
}

// TriggerDirectory scans a single directory on behalf of the watcher and
// records the outcome as a cycle.
func (s *MonitoringScheduler) TriggerDirectory(ctx context.Context, directoryID string) domain.CycleResult {
	s.cycleMu.Lock()
	defer s.cycleMu.Unlock()

	cycle := domain.CycleResult{Trigger: domain.TriggerWatch, StartedAt: s.now()}
	var scans []domain.ScanResult
	result, err := s.scanner.ScanDirectory(ctx, directoryID)
	if result != nil {
		scans = append(scans, *result)
	}
	s.finishCycle(ctx, &cycle, scans, err)
	return cycle
}

func (s *MonitoringScheduler) runCycle(
	ctx context.Context,
	trigger domain.CycleTrigger,
	onlyDue bool,
) (domain.CycleResult, []domain.ScanResult) {
	s.cycleMu.Lock()
	defer s.cycleMu.Unlock()

	logger.Section("Monitoring cycle (" + string(trigger) + ")")
	cycle := domain.CycleResult{Trigger: trigger, StartedAt: s.now()}

	scans, err := s.scanner.ScanAll(ctx, onlyDue)
	s.finishCycle(ctx, &cycle, scans, err)
	return cycle, scans
}

// finishCycle fills in the cycle result, triggers refreshes, runs cache
// maintenance and records the cycle. The caller holds cycleMu.
func (s *MonitoringScheduler) finishCycle(
	ctx context.Context,
	cycle *domain.CycleResult,
	scans []domain.ScanResult,
	err error,
) {
	cycle.DirectoriesScanned = len(scans)
	for i := range scans {
		cycle.FilesProcessed += scans[i].Processed
	}
	cycle.Success = err == nil
	if err != nil {
		cycle.Error = err.Error()
		logger.Error("monitoring cycle: %v", err)
	}

	cycle.Refreshes = s.refresh(ctx, scans)
	s.pruneCache(ctx)

	cycle.EndedAt = s.now()
	logger.Info("Cycle finished: directories=%d processed=%d refreshes=%d success=%t",
		cycle.DirectoriesScanned, cycle.FilesProcessed, cycle.Refreshes, cycle.Success)

	s.record(ctx, cycle)
}

// refresh invokes the refresher once per directory that processed files
// and has auto refresh enabled. Outcomes are logged only.
func (s *MonitoringScheduler) refresh(ctx context.Context, scans []domain.ScanResult) int {
	if s.refresher == nil {
		return 0
	}

	refreshes := 0
	for i := range scans {
		scan := &scans[i]
		if scan.Processed == 0 {
			continue
		}
		dir, err := s.dirs.Get(ctx, scan.DirectoryID)
		if err != nil {
			logger.Warn("Refresh skipped for %s: %v", scan.DirectoryName, err)
			continue
		}
		if !dir.AutoRefresh {
			logger.Debug("Auto refresh disabled for %s", dir.Name)
			continue
		}

		refreshes++
		req := domain.RefreshRequest{
			DirectoryID:    dir.ID,
			DirectoryName:  dir.Name,
			ProcessedFiles: scan.ProcessedFiles(),
		}
		res, err := s.refresher.Refresh(ctx, req)
		if err != nil {
			logger.Warn("Refresh failed for %s: %v", dir.Name, err)
			continue
		}
		logger.Info("Refresh for %s: success=%t items=%d %s", dir.Name, res.Success, res.Items, res.Message)
	}
	return refreshes
}

// pruneCache removes expired cache entries at most once per prune interval.
func (s *MonitoringScheduler) pruneCache(ctx context.Context) {
	if s.cache == nil || s.config.CacheRetention <= 0 {
		return
	}
	now := s.now()
	if !s.lastPrune.IsZero() && now.Sub(s.lastPrune) < s.config.CachePruneInterval {
		return
	}
	s.lastPrune = now

	removed, err := s.cache.InvalidateOlderThan(ctx, s.config.CacheRetention)
	if err != nil {
		logger.Warn("Cache maintenance failed: %v", err)
		return
	}
	logger.Info("Cache maintenance removed %d entries older than %s", removed, s.config.CacheRetention)
}

func (s *MonitoringScheduler) record(ctx context.Context, cycle *domain.CycleResult) {
	last := *cycle
	s.mu.Lock()
	s.lastCycle = &last
	s.mu.Unlock()

	if s.store == nil {
		return
	}
	if err := s.store.RecordCycle(ctx, cycle); err != nil {
		logger.Warn("Failed to record cycle: %v", err)
	}
	if err := s.store.PruneHistory(ctx, s.config.HistoryKeep); err != nil {
		logger.Warn("Failed to prune cycle history: %v", err)
	}
}

// Status returns a snapshot of the scheduler.
func (s *MonitoringScheduler) Status() domain.SchedulerStatus {
	s.mu.Lock()
	status := domain.SchedulerStatus{
		Running:       s.running,
		CheckInterval: s.config.CheckInterval,
	}
	if s.running {
		next := s.nextRun
		status.NextRunEstimate = &next
	}
	if s.lastCycle != nil {
		last := *s.lastCycle
		status.LastCycle = &last
	}
	s.mu.Unlock()

	if status.LastCycle == nil && s.store != nil {
		last, err := s.store.LastCycle(context.Background())
		if err != nil {
			logger.Warn("Failed to load last cycle: %v", err)
		}
		status.LastCycle = last
	}
	return status
}

// History returns recorded cycles, most recent first.
func (s *MonitoringScheduler) History(ctx context.Context, limit int) ([]domain.CycleResult, error) {
	if s.store == nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.lastCycle == nil {
			return nil, nil
		}
		return []domain.CycleResult{*s.lastCycle}, nil
	}
	return s.store.History(ctx, limit)
}
