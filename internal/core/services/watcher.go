package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/corpuswatch/internal/core/domain"
	"github.com/custodia-labs/corpuswatch/internal/core/ports/driven"
	"github.com/custodia-labs/corpuswatch/internal/logger"
)

// DefaultWatchDebounce is the quiet period before changed directories are rescanned.
const DefaultWatchDebounce = 2 * time.Second

// DirectoryTrigger scans one directory outside the timer.
// Implemented by MonitoringScheduler.
type DirectoryTrigger interface {
	TriggerDirectory(ctx context.Context, directoryID string) domain.CycleResult
}

// Watcher rescans directories when their files change.
// Rapid changes are collected and trigger a single scan per directory
// once things settle.
type Watcher struct {
	notifier driven.ChangeNotifier
	dirs     driven.DirectoryStore
	trigger  DirectoryTrigger
	debounce time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	pending map[string]struct{} // directory IDs
	flushes sync.WaitGroup
}

// NewWatcher creates a watcher. A non-positive debounce uses DefaultWatchDebounce.
func NewWatcher(
	notifier driven.ChangeNotifier,
	dirs driven.DirectoryStore,
	trigger DirectoryTrigger,
	debounce time.Duration,
) *Watcher {
	if debounce <= 0 {
		debounce = DefaultWatchDebounce
	}
	return &Watcher{
		notifier: notifier,
		dirs:     dirs,
		trigger:  trigger,
		debounce: debounce,
		pending:  make(map[string]struct{}),
	}
}

// Run watches the enabled directories until ctx is cancelled.
// Directories added after Run starts are not watched.
func (w *Watcher) Run(ctx context.Context) error {
	dirs, err := w.dirs.ListEnabled(ctx)
	if err != nil {
		return fmt.Errorf("list directories: %w", err)
	}
	if len(dirs) == 0 {
		logger.Info("Watch mode: no enabled directories")
		<-ctx.Done()
		return nil
	}

	byRoot := make(map[string]string, len(dirs))
	roots := make([]string, 0, len(dirs))
	for _, d := range dirs {
		byRoot[d.Path] = d.ID
		roots = append(roots, d.Path)
	}

	changes, err := w.notifier.Watch(ctx, roots)
	if err != nil {
		return fmt.Errorf("watch directories: %w", err)
	}
	logger.Info("Watching %d directories (debounce %s)", len(roots), w.debounce)

	defer w.stop()
	for change := range changes {
		id, ok := byRoot[change.Root]
		if !ok {
			logger.Debug("Change outside watched roots: %s", change.Path)
			continue
		}
		logger.Debug("Change %s: %s", change.Type, change.Path)
		w.changed(ctx, id)
	}
	return nil
}

// changed records a change in a directory and re-arms the debounce timer.
func (w *Watcher) changed(ctx context.Context, directoryID string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.pending[directoryID] = struct{}{}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() { w.flush(ctx) })
}

// flush scans every directory that changed since the last flush.
func (w *Watcher) flush(ctx context.Context) {
	w.flushes.Add(1)
	defer w.flushes.Done()

	w.mu.Lock()
	ids := make([]string, 0, len(w.pending))
	for id := range w.pending {
		ids = append(ids, id)
	}
	w.pending = make(map[string]struct{})
	w.timer = nil
	w.mu.Unlock()

	sort.Strings(ids)
	for _, id := range ids {
		if ctx.Err() != nil {
			return
		}
		cycle := w.trigger.TriggerDirectory(ctx, id)
		if !cycle.Success {
			logger.Warn("Watch-triggered scan of %s failed: %s", id, cycle.Error)
		}
	}
}

// stop cancels a pending flush and waits for a running one.
func (w *Watcher) stop() {
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	w.mu.Unlock()
	w.flushes.Wait()
}
