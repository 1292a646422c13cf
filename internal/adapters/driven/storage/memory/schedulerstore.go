package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/corpuswatch/internal/core/domain"
	"github.com/custodia-labs/corpuswatch/internal/core/ports/driven"
)

// Ensure SchedulerStore implements the interface.
var _ driven.SchedulerStore = (*SchedulerStore)(nil)

// SchedulerStore is an in-memory implementation of driven.SchedulerStore.
type SchedulerStore struct {
	mu     sync.RWMutex
	cycles []domain.CycleResult // in recording order
}

// NewSchedulerStore creates a new in-memory scheduler store.
func NewSchedulerStore() *SchedulerStore {
	return &SchedulerStore{}
}

// RecordCycle logs a completed cycle.
func (s *SchedulerStore) RecordCycle(_ context.Context, result *domain.CycleResult) error {
	if result == nil {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cycles = append(s.cycles, *result)
	return nil
}

// History returns recent cycles, most recent first.
func (s *SchedulerStore) History(_ context.Context, limit int) ([]domain.CycleResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sorted := s.newestFirst()
	if limit >= 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted, nil
}

// LastCycle returns the most recent cycle, or nil if none was recorded.
func (s *SchedulerStore) LastCycle(_ context.Context) (*domain.CycleResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sorted := s.newestFirst()
	if len(sorted) == 0 {
		return nil, nil
	}
	return &sorted[0], nil
}

// PruneHistory keeps the most recent 'keep' cycles per trigger.
func (s *SchedulerStore) PruneHistory(_ context.Context, keep int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := make(map[domain.CycleTrigger]int)
	var kept []domain.CycleResult
	for _, c := range s.newestFirst() {
		if counts[c.Trigger] >= keep {
			continue
		}
		counts[c.Trigger]++
		kept = append(kept, c)
	}
	// Restore recording order (oldest first).
	for i, j := 0, len(kept)-1; i < j; i, j = i+1, j-1 {
		kept[i], kept[j] = kept[j], kept[i]
	}
	s.cycles = kept
	return nil
}

// newestFirst returns a copy ordered by StartedAt descending, later
// recordings first on ties. Callers hold the lock.
func (s *SchedulerStore) newestFirst() []domain.CycleResult {
	out := make([]domain.CycleResult, len(s.cycles))
	for i, c := range s.cycles {
		out[len(s.cycles)-1-i] = c
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	return out
}
