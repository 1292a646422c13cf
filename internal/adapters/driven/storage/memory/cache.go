package memory

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/corpuswatch/internal/core/domain"
	"github.com/custodia-labs/corpuswatch/internal/core/ports/driven"
)

// Ensure ExtractionCache implements the interface.
var _ driven.ExtractionCache = (*ExtractionCache)(nil)

// ExtractionCache is an in-memory implementation of driven.ExtractionCache.
// It keeps one entry per document.
type ExtractionCache struct {
	mu      sync.RWMutex
	entries map[string]domain.CacheEntry
	now     domain.Clock
}

// NewExtractionCache creates a new in-memory cache.
func NewExtractionCache() *ExtractionCache {
	return &ExtractionCache{
		entries: make(map[string]domain.CacheEntry),
		now:     time.Now,
	}
}

// WithClock replaces the clock used for ComputedAt defaults and pruning.
func (c *ExtractionCache) WithClock(clock domain.Clock) *ExtractionCache {
	c.now = clock
	return c
}

// Get returns the entry for key, or nil on a miss or a hash mismatch.
func (c *ExtractionCache) Get(_ context.Context, key domain.CacheKey) (*domain.CacheEntry, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[key.DocumentID]
	if !ok || entry.Key.ContentHash != key.ContentHash {
		return nil, nil
	}
	entry.Records = append([]domain.DerivedRecord{}, entry.Records...)
	return &entry, nil
}

// Put stores an entry, replacing any previous entry for the document.
func (c *ExtractionCache) Put(_ context.Context, entry domain.CacheEntry) error {
	if entry.Key.IsZero() {
		return &domain.CacheIOError{Op: "put", Err: domain.ErrInvalidInput}
	}
	if entry.ComputedAt.IsZero() {
		entry.ComputedAt = c.now()
	}
	entry.Records = append([]domain.DerivedRecord{}, entry.Records...)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[entry.Key.DocumentID] = entry
	return nil
}

// NeedsReprocessing reports whether the document has no entry for hash.
func (c *ExtractionCache) NeedsReprocessing(_ context.Context, documentID, hash string) (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[documentID]
	return !ok || entry.Key.ContentHash != hash, nil
}

// Invalidate removes the entry for a document.
func (c *ExtractionCache) Invalidate(_ context.Context, documentID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, documentID)
	return nil
}

// InvalidateOlderThan removes entries computed more than age ago.
func (c *ExtractionCache) InvalidateOlderThan(_ context.Context, age time.Duration) (int, error) {
	cutoff := c.now().Add(-age)
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for id, entry := range c.entries {
		if entry.ComputedAt.Before(cutoff) {
			delete(c.entries, id)
			removed++
		}
	}
	return removed, nil
}

// Len returns the number of cached documents.
func (c *ExtractionCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
