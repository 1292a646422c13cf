package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/custodia-labs/corpuswatch/internal/core/domain"
	"github.com/custodia-labs/corpuswatch/internal/core/ports/driven"
)

// cacheStore implements driven.ExtractionCache.
// One row per document holds the records of its last content hash.
type cacheStore struct {
	store *Store
	now   domain.Clock
}

var _ driven.ExtractionCache = (*cacheStore)(nil)

// Get returns the entry for key, or nil on a miss or a hash mismatch.
func (c *cacheStore) Get(ctx context.Context, key domain.CacheKey) (*domain.CacheEntry, error) {
	row := c.store.db.QueryRowContext(ctx, `
		SELECT records, computed_at FROM cache_entries
		WHERE document_id = ? AND content_hash = ?
	`, key.DocumentID, key.ContentHash)

	var records, computedAt string
	if err := row.Scan(&records, &computedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, &domain.CacheIOError{Op: "get", Key: key.String(), Err: err}
	}

	entry := &domain.CacheEntry{Key: key, ComputedAt: parseTime(computedAt)}
	if err := json.Unmarshal([]byte(records), &entry.Records); err != nil {
		return nil, &domain.CacheIOError{Op: "get", Key: key.String(), Err: err}
	}
	return entry, nil
}

// Put stores an entry, replacing any previous entry for the document.
func (c *cacheStore) Put(ctx context.Context, entry domain.CacheEntry) error {
	if entry.Key.IsZero() {
		return &domain.CacheIOError{Op: "put", Err: domain.ErrInvalidInput}
	}
	records := entry.Records
	if records == nil {
		records = []domain.DerivedRecord{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return &domain.CacheIOError{Op: "put", Key: entry.Key.String(), Err: err}
	}
	computedAt := entry.ComputedAt
	if computedAt.IsZero() {
		computedAt = c.now()
	}

	_, err = c.store.db.ExecContext(ctx, `
		INSERT INTO cache_entries (document_id, content_hash, records, computed_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(document_id) DO UPDATE SET
			content_hash = excluded.content_hash,
			records = excluded.records,
			computed_at = excluded.computed_at
	`, entry.Key.DocumentID, entry.Key.ContentHash, string(data), formatTime(computedAt))
	if err != nil {
		return &domain.CacheIOError{Op: "put", Key: entry.Key.String(), Err: err}
	}
	return nil
}

// NeedsReprocessing reports whether the document has no entry for hash.
func (c *cacheStore) NeedsReprocessing(ctx context.Context, documentID, hash string) (bool, error) {
	var stored string
	err := c.store.db.QueryRowContext(ctx,
		"SELECT content_hash FROM cache_entries WHERE document_id = ?", documentID).Scan(&stored)
	if errors.Is(err, sql.ErrNoRows) {
		return true, nil
	}
	if err != nil {
		return false, &domain.CacheIOError{Op: "check", Key: documentID, Err: err}
	}
	return stored != hash, nil
}

// Invalidate removes the entry for a document.
func (c *cacheStore) Invalidate(ctx context.Context, documentID string) error {
	_, err := c.store.db.ExecContext(ctx, "DELETE FROM cache_entries WHERE document_id = ?", documentID)
	if err != nil {
		return &domain.CacheIOError{Op: "invalidate", Key: documentID, Err: err}
	}
	return nil
}

// InvalidateOlderThan removes entries computed more than age ago.
func (c *cacheStore) InvalidateOlderThan(ctx context.Context, age time.Duration) (int, error) {
	cutoff := c.now().Add(-age)
	res, err := c.store.db.ExecContext(ctx,
		"DELETE FROM cache_entries WHERE computed_at < ?", formatTime(cutoff))
	if err != nil {
		return 0, &domain.CacheIOError{Op: "prune", Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, &domain.CacheIOError{Op: "prune", Err: err}
	}
	return int(n), nil
}
