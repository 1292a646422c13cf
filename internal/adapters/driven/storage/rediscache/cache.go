// Package rediscache provides an ExtractionCache backed by Redis, for
// deployments where several monitors share one cache.
package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/corpuswatch/internal/core/domain"
	"github.com/custodia-labs/corpuswatch/internal/core/ports/driven"
)

// Ensure ExtractionCache implements the interface.
var _ driven.ExtractionCache = (*ExtractionCache)(nil)

// DefaultPrefix namespaces every key written by the cache.
const DefaultPrefix = "corpuswatch:cache:"

// Field names in the per-document hash.
const (
	fieldHash       = "hash"
	fieldRecords    = "records"
	fieldComputedAt = "computed_at"
)

// Config holds Redis connection and cache configuration.
type Config struct {
	Addr     string
	Password string
	DB       int

	// Prefix namespaces keys (default: corpuswatch:cache:).
	Prefix string

	// Retention sets the TTL of document entries. Zero keeps them until pruned.
	Retention time.Duration
}

// ExtractionCache stores one hash per document at <prefix>doc_qa_<id> and
// a metadata hash at <prefix>meta mapping document IDs to their last
// processed hash and time.
type ExtractionCache struct {
	client    *redis.Client
	prefix    string
	retention time.Duration
	now       domain.Clock
}

// New connects to Redis and verifies the connection.
func New(ctx context.Context, cfg Config) (*ExtractionCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", cfg.Addr, err)
	}

	return NewWithClient(client, cfg), nil
}

// NewWithClient wraps an existing client. Connection fields of cfg are ignored.
func NewWithClient(client *redis.Client, cfg Config) *ExtractionCache {
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &ExtractionCache{
		client:    client,
		prefix:    prefix,
		retention: cfg.Retention,
		now:       time.Now,
	}
}

// WithClock replaces the clock used for timestamps and pruning.
func (c *ExtractionCache) WithClock(clock domain.Clock) *ExtractionCache {
	c.now = clock
	return c
}

// Close releases the Redis connection.
func (c *ExtractionCache) Close() error {
	return c.client.Close()
}

func (c *ExtractionCache) docKey(documentID string) string {
	return c.prefix + "doc_qa_" + documentID
}

func (c *ExtractionCache) metaKey() string {
	return c.prefix + "meta"
}

// Get returns the entry for key, or nil on a miss or a hash mismatch.
func (c *ExtractionCache) Get(ctx context.Context, key domain.CacheKey) (*domain.CacheEntry, error) {
	fields, err := c.client.HGetAll(ctx, c.docKey(key.DocumentID)).Result()
	if err != nil {
		return nil, &domain.CacheIOError{Op: "get", Key: key.String(), Err: err}
	}
	if len(fields) == 0 || fields[fieldHash] != key.ContentHash {
		return nil, nil
	}

	entry := &domain.CacheEntry{Key: key, Records: []domain.DerivedRecord{}}
	if raw := fields[fieldRecords]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &entry.Records); err != nil {
			return nil, &domain.CacheIOError{Op: "get", Key: key.String(), Err: err}
		}
	}
	if secs, err := strconv.ParseInt(fields[fieldComputedAt], 10, 64); err == nil {
		entry.ComputedAt = time.Unix(secs, 0).UTC()
	}
	return entry, nil
}

// Put stores an entry, replacing any previous entry for the document.
func (c *ExtractionCache) Put(ctx context.Context, entry domain.CacheEntry) error {
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
	at := entry.ComputedAt
	if at.IsZero() {
		at = c.now()
	}
	meta, err := json.Marshal(domain.ProcessedDocument{Hash: entry.Key.ContentHash, ProcessedAt: at.UTC()})
	if err != nil {
		return &domain.CacheIOError{Op: "put", Key: entry.Key.String(), Err: err}
	}

	docKey := c.docKey(entry.Key.DocumentID)
	_, err = c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, docKey)
		pipe.HSet(ctx, docKey,
			fieldHash, entry.Key.ContentHash,
			fieldRecords, string(data),
			fieldComputedAt, strconv.FormatInt(at.Unix(), 10),
		)
		if c.retention > 0 {
			pipe.Expire(ctx, docKey, c.retention)
		}
		pipe.HSet(ctx, c.metaKey(), entry.Key.DocumentID, string(meta))
		return nil
	})
	if err != nil {
		return &domain.CacheIOError{Op: "put", Key: entry.Key.String(), Err: err}
	}
	return nil
}

// NeedsReprocessing reports whether the document was never processed or
// was processed with a different hash.
func (c *ExtractionCache) NeedsReprocessing(ctx context.Context, documentID, hash string) (bool, error) {
	raw, err := c.client.HGet(ctx, c.metaKey(), documentID).Result()
	if errors.Is(err, redis.Nil) {
		return true, nil
	}
	if err != nil {
		return false, &domain.CacheIOError{Op: "check", Key: documentID, Err: err}
	}

	var meta domain.ProcessedDocument
	if err := json.Unmarshal([]byte(raw), &meta); err != nil {
		return true, nil
	}
	return meta.Hash != hash, nil
}

// Invalidate removes a document and its metadata.
func (c *ExtractionCache) Invalidate(ctx context.Context, documentID string) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, c.docKey(documentID))
		pipe.HDel(ctx, c.metaKey(), documentID)
		return nil
	})
	if err != nil {
		return &domain.CacheIOError{Op: "invalidate", Key: documentID, Err: err}
	}
	return nil
}

// InvalidateOlderThan removes documents processed more than age ago.
// Document hashes that already expired are only dropped from the metadata.
func (c *ExtractionCache) InvalidateOlderThan(ctx context.Context, age time.Duration) (int, error) {
	cutoff := c.now().Add(-age)

	all, err := c.client.HGetAll(ctx, c.metaKey()).Result()
	if err != nil {
		return 0, &domain.CacheIOError{Op: "prune", Err: err}
	}

	var stale []string
	for id, raw := range all {
		var meta domain.ProcessedDocument
		if err := json.Unmarshal([]byte(raw), &meta); err != nil || meta.ProcessedAt.Before(cutoff) {
			stale = append(stale, id)
		}
	}
	if len(stale) == 0 {
		return 0, nil
	}

	_, err = c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, id := range stale {
			pipe.Del(ctx, c.docKey(id))
		}
		pipe.HDel(ctx, c.metaKey(), stale...)
		return nil
	})
	if err != nil {
		return 0, &domain.CacheIOError{Op: "prune", Err: err}
	}
	return len(stale), nil
}
