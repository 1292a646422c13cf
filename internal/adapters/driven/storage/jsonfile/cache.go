// Package jsonfile provides an ExtractionCache that keeps one JSON document
// per monitored file in a cache directory.
//
// Layout:
//
//	<dir>/doc_qa_<documentID>.json   {"hash", "records", "generatedAt"}
//	<dir>/processed_documents.json   {"<documentID>": {"hash", "processedAt"}}
//
// The processed index drives NeedsReprocessing and pruning. Every write goes
// through a temporary file and a rename.
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/corpuswatch/internal/core/domain"
	"github.com/custodia-labs/corpuswatch/internal/core/ports/driven"
)

// Ensure ExtractionCache implements the interface.
var _ driven.ExtractionCache = (*ExtractionCache)(nil)

const indexFile = "processed_documents.json"

// docFile is the content of one doc_qa_<id>.json file.
type docFile struct {
	Hash        string                 `json:"hash"`
	Records     []domain.DerivedRecord `json:"records"`
	GeneratedAt time.Time              `json:"generatedAt"`
}

// ExtractionCache is a file-backed implementation of driven.ExtractionCache.
// It is safe for concurrent use within one process.
type ExtractionCache struct {
	mu  sync.Mutex
	dir string
	now domain.Clock
}

// New creates a cache rooted at dir, creating the directory if needed.
func New(dir string) (*ExtractionCache, error) {
	if dir == "" {
		return nil, fmt.Errorf("cache dir: %w", domain.ErrInvalidInput)
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &ExtractionCache{dir: dir, now: time.Now}, nil
}

// WithClock replaces the clock used for timestamps and pruning.
func (c *ExtractionCache) WithClock(clock domain.Clock) *ExtractionCache {
	c.now = clock
	return c
}

// Dir returns the cache directory.
func (c *ExtractionCache) Dir() string {
	return c.dir
}

// Get returns the entry for key, or nil on a miss or a hash mismatch.
func (c *ExtractionCache) Get(_ context.Context, key domain.CacheKey) (*domain.CacheEntry, error) {
	path, err := c.docPath(key.DocumentID)
	if err != nil {
		return nil, &domain.CacheIOError{Op: "get", Key: key.String(), Err: err}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	var doc docFile
	found, err := readJSON(path, &doc)
	if err != nil {
		return nil, &domain.CacheIOError{Op: "get", Key: key.String(), Err: err}
	}
	if !found || doc.Hash != key.ContentHash {
		return nil, nil
	}

	records := doc.Records
	if records == nil {
		records = []domain.DerivedRecord{}
	}
	return &domain.CacheEntry{Key: key, Records: records, ComputedAt: doc.GeneratedAt}, nil
}

// Put stores an entry, replacing any previous entry for the document.
func (c *ExtractionCache) Put(_ context.Context, entry domain.CacheEntry) error {
	if entry.Key.IsZero() {
		return &domain.CacheIOError{Op: "put", Err: domain.ErrInvalidInput}
	}
	path, err := c.docPath(entry.Key.DocumentID)
	if err != nil {
		return &domain.CacheIOError{Op: "put", Key: entry.Key.String(), Err: err}
	}
	at := entry.ComputedAt
	if at.IsZero() {
		at = c.now()
	}
	records := entry.Records
	if records == nil {
		records = []domain.DerivedRecord{}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	doc := docFile{Hash: entry.Key.ContentHash, Records: records, GeneratedAt: at.UTC()}
	if err := writeJSON(path, doc); err != nil {
		return &domain.CacheIOError{Op: "put", Key: entry.Key.String(), Err: err}
	}

	index, err := c.readIndex()
	if err != nil {
		return &domain.CacheIOError{Op: "put", Key: entry.Key.String(), Err: err}
	}
	index[entry.Key.DocumentID] = domain.ProcessedDocument{Hash: entry.Key.ContentHash, ProcessedAt: at.UTC()}
	if err := c.writeIndex(index); err != nil {
		return &domain.CacheIOError{Op: "put", Key: entry.Key.String(), Err: err}
	}
	return nil
}

// NeedsReprocessing reports whether the document was never processed or
// was processed with a different hash.
func (c *ExtractionCache) NeedsReprocessing(_ context.Context, documentID, hash string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	index, err := c.readIndex()
	if err != nil {
		return false, &domain.CacheIOError{Op: "check", Key: documentID, Err: err}
	}
	meta, ok := index[documentID]
	return !ok || meta.Hash != hash, nil
}

// Invalidate removes a document file and its index entry.
func (c *ExtractionCache) Invalidate(_ context.Context, documentID string) error {
	path, err := c.docPath(documentID)
	if err != nil {
		return &domain.CacheIOError{Op: "invalidate", Key: documentID, Err: err}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return &domain.CacheIOError{Op: "invalidate", Key: documentID, Err: err}
	}
	index, err := c.readIndex()
	if err != nil {
		return &domain.CacheIOError{Op: "invalidate", Key: documentID, Err: err}
	}
	if _, ok := index[documentID]; !ok {
		return nil
	}
	delete(index, documentID)
	if err := c.writeIndex(index); err != nil {
		return &domain.CacheIOError{Op: "invalidate", Key: documentID, Err: err}
	}
	return nil
}

// InvalidateOlderThan removes documents processed more than age ago.
func (c *ExtractionCache) InvalidateOlderThan(_ context.Context, age time.Duration) (int, error) {
	cutoff := c.now().Add(-age)

	c.mu.Lock()
	defer c.mu.Unlock()

	index, err := c.readIndex()
	if err != nil {
		return 0, &domain.CacheIOError{Op: "prune", Err: err}
	}

	var errs []error
	removed := 0
	for id, meta := range index {
		if !meta.ProcessedAt.Before(cutoff) {
			continue
		}
		path, err := c.docPath(id)
		if err == nil {
			err = os.Remove(path)
		}
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
			continue
		}
		delete(index, id)
		removed++
	}

	if removed > 0 {
		if err := c.writeIndex(index); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return removed, &domain.CacheIOError{Op: "prune", Err: err}
	}
	return removed, nil
}

// Processed returns a copy of the processed documents index.
func (c *ExtractionCache) Processed() (map[string]domain.ProcessedDocument, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.readIndex()
}

func (c *ExtractionCache) docPath(documentID string) (string, error) {
	if documentID == "" || strings.ContainsAny(documentID, `/\`) || strings.Contains(documentID, "..") {
		return "", fmt.Errorf("document id %q: %w", documentID, domain.ErrInvalidInput)
	}
	return filepath.Join(c.dir, "doc_qa_"+documentID+".json"), nil
}

// readIndex loads the processed index (caller must hold lock).
func (c *ExtractionCache) readIndex() (map[string]domain.ProcessedDocument, error) {
	index := make(map[string]domain.ProcessedDocument)
	if _, err := readJSON(filepath.Join(c.dir, indexFile), &index); err != nil {
		return nil, err
	}
	if index == nil {
		index = make(map[string]domain.ProcessedDocument)
	}
	return index, nil
}

// writeIndex persists the processed index (caller must hold lock).
func (c *ExtractionCache) writeIndex(index map[string]domain.ProcessedDocument) error {
	return writeJSON(filepath.Join(c.dir, indexFile), index)
}

// readJSON decodes path into v. A missing file is reported as not found.
func readJSON(path string, v any) (bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return true, nil
}

// writeJSON replaces path atomically.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("close %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("replace %s: %w", filepath.Base(path), err)
	}
	return nil
}
