package domain

import (
	"fmt"
	"time"
)

// DefaultCacheRetention is how long cache entries are kept before pruning.
const DefaultCacheRetention = 30 * 24 * time.Hour

// CacheKey identifies one content identity of one document.
// The content hash is part of the key, so a changed file can never
// be served the records of its previous content.
type CacheKey struct {
	DocumentID  string
	ContentHash string
}

// String returns the stable storage key.
func (k CacheKey) String() string {
	return fmt.Sprintf("doc_qa_%s_%s", k.DocumentID, k.ContentHash)
}

// IsZero returns true when either part of the key is missing.
func (k CacheKey) IsZero() bool {
	return k.DocumentID == "" || k.ContentHash == ""
}

// CacheEntry holds the derived records computed for a CacheKey.
type CacheEntry struct {
	Key        CacheKey
	Records    []DerivedRecord
	ComputedAt time.Time
}

// DerivedRecord is one structured record produced by the extraction collaborator.
type DerivedRecord struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`

	// Source names the document the record was derived from.
	Source string `json:"source,omitempty"`
}

// ProcessedDocument is the per-document metadata used by the
// "needs reprocessing" check.
type ProcessedDocument struct {
	Hash        string    `json:"hash"`
	ProcessedAt time.Time `json:"processedAt"`
}
