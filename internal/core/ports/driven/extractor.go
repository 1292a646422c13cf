package driven

import (
	"context"

	"github.com/custodia-labs/corpuswatch/internal/core/domain"
)

// Extractor derives structured records from file content.
// It is the knowledge-extraction collaborator; implementations may be slow
// and callers are expected to bound each call with a context deadline.
type Extractor interface {
	// Extract produces records for one document.
	// Unparseable collaborator output is reported as *domain.ExtractionError.
	Extract(ctx context.Context, req domain.ExtractionRequest) ([]domain.DerivedRecord, error)
}

// CorpusRefresher asks the downstream corpus to rebuild after new
// content was processed. The outcome is informational only.
type CorpusRefresher interface {
	Refresh(ctx context.Context, req domain.RefreshRequest) (domain.RefreshResult, error)
}
