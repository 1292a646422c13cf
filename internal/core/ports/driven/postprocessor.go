package driven

import (
	"context"

	"github.com/custodia-labs/corpuswatch/internal/core/domain"
)

// RecordProcessor cleans up the records an extractor derived from one file.
// RecordProcessors are chained in a pipeline (e.g. validation, deduplication, truncation).
type RecordProcessor interface {
	// Name returns the processor name for logging and configuration.
	Name() string

	// Process receives the records of one extraction request and returns the
	// records to keep. It may drop, rewrite or reorder them.
	Process(ctx context.Context, req domain.ExtractionRequest, records []domain.DerivedRecord) ([]domain.DerivedRecord, error)
}

// RecordPipeline chains multiple RecordProcessors.
type RecordPipeline interface {
	// Process runs the records through all processors in order.
	Process(ctx context.Context, req domain.ExtractionRequest, records []domain.DerivedRecord) ([]domain.DerivedRecord, error)
}
