// Package dedupe provides a record processor that drops repeated questions.
package dedupe

import (
	"context"
	"strings"

	"github.com/custodia-labs/corpuswatch/internal/core/domain"
	"github.com/custodia-labs/corpuswatch/internal/core/ports/driven"
)

// Ensure Processor implements the interface.
var _ driven.RecordProcessor = (*Processor)(nil)

// Processor keeps the first record of each question. Questions are
// compared case-insensitively with whitespace collapsed.
type Processor struct{}

// New creates a new dedupe processor.
func New() *Processor {
	return &Processor{}
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "dedupe"
}

// Process returns the records without repeated questions.
func (p *Processor) Process(
	_ context.Context,
	_ domain.ExtractionRequest,
	records []domain.DerivedRecord,
) ([]domain.DerivedRecord, error) {
	seen := make(map[string]bool, len(records))
	out := make([]domain.DerivedRecord, 0, len(records))
	for _, r := range records {
		key := normalise(r.Question)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, r)
	}
	return out, nil
}

func normalise(question string) string {
	return strings.ToLower(strings.Join(strings.Fields(question), " "))
}
