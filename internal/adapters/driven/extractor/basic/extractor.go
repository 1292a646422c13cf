// Package basic provides a deterministic extractor that needs no model.
// It is used when no model endpoint is configured and as a fallback
// when the model is unreachable.
package basic

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/corpuswatch/internal/core/domain"
	"github.com/custodia-labs/corpuswatch/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

const (
	// minLineLength is the shortest line considered meaningful.
	minLineLength = 10

	// maxAnswerLength caps the quoted line.
	maxAnswerLength = 100
)

// Extractor builds records from the filename, description and first
// meaningful line of the preview.
type Extractor struct{}

// New creates a basic extractor.
func New() *Extractor {
	return &Extractor{}
}

// Extract returns up to two records. A preview without any meaningful
// line yields no records.
func (e *Extractor) Extract(ctx context.Context, req domain.ExtractionRequest) ([]domain.DerivedRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	line := firstMeaningfulLine(req.ContentPreview)
	if line == "" {
		return nil, nil
	}

	answer := req.SuggestedDescription
	if answer == "" {
		answer = fmt.Sprintf("A document named %q.", req.Filename)
	}

	records := []domain.DerivedRecord{
		{
			Question: fmt.Sprintf("What is the document %q?", req.Filename),
			Answer:   answer,
			Source:   req.Filename,
		},
		{
			Question: fmt.Sprintf("What is the main content of the document %q?", req.Filename),
			Answer:   "The document contains: " + truncate(line, maxAnswerLength),
			Source:   req.Filename,
		},
	}

	if req.MaxRecords > 0 && len(records) > req.MaxRecords {
		records = records[:req.MaxRecords]
	}
	return records, nil
}

func firstMeaningfulLine(text string) string {
	for line := range strings.SplitSeq(text, "\n") {
		if line = strings.TrimSpace(line); len([]rune(line)) > minLineLength {
			return line
		}
	}
	return ""
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
