package driven

import (
	"context"

	"github.com/custodia-labs/corpuswatch/internal/core/domain"
)

// Normaliser extracts plain text from files of specific formats
// (e.g., PDF, Markdown).
type Normaliser interface {
	// SupportedExtensions returns the lower-cased extensions this normaliser
	// handles, including the leading dot.
	SupportedExtensions() []string

	// Priority returns the selection priority (higher = preferred).
	// Format-specific normalisers should return 50-89.
	// Fallback normalisers should return 1-9.
	Priority() int

	// Normalise extracts the text content of a file.
	Normalise(ctx context.Context, raw *domain.RawFile) (*domain.ExtractedContent, error)
}
