// Package truncate provides a record processor that shortens long questions
// and answers.
package truncate

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/corpuswatch/internal/core/domain"
	"github.com/custodia-labs/corpuswatch/internal/core/ports/driven"
)

// Ensure Processor implements the interface.
var _ driven.RecordProcessor = (*Processor)(nil)

// DefaultMaxQuestion is the default maximum question length in characters.
const DefaultMaxQuestion = 200

// DefaultMaxAnswer is the default maximum answer length in characters.
const DefaultMaxAnswer = 500

// ellipsis marks truncated text.
const ellipsis = "..."

// Processor shortens questions and answers that exceed their limits.
// Text is cut at a word boundary where possible.
type Processor struct {
	maxQuestion int
	maxAnswer   int
}

// Option configures the truncate processor.
type Option func(*Processor)

// WithMaxQuestion sets the maximum question length in characters.
func WithMaxQuestion(n int) Option {
	return func(p *Processor) {
		if n > len(ellipsis) {
			p.maxQuestion = n
		}
	}
}

// WithMaxAnswer sets the maximum answer length in characters.
func WithMaxAnswer(n int) Option {
	return func(p *Processor) {
		if n > len(ellipsis) {
			p.maxAnswer = n
		}
	}
}

// New creates a new truncate processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		maxQuestion: DefaultMaxQuestion,
		maxAnswer:   DefaultMaxAnswer,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "truncate"
}

// Process returns copies of the records with long text shortened.
func (p *Processor) Process(
	_ context.Context,
	_ domain.ExtractionRequest,
	records []domain.DerivedRecord,
) ([]domain.DerivedRecord, error) {
	out := make([]domain.DerivedRecord, len(records))
	for i, r := range records {
		r.Question = shorten(r.Question, p.maxQuestion)
		r.Answer = shorten(r.Answer, p.maxAnswer)
		out[i] = r
	}
	return out, nil
}

// shorten cuts s to at most limit runes including the ellipsis.
func shorten(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}

	runes := []rune(s)
	cut := string(runes[:limit-len(ellipsis)])

	// Prefer a word boundary in the second half.
	if i := strings.LastIndexByte(cut, ' '); i > len(cut)/2 {
		cut = cut[:i]
	}

	return strings.TrimRight(cut, " ,;:") + ellipsis
}
