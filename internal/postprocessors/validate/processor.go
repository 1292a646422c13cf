// Package validate provides a record processor that drops incomplete or
// trivially short records.
package validate

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/corpuswatch/internal/core/domain"
	"github.com/custodia-labs/corpuswatch/internal/core/ports/driven"
	"github.com/custodia-labs/corpuswatch/internal/logger"
)

// Ensure Processor implements the interface.
var _ driven.RecordProcessor = (*Processor)(nil)

// DefaultMinQuestion is the default minimum question length in characters.
const DefaultMinQuestion = 10

// DefaultMinAnswer is the default minimum answer length in characters.
const DefaultMinAnswer = 20

// Processor drops records whose question or answer is missing or shorter
// than the configured minimum. Surrounding whitespace is trimmed.
type Processor struct {
	minQuestion int
	minAnswer   int
}

// Option configures the validate processor.
type Option func(*Processor)

// WithMinQuestion sets the minimum question length in characters.
func WithMinQuestion(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.minQuestion = n
		}
	}
}

// WithMinAnswer sets the minimum answer length in characters.
func WithMinAnswer(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.minAnswer = n
		}
	}
}

// New creates a new validate processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		minQuestion: DefaultMinQuestion,
		minAnswer:   DefaultMinAnswer,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "validate"
}

// Process returns the records that pass validation, trimmed.
func (p *Processor) Process(
	_ context.Context,
	req domain.ExtractionRequest,
	records []domain.DerivedRecord,
) ([]domain.DerivedRecord, error) {
	out := make([]domain.DerivedRecord, 0, len(records))
	for _, r := range records {
		r.Question = strings.TrimSpace(r.Question)
		r.Answer = strings.TrimSpace(r.Answer)

		if reason := p.check(r); reason != "" {
			logger.Debug("Dropped record from %s: %s", req.Filename, reason)
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (p *Processor) check(r domain.DerivedRecord) string {
	switch {
	case r.Question == "" || r.Answer == "":
		return "question or answer missing"
	case utf8.RuneCountInString(r.Question) < p.minQuestion:
		return "question too short"
	case utf8.RuneCountInString(r.Answer) < p.minAnswer:
		return "answer too short"
	default:
		return ""
	}
}
