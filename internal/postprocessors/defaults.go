package postprocessors

import (
	"github.com/custodia-labs/corpuswatch/internal/adapters/driven/config/values"
	"github.com/custodia-labs/corpuswatch/internal/core/ports/driven"
	"github.com/custodia-labs/corpuswatch/internal/postprocessors/dedupe"
	"github.com/custodia-labs/corpuswatch/internal/postprocessors/truncate"
	"github.com/custodia-labs/corpuswatch/internal/postprocessors/validate"
)

// DefaultNames lists the built-in processors in their default order.
func DefaultNames() []string {
	return []string{"validate", "dedupe", "truncate"}
}

// RegisterDefaults registers the built-in processors.
func RegisterDefaults(r *Registry) {
	r.Register("validate", buildValidate)
	r.Register("dedupe", buildDedupe)
	r.Register("truncate", buildTruncate)
}

// buildValidate reads min_question and min_answer, in characters.
func buildValidate(cfg map[string]any) (driven.RecordProcessor, error) {
	var opts []validate.Option
	if n := values.Int(cfg["min_question"]); n > 0 {
		opts = append(opts, validate.WithMinQuestion(n))
	}
	if n := values.Int(cfg["min_answer"]); n > 0 {
		opts = append(opts, validate.WithMinAnswer(n))
	}
	return validate.New(opts...), nil
}

func buildDedupe(map[string]any) (driven.RecordProcessor, error) {
	return dedupe.New(), nil
}

// buildTruncate reads max_question and max_answer, in characters.
func buildTruncate(cfg map[string]any) (driven.RecordProcessor, error) {
	var opts []truncate.Option
	if n := values.Int(cfg["max_question"]); n > 0 {
		opts = append(opts, truncate.WithMaxQuestion(n))
	}
	if n := values.Int(cfg["max_answer"]); n > 0 {
		opts = append(opts, truncate.WithMaxAnswer(n))
	}
	return truncate.New(opts...), nil
}
