// Package postprocessors provides the clean-up steps applied to derived
// records before they are cached.
package postprocessors

import (
	"context"
	"fmt"

	"github.com/custodia-labs/corpuswatch/internal/core/domain"
	"github.com/custodia-labs/corpuswatch/internal/core/ports/driven"
)

// Ensure Pipeline implements the interface.
var _ driven.RecordPipeline = (*Pipeline)(nil)

// Pipeline chains multiple RecordProcessors and runs them in order.
type Pipeline struct {
	processors []driven.RecordProcessor
}

// NewPipeline creates a new processing pipeline with the given processors.
// Processors are executed in the order provided.
func NewPipeline(processors ...driven.RecordProcessor) *Pipeline {
	return &Pipeline{
		processors: processors,
	}
}

// Process runs the records through all processors in order. Processing
// stops early once no records are left.
func (p *Pipeline) Process(
	ctx context.Context,
	req domain.ExtractionRequest,
	records []domain.DerivedRecord,
) ([]domain.DerivedRecord, error) {
	for _, processor := range p.processors {
		if len(records) == 0 {
			break
		}
		var err error
		records, err = processor.Process(ctx, req, records)
		if err != nil {
			return nil, fmt.Errorf("processor %s: %w", processor.Name(), err)
		}
	}

	return records, nil
}

// Add appends a processor to the pipeline.
func (p *Pipeline) Add(processor driven.RecordProcessor) {
	p.processors = append(p.processors, processor)
}

// Len returns the number of processors in the pipeline.
func (p *Pipeline) Len() int {
	return len(p.processors)
}

// Names returns the processor names in execution order.
func (p *Pipeline) Names() []string {
	names := make([]string, len(p.processors))
	for i, processor := range p.processors {
		names[i] = processor.Name()
	}
	return names
}
