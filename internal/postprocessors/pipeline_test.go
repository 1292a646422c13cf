package postprocessors

import (
	"context"
	"errors"
	"testing"

	"github.com/custodia-labs/corpuswatch/internal/core/domain"
)

// mockProcessor is a test processor that returns predefined records.
type mockProcessor struct {
	name    string
	records []domain.DerivedRecord
	err     error
	calls   int
}

func (m *mockProcessor) Name() string {
	return m.name
}

func (m *mockProcessor) Process(
	_ context.Context,
	_ domain.ExtractionRequest,
	records []domain.DerivedRecord,
) ([]domain.DerivedRecord, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if m.records != nil {
		return m.records, nil
	}
	return records, nil
}

func testRecords() []domain.DerivedRecord {
	return []domain.DerivedRecord{
		{Question: "What is covered?", Answer: "Accidental damage.", Source: "policy.txt"},
	}
}

func TestNewPipeline(t *testing.T) {
	p := NewPipeline()
	if p == nil {
		t.Fatal("expected non-nil pipeline")
	}
	if p.Len() != 0 {
		t.Errorf("expected 0 processors, got %d", p.Len())
	}
}

func TestPipeline_Add(t *testing.T) {
	p := NewPipeline()
	p.Add(&mockProcessor{name: "test"})

	if p.Len() != 1 {
		t.Errorf("expected 1 processor, got %d", p.Len())
	}
	if names := p.Names(); len(names) != 1 || names[0] != "test" {
		t.Errorf("unexpected names: %v", names)
	}
}

func TestPipeline_Process_EmptyPipeline(t *testing.T) {
	p := NewPipeline()

	records, err := p.Process(context.Background(), domain.ExtractionRequest{}, testRecords())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("expected records unchanged, got %d", len(records))
	}
}

func TestPipeline_Process_MultipleProcessors(t *testing.T) {
	replaced := []domain.DerivedRecord{
		{Question: "first", Answer: "one"},
		{Question: "second", Answer: "two"},
	}
	passthrough := &mockProcessor{name: "passthrough"}

	p := NewPipeline(
		&mockProcessor{name: "first", records: replaced},
		passthrough,
	)

	records, err := p.Process(context.Background(), domain.ExtractionRequest{}, testRecords())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("expected 2 records, got %d", len(records))
	}
	if passthrough.calls != 1 {
		t.Errorf("expected second processor to run once, ran %d times", passthrough.calls)
	}
}

func TestPipeline_Process_StopsWhenEmpty(t *testing.T) {
	last := &mockProcessor{name: "last"}
	p := NewPipeline(
		&mockProcessor{name: "drop-all", records: []domain.DerivedRecord{}},
		last,
	)

	records, err := p.Process(context.Background(), domain.ExtractionRequest{}, testRecords())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected no records, got %d", len(records))
	}
	if last.calls != 0 {
		t.Errorf("expected last processor to be skipped, ran %d times", last.calls)
	}
}

func TestPipeline_Process_ProcessorError(t *testing.T) {
	expectedErr := errors.New("processor failed")

	p := NewPipeline(&mockProcessor{
		name: "failing",
		err:  expectedErr,
	})

	_, err := p.Process(context.Background(), domain.ExtractionRequest{}, testRecords())
	if err == nil {
		t.Fatal("expected error from failing processor")
	}
	if !errors.Is(err, expectedErr) {
		t.Errorf("expected wrapped error, got: %v", err)
	}
}
