package truncate

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/custodia-labs/corpuswatch/internal/core/domain"
)

func TestNew(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		p := New()
		if p.maxQuestion != DefaultMaxQuestion {
			t.Errorf("expected maxQuestion %d, got %d", DefaultMaxQuestion, p.maxQuestion)
		}
		if p.maxAnswer != DefaultMaxAnswer {
			t.Errorf("expected maxAnswer %d, got %d", DefaultMaxAnswer, p.maxAnswer)
		}
	})

	t.Run("custom limits", func(t *testing.T) {
		p := New(WithMaxQuestion(50), WithMaxAnswer(100))
		if p.maxQuestion != 50 {
			t.Errorf("expected maxQuestion 50, got %d", p.maxQuestion)
		}
		if p.maxAnswer != 100 {
			t.Errorf("expected maxAnswer 100, got %d", p.maxAnswer)
		}
	})

	t.Run("too small values ignored", func(t *testing.T) {
		p := New(WithMaxQuestion(0), WithMaxAnswer(3))
		if p.maxQuestion != DefaultMaxQuestion {
			t.Errorf("expected default maxQuestion, got %d", p.maxQuestion)
		}
		if p.maxAnswer != DefaultMaxAnswer {
			t.Errorf("expected default maxAnswer, got %d", p.maxAnswer)
		}
	})
}

func TestProcessor_Name(t *testing.T) {
	p := New()
	if p.Name() != "truncate" {
		t.Errorf("expected name 'truncate', got '%s'", p.Name())
	}
}

func TestProcessor_Process_ShortRecordsUnchanged(t *testing.T) {
	p := New()
	records := []domain.DerivedRecord{
		{Question: "What is the notice period?", Answer: "Thirty days.", Source: "contract.pdf"},
	}

	out, err := p.Process(context.Background(), domain.ExtractionRequest{}, records)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 1 || out[0] != records[0] {
		t.Errorf("expected record unchanged, got %+v", out)
	}
}

func TestProcessor_Process_LongAnswer(t *testing.T) {
	p := New(WithMaxAnswer(40))
	answer := strings.Repeat("word ", 20)

	out, err := p.Process(context.Background(), domain.ExtractionRequest{}, []domain.DerivedRecord{
		{Question: "Q?", Answer: answer},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := out[0].Answer
	if utf8.RuneCountInString(got) > 40 {
		t.Errorf("expected at most 40 characters, got %d: %q", utf8.RuneCountInString(got), got)
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("expected ellipsis, got %q", got)
	}
	if strings.Contains(got, "wor...") {
		t.Errorf("expected cut at a word boundary, got %q", got)
	}
}

func TestProcessor_Process_LongQuestion(t *testing.T) {
	p := New(WithMaxQuestion(10))

	out, err := p.Process(context.Background(), domain.ExtractionRequest{}, []domain.DerivedRecord{
		{Question: "Supercalifragilistic?", Answer: "A"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out[0].Question != "Superca..." {
		t.Errorf("expected hard cut without spaces, got %q", out[0].Question)
	}
}

func TestProcessor_Process_MultiByte(t *testing.T) {
	p := New(WithMaxAnswer(8))

	out, err := p.Process(context.Background(), domain.ExtractionRequest{}, []domain.DerivedRecord{
		{Question: "Q?", Answer: "ãããããããããã"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !utf8.ValidString(out[0].Answer) {
		t.Errorf("expected valid UTF-8, got %q", out[0].Answer)
	}
	if out[0].Answer != "ããããã..." {
		t.Errorf("expected 5 runes and ellipsis, got %q", out[0].Answer)
	}
}

func TestProcessor_Process_DoesNotModifyInput(t *testing.T) {
	p := New(WithMaxAnswer(10))
	records := []domain.DerivedRecord{{Question: "Q?", Answer: strings.Repeat("x", 50)}}

	if _, err := p.Process(context.Background(), domain.ExtractionRequest{}, records); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records[0].Answer) != 50 {
		t.Error("input records should not be modified")
	}
}
