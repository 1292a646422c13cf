package admission

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScore_Empty(t *testing.T) {
	q := Score("")
	assert.Equal(t, 0, q.Score)
	assert.Equal(t, 0, q.Metrics.Words)
	assert.Equal(t, 0, q.Metrics.Sentences)
	assert.Equal(t, 0.0, q.Metrics.Readability)
}

func TestScore_ShortSentence(t *testing.T) {
	q := Score("Hello world.")

	assert.Equal(t, 12, q.Metrics.Length)
	assert.Equal(t, 1, q.Metrics.Lines)
	assert.Equal(t, 2, q.Metrics.Words)
	assert.Equal(t, 1, q.Metrics.Sentences)
	assert.Equal(t, 1, q.Metrics.Paragraphs)
	assert.False(t, q.Metrics.HasNumbers)
	assert.True(t, q.Metrics.HasSpecialChars)
	assert.InDelta(t, 0.5, q.Metrics.Readability, 1e-9)
	// readability 15 + density 20
	assert.Equal(t, 35, q.Score)
}

func TestScore_RichDocumentScoresHigher(t *testing.T) {
	para := "The team shipped 3 releases in May. Each one fixed bugs. Users were happy. "
	rich := strings.Repeat(para, 4) + "\n\n" + strings.Repeat(para, 4)
	poor := strings.Repeat("x", 60)

	richQ := Score(rich)
	poorQ := Score(poor)

	assert.Greater(t, richQ.Score, poorQ.Score)
	assert.LessOrEqual(t, richQ.Score, 100)
	assert.Equal(t, 2, richQ.Metrics.Paragraphs)
	assert.True(t, richQ.Metrics.HasNumbers)
}

func TestCountSyllables(t *testing.T) {
	tests := map[string]int{
		"banana":    3,
		"queue":     1,
		"rhythm":    1,
		"bcd":       1,
		"Education": 4,
	}
	for word, want := range tests {
		assert.Equal(t, want, countSyllables(word), word)
	}
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		name    string
		content string
		prefix  string
	}{
		{"data", "Revenue 2024, up 10 percent", "Data - "},
		{"documentation", "# Install\nRun the installer", "Documentation - "},
		{"reference", "see https://example.org for details", "Reference - "},
		{"plain", "just some words here", "Document - "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, strings.HasPrefix(Describe(tt.content, Score(tt.content)), tt.prefix))
		})
	}
}

func TestDescribe_FirstTenWords(t *testing.T) {
	content := "a b c d e f g h i j k l"
	assert.Equal(t, "Document - a b c d e f g h i j... (12 words, 1 paragraphs)", Describe(content, Score(content)))
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "document", ContentType(".pdf"))
	assert.Equal(t, "document", ContentType(".DOCX"))
	assert.Equal(t, "text", ContentType(".txt"))
	assert.Equal(t, "markdown", ContentType(".md"))
	assert.Equal(t, "spreadsheet", ContentType(".csv"))
	assert.Equal(t, "html", ContentType(".html"))
	assert.Equal(t, "email", ContentType(".eml"))
	assert.Equal(t, "unknown", ContentType(".bin"))
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "short", Preview("short", 10))
	assert.Equal(t, "hél...", Preview("héllo", 3))
	assert.Len(t, []rune(Preview(strings.Repeat("a", 500), PreviewLength)), PreviewLength+3)
}

func TestAnalyse(t *testing.T) {
	content := "Hello world."
	a := Analyse(".md", content)

	assert.Equal(t, "markdown", a.ContentType)
	assert.Equal(t, 12, a.ContentLength)
	assert.Equal(t, 35, a.QualityScore)
	assert.Equal(t, "Document - Hello world.... (2 words, 1 paragraphs)", a.SuggestedDescription)
	assert.Zero(t, a.DerivedCount)
	assert.False(t, a.CacheHit)
}
