package admission

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/corpuswatch/internal/core/domain"
)

// PreviewLength is the number of characters handed to the extractor.
const PreviewLength = 200

// descriptionWords is how many leading words the suggested description quotes.
const descriptionWords = 10

var (
	sentenceSplitRegex  = regexp.MustCompile(`[.!?]+`)
	paragraphSplitRegex = regexp.MustCompile(`\n\s*\n`)
	digitRegex          = regexp.MustCompile(`\d`)
	specialCharRegex    = regexp.MustCompile(`[!@#$%^&*(),.?":{}|<>]`)
)

// Quality is a heuristic 0-100 score of a text and the metrics behind it.
type Quality struct {
	Score   int
	Metrics domain.QualityMetrics
}

// Score measures text and scores it across five 20 point buckets:
// size, structure, readability, informative content and word density.
func Score(content string) Quality {
	m := Measure(content)
	score := 0

	switch {
	case m.Length >= 500 && m.Length <= 50000:
		score += 20
	case m.Length >= 100 && m.Length <= 100000:
		score += 15
	case m.Length >= 50:
		score += 10
	}

	if m.Paragraphs > 1 {
		score += 10
	}
	if m.Sentences > 5 {
		score += 10
	}

	switch {
	case m.Readability > 0.6:
		score += 20
	case m.Readability > 0.4:
		score += 15
	case m.Readability > 0.2:
		score += 10
	}

	if m.HasNumbers {
		score += 10
	}
	if m.Words > 50 {
		score += 10
	}

	if m.Length > 0 {
		density := float64(m.Words) / float64(m.Length)
		switch {
		case density > 0.1:
			score += 20
		case density > 0.05:
			score += 15
		case density > 0.02:
			score += 10
		}
	}

	return Quality{Score: min(score, 100), Metrics: m}
}

// Measure computes the raw text metrics.
func Measure(content string) domain.QualityMetrics {
	words := strings.Fields(content)
	sentences := nonBlank(sentenceSplitRegex.Split(content, -1))

	return domain.QualityMetrics{
		Length:          utf8.RuneCountInString(content),
		Lines:           strings.Count(content, "\n") + 1,
		Words:           len(words),
		Sentences:       sentences,
		Paragraphs:      nonBlank(paragraphSplitRegex.Split(content, -1)),
		HasNumbers:      digitRegex.MatchString(content),
		HasSpecialChars: specialCharRegex.MatchString(content),
		Readability:     readability(words, sentences),
	}
}

// readability returns a 0-1 score; shorter sentences and words read easier.
func readability(words []string, sentences int) float64 {
	if sentences == 0 || len(words) == 0 {
		return 0
	}
	syllables := 0
	for _, w := range words {
		syllables += countSyllables(w)
	}
	wordsPerSentence := float64(len(words)) / float64(sentences)
	syllablesPerWord := float64(syllables) / float64(len(words))

	score := 1 - wordsPerSentence*0.1 - syllablesPerWord*0.2
	return min(max(score, 0), 1)
}

// countSyllables approximates syllables as groups of vowels, at least one per word.
func countSyllables(word string) int {
	count := 0
	prevVowel := false
	for _, r := range strings.ToLower(word) {
		vowel := strings.ContainsRune("aeiouy", r)
		if vowel && !prevVowel {
			count++
		}
		prevVowel = vowel
	}
	return max(count, 1)
}

func nonBlank(parts []string) int {
	n := 0
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			n++
		}
	}
	return n
}

// Describe builds the suggested description passed to the extractor.
func Describe(content string, q Quality) string {
	words := strings.Fields(content)
	if len(words) > descriptionWords {
		words = words[:descriptionWords]
	}

	label := "Document"
	switch {
	case q.Metrics.HasNumbers && strings.Contains(content, ","):
		label = "Data"
	case strings.Contains(content, "#"):
		label = "Documentation"
	case strings.Contains(content, "http") || strings.Contains(content, "www"):
		label = "Reference"
	}

	return fmt.Sprintf("%s - %s... (%d words, %d paragraphs)",
		label, strings.Join(words, " "), q.Metrics.Words, q.Metrics.Paragraphs)
}

// ContentType maps a file extension to a coarse content type.
func ContentType(ext string) string {
	switch strings.ToLower(ext) {
	case ".pdf", ".docx":
		return "document"
	case ".txt":
		return "text"
	case ".md", ".markdown":
		return "markdown"
	case ".csv", ".xlsx", ".xls":
		return "spreadsheet"
	case ".html", ".htm":
		return "html"
	case ".eml":
		return "email"
	default:
		return "unknown"
	}
}

// Preview returns the first n characters of content, with "..." appended
// when it was truncated.
func Preview(content string, n int) string {
	if utf8.RuneCountInString(content) <= n {
		return content
	}
	runes := []rune(content)
	return string(runes[:n]) + "..."
}

// Analyse scores accepted content and builds its analysis record.
// DerivedCount and CacheHit are filled in after extraction.
func Analyse(ext, content string) domain.ContentAnalysis {
	q := Score(content)
	return domain.ContentAnalysis{
		ContentType:          ContentType(ext),
		ContentLength:        q.Metrics.Length,
		QualityScore:         q.Score,
		QualityMetrics:       q.Metrics,
		SuggestedDescription: Describe(content, q),
	}
}
