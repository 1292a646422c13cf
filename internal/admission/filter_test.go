package admission

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/corpuswatch/internal/core/domain"
)

func TestCheckPath(t *testing.T) {
	filters := domain.FileFilters{
		AllowedExtensions: []string{".txt", "md"},
		MaxFileSizeBytes:  50 * 1024 * 1024,
		ExcludePatterns:   []string{"*.tmp", "drafts/**", "["},
	}

	tests := []struct {
		name    string
		relPath string
		size    int64
		want    Decision
	}{
		{"allowed", "notes/a.txt", 10, Accept()},
		{"extension is case insensitive", "A.TXT", 10, Accept()},
		{"extension without dot in filter", "readme.md", 10, Accept()},
		{"extension not allowed", "report.pdf", 10, Decision{Reason: "extension_not_allowed: .pdf"}},
		{"no extension", "Makefile", 10, Decision{Reason: "extension_not_allowed: (none)"}},
		{"too large", "big.txt", 60 * 1024 * 1024, Decision{Reason: "file_too_large: 60.0MB"}},
		{"extension checked before size", "big.pdf", 60 * 1024 * 1024, Decision{Reason: "extension_not_allowed: .pdf"}},
		{"path pattern", "drafts/2024/plan.txt", 10, Decision{Reason: "excluded_pattern: drafts/**"}},
		{"windows separators", `drafts\plan.txt`, 10, Decision{Reason: "excluded_pattern: drafts/**"}},
		{"path pattern does not match elsewhere", "final/drafts.txt", 10, Accept()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CheckPath(tt.relPath, tt.size, filters))
		})
	}
}

func TestCheckPath_FilenamePattern(t *testing.T) {
	filters := domain.FileFilters{ExcludePatterns: []string{"*.tmp"}}

	assert.Equal(t, "excluded_pattern: *.tmp", CheckPath("cache/deep/a.tmp", 1, filters).Reason)
	assert.True(t, CheckPath("a.tmp.txt", 1, filters).Accepted)
}

func TestCheckPath_EmptyFiltersAdmitEverything(t *testing.T) {
	d := CheckPath("tool.exe", 1<<40, domain.FileFilters{})
	assert.True(t, d.Accepted)
	assert.Empty(t, d.Reason)
}

func TestCheckPath_Deterministic(t *testing.T) {
	filters := domain.DefaultFileFilters()
	for _, p := range []string{"a.txt", "b.log", "c.exe"} {
		first := CheckPath(p, 100, filters)
		for i := 0; i < 5; i++ {
			assert.Equal(t, first, CheckPath(p, 100, filters))
		}
	}
}

func TestCheckContent(t *testing.T) {
	filters := domain.ContentFilters{
		MinContentLength: 10,
		MaxContentLength: 50,
		ExcludeKeywords:  []string{"secret", " "},
	}

	tests := []struct {
		name    string
		content string
		want    Decision
	}{
		{"accepted", "a perfectly normal text", Accept()},
		{"too short", "abc", Decision{Reason: "content_too_short: 3 chars"}},
		{"length counts characters", "ééééééééé", Decision{Reason: "content_too_short: 9 chars"}},
		{"too long", strings.Repeat("x", 51), Decision{Reason: "content_too_long: 51 chars"}},
		{"excluded keyword", "this is TOP SECRET stuff", Decision{Reason: "excluded_keyword: secret"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CheckContent(tt.content, filters))
		})
	}
}

func TestCheckContent_RequireKeywords(t *testing.T) {
	filters := domain.ContentFilters{RequireKeywords: []string{"alpha", "beta"}}

	assert.True(t, CheckContent("release notes for Beta 2", filters).Accepted)

	d := CheckContent("release notes for gamma", filters)
	assert.False(t, d.Accepted)
	assert.Equal(t, "missing_required_keyword", d.Reason)
	assert.Equal(t, ReasonMissingRequiredKeyword, d.Code())
}

func TestCheckContent_UnlimitedMax(t *testing.T) {
	assert.True(t, CheckContent(strings.Repeat("word ", 10000), domain.ContentFilters{}).Accepted)
}

func TestDecision_Code(t *testing.T) {
	assert.Equal(t, ReasonExcludedKeyword, Reject(ReasonExcludedKeyword, "secret").Code())
	assert.Equal(t, ReasonUnreadableContent, Reject(ReasonUnreadableContent, "").Code())
	assert.Equal(t, "", Accept().Code())
}
