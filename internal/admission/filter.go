package admission

import (
	"fmt"
	"path"
	"strings"
	"unicode/utf8"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/custodia-labs/corpuswatch/internal/core/domain"
)

// Rejection reason codes. A reason is the code, optionally followed by
// ": " and a detail.
const (
	ReasonExtensionNotAllowed    = "extension_not_allowed"
	ReasonFileTooLarge           = "file_too_large"
	ReasonExcludedPattern        = "excluded_pattern"
	ReasonContentTooShort        = "content_too_short"
	ReasonContentTooLong         = "content_too_long"
	ReasonExcludedKeyword        = "excluded_keyword"
	ReasonMissingRequiredKeyword = "missing_required_keyword"
	ReasonUnreadableContent      = "unreadable_content"
)

// Decision is the outcome of an admission check.
type Decision struct {
	Accepted bool
	Reason   string
}

// Accept returns an accepting decision.
func Accept() Decision {
	return Decision{Accepted: true}
}

// Reject returns a rejecting decision with a machine-readable reason.
func Reject(code, detail string) Decision {
	if detail == "" {
		return Decision{Reason: code}
	}
	return Decision{Reason: code + ": " + detail}
}

// Code returns the reason code without its detail.
func (d Decision) Code() string {
	code, _, _ := strings.Cut(d.Reason, ":")
	return code
}

// CheckPath applies the file filters. relPath is the path relative to the
// watched root; slashes or OS separators are both accepted.
//
// Checks run in a fixed order: extension, size, exclude patterns.
// Exclude patterns without a slash match the filename; patterns with a
// slash match the whole relative path and may use "**".
func CheckPath(relPath string, sizeBytes int64, filters domain.FileFilters) Decision {
	relPath = strings.ReplaceAll(relPath, "\\", "/")
	name := path.Base(relPath)
	ext := strings.ToLower(path.Ext(name))

	if len(filters.AllowedExtensions) > 0 && !extensionAllowed(ext, filters.AllowedExtensions) {
		if ext == "" {
			return Reject(ReasonExtensionNotAllowed, "(none)")
		}
		return Reject(ReasonExtensionNotAllowed, ext)
	}

	if filters.MaxFileSizeBytes > 0 && sizeBytes > filters.MaxFileSizeBytes {
		return Reject(ReasonFileTooLarge, fmt.Sprintf("%.1fMB", float64(sizeBytes)/1024/1024))
	}

	for _, pattern := range filters.ExcludePatterns {
		if matchesPattern(pattern, name, relPath) {
			return Reject(ReasonExcludedPattern, pattern)
		}
	}

	return Accept()
}

// CheckContent applies the content filters to extracted text.
// Lengths are counted in characters, keywords match case-insensitively.
func CheckContent(content string, filters domain.ContentFilters) Decision {
	length := utf8.RuneCountInString(content)

	if length < filters.MinContentLength {
		return Reject(ReasonContentTooShort, fmt.Sprintf("%d chars", length))
	}
	if filters.MaxContentLength > 0 && length > filters.MaxContentLength {
		return Reject(ReasonContentTooLong, fmt.Sprintf("%d chars", length))
	}

	lower := strings.ToLower(content)
	for _, kw := range filters.ExcludeKeywords {
		if kw = strings.TrimSpace(kw); kw == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(kw)) {
			return Reject(ReasonExcludedKeyword, kw)
		}
	}

	if len(filters.RequireKeywords) > 0 {
		found := false
		for _, kw := range filters.RequireKeywords {
			if kw = strings.TrimSpace(kw); kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
				found = true
				break
			}
		}
		if !found {
			return Reject(ReasonMissingRequiredKeyword, "")
		}
	}

	return Accept()
}

func extensionAllowed(ext string, allowed []string) bool {
	for _, a := range domain.NormaliseExtensions(allowed) {
		if a == ext {
			return true
		}
	}
	return false
}

// matchesPattern reports whether the glob matches. Invalid patterns never match.
func matchesPattern(pattern, name, relPath string) bool {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return false
	}
	target := name
	if strings.Contains(pattern, "/") {
		target = relPath
	}
	ok, err := doublestar.Match(pattern, target)
	return err == nil && ok
}
