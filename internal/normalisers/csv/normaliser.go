// Package csv summarises delimited spreadsheet files as text.
package csv

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/custodia-labs/corpuswatch/internal/core/domain"
	"github.com/custodia-labs/corpuswatch/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

const (
	// typeSampleRows is how many rows are inspected to type a column.
	typeSampleRows = 10

	// previewRows is how many rows are rendered in the summary.
	previewRows = 3

	// shortTextLength is the longest value of a "text" column.
	shortTextLength = 50
)

// Column types.
const (
	ColumnEmpty    = "empty"
	ColumnNumeric  = "numeric"
	ColumnDate     = "date"
	ColumnText     = "text"
	ColumnLongText = "long_text"
)

var (
	isoDateRegex   = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)
	slashDateRegex = regexp.MustCompile(`^\d{2}/\d{2}/\d{4}`)
)

// kind is a spreadsheet category detected from header names.
type kind struct {
	name        string
	description string
	keywords    []string
}

// kinds are checked in order; the first match wins.
var kinds = []kind{
	{"contacts", "Contact list", []string{"name", "client", "customer", "person"}},
	{"products", "Product or service catalogue", []string{"product", "item", "service", "sku"}},
	{"time_series", "Time series", []string{"date", "time", "period", "month", "year"}},
	{"financial", "Financial data", []string{"value", "price", "cost", "amount", "revenue"}},
	{"contacts", "Contact list", []string{"email", "phone"}},
	{"locations", "Location data", []string{"address", "city", "country"}},
	{"sales", "Sales data", []string{"sale", "order"}},
	{"employees", "Employee data", []string{"employee", "staff"}},
}

// Normaliser handles comma and tab separated files.
type Normaliser struct{}

// New creates a new CSV normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedExtensions returns the extensions this normaliser handles.
func (n *Normaliser) SupportedExtensions() []string {
	return []string{".csv", ".tsv"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50 // Format-specific normaliser
}

// Normalise renders a textual summary of the sheet: its detected kind,
// its columns with types and sample values, and the first rows.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawFile) (*domain.ExtractedContent, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	delimiter := ','
	if strings.EqualFold(raw.Extension, ".tsv") {
		delimiter = '\t'
	}

	sheet, err := parse(raw.Content, delimiter)
	if err != nil {
		return nil, err
	}

	return &domain.ExtractedContent{
		Title:  extractTitle(raw.Path),
		Text:   sheet.summary(),
		Format: "csv",
	}, nil
}

// sheet is a parsed spreadsheet with rows keyed by header position.
type sheet struct {
	headers []string
	rows    [][]string
}

func parse(content []byte, delimiter rune) (*sheet, error) {
	content = bytes.TrimPrefix(content, []byte("\ufeff"))

	reader := csv.NewReader(bytes.NewReader(content))
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	headers, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: empty spreadsheet", domain.ErrInvalidInput)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read header: %v", domain.ErrInvalidInput, err)
	}
	for i := range headers {
		headers[i] = strings.TrimSpace(headers[i])
	}

	s := &sheet{headers: headers}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: read row: %v", domain.ErrInvalidInput, err)
		}

		row := make([]string, len(headers))
		blank := true
		for i := range headers {
			if i < len(record) {
				row[i] = strings.TrimSpace(record[i])
			}
			if row[i] != "" {
				blank = false
			}
		}
		if !blank {
			s.rows = append(s.rows, row)
		}
	}
	return s, nil
}

// columnType classifies a column from its first non-empty sample values.
func (s *sheet) columnType(col int) string {
	var values []string
	for _, row := range s.rows[:min(typeSampleRows, len(s.rows))] {
		if row[col] != "" {
			values = append(values, row[col])
		}
	}

	switch {
	case len(values) == 0:
		return ColumnEmpty
	case all(values, isNumeric):
		return ColumnNumeric
	case all(values, isDate):
		return ColumnDate
	case all(values, func(v string) bool { return len([]rune(v)) <= shortTextLength }):
		return ColumnText
	default:
		return ColumnLongText
	}
}

// kind detects the sheet category from its headers.
func (s *sheet) kind() (string, string) {
	lower := make([]string, len(s.headers))
	for i, h := range s.headers {
		lower[i] = strings.ToLower(h)
	}

	for _, k := range kinds {
		for _, h := range lower {
			for _, kw := range k.keywords {
				if strings.Contains(h, kw) {
					return k.name, k.description
				}
			}
		}
	}
	return "generic", "Generic spreadsheet"
}

func (s *sheet) summary() string {
	var b strings.Builder

	if len(s.rows) == 0 {
		fmt.Fprintf(&b, "Spreadsheet: Empty spreadsheet\nType: empty\nDimensions: 0 rows x %d columns\n\n", len(s.headers))
		b.WriteString("Columns: " + strings.Join(s.headers, ", ") + "\n")
		return b.String()
	}

	name, description := s.kind()
	fmt.Fprintf(&b, "Spreadsheet: %s\n", description)
	fmt.Fprintf(&b, "Type: %s\n", name)
	fmt.Fprintf(&b, "Dimensions: %d rows x %d columns\n\n", len(s.rows), len(s.headers))

	b.WriteString("Columns:\n")
	sampleCount := min(previewRows, len(s.rows))
	for i, header := range s.headers {
		var samples []string
		for _, row := range s.rows[:sampleCount] {
			if row[i] != "" {
				samples = append(samples, row[i])
			}
		}
		suffix := ""
		if len(samples) < sampleCount {
			suffix = "..."
		}
		fmt.Fprintf(&b, "- %s (%s): %s%s\n", header, s.columnType(i), strings.Join(samples, ", "), suffix)
	}

	b.WriteString("\nFirst rows:\n")
	for i, row := range s.rows[:sampleCount] {
		fmt.Fprintf(&b, "Row %d: %s\n", i+1, strings.Join(row, " | "))
	}
	return b.String()
}

func all(values []string, pred func(string) bool) bool {
	for _, v := range values {
		if !pred(v) {
			return false
		}
	}
	return true
}

func isNumeric(v string) bool {
	_, err := strconv.ParseFloat(v, 64)
	return err == nil
}

func isDate(v string) bool {
	return isoDateRegex.MatchString(v) || slashDateRegex.MatchString(v)
}

// extractTitle extracts a human-readable title from a path.
func extractTitle(path string) string {
	filename := filepath.Base(path)
	filename = strings.TrimSuffix(filename, filepath.Ext(filename))
	filename = strings.ReplaceAll(filename, "_", " ")
	filename = strings.ReplaceAll(filename, "-", " ")
	return filename
}
