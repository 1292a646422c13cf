package csv

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/corpuswatch/internal/core/domain"
	"github.com/custodia-labs/corpuswatch/internal/core/ports/driven"
)

func normalise(t *testing.T, path, ext, content string) *domain.ExtractedContent {
	t.Helper()
	result, err := New().Normalise(context.Background(), &domain.RawFile{Path: path, Extension: ext, Content: []byte(content)})
	require.NoError(t, err)
	require.NotNil(t, result)
	return result
}

func TestSupportedExtensions(t *testing.T) {
	assert.Equal(t, []string{".csv", ".tsv"}, New().SupportedExtensions())
}

func TestPriority(t *testing.T) {
	assert.Equal(t, 50, New().Priority())
}

func TestNormalise_NilFile(t *testing.T) {
	result, err := New().Normalise(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Nil(t, result)
}

func TestNormalise_Empty(t *testing.T) {
	result, err := New().Normalise(context.Background(), &domain.RawFile{Path: "/a.csv", Extension: ".csv"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Nil(t, result)
}

func TestNormalise_Summary(t *testing.T) {
	content := "Product,Price,Launched\n" +
		"Widget,9.99,2024-01-15\n" +
		"Gadget,19.50,2024-02-01\n" +
		"Doohickey,,2024-03-10\n" +
		"Thing,4,2024-04-01\n"

	result := normalise(t, "/data/price_list.csv", ".csv", content)

	assert.Equal(t, "price list", result.Title)
	assert.Equal(t, "csv", result.Format)

	expected := "Spreadsheet: Product or service catalogue\n" +
		"Type: products\n" +
		"Dimensions: 4 rows x 3 columns\n\n" +
		"Columns:\n" +
		"- Product (text): Widget, Gadget, Doohickey\n" +
		"- Price (numeric): 9.99, 19.50...\n" +
		"- Launched (date): 2024-01-15, 2024-02-01, 2024-03-10\n\n" +
		"First rows:\n" +
		"Row 1: Widget | 9.99 | 2024-01-15\n" +
		"Row 2: Gadget | 19.50 | 2024-02-01\n" +
		"Row 3: Doohickey |  | 2024-03-10\n"
	assert.Equal(t, expected, result.Text)
}

func TestNormalise_TSV(t *testing.T) {
	result := normalise(t, "/data/staff.tsv", ".tsv", "Employee\tRole\nAna\tLead\n")

	assert.Contains(t, result.Text, "Type: employees")
	assert.Contains(t, result.Text, "Row 1: Ana | Lead")
}

func TestNormalise_HeaderOnly(t *testing.T) {
	result := normalise(t, "/data/blank.csv", ".csv", "a,b,c\n")

	assert.Contains(t, result.Text, "Type: empty")
	assert.Contains(t, result.Text, "Columns: a, b, c")
}

func TestNormalise_SkipsBlankRowsAndPadsShortRows(t *testing.T) {
	result := normalise(t, "/data/x.csv", ".csv", "\ufeffk,v\n,\none\n")

	assert.Contains(t, result.Text, "Dimensions: 1 rows x 2 columns")
	assert.Contains(t, result.Text, "Row 1: one | ")
	assert.Contains(t, result.Text, "- v (empty): ...")
}

func TestColumnType(t *testing.T) {
	long := "this value is comfortably longer than fifty characters in total"
	s := &sheet{
		headers: []string{"n", "d", "t", "l", "e"},
		rows: [][]string{
			{"1", "01/02/2024", "short", long, ""},
			{"-2.5", "2024-02-01", "words", "x", ""},
		},
	}

	assert.Equal(t, ColumnNumeric, s.columnType(0))
	assert.Equal(t, ColumnDate, s.columnType(1))
	assert.Equal(t, ColumnText, s.columnType(2))
	assert.Equal(t, ColumnLongText, s.columnType(3))
	assert.Equal(t, ColumnEmpty, s.columnType(4))
}

func TestKind(t *testing.T) {
	tests := []struct {
		headers []string
		want    string
	}{
		{[]string{"Customer Name", "Email"}, "contacts"},
		{[]string{"Order ID", "Total"}, "sales"},
		{[]string{"Revenue"}, "financial"},
		{[]string{"foo", "bar"}, "generic"},
	}

	for _, tc := range tests {
		s := &sheet{headers: tc.headers}
		got, _ := s.kind()
		assert.Equal(t, tc.want, got, tc.headers)
	}
}

func TestInterfaceCompliance(t *testing.T) {
	var _ driven.Normaliser = (*Normaliser)(nil)
}
