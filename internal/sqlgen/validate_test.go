package sqlgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askdb/askdb/internal/schema"
)

func salesSchema(t *testing.T) schema.Descriptor {
	t.Helper()

	desc, err := schema.NewDescriptor([]schema.Column{
		{Name: "Product_ID", Type: "Int64"},
		{Name: "Sale_Date", Type: "Date"},
		{Name: "Region", Type: "String"},
		{Name: "Sales_Amount", Type: "Float64"},
		{Name: "Product_Category", Type: "String"},
	})
	require.NoError(t, err)

	return desc
}

func TestStripFences(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "sql fence",
			input:    "```sql\nSELECT Region FROM sales_data\n```",
			expected: "SELECT Region FROM sales_data",
		},
		{
			name:     "plain fence",
			input:    "```\nSELECT Region FROM sales_data\n```",
			expected: "SELECT Region FROM sales_data",
		},
		{
			name:     "uppercase language tag",
			input:    "```SQL\nSELECT Region FROM sales_data\n```",
			expected: "SELECT Region FROM sales_data",
		},
		{
			name:     "no fences",
			input:    "  SELECT Region FROM sales_data  ",
			expected: "SELECT Region FROM sales_data",
		},
		{
			name:     "empty",
			input:    "",
			expected: "",
		},
		{
			name:     "fences only",
			input:    "```sql\n```",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, StripFences(tt.input))
		})
	}
}

func TestValidate_AcceptsWellFormedQueries(t *testing.T) {
	desc := salesSchema(t)

	queries := []string{
		"SELECT Region FROM sales_data",
		"SELECT Region, Sales_Amount FROM sales_data WHERE Region = 'North' LIMIT 10",
		"SELECT Product_Category, SUM(Sales_Amount) AS total_sales FROM sales_data GROUP BY Product_Category ORDER BY total_sales DESC LIMIT 5",
		"select region, count(Product_ID) from sales_data group by Region",
		"```sql\nSELECT Region FROM sales_data\n```",
	}

	for _, q := range queries {
		t.Run(q, func(t *testing.T) {
			verdict := Validate(q, desc)
			assert.True(t, verdict.Valid, "reasons: %v", verdict.Reasons)
			assert.Empty(t, verdict.Reasons)
		})
	}
}

func TestValidate_EmptyCandidate(t *testing.T) {
	desc := salesSchema(t)

	for _, q := range []string{"", "   ", "```sql\n```"} {
		verdict := Validate(q, desc)
		assert.False(t, verdict.Valid)
		assert.Equal(t, []string{"empty query"}, verdict.Reasons)
	}
}

func TestValidate_MissingClauses(t *testing.T) {
	desc := salesSchema(t)

	verdict := Validate("Region Sales_Amount", desc)
	assert.False(t, verdict.Valid)
	assert.Contains(t, verdict.Reasons, "missing SELECT clause")
	assert.Contains(t, verdict.Reasons, "missing FROM clause")
}

func TestValidate_UnknownFields(t *testing.T) {
	desc := salesSchema(t)

	verdict := Validate("SELECT Revenue, Profit FROM sales_data", desc)
	assert.False(t, verdict.Valid)
	assert.Contains(t, verdict.Reasons, `unknown field "Revenue"`)
	assert.Contains(t, verdict.Reasons, `unknown field "Profit"`)
}

func TestValidate_UnknownFieldsReportedOnce(t *testing.T) {
	desc := salesSchema(t)

	verdict := Validate("SELECT Revenue FROM sales_data WHERE Revenue > 100", desc)

	count := 0
	for _, reason := range verdict.Reasons {
		if reason == `unknown field "Revenue"` {
			count++
		}
	}

	assert.Equal(t, 1, count)
}

func TestValidate_ColumnLookupIsCaseInsensitive(t *testing.T) {
	desc := salesSchema(t)

	// SQL identifiers are case-insensitive: "region" resolves to "Region",
	// but a near-miss like "regio" matches nothing.
	verdict := Validate("SELECT region FROM sales_data", desc)
	assert.True(t, verdict.Valid, "reasons: %v", verdict.Reasons)

	verdict = Validate("SELECT Region FROM sales_data WHERE regio = 'x'", desc)
	assert.False(t, verdict.Valid)
	assert.Contains(t, verdict.Reasons, `unknown field "regio"`)
}

func TestValidate_StringLiteralsIgnored(t *testing.T) {
	desc := salesSchema(t)

	verdict := Validate("SELECT Region FROM sales_data WHERE Region = 'NotAColumn'", desc)
	assert.True(t, verdict.Valid, "reasons: %v", verdict.Reasons)
}

func TestValidate_InjectionPatterns(t *testing.T) {
	desc := salesSchema(t)

	tests := []struct {
		name      string
		candidate string
	}{
		{"drop after separator", "SELECT Region FROM sales_data; DROP TABLE sales_data"},
		{"delete after separator", "SELECT Region FROM sales_data ;DELETE FROM sales_data"},
		{"update after separator", "SELECT Region FROM sales_data; update sales_data set Region = 'x'"},
		{"insert after separator", "SELECT Region FROM sales_data;  INSERT INTO sales_data VALUES (1)"},
		{"line comment", "SELECT Region FROM sales_data -- hidden"},
		{"block comment", "SELECT Region /* hidden */ FROM sales_data"},
		{"union select", "SELECT Region FROM sales_data UNION SELECT Region FROM sales_data"},
		{"union all select", "SELECT Region FROM sales_data union all select Region FROM sales_data"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdict := Validate(tt.candidate, desc)
			assert.False(t, verdict.Valid)
			assert.True(t, verdict.IsUnsafe(), "reasons: %v", verdict.Reasons)
		})
	}
}

func TestValidate_DropTableFailsForAnySchema(t *testing.T) {
	// The denylist does not depend on schema content
	schemas := []schema.Descriptor{salesSchema(t)}

	other, err := schema.NewDescriptor([]schema.Column{{Name: "anything", Type: "String"}})
	require.NoError(t, err)
	schemas = append(schemas, other)

	for _, desc := range schemas {
		verdict := Validate("SELECT 1 FROM t; DROP TABLE t", desc)
		assert.False(t, verdict.Valid)
		assert.True(t, verdict.IsUnsafe())
	}
}

func TestVerdict_IsUnsafe(t *testing.T) {
	assert.False(t, Verdict{Reasons: []string{`unknown field "X"`}}.IsUnsafe())
	assert.True(t, Verdict{Reasons: []string{`unsafe pattern "--"`}}.IsUnsafe())
}
