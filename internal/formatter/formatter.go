// Package formatter renders query results and summaries for the terminal.
package formatter

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/askdb/askdb/internal/executor"
)

// maxCellWidth caps individual cell width to keep tables readable
const maxCellWidth = 40

// Formatter handles result output formatting
type Formatter struct{}

// NewFormatter creates a new formatter instance
func NewFormatter() *Formatter {
	return &Formatter{}
}

// FormatResult renders the result set as an aligned text table
func (f *Formatter) FormatResult(result *executor.ResultSet) string {
	if result == nil || len(result.Columns) == 0 {
		return "No results."
	}

	widths := make([]int, len(result.Columns))
	for i, col := range result.Columns {
		widths[i] = len(col)
	}

	cells := make([][]string, len(result.Rows))

	for r, row := range result.Rows {
		cells[r] = make([]string, len(result.Columns))

		for i, col := range result.Columns {
			cell := f.formatValue(row[col])
			cells[r][i] = cell

			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	for i := range widths {
		if widths[i] > maxCellWidth {
			widths[i] = maxCellWidth
		}
	}

	var lines []string

	lines = append(lines, f.formatRow(result.Columns, widths))
	lines = append(lines, f.separator(widths))

	for _, row := range cells {
		lines = append(lines, f.formatRow(row, widths))
	}

	lines = append(lines, "")
	lines = append(lines, fmt.Sprintf("%d row(s) in %s", result.RowCount(), f.formatDuration(result.Duration)))

	return strings.Join(lines, "\n")
}

// FormatSummary renders the summary section shown below the table
func (f *Formatter) FormatSummary(summary string) string {
	if summary == "" {
		return ""
	}

	return "Summary\n-------\n" + summary
}

// FormatQuery renders the executed SQL for display above the results
func (f *Formatter) FormatQuery(query string, usedFallback bool) string {
	header := "Generated SQL"
	if usedFallback {
		header = "Fallback SQL (generation did not produce a valid query)"
	}

	return header + "\n" + strings.Repeat("-", len(header)) + "\n" + query
}

func (f *Formatter) formatRow(values []string, widths []int) string {
	parts := make([]string, len(values))

	for i, v := range values {
		if len(v) > widths[i] {
			v = v[:widths[i]-3] + "..."
		}

		parts[i] = fmt.Sprintf("%-*s", widths[i], v)
	}

	return strings.TrimRight(strings.Join(parts, "  "), " ")
}

func (f *Formatter) separator(widths []int) string {
	parts := make([]string, len(widths))
	for i, w := range widths {
		parts[i] = strings.Repeat("-", w)
	}

	return strings.Join(parts, "  ")
}

// formatValue renders one cell; NULLs become "-"
func (f *Formatter) formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "-"
	case float64:
		return strconv.FormatFloat(val, 'f', 2, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', 2, 32)
	case time.Time:
		return val.Format("2006-01-02")
	case string:
		return val
	default:
		return fmt.Sprintf("%v", val)
	}
}

func (f *Formatter) formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}

	return fmt.Sprintf("%.2fs", d.Seconds())
}
