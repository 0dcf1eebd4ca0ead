// Package summarize produces a short natural-language summary of query
// results for display after the data table.
package summarize

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/askdb/askdb/internal/executor"
	"github.com/askdb/askdb/internal/llm"
	"github.com/askdb/askdb/internal/logging"
)

// FallbackNotice is shown when summarization is unavailable
const FallbackNotice = "Summary unavailable. The query results are shown above."

// maxSummaryRows caps how many rows are embedded in the summary prompt
const maxSummaryRows = 15

// shapeField is the key requested from structured completions
const shapeField = "summary"

// Summarizer turns result sets into prose. Summarization never fails the
// surrounding flow: errors degrade to FallbackNotice.
type Summarizer struct {
	completions llm.Service
	maxTokens   int
	logger      *logging.Logger
}

// New creates a summarizer around the given completion service
func New(completions llm.Service, maxTokens int) *Summarizer {
	if maxTokens <= 0 {
		maxTokens = 400
	}

	return &Summarizer{
		completions: completions,
		maxTokens:   maxTokens,
		logger:      logging.GetLogger(),
	}
}

// Summarize describes the result set in plain language
func (s *Summarizer) Summarize(ctx context.Context, question string, result *executor.ResultSet) string {
	if result == nil || result.Empty() {
		return "The query returned no rows."
	}

	prompt, err := buildPrompt(question, result)
	if err != nil {
		s.logger.WithError(err).Debug("failed to build summary prompt")
		return FallbackNotice
	}

	completion, err := s.completions.Complete(ctx, llm.CompletionRequest{
		Prompt:    prompt,
		Shape:     &llm.Shape{Field: shapeField},
		MaxTokens: s.maxTokens,
	})
	if err != nil {
		s.logger.WithError(err).Debug("summary completion failed")
		return FallbackNotice
	}

	summary := strings.TrimSpace(completion.Text(shapeField))
	if summary == "" {
		return FallbackNotice
	}

	return summary
}

// buildPrompt embeds the question and up to maxSummaryRows rows as JSON
func buildPrompt(question string, result *executor.ResultSet) (string, error) {
	rows := result.Rows
	truncated := false

	if len(rows) > maxSummaryRows {
		rows = rows[:maxSummaryRows]
		truncated = true
	}

	data, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return "", err
	}

	var sb strings.Builder

	sb.WriteString("You are a data analyst. Summarize the following query results ")
	sb.WriteString("in two or three sentences for a business audience.\n\n")
	fmt.Fprintf(&sb, "Question: %s\n\n", question)
	fmt.Fprintf(&sb, "Columns: %s\n\n", strings.Join(result.Columns, ", "))
	fmt.Fprintf(&sb, "Rows (%d total", result.RowCount())

	if truncated {
		fmt.Fprintf(&sb, ", first %d shown", maxSummaryRows)
	}

	sb.WriteString("):\n")
	sb.Write(data)
	sb.WriteString("\n\nRespond with the summary only.\n")

	return sb.String(), nil
}

// Persist writes the summary to last_summary.md in dir for later reference
func Persist(dir, question, summary string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	content := fmt.Sprintf("# Last Query Summary\n\n**Question:** %s\n\n%s\n", question, summary)

	return os.WriteFile(filepath.Join(dir, "last_summary.md"), []byte(content), 0o644)
}
