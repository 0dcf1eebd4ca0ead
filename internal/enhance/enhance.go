// Package enhance rewrites terse user questions into fuller analytical
// questions before query generation.
package enhance

import (
	"context"
	"strings"

	"github.com/askdb/askdb/internal/llm"
	"github.com/askdb/askdb/internal/logging"
	"github.com/askdb/askdb/internal/schema"
)

// Questions longer than this are assumed to already carry enough intent
const maxEnhanceLength = 200

// shapeField is the key requested from structured completions
const shapeField = "enhanced_question"

// Enhancer expands questions via a completion call. Enhancement is best
// effort: any failure falls back to the original question.
type Enhancer struct {
	completions llm.Service
	maxTokens   int
	logger      *logging.Logger
}

// New creates an enhancer around the given completion service
func New(completions llm.Service, maxTokens int) *Enhancer {
	if maxTokens <= 0 {
		maxTokens = 300
	}

	return &Enhancer{
		completions: completions,
		maxTokens:   maxTokens,
		logger:      logging.GetLogger(),
	}
}

// Enhance rewrites the question with schema context. Questions that are
// already long, or that look like literal SQL, pass through unchanged.
func (e *Enhancer) Enhance(ctx context.Context, question string, desc schema.Descriptor, table string) string {
	if skipEnhancement(question) {
		return question
	}

	result, err := e.completions.Complete(ctx, llm.CompletionRequest{
		Prompt:    buildPrompt(question, desc, table),
		Shape:     &llm.Shape{Field: shapeField},
		MaxTokens: e.maxTokens,
	})
	if err != nil {
		e.logger.WithError(err).Debug("question enhancement failed, using original question")
		return question
	}

	enhanced := strings.TrimSpace(result.Text(shapeField))
	if enhanced == "" {
		return question
	}

	return enhanced
}

// skipEnhancement reports whether the question should pass through verbatim
func skipEnhancement(question string) bool {
	trimmed := strings.TrimSpace(question)
	if trimmed == "" || len(trimmed) > maxEnhanceLength {
		return true
	}

	upper := strings.ToUpper(trimmed)

	return strings.HasPrefix(upper, "SELECT ") || strings.HasPrefix(upper, "WITH ")
}

func buildPrompt(question string, desc schema.Descriptor, table string) string {
	var sb strings.Builder

	sb.WriteString("You help analysts phrase questions about a sales database.\n\n")
	sb.WriteString("The " + table + " table has these fields: ")

	cols := desc.Columns()
	names := make([]string, len(cols))

	for i, col := range cols {
		names[i] = col.Name
	}

	sb.WriteString(strings.Join(names, ", "))
	sb.WriteString(".\n\nRewrite the following question to be specific and unambiguous, ")
	sb.WriteString("mentioning relevant fields by name. Keep the original intent. ")
	sb.WriteString("Respond with the rewritten question only.\n\n")
	sb.WriteString("Question: " + question + "\n")

	return sb.String()
}
