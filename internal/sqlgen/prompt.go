// Package sqlgen turns a natural-language question and a table schema into a
// validated SQL query: generate, validate, repair with bounded attempts, and
// fall back to a minimal query when repair is exhausted.
package sqlgen

import (
	"fmt"
	"strings"

	"github.com/askdb/askdb/internal/schema"
)

// Mode selects the prompt template
type Mode int

const (
	// ModeGenerate asks for a fresh query
	ModeGenerate Mode = iota
	// ModeRepair asks for a corrected query given a rejected candidate
	ModeRepair
)

// PromptRequest carries everything the prompt builder needs. BuildPrompt is a
// pure function of this value; identical requests yield identical prompts.
type PromptRequest struct {
	Mode           Mode
	Question       string
	Schema         schema.Descriptor
	Table          string
	PriorCandidate string
	PriorReasons   []string
}

const generateRules = `Write a SQL query to answer the following question. Follow these rules:

- Use only the fields that are necessary to answer the question
- Do not use SELECT * except for very simple queries
- Always include appropriate filters to make results meaningful
- If aggregating data, include appropriate GROUP BY clauses
- If sorting is implied by the question, include ORDER BY clauses
- Use appropriate LIMIT clauses to prevent excessive results
- If the query looks for recent data, consider filtering by date fields
- Format the SQL query for readability with proper indentation

Provide ONLY the SQL query as your response, with no explanations or other text.`

const repairChecklist = `Common defects to check for:

- References to fields that do not exist in the schema
- SQL dialect mismatches
- Missing or wrong table name
- Aggregations without a GROUP BY clause
- Plain syntax errors`

// BuildPrompt renders the instruction text for one completion call
func BuildPrompt(req PromptRequest) string {
	var sb strings.Builder

	sb.WriteString("You are a data analyst with 15 years of experience writing SQL queries for an analytical database.\n\n")
	fmt.Fprintf(&sb, "The %s table has the following schema:\n\n", req.Table)

	for _, col := range req.Schema.Columns() {
		fmt.Fprintf(&sb, "- %s (%s): %s\n", col.Name, col.Type, col.Description)
	}

	sb.WriteString("\n")

	if req.Mode == ModeRepair {
		sb.WriteString("The following SQL query was generated for the question but failed validation:\n\n")
		sb.WriteString(req.PriorCandidate)
		sb.WriteString("\n\nValidation reported these problems:\n\n")

		for _, reason := range req.PriorReasons {
			fmt.Fprintf(&sb, "- %s\n", reason)
		}

		sb.WriteString("\n")
		sb.WriteString(repairChecklist)
		sb.WriteString("\n\nRewrite the query so that it answers the question and passes validation.\n\n")
	}

	sb.WriteString(generateRules)
	fmt.Fprintf(&sb, "\n\nQuestion: %s\n", req.Question)

	return sb.String()
}
