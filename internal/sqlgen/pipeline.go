package sqlgen

import (
	"context"

	"github.com/google/uuid"

	"github.com/askdb/askdb/internal/errors"
	"github.com/askdb/askdb/internal/llm"
	"github.com/askdb/askdb/internal/logging"
	"github.com/askdb/askdb/internal/schema"
)

// State names the repair loop phases
type State int

const (
	StateGenerating State = iota
	StateValidating
	StateRepairing
	StateSucceeded
	StateExhausted
)

// String returns the state name for logging
func (s State) String() string {
	switch s {
	case StateGenerating:
		return "generating"
	case StateValidating:
		return "validating"
	case StateRepairing:
		return "repairing"
	case StateSucceeded:
		return "succeeded"
	case StateExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// shapeField is the key requested from structured completions
const shapeField = "sql_query"

// GenerationContext is the immutable input bundle for one top-level request.
// The pipeline reads it throughout the loop and never mutates it.
type GenerationContext struct {
	RequestID string
	Question  string
	Schema    schema.Descriptor
	Table     string
}

// Candidate is one generated SQL string awaiting validation
type Candidate struct {
	SQL     string
	Attempt int
	Context *GenerationContext
}

// Outcome is the pipeline result. Query is always non-empty for a non-empty
// schema: exhaustion resolves through Synthesize.
type Outcome struct {
	Query        string
	Attempts     int
	UsedFallback bool
}

// Options configures a Pipeline
type Options struct {
	// MaxRepairs bounds repair rounds beyond the initial generation.
	// The default of 1 means at most two completion calls per request.
	MaxRepairs int
	MaxTokens  int
	Logger     *logging.Logger
}

// Pipeline orchestrates generate, validate, repair, and fallback. It owns the
// attempt counter; callers share nothing across concurrent requests except
// the injected completion service.
type Pipeline struct {
	completions llm.Service
	logger      *logging.Logger
	maxRepairs  int
	maxTokens   int
}

// NewPipeline creates a pipeline around the given completion service
func NewPipeline(completions llm.Service, opts Options) *Pipeline {
	maxRepairs := opts.MaxRepairs
	if maxRepairs < 0 {
		maxRepairs = 0
	}

	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 600
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.GetLogger()
	}

	return &Pipeline{
		completions: completions,
		logger:      logger,
		maxRepairs:  maxRepairs,
		maxTokens:   maxTokens,
	}
}

// Generate runs the repair loop for one question. It fails only when the
// schema is empty or the table name is not a plain identifier; every other
// failure mode resolves to a fallback query.
func (p *Pipeline) Generate(ctx context.Context, question string, desc schema.Descriptor, table string) (Outcome, error) {
	if desc.Empty() {
		return Outcome{}, errors.Newf(errors.ErrTypeSchema,
			"cannot generate a query for table %q with an empty schema", table)
	}

	if !schema.ValidTableName(table) {
		return Outcome{}, errors.Newf(errors.ErrTypeSchema,
			"invalid table name %q", table)
	}

	gctx := &GenerationContext{
		RequestID: uuid.NewString(),
		Question:  question,
		Schema:    desc,
		Table:     table,
	}

	logger := p.logger.WithFields(map[string]interface{}{
		"request_id": gctx.RequestID,
		"table":      table,
	})

	var (
		prior        Candidate
		priorVerdict Verdict
	)

	totalCalls := p.maxRepairs + 1

	for attempt := 1; attempt <= totalCalls; attempt++ {
		state := StateGenerating
		if attempt > 1 {
			state = StateRepairing
		}

		logger.WithField("state", state.String()).Debugf("completion attempt %d/%d", attempt, totalCalls)

		req := PromptRequest{
			Mode:     ModeGenerate,
			Question: gctx.Question,
			Schema:   gctx.Schema,
			Table:    gctx.Table,
		}

		if state == StateRepairing {
			req.Mode = ModeRepair
			req.PriorCandidate = prior.SQL
			req.PriorReasons = priorVerdict.Reasons
		}

		candidate := Candidate{
			SQL:     p.complete(ctx, logger, BuildPrompt(req)),
			Attempt: attempt,
			Context: gctx,
		}

		logger.WithField("state", StateValidating.String()).Debug("validating candidate")

		verdict := Validate(candidate.SQL, gctx.Schema)
		if verdict.Valid {
			logger.WithField("state", StateSucceeded.String()).
				Infof("query accepted after %d attempt(s)", attempt)

			return Outcome{Query: candidate.SQL, Attempts: attempt}, nil
		}

		if verdict.IsUnsafe() {
			logger.Warnf("candidate rejected for unsafe patterns: %v", verdict.Reasons)
		} else {
			logger.Debugf("candidate rejected: %v", verdict.Reasons)
		}

		prior = candidate
		priorVerdict = verdict
	}

	fallback := Synthesize(gctx.Schema, gctx.Table)

	logger.WithField("state", StateExhausted.String()).
		Warnf("repair attempts exhausted, using fallback query")

	return Outcome{Query: fallback, Attempts: totalCalls, UsedFallback: true}, nil
}

// complete performs one completion call. Completion failures are recoverable
// inside the loop: they are logged and treated as an empty candidate, which
// fails validation and drives the loop toward repair or fallback.
func (p *Pipeline) complete(ctx context.Context, logger *logging.Logger, prompt string) string {
	result, err := p.completions.Complete(ctx, llm.CompletionRequest{
		Prompt:    prompt,
		Shape:     &llm.Shape{Field: shapeField},
		MaxTokens: p.maxTokens,
	})
	if err != nil {
		logger.WithError(err).Warn("completion call failed, treating as empty candidate")
		return ""
	}

	return StripFences(result.Text(shapeField))
}
