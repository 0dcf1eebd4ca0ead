// Package llm provides the language-model completion capability consumed by
// the query generation pipeline.
package llm

import (
	"context"
	"time"
)

// Service defines the completion interface the pipeline depends on
type Service interface {
	Complete(ctx context.Context, req CompletionRequest) (Result, error)
}

// CompletionRequest describes one completion round-trip
type CompletionRequest struct {
	Prompt    string
	Shape     *Shape // when set, the provider is asked for structured JSON output
	MaxTokens int
}

// Shape names the field expected in a structured completion
type Shape struct {
	Field string
}

// ResultKind discriminates the two completion result forms
type ResultKind int

const (
	// ResultText is a plain string completion
	ResultText ResultKind = iota
	// ResultStructured is a mapping keyed by requested field names
	ResultStructured
)

// Result is the tagged union of completion outcomes: either plain text or a
// structured mapping. Callers match on Kind rather than probing shapes.
type Result struct {
	Kind   ResultKind
	Raw    string
	Fields map[string]string
}

// PlainText wraps a raw string completion
func PlainText(s string) Result {
	return Result{Kind: ResultText, Raw: s}
}

// Structured wraps a keyed completion mapping
func Structured(fields map[string]string) Result {
	return Result{Kind: ResultStructured, Fields: fields}
}

// Text resolves the completion to a string. For structured results it returns
// the named field, or "" when the field is absent. For plain results it
// returns the raw text regardless of field.
func (r Result) Text(field string) string {
	switch r.Kind {
	case ResultStructured:
		return r.Fields[field]
	default:
		return r.Raw
	}
}

// timeoutService bounds every completion call with a deadline
type timeoutService struct {
	inner   Service
	timeout time.Duration
}

// WithTimeout wraps a service so each Complete call carries a deadline.
// A non-positive timeout returns the service unchanged.
func WithTimeout(inner Service, timeout time.Duration) Service {
	if timeout <= 0 {
		return inner
	}

	return &timeoutService{inner: inner, timeout: timeout}
}

func (s *timeoutService) Complete(ctx context.Context, req CompletionRequest) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	return s.inner.Complete(ctx, req)
}

// Config represents completion provider configuration
type Config struct {
	Provider string `json:"provider"` // openai, anthropic, ollama
	Model    string `json:"model"`
	APIKey   string `json:"api_key,omitempty"`
	BaseURL  string `json:"base_url,omitempty"`
}

// Provider constants for the supported completion providers
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderOllama    = "ollama"
)
