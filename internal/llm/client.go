package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	apperrors "github.com/askdb/askdb/internal/errors"
)

// Client implements the Service interface over the provider HTTP APIs
type Client struct {
	config     Config
	httpClient *http.Client
}

// NewClient creates a completion client for the configured provider.
// Timeouts are enforced per call through the caller's context; the embedded
// HTTP timeout is a backstop.
func NewClient(config Config) (*Client, error) {
	switch config.Provider {
	case ProviderOpenAI:
		if config.APIKey == "" {
			return nil, apperrors.New(apperrors.ErrTypeConfig, "API key is required for OpenAI provider")
		}

		if config.BaseURL == "" {
			config.BaseURL = "https://api.openai.com/v1"
		}
	case ProviderAnthropic:
		if config.APIKey == "" {
			return nil, apperrors.New(apperrors.ErrTypeConfig, "API key is required for Anthropic provider")
		}

		if config.BaseURL == "" {
			config.BaseURL = "https://api.anthropic.com/v1"
		}
	case ProviderOllama:
		if config.BaseURL == "" {
			config.BaseURL = "http://localhost:11434"
		}
	default:
		return nil, apperrors.Newf(apperrors.ErrTypeConfig, "unsupported provider: %s", config.Provider)
	}

	if config.Model == "" {
		return nil, apperrors.New(apperrors.ErrTypeConfig, "model is required")
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}, nil
}

// Complete sends the prompt to the configured provider and decodes the reply
func (c *Client) Complete(ctx context.Context, req CompletionRequest) (Result, error) {
	var (
		raw string
		err error
	)

	switch c.config.Provider {
	case ProviderOpenAI:
		raw, err = c.completeOpenAI(ctx, req)
	case ProviderAnthropic:
		raw, err = c.completeAnthropic(ctx, req)
	case ProviderOllama:
		raw, err = c.completeOllama(ctx, req)
	default:
		return Result{}, apperrors.Newf(apperrors.ErrTypeCompletion,
			"unsupported provider: %s", c.config.Provider)
	}

	if err != nil {
		return Result{}, err
	}

	return decodeResult(raw, req.Shape), nil
}

// decodeResult turns the provider's raw text into the tagged result form.
// When a structured shape was requested, the reply is expected to be a JSON
// object; anything else degrades to plain text and lets the caller decide.
func decodeResult(raw string, shape *Shape) Result {
	if shape == nil {
		return PlainText(raw)
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return PlainText(raw)
	}

	fields := make(map[string]string, len(payload))

	for key, value := range payload {
		if s, ok := value.(string); ok {
			fields[key] = s
		}
	}

	return Structured(fields)
}

// OpenAI API structures

type openAIRequest struct {
	Model          string                `json:"model"`
	Messages       []openAIMessage       `json:"messages"`
	Temperature    float64               `json:"temperature,omitempty"`
	MaxTokens      int                   `json:"max_tokens,omitempty"`
	ResponseFormat *openAIResponseFormat `json:"response_format,omitempty"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIResponseFormat struct {
	Type string `json:"type"`
}

type openAIResponse struct {
	Choices []openAIChoice `json:"choices"`
	Error   *openAIError   `json:"error,omitempty"`
}

type openAIChoice struct {
	Message openAIMessage `json:"message"`
}

type openAIError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

func (c *Client) completeOpenAI(ctx context.Context, req CompletionRequest) (string, error) {
	reqBody := openAIRequest{
		Model: c.config.Model,
		Messages: []openAIMessage{
			{Role: "user", Content: req.Prompt},
		},
		Temperature: 0.1,
		MaxTokens:   req.MaxTokens,
	}

	if req.Shape != nil {
		reqBody.ResponseFormat = &openAIResponseFormat{Type: "json_object"}
	}

	respBody, err := c.post(ctx, "/chat/completions", reqBody, map[string]string{
		"Authorization": "Bearer " + c.config.APIKey,
	})
	if err != nil {
		return "", err
	}

	var response openAIResponse
	if err := json.Unmarshal(respBody, &response); err != nil {
		return "", apperrors.Wrap(err, apperrors.ErrTypeCompletion, "failed to parse OpenAI response")
	}

	if response.Error != nil {
		return "", apperrors.Newf(apperrors.ErrTypeCompletion, "OpenAI API error: %s", response.Error.Message)
	}

	if len(response.Choices) == 0 {
		return "", apperrors.New(apperrors.ErrTypeCompletion, "no response from OpenAI")
	}

	return response.Choices[0].Message.Content, nil
}

// Anthropic API structures

type anthropicRequest struct {
	Model     string             `json:"model"`
	Messages  []anthropicMessage `json:"messages"`
	MaxTokens int                `json:"max_tokens"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []anthropicContent `json:"content"`
	Error   *anthropicError    `json:"error,omitempty"`
}

type anthropicContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type anthropicError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

func (c *Client) completeAnthropic(ctx context.Context, req CompletionRequest) (string, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1000
	}

	reqBody := anthropicRequest{
		Model:     c.config.Model,
		MaxTokens: maxTokens,
		Messages: []anthropicMessage{
			{Role: "user", Content: req.Prompt},
		},
	}

	respBody, err := c.post(ctx, "/messages", reqBody, map[string]string{
		"x-api-key":         c.config.APIKey,
		"anthropic-version": "2023-06-01",
	})
	if err != nil {
		return "", err
	}

	var response anthropicResponse
	if err := json.Unmarshal(respBody, &response); err != nil {
		return "", apperrors.Wrap(err, apperrors.ErrTypeCompletion, "failed to parse Anthropic response")
	}

	if response.Error != nil {
		return "", apperrors.Newf(apperrors.ErrTypeCompletion, "Anthropic API error: %s", response.Error.Message)
	}

	if len(response.Content) == 0 {
		return "", apperrors.New(apperrors.ErrTypeCompletion, "no response from Anthropic")
	}

	return response.Content[0].Text, nil
}

// Ollama API structures

type ollamaRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
	Format string `json:"format,omitempty"`
}

type ollamaResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error,omitempty"`
}

func (c *Client) completeOllama(ctx context.Context, req CompletionRequest) (string, error) {
	reqBody := ollamaRequest{
		Model:  c.config.Model,
		Prompt: req.Prompt,
		Stream: false,
	}

	if req.Shape != nil {
		reqBody.Format = "json"
	}

	respBody, err := c.post(ctx, "/api/generate", reqBody, nil)
	if err != nil {
		return "", err
	}

	var response ollamaResponse
	if err := json.Unmarshal(respBody, &response); err != nil {
		return "", apperrors.Wrap(err, apperrors.ErrTypeCompletion, "failed to parse Ollama response")
	}

	if response.Error != "" {
		return "", apperrors.Newf(apperrors.ErrTypeCompletion, "Ollama API error: %s", response.Error)
	}

	return response.Response, nil
}

// post makes a JSON HTTP request to the provider API
func (c *Client) post(ctx context.Context, endpoint string, reqBody interface{}, headers map[string]string) ([]byte, error) {
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrTypeCompletion, "failed to marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+endpoint, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrTypeCompletion, "failed to create request")
	}

	req.Header.Set("Content-Type", "application/json")

	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrTypeCompletion, "failed to make request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrTypeCompletion, "failed to read response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.Newf(apperrors.ErrTypeCompletion,
			"API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	return body, nil
}

var _ Service = (*Client)(nil)

// String implements fmt.Stringer for debug logging without leaking the key
func (c *Client) String() string {
	return fmt.Sprintf("llm.Client{provider: %s, model: %s}", c.config.Provider, c.config.Model)
}
