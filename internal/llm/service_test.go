package llm

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureService struct {
	gotDeadline bool
}

func (c *captureService) Complete(ctx context.Context, _ CompletionRequest) (Result, error) {
	_, c.gotDeadline = ctx.Deadline()
	return PlainText("ok"), nil
}

func TestWithTimeout_AddsDeadline(t *testing.T) {
	inner := &captureService{}
	svc := WithTimeout(inner, time.Second)

	result, err := svc.Complete(context.Background(), CompletionRequest{Prompt: "p"})
	require.NoError(t, err)
	assert.Equal(t, "ok", result.Text(""))
	assert.True(t, inner.gotDeadline)
}

func TestWithTimeout_NonPositiveIsPassthrough(t *testing.T) {
	inner := &captureService{}

	assert.Same(t, Service(inner), WithTimeout(inner, 0))
	assert.Same(t, Service(inner), WithTimeout(inner, -time.Second))
}

func TestResult_Text(t *testing.T) {
	assert.Equal(t, "raw", PlainText("raw").Text("anything"))
	assert.Equal(t, "q", Structured(map[string]string{"sql_query": "q"}).Text("sql_query"))
	assert.Empty(t, Structured(map[string]string{}).Text("sql_query"))
}
