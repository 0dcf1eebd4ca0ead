package enhance

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/askdb/askdb/internal/errors"
	"github.com/askdb/askdb/internal/llm"
	"github.com/askdb/askdb/internal/schema"
)

type MockCompletionService struct {
	mock.Mock
}

func (m *MockCompletionService) Complete(ctx context.Context, req llm.CompletionRequest) (llm.Result, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(llm.Result), args.Error(1)
}

func testSchema(t *testing.T) schema.Descriptor {
	t.Helper()

	desc, err := schema.NewDescriptor([]schema.Column{
		{Name: "Region", Type: "String"},
		{Name: "Sales_Amount", Type: "Float64"},
	})
	require.NoError(t, err)

	return desc
}

func TestEnhance_RewritesQuestion(t *testing.T) {
	desc := testSchema(t)

	svc := new(MockCompletionService)
	svc.On("Complete", mock.Anything, mock.MatchedBy(func(req llm.CompletionRequest) bool {
		return strings.Contains(req.Prompt, "Region, Sales_Amount") &&
			strings.Contains(req.Prompt, "Question: top regions")
	})).Return(llm.Structured(map[string]string{
		"enhanced_question": "Which regions have the highest total Sales_Amount?",
	}), nil).Once()

	e := New(svc, 0)

	got := e.Enhance(context.Background(), "top regions", desc, "sales_data")
	assert.Equal(t, "Which regions have the highest total Sales_Amount?", got)
	svc.AssertExpectations(t)
}

func TestEnhance_FailureFallsBackToOriginal(t *testing.T) {
	desc := testSchema(t)

	svc := new(MockCompletionService)
	svc.On("Complete", mock.Anything, mock.Anything).
		Return(llm.Result{}, errors.New(errors.ErrTypeCompletion, "provider unavailable")).Once()

	e := New(svc, 0)

	got := e.Enhance(context.Background(), "top regions", desc, "sales_data")
	assert.Equal(t, "top regions", got)
}

func TestEnhance_EmptyCompletionFallsBack(t *testing.T) {
	desc := testSchema(t)

	svc := new(MockCompletionService)
	svc.On("Complete", mock.Anything, mock.Anything).
		Return(llm.Structured(map[string]string{}), nil).Once()

	e := New(svc, 0)

	got := e.Enhance(context.Background(), "top regions", desc, "sales_data")
	assert.Equal(t, "top regions", got)
}

func TestEnhance_SkipsLongAndSQLShapedQuestions(t *testing.T) {
	desc := testSchema(t)

	svc := new(MockCompletionService)
	e := New(svc, 0)

	long := strings.Repeat("what about the quarterly sales figures ", 10)

	for _, q := range []string{
		long,
		"SELECT Region FROM sales_data",
		"select Region from sales_data",
		"WITH t AS (SELECT 1) SELECT * FROM t",
		"",
		"   ",
	} {
		got := e.Enhance(context.Background(), q, desc, "sales_data")
		assert.Equal(t, q, got)
	}

	svc.AssertNotCalled(t, "Complete")
}
