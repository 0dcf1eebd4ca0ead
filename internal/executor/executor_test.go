package executor

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askdb/askdb/internal/errors"
)

func newMockExecutor(t *testing.T, timeout time.Duration) (*Executor, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	t.Cleanup(func() { _ = db.Close() })

	return New(db, timeout), mock
}

func TestExecute_ColumnsOrderedAndRowsKeyed(t *testing.T) {
	exec, mock := newMockExecutor(t, 0)

	mock.ExpectQuery("SELECT Region, Sales_Amount FROM sales_data").
		WillReturnRows(sqlmock.NewRows([]string{"Region", "Sales_Amount"}).
			AddRow("North", 2499.50).
			AddRow("South", 840.00))

	result, err := exec.Execute(context.Background(), "SELECT Region, Sales_Amount FROM sales_data")
	require.NoError(t, err)

	assert.Equal(t, []string{"Region", "Sales_Amount"}, result.Columns)
	require.Len(t, result.Rows, 2)
	assert.Equal(t, "North", result.Rows[0]["Region"])
	assert.Equal(t, 840.00, result.Rows[1]["Sales_Amount"])
	assert.Equal(t, 2, result.RowCount())
	assert.False(t, result.Empty())
}

func TestExecute_EmptyResult(t *testing.T) {
	exec, mock := newMockExecutor(t, 0)

	mock.ExpectQuery("SELECT Region FROM sales_data WHERE 1=0").
		WillReturnRows(sqlmock.NewRows([]string{"Region"}))

	result, err := exec.Execute(context.Background(), "SELECT Region FROM sales_data WHERE 1=0")
	require.NoError(t, err)

	assert.True(t, result.Empty())
	assert.Equal(t, []string{"Region"}, result.Columns)
}

func TestExecute_ByteSlicesBecomeStrings(t *testing.T) {
	exec, mock := newMockExecutor(t, 0)

	mock.ExpectQuery("SELECT Region FROM sales_data").
		WillReturnRows(sqlmock.NewRows([]string{"Region"}).AddRow([]byte("East")))

	result, err := exec.Execute(context.Background(), "SELECT Region FROM sales_data")
	require.NoError(t, err)
	assert.Equal(t, "East", result.Rows[0]["Region"])
}

func TestExecute_QueryError(t *testing.T) {
	exec, mock := newMockExecutor(t, 0)

	mock.ExpectQuery("SELECT bogus FROM nowhere").
		WillReturnError(assert.AnError)

	_, err := exec.Execute(context.Background(), "SELECT bogus FROM nowhere")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeDatabase))
}

func TestExecute_Timeout(t *testing.T) {
	exec, mock := newMockExecutor(t, 10*time.Millisecond)

	mock.ExpectQuery("SELECT Region FROM sales_data").
		WillDelayFor(200 * time.Millisecond).
		WillReturnRows(sqlmock.NewRows([]string{"Region"}))

	_, err := exec.Execute(context.Background(), "SELECT Region FROM sales_data")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeDatabase))
}

func TestDumpJSON(t *testing.T) {
	dir := t.TempDir()

	result := &ResultSet{
		Query:   "SELECT Region FROM sales_data",
		Columns: []string{"Region"},
		Rows:    []map[string]any{{"Region": "North"}},
	}

	path, err := DumpJSON(result, dir)
	require.NoError(t, err)
	assert.FileExists(t, path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var restored ResultSet
	require.NoError(t, json.Unmarshal(data, &restored))
	assert.Equal(t, result.Columns, restored.Columns)
	assert.Equal(t, "North", restored.Rows[0]["Region"])
}
