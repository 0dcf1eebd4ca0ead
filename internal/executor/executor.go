// Package executor runs validated SQL against the database and captures
// ordered result sets.
package executor

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/askdb/askdb/internal/errors"
	"github.com/askdb/askdb/internal/logging"
)

// ResultSet holds one query's output. Columns preserves the SELECT order;
// Rows are keyed by column name.
type ResultSet struct {
	Query    string           `json:"query"`
	Columns  []string         `json:"columns"`
	Rows     []map[string]any `json:"rows"`
	Duration time.Duration    `json:"duration_ns"`
}

// RowCount returns the number of rows in the result set
func (r *ResultSet) RowCount() int {
	return len(r.Rows)
}

// Empty reports whether the query returned no rows
func (r *ResultSet) Empty() bool {
	return len(r.Rows) == 0
}

// Executor runs read queries with a per-query timeout
type Executor struct {
	db      *sql.DB
	timeout time.Duration
	logger  *logging.Logger
}

// New creates an executor over db. A non-positive timeout disables the
// per-query deadline.
func New(db *sql.DB, timeout time.Duration) *Executor {
	return &Executor{
		db:      db,
		timeout: timeout,
		logger:  logging.GetLogger(),
	}
}

// Execute runs the query and materializes the full result set
func (e *Executor) Execute(ctx context.Context, query string) (*ResultSet, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	start := time.Now()

	rows, err := e.db.QueryContext(ctx, query)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, errors.Wrap(err, errors.ErrTypeDatabase, "query timed out")
		}

		return nil, errors.Wrap(err, errors.ErrTypeDatabase, "failed to execute query")
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeDatabase, "failed to read result columns")
	}

	result := &ResultSet{Query: query, Columns: columns}

	for rows.Next() {
		values := make([]any, len(columns))
		valuePtrs := make([]any, len(columns))

		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, errors.Wrap(err, errors.ErrTypeDatabase, "failed to scan row")
		}

		row := make(map[string]any, len(columns))
		for i, col := range columns {
			row[col] = normalize(values[i])
		}

		result.Rows = append(result.Rows, row)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeDatabase, "failed to read result rows")
	}

	result.Duration = time.Since(start)

	e.logger.WithFields(map[string]interface{}{
		"rows":        result.RowCount(),
		"duration_ms": result.Duration.Milliseconds(),
	}).Debug("query executed")

	return result, nil
}

// normalize converts driver-specific scan values to JSON-friendly types
func normalize(v any) any {
	switch val := v.(type) {
	case []byte:
		return string(val)
	default:
		return v
	}
}

// DumpJSON writes the result set to a uniquely named JSON file under dir and
// returns the file path.
func DumpJSON(result *ResultSet, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrap(err, errors.ErrTypeFileSystem, "failed to create results directory")
	}

	path := filepath.Join(dir, "result_"+uuid.NewString()+".json")

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", errors.Wrap(err, errors.ErrTypeInternal, "failed to marshal result set")
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", errors.Wrap(err, errors.ErrTypeFileSystem, "failed to write result file")
	}

	return path, nil
}
