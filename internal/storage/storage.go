// Package storage owns the DuckDB connection and the bundled sample dataset.
package storage

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	_ "github.com/marcboeker/go-duckdb" // DuckDB driver

	"github.com/askdb/askdb/internal/errors"
)

// Store wraps the analytical database connection with pooling configured
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (or creates) the database file and configures the connection pool
func Open(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeFileSystem, "failed to create database directory")
	}

	db, err := sql.Open("duckdb", dbPath)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeDatabase, "failed to open database")
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, errors.ErrTypeDatabase, "failed to ping database")
	}

	return &Store{db: db, path: dbPath}, nil
}

// NewWithDB wraps an existing connection, used by tests
func NewWithDB(db *sql.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying connection for query execution and introspection
func (s *Store) DB() *sql.DB {
	return s.db
}

// Path returns the database file path, empty for injected connections
func (s *Store) Path() string {
	return s.path
}

// RowCount returns the number of rows in table
func (s *Store) RowCount(ctx context.Context, table string) (int64, error) {
	var count int64

	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&count)
	if err != nil {
		return 0, errors.Wrapf(err, errors.ErrTypeDatabase, "failed to count rows in %s", table)
	}

	return count, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}

	return nil
}
