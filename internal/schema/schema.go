// Package schema describes queryable tables: ordered column metadata used for
// prompt construction and candidate validation.
package schema

import (
	"regexp"
	"strings"

	"github.com/askdb/askdb/internal/errors"
)

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Column describes a single table column
type Column struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

// Descriptor is an ordered, immutable set of columns for one table.
// Column order is preserved from construction and drives both prompt layout
// and fallback query synthesis.
type Descriptor struct {
	columns []Column
	index   map[string]struct{}
	folded  map[string]struct{}
}

// NewDescriptor builds a descriptor from columns in the given order.
// Column names must be unique, valid identifiers.
func NewDescriptor(columns []Column) (Descriptor, error) {
	index := make(map[string]struct{}, len(columns))
	folded := make(map[string]struct{}, len(columns))

	for _, col := range columns {
		if !identPattern.MatchString(col.Name) {
			return Descriptor{}, errors.Newf(errors.ErrTypeSchema,
				"invalid column name %q", col.Name)
		}

		if _, dup := index[col.Name]; dup {
			return Descriptor{}, errors.Newf(errors.ErrTypeSchema,
				"duplicate column name %q", col.Name)
		}

		index[col.Name] = struct{}{}
		folded[strings.ToLower(col.Name)] = struct{}{}
	}

	cols := make([]Column, len(columns))
	copy(cols, columns)

	return Descriptor{columns: cols, index: index, folded: folded}, nil
}

// Columns returns the columns in declaration order
func (d Descriptor) Columns() []Column {
	cols := make([]Column, len(d.columns))
	copy(cols, d.columns)

	return cols
}

// Has reports whether the descriptor contains a column with the given name
func (d Descriptor) Has(name string) bool {
	_, ok := d.index[name]
	return ok
}

// HasFold reports whether the descriptor contains the column under SQL's
// case-insensitive identifier rules
func (d Descriptor) HasFold(name string) bool {
	_, ok := d.folded[strings.ToLower(name)]
	return ok
}

// Len returns the number of columns
func (d Descriptor) Len() int {
	return len(d.columns)
}

// Empty reports whether the descriptor has no columns
func (d Descriptor) Empty() bool {
	return len(d.columns) == 0
}

// ValidTableName reports whether name is a plain identifier safe to embed
// verbatim in generated SQL
func ValidTableName(name string) bool {
	return identPattern.MatchString(name)
}

// TableInfo summarizes a table known to the database
type TableInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Rows        int64  `json:"rows"`
}
