package schema

import (
	"context"
	"database/sql"
	"sync"

	"github.com/askdb/askdb/internal/errors"
)

// Provider supplies column metadata for a named table
type Provider interface {
	GetSchema(ctx context.Context, table string) (Descriptor, error)
}

// Lister enumerates the tables known to a database
type Lister interface {
	ListTables(ctx context.Context) ([]TableInfo, error)
}

// StaticProvider serves descriptors from a fixed in-memory set
type StaticProvider struct {
	tables map[string]Descriptor
}

// NewStaticProvider creates a provider over a fixed table set
func NewStaticProvider(tables map[string]Descriptor) *StaticProvider {
	copied := make(map[string]Descriptor, len(tables))
	for name, desc := range tables {
		copied[name] = desc
	}

	return &StaticProvider{tables: copied}
}

// GetSchema returns the descriptor for table or a schema error
func (p *StaticProvider) GetSchema(_ context.Context, table string) (Descriptor, error) {
	desc, ok := p.tables[table]
	if !ok {
		return Descriptor{}, errors.NewSchemaError(table, nil)
	}

	return desc, nil
}

// DefaultSalesSchema returns the built-in schema for the sales_data table
func DefaultSalesSchema() Descriptor {
	desc, _ := NewDescriptor([]Column{
		{Name: "Product_ID", Type: "Int64", Description: "Unique identifier for products"},
		{Name: "Sale_Date", Type: "Date", Description: "Date of the sale"},
		{Name: "Sales_Rep", Type: "String", Description: "Name of the sales representative"},
		{Name: "Region", Type: "String", Description: "Geographic region of the sale"},
		{Name: "Sales_Amount", Type: "Float64", Description: "Total amount of the sale"},
		{Name: "Quantity_Sold", Type: "Int64", Description: "Number of units sold"},
		{Name: "Product_Category", Type: "String", Description: "Category of the product"},
		{Name: "Unit_Cost", Type: "Float64", Description: "Cost per unit"},
		{Name: "Unit_Price", Type: "Float64", Description: "Price per unit"},
		{Name: "Customer_Type", Type: "String", Description: "Type of customer (Retail, Wholesale, etc.)"},
		{Name: "Discount", Type: "Float64", Description: "Discount percentage applied"},
		{Name: "Payment_Method", Type: "String", Description: "Method of payment"},
		{Name: "Sales_Channel", Type: "String", Description: "Channel through which sale was made"},
		{Name: "Region_and_Sales_Rep", Type: "String", Description: "Combination of region and sales rep"},
	})

	return desc
}

// DBProvider introspects a live database for schema information
type DBProvider struct {
	db *sql.DB
}

// NewDBProvider creates a provider backed by database introspection
func NewDBProvider(db *sql.DB) *DBProvider {
	return &DBProvider{db: db}
}

// GetSchema reads column metadata from the catalog
func (p *DBProvider) GetSchema(ctx context.Context, table string) (Descriptor, error) {
	if !ValidTableName(table) {
		return Descriptor{}, errors.Newf(errors.ErrTypeSchema, "invalid table name %q", table)
	}

	rows, err := p.db.QueryContext(ctx, `
		SELECT column_name, data_type, COALESCE(comment, '')
		FROM duckdb_columns()
		WHERE table_name = ?
		ORDER BY column_index`, table)
	if err != nil {
		return Descriptor{}, errors.NewSchemaError(table, err)
	}
	defer rows.Close()

	var columns []Column

	for rows.Next() {
		var col Column
		if err := rows.Scan(&col.Name, &col.Type, &col.Description); err != nil {
			return Descriptor{}, errors.NewSchemaError(table, err)
		}

		columns = append(columns, col)
	}

	if err := rows.Err(); err != nil {
		return Descriptor{}, errors.NewSchemaError(table, err)
	}

	if len(columns) == 0 {
		return Descriptor{}, errors.NewSchemaError(table, nil)
	}

	return NewDescriptor(columns)
}

// ListTables enumerates user tables with estimated row counts
func (p *DBProvider) ListTables(ctx context.Context) ([]TableInfo, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT table_name, COALESCE(comment, ''), COALESCE(estimated_size, 0)
		FROM duckdb_tables()
		ORDER BY table_name`)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeDatabase, "failed to list tables")
	}
	defer rows.Close()

	var tables []TableInfo

	for rows.Next() {
		var info TableInfo
		if err := rows.Scan(&info.Name, &info.Description, &info.Rows); err != nil {
			return nil, errors.Wrap(err, errors.ErrTypeDatabase, "failed to scan table info")
		}

		tables = append(tables, info)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeDatabase, "failed to list tables")
	}

	return tables, nil
}

// CachingProvider wraps a Provider with a process-lifetime cache.
// Safe for concurrent use; population is the only mutation path.
type CachingProvider struct {
	inner Provider

	mu    sync.RWMutex
	cache map[string]Descriptor
}

// NewCachingProvider wraps inner with an unbounded schema cache
func NewCachingProvider(inner Provider) *CachingProvider {
	return &CachingProvider{
		inner: inner,
		cache: make(map[string]Descriptor),
	}
}

// GetSchema returns the cached descriptor, fetching on first use
func (p *CachingProvider) GetSchema(ctx context.Context, table string) (Descriptor, error) {
	p.mu.RLock()
	desc, ok := p.cache[table]
	p.mu.RUnlock()

	if ok {
		return desc, nil
	}

	desc, err := p.inner.GetSchema(ctx, table)
	if err != nil {
		return Descriptor{}, err
	}

	p.mu.Lock()
	p.cache[table] = desc
	p.mu.Unlock()

	return desc, nil
}

// Invalidate drops the cached entry for table, if any
func (p *CachingProvider) Invalidate(table string) {
	p.mu.Lock()
	delete(p.cache, table)
	p.mu.Unlock()
}

// InvalidateAll drops every cached entry
func (p *CachingProvider) InvalidateAll() {
	p.mu.Lock()
	p.cache = make(map[string]Descriptor)
	p.mu.Unlock()
}
