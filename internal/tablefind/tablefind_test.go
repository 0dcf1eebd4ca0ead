package tablefind

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askdb/askdb/internal/errors"
	"github.com/askdb/askdb/internal/schema"
)

func mustDescriptor(t *testing.T, cols ...schema.Column) schema.Descriptor {
	t.Helper()

	desc, err := schema.NewDescriptor(cols)
	require.NoError(t, err)

	return desc
}

func salesCandidate(t *testing.T) Candidate {
	return Candidate{
		Info: schema.TableInfo{Name: "sales_data", Description: "Sales transactions by region and rep"},
		Schema: mustDescriptor(t,
			schema.Column{Name: "Region", Type: "String"},
			schema.Column{Name: "Sales_Amount", Type: "Float64"},
			schema.Column{Name: "Product_Category", Type: "String"},
		),
	}
}

func inventoryCandidate(t *testing.T) Candidate {
	return Candidate{
		Info: schema.TableInfo{Name: "inventory", Description: "Warehouse stock levels"},
		Schema: mustDescriptor(t,
			schema.Column{Name: "Warehouse", Type: "String"},
			schema.Column{Name: "Stock_Level", Type: "Int64"},
		),
	}
}

func TestRank_PrefersMatchingTable(t *testing.T) {
	candidates := []Candidate{inventoryCandidate(t), salesCandidate(t)}

	matches := Rank("total sales amount per region", candidates)
	require.Len(t, matches, 2)
	assert.Equal(t, "sales_data", matches[0].Table)
	assert.Greater(t, matches[0].Score, matches[1].Score)
}

func TestRank_Deterministic(t *testing.T) {
	candidates := []Candidate{salesCandidate(t), inventoryCandidate(t)}

	first := Rank("stock levels by warehouse", candidates)
	second := Rank("stock levels by warehouse", candidates)
	assert.Equal(t, first, second)
	assert.Equal(t, "inventory", first[0].Table)
}

func TestRank_NoSignalScoresZero(t *testing.T) {
	matches := Rank("the of and", []Candidate{salesCandidate(t)})
	require.Len(t, matches, 1)
	assert.Zero(t, matches[0].Score)
}

func TestRank_TieBreaksByName(t *testing.T) {
	a := Candidate{Info: schema.TableInfo{Name: "alpha"}}
	b := Candidate{Info: schema.TableInfo{Name: "beta"}}

	matches := Rank("nothing matches here", []Candidate{b, a})
	assert.Equal(t, "alpha", matches[0].Table)
	assert.Equal(t, "beta", matches[1].Table)
}

type stubLister struct {
	tables []schema.TableInfo
	err    error
}

func (s *stubLister) ListTables(context.Context) ([]schema.TableInfo, error) {
	return s.tables, s.err
}

func TestFind_SingleTableWins(t *testing.T) {
	sales := salesCandidate(t)
	provider := schema.NewStaticProvider(map[string]schema.Descriptor{"sales_data": sales.Schema})
	lister := &stubLister{tables: []schema.TableInfo{sales.Info}}

	f := New(provider, lister)

	got := f.Find(context.Background(), "anything at all", "fallback")
	assert.Equal(t, "sales_data", got)
}

func TestFind_PicksBestAcrossTables(t *testing.T) {
	sales := salesCandidate(t)
	inv := inventoryCandidate(t)

	provider := schema.NewStaticProvider(map[string]schema.Descriptor{
		"sales_data": sales.Schema,
		"inventory":  inv.Schema,
	})
	lister := &stubLister{tables: []schema.TableInfo{sales.Info, inv.Info}}

	f := New(provider, lister)

	assert.Equal(t, "sales_data", f.Find(context.Background(), "sales per region", "fallback"))
	assert.Equal(t, "inventory", f.Find(context.Background(), "warehouse stock", "fallback"))
}

func TestFind_FallsBackOnListError(t *testing.T) {
	provider := schema.NewStaticProvider(nil)
	lister := &stubLister{err: errors.New(errors.ErrTypeDatabase, "connection lost")}

	f := New(provider, lister)

	got := f.Find(context.Background(), "sales per region", "sales_data")
	assert.Equal(t, "sales_data", got)
}

func TestFind_FallsBackWhenNothingMatches(t *testing.T) {
	sales := salesCandidate(t)
	inv := inventoryCandidate(t)

	provider := schema.NewStaticProvider(map[string]schema.Descriptor{
		"sales_data": sales.Schema,
		"inventory":  inv.Schema,
	})
	lister := &stubLister{tables: []schema.TableInfo{sales.Info, inv.Info}}

	f := New(provider, lister)

	got := f.Find(context.Background(), "zzz qqq", "sales_data")
	assert.Equal(t, "sales_data", got)
}
