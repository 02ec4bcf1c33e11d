package dataset

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salesdash/salesdash/internal/shared"
)

// ============================================================================
// FAKE QUERIER
// ============================================================================

type recordedQuery struct {
	sql  string
	args []any
}

type fakeQuerier struct {
	mu      sync.Mutex
	queries []recordedQuery

	total    string
	stores   [][]string
	products [][]string
	months   [][]string
	best     [][]string

	rowErr   error
	queryErr error
	execErr  error
}

func (f *fakeQuerier) record(sql string, args []any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, recordedQuery{sql: sql, args: args})
}

func (f *fakeQuerier) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.record(sql, args)
	return pgconn.NewCommandTag("CREATE TABLE"), f.execErr
}

func (f *fakeQuerier) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	f.record(sql, args)
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	switch {
	case strings.Contains(sql, "LIMIT"):
		return &fakeRows{data: f.best}, nil
	case strings.Contains(sql, "GROUP BY store_name"):
		return &fakeRows{data: f.stores}, nil
	case strings.Contains(sql, "to_char"):
		return &fakeRows{data: f.months}, nil
	default:
		return &fakeRows{data: f.products}, nil
	}
}

func (f *fakeQuerier) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	f.record(sql, args)
	return fakeRow{value: f.total, err: f.rowErr}
}

type fakeRow struct {
	value string
	err   error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	return scanStrings([]string{r.value}, dest)
}

type fakeRows struct {
	data [][]string
	pos  int
}

func (r *fakeRows) Close()                                       {}
func (r *fakeRows) Err() error                                   { return nil }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.NewCommandTag("SELECT") }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }

func (r *fakeRows) Next() bool {
	if r.pos >= len(r.data) {
		return false
	}
	r.pos++
	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	return scanStrings(r.data[r.pos-1], dest)
}

func (r *fakeRows) Values() ([]any, error) {
	row := r.data[r.pos-1]
	out := make([]any, len(row))
	for i, v := range row {
		out[i] = v
	}
	return out, nil
}

func scanStrings(values []string, dest []any) error {
	if len(values) != len(dest) {
		return fmt.Errorf("scan: %d values into %d targets", len(values), len(dest))
	}
	for i, d := range dest {
		p, ok := d.(*string)
		if !ok {
			return fmt.Errorf("scan: target %d is %T", i, d)
		}
		*p = values[i]
	}
	return nil
}

func sampleQuerier() *fakeQuerier {
	return &fakeQuerier{
		total:    "150.50",
		stores:   [][]string{{"Magasin_1", "100.50", "12"}, {"Magasin_2", "50.00", "5"}},
		products: [][]string{{"Produit_1", "15", "120.00"}, {"Produit_2", "2", "30.50"}},
		months:   [][]string{{"2023-01", "70.50"}, {"2023-02", "80.00"}},
		best:     [][]string{{"Produit_1", "15"}, {"Produit_2", "2"}},
	}
}

// ============================================================================
// TESTS
// ============================================================================

func TestFilterClause(t *testing.T) {
	from := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2022, 12, 31, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		name   string
		filter Filter
		where  string
		args   []any
	}{
		{name: "zero", filter: Filter{}, where: "", args: nil},
		{name: "from only", filter: Filter{From: from}, where: " WHERE sold_on >= $1", args: []any{from}},
		{name: "stores only", filter: Filter{Stores: []string{"A", "B"}}, where: " WHERE store_name = ANY($1)", args: []any{[]string{"A", "B"}}},
		{
			name:   "all",
			filter: Filter{From: from, To: to, Stores: []string{"A"}, Products: []string{"P"}},
			where:  " WHERE sold_on >= $1 AND sold_on <= $2 AND store_name = ANY($3) AND product_name = ANY($4)",
			args:   []any{from, to, []string{"A"}, []string{"P"}},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			where, args := tc.filter.clause()
			assert.Equal(t, tc.where, where)
			assert.Equal(t, tc.args, args)
			assert.Equal(t, tc.where == "", tc.filter.IsZero())
		})
	}
}

func TestMapErr(t *testing.T) {
	missing := mapErr(&pgconn.PgError{Code: pgUndefinedTable})
	require.ErrorIs(t, missing, shared.ErrEmptyDataset)

	denied := &pgconn.PgError{Code: "42501"}
	err := mapErr(denied)
	require.NotErrorIs(t, err, shared.ErrEmptyDataset)
	require.ErrorIs(t, err, denied)

	boom := errors.New("connection reset")
	err = mapErr(boom)
	require.ErrorIs(t, err, boom)
	require.ErrorContains(t, err, "dataset: query")
}

func TestRepositoryLoad(t *testing.T) {
	q := sampleQuerier()
	repo := &Repository{q: q}

	set, err := repo.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, "150.5", set.TotalSales.String())
	require.Len(t, set.SalesByStore, 2)
	require.Equal(t, "Magasin_1", set.SalesByStore[0].StoreName)
	require.Equal(t, "12", set.SalesByStore[0].QuantityTotal.String())
	require.Equal(t, "15", set.SalesByProduct[0].QuantityTotal.String())
	require.Equal(t, "120", set.SalesByProduct[0].TotalSales.String())
	require.Equal(t, []string{"2023"}, set.Years())
	require.Len(t, set.BestSellingProducts, 2)

	require.Len(t, q.queries, 5)
	best := q.queries[4].sql
	require.Contains(t, best, fmt.Sprintf("LIMIT %d", BestSellerLimit))
	require.Equal(t, 5, BestSellerLimit)
	for _, query := range q.queries {
		require.NotContains(t, query.sql, "WHERE")
		require.Empty(t, query.args)
	}
}

func TestRepositoryLoadAppliesFilterToEveryQuery(t *testing.T) {
	q := sampleQuerier()
	from := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	repo := (&Repository{q: q}).WithFilter(Filter{From: from, Stores: []string{"Magasin_1"}})

	_, err := repo.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, q.queries, 5)
	for _, query := range q.queries {
		require.Contains(t, query.sql, "WHERE sold_on >= $1 AND store_name = ANY($2)")
		require.Equal(t, []any{from, []string{"Magasin_1"}}, query.args)
	}
}

func TestRepositoryLoadEmptyTable(t *testing.T) {
	repo := &Repository{q: &fakeQuerier{total: "0"}}
	_, err := repo.Load(context.Background())
	require.ErrorIs(t, err, shared.ErrEmptyDataset)
}

func TestRepositoryLoadMissingTable(t *testing.T) {
	repo := &Repository{q: &fakeQuerier{rowErr: &pgconn.PgError{Code: pgUndefinedTable}}}
	_, err := repo.Load(context.Background())
	require.ErrorIs(t, err, shared.ErrEmptyDataset)
}

func TestRepositoryLoadQueryError(t *testing.T) {
	boom := errors.New("timeout")
	repo := &Repository{q: &fakeQuerier{total: "1", queryErr: boom}}
	_, err := repo.Load(context.Background())
	require.ErrorIs(t, err, boom)
	require.NotErrorIs(t, err, shared.ErrEmptyDataset)
}

func TestEnsureSchema(t *testing.T) {
	q := &fakeQuerier{}
	require.NoError(t, (&Repository{q: q}).EnsureSchema(context.Background()))
	require.Contains(t, q.queries[0].sql, "CREATE TABLE IF NOT EXISTS sales")

	q.execErr = errors.New("permission denied")
	err := (&Repository{q: q}).EnsureSchema(context.Background())
	require.ErrorContains(t, err, "dataset: ensure schema")
}

func TestInsertSalesEmptyIsNoop(t *testing.T) {
	n, err := (&Repository{}).InsertSales(context.Background(), nil)
	require.NoError(t, err)
	require.Zero(t, n)
}
