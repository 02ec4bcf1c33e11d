package dataset

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/salesdash/salesdash/internal/platform/db"
	"github.com/salesdash/salesdash/internal/shared"
)

const pgUndefinedTable = "42P01"

// BestSellerLimit caps the best-selling products list.
const BestSellerLimit = 5

const schemaSQL = `
CREATE TABLE IF NOT EXISTS sales (
	id           BIGSERIAL PRIMARY KEY,
	sold_on      DATE NOT NULL,
	store_name   TEXT NOT NULL,
	product_name TEXT NOT NULL,
	quantity     INTEGER NOT NULL CHECK (quantity >= 0),
	unit_price   NUMERIC(10,2) NOT NULL
);
CREATE INDEX IF NOT EXISTS sales_sold_on_idx ON sales (sold_on);
CREATE INDEX IF NOT EXISTS sales_store_idx ON sales (store_name);
CREATE INDEX IF NOT EXISTS sales_product_idx ON sales (product_name);
`

// Sale is one imported sales line.
type Sale struct {
	SoldOn      time.Time
	StoreName   string
	ProductName string
	Quantity    int64
	UnitPrice   decimal.Decimal
}

// Filter narrows the aggregation to a date range and to named stores or products.
// Zero values mean no restriction.
type Filter struct {
	From     time.Time
	To       time.Time
	Stores   []string
	Products []string
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// IsZero reports whether f restricts nothing.
func (f Filter) IsZero() bool {
	return f.From.IsZero() && f.To.IsZero() && len(f.Stores) == 0 && len(f.Products) == 0
}

// Repository aggregates the sales table into a SalesRecordSet.
type Repository struct {
	pool   *pgxpool.Pool
	q      querier
	filter Filter
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool, q: pool}
}

// WithFilter returns a copy of the repository restricted to f.
func (r *Repository) WithFilter(f Filter) *Repository {
	return &Repository{pool: r.pool, q: r.q, filter: f}
}

// EnsureSchema creates the sales table when missing.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.q.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("dataset: ensure schema: %w", err)
	}
	return nil
}

// InsertSales stores rows in one transaction and returns the number inserted.
func (r *Repository) InsertSales(ctx context.Context, rows []Sale) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, row := range rows {
			batch.Queue(`INSERT INTO sales (sold_on, store_name, product_name, quantity, unit_price) VALUES ($1, $2, $3, $4, $5::numeric)`,
				row.SoldOn, row.StoreName, row.ProductName, row.Quantity, row.UnitPrice.StringFixed(2))
		}
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		return 0, fmt.Errorf("dataset: insert sales: %w", err)
	}
	return len(rows), nil
}

// Load implements Source.
func (r *Repository) Load(ctx context.Context) (*SalesRecordSet, error) {
	where, args := r.filter.clause()
	set := &SalesRecordSet{}

	var total string
	if err := r.q.QueryRow(ctx, `SELECT COALESCE(SUM(quantity * unit_price), 0)::text FROM sales`+where, args...).Scan(&total); err != nil {
		return nil, mapErr(err)
	}
	var err error
	if set.TotalSales, err = decimal.NewFromString(total); err != nil {
		return nil, err
	}

	stores, err := r.q.Query(ctx, `SELECT store_name, SUM(quantity * unit_price)::text, SUM(quantity)::text
		FROM sales`+where+` GROUP BY store_name ORDER BY SUM(quantity * unit_price) DESC, store_name`, args...)
	if err != nil {
		return nil, mapErr(err)
	}
	set.SalesByStore, err = collect(stores, func(row pgx.CollectableRow) (StoreAgg, error) {
		var agg StoreAgg
		var amount, qty string
		if err := row.Scan(&agg.StoreName, &amount, &qty); err != nil {
			return agg, err
		}
		return agg, parseNumbers(&agg.TotalSales, amount, &agg.QuantityTotal, qty)
	})
	if err != nil {
		return nil, err
	}

	products, err := r.q.Query(ctx, `SELECT product_name, SUM(quantity)::text, SUM(quantity * unit_price)::text
		FROM sales`+where+` GROUP BY product_name ORDER BY SUM(quantity * unit_price) DESC, product_name`, args...)
	if err != nil {
		return nil, mapErr(err)
	}
	set.SalesByProduct, err = collect(products, func(row pgx.CollectableRow) (ProductAgg, error) {
		var agg ProductAgg
		var amount, qty string
		if err := row.Scan(&agg.ProductName, &qty, &amount); err != nil {
			return agg, err
		}
		return agg, parseNumbers(&agg.TotalSales, amount, &agg.QuantityTotal, qty)
	})
	if err != nil {
		return nil, err
	}

	months, err := r.q.Query(ctx, `SELECT to_char(sold_on, 'YYYY-MM'), SUM(quantity * unit_price)::text
		FROM sales`+where+` GROUP BY 1 ORDER BY 1`, args...)
	if err != nil {
		return nil, mapErr(err)
	}
	set.MonthlySales, err = collect(months, func(row pgx.CollectableRow) (PeriodAgg, error) {
		var agg PeriodAgg
		var amount string
		if err := row.Scan(&agg.Period, &amount); err != nil {
			return agg, err
		}
		d, err := decimal.NewFromString(amount)
		agg.TotalSales = d
		return agg, err
	})
	if err != nil {
		return nil, err
	}

	best, err := r.q.Query(ctx, `SELECT product_name, SUM(quantity)::text
		FROM sales`+where+` GROUP BY product_name ORDER BY SUM(quantity) DESC, product_name LIMIT `+fmt.Sprint(BestSellerLimit), args...)
	if err != nil {
		return nil, mapErr(err)
	}
	set.BestSellingProducts, err = collect(best, func(row pgx.CollectableRow) (ProductRanking, error) {
		var rank ProductRanking
		var qty string
		if err := row.Scan(&rank.ProductName, &qty); err != nil {
			return rank, err
		}
		var err error
		rank.QuantityTotal, err = decimal.NewFromString(qty)
		return rank, err
	})
	if err != nil {
		return nil, err
	}

	if set.IsEmpty() {
		return nil, fmt.Errorf("dataset: sales table: %w", shared.ErrEmptyDataset)
	}
	return set, nil
}

// parseNumbers decodes a pair of text aggregates.
func parseNumbers(amount *decimal.Decimal, amountText string, qty *decimal.Decimal, qtyText string) error {
	var err error
	if *amount, err = decimal.NewFromString(amountText); err != nil {
		return err
	}
	*qty, err = decimal.NewFromString(qtyText)
	return err
}

func collect[T any](rows pgx.Rows, fn pgx.RowToFunc[T]) ([]T, error) {
	items, err := pgx.CollectRows(rows, fn)
	if err != nil {
		return nil, mapErr(err)
	}
	return items, nil
}

func mapErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUndefinedTable {
		return fmt.Errorf("dataset: sales table missing: %w", shared.ErrEmptyDataset)
	}
	return fmt.Errorf("dataset: query: %w", err)
}

func (f Filter) clause() (string, []any) {
	conds := make([]string, 0, 4)
	args := make([]any, 0, 4)
	next := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if !f.From.IsZero() {
		conds = append(conds, "sold_on >= "+next(f.From))
	}
	if !f.To.IsZero() {
		conds = append(conds, "sold_on <= "+next(f.To))
	}
	if len(f.Stores) > 0 {
		conds = append(conds, "store_name = ANY("+next(f.Stores)+")")
	}
	if len(f.Products) > 0 {
		conds = append(conds, "product_name = ANY("+next(f.Products)+")")
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}
