package analytics

import (
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/salesdash/salesdash/internal/dataset"
)

// SortKey orders the stores table.
type SortKey string

// Table sort keys.
const (
	SortSalesDesc SortKey = "sales-desc"
	SortSalesAsc  SortKey = "sales-asc"
	SortNameAsc   SortKey = "name-asc"
	SortNameDesc  SortKey = "name-desc"
)

// ProductLimitAll shows every product in the products table.
const ProductLimitAll = "all"

// DefaultTableLimit is the initial size of the products table.
const DefaultTableLimit = 10

// StoreColumns and ProductColumns are the table headers, in cell order.
var (
	StoreColumns   = []string{"Magasin", "Ventes totales", "Quantité vendue", "% du total", "Évolution"}
	ProductColumns = []string{"Produit", "Quantité vendue", "Ventes totales", "Prix moyen", "% du total"}
)

// TableRow is one rendered line of a dashboard table. Cells are formatted in
// column order; Sales and Quantity keep the raw values used for sorting.
type TableRow struct {
	Name     string
	Sales    decimal.Decimal
	Quantity decimal.Decimal
	Cells    []string
	Visible  bool
}

// StoreRows builds the stores table in sortKey order.
func StoreRows(set *dataset.SalesRecordSet, sortKey SortKey, f Formatter) []TableRow {
	if set == nil {
		return nil
	}
	rows := make([]TableRow, 0, len(set.SalesByStore))
	for _, s := range set.SalesByStore {
		rows = append(rows, TableRow{
			Name:     s.StoreName,
			Sales:    s.TotalSales,
			Quantity: s.QuantityTotal,
			Visible:  true,
			Cells: []string{
				s.StoreName,
				f.Euro(s.TotalSales),
				f.Count(s.QuantityTotal),
				f.Percent(PercentageOfTotal(s.TotalSales, set.TotalSales)),
				"N/A",
			},
		})
	}
	return SortTable(rows, sortKey)
}

// ProductRows builds the products table ordered by sales, keeping the first
// limit rows. limit is ProductLimitAll or a positive count.
func ProductRows(set *dataset.SalesRecordSet, limit string, f Formatter) []TableRow {
	if set == nil {
		return nil
	}
	rows := make([]TableRow, 0, len(set.SalesByProduct))
	for _, p := range set.SalesByProduct {
		rows = append(rows, TableRow{
			Name:     p.ProductName,
			Sales:    p.TotalSales,
			Quantity: p.QuantityTotal,
			Visible:  true,
			Cells: []string{
				p.ProductName,
				f.Count(p.QuantityTotal),
				f.Euro(p.TotalSales),
				f.Euro(AverageUnitPrice(p)),
				f.Percent(PercentageOfTotal(p.TotalSales, set.TotalSales)),
			},
		})
	}
	rows = SortTable(rows, SortSalesDesc)
	return truncate(rows, ParseLimit(limit))
}

// ParseLimit converts a product limit option to a count. ProductLimitAll and
// unparsable values mean no limit.
func ParseLimit(limit string) int {
	if limit == ProductLimitAll {
		return 0
	}
	n, err := strconv.Atoi(limit)
	if err != nil || n <= 0 {
		return 0
	}
	return n
}

// FilterTableRows marks a row visible when its name contains search, ignoring
// case. Only Visible changes; order and contents are kept.
func FilterTableRows(rows []TableRow, search string) []TableRow {
	needle := strings.ToLower(search)
	out := make([]TableRow, len(rows))
	for i, row := range rows {
		row.Visible = needle == "" || strings.Contains(strings.ToLower(row.Name), needle)
		out[i] = row
	}
	return out
}

// SortTable returns rows reordered by key. Name ordering follows French
// collation. Unknown keys fall back to name-desc.
func SortTable(rows []TableRow, key SortKey) []TableRow {
	out := make([]TableRow, len(rows))
	copy(out, rows)
	var less func(a, b TableRow) bool
	switch key {
	case SortSalesDesc:
		less = func(a, b TableRow) bool { return a.Sales.GreaterThan(b.Sales) }
	case SortSalesAsc:
		less = func(a, b TableRow) bool { return a.Sales.LessThan(b.Sales) }
	case SortNameAsc:
		c := collate.New(language.French)
		less = func(a, b TableRow) bool { return c.CompareString(a.Name, b.Name) < 0 }
	default:
		c := collate.New(language.French)
		less = func(a, b TableRow) bool { return c.CompareString(a.Name, b.Name) > 0 }
	}
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

// VisibleCount reports how many rows pass the current search.
func VisibleCount(rows []TableRow) int {
	n := 0
	for _, r := range rows {
		if r.Visible {
			n++
		}
	}
	return n
}
