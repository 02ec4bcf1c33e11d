// Package analytics derives chart series and table rows from a sales record set.
// Every function here is pure: inputs are never mutated.
package analytics

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/salesdash/salesdash/internal/dataset"
)

// Default widget sizes.
const (
	DefaultStoreLimit   = 10
	DefaultProductLimit = 5
	WeeksPerMonth       = 4
	AllYears            = "all"
)

// Granularity selects the period bucketing of the sales trend.
type Granularity string

// Granularities offered by the sales trend control.
const (
	Monthly Granularity = "monthly"
	Weekly  Granularity = "weekly"
	Yearly  Granularity = "yearly"
)

// ProductMetric selects the value ranked by the products chart.
type ProductMetric string

// Product metrics.
const (
	MetricSales    ProductMetric = "sales"
	MetricQuantity ProductMetric = "quantity"
)

var hundred = decimal.NewFromInt(100)

// MonthLabels are the short French month names of the comparison chart.
var MonthLabels = [12]string{"Jan", "Fév", "Mar", "Avr", "Mai", "Juin", "Juil", "Août", "Sep", "Oct", "Nov", "Déc"}

// PeriodBucket is one point of the sales trend.
type PeriodBucket struct {
	Key   string
	Label string
	Total decimal.Decimal
}

// ProductPoint is one slice of the products chart.
type ProductPoint struct {
	Name  string
	Value decimal.Decimal
}

// RankStores returns the first min(limit, n) stores ordered by sales,
// highest first. Ties keep their input order. A non-positive limit keeps all.
func RankStores(set *dataset.SalesRecordSet, limit int) []dataset.StoreAgg {
	if set == nil {
		return nil
	}
	ranked := make([]dataset.StoreAgg, len(set.SalesByStore))
	copy(ranked, set.SalesByStore)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].TotalSales.GreaterThan(ranked[j].TotalSales)
	})
	return truncate(ranked, limit)
}

// RankProducts orders products by metric, highest first, and keeps the first
// min(limit, n). Ties keep their input order.
func RankProducts(set *dataset.SalesRecordSet, metric ProductMetric, limit int) []ProductPoint {
	if set == nil {
		return nil
	}
	points := make([]ProductPoint, len(set.SalesByProduct))
	for i, p := range set.SalesByProduct {
		points[i] = ProductPoint{Name: p.ProductName, Value: MetricValue(p, metric)}
	}
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Value.GreaterThan(points[j].Value)
	})
	return truncate(points, limit)
}

// MetricValue extracts the ranked value of p.
func MetricValue(p dataset.ProductAgg, metric ProductMetric) decimal.Decimal {
	if metric == MetricQuantity {
		return p.QuantityTotal
	}
	return p.TotalSales
}

// BucketByPeriod groups the monthly sales by granularity. Keys are sorted
// lexicographically, which is chronological for zero-padded periods.
//
// Weekly buckets are synthetic: each month is split into four equal weeks
// keyed YYYY-MM-W1..W4, so the four quarters always sum back to the month.
func BucketByPeriod(set *dataset.SalesRecordSet, g Granularity) []PeriodBucket {
	if set == nil || len(set.MonthlySales) == 0 {
		return nil
	}
	totals := make(map[string]decimal.Decimal)
	labels := make(map[string]string)
	add := func(key, label string, v decimal.Decimal) {
		totals[key] = totals[key].Add(v)
		labels[key] = label
	}
	quarter := decimal.NewFromInt(WeeksPerMonth)
	for _, m := range set.MonthlySales {
		year, month, ok := strings.Cut(m.Period, "-")
		switch g {
		case Yearly:
			add(yearKey(m.Period), yearKey(m.Period), m.TotalSales)
		case Weekly:
			share := m.TotalSales.Div(quarter)
			for w := 1; w <= WeeksPerMonth; w++ {
				key := fmt.Sprintf("%s-W%d", m.Period, w)
				label := key
				if ok {
					label = fmt.Sprintf("%s/%s W%d", month, year, w)
				}
				add(key, label, share)
			}
		default:
			label := m.Period
			if ok {
				label = month + "/" + year
			}
			add(m.Period, label, m.TotalSales)
		}
	}
	keys := make([]string, 0, len(totals))
	for k := range totals {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	buckets := make([]PeriodBucket, len(keys))
	for i, k := range keys {
		buckets[i] = PeriodBucket{Key: k, Label: labels[k], Total: totals[k]}
	}
	return buckets
}

func yearKey(period string) string {
	if len(period) >= 4 {
		return period[:4]
	}
	return period
}

// MonthlyTotalsForYear sums sales into twelve month slots for year, or for
// every year when year is AllYears. Periods whose month is not 1..12 are
// dropped.
func MonthlyTotalsForYear(set *dataset.SalesRecordSet, year string) [12]decimal.Decimal {
	var slots [12]decimal.Decimal
	if set == nil {
		return slots
	}
	for _, m := range set.MonthlySales {
		y, mm, ok := strings.Cut(m.Period, "-")
		if !ok {
			continue
		}
		if year != AllYears && y != year {
			continue
		}
		idx, err := strconv.Atoi(mm)
		if err != nil || idx < 1 || idx > 12 {
			continue
		}
		slots[idx-1] = slots[idx-1].Add(m.TotalSales)
	}
	return slots
}

// PercentageOfTotal returns value/total*100. A zero total is replaced by 1,
// so the result is value*100 rather than a division error.
func PercentageOfTotal(value, total decimal.Decimal) decimal.Decimal {
	return value.Div(floorDenominator(total)).Mul(hundred)
}

// AverageUnitPrice returns sales per unit sold, with zero quantities floored to 1.
func AverageUnitPrice(p dataset.ProductAgg) decimal.Decimal {
	return p.TotalSales.Div(floorDenominator(p.QuantityTotal))
}

func floorDenominator(d decimal.Decimal) decimal.Decimal {
	if d.IsZero() {
		return decimal.NewFromInt(1)
	}
	return d
}

func truncate[T any](items []T, limit int) []T {
	if limit > 0 && limit < len(items) {
		return items[:limit]
	}
	return items
}
