package analytics

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/salesdash/salesdash/internal/dataset"
)

func sampleSet(t *testing.T) *dataset.SalesRecordSet {
	t.Helper()
	set, err := dataset.EmbeddedSource{}.Load(context.Background())
	require.NoError(t, err)
	return set
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestRankStoresOrdersAndLimits(t *testing.T) {
	set := &dataset.SalesRecordSet{SalesByStore: []dataset.StoreAgg{
		{StoreName: "A", TotalSales: dec("10")},
		{StoreName: "B", TotalSales: dec("30")},
		{StoreName: "C", TotalSales: dec("10")},
		{StoreName: "D", TotalSales: dec("20")},
	}}

	ranked := RankStores(set, 3)
	if len(ranked) != 3 {
		t.Fatalf("expected 3 stores, got %d", len(ranked))
	}
	got := []string{ranked[0].StoreName, ranked[1].StoreName, ranked[2].StoreName}
	require.Equal(t, []string{"B", "D", "A"}, got)
	require.Equal(t, "A", set.SalesByStore[0].StoreName, "input must not be reordered")

	require.Len(t, RankStores(set, 10), 4)
	require.Len(t, RankStores(set, 0), 4)
}

func TestRankProductsByQuantity(t *testing.T) {
	set := sampleSet(t)
	points := RankProducts(set, MetricQuantity, DefaultProductLimit)
	require.Len(t, points, DefaultProductLimit)
	require.Equal(t, "Produit_10", points[0].Name)
	require.Equal(t, "1762", points[0].Value.String())
	require.Equal(t, "Produit_5", points[1].Name)

	bySales := RankProducts(set, MetricSales, 2)
	require.Equal(t, "Produit_10", bySales[0].Name)
	require.Equal(t, "Produit_1", bySales[1].Name)
}

func TestBucketByPeriodMonthlyIsIdentity(t *testing.T) {
	set := sampleSet(t)
	buckets := BucketByPeriod(set, Monthly)
	require.Len(t, buckets, len(set.MonthlySales))
	for i, b := range buckets {
		require.Equal(t, set.MonthlySales[i].Period, b.Key)
		require.True(t, b.Total.Equal(set.MonthlySales[i].TotalSales), b.Key)
	}
	require.Equal(t, "01/2022", buckets[0].Label)
}

func TestBucketByPeriodWeeklySumsBackToTotal(t *testing.T) {
	set := sampleSet(t)
	buckets := BucketByPeriod(set, Weekly)
	require.Len(t, buckets, 4*len(set.MonthlySales))
	require.Equal(t, "2022-01-W1", buckets[0].Key)
	require.Equal(t, "01/2022 W1", buckets[0].Label)

	sum := decimal.Zero
	for _, b := range buckets {
		sum = sum.Add(b.Total)
	}
	monthly := decimal.Zero
	for _, m := range set.MonthlySales {
		monthly = monthly.Add(m.TotalSales)
	}
	require.True(t, sum.Round(2).Equal(monthly.Round(2)), "weekly %s vs monthly %s", sum, monthly)
}

func TestBucketByPeriodYearly(t *testing.T) {
	set := &dataset.SalesRecordSet{MonthlySales: []dataset.PeriodAgg{
		{Period: "2023-02", TotalSales: dec("5")},
		{Period: "2022-12", TotalSales: dec("1")},
		{Period: "2023-01", TotalSales: dec("2.5")},
	}}
	buckets := BucketByPeriod(set, Yearly)
	require.Len(t, buckets, 2)
	require.Equal(t, "2022", buckets[0].Key)
	require.Equal(t, "7.5", buckets[1].Total.String())
	require.Nil(t, BucketByPeriod(&dataset.SalesRecordSet{}, Yearly))
}

func TestMonthlyTotalsForYear(t *testing.T) {
	set := sampleSet(t)
	slots := MonthlyTotalsForYear(set, "2022")
	require.Equal(t, "6833.99", slots[0].String())

	all := MonthlyTotalsForYear(set, AllYears)
	require.True(t, all[0].GreaterThan(slots[0]))

	malformed := &dataset.SalesRecordSet{MonthlySales: []dataset.PeriodAgg{
		{Period: "2023-13", TotalSales: dec("9")},
		{Period: "2023", TotalSales: dec("9")},
		{Period: "2023-00", TotalSales: dec("9")},
		{Period: "2023-03", TotalSales: dec("4")},
	}}
	got := MonthlyTotalsForYear(malformed, AllYears)
	total := decimal.Zero
	for _, v := range got {
		total = total.Add(v)
	}
	require.Equal(t, "4", total.String())
	require.Equal(t, "4", got[2].String())
}

func TestPercentageOfTotal(t *testing.T) {
	require.Equal(t, "24.37", PercentageOfTotal(dec("63952.72"), dec("262475.71")).StringFixed(2))
	require.Equal(t, "1250", PercentageOfTotal(dec("12.5"), decimal.Zero).String())
}

func TestAverageUnitPriceFloorsZeroQuantity(t *testing.T) {
	require.Equal(t, "7", AverageUnitPrice(dataset.ProductAgg{TotalSales: dec("7")}).String())
	require.Equal(t, "2.5", AverageUnitPrice(dataset.ProductAgg{TotalSales: dec("10"), QuantityTotal: dec("4")}).String())
}
