package export

import (
	"encoding/json"
	"io"
	"time"

	"github.com/shopspring/decimal"

	"github.com/salesdash/salesdash/internal/analytics"
	"github.com/salesdash/salesdash/internal/dataset"
)

// ReportTimeLayout formats the generation date of a full report.
const ReportTimeLayout = "2006-01-02 15:04:05"

// FullReport is the complete sales analysis written by the report command.
type FullReport struct {
	GeneratedAt  string                   `json:"generated_at"`
	TotalSales   json.Number              `json:"total_sales"`
	SalesByStore []dataset.StoreAgg       `json:"sales_by_store"`
	Products     []ReportProduct          `json:"sales_by_product"`
	MonthlyTrend []ReportPeriod           `json:"monthly_trend"`
	BestSellers  []dataset.ProductRanking `json:"best_selling_products"`
}

// ReportProduct adds the average unit price to a product total.
type ReportProduct struct {
	ProductName   string      `json:"product_name"`
	QuantityTotal json.Number `json:"quantity_total"`
	TotalSales    json.Number `json:"total_sales"`
	AveragePrice  json.Number `json:"average_price"`
}

// ReportPeriod is one month of the trend.
type ReportPeriod struct {
	Period     string      `json:"period"`
	TotalSales json.Number `json:"total_sales"`
}

// BuildReport derives the full report from set as of now.
func BuildReport(set *dataset.SalesRecordSet, now time.Time) FullReport {
	report := FullReport{
		GeneratedAt:  now.Format(ReportTimeLayout),
		TotalSales:   money(set.TotalSales),
		SalesByStore: analytics.RankStores(set, 0),
		BestSellers:  set.BestSellingProducts,
	}
	for _, p := range set.SalesByProduct {
		report.Products = append(report.Products, ReportProduct{
			ProductName:   p.ProductName,
			QuantityTotal: json.Number(p.QuantityTotal.String()),
			TotalSales:    money(p.TotalSales),
			AveragePrice:  money(analytics.AverageUnitPrice(p)),
		})
	}
	for _, b := range analytics.BucketByPeriod(set, analytics.Monthly) {
		report.MonthlyTrend = append(report.MonthlyTrend, ReportPeriod{Period: b.Key, TotalSales: money(b.Total)})
	}
	return report
}

func money(d decimal.Decimal) json.Number {
	return json.Number(d.StringFixed(2))
}

// WriteReportJSON encodes report as indented JSON.
func WriteReportJSON(w io.Writer, report FullReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	return enc.Encode(report)
}

// Section is one CSV file of a split report.
type Section struct {
	Name  string
	Write func(io.Writer) error
}

// CSVSections lists the report sections written as separate CSV files.
func CSVSections(set *dataset.SalesRecordSet) []Section {
	return []Section{
		{Name: "sales_by_store", Write: func(w io.Writer) error { return WriteStoresCSV(w, set) }},
		{Name: "sales_by_product", Write: func(w io.Writer) error { return WriteProductsCSV(w, set) }},
		{Name: "monthly_trend", Write: func(w io.Writer) error { return WriteTrendCSV(w, set, analytics.Monthly) }},
		{Name: "best_selling_products", Write: func(w io.Writer) error { return WriteBestSellersCSV(w, set) }},
	}
}
