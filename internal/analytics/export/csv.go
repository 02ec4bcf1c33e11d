package export

import (
	"encoding/csv"
	"io"

	"github.com/salesdash/salesdash/internal/analytics"
	"github.com/salesdash/salesdash/internal/dataset"
)

// WriteStoresCSV serialises per-store totals, highest sales first.
func WriteStoresCSV(w io.Writer, set *dataset.SalesRecordSet) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write([]string{"store_name", "total_sales", "quantity_total"}); err != nil {
		return err
	}
	for _, store := range analytics.RankStores(set, 0) {
		if err := writer.Write([]string{
			store.StoreName,
			store.TotalSales.StringFixed(2),
			store.QuantityTotal.String(),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteProductsCSV emits per-product totals and average unit price.
func WriteProductsCSV(w io.Writer, set *dataset.SalesRecordSet) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()
	if err := writer.Write([]string{"product_name", "quantity_total", "total_sales", "average_price"}); err != nil {
		return err
	}
	for _, product := range set.SalesByProduct {
		if err := writer.Write([]string{
			product.ProductName,
			product.QuantityTotal.String(),
			product.TotalSales.StringFixed(2),
			analytics.AverageUnitPrice(product).StringFixed(2),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteTrendCSV emits the sales trend at the given granularity.
func WriteTrendCSV(w io.Writer, set *dataset.SalesRecordSet, g analytics.Granularity) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()
	if err := writer.Write([]string{"period", "total_sales"}); err != nil {
		return err
	}
	for _, bucket := range analytics.BucketByPeriod(set, g) {
		if err := writer.Write([]string{bucket.Key, bucket.Total.StringFixed(2)}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteBestSellersCSV prints the best-seller ranking.
func WriteBestSellersCSV(w io.Writer, set *dataset.SalesRecordSet) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()
	if err := writer.Write([]string{"product_name", "quantity_total"}); err != nil {
		return err
	}
	for _, p := range set.BestSellingProducts {
		if err := writer.Write([]string{p.ProductName, p.QuantityTotal.String()}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteTableCSV writes a dashboard table as displayed: same columns, same
// order, and only the rows the current search leaves visible.
func WriteTableCSV(w io.Writer, columns []string, rows []analytics.TableRow) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()
	if err := writer.Write(columns); err != nil {
		return err
	}
	for _, row := range rows {
		if !row.Visible {
			continue
		}
		if err := writer.Write(row.Cells); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
