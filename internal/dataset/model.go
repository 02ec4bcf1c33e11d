// Package dataset holds the pre-aggregated sales record set shown by the
// dashboard and the sources it can be loaded from.
package dataset

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// SalesRecordSet is the read-only snapshot a dashboard session renders.
type SalesRecordSet struct {
	TotalSales          decimal.Decimal  `json:"total_sales"`
	SalesByStore        []StoreAgg       `json:"sales_by_store" validate:"dive"`
	SalesByProduct      []ProductAgg     `json:"sales_by_product" validate:"dive"`
	MonthlySales        []PeriodAgg      `json:"monthly_sales" validate:"dive"`
	BestSellingProducts []ProductRanking `json:"best_selling_products" validate:"dive"`
}

// StoreAgg is the sales total of one store. QuantityTotal is zero when the
// source does not provide it.
type StoreAgg struct {
	StoreName     string          `validate:"required"`
	QuantityTotal decimal.Decimal `validate:"gte=0"`
	TotalSales    decimal.Decimal
}

// ProductAgg is the sales total and sold quantity of one product.
type ProductAgg struct {
	ProductName   string          `validate:"required"`
	QuantityTotal decimal.Decimal `validate:"gte=0"`
	TotalSales    decimal.Decimal
}

// PeriodAgg is the sales total of one calendar month keyed "YYYY-MM".
type PeriodAgg struct {
	Period     string `validate:"required"`
	TotalSales decimal.Decimal
}

// ProductRanking is one entry of the best-seller list.
type ProductRanking struct {
	ProductName   string          `validate:"required"`
	QuantityTotal decimal.Decimal `validate:"gte=0"`
}

// IsEmpty reports whether the set carries no rows at all.
func (s *SalesRecordSet) IsEmpty() bool {
	return s == nil || (len(s.SalesByStore) == 0 && len(s.SalesByProduct) == 0 && len(s.MonthlySales) == 0)
}

// Years lists the distinct years present in MonthlySales, ascending.
func (s *SalesRecordSet) Years() []string {
	if s == nil {
		return nil
	}
	seen := make(map[string]struct{})
	years := make([]string, 0, 4)
	for _, m := range s.MonthlySales {
		if len(m.Period) < 4 {
			continue
		}
		y := m.Period[:4]
		if _, ok := seen[y]; ok {
			continue
		}
		seen[y] = struct{}{}
		years = append(years, y)
	}
	sort.Strings(years)
	return years
}

type recordSetWire struct {
	TotalSales          json.Number      `json:"total_sales"`
	SalesByStore        []StoreAgg       `json:"sales_by_store"`
	SalesByProduct      []ProductAgg     `json:"sales_by_product"`
	MonthlySales        []PeriodAgg      `json:"monthly_sales"`
	BestSellingProducts []ProductRanking `json:"best_selling_products"`
}

// UnmarshalJSON decodes the dashboard dataset file.
func (s *SalesRecordSet) UnmarshalJSON(data []byte) error {
	var w recordSetWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	total, err := parseAmount(w.TotalSales, "")
	if err != nil {
		return err
	}
	*s = SalesRecordSet{
		TotalSales:          total,
		SalesByStore:        w.SalesByStore,
		SalesByProduct:      w.SalesByProduct,
		MonthlySales:        w.MonthlySales,
		BestSellingProducts: w.BestSellingProducts,
	}
	return nil
}

// MarshalJSON encodes the set in the dashboard dataset file format.
func (s SalesRecordSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(recordSetWire{
		TotalSales:          amount(s.TotalSales),
		SalesByStore:        nonNil(s.SalesByStore),
		SalesByProduct:      nonNil(s.SalesByProduct),
		MonthlySales:        nonNil(s.MonthlySales),
		BestSellingProducts: nonNil(s.BestSellingProducts),
	})
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

// Wire shapes. Older exports used French keys and wrote quantities as
// floats ("1762.0"); both are read, only the English keys are written.

type storeWire struct {
	StoreName     string      `json:"store_name"`
	TotalSales    json.Number `json:"total_sales"`
	QuantityTotal json.Number `json:"quantity_total,omitempty"`

	Magasin     string      `json:"magasin,omitempty"`
	TotalVentes json.Number `json:"total_ventes,omitempty"`
	Quantite    json.Number `json:"quantite_totale,omitempty"`
}

type productWire struct {
	ProductName   string      `json:"product_name"`
	QuantityTotal json.Number `json:"quantity_total,omitempty"`
	TotalSales    json.Number `json:"total_sales,omitempty"`

	Produit     string      `json:"produit,omitempty"`
	Quantite    json.Number `json:"quantite_totale,omitempty"`
	TotalVentes json.Number `json:"total_ventes,omitempty"`
}

type periodWire struct {
	Period     string      `json:"period"`
	TotalSales json.Number `json:"total_sales"`

	Periode     string      `json:"periode,omitempty"`
	TotalVentes json.Number `json:"total_ventes,omitempty"`
}

func pick(primary, legacy string) string {
	if strings.TrimSpace(primary) != "" {
		return primary
	}
	return legacy
}

func parseAmount(primary, legacy json.Number) (decimal.Decimal, error) {
	raw := pick(primary.String(), legacy.String())
	if raw == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("dataset: amount %q: %w", raw, err)
	}
	return d, nil
}

func amount(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}

// UnmarshalJSON accepts both the current and the legacy store keys.
func (s *StoreAgg) UnmarshalJSON(data []byte) error {
	var w storeWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	total, err := parseAmount(w.TotalSales, w.TotalVentes)
	if err != nil {
		return err
	}
	qty, err := parseAmount(w.QuantityTotal, w.Quantite)
	if err != nil {
		return err
	}
	*s = StoreAgg{StoreName: pick(w.StoreName, w.Magasin), TotalSales: total, QuantityTotal: qty}
	return nil
}

// MarshalJSON writes the store with numeric amounts.
func (s StoreAgg) MarshalJSON() ([]byte, error) {
	w := storeWire{StoreName: s.StoreName, TotalSales: amount(s.TotalSales)}
	if s.QuantityTotal.IsPositive() {
		w.QuantityTotal = amount(s.QuantityTotal)
	}
	return json.Marshal(w)
}

// UnmarshalJSON accepts both the current and the legacy product keys.
func (p *ProductAgg) UnmarshalJSON(data []byte) error {
	var w productWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	total, err := parseAmount(w.TotalSales, w.TotalVentes)
	if err != nil {
		return err
	}
	qty, err := parseAmount(w.QuantityTotal, w.Quantite)
	if err != nil {
		return err
	}
	*p = ProductAgg{ProductName: pick(w.ProductName, w.Produit), QuantityTotal: qty, TotalSales: total}
	return nil
}

// MarshalJSON writes the product with numeric amounts.
func (p ProductAgg) MarshalJSON() ([]byte, error) {
	return json.Marshal(productWire{ProductName: p.ProductName, QuantityTotal: amount(p.QuantityTotal), TotalSales: amount(p.TotalSales)})
}

// UnmarshalJSON accepts both the current and the legacy period keys.
func (p *PeriodAgg) UnmarshalJSON(data []byte) error {
	var w periodWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	total, err := parseAmount(w.TotalSales, w.TotalVentes)
	if err != nil {
		return err
	}
	*p = PeriodAgg{Period: pick(w.Period, w.Periode), TotalSales: total}
	return nil
}

// MarshalJSON writes the period with a numeric amount.
func (p PeriodAgg) MarshalJSON() ([]byte, error) {
	return json.Marshal(periodWire{Period: p.Period, TotalSales: amount(p.TotalSales)})
}

// UnmarshalJSON accepts both the current and the legacy ranking keys.
func (r *ProductRanking) UnmarshalJSON(data []byte) error {
	var w productWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	qty, err := parseAmount(w.QuantityTotal, w.Quantite)
	if err != nil {
		return err
	}
	*r = ProductRanking{ProductName: pick(w.ProductName, w.Produit), QuantityTotal: qty}
	return nil
}

// MarshalJSON writes the ranking entry.
func (r ProductRanking) MarshalJSON() ([]byte, error) {
	return json.Marshal(productWire{ProductName: r.ProductName, QuantityTotal: amount(r.QuantityTotal)})
}
