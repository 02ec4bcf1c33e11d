package dataset

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/salesdash/salesdash/internal/shared"
)

func TestEmbeddedSourceLoadsSample(t *testing.T) {
	set, err := EmbeddedSource{}.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, "262475.71", set.TotalSales.String())
	require.Len(t, set.SalesByStore, 5)
	require.Len(t, set.SalesByProduct, 10)
	require.Len(t, set.MonthlySales, 24)
	require.Len(t, set.BestSellingProducts, 5)
	require.Equal(t, "Magasin_3", set.SalesByStore[0].StoreName)
	require.Equal(t, "1762", set.SalesByProduct[0].QuantityTotal.String())
	require.Equal(t, []string{"2022", "2023"}, set.Years())
}

func TestDecodeAcceptsLegacyKeys(t *testing.T) {
	doc := `{
		"total_sales": 100.5,
		"sales_by_store": [{"magasin": "Magasin_1", "total_ventes": 100.5}],
		"sales_by_product": [{"produit": "Produit_1", "quantite_totale": 3, "total_ventes": 100.5}],
		"monthly_sales": [{"periode": "2023-01", "total_ventes": 100.5}],
		"best_selling_products": [{"produit": "Produit_1", "quantite_totale": 3}]
	}`
	set, err := Decode(strings.NewReader(doc))
	require.NoError(t, err)
	require.Equal(t, "Magasin_1", set.SalesByStore[0].StoreName)
	require.Equal(t, "100.5", set.SalesByStore[0].TotalSales.String())
	require.Equal(t, "3", set.SalesByProduct[0].QuantityTotal.String())
	require.Equal(t, "2023-01", set.MonthlySales[0].Period)
	require.Equal(t, "Produit_1", set.BestSellingProducts[0].ProductName)
}

func TestDecodeAcceptsFloatQuantities(t *testing.T) {
	doc := `{
		"total_sales": 45245.4,
		"sales_by_store": [{"magasin": "Magasin_3", "total_ventes": 45245.4, "quantite_totale": 1762.0}],
		"sales_by_product": [{"produit": "Produit_10", "quantite_totale": 1762.0, "total_ventes": 45245.4}],
		"monthly_sales": [{"periode": "2022-01", "total_ventes": 45245.4}],
		"best_selling_products": [{"produit": "Produit_10", "quantite_totale": 1762.0}]
	}`
	set, err := Decode(strings.NewReader(doc))
	require.NoError(t, err)
	require.True(t, set.SalesByProduct[0].QuantityTotal.Equal(decimal.NewFromInt(1762)))
	require.True(t, set.SalesByStore[0].QuantityTotal.Equal(decimal.NewFromInt(1762)))
	require.True(t, set.BestSellingProducts[0].QuantityTotal.Equal(decimal.NewFromInt(1762)))

	buf := &bytes.Buffer{}
	require.NoError(t, Encode(buf, set))
	require.Contains(t, buf.String(), `"quantity_total": 1762`)
	require.NotContains(t, buf.String(), "1762.0")
}

func TestDecodeRejectsInvalidSets(t *testing.T) {
	cases := map[string]string{
		"negative quantity": `{"total_sales": 1, "sales_by_product": [{"product_name": "P", "quantity_total": -1, "total_sales": 1}]}`,
		"negative float":    `{"total_sales": 1, "best_selling_products": [{"produit": "P", "quantite_totale": -0.5}]}`,
		"duplicate store":   `{"total_sales": 2, "sales_by_store": [{"store_name": "M", "total_sales": 1}, {"store_name": "M", "total_sales": 1}]}`,
		"missing name":      `{"total_sales": 1, "sales_by_store": [{"total_sales": 1}]}`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(doc))
			require.Error(t, err)
		})
	}
}

func TestDecodeEmptyInput(t *testing.T) {
	_, err := Decode(strings.NewReader(""))
	require.True(t, errors.Is(err, shared.ErrEmptyDataset))
}

func TestEncodeWritesNumbers(t *testing.T) {
	set, err := EmbeddedSource{}.Load(context.Background())
	require.NoError(t, err)
	buf := &bytes.Buffer{}
	require.NoError(t, Encode(buf, set))
	require.Contains(t, buf.String(), `"total_sales": 262475.71`)
	require.Contains(t, buf.String(), `"store_name": "Magasin_3"`)

	again, err := Decode(buf)
	require.NoError(t, err)
	require.True(t, again.TotalSales.Equal(set.TotalSales))
}
