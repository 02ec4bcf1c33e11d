package dashboard

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/salesdash/salesdash/internal/analytics"
)

func TestDefaultViewOptionsAreValid(t *testing.T) {
	opts := DefaultViewOptions()
	require.NoError(t, opts.Validate())
	require.Equal(t, analytics.Monthly, opts.Period)
	require.Equal(t, "10", opts.ProductLimit)
	require.Equal(t, analytics.AllYears, opts.ComparisonYear)
}

func TestViewOptionsValidation(t *testing.T) {
	cases := map[string]func(o *ViewOptions){
		"period":     func(o *ViewOptions) { o.Period = "daily" },
		"chart kind": func(o *ViewOptions) { o.StoreChartKind = "radar" },
		"metric":     func(o *ViewOptions) { o.ProductMetric = "margin" },
		"year":       func(o *ViewOptions) { o.ComparisonYear = "23" },
		"limit":      func(o *ViewOptions) { o.ProductLimit = "0" },
		"sort":       func(o *ViewOptions) { o.StoreSort = "random" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			opts := DefaultViewOptions()
			mutate(&opts)
			require.Error(t, opts.Validate())
		})
	}

	opts := DefaultViewOptions()
	opts.ComparisonYear = "2023"
	opts.ProductLimit = analytics.ProductLimitAll
	require.NoError(t, opts.Validate())
}
