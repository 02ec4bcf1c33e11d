package dashboard

import (
	"regexp"

	"github.com/go-playground/validator/v10"

	"github.com/salesdash/salesdash/internal/analytics"
	"github.com/salesdash/salesdash/internal/analytics/ui"
)

// ViewOptions holds the control values of one dashboard session.
type ViewOptions struct {
	Period         analytics.Granularity   `validate:"oneof=monthly weekly yearly"`
	StoreChartKind ui.ChartKind            `validate:"oneof=bar line pie doughnut"`
	ProductMetric  analytics.ProductMetric `validate:"oneof=sales quantity"`
	ComparisonYear string                  `validate:"year_or_all"`
	ProductLimit   string                  `validate:"limit_or_all"`
	StoreSort      analytics.SortKey       `validate:"oneof=sales-desc sales-asc name-asc name-desc"`
	StoreSearch    string                  `validate:"max=100"`
	ProductSearch  string                  `validate:"max=100"`
}

// DefaultViewOptions returns the options of a freshly loaded dashboard.
func DefaultViewOptions() ViewOptions {
	return ViewOptions{
		Period:         analytics.Monthly,
		StoreChartKind: ui.KindBar,
		ProductMetric:  analytics.MetricSales,
		ComparisonYear: analytics.AllYears,
		ProductLimit:   "10",
		StoreSort:      analytics.SortSalesDesc,
	}
}

var (
	yearPattern  = regexp.MustCompile(`^\d{4}$`)
	limitPattern = regexp.MustCompile(`^[1-9]\d{0,3}$`)
	validate     = newValidator()
)

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("year_or_all", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return s == analytics.AllYears || yearPattern.MatchString(s)
	})
	_ = v.RegisterValidation("limit_or_all", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return s == analytics.ProductLimitAll || limitPattern.MatchString(s)
	})
	return v
}

// Validate checks every option against its allowed values.
func (o ViewOptions) Validate() error {
	return validate.Struct(o)
}
