package analytics

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var displayLocale = language.French

// Formatter renders money, counts and shares for the dashboard locale.
type Formatter struct {
	tag language.Tag
}

// NewFormatter builds a formatter for tag. The zero tag falls back to French.
func NewFormatter(tag language.Tag) Formatter {
	if tag == language.Und {
		tag = displayLocale
	}
	return Formatter{tag: tag}
}

// Euro formats v as a currency amount with two decimals, e.g. "63 952,72 €".
func (f Formatter) Euro(v decimal.Decimal) string {
	p := message.NewPrinter(f.locale())
	return p.Sprintf("%v €", number.Decimal(v.InexactFloat64(), number.Scale(2)))
}

// Count formats a quantity with grouping. Whole quantities print without decimals.
func (f Formatter) Count(v decimal.Decimal) string {
	p := message.NewPrinter(f.locale())
	if v.IsInteger() {
		return p.Sprintf("%v", number.Decimal(v.IntPart()))
	}
	return p.Sprintf("%v", number.Decimal(v.InexactFloat64(), number.MaxFractionDigits(2)))
}

// Percent formats a share with two decimals, e.g. "24.37%".
func (f Formatter) Percent(v decimal.Decimal) string {
	return v.StringFixed(2) + "%"
}

func (f Formatter) locale() language.Tag {
	if f.tag == language.Und {
		return displayLocale
	}
	return f.tag
}
