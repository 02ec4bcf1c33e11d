package dataset

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/salesdash/salesdash/internal/shared"
)

//go:embed sample/dashboard_data.json
var sampleJSON []byte

var validate = newValidator()

// newValidator compares decimal fields as floats so numeric tags apply to them.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.InexactFloat64()
		}
		return nil
	}, decimal.Decimal{})
	return v
}

// Source yields a sales record set.
type Source interface {
	Load(ctx context.Context) (*SalesRecordSet, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) (*SalesRecordSet, error)

// Load implements Source.
func (f SourceFunc) Load(ctx context.Context) (*SalesRecordSet, error) { return f(ctx) }

// EmbeddedSource serves the dataset compiled into the binary.
type EmbeddedSource struct{}

// Load implements Source.
func (EmbeddedSource) Load(context.Context) (*SalesRecordSet, error) {
	return Decode(bytes.NewReader(sampleJSON))
}

// FileSource reads a dataset JSON file exported by salesctl or the legacy tooling.
type FileSource struct {
	Path string
}

// Load implements Source.
func (s FileSource) Load(context.Context) (*SalesRecordSet, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("dataset: open %s: %w", s.Path, err)
	}
	defer func() { _ = f.Close() }()
	return Decode(f)
}

// Decode parses and validates a dataset document.
func Decode(r io.Reader) (*SalesRecordSet, error) {
	var set SalesRecordSet
	dec := json.NewDecoder(r)
	if err := dec.Decode(&set); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("dataset: %w", shared.ErrEmptyDataset)
		}
		return nil, fmt.Errorf("dataset: decode: %w", err)
	}
	if err := Validate(&set); err != nil {
		return nil, err
	}
	return &set, nil
}

// Encode writes set in the dataset document format.
func Encode(w io.Writer, set *SalesRecordSet) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(set)
}

// Validate checks quantities and name uniqueness. Period strings are not
// checked here: malformed months are dropped later by the aggregations.
func Validate(set *SalesRecordSet) error {
	if set == nil {
		return fmt.Errorf("dataset: %w", shared.ErrEmptyDataset)
	}
	if err := validate.Struct(set); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("dataset: %s failed %q", fe.Namespace(), fe.Tag())
		}
		return fmt.Errorf("dataset: validate: %w", err)
	}
	stores := make(map[string]struct{}, len(set.SalesByStore))
	for _, s := range set.SalesByStore {
		if _, dup := stores[s.StoreName]; dup {
			return fmt.Errorf("dataset: duplicate store %q", s.StoreName)
		}
		stores[s.StoreName] = struct{}{}
	}
	products := make(map[string]struct{}, len(set.SalesByProduct))
	for _, p := range set.SalesByProduct {
		if _, dup := products[p.ProductName]; dup {
			return fmt.Errorf("dataset: duplicate product %q", p.ProductName)
		}
		products[p.ProductName] = struct{}{}
	}
	return nil
}
