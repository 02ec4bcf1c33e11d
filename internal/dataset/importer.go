package dataset

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/unicode/norm"
)

// Column headers expected in sales exports. Matching is case-insensitive
// and accepts any header containing the expected name.
const (
	ColumnDate     = "Date"
	ColumnStore    = "Magasin"
	ColumnProduct  = "Produit"
	ColumnQuantity = "Quantité vendue"
	ColumnPrice    = "Prix unitaire"
)

var expectedColumns = []string{ColumnDate, ColumnStore, ColumnProduct, ColumnQuantity, ColumnPrice}

var dateLayouts = []string{
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"02/01/2006 15:04:05",
	"02/01/2006",
	"2006-01-02",
	"01/02/2006",
	"02-01-2006",
	"02.01.2006",
}

// ErrMissingColumns is returned when a CSV header lacks an expected column.
var ErrMissingColumns = errors.New("dataset: csv columns missing")

// RowError describes a skipped CSV line. Line is 1-based and counts the header.
type RowError struct {
	Line   int
	Reason string
}

// ImportReport summarises a CSV parse.
type ImportReport struct {
	Delimiter rune
	Columns   map[string]string
	Accepted  int
	Skipped   []RowError
}

// ParseCSV reads a sales export. Rows with an unreadable date, quantity or
// price are skipped and reported; they never abort the parse.
func ParseCSV(r io.Reader, logger *slog.Logger) ([]Sale, ImportReport, error) {
	if logger == nil {
		logger = slog.Default()
	}
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, ImportReport{}, err
	}
	raw = toUTF8(bytes.TrimPrefix(raw, []byte("\xef\xbb\xbf")))

	report := ImportReport{Delimiter: detectDelimiter(raw)}
	reader := csv.NewReader(bytes.NewReader(raw))
	reader.Comma = report.Delimiter
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, report, fmt.Errorf("dataset: read csv header: %w", err)
	}
	index, mapping, missing := mapColumns(header)
	report.Columns = mapping
	if len(missing) > 0 {
		return nil, report, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}
	logger.Debug("csv columns mapped", slog.String("delimiter", string(report.Delimiter)), slog.Any("columns", mapping))

	sales := make([]Sale, 0, 256)
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			report.Skipped = append(report.Skipped, RowError{Line: line, Reason: err.Error()})
			continue
		}
		sale, reason := parseRow(record, index)
		if reason != "" {
			logger.Warn("csv row skipped", slog.Int("line", line), slog.String("reason", reason))
			report.Skipped = append(report.Skipped, RowError{Line: line, Reason: reason})
			continue
		}
		sales = append(sales, sale)
	}
	report.Accepted = len(sales)
	return sales, report, nil
}

func parseRow(record []string, index map[string]int) (Sale, string) {
	field := func(col string) string {
		i := index[col]
		if i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}
	soldOn, ok := ParseDate(field(ColumnDate))
	if !ok {
		return Sale{}, "invalid date"
	}
	qty, err := decimal.NewFromString(normaliseNumber(field(ColumnQuantity)))
	if err != nil || qty.IsNegative() {
		return Sale{}, "invalid quantity"
	}
	price, err := decimal.NewFromString(normaliseNumber(field(ColumnPrice)))
	if err != nil {
		return Sale{}, "invalid price"
	}
	store := field(ColumnStore)
	product := field(ColumnProduct)
	if store == "" || product == "" {
		return Sale{}, "missing store or product"
	}
	return Sale{
		SoldOn:      soldOn,
		StoreName:   store,
		ProductName: product,
		Quantity:    qty.IntPart(),
		UnitPrice:   price,
	}, ""
}

// ParseDate accepts the date layouts found in store exports, falling back to
// the date part of a "date time" value.
func ParseDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return truncateDay(t), true
		}
	}
	if datePart, _, found := strings.Cut(value, " "); found {
		for _, layout := range []string{"2006-01-02", "02/01/2006", "01/02/2006", "02-01-2006", "02.01.2006"} {
			if t, err := time.Parse(layout, datePart); err == nil {
				return truncateDay(t), true
			}
		}
	}
	return time.Time{}, false
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func normaliseNumber(v string) string {
	v = strings.ReplaceAll(v, " ", "")
	v = strings.ReplaceAll(v, "\u00a0", "")
	return strings.ReplaceAll(v, ",", ".")
}

func detectDelimiter(raw []byte) rune {
	sample := raw
	if len(sample) > 1024 {
		sample = sample[:1024]
	}
	if bytes.Count(sample, []byte(";")) > bytes.Count(sample, []byte(",")) {
		return ';'
	}
	return ','
}

func mapColumns(header []string) (map[string]int, map[string]string, []string) {
	index := make(map[string]int, len(expectedColumns))
	mapping := make(map[string]string, len(expectedColumns))
	folded := make([]string, len(header))
	for i, h := range header {
		folded[i] = fold(h)
	}
	var missing []string
	for _, want := range expectedColumns {
		key := fold(want)
		found := -1
		for i, h := range folded {
			if h == key {
				found = i
				break
			}
		}
		if found < 0 {
			for i, h := range folded {
				if strings.Contains(h, key) {
					found = i
					break
				}
			}
		}
		if found < 0 {
			missing = append(missing, want)
			continue
		}
		index[want] = found
		mapping[want] = header[found]
	}
	return index, mapping, missing
}

func fold(s string) string {
	return strings.ToLower(norm.NFC.String(strings.TrimSpace(s)))
}

// toUTF8 decodes Windows-1252 exports; valid UTF-8 input is returned as is.
func toUTF8(raw []byte) []byte {
	if utf8.Valid(raw) {
		return raw
	}
	decoded, err := io.ReadAll(charmap.Windows1252.NewDecoder().Reader(bytes.NewReader(raw)))
	if err != nil {
		return raw
	}
	return decoded
}
