package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"testing"
	"time"

	"golang.org/x/text/language"

	"github.com/salesdash/salesdash/internal/analytics"
	"github.com/salesdash/salesdash/internal/dataset"
)

func loadSample(t *testing.T) *dataset.SalesRecordSet {
	t.Helper()
	set, err := dataset.EmbeddedSource{}.Load(context.Background())
	if err != nil {
		t.Fatalf("load sample: %v", err)
	}
	return set
}

func readCSV(t *testing.T, buf *bytes.Buffer) [][]string {
	t.Helper()
	records, err := csv.NewReader(bytes.NewReader(buf.Bytes())).ReadAll()
	if err != nil {
		t.Fatalf("csv read error: %v", err)
	}
	return records
}

func TestWriteStoresCSV(t *testing.T) {
	buf := &bytes.Buffer{}
	if err := WriteStoresCSV(buf, loadSample(t)); err != nil {
		t.Fatalf("stores csv error: %v", err)
	}
	records := readCSV(t, buf)
	if len(records) != 6 {
		t.Fatalf("expected header + 5 stores, got %d", len(records))
	}
	if records[1][0] != "Magasin_3" || records[1][1] != "63952.72" {
		t.Fatalf("unexpected first row %v", records[1])
	}
}

func TestWriteTrendCSVWeekly(t *testing.T) {
	buf := &bytes.Buffer{}
	if err := WriteTrendCSV(buf, loadSample(t), analytics.Weekly); err != nil {
		t.Fatalf("trend csv error: %v", err)
	}
	records := readCSV(t, buf)
	if len(records) != 1+24*4 {
		t.Fatalf("expected 96 weekly rows, got %d", len(records)-1)
	}
	if records[1][0] != "2022-01-W1" {
		t.Fatalf("unexpected first key %s", records[1][0])
	}
}

func TestWriteTableCSVSkipsHiddenRows(t *testing.T) {
	set := loadSample(t)
	rows := analytics.FilterTableRows(analytics.StoreRows(set, analytics.SortNameAsc, analytics.NewFormatter(language.French)), "magasin_2")
	buf := &bytes.Buffer{}
	if err := WriteTableCSV(buf, analytics.StoreColumns, rows); err != nil {
		t.Fatalf("table csv error: %v", err)
	}
	records := readCSV(t, buf)
	if len(records) != 2 || records[1][0] != "Magasin_2" {
		t.Fatalf("expected only Magasin_2, got %v", records)
	}
}

func TestBuildReportJSON(t *testing.T) {
	now := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	report := BuildReport(loadSample(t), now)
	if report.GeneratedAt != "2024-03-01 09:30:00" {
		t.Fatalf("unexpected generation date %s", report.GeneratedAt)
	}
	if len(report.MonthlyTrend) != 24 || len(report.Products) != 10 {
		t.Fatalf("unexpected report sizes")
	}

	buf := &bytes.Buffer{}
	if err := WriteReportJSON(buf, report); err != nil {
		t.Fatalf("report json error: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if decoded["total_sales"].(float64) != 262475.71 {
		t.Fatalf("unexpected total %v", decoded["total_sales"])
	}
}

func TestCSVSectionsWriteEverySection(t *testing.T) {
	sections := CSVSections(loadSample(t))
	if len(sections) != 4 {
		t.Fatalf("expected 4 sections, got %d", len(sections))
	}
	for _, section := range sections {
		buf := &bytes.Buffer{}
		if err := section.Write(buf); err != nil {
			t.Fatalf("section %s: %v", section.Name, err)
		}
		if len(readCSV(t, buf)) < 2 {
			t.Fatalf("section %s has no rows", section.Name)
		}
	}
}
