package jobmetrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("read counter: %v", err)
	}
	return m.GetCounter().GetValue()
}

func TestTrackerRecordsOutcome(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	if err := m.Track("sales_import").End(nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	boom := errors.New("boom")
	if err := m.Track("sales_import").End(boom); !errors.Is(err, boom) {
		t.Fatalf("expected error passthrough, got %v", err)
	}

	if got := counterValue(t, m.runs.WithLabelValues("sales_import", "success")); got != 1 {
		t.Fatalf("expected 1 success, got %v", got)
	}
	if got := counterValue(t, m.failures.WithLabelValues("sales_import")); got != 1 {
		t.Fatalf("expected 1 failure, got %v", got)
	}
}

func TestAddImportedRows(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	m.AddImportedRows(120, 3)
	m.AddImportedRows(0, 2)

	if got := counterValue(t, m.rows.WithLabelValues("inserted")); got != 120 {
		t.Fatalf("expected 120 inserted, got %v", got)
	}
	if got := counterValue(t, m.rows.WithLabelValues("skipped")); got != 5 {
		t.Fatalf("expected 5 skipped, got %v", got)
	}
}

func TestNilTrackerIsNoop(t *testing.T) {
	var m *Metrics
	m.AddImportedRows(1, 1)
	if err := m.Track("noop").End(nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
