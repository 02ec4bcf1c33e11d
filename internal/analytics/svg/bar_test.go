package svg

import (
	"strings"
	"testing"
)

func TestBarsProducesSVG(t *testing.T) {
	html, err := Bars(420, 220, []float64{63952.72, 61783.76}, []string{"Magasin_3", "Magasin_1"}, BarOpts{
		Title:       "Ventes par magasin",
		Description: "Top magasins",
		SeriesLabel: "Ventes",
	})
	if err != nil {
		t.Fatalf("bars renderer error: %v", err)
	}
	output := string(html)
	if !strings.HasPrefix(output, "<svg") {
		t.Fatalf("expected svg output, got %s", output)
	}
	if strings.Count(output, "<rect") != 2 {
		t.Fatalf("expected one rect per store")
	}
	if !strings.Contains(output, Palette[0]) || !strings.Contains(output, Palette[1]) {
		t.Fatalf("expected palette colours per bar")
	}
	if !strings.Contains(output, "64.0k") {
		t.Fatalf("expected abbreviated tick label")
	}
}

func TestBarsRejectsMismatchedLabels(t *testing.T) {
	if _, err := Bars(420, 220, []float64{1, 2}, []string{"a"}, BarOpts{}); err == nil {
		t.Fatalf("expected error for mismatched labels")
	}
}

func TestBarsCyclesCustomColors(t *testing.T) {
	html, err := Bars(0, 0, []float64{1, 2, 3}, []string{"a", "b", "c"}, BarOpts{Colors: []string{"#111111", "#222222"}})
	if err != nil {
		t.Fatalf("bars renderer error: %v", err)
	}
	if strings.Count(string(html), "#111111") < 2 {
		t.Fatalf("expected first colour reused for third bar")
	}
}
