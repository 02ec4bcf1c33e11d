package svg

import (
	"strings"
	"testing"
)

func TestLineProducesSVG(t *testing.T) {
	html, err := Line(400, 200, []float64{6833.99, 7996.8, 15858.23}, []string{"01/2022", "02/2022", "03/2022"}, LineOpts{
		Title:       "Évolution des ventes",
		Description: "Ventes mensuelles",
		ShowDots:    true,
	})
	if err != nil {
		t.Fatalf("line renderer error: %v", err)
	}
	output := string(html)
	if !strings.HasPrefix(output, "<svg") {
		t.Fatalf("expected svg output, got %s", output)
	}
	if !strings.Contains(output, "<path") {
		t.Fatalf("expected path element in svg")
	}
	if !strings.Contains(output, "aria-labelledby") {
		t.Fatalf("expected accessibility attributes")
	}
	if strings.Count(output, "<circle") != 3 {
		t.Fatalf("expected a dot per point")
	}
}

func TestLineThinsCrowdedLabels(t *testing.T) {
	series := make([]float64, 96)
	labels := make([]string, 96)
	for i := range series {
		series[i] = float64(i)
		labels[i] = "lbl"
	}
	html, err := Line(400, 200, series, labels, LineOpts{})
	if err != nil {
		t.Fatalf("line renderer error: %v", err)
	}
	if n := strings.Count(string(html), ">lbl<"); n >= 96 || n == 0 {
		t.Fatalf("expected thinned labels, got %d", n)
	}
}

func TestLineSinglePointCentred(t *testing.T) {
	html, err := Line(200, 100, []float64{5}, []string{"2023"}, LineOpts{})
	if err != nil {
		t.Fatalf("line renderer error: %v", err)
	}
	if !strings.Contains(string(html), "M100.00") {
		t.Fatalf("expected centred point, got %s", html)
	}
}
