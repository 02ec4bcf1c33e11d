package ui

import (
	"html/template"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/salesdash/salesdash/internal/analytics/svg"
)

type recordingRenderer struct {
	called string
	hole   float64
}

func (r *recordingRenderer) Line(int, int, []float64, []string, svg.LineOpts) (template.HTML, error) {
	r.called = "line"
	return "<svg/>", nil
}

func (r *recordingRenderer) Bars(int, int, []float64, []string, svg.BarOpts) (template.HTML, error) {
	r.called = "bar"
	return "<svg/>", nil
}

func (r *recordingRenderer) Pie(_ int, _ int, _ []float64, _ []string, opts svg.PieOpts) (template.HTML, error) {
	r.called = "pie"
	r.hole = opts.Hole
	return "<svg/>", nil
}

func TestRenderChartDispatchesByKind(t *testing.T) {
	cases := map[ChartKind]string{
		KindLine:     "line",
		KindBar:      "bar",
		KindPie:      "pie",
		KindDoughnut: "pie",
	}
	for kind, want := range cases {
		r := &recordingRenderer{}
		_, err := RenderChart(r, ChartState{Kind: kind, Series: []float64{1}, Labels: []string{"a"}}, 0, 0)
		require.NoError(t, err)
		require.Equal(t, want, r.called, string(kind))
		if kind == KindDoughnut {
			require.Equal(t, svg.DoughnutHole, r.hole)
		}
	}

	_, err := RenderChart(&recordingRenderer{}, ChartState{Kind: "radar"}, 0, 0)
	require.Error(t, err)
	require.False(t, ChartKind("radar").Valid())
}

func TestRenderChartWithSVGRenderer(t *testing.T) {
	html, err := RenderChart(svg.Renderer{}, ChartState{Kind: KindBar, Series: []float64{1, 2}, Labels: []string{"a", "b"}}, 300, 150)
	require.NoError(t, err)
	require.Contains(t, string(html), "<rect")
}
