package svg

import "html/template"

// Renderer exposes the package renderers as methods so handlers can depend
// on interfaces.
type Renderer struct{}

// Line renders a line chart.
func (Renderer) Line(width, height int, series []float64, labels []string, opts LineOpts) (template.HTML, error) {
	return Line(width, height, series, labels, opts)
}

// Bars renders a bar chart.
func (Renderer) Bars(width, height int, series []float64, labels []string, opts BarOpts) (template.HTML, error) {
	return Bars(width, height, series, labels, opts)
}

// Pie renders a pie or doughnut chart.
func (Renderer) Pie(width, height int, series []float64, labels []string, opts PieOpts) (template.HTML, error) {
	return Pie(width, height, series, labels, opts)
}
