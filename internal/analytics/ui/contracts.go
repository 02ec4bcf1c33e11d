package ui

import (
	"fmt"
	"html/template"

	"github.com/salesdash/salesdash/internal/analytics"
	"github.com/salesdash/salesdash/internal/analytics/svg"
)

// ChartKind is the visual type of a chart. A chart handle cannot change kind
// in place; switching kind destroys and recreates it.
type ChartKind string

// Chart kinds offered by the dashboard.
const (
	KindLine     ChartKind = "line"
	KindBar      ChartKind = "bar"
	KindPie      ChartKind = "pie"
	KindDoughnut ChartKind = "doughnut"
)

// Valid reports whether k is a known chart kind.
func (k ChartKind) Valid() bool {
	switch k {
	case KindLine, KindBar, KindPie, KindDoughnut:
		return true
	}
	return false
}

// ChartState is the last data a chart was drawn with.
type ChartState struct {
	ID          string
	Title       string
	SeriesLabel string
	Kind        ChartKind
	Labels      []string
	Series      []float64
	Colors      []string
	Revision    int
}

// Empty reports whether the chart has never received data.
func (s ChartState) Empty() bool {
	return len(s.Series) == 0
}

// MetricCard is one headline figure above the charts.
type MetricCard struct {
	ID    string
	Label string
	Value string
}

// ChartWidget is a chart ready for the template.
type ChartWidget struct {
	ID       string
	Title    string
	Kind     ChartKind
	Revision int
	SVG      template.HTML
	Present  bool
}

// TableWidget is a table ready for the template.
type TableWidget struct {
	ID      string
	Title   string
	Columns []string
	Rows    []analytics.TableRow
	Present bool
}

// Option is one entry of a select control.
type Option struct {
	Value    string
	Label    string
	Selected bool
}

// Control is a select or search input bound to one view option.
type Control struct {
	ID      string
	Label   string
	Value   string
	Options []Option
}

// DashboardViewModel combines all dashboard data for rendering.
type DashboardViewModel struct {
	Metrics  []MetricCard
	Charts   []ChartWidget
	Tables   []TableWidget
	Controls map[string]Control
}

// LineRenderer abstracts SVG line chart rendering for the dashboard.
type LineRenderer interface {
	Line(width, height int, series []float64, labels []string, opts svg.LineOpts) (template.HTML, error)
}

// BarRenderer abstracts SVG bar chart rendering for the dashboard.
type BarRenderer interface {
	Bars(width, height int, series []float64, labels []string, opts svg.BarOpts) (template.HTML, error)
}

// PieRenderer abstracts SVG pie and doughnut rendering for the dashboard.
type PieRenderer interface {
	Pie(width, height int, series []float64, labels []string, opts svg.PieOpts) (template.HTML, error)
}

// ChartRenderer draws every chart kind.
type ChartRenderer interface {
	LineRenderer
	BarRenderer
	PieRenderer
}

// RenderChart draws state with the renderer matching its kind.
func RenderChart(r ChartRenderer, state ChartState, width, height int) (template.HTML, error) {
	switch state.Kind {
	case KindLine:
		return r.Line(width, height, state.Series, state.Labels, svg.LineOpts{
			Title:       state.Title,
			Description: state.SeriesLabel,
			StrokeColor: svg.PaletteColor(state.Colors, 0),
			ShowDots:    len(state.Series) <= 60,
		})
	case KindBar:
		return r.Bars(width, height, state.Series, state.Labels, svg.BarOpts{
			Title:       state.Title,
			SeriesLabel: state.SeriesLabel,
			Colors:      state.Colors,
		})
	case KindPie, KindDoughnut:
		opts := svg.PieOpts{Title: state.Title, Description: state.SeriesLabel, Colors: state.Colors}
		if state.Kind == KindDoughnut {
			opts.Hole = svg.DoughnutHole
		}
		return r.Pie(width, height, state.Series, state.Labels, opts)
	default:
		return "", fmt.Errorf("ui: unknown chart kind %q", state.Kind)
	}
}
