package dashboard

import (
	"fmt"

	"github.com/salesdash/salesdash/internal/analytics/ui"
)

// Phase is the lifecycle position of a chart handle.
type Phase int

// Chart handle phases.
const (
	PhaseUninitialized Phase = iota
	PhaseRendered
	PhaseDestroyed
)

func (p Phase) String() string {
	switch p {
	case PhaseUninitialized:
		return "uninitialized"
	case PhaseRendered:
		return "rendered"
	case PhaseDestroyed:
		return "destroyed"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// ChartHandle tracks one chart drawn on a canvas. Its kind is fixed while
// rendered; drawing a different kind destroys the handle and constructs a new
// one in its place.
type ChartHandle struct {
	phase       Phase
	state       ui.ChartState
	generations int
}

// NewChartHandle returns an uninitialised handle for the canvas id.
func NewChartHandle(id ElementID, title, seriesLabel string, colors []string) *ChartHandle {
	return &ChartHandle{state: ui.ChartState{
		ID:          string(id),
		Title:       title,
		SeriesLabel: seriesLabel,
		Colors:      colors,
	}}
}

// Draw shows labels and series as kind. It reports whether the chart was
// constructed anew (first draw or kind change) rather than updated in place.
func (h *ChartHandle) Draw(kind ui.ChartKind, labels []string, series []float64) (bool, error) {
	if !kind.Valid() {
		return false, fmt.Errorf("dashboard: chart %s: unknown kind %q", h.state.ID, kind)
	}
	if len(labels) != len(series) {
		return false, fmt.Errorf("dashboard: chart %s: %d labels for %d values", h.state.ID, len(labels), len(series))
	}
	switch h.phase {
	case PhaseRendered:
		if h.state.Kind == kind {
			h.state.Labels = append([]string(nil), labels...)
			h.state.Series = append([]float64(nil), series...)
			h.state.Revision++
			return false, nil
		}
		h.Destroy()
		h.construct(kind, labels, series)
		return true, nil
	default:
		h.construct(kind, labels, series)
		return true, nil
	}
}

func (h *ChartHandle) construct(kind ui.ChartKind, labels []string, series []float64) {
	h.state.Kind = kind
	h.state.Labels = append([]string(nil), labels...)
	h.state.Series = append([]float64(nil), series...)
	h.state.Revision = 1
	h.phase = PhaseRendered
	h.generations++
}

// Destroy releases the chart. The canvas keeps no data afterwards.
func (h *ChartHandle) Destroy() {
	if h.phase != PhaseRendered {
		return
	}
	h.state.Kind = ""
	h.state.Labels = nil
	h.state.Series = nil
	h.state.Revision = 0
	h.phase = PhaseDestroyed
}

// Phase returns the current lifecycle phase.
func (h *ChartHandle) Phase() Phase { return h.phase }

// Kind returns the rendered kind, empty unless rendered.
func (h *ChartHandle) Kind() ui.ChartKind { return h.state.Kind }

// Generations counts how many charts were constructed on this canvas.
func (h *ChartHandle) Generations() int { return h.generations }

// State returns a copy of the last drawn state.
func (h *ChartHandle) State() ui.ChartState {
	s := h.state
	s.Labels = append([]string(nil), h.state.Labels...)
	s.Series = append([]float64(nil), h.state.Series...)
	return s
}
