package dashboard

import (
	"github.com/salesdash/salesdash/internal/analytics"
	"github.com/salesdash/salesdash/internal/analytics/ui"
)

// ChartSnapshot is the exported view of one chart. Present is false when the
// canvas is not on the page.
type ChartSnapshot struct {
	ID      ElementID
	Title   string
	Present bool
	Phase   Phase
	State   ui.ChartState
}

// TableSnapshot carries every row of a table in display order, hidden rows
// included.
type TableSnapshot struct {
	ID      ElementID
	Title   string
	Present bool
	Columns []string
	Rows    []analytics.TableRow
}

// Snapshot is a point-in-time copy of what the dashboard shows.
type Snapshot struct {
	Options        ViewOptions
	MetricsPresent bool
	Metrics        []ui.MetricCard
	Charts         []ChartSnapshot
	Tables         []TableSnapshot
}

// Snapshot copies the current metrics, chart states and table rows. Later
// option changes do not affect the returned value.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{
		Options:        c.opts,
		MetricsPresent: c.page.Has(MetricsRow),
		Metrics:        c.metrics(),
	}
	for _, id := range ChartIDs {
		h := c.charts[id]
		state := h.State()
		snap.Charts = append(snap.Charts, ChartSnapshot{
			ID:      id,
			Title:   state.Title,
			Present: c.page.Has(id),
			Phase:   h.Phase(),
			State:   state,
		})
	}
	for _, id := range TableIDs {
		w := c.tableWidget(id)
		snap.Tables = append(snap.Tables, TableSnapshot{
			ID:      id,
			Title:   w.Title,
			Present: w.Present,
			Columns: append([]string(nil), w.Columns...),
			Rows:    w.Rows,
		})
	}
	return snap
}
