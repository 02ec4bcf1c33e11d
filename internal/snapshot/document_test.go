package snapshot

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/salesdash/salesdash/internal/analytics/svg"
	"github.com/salesdash/salesdash/internal/analytics/ui"
	"github.com/salesdash/salesdash/internal/dashboard"
	"github.com/salesdash/salesdash/internal/dataset"
)

var fixedNow = time.Date(2024, 3, 5, 14, 30, 0, 0, time.UTC)

type fakeRasterizer struct {
	mu       sync.Mutex
	captured []ui.ChartState
	err      error
}

func (f *fakeRasterizer) Capture(_ context.Context, state ui.ChartState) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.captured = append(f.captured, state)
	return []byte("jpeg:" + state.ID), nil
}

func (f *fakeRasterizer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.captured)
}

func newController(t *testing.T, layout dashboard.Layout) *dashboard.Controller {
	t.Helper()
	set, err := dataset.EmbeddedSource{}.Load(context.Background())
	require.NoError(t, err)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	c := dashboard.NewController(set, dashboard.NewPage(layout), svg.Renderer{}, logger)
	require.NoError(t, c.Init())
	return c
}

func TestAssembleAllSections(t *testing.T) {
	c := newController(t, dashboard.DefaultLayout())
	raster := &fakeRasterizer{}

	doc, err := Assemble(context.Background(), c.Snapshot(), DefaultSettings(), raster, fixedNow)
	require.NoError(t, err)
	require.Equal(t, []string{SectionHeader, SectionCharts, SectionTables}, doc.Sections)
	require.Equal(t, 2, doc.PageBreaks)

	html := string(doc.HTML)
	require.Equal(t, 2, strings.Count(html, `class="page-break"`))
	require.Contains(t, html, "Tableau de Bord des Ventes")
	require.Contains(t, html, "Date d'exportation: 05/03/2024 14:30:00")
	require.Contains(t, html, `class="metrics-row"`)
	require.Contains(t, html, "Graphiques d'analyse")
	require.Contains(t, html, "Tableaux de données")
	require.Contains(t, html, `id="storesTable"`)

	require.Len(t, doc.Assets, len(dashboard.ChartIDs))
	for _, id := range dashboard.ChartIDs {
		name := string(id) + ".jpg"
		require.Equal(t, []byte("jpeg:"+string(id)), doc.Assets[name])
		require.Contains(t, html, `src="`+name+`"`)
	}
	require.Equal(t, len(dashboard.ChartIDs), raster.count())
}

func TestAssembleChartOrderFollowsPage(t *testing.T) {
	c := newController(t, dashboard.DefaultLayout())
	doc, err := Assemble(context.Background(), c.Snapshot(), DefaultSettings(), &fakeRasterizer{}, fixedNow)
	require.NoError(t, err)

	html := string(doc.HTML)
	last := -1
	for _, id := range dashboard.ChartIDs {
		at := strings.Index(html, string(id)+".jpg")
		require.Greater(t, at, last, string(id))
		last = at
	}
}

func TestAssembleSectionToggles(t *testing.T) {
	c := newController(t, dashboard.DefaultLayout())
	raster := &fakeRasterizer{}

	settings := DefaultSettings()
	settings.IncludeCharts = false
	doc, err := Assemble(context.Background(), c.Snapshot(), settings, raster, fixedNow)
	require.NoError(t, err)
	require.Equal(t, []string{SectionHeader, SectionTables}, doc.Sections)
	require.Equal(t, 1, doc.PageBreaks)
	require.Empty(t, doc.Assets)
	require.Zero(t, raster.count())
	require.NotContains(t, string(doc.HTML), "Graphiques d'analyse")

	settings.IncludeHeader, settings.IncludeTables = false, false
	doc, err = Assemble(context.Background(), c.Snapshot(), settings, raster, fixedNow)
	require.NoError(t, err)
	require.Empty(t, doc.Sections)
	require.Zero(t, doc.PageBreaks)
	require.Contains(t, string(doc.HTML), "Tableau de Bord des Ventes")
}

func TestAssembleSkipsMissingWidgets(t *testing.T) {
	layout := dashboard.DefaultLayout().Without(dashboard.ProductsChart, dashboard.ProductsTable, dashboard.MetricsRow)
	c := newController(t, layout)

	doc, err := Assemble(context.Background(), c.Snapshot(), DefaultSettings(), &fakeRasterizer{}, fixedNow)
	require.NoError(t, err)
	require.Equal(t, 2, doc.PageBreaks)
	require.Len(t, doc.Assets, len(dashboard.ChartIDs)-1)
	require.NotContains(t, doc.Assets, string(dashboard.ProductsChart)+".jpg")

	html := string(doc.HTML)
	require.NotContains(t, html, `id="productsTable"`)
	require.Contains(t, html, `id="storesTable"`)
	require.NotContains(t, html, `class="metric-card"`)
}

func TestAssembleKeepsHiddenRowsHidden(t *testing.T) {
	c := newController(t, dashboard.DefaultLayout())
	_, err := c.Apply(dashboard.StoreSearch, "magasin_1")
	require.NoError(t, err)

	doc, err := Assemble(context.Background(), c.Snapshot(), DefaultSettings(), &fakeRasterizer{}, fixedNow)
	require.NoError(t, err)

	html := string(doc.HTML)
	start := strings.Index(html, `id="storesTable"`)
	end := strings.Index(html[start:], "</table>")
	table := html[start : start+end]
	require.Equal(t, 4, strings.Count(table, `class="is-hidden"`))
	require.Equal(t, 6, strings.Count(table, "<tr"))
	require.Contains(t, table, "Magasin_1")
}

func TestAssemblePropagatesCaptureError(t *testing.T) {
	c := newController(t, dashboard.DefaultLayout())
	boom := errors.New("canvas tainted")
	_, err := Assemble(context.Background(), c.Snapshot(), DefaultSettings(), &fakeRasterizer{err: boom}, fixedNow)
	require.ErrorIs(t, err, boom)
}
