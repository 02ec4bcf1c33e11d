package snapshot

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/salesdash/salesdash/internal/analytics"
	"github.com/salesdash/salesdash/internal/analytics/ui"
	"github.com/salesdash/salesdash/internal/dashboard"
)

// SettledExpression becomes true in the document once images and fonts are
// loaded and the first frame is laid out.
const SettledExpression = "window.layoutSettled === true"

// TimestampLayout formats the generation date on the title block.
const TimestampLayout = "02/01/2006 15:04:05"

//go:embed templates/document.html
var templateFS embed.FS

var documentTemplate = template.Must(template.ParseFS(templateFS, "templates/document.html"))

// Section kinds in document order.
const (
	SectionHeader = "header"
	SectionCharts = "charts"
	SectionTables = "tables"
)

// Rasterizer captures a chart state as an image.
type Rasterizer interface {
	Capture(ctx context.Context, state ui.ChartState) ([]byte, error)
}

// Document is the assembled export, ready for conversion.
type Document struct {
	HTML       []byte
	Assets     map[string][]byte
	Sections   []string
	PageBreaks int
}

type chartBlock struct {
	ID    string
	Title string
	Asset string
}

type tableBlock struct {
	ID      string
	Title   string
	Columns []string
	Rows    []analytics.TableRow
}

type section struct {
	Kind    string
	Metrics []ui.MetricCard
	Charts  []chartBlock
	Tables  []tableBlock
}

type documentData struct {
	Title        string
	GeneratedAt  string
	ContentWidth float64
	Sections     []section
}

// Assemble builds the export document from snap. Charts absent from the page
// and missing tables are left out; a chart that never drew exports blank.
// Sections follow the fixed order header, charts, tables, separated by one
// page break each.
func Assemble(ctx context.Context, snap dashboard.Snapshot, settings Settings, raster Rasterizer, now time.Time) (Document, error) {
	doc := Document{Assets: make(map[string][]byte)}
	data := documentData{
		Title:        settings.Title,
		GeneratedAt:  now.Format(TimestampLayout),
		ContentWidth: settings.ContentWidth(),
	}

	if settings.IncludeHeader {
		sec := section{Kind: SectionHeader}
		if snap.MetricsPresent {
			sec.Metrics = snap.Metrics
		}
		data.Sections = append(data.Sections, sec)
	}

	if settings.IncludeCharts {
		charts, err := captureCharts(ctx, snap.Charts, raster, doc.Assets)
		if err != nil {
			return Document{}, err
		}
		data.Sections = append(data.Sections, section{Kind: SectionCharts, Charts: charts})
	}

	if settings.IncludeTables {
		sec := section{Kind: SectionTables}
		for _, t := range snap.Tables {
			if !t.Present {
				continue
			}
			sec.Tables = append(sec.Tables, tableBlock{ID: string(t.ID), Title: t.Title, Columns: t.Columns, Rows: t.Rows})
		}
		data.Sections = append(data.Sections, sec)
	}

	var buf bytes.Buffer
	if err := documentTemplate.Execute(&buf, data); err != nil {
		return Document{}, fmt.Errorf("snapshot: render document: %w", err)
	}
	doc.HTML = buf.Bytes()
	for _, s := range data.Sections {
		doc.Sections = append(doc.Sections, s.Kind)
	}
	if n := len(data.Sections); n > 1 {
		doc.PageBreaks = n - 1
	}
	return doc, nil
}

// captureCharts rasterises the present charts in parallel, keeping page order.
func captureCharts(ctx context.Context, charts []dashboard.ChartSnapshot, raster Rasterizer, assets map[string][]byte) ([]chartBlock, error) {
	blocks := make([]chartBlock, 0, len(charts))
	images := make([][]byte, len(charts))
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for i, c := range charts {
		if !c.Present {
			continue
		}
		g.Go(func() error {
			img, err := raster.Capture(gctx, c.State)
			if err != nil {
				return fmt.Errorf("snapshot: capture %s: %w", c.ID, err)
			}
			mu.Lock()
			images[i] = img
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	for i, c := range charts {
		if !c.Present {
			continue
		}
		name := string(c.ID) + ".jpg"
		assets[name] = images[i]
		blocks = append(blocks, chartBlock{ID: string(c.ID), Title: c.Title, Asset: name})
	}
	return blocks, nil
}
