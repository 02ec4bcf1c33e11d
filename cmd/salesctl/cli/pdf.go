package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/salesdash/salesdash/internal/analytics/ui"
	"github.com/salesdash/salesdash/internal/dashboard"
	"github.com/salesdash/salesdash/internal/dataset"
	"github.com/salesdash/salesdash/internal/snapshot"
)

// PDFOptions defines available flags for the pdf command.
type PDFOptions struct {
	// OutDir receives the PDF, named by the export settings.
	OutDir   string
	Settings snapshot.Settings
	// Controls are control=value pairs applied before the export, in order.
	Controls []string
	Stdout   io.Writer
	Stderr   io.Writer
}

// PDFCLI runs the dashboard export without a browser session.
type PDFCLI struct {
	source   dataset.Source
	renderer ui.ChartRenderer
	exporter *snapshot.Exporter
	logger   *slog.Logger
}

// NewPDFCLI wires a headless dashboard to exporter.
func NewPDFCLI(source dataset.Source, renderer ui.ChartRenderer, exporter *snapshot.Exporter, logger *slog.Logger) *PDFCLI {
	if logger == nil {
		logger = slog.Default()
	}
	return &PDFCLI{source: source, renderer: renderer, exporter: exporter, logger: logger}
}

// PDFCommand renders the default dashboard, applies opts.Controls and
// writes the exported PDF.
func (c *PDFCLI) PDFCommand(ctx context.Context, opts PDFOptions) int {
	opts.Stdout, opts.Stderr = std(opts.Stdout, opts.Stderr)
	set, err := c.source.Load(ctx)
	if err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "pdf: load dataset: %v\n", err)
		return 1
	}
	controller := dashboard.NewController(set, dashboard.NewPage(dashboard.DefaultLayout()), c.renderer, c.logger)
	if err := controller.Init(); err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "pdf: %v\n", err)
		return 1
	}
	for _, pair := range opts.Controls {
		control, value, ok := strings.Cut(pair, "=")
		if !ok {
			_, _ = fmt.Fprintf(opts.Stderr, "pdf: control %q is not control=value\n", pair)
			return 1
		}
		if _, err := controller.Apply(dashboard.ElementID(control), value); err != nil {
			_, _ = fmt.Fprintf(opts.Stderr, "pdf: %s: %v\n", control, err)
			return 1
		}
	}

	notify := snapshot.NotifierFunc(func(_ context.Context, message string) {
		_, _ = fmt.Fprintln(opts.Stderr, message)
	})
	res, err := c.exporter.Export(ctx, controller, opts.Settings, notify)
	if err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "pdf: %v\n", err)
		return 1
	}
	name := filepath.Join(opts.OutDir, res.Filename)
	if err := writeFile(name, func(w io.Writer) error {
		_, err := w.Write(res.PDF)
		return err
	}); err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "pdf: %v\n", err)
		return 1
	}
	_, _ = fmt.Fprintln(opts.Stdout, name)
	return 0
}

// ParseSections turns a comma list of header, charts and tables into the
// section toggles of s. An empty list keeps every section.
func ParseSections(s *snapshot.Settings, list string) error {
	if strings.TrimSpace(list) == "" {
		return nil
	}
	s.IncludeHeader, s.IncludeCharts, s.IncludeTables = false, false, false
	for _, name := range strings.Split(list, ",") {
		switch strings.TrimSpace(name) {
		case "header":
			s.IncludeHeader = true
		case "charts":
			s.IncludeCharts = true
		case "tables":
			s.IncludeTables = true
		default:
			return fmt.Errorf("unknown section %q", name)
		}
	}
	return nil
}
