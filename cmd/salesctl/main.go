// Command salesctl runs the operator tasks of the sales dashboard: CSV
// import, full report, dataset dump and headless PDF export.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/salesdash/salesdash/cmd/salesctl/cli"
	"github.com/salesdash/salesdash/internal/analytics/raster"
	"github.com/salesdash/salesdash/internal/analytics/svg"
	"github.com/salesdash/salesdash/internal/app"
	"github.com/salesdash/salesdash/internal/dataset"
	"github.com/salesdash/salesdash/internal/platform/cache"
	"github.com/salesdash/salesdash/internal/platform/db"
	"github.com/salesdash/salesdash/internal/snapshot"
	"github.com/salesdash/salesdash/jobs"
	"github.com/salesdash/salesdash/report"
)

const usage = `usage: salesctl <command> [flags]

commands:
  import   <file.csv> [-async]          load a sales CSV export into postgres
  report   [-format json|csv] [-out dir] write the full sales report
           [-from date] [-to date] [-store a,b] [-product a,b]
                                         restrict the report (postgres source only)
  dump     [-out file.json]              write the dashboard dataset file
  pdf      [-out dir] [flags]            export the dashboard to PDF
  jobs     warmup|stats                  queue helpers
`

// controlFlags collects repeated -set control=value flags.
type controlFlags []string

func (c *controlFlags) String() string { return strings.Join(*c, ",") }

func (c *controlFlags) Set(v string) error {
	*c = append(*c, v)
	return nil
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		_, _ = fmt.Fprint(stderr, usage)
		return 2
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "load config: %v\n", err)
		return 1
	}
	logger := app.NewLogger(cfg)

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "import":
		return runImport(ctx, cfg, logger, rest, stdout, stderr)
	case "report", "dump":
		return runData(ctx, cfg, logger, cmd, rest, stdout, stderr)
	case "pdf":
		return runPDF(ctx, cfg, logger, rest, stdout, stderr)
	case "jobs":
		return runJobs(ctx, cfg, rest, stdout, stderr)
	default:
		_, _ = fmt.Fprintf(stderr, "unknown command %q\n%s", cmd, usage)
		return 2
	}
}

func runImport(ctx context.Context, cfg *app.Config, logger *slog.Logger, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	fs.SetOutput(stderr)
	async := fs.Bool("async", false, "enqueue the import for the worker")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	opts := cli.ImportOptions{Path: fs.Arg(0), Async: *async, Stdout: stdout, Stderr: stderr}
	if opts.Async {
		queue := cli.NewJobsCLI(cfg.RedisAddr)
		defer queue.Close()
		return cli.ImportCommand(ctx, nil, queue, opts)
	}

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "import: %v\n", err)
		return 1
	}
	defer pool.Close()

	// Without redis the import still runs; the cache just expires on its own.
	var invalidator dataset.Invalidator
	if client, err := cache.New(ctx, cfg.RedisAddr); err != nil {
		logger.Warn("redis unavailable, dataset cache not invalidated", slog.Any("error", err))
	} else {
		defer client.Close()
		source, name, _ := app.DatasetSource(cfg, pool)
		invalidator = cachedSource(cfg, source, name, client, logger)
	}
	importer := dataset.NewImporter(dataset.NewRepository(pool), invalidator, logger)
	return cli.ImportCommand(ctx, importer, nil, opts)
}

func runData(ctx context.Context, cfg *app.Config, logger *slog.Logger, cmd string, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	fs.SetOutput(stderr)
	out := fs.String("out", "", "output directory (report) or file (dump)")
	format := fs.String("format", "json", "report format: json or csv")
	from := fs.String("from", "", "first sale date included (postgres source only)")
	to := fs.String("to", "", "last sale date included (postgres source only)")
	stores := fs.String("store", "", "comma list of stores to keep (postgres source only)")
	products := fs.String("product", "", "comma list of products to keep (postgres source only)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	filter, err := cli.ParseFilter(*from, *to, *stores, *products)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "%s: %v\n", cmd, err)
		return 2
	}

	var (
		source  dataset.Source
		closeFn func()
	)
	if filter.IsZero() {
		source, closeFn, err = openSource(ctx, cfg, logger)
	} else {
		source, closeFn, err = openFilteredSource(ctx, cfg, filter)
	}
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "%s: %v\n", cmd, err)
		return 1
	}
	defer closeFn()

	data := cli.NewDataCLI(source)
	if cmd == "dump" {
		return data.DumpCommand(ctx, cli.DumpOptions{Out: *out, Stdout: stdout, Stderr: stderr})
	}
	return data.ReportCommand(ctx, cli.ReportOptions{Format: *format, OutDir: *out, Stdout: stdout, Stderr: stderr})
}

func runPDF(ctx context.Context, cfg *app.Config, logger *slog.Logger, args []string, stdout, stderr io.Writer) int {
	settings := snapshot.DefaultSettings()
	var controls controlFlags
	fs := flag.NewFlagSet("pdf", flag.ContinueOnError)
	fs.SetOutput(stderr)
	out := fs.String("out", ".", "output directory")
	fs.StringVar(&settings.Filename, "filename", settings.Filename, "PDF file name")
	orientation := fs.String("orientation", string(settings.Orientation), "portrait or landscape")
	pageSize := fs.String("page-size", string(settings.PageSize), "a4, a3, letter or legal")
	margin := fs.String("margin", "", "margin in mm applied to every side")
	sections := fs.String("sections", "", "comma list of header, charts, tables")
	fs.StringVar(&settings.Title, "title", settings.Title, "document title")
	fs.StringVar(&settings.DateRange, "date-range", "", "period label, also names the file when -filename is unset")
	fs.Var(&controls, "set", "control=value applied before export (repeatable)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	settings.Orientation = snapshot.Orientation(*orientation)
	settings.PageSize = snapshot.PageSize(*pageSize)
	if *margin != "" {
		mm, err := strconv.ParseFloat(strings.Replace(*margin, ",", ".", 1), 64)
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "pdf: margin: %v\n", err)
			return 2
		}
		settings.Margins = [4]float64{mm, mm, mm, mm}
	}
	if err := cli.ParseSections(&settings, *sections); err != nil {
		_, _ = fmt.Fprintf(stderr, "pdf: %v\n", err)
		return 2
	}
	if settings.DateRange != "" && settings.Filename == snapshot.DefaultFilename {
		settings.Filename = snapshot.FilenameFor(settings.DateRange)
	}

	source, closeFn, err := openSource(ctx, cfg, logger)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "pdf: %v\n", err)
		return 1
	}
	defer closeFn()

	exporter := snapshot.NewExporter(snapshot.Config{
		Converter:     report.NewClient(cfg.GotenbergURL, cfg.ExportTimeout),
		Rasterizer:    raster.NewCapturer(raster.Options{Scale: cfg.ExportRasterScale, Quality: cfg.ExportImageQuality}, logger),
		SettleTimeout: cfg.ExportSettleTimeout,
		Logger:        logger,
	})
	pdf := cli.NewPDFCLI(source, svg.Renderer{}, exporter, logger)
	return pdf.PDFCommand(ctx, cli.PDFOptions{OutDir: *out, Settings: settings, Controls: controls, Stdout: stdout, Stderr: stderr})
}

func runJobs(ctx context.Context, cfg *app.Config, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		_, _ = fmt.Fprint(stderr, usage)
		return 2
	}
	queue := cli.NewJobsCLI(cfg.RedisAddr)
	defer queue.Close()
	switch args[0] {
	case "warmup":
		info, err := queue.Trigger(ctx, jobs.TaskDatasetWarmup)
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "jobs: %v\n", err)
			return 1
		}
		_, _ = fmt.Fprintf(stdout, "warmup queued: %s\n", info.ID)
	case "stats":
		stats, err := queue.InspectQueue()
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "jobs: %v\n", err)
			return 1
		}
		_, _ = fmt.Fprintf(stdout, "queue=%s pending=%d active=%d scheduled=%d retry=%d\n",
			stats.Queue, stats.Pending, stats.Active, stats.Scheduled, stats.Retry)
	default:
		_, _ = fmt.Fprintf(stderr, "jobs: unknown action %q\n", args[0])
		return 2
	}
	return 0
}

// openSource returns the configured dataset behind the redis cache when redis
// answers, or the raw source otherwise.
func openSource(ctx context.Context, cfg *app.Config, logger *slog.Logger) (dataset.Source, func(), error) {
	var pool *pgxpool.Pool
	closers := []func(){}
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	if cfg.NeedsPostgres() {
		p, err := db.New(ctx, cfg.PGDSN)
		if err != nil {
			return nil, closeAll, err
		}
		pool = p
		closers = append(closers, p.Close)
	}
	source, name, err := app.DatasetSource(cfg, pool)
	if err != nil {
		closeAll()
		return nil, func() {}, err
	}
	client, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Debug("redis unavailable, reading dataset directly", slog.Any("error", err))
		return source, closeAll, nil
	}
	closers = append(closers, func() { _ = client.Close() })
	return cachedSource(cfg, source, name, client, logger), closeAll, nil
}

// openFilteredSource aggregates the sales table under filter. Filtered sets
// skip the dataset cache, which only holds the unfiltered dashboard data.
func openFilteredSource(ctx context.Context, cfg *app.Config, filter dataset.Filter) (dataset.Source, func(), error) {
	if cfg.DatasetSource != app.DatasetPostgres {
		return nil, func() {}, fmt.Errorf("filters need DATASET_SOURCE=%s, got %q", app.DatasetPostgres, cfg.DatasetSource)
	}
	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		return nil, func() {}, err
	}
	return dataset.NewRepository(pool).WithFilter(filter), pool.Close, nil
}

func cachedSource(cfg *app.Config, source dataset.Source, name string, client *redis.Client, logger *slog.Logger) *dataset.Service {
	return dataset.NewService(source, name, dataset.NewCache(client, cfg.DatasetCacheTTL), logger)
}
