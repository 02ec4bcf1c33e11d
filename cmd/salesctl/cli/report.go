package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/salesdash/salesdash/internal/analytics/export"
	"github.com/salesdash/salesdash/internal/dataset"
)

// DataCLI offers the read-only commands over the configured dataset.
type DataCLI struct {
	source dataset.Source
	now    func() time.Time
}

// NewDataCLI constructs the helper around source.
func NewDataCLI(source dataset.Source) *DataCLI {
	return &DataCLI{source: source, now: time.Now}
}

// ReportOptions defines available flags for the report command.
type ReportOptions struct {
	// Format is json or csv.
	Format string
	// OutDir receives the files; empty writes JSON to Stdout. CSV needs a directory.
	OutDir string
	Stdout io.Writer
	Stderr io.Writer
}

// ReportCommand writes the full sales report.
func (c *DataCLI) ReportCommand(ctx context.Context, opts ReportOptions) int {
	opts.Stdout, opts.Stderr = std(opts.Stdout, opts.Stderr)
	set, err := c.source.Load(ctx)
	if err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "report: load dataset: %v\n", err)
		return 1
	}
	now := c.now()
	switch opts.Format {
	case "", "json":
		if opts.OutDir == "" {
			if err := export.WriteReportJSON(opts.Stdout, export.BuildReport(set, now)); err != nil {
				_, _ = fmt.Fprintf(opts.Stderr, "report: %v\n", err)
				return 1
			}
			return 0
		}
		name := filepath.Join(opts.OutDir, "rapport_ventes_"+now.Format("20060102_150405")+".json")
		err = writeFile(name, func(w io.Writer) error { return export.WriteReportJSON(w, export.BuildReport(set, now)) })
		if err != nil {
			_, _ = fmt.Fprintf(opts.Stderr, "report: %v\n", err)
			return 1
		}
		_, _ = fmt.Fprintln(opts.Stdout, name)
	case "csv":
		if opts.OutDir == "" {
			_, _ = fmt.Fprintln(opts.Stderr, "report: --out is required for csv")
			return 1
		}
		for _, section := range export.CSVSections(set) {
			name := filepath.Join(opts.OutDir, section.Name+".csv")
			if err := writeFile(name, section.Write); err != nil {
				_, _ = fmt.Fprintf(opts.Stderr, "report: %v\n", err)
				return 1
			}
			_, _ = fmt.Fprintln(opts.Stdout, name)
		}
	default:
		_, _ = fmt.Fprintf(opts.Stderr, "report: unknown format %q (expected json or csv)\n", opts.Format)
		return 1
	}
	return 0
}

// DumpOptions defines available flags for the dump command.
type DumpOptions struct {
	// Out is the dataset file to write; empty writes to Stdout.
	Out    string
	Stdout io.Writer
	Stderr io.Writer
}

// DumpCommand writes the record set in the dashboard's dataset format, so
// the server can run with DATASET_SOURCE=file.
func (c *DataCLI) DumpCommand(ctx context.Context, opts DumpOptions) int {
	opts.Stdout, opts.Stderr = std(opts.Stdout, opts.Stderr)
	set, err := c.source.Load(ctx)
	if err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "dump: load dataset: %v\n", err)
		return 1
	}
	if opts.Out == "" {
		if err := dataset.Encode(opts.Stdout, set); err != nil {
			_, _ = fmt.Fprintf(opts.Stderr, "dump: %v\n", err)
			return 1
		}
		return 0
	}
	if err := writeFile(opts.Out, func(w io.Writer) error { return dataset.Encode(w, set) }); err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "dump: %v\n", err)
		return 1
	}
	_, _ = fmt.Fprintln(opts.Stdout, opts.Out)
	return 0
}

func std(stdout, stderr io.Writer) (io.Writer, io.Writer) {
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	return stdout, stderr
}

// writeFile creates name and its parent directory, then lets write fill it.
func writeFile(name string, write func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(name), 0o755); err != nil {
		return err
	}
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", name, err)
	}
	return f.Close()
}

// ParseFilter builds a report filter from the command line values. Dates take
// any layout the CSV import accepts; stores and products are comma lists.
func ParseFilter(from, to, stores, products string) (dataset.Filter, error) {
	var f dataset.Filter
	if from != "" {
		t, ok := dataset.ParseDate(from)
		if !ok {
			return f, fmt.Errorf("invalid -from date %q", from)
		}
		f.From = t
	}
	if to != "" {
		t, ok := dataset.ParseDate(to)
		if !ok {
			return f, fmt.Errorf("invalid -to date %q", to)
		}
		f.To = t
	}
	if !f.From.IsZero() && !f.To.IsZero() && f.From.After(f.To) {
		return f, fmt.Errorf("-from %s is after -to %s", f.From.Format(time.DateOnly), f.To.Format(time.DateOnly))
	}
	f.Stores = splitList(stores)
	f.Products = splitList(products)
	return f, nil
}

func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
