package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/salesdash/salesdash/internal/dataset"
)

// Importer loads a CSV export into the sales table.
type Importer interface {
	Import(ctx context.Context, r io.Reader) (dataset.ImportReport, error)
}

// ImportOptions defines available flags for the import command.
type ImportOptions struct {
	Path string
	// Async hands the file to the worker instead of importing in process.
	Async  bool
	Stdout io.Writer
	Stderr io.Writer
}

// ImportCommand imports the CSV at opts.Path, or enqueues it when Async is
// set. Exit code 10 means the import ran but skipped rows.
func ImportCommand(ctx context.Context, importer Importer, queue *JobsCLI, opts ImportOptions) int {
	opts.Stdout, opts.Stderr = std(opts.Stdout, opts.Stderr)
	if opts.Path == "" {
		_, _ = fmt.Fprintln(opts.Stderr, "import: a CSV path is required")
		return 1
	}
	if opts.Async {
		abs, err := filepath.Abs(opts.Path)
		if err != nil {
			_, _ = fmt.Fprintf(opts.Stderr, "import: %v\n", err)
			return 1
		}
		info, err := queue.EnqueueImport(ctx, abs)
		if err != nil {
			_, _ = fmt.Fprintf(opts.Stderr, "import: enqueue: %v\n", err)
			return 1
		}
		_, _ = fmt.Fprintf(opts.Stdout, "import queued: %s (%s)\n", info.ID, abs)
		return 0
	}
	if importer == nil {
		_, _ = fmt.Fprintln(opts.Stderr, "import: importer not configured")
		return 1
	}

	f, err := os.Open(opts.Path)
	if err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "import: %v\n", err)
		return 1
	}
	defer f.Close()

	report, err := importer.Import(ctx, f)
	if err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "import: %v\n", err)
		return 1
	}
	_, _ = fmt.Fprintf(opts.Stdout, "%d lignes importées (séparateur %q)\n", report.Accepted, report.Delimiter)
	for _, skipped := range report.Skipped {
		_, _ = fmt.Fprintf(opts.Stderr, "ligne %d ignorée: %s\n", skipped.Line, skipped.Reason)
	}
	if len(report.Skipped) > 0 {
		return 10
	}
	return 0
}
