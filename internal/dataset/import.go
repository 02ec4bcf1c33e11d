package dataset

import (
	"context"
	"fmt"
	"io"
	"log/slog"
)

// SalesStore persists imported sales lines.
type SalesStore interface {
	EnsureSchema(ctx context.Context) error
	InsertSales(ctx context.Context, rows []Sale) (int, error)
}

// Invalidator drops cached record sets after new data lands.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// Importer loads CSV exports into the sales table.
type Importer struct {
	store       SalesStore
	invalidator Invalidator
	logger      *slog.Logger
}

// NewImporter constructs an Importer. invalidator may be nil.
func NewImporter(store SalesStore, invalidator Invalidator, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{store: store, invalidator: invalidator, logger: logger}
}

// Import parses r and inserts every readable row in one transaction.
func (i *Importer) Import(ctx context.Context, r io.Reader) (ImportReport, error) {
	sales, report, err := ParseCSV(r, i.logger)
	if err != nil {
		return report, err
	}
	if err := i.store.EnsureSchema(ctx); err != nil {
		return report, err
	}
	inserted, err := i.store.InsertSales(ctx, sales)
	if err != nil {
		return report, err
	}
	report.Accepted = inserted
	i.logger.Info("sales imported",
		slog.Int("rows", inserted),
		slog.Int("skipped", len(report.Skipped)),
		slog.String("delimiter", string(report.Delimiter)),
	)
	if inserted > 0 && i.invalidator != nil {
		if err := i.invalidator.Invalidate(ctx); err != nil {
			return report, fmt.Errorf("dataset: import committed but cache not invalidated: %w", err)
		}
	}
	return report, nil
}
