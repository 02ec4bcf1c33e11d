package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/hibiken/asynq"

	"github.com/salesdash/salesdash/internal/dataset"
	jobmetrics "github.com/salesdash/salesdash/internal/jobs"
)

// SalesImporter is the part of dataset.Importer the job needs.
type SalesImporter interface {
	Import(ctx context.Context, r io.Reader) (dataset.ImportReport, error)
}

// SalesImportJob imports CSV exports dropped by the point-of-sale systems.
type SalesImportJob struct {
	Importer SalesImporter
	Logger   *slog.Logger
	Metrics  *jobmetrics.Metrics
}

// NewSalesImportJob wires dependencies for the import handler.
func NewSalesImportJob(importer SalesImporter, logger *slog.Logger, metrics *jobmetrics.Metrics) *SalesImportJob {
	return &SalesImportJob{
		Importer: importer,
		Logger:   logger,
		Metrics:  metrics,
	}
}

// Handle processes sales import tasks.
func (j *SalesImportJob) Handle(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Importer == nil {
		return errors.New("sales import: handler not configured")
	}
	var payload SalesImportPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil || payload.Path == "" {
		return fmt.Errorf("sales import: bad payload: %w", asynq.SkipRetry)
	}

	tracker := j.metrics().Track("sales_import")
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger().With(slog.String("path", payload.Path))
	f, err := os.Open(payload.Path)
	if err != nil {
		logger.Error("sales import failed", slog.Any("error", err))
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("sales import: %w: %w", err, asynq.SkipRetry)
		}
		return err
	}
	defer f.Close()

	report, err := j.Importer.Import(ctx, f)
	j.metrics().AddImportedRows(report.Accepted, len(report.Skipped))
	if err != nil {
		logger.Error("sales import failed", slog.Any("error", err))
		if errors.Is(err, dataset.ErrMissingColumns) {
			return fmt.Errorf("sales import: %w: %w", err, asynq.SkipRetry)
		}
		return err
	}
	for _, skipped := range report.Skipped {
		logger.Debug("row skipped", slog.Int("line", skipped.Line), slog.String("reason", skipped.Reason))
	}
	logger.Info("sales import done", slog.Int("rows", report.Accepted), slog.Int("skipped", len(report.Skipped)))
	return nil
}

func (j *SalesImportJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}

func (j *SalesImportJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
