package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/salesdash/salesdash/internal/dataset"
	jobmetrics "github.com/salesdash/salesdash/internal/jobs"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// DatasetWarmupJob loads the dataset once so the first dashboard of the day
// is served from the cache.
type DatasetWarmupJob struct {
	Source  dataset.Source
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// Handle processes dataset warmup tasks.
func (j *DatasetWarmupJob) Handle(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Source == nil {
		return errors.New("dataset warmup: handler not configured")
	}
	var payload DatasetWarmupPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}
	metrics := j.Metrics
	if metrics == nil {
		metrics = defaultJobMetrics
	}
	tracker := metrics.Track("dataset_warmup")
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.Logger
	if logger == nil {
		logger = slog.Default()
	}
	set, err := j.Source.Load(ctx)
	if err != nil {
		logger.Error("dataset warmup", slog.String("reason", payload.Reason), slog.Any("error", err))
		return err
	}
	logger.Info("dataset warm",
		slog.String("reason", payload.Reason),
		slog.Int("stores", len(set.SalesByStore)),
		slog.Int("products", len(set.SalesByProduct)),
	)
	return nil
}
