package jobs

import (
	"encoding/json"
	"errors"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskSalesImport loads a sales CSV export into Postgres.
	TaskSalesImport = "sales:import"
	// TaskDatasetWarmup reloads the dataset into the Redis cache.
	TaskDatasetWarmup = "dataset:warmup"
)

// SalesImportPayload names the CSV file to import.
type SalesImportPayload struct {
	Path string `json:"path"`
}

// DatasetWarmupPayload carries the reason of a warmup, for logs only.
type DatasetWarmupPayload struct {
	Reason string `json:"reason,omitempty"`
}

// NewSalesImportTask constructs an Asynq task.
func NewSalesImportTask(payload SalesImportPayload) (*asynq.Task, error) {
	if payload.Path == "" {
		return nil, errors.New("jobs: import path required")
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSalesImport, data, asynq.MaxRetry(3)), nil
}

// NewDatasetWarmupTask constructs an Asynq task.
func NewDatasetWarmupTask(payload DatasetWarmupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDatasetWarmup, data, asynq.MaxRetry(1)), nil
}
