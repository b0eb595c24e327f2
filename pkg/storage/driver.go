// Package storage records training runs and their per-epoch metrics.
package storage

import (
	"context"
	"time"
)

// RunStatus is the lifecycle state of a run.
type RunStatus string

const (
	StatusRunning   RunStatus = "running"
	StatusCompleted RunStatus = "completed"
	StatusFailed    RunStatus = "failed"
)

// Run describes one invocation of the train command.
type Run struct {
	ID            string
	Dataset       string
	DataFile      string
	EmbeddingFile string
	OutputDir     string

	Metric       string
	MaxLen       int
	HiddenSize   int
	BatchSize    int
	Epochs       int
	LearningRate float64

	TrainSamples int
	ValSamples   int

	Status     RunStatus
	Error      string
	StartedAt  time.Time
	FinishedAt time.Time
}

// EpochRecord holds the metrics of one finished epoch.
type EpochRecord struct {
	RunID         string
	Epoch         int
	Loss          float64
	Accuracy      float64
	ValLoss       float64
	ValAccuracy   float64
	HasValidation bool
	Duration      time.Duration
}

// Driver defines the interface for persisting and retrieving run history.
type Driver interface {
	// CreateRun stores a new run. The ID must be unique.
	CreateRun(ctx context.Context, run *Run) error

	// RecordEpoch stores the metrics of one epoch, replacing any earlier
	// record for the same run and epoch.
	RecordEpoch(ctx context.Context, rec EpochRecord) error

	// FinishRun marks a run completed or failed.
	FinishRun(ctx context.Context, id string, status RunStatus, errMsg string, finishedAt time.Time) error

	// GetRun retrieves a run by its ID.
	GetRun(ctx context.Context, id string) (*Run, error)

	// ListRuns returns runs, most recent first. A limit of zero or less
	// returns every run.
	ListRuns(ctx context.Context, limit int) ([]*Run, error)

	// Epochs returns the epoch records of a run in epoch order.
	Epochs(ctx context.Context, runID string) ([]EpochRecord, error)

	// Close closes the store and releases any resources.
	Close() error
}
