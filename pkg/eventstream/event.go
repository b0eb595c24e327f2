package eventstream

import (
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/siamese/pkg/train"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeEpochCompleted is emitted after every training epoch.
	EventTypeEpochCompleted = "siamese.epoch.completed"

	// EventTypeRunFinished is emitted once a training run ends.
	EventTypeRunFinished = "siamese.run.finished"
)

// TrainingEvent is a transport-neutral event payload for training progress.
type TrainingEvent struct {
	SchemaVersion int       `json:"schema_version"`
	EventType     string    `json:"event_type"`
	EventID       string    `json:"event_id"`
	EmittedAt     time.Time `json:"emitted_at"`
	RunID         string    `json:"run_id"`

	Epoch *EpochMeta `json:"epoch,omitempty"`
	Run   *RunMeta   `json:"run,omitempty"`
}

// EpochMeta carries the metrics of one epoch.
type EpochMeta struct {
	Epoch       int      `json:"epoch"`
	Epochs      int      `json:"epochs"`
	Loss        float64  `json:"loss"`
	Accuracy    float64  `json:"accuracy"`
	ValLoss     *float64 `json:"val_loss,omitempty"`
	ValAccuracy *float64 `json:"val_accuracy,omitempty"`
	DurationMs  int64    `json:"duration_ms"`
}

// RunMeta summarises a finished run.
type RunMeta struct {
	Status     string `json:"status"`
	Error      string `json:"error,omitempty"`
	Epochs     int    `json:"epochs"`
	DurationMs int64  `json:"duration_ms"`
	OutputDir  string `json:"output_dir,omitempty"`
}

func newEvent(eventType, runID string) *TrainingEvent {
	return &TrainingEvent{
		SchemaVersion: SchemaVersionV1,
		EventType:     eventType,
		EventID:       uuid.NewString(),
		EmittedAt:     time.Now().UTC(),
		RunID:         runID,
	}
}

// NewEpochEvent builds an epoch-completed event from training statistics.
func NewEpochEvent(s train.EpochStats) *TrainingEvent {
	ev := newEvent(EventTypeEpochCompleted, s.RunID)
	ev.Epoch = &EpochMeta{
		Epoch:      s.Epoch,
		Epochs:     s.Epochs,
		Loss:       s.Loss,
		Accuracy:   s.Accuracy,
		DurationMs: s.Duration.Milliseconds(),
	}
	if s.HasValidation {
		valLoss, valAcc := s.ValLoss, s.ValAccuracy
		ev.Epoch.ValLoss = &valLoss
		ev.Epoch.ValAccuracy = &valAcc
	}
	return ev
}

// NewRunFinishedEvent builds a run-finished event.
func NewRunFinishedEvent(runID string, meta RunMeta) *TrainingEvent {
	ev := newEvent(EventTypeRunFinished, runID)
	ev.Run = &meta
	return ev
}
