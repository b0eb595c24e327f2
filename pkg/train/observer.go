package train

import (
	"context"
	"log/slog"
	"time"
)

// EpochStats is delivered to observers after every epoch.
type EpochStats struct {
	RunID string

	// Epoch is 1-based.
	Epoch  int
	Epochs int

	Loss        float64
	Accuracy    float64
	ValLoss     float64
	ValAccuracy float64

	// HasValidation is false when Fit was called without a validation set.
	HasValidation bool

	Duration time.Duration
}

// Observer receives per-epoch statistics. Errors are logged and do not stop
// training.
type Observer interface {
	EpochEnd(ctx context.Context, stats EpochStats) error
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, stats EpochStats) error

// EpochEnd calls f.
func (f ObserverFunc) EpochEnd(ctx context.Context, stats EpochStats) error {
	return f(ctx, stats)
}

// LogObserver logs one line per epoch.
func LogObserver(log *slog.Logger) Observer {
	return ObserverFunc(func(_ context.Context, s EpochStats) error {
		attrs := []any{
			"epoch", s.Epoch,
			"of", s.Epochs,
			"loss", s.Loss,
			"accuracy", s.Accuracy,
			"duration", s.Duration.Round(time.Millisecond),
		}
		if s.HasValidation {
			attrs = append(attrs, "val_loss", s.ValLoss, "val_accuracy", s.ValAccuracy)
		}
		log.Info("epoch finished", attrs...)
		return nil
	})
}

// History holds per-epoch metrics in epoch order.
type History struct {
	Loss        []float64 `json:"loss"`
	Accuracy    []float64 `json:"accuracy"`
	ValLoss     []float64 `json:"val_loss"`
	ValAccuracy []float64 `json:"val_accuracy"`

	Duration time.Duration `json:"duration"`
}

// Epochs returns the number of recorded epochs.
func (h *History) Epochs() int {
	return len(h.Loss)
}
