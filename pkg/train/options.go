// Package train fits a siamese model with mean squared error, Adadelta and
// per-tensor gradient clipping over shuffled minibatches.
package train

import (
	"fmt"
	"log/slog"
	"runtime"

	"github.com/papercomputeco/siamese/pkg/logger"
)

// Options configures Fit.
type Options struct {
	BatchSize    int
	Epochs       int
	LearningRate float64

	// ClipNorm bounds the L2 norm of each parameter gradient. Zero disables
	// clipping.
	ClipNorm float64

	// Rho and Epsilon are the Adadelta decay and stability constants.
	Rho     float64
	Epsilon float64

	// Seed drives the per-epoch shuffle.
	Seed int64

	// Workers bounds the goroutines computing per-sample gradients.
	Workers int

	// RunID is copied into every EpochStats.
	RunID string

	Observers []Observer
	Logger    *slog.Logger
}

// DefaultOptions returns the standard hyperparameters.
func DefaultOptions() Options {
	return Options{
		BatchSize:    32,
		Epochs:       7,
		LearningRate: 1.0,
		ClipNorm:     1.25,
		Rho:          0.95,
		Epsilon:      1e-7,
		Seed:         1,
		Workers:      runtime.GOMAXPROCS(0),
	}
}

func (o *Options) normalize() error {
	if o.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive, got %d", o.BatchSize)
	}
	if o.Epochs < 0 {
		return fmt.Errorf("epochs must not be negative, got %d", o.Epochs)
	}
	if o.LearningRate <= 0 {
		return fmt.Errorf("learning rate must be positive, got %v", o.LearningRate)
	}
	if o.ClipNorm < 0 {
		return fmt.Errorf("clip norm must not be negative, got %v", o.ClipNorm)
	}
	if o.Rho <= 0 || o.Rho >= 1 {
		return fmt.Errorf("rho must be in (0, 1), got %v", o.Rho)
	}
	if o.Epsilon <= 0 {
		return fmt.Errorf("epsilon must be positive, got %v", o.Epsilon)
	}
	if o.Workers <= 0 {
		o.Workers = 1
	}
	if o.Logger == nil {
		o.Logger = logger.Nop()
	}
	return nil
}
