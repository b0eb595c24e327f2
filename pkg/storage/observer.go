package storage

import (
	"context"

	"github.com/papercomputeco/siamese/pkg/train"
)

// EpochObserver returns a train.Observer that records every epoch in d.
func EpochObserver(d Driver) train.Observer {
	return train.ObserverFunc(func(ctx context.Context, s train.EpochStats) error {
		return d.RecordEpoch(ctx, EpochRecord{
			RunID:         s.RunID,
			Epoch:         s.Epoch,
			Loss:          s.Loss,
			Accuracy:      s.Accuracy,
			ValLoss:       s.ValLoss,
			ValAccuracy:   s.ValAccuracy,
			HasValidation: s.HasValidation,
			Duration:      s.Duration,
		})
	})
}
