package eventstream

import (
	"context"

	"github.com/papercomputeco/siamese/pkg/train"
)

// Publisher publishes training events to an event stream backend.
type Publisher interface {
	Publish(ctx context.Context, event *TrainingEvent) error
	Close() error
}

// EpochObserver returns a train.Observer publishing one event per epoch.
func EpochObserver(p Publisher) train.Observer {
	return train.ObserverFunc(func(ctx context.Context, s train.EpochStats) error {
		return p.Publish(ctx, NewEpochEvent(s))
	})
}
