package train

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/papercomputeco/siamese/pkg/dataset"
	"github.com/papercomputeco/siamese/pkg/nn"
	"github.com/papercomputeco/siamese/pkg/siamese"
)

// Fit trains model on trainSet for opts.Epochs epochs and evaluates valSet
// after each one. Only the model's trainable parameters change.
func Fit(ctx context.Context, model *siamese.Model, trainSet, valSet []dataset.Pair, opts Options) (*History, error) {
	if model == nil {
		return nil, errors.New("fit: nil model")
	}
	if err := opts.normalize(); err != nil {
		return nil, fmt.Errorf("fit: %w", err)
	}
	if len(trainSet) == 0 {
		return nil, errors.New("fit: empty training set")
	}

	log := opts.Logger
	opt := NewAdadelta(model.TrainableParams(), opts.LearningRate, opts.Rho, opts.Epsilon, opts.ClipNorm)
	rng := rand.New(rand.NewSource(opts.Seed))

	// One gradient buffer per batch slot, reused across batches.
	slots := make([]*nn.LSTMGrad, min(opts.BatchSize, len(trainSet)))
	for i := range slots {
		slots[i] = model.NewGrad()
	}
	total := model.NewGrad()

	order := make([]int, len(trainSet))
	for i := range order {
		order[i] = i
	}

	history := &History{}
	start := time.Now()

	for epoch := 1; epoch <= opts.Epochs; epoch++ {
		epochStart := time.Now()
		rng.Shuffle(len(order), func(i, j int) {
			order[i], order[j] = order[j], order[i]
		})

		preds := make([]float64, len(trainSet))
		labels := make([]float64, len(trainSet))

		for lo := 0; lo < len(order); lo += opts.BatchSize {
			if err := ctx.Err(); err != nil {
				return history, err
			}
			hi := min(lo+opts.BatchSize, len(order))
			batch := order[lo:hi]

			if err := runBatch(ctx, model, trainSet, batch, slots, opts.Workers, preds[lo:hi]); err != nil {
				return history, fmt.Errorf("epoch %d: %w", epoch, err)
			}
			for k, idx := range batch {
				labels[lo+k] = trainSet[idx].Label
			}

			total.Zero()
			for k := range batch {
				total.Add(slots[k])
			}
			if err := opt.Step(total.Slices()); err != nil {
				return history, fmt.Errorf("epoch %d: %w", epoch, err)
			}
		}

		stats := EpochStats{
			RunID:    opts.RunID,
			Epoch:    epoch,
			Epochs:   opts.Epochs,
			Loss:     MSE(preds, labels),
			Accuracy: Accuracy(preds, labels),
		}
		history.Loss = append(history.Loss, stats.Loss)
		history.Accuracy = append(history.Accuracy, stats.Accuracy)

		if len(valSet) > 0 {
			valLoss, valAcc, err := Evaluate(ctx, model, valSet, opts.Workers)
			if err != nil {
				return history, fmt.Errorf("epoch %d validation: %w", epoch, err)
			}
			stats.ValLoss, stats.ValAccuracy, stats.HasValidation = valLoss, valAcc, true
			history.ValLoss = append(history.ValLoss, valLoss)
			history.ValAccuracy = append(history.ValAccuracy, valAcc)
		}
		stats.Duration = time.Since(epochStart)

		for _, o := range opts.Observers {
			if err := o.EpochEnd(ctx, stats); err != nil {
				log.Warn("epoch observer failed", "epoch", epoch, "error", err)
			}
		}
	}

	history.Duration = time.Since(start)
	return history, nil
}

// runBatch computes the forward pass and gradient of every sample in batch.
// Sample k writes its prediction into preds[k] and its gradient into slots[k],
// so the caller can reduce in a fixed order.
func runBatch(
	ctx context.Context,
	model *siamese.Model,
	set []dataset.Pair,
	batch []int,
	slots []*nn.LSTMGrad,
	workers int,
	preds []float64,
) error {
	scale := 2 / float64(len(batch))

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for k, idx := range batch {
		g.Go(func() error {
			p := set[idx]
			pass, err := model.Forward(p.Left, p.Right)
			if err != nil {
				return fmt.Errorf("sample %d: %w", idx, err)
			}
			preds[k] = pass.Score

			slots[k].Zero()
			return model.Backward(pass, scale*(pass.Score-p.Label), slots[k])
		})
	}
	return g.Wait()
}

// Evaluate returns the mean squared error and accuracy of model on set.
func Evaluate(ctx context.Context, model *siamese.Model, set []dataset.Pair, workers int) (float64, float64, error) {
	preds, err := Predict(ctx, model, set, workers)
	if err != nil {
		return 0, 0, err
	}
	labels := make([]float64, len(set))
	for i, p := range set {
		labels[i] = p.Label
	}
	return MSE(preds, labels), Accuracy(preds, labels), nil
}

// Predict scores every pair in set.
func Predict(ctx context.Context, model *siamese.Model, set []dataset.Pair, workers int) ([]float64, error) {
	if workers <= 0 {
		workers = 1
	}
	preds := make([]float64, len(set))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, p := range set {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			s, err := model.Score(p.Left, p.Right)
			if err != nil {
				return fmt.Errorf("sample %d: %w", i, err)
			}
			preds[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return preds, nil
}
