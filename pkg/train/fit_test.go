package train_test

import (
	"context"
	"errors"
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/siamese/pkg/dataset"
	"github.com/papercomputeco/siamese/pkg/nn"
	"github.com/papercomputeco/siamese/pkg/siamese"
	"github.com/papercomputeco/siamese/pkg/train"
)

const (
	vocabSize = 8
	maxLen    = 5
)

func newModel(seed int64) *siamese.Model {
	rng := rand.New(rand.NewSource(seed))
	emb := nn.NewParam("embedding/embeddings", false, vocabSize+1, 4)
	for i := 4; i < len(emb.Data); i++ {
		emb.Data[i] = rng.NormFloat64()
	}
	m, err := siamese.New(siamese.Config{MaxLen: maxLen, EmbeddingSize: 4, VocabSize: vocabSize, HiddenSize: 6}, emb, rng)
	Expect(err).NotTo(HaveOccurred())
	return m
}

// toyPairs labels a pair 1 when both sentences start with the same word.
func toyPairs(n int, seed int64) []dataset.Pair {
	rng := rand.New(rand.NewSource(seed))
	pairs := make([]dataset.Pair, n)
	for i := range pairs {
		a := []int{1 + rng.Intn(vocabSize), 1 + rng.Intn(vocabSize)}
		b := []int{a[0], 1 + rng.Intn(vocabSize)}
		label := 1.0
		if i%2 == 1 {
			b[0] = 1 + (a[0] % vocabSize)
			label = 0
		}
		pairs[i] = dataset.Pair{Left: dataset.Pad(a, maxLen), Right: dataset.Pad(b, maxLen), Label: label}
	}
	return pairs
}

func options() train.Options {
	opts := train.DefaultOptions()
	opts.BatchSize = 4
	opts.Epochs = 3
	opts.Workers = 2
	return opts
}

var _ = Describe("Fit", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	It("records one history entry per epoch", func() {
		// 10 samples with batch size 4 leaves a partial last batch.
		h, err := train.Fit(ctx, newModel(1), toyPairs(10, 1), toyPairs(4, 2), options())
		Expect(err).NotTo(HaveOccurred())
		Expect(h.Epochs()).To(Equal(3))
		Expect(h.Accuracy).To(HaveLen(3))
		Expect(h.ValLoss).To(HaveLen(3))
		Expect(h.ValAccuracy).To(HaveLen(3))
		for _, a := range h.Accuracy {
			Expect(a).To(BeNumerically(">=", 0))
			Expect(a).To(BeNumerically("<=", 1))
		}
	})

	It("skips validation metrics without a validation set", func() {
		h, err := train.Fit(ctx, newModel(1), toyPairs(8, 1), nil, options())
		Expect(err).NotTo(HaveOccurred())
		Expect(h.Loss).To(HaveLen(3))
		Expect(h.ValLoss).To(BeEmpty())
	})

	It("reduces the training loss", func() {
		m := newModel(3)
		set := toyPairs(16, 3)

		before, _, err := train.Evaluate(ctx, m, set, 2)
		Expect(err).NotTo(HaveOccurred())

		opts := options()
		opts.Epochs = 40
		_, err = train.Fit(ctx, m, set, nil, opts)
		Expect(err).NotTo(HaveOccurred())

		after, _, err := train.Evaluate(ctx, m, set, 2)
		Expect(err).NotTo(HaveOccurred())
		Expect(after).To(BeNumerically("<", before))
	})

	It("is deterministic regardless of worker count", func() {
		set := toyPairs(12, 4)

		a := newModel(5)
		optsA := options()
		optsA.Workers = 1
		ha, err := train.Fit(ctx, a, set, nil, optsA)
		Expect(err).NotTo(HaveOccurred())

		b := newModel(5)
		optsB := options()
		optsB.Workers = 8
		hb, err := train.Fit(ctx, b, set, nil, optsB)
		Expect(err).NotTo(HaveOccurred())

		Expect(ha.Loss).To(Equal(hb.Loss))
		for i, p := range a.TrainableParams() {
			Expect(p.Data).To(Equal(b.TrainableParams()[i].Data))
		}
	})

	It("never updates the embedding", func() {
		m := newModel(6)
		before := m.Embedding().Weight.Clone()
		_, err := train.Fit(ctx, m, toyPairs(8, 6), nil, options())
		Expect(err).NotTo(HaveOccurred())
		Expect(m.Embedding().Weight.Data).To(Equal(before.Data))
	})

	It("notifies observers and tolerates their failures", func() {
		var seen []train.EpochStats
		opts := options()
		opts.RunID = "run-1"
		opts.Observers = []train.Observer{
			train.ObserverFunc(func(_ context.Context, s train.EpochStats) error {
				seen = append(seen, s)
				return errors.New("sink unavailable")
			}),
		}

		_, err := train.Fit(ctx, newModel(7), toyPairs(8, 7), toyPairs(4, 8), opts)
		Expect(err).NotTo(HaveOccurred())
		Expect(seen).To(HaveLen(3))
		Expect(seen[2].Epoch).To(Equal(3))
		Expect(seen[2].Epochs).To(Equal(3))
		Expect(seen[0].RunID).To(Equal("run-1"))
		Expect(seen[0].HasValidation).To(BeTrue())
	})

	It("stops when the context is cancelled", func() {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := train.Fit(cctx, newModel(8), toyPairs(8, 8), nil, options())
		Expect(err).To(MatchError(context.Canceled))
	})

	It("surfaces malformed samples", func() {
		set := toyPairs(4, 9)
		set[2].Left = []int{1}
		_, err := train.Fit(ctx, newModel(9), set, nil, options())
		Expect(err).To(MatchError(siamese.ErrSequenceLength))
	})

	It("rejects invalid options", func() {
		opts := options()
		opts.BatchSize = 0
		_, err := train.Fit(ctx, newModel(1), toyPairs(4, 1), nil, opts)
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Evaluate", func() {
	It("scores identical pairs as perfect matches", func() {
		m := newModel(2)
		seq := dataset.Pad([]int{1, 2, 3}, maxLen)
		set := []dataset.Pair{{Left: seq, Right: seq, Label: 1}}

		loss, acc, err := train.Evaluate(context.Background(), m, set, 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(loss).To(Equal(0.0))
		Expect(acc).To(Equal(1.0))
	})
})
