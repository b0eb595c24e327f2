package testutils

import (
	"math/rand"

	"github.com/papercomputeco/siamese/pkg/artifact"
	"github.com/papercomputeco/siamese/pkg/dataset"
	"github.com/papercomputeco/siamese/pkg/nn"
	"github.com/papercomputeco/siamese/pkg/siamese"
	"github.com/papercomputeco/siamese/pkg/similarity"
)

// TestSentences are the sentences NewTestBundle builds its vocabulary from.
var TestSentences = []string{
	"a man is playing a guitar",
	"a woman is slicing an onion",
	"the dog runs across the field",
	"two kids are jumping on a trampoline",
}

// NewTestBundle returns a small randomly initialized bundle with a
// vocabulary covering TestSentences. The same seed yields the same weights.
func NewTestBundle(metric similarity.Metric, seed int64) *artifact.Bundle {
	vocab := dataset.NewVocabulary()
	for _, s := range TestSentences {
		vocab.AddText(s)
	}

	const dim = 6
	rng := rand.New(rand.NewSource(seed))
	weights := nn.NewParam("embedding/embeddings", false, vocab.Size()+1, dim)
	for i := dim; i < len(weights.Data); i++ {
		weights.Data[i] = rng.NormFloat64()
	}

	m, err := siamese.New(siamese.Config{
		MaxLen:        8,
		EmbeddingSize: dim,
		VocabSize:     vocab.Size(),
		HiddenSize:    5,
		Metric:        metric,
	}, weights, rng)
	if err != nil {
		panic(err)
	}

	return &artifact.Bundle{
		Model:     m,
		Vocab:     vocab,
		Structure: artifact.Describe(m),
		Dir:       "testdata/model",
	}
}
