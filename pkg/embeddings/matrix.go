package embeddings

import (
	"fmt"
	"math/rand"

	"github.com/papercomputeco/siamese/pkg/dataset"
	"github.com/papercomputeco/siamese/pkg/nn"
)

// MatrixName is the parameter name of the embedding table.
const MatrixName = "embedding/embeddings"

// Stats summarises how much of the vocabulary a pretrained file covered.
type Stats struct {
	Dim       int
	FileWords int
	Found     int
	Missing   int
}

// BuildMatrix reads the pretrained vectors at path and returns a
// (vocab.Size()+1) × dim matrix whose row i is the vector of vocabulary id i.
// Row 0 is the padding row and stays zero. Words absent from the file get a
// standard normal vector drawn from a generator seeded with seed.
func BuildMatrix(path string, vocab *dataset.Vocabulary, seed int64) (*nn.Param, Stats, error) {
	wanted := make(map[string]struct{}, vocab.Size())
	for w := range vocab.WordToID {
		wanted[w] = struct{}{}
	}

	vectors, stats, err := ReadVectors(path, wanted)
	if err != nil {
		return nil, Stats{}, err
	}
	if stats.Dim <= 0 {
		return nil, Stats{}, fmt.Errorf("embedding file %s holds no vectors", path)
	}

	matrix := nn.NewParam(MatrixName, false, vocab.Size()+1, stats.Dim)
	rng := rand.New(rand.NewSource(seed))

	// Iterating in id order keeps the random rows reproducible.
	for i, w := range vocab.Words() {
		row := matrix.Row(i + 1)
		if vec, ok := vectors[w]; ok {
			for j, x := range vec {
				row[j] = float64(x)
			}
			stats.Found++
			continue
		}
		for j := range row {
			row[j] = rng.NormFloat64()
		}
		stats.Missing++
	}

	return matrix, stats, nil
}
