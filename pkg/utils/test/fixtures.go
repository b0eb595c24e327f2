package testutils

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	"github.com/papercomputeco/siamese/pkg/dataset"
)

// WriteSICKFile writes a small SICK-format TSV built from TestSentences into
// dir and returns its path. Every sentence is paired with itself and with
// its neighbour.
func WriteSICKFile(dir string) (string, error) {
	var b strings.Builder
	b.WriteString("pair_ID\tsentence_A\tsentence_B\trelatedness_score\tentailment_judgment\n")
	id := 1
	for i, s := range TestSentences {
		next := TestSentences[(i+1)%len(TestSentences)]
		fmt.Fprintf(&b, "%d\t%s\t%s\t5\tENTAILMENT\n", id, s, s)
		fmt.Fprintf(&b, "%d\t%s\t%s\t1\tNEUTRAL\n", id+1, s, next)
		id += 2
	}

	path := filepath.Join(dir, "SICK.tsv")
	return path, os.WriteFile(path, []byte(b.String()), 0o600)
}

// WriteVectorsFile writes word2vec text vectors of size dim for every word
// in TestSentences into dir and returns its path.
func WriteVectorsFile(dir string, dim int, seed int64) (string, error) {
	vocab := dataset.NewVocabulary()
	for _, s := range TestSentences {
		vocab.AddText(s)
	}
	words := vocab.Words()

	rng := rand.New(rand.NewSource(seed))
	var b strings.Builder
	fmt.Fprintf(&b, "%d %d\n", len(words), dim)
	for _, w := range words {
		b.WriteString(w)
		for range dim {
			fmt.Fprintf(&b, " %.4f", rng.NormFloat64())
		}
		b.WriteByte('\n')
	}

	path := filepath.Join(dir, "vectors.txt")
	return path, os.WriteFile(path, []byte(b.String()), 0o600)
}
