package artifact

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/papercomputeco/siamese/pkg/dataset"
	"github.com/papercomputeco/siamese/pkg/siamese"
)

// Bundle is a restored scorer together with what produced it.
type Bundle struct {
	Model     *siamese.Model
	Vocab     *dataset.Vocabulary
	Structure *Structure
	Dir       string
}

// Save writes the structure, weights and vocabulary of m into dir, creating
// it if needed. Each file is written to a temporary name and renamed into
// place so a watcher never observes a partial file.
func Save(dir string, m *siamese.Model, vocab *dataset.Vocabulary) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}

	s := Describe(m)
	fingerprint, err := s.Fingerprint()
	if err != nil {
		return err
	}

	err = writeAtomic(filepath.Join(dir, WeightsFile), func(w io.Writer) error {
		return writeWeights(w, fingerprint, m.Params())
	})
	if err != nil {
		return fmt.Errorf("writing weights: %w", err)
	}

	err = writeAtomic(filepath.Join(dir, StructureFile), func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	})
	if err != nil {
		return fmt.Errorf("writing structure: %w", err)
	}

	if vocab != nil {
		err = writeAtomic(filepath.Join(dir, VocabFile), func(w io.Writer) error {
			return json.NewEncoder(w).Encode(vocab)
		})
		if err != nil {
			return fmt.Errorf("writing vocabulary: %w", err)
		}
	}
	return nil
}

// Load restores the scorer saved in dir. The vocabulary is optional; a
// bundle without one can only score id sequences.
func Load(dir string) (*Bundle, error) {
	s, err := LoadStructure(filepath.Join(dir, StructureFile))
	if err != nil {
		return nil, err
	}
	m, err := s.Skeleton()
	if err != nil {
		return nil, err
	}
	if err := LoadWeights(filepath.Join(dir, WeightsFile), s, m.Params()); err != nil {
		return nil, err
	}

	b := &Bundle{Model: m, Structure: s, Dir: dir}

	vocabPath := filepath.Join(dir, VocabFile)
	if _, err := os.Stat(vocabPath); err == nil {
		v, err := dataset.LoadVocabulary(vocabPath)
		if err != nil {
			return nil, err
		}
		if v.Size() > m.Config().VocabSize {
			return nil, fmt.Errorf("%w: vocabulary has %d words, model has %d", ErrMismatch, v.Size(), m.Config().VocabSize)
		}
		b.Vocab = v
	}
	return b, nil
}

// Encode tokenizes text with the bundle vocabulary and pads it to the
// model's sequence length.
func (b *Bundle) Encode(text string) ([]int, error) {
	if b.Vocab == nil {
		return nil, fmt.Errorf("model in %s has no vocabulary", b.Dir)
	}
	return b.Vocab.EncodeText(text, b.Model.Config().MaxLen), nil
}

// ScoreText scores two raw sentences.
func (b *Bundle) ScoreText(left, right string) (float64, error) {
	l, err := b.Encode(left)
	if err != nil {
		return 0, err
	}
	r, err := b.Encode(right)
	if err != nil {
		return 0, err
	}
	return b.Model.Score(l, r)
}

func writeAtomic(path string, write func(io.Writer) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
