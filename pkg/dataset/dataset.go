// Package dataset loads labelled sentence pairs from the SICK and Quora
// question-pair TSV files and turns them into padded token-id sequences.
package dataset

import (
	"errors"
	"fmt"
	"math/rand"
)

// ErrUnknownDataset is returned when Options.Name is not a supported dataset.
var ErrUnknownDataset = errors.New("unknown dataset")

// Pair is one labelled sentence pair. Left and Right are padded to the
// dataset's MaxLen.
type Pair struct {
	Left  []int
	Right []int
	Label float64

	LeftText  string
	RightText string
}

// Dataset is the result of Load.
type Dataset struct {
	Name       string
	Train      []Pair
	Validation []Pair

	// MaxLen is the sequence length every pair was padded or truncated to.
	MaxLen int

	Vocab *Vocabulary
}

// VocabSize returns the number of distinct words, excluding padding.
func (d *Dataset) VocabSize() int {
	return d.Vocab.Size()
}

// Options configures Load.
type Options struct {
	// Name selects the file layout: "sick" or "quora".
	Name string

	// Path is the TSV file to read.
	Path string

	// TrainingRatio is the fraction of pairs assigned to Train.
	TrainingRatio float64

	// MaxLen truncates or pads sequences. Zero or less uses the longest
	// sentence in the file.
	MaxLen int

	// Seed drives the shuffle before splitting.
	Seed int64
}

// Load reads the dataset at opts.Path, builds a vocabulary over every
// sentence, pads all sequences to MaxLen and splits the shuffled pairs into
// training and validation sets.
func Load(opts Options) (*Dataset, error) {
	format, ok := formats[opts.Name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDataset, opts.Name)
	}
	if opts.TrainingRatio <= 0 || opts.TrainingRatio > 1 {
		return nil, fmt.Errorf("training ratio must be in (0, 1], got %v", opts.TrainingRatio)
	}

	rows, err := readRows(opts.Path, format)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("dataset %s: no rows in %s", opts.Name, opts.Path)
	}

	vocab := NewVocabulary()
	encoded := make([][2][]int, len(rows))
	longest := 0
	for i, row := range rows {
		l := vocab.AddText(row.left)
		r := vocab.AddText(row.right)
		encoded[i] = [2][]int{l, r}
		longest = max(longest, len(l), len(r))
	}

	maxLen := opts.MaxLen
	if maxLen <= 0 {
		maxLen = longest
	}
	if maxLen <= 0 {
		return nil, fmt.Errorf("dataset %s: every sentence is empty", opts.Name)
	}

	pairs := make([]Pair, len(rows))
	for i, row := range rows {
		pairs[i] = Pair{
			Left:      Pad(encoded[i][0], maxLen),
			Right:     Pad(encoded[i][1], maxLen),
			Label:     row.label,
			LeftText:  row.left,
			RightText: row.right,
		}
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	rng.Shuffle(len(pairs), func(i, j int) {
		pairs[i], pairs[j] = pairs[j], pairs[i]
	})

	cut := int(float64(len(pairs)) * opts.TrainingRatio)
	return &Dataset{
		Name:       opts.Name,
		Train:      pairs[:cut],
		Validation: pairs[cut:],
		MaxLen:     maxLen,
		Vocab:      vocab,
	}, nil
}

// LoadPairs reads every pair of the named dataset at path and encodes it with
// an existing vocabulary, dropping unknown words. Pairs keep file order.
func LoadPairs(name, path string, vocab *Vocabulary, maxLen int) ([]Pair, error) {
	format, ok := formats[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDataset, name)
	}
	if vocab == nil {
		return nil, errors.New("a vocabulary is required to encode pairs")
	}
	if maxLen <= 0 {
		return nil, fmt.Errorf("max length must be positive, got %d", maxLen)
	}

	rows, err := readRows(path, format)
	if err != nil {
		return nil, err
	}

	pairs := make([]Pair, len(rows))
	for i, row := range rows {
		pairs[i] = Pair{
			Left:      vocab.EncodeText(row.left, maxLen),
			Right:     vocab.EncodeText(row.right, maxLen),
			Label:     row.label,
			LeftText:  row.left,
			RightText: row.right,
		}
	}
	return pairs, nil
}
