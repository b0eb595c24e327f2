// Package siamese assembles the shared-weight sentence-pair scorer: two
// token sequences pass through one frozen embedding table and one LSTM, and
// the final hidden states are compared by a fixed similarity transform.
package siamese

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/papercomputeco/siamese/pkg/nn"
	"github.com/papercomputeco/siamese/pkg/similarity"
)

var (
	// ErrSequenceLength is returned when a sequence is not exactly MaxLen ids.
	ErrSequenceLength = errors.New("sequence length mismatch")

	// ErrTokenRange is returned for ids outside [0, VocabSize].
	ErrTokenRange = nn.ErrTokenRange

	// ErrShape is returned when the embedding matrix does not match Config.
	ErrShape = errors.New("embedding matrix shape mismatch")
)

// EncoderName is the name of the shared LSTM layer.
const EncoderName = "lstm"

// Config holds the hyperparameters fixed at assembly time.
type Config struct {
	MaxLen        int               `json:"max_len"`
	EmbeddingSize int               `json:"embedding_size"`
	VocabSize     int               `json:"vocab_size"`
	HiddenSize    int               `json:"hidden_size"`
	Metric        similarity.Metric `json:"distance_metric"`
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	switch {
	case c.MaxLen <= 0:
		return fmt.Errorf("max_len must be positive, got %d", c.MaxLen)
	case c.EmbeddingSize <= 0:
		return fmt.Errorf("embedding_size must be positive, got %d", c.EmbeddingSize)
	case c.VocabSize < 0:
		return fmt.Errorf("vocab_size must not be negative, got %d", c.VocabSize)
	case c.HiddenSize <= 0:
		return fmt.Errorf("hidden_size must be positive, got %d", c.HiddenSize)
	}
	return nil
}

// Model is the assembled scorer. Encoder is a single LSTM referenced by both
// branches, so gradients from either side land in the same weights.
type Model struct {
	cfg       Config
	embedding *nn.Embedding
	encoder   *nn.LSTM
}

// New assembles a model around a (VocabSize+1) × EmbeddingSize embedding
// matrix. The matrix is frozen and the LSTM is freshly initialized from rng.
func New(cfg Config, weights *nn.Param, rng *rand.Rand) (*Model, error) {
	cfg.Metric = similarity.ParseMetric(string(cfg.Metric))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if weights == nil {
		return nil, fmt.Errorf("%w: nil embedding matrix", ErrShape)
	}
	if len(weights.Shape) != 2 || weights.Shape[0] != cfg.VocabSize+1 || weights.Shape[1] != cfg.EmbeddingSize {
		return nil, fmt.Errorf("%w: got %v, want [%d %d]", ErrShape, weights.Shape, cfg.VocabSize+1, cfg.EmbeddingSize)
	}

	emb, err := nn.NewEmbedding(weights)
	if err != nil {
		return nil, err
	}
	enc, err := nn.NewLSTM(EncoderName, cfg.EmbeddingSize, cfg.HiddenSize, rng)
	if err != nil {
		return nil, err
	}

	return &Model{cfg: cfg, embedding: emb, encoder: enc}, nil
}

// Config returns the model hyperparameters.
func (m *Model) Config() Config {
	return m.cfg
}

// Encoder returns the shared LSTM.
func (m *Model) Encoder() *nn.LSTM {
	return m.encoder
}

// Embedding returns the frozen embedding layer.
func (m *Model) Embedding() *nn.Embedding {
	return m.embedding
}

// TrainableParams returns the parameters updated by training, which are
// exactly the LSTM's.
func (m *Model) TrainableParams() []*nn.Param {
	return m.encoder.Params()
}

// Params returns every parameter, embedding first.
func (m *Model) Params() []*nn.Param {
	return append([]*nn.Param{m.embedding.Weight}, m.encoder.Params()...)
}

// NewGrad returns a zeroed gradient buffer aligned with TrainableParams.
func (m *Model) NewGrad() *nn.LSTMGrad {
	return m.encoder.NewGrad()
}

func (m *Model) embed(seq []int) ([][]float64, error) {
	if len(seq) != m.cfg.MaxLen {
		return nil, fmt.Errorf("%w: got %d ids, want %d", ErrSequenceLength, len(seq), m.cfg.MaxLen)
	}
	return m.embedding.Lookup(seq)
}

func (m *Model) trace(seq []int) (*nn.LSTMTrace, error) {
	xs, err := m.embed(seq)
	if err != nil {
		return nil, err
	}
	return m.encoder.Forward(xs)
}

// Encode returns the final LSTM hidden state for seq.
func (m *Model) Encode(seq []int) ([]float64, error) {
	tr, err := m.trace(seq)
	if err != nil {
		return nil, err
	}
	return tr.H, nil
}

// Score returns the similarity of two sequences.
func (m *Model) Score(left, right []int) (float64, error) {
	pass, err := m.Forward(left, right)
	if err != nil {
		return 0, err
	}
	return pass.Score, nil
}

// Pass holds what Backward needs from one forward evaluation.
type Pass struct {
	Score float64

	left, right   *nn.LSTMTrace
	dLeft, dRight []float64
}

// Forward encodes both sequences with the shared encoder, concatenates the
// two hidden states and applies the similarity transform.
func (m *Model) Forward(left, right []int) (*Pass, error) {
	lt, err := m.trace(left)
	if err != nil {
		return nil, fmt.Errorf("left: %w", err)
	}
	rt, err := m.trace(right)
	if err != nil {
		return nil, fmt.Errorf("right: %w", err)
	}

	h := m.cfg.HiddenSize
	merged := make([]float64, 0, 2*h)
	merged = append(merged, lt.H...)
	merged = append(merged, rt.H...)

	score, dl, dr, err := similarity.Gradient(m.cfg.Metric, merged[:h], merged[h:])
	if err != nil {
		return nil, err
	}

	return &Pass{Score: score, left: lt, right: rt, dLeft: dl, dRight: dr}, nil
}

// Backward scales the transform gradient by dScore and accumulates the LSTM
// gradients from both branches into grad.
func (m *Model) Backward(p *Pass, dScore float64, grad *nn.LSTMGrad) error {
	if p == nil {
		return errors.New("backward: nil pass")
	}

	dl := make([]float64, len(p.dLeft))
	for i, v := range p.dLeft {
		dl[i] = v * dScore
	}
	dr := make([]float64, len(p.dRight))
	for i, v := range p.dRight {
		dr[i] = v * dScore
	}

	if err := m.encoder.Backward(p.left, dl, grad); err != nil {
		return fmt.Errorf("left: %w", err)
	}
	if err := m.encoder.Backward(p.right, dr, grad); err != nil {
		return fmt.Errorf("right: %w", err)
	}
	return nil
}
