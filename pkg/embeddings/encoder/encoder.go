// Package encoder embeds sentences with the LSTM branch of a trained model.
// The vector for a sentence is the final hidden state the scorer compares.
package encoder

import (
	"context"
	"errors"
	"fmt"

	"github.com/papercomputeco/siamese/pkg/artifact"
)

// ErrNoKnownWords is returned for text whose tokens are all outside the
// model vocabulary. Such text encodes to the all-padding sequence.
var ErrNoKnownWords = errors.New("text has no words in the model vocabulary")

// Source yields the model to encode with. *artifact.Holder satisfies it, so
// a hot-reloaded model is picked up on the next call.
type Source interface {
	Current() *artifact.Bundle
}

// Embedder implements embeddings.Embedder over a trained model.
type Embedder struct {
	source Source
}

// NewEmbedder creates an embedder reading its model from source.
func NewEmbedder(source Source) (*Embedder, error) {
	if source == nil || source.Current() == nil {
		return nil, errors.New("encoder needs a loaded model")
	}
	return &Embedder{source: source}, nil
}

// Dimensions is the hidden size of the current model.
func (e *Embedder) Dimensions() uint {
	return uint(e.source.Current().Model.Config().HiddenSize)
}

// Embed encodes text into the model's hidden space.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b := e.source.Current()
	ids, err := b.Encode(text)
	if err != nil {
		return nil, err
	}
	known := false
	for _, id := range ids {
		if id != 0 {
			known = true
			break
		}
	}
	if !known {
		return nil, ErrNoKnownWords
	}

	h, err := b.Model.Encode(ids)
	if err != nil {
		return nil, fmt.Errorf("encoding text: %w", err)
	}

	out := make([]float32, len(h))
	for i, v := range h {
		out[i] = float32(v)
	}
	return out, nil
}

// Close is a no-op; the model is owned by the source.
func (e *Embedder) Close() error {
	return nil
}
