// Package embeddings builds the frozen word-embedding matrix from pretrained
// word2vec or GloVe files and defines the sentence Embedder used by the
// index and search paths.
package embeddings

import "context"

// Embedder provides text embedding capabilities.
type Embedder interface {
	// Embed converts text into a vector embedding.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Close releases any resources held by the embedder.
	Close() error
}
