// Package embeddingutils is the embeddings utility package
package embeddingutils

import (
	"fmt"

	"github.com/papercomputeco/siamese/pkg/artifact"
	"github.com/papercomputeco/siamese/pkg/embeddings"
	"github.com/papercomputeco/siamese/pkg/embeddings/encoder"
)

const ProviderModel = "model"

type NewEmbedderOpts struct {
	ProviderType string

	// ModelDir is loaded when Source is nil.
	ModelDir string
	Source   encoder.Source
}

func NewEmbedder(o *NewEmbedderOpts) (embeddings.Embedder, error) {
	switch o.ProviderType {
	case ProviderModel, "":
		src := o.Source
		if src == nil {
			b, err := artifact.Load(o.ModelDir)
			if err != nil {
				return nil, fmt.Errorf("loading model: %w", err)
			}
			src = artifact.NewHolder(b)
		}
		return encoder.NewEmbedder(src)
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", o.ProviderType)
	}
}
