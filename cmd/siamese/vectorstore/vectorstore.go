// Package vectorstore opens the sentence index configured for a command.
package vectorstore

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/papercomputeco/siamese/pkg/artifact"
	"github.com/papercomputeco/siamese/pkg/dotdir"
	"github.com/papercomputeco/siamese/pkg/similarity"
	"github.com/papercomputeco/siamese/pkg/vector"
	vectorutils "github.com/papercomputeco/siamese/pkg/vector/utils"
)

const defaultDBFile = "sentences.db"

// Open returns the vector driver selected by vector_store.provider, sized for
// the hidden state of bundle. An unset sqlite-vec target resolves to
// sentences.db in the .siamese/ directory.
func Open(ctx context.Context, v *viper.Viper, configDir string, bundle *artifact.Bundle, logger *slog.Logger) (vector.Driver, error) {
	cfg := bundle.Model.Config()

	opts := &vectorutils.NewVectorDriverOpts{
		ProviderType: v.GetString("vector_store.provider"),
		TargetURL:    v.GetString("vector_store.target"),
		APIKey:       os.Getenv("SIAMESE_QDRANT_API_KEY"),
		Collection:   v.GetString("vector_store.collection"),
		Dimensions:   uint(cfg.HiddenSize),
		Cosine:       cfg.Metric == similarity.Cosine,
		Logger:       logger,
	}

	if opts.TargetURL == "" && opts.ProviderType != vectorutils.ProviderQdrant {
		dir, err := dotdir.NewManager().Target(configDir)
		if err != nil {
			return nil, err
		}
		opts.TargetURL = filepath.Join(dir, defaultDBFile)
	}

	return vectorutils.NewVectorDriver(ctx, opts)
}
