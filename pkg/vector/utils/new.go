package vectorutils

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/papercomputeco/siamese/pkg/vector"
	"github.com/papercomputeco/siamese/pkg/vector/qdrant"
	"github.com/papercomputeco/siamese/pkg/vector/sqlitevec"
)

const (
	ProviderSQLiteVec = "sqlite-vec"
	ProviderQdrant    = "qdrant"
)

type NewVectorDriverOpts struct {
	ProviderType string

	// TargetURL is the sqlite database path for sqlite-vec and the gRPC
	// host:port for qdrant.
	TargetURL  string
	APIKey     string
	Collection string
	Dimensions uint
	Cosine     bool
	Logger     *slog.Logger
}

func NewVectorDriver(ctx context.Context, o *NewVectorDriverOpts) (vector.Driver, error) {
	switch o.ProviderType {
	case ProviderSQLiteVec, "sqlitevec":
		return sqlitevec.NewSQLiteVecDriver(sqlitevec.Config{
			DBPath:     o.TargetURL,
			Dimensions: o.Dimensions,
			Cosine:     o.Cosine,
		}, o.Logger)
	case ProviderQdrant:
		return qdrant.NewDriver(ctx, qdrant.Config{
			Addr:       o.TargetURL,
			APIKey:     o.APIKey,
			Collection: o.Collection,
			Dimensions: o.Dimensions,
			Cosine:     o.Cosine,
		}, o.Logger)
	default:
		return nil, fmt.Errorf("unsupported vector store provider: %s", o.ProviderType)
	}
}
