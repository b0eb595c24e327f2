// Package storageutils builds the configured run history driver.
package storageutils

import (
	"context"
	"errors"
	"fmt"

	"github.com/papercomputeco/siamese/pkg/storage"
	"github.com/papercomputeco/siamese/pkg/storage/inmemory"
	"github.com/papercomputeco/siamese/pkg/storage/postgres"
	"github.com/papercomputeco/siamese/pkg/storage/sqlite"
)

const (
	ProviderSQLite   = "sqlite"
	ProviderPostgres = "postgres"
	ProviderMemory   = "memory"
)

type NewStorageDriverOpts struct {
	ProviderType string
	SQLitePath   string
	PostgresDSN  string
}

// NewStorageDriver opens the run history store. An empty provider with an
// empty SQLite path yields an in-memory store.
func NewStorageDriver(ctx context.Context, o *NewStorageDriverOpts) (storage.Driver, error) {
	switch o.ProviderType {
	case ProviderSQLite, "":
		if o.SQLitePath == "" {
			return inmemory.NewDriver(), nil
		}
		d, err := sqlite.NewSQLiteDriver(o.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite run history: %w", err)
		}
		return d, nil

	case ProviderPostgres:
		if o.PostgresDSN == "" {
			return nil, errors.New("postgres run history requires storage.postgres_dsn")
		}
		d, err := postgres.NewDriver(ctx, o.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("opening postgres run history: %w", err)
		}
		return d, nil

	case ProviderMemory:
		return inmemory.NewDriver(), nil

	default:
		return nil, fmt.Errorf("unsupported storage provider: %s", o.ProviderType)
	}
}
