// Package runstore opens the run history store configured for a command.
package runstore

import (
	"context"

	"github.com/spf13/viper"

	"github.com/papercomputeco/siamese/cmd/siamese/sqlitepath"
	"github.com/papercomputeco/siamese/pkg/dotdir"
	"github.com/papercomputeco/siamese/pkg/storage"
	storageutils "github.com/papercomputeco/siamese/pkg/storage/utils"
)

// Open returns the driver selected by storage.provider. For sqlite, a path
// that is not configured resolves to an existing database or, when create is
// set, to siamese.db in the .siamese/ directory.
func Open(ctx context.Context, v *viper.Viper, configDir string, create bool) (storage.Driver, error) {
	opts := &storageutils.NewStorageDriverOpts{
		ProviderType: v.GetString("storage.provider"),
		SQLitePath:   v.GetString("storage.sqlite_path"),
		PostgresDSN:  v.GetString("storage.postgres_dsn"),
	}

	if opts.ProviderType == storageutils.ProviderSQLite || opts.ProviderType == "" {
		path, err := resolve(opts.SQLitePath, configDir, create)
		if err != nil {
			return nil, err
		}
		opts.SQLitePath = path
	}

	return storageutils.NewStorageDriver(ctx, opts)
}

func resolve(override, configDir string, create bool) (string, error) {
	if !create {
		return sqlitepath.ResolveSQLitePath(override)
	}

	dir, err := dotdir.NewManager().Target(configDir)
	if err != nil {
		return "", err
	}
	return sqlitepath.ResolveOrCreate(override, dir)
}
