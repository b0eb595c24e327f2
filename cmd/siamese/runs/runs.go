// Package runscmder provides the runs command for browsing training run
// history.
package runscmder

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/papercomputeco/siamese/cmd/siamese/runstore"
	"github.com/papercomputeco/siamese/pkg/config"
	"github.com/papercomputeco/siamese/pkg/storage"
)

const runsLongDesc string = `Browse the history of training runs.

Every "siamese train" records its hyperparameters, status and per-epoch
metrics in the configured run store (sqlite by default, or postgres).

Examples:
  siamese runs list
  siamese runs list --limit 5
  siamese runs show latest
  siamese runs show 3f2a9c1e-...`

const runsShortDesc string = "Browse training run history"

var storeFlags = []string{
	config.FlagStorage,
	config.FlagSQLite,
	config.FlagPostgres,
}

func NewRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: runsShortDesc,
		Long:  runsLongDesc,
	}

	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newShowCmd())

	return cmd
}

// store carries the run store flags shared by the runs subcommands.
type store struct {
	provider, sqlitePath, postgresDSN string

	configDir string
	viper     *viper.Viper
}

func (s *store) addFlags(cmd *cobra.Command) {
	config.AddStringFlag(cmd, config.Flags, config.FlagStorage, &s.provider)
	config.AddStringFlag(cmd, config.Flags, config.FlagSQLite, &s.sqlitePath)
	config.AddStringFlag(cmd, config.Flags, config.FlagPostgres, &s.postgresDSN)
}

func (s *store) preRun(cmd *cobra.Command, _ []string) error {
	s.configDir, _ = cmd.Flags().GetString("config-dir")
	v, err := config.InitViper(s.configDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	config.BindRegisteredFlags(v, cmd, config.Flags, storeFlags)
	s.viper = v
	return nil
}

func (s *store) open(ctx context.Context) (storage.Driver, error) {
	d, err := runstore.Open(ctx, s.viper, s.configDir, false)
	if err != nil {
		return nil, fmt.Errorf("opening run store: %w", err)
	}
	return d, nil
}
