// Package configcmder provides the config command for managing persistent
// siamese configuration stored in the .siamese/ directory.
package configcmder

import (
	"github.com/spf13/cobra"

	"github.com/papercomputeco/siamese/pkg/config"
)

const configLongDesc string = `Manage persistent siamese configuration.

Configuration is stored as config.toml in the .siamese/ directory and provides
default values for command flags. CLI flags and SIAMESE_* environment
variables take precedence over config file values.

Keys use dotted notation matching the TOML section structure:
  data.name, data.file, data.training_ratio, embedding.file,
  model.max_len, model.hidden_size, model.distance_metric,
  train.batch_size, train.num_iters, train.learning_rate, train.clip_norm,
  train.seed, train.workers, output.dir,
  storage.provider, storage.sqlite_path, storage.postgres_dsn,
  vector_store.provider, vector_store.target, vector_store.collection,
  events.provider, events.brokers, events.topic, api.listen

Examples:
  siamese config set model.distance_metric cosine
  siamese config set train.num_iters 25
  siamese config get data.file
  siamese config list`

const configShortDesc string = "Manage persistent siamese configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}

func validKeys(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return config.ValidConfigKeys(), cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}
