// Package evaluatecmder provides the evaluate command, which measures a saved
// model on a labelled dataset file.
package evaluatecmder

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/papercomputeco/siamese/pkg/artifact"
	"github.com/papercomputeco/siamese/pkg/cliui"
	"github.com/papercomputeco/siamese/pkg/config"
	"github.com/papercomputeco/siamese/pkg/dataset"
	"github.com/papercomputeco/siamese/pkg/logger"
	"github.com/papercomputeco/siamese/pkg/train"
)

const evaluateLongDesc string = `Evaluate a saved model on a dataset file.

Every pair in the file is encoded with the model's vocabulary (unknown words
are dropped) and scored. Reports the mean squared error and the accuracy at
a 0.5 threshold.

Examples:
  siamese evaluate -d Models -f Datasets/SICK_test.tsv
  siamese evaluate --data-name quora -f Datasets/quora_duplicate_questions.tsv`

const evaluateShortDesc string = "Evaluate a saved model"

var evaluateFlags = []string{
	config.FlagModelDir,
	config.FlagDataName,
	config.FlagDataFile,
	config.FlagWorkers,
}

type evaluateCommander struct {
	modelDir string
	dataName string
	dataFile string
	workers  int

	debug  bool
	viper  *viper.Viper
	out    io.Writer
	logger *slog.Logger
}

func NewEvaluateCmd() *cobra.Command {
	cmder := &evaluateCommander{}

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: evaluateShortDesc,
		Long:  evaluateLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			v, err := config.InitViper(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			config.BindRegisteredFlags(v, cmd, config.Flags, evaluateFlags)
			cmder.viper = v
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmder.debug, _ = cmd.Flags().GetBool("debug")
			cmder.out = cmd.OutOrStdout()
			cmder.modelDir = cmder.viper.GetString("output.dir")
			cmder.dataName = cmder.viper.GetString("data.name")
			cmder.dataFile = cmder.viper.GetString("data.file")
			cmder.workers = cmder.viper.GetInt("train.workers")
			return cmder.run(cmd.Context())
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagModelDir, &cmder.modelDir)
	config.AddStringFlag(cmd, config.Flags, config.FlagDataName, &cmder.dataName)
	config.AddStringFlag(cmd, config.Flags, config.FlagDataFile, &cmder.dataFile)
	config.AddIntFlag(cmd, config.Flags, config.FlagWorkers, &cmder.workers)

	return cmd
}

func (c *evaluateCommander) run(ctx context.Context) error {
	c.logger = logger.ForCLI(c.debug)

	var bundle *artifact.Bundle
	err := cliui.Step(c.out, "Loading model from "+c.modelDir, func() error {
		var err error
		bundle, err = artifact.Load(c.modelDir)
		return err
	})
	if err != nil {
		return fmt.Errorf("loading model: %w", err)
	}
	if bundle.Vocab == nil {
		return fmt.Errorf("model in %s has no vocabulary", bundle.Dir)
	}

	var pairs []dataset.Pair
	err = cliui.Step(c.out, "Loading "+c.dataFile, func() error {
		var err error
		pairs, err = dataset.LoadPairs(c.dataName, c.dataFile, bundle.Vocab, bundle.Model.Config().MaxLen)
		return err
	})
	if err != nil {
		return fmt.Errorf("loading dataset: %w", err)
	}
	if len(pairs) == 0 {
		return fmt.Errorf("dataset %s has no pairs", c.dataFile)
	}

	var loss, acc float64
	err = cliui.Step(c.out, fmt.Sprintf("Scoring %d pairs", len(pairs)), func() error {
		var err error
		loss, acc, err = train.Evaluate(ctx, bundle.Model, pairs, c.workers)
		return err
	})
	if err != nil {
		return fmt.Errorf("evaluating: %w", err)
	}

	c.logger.Debug("evaluation finished", "pairs", len(pairs), "loss", loss, "accuracy", acc)

	fmt.Fprintf(c.out, "\n  %s %s\n  %s %.4f\n  %s %.4f\n\n",
		cliui.KeyStyle.Render("metric:  "), cliui.ValueStyle.Render(bundle.Model.Config().Metric.String()),
		cliui.KeyStyle.Render("loss:    "), loss,
		cliui.KeyStyle.Render("accuracy:"), acc,
	)
	return nil
}
