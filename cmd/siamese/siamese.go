// Package siamesecmder
package siamesecmder

import (
	"github.com/spf13/cobra"

	configcmder "github.com/papercomputeco/siamese/cmd/siamese/config"
	evaluatecmder "github.com/papercomputeco/siamese/cmd/siamese/evaluate"
	indexcmder "github.com/papercomputeco/siamese/cmd/siamese/index"
	initcmder "github.com/papercomputeco/siamese/cmd/siamese/init"
	predictcmder "github.com/papercomputeco/siamese/cmd/siamese/predict"
	runscmder "github.com/papercomputeco/siamese/cmd/siamese/runs"
	searchcmder "github.com/papercomputeco/siamese/cmd/siamese/search"
	servecmder "github.com/papercomputeco/siamese/cmd/siamese/serve"
	traincmder "github.com/papercomputeco/siamese/cmd/siamese/train"
	versioncmder "github.com/papercomputeco/siamese/cmd/siamese/version"
)

const siameseLongDesc string = `Siamese trains and serves a shared-weight LSTM sentence similarity model.

Two sentences pass through the same frozen word embedding and the same LSTM,
and the final hidden states are compared with exp(-L1) (manhattan) or a
cosine transform. Scores fall in (0, 1].

Common workflows:
  siamese train              Train on SICK or Quora and save the model
  siamese evaluate           Measure a saved model on a dataset file
  siamese predict <a> <b>    Score two sentences
  siamese serve              Serve the model over HTTP and MCP`

const siameseShortDesc string = "Siamese - sentence similarity"

func NewSiameseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "siamese",
		Short:         siameseShortDesc,
		Long:          siameseLongDesc,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	// Global flags
	cmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override path to .siamese/ config directory")

	cmd.AddCommand(initcmder.NewInitCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(traincmder.NewTrainCmd())
	cmd.AddCommand(evaluatecmder.NewEvaluateCmd())
	cmd.AddCommand(predictcmder.NewPredictCmd())
	cmd.AddCommand(indexcmder.NewIndexCmd())
	cmd.AddCommand(searchcmder.NewSearchCmd())
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(runscmder.NewRunsCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
