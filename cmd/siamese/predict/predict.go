// Package predictcmder provides the predict command, which scores two
// sentences with a saved model.
package predictcmder

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/papercomputeco/siamese/pkg/artifact"
	"github.com/papercomputeco/siamese/pkg/config"
)

const predictLongDesc string = `Score the similarity of two sentences with a saved model.

The score lies in (0, 1]; identical sentences under the manhattan metric
score exactly 1.

Examples:
  siamese predict "A man is playing a guitar" "A man plays the guitar"
  siamese predict -d Models --json "How do I learn Go?" "What is the best way to learn Go?"`

const predictShortDesc string = "Score two sentences"

type predictCommander struct {
	modelDir string
	jsonOut  bool

	viper *viper.Viper
	out   io.Writer
}

// Prediction is the --json output of predict.
type Prediction struct {
	Left   string  `json:"left"`
	Right  string  `json:"right"`
	Score  float64 `json:"score"`
	Metric string  `json:"metric"`
}

func NewPredictCmd() *cobra.Command {
	cmder := &predictCommander{}

	cmd := &cobra.Command{
		Use:   "predict <sentence> <sentence>",
		Short: predictShortDesc,
		Long:  predictLongDesc,
		Args:  cobra.ExactArgs(2),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			v, err := config.InitViper(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			config.BindRegisteredFlags(v, cmd, config.Flags, []string{config.FlagModelDir})
			cmder.viper = v
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.out = cmd.OutOrStdout()
			cmder.modelDir = cmder.viper.GetString("output.dir")
			return cmder.run(args[0], args[1])
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagModelDir, &cmder.modelDir)
	cmd.Flags().BoolVar(&cmder.jsonOut, "json", false, "Print the result as JSON")

	return cmd
}

func (c *predictCommander) run(left, right string) error {
	bundle, err := artifact.Load(c.modelDir)
	if err != nil {
		return fmt.Errorf("loading model: %w", err)
	}

	score, err := bundle.ScoreText(left, right)
	if err != nil {
		return fmt.Errorf("scoring: %w", err)
	}

	p := Prediction{
		Left:   left,
		Right:  right,
		Score:  score,
		Metric: bundle.Model.Config().Metric.String(),
	}
	if c.jsonOut {
		enc := json.NewEncoder(c.out)
		enc.SetIndent("", "  ")
		return enc.Encode(p)
	}

	_, err = fmt.Fprintf(c.out, "%.6f\n", p.Score)
	return err
}
