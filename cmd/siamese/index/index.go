// Package indexcmder provides the index command, which encodes sentences with
// a saved model and stores them in the sentence index.
package indexcmder

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/papercomputeco/siamese/cmd/siamese/vectorstore"
	"github.com/papercomputeco/siamese/pkg/artifact"
	"github.com/papercomputeco/siamese/pkg/cliui"
	"github.com/papercomputeco/siamese/pkg/config"
	"github.com/papercomputeco/siamese/pkg/dataset"
	embeddingutils "github.com/papercomputeco/siamese/pkg/embeddings/utils"
	"github.com/papercomputeco/siamese/pkg/index"
	"github.com/papercomputeco/siamese/pkg/logger"
)

const indexLongDesc string = `Index sentences for similarity search.

Each sentence is encoded to the model's final LSTM hidden state and stored in
the configured vector store (sqlite-vec or qdrant). Sentences are read one per
line from the given file, from stdin when the file is "-", or from both sides
of every pair in a dataset file with --from-dataset.

Re-indexing a sentence replaces its earlier entry.

Examples:
  siamese index sentences.txt
  cat sentences.txt | siamese index -
  siamese index --from-dataset -f Datasets/SICK.tsv`

const indexShortDesc string = "Index sentences for similarity search"

var indexFlags = []string{
	config.FlagModelDir,
	config.FlagDataName,
	config.FlagDataFile,
	config.FlagWorkers,
	config.FlagVectorProvider,
	config.FlagVectorTarget,
}

type indexCommander struct {
	modelDir, dataName, dataFile string
	vectorProvider, vectorTarget string
	workers                      int
	fromDataset                  bool

	configDir string
	debug     bool
	viper     *viper.Viper
	in        io.Reader
	out       io.Writer
	logger    *slog.Logger
}

func NewIndexCmd() *cobra.Command {
	cmder := &indexCommander{}

	cmd := &cobra.Command{
		Use:   "index [file]",
		Short: indexShortDesc,
		Long:  indexLongDesc,
		Args:  cobra.MaximumNArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")
			v, err := config.InitViper(cmder.configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			config.BindRegisteredFlags(v, cmd, config.Flags, indexFlags)
			cmder.viper = v
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.debug, _ = cmd.Flags().GetBool("debug")
			cmder.in = cmd.InOrStdin()
			cmder.out = cmd.OutOrStdout()
			cmder.modelDir = cmder.viper.GetString("output.dir")
			cmder.dataName = cmder.viper.GetString("data.name")
			cmder.dataFile = cmder.viper.GetString("data.file")
			cmder.workers = cmder.viper.GetInt("train.workers")

			if cmder.fromDataset == (len(args) == 1) {
				return errors.New("pass either a sentence file or --from-dataset")
			}
			var file string
			if len(args) == 1 {
				file = args[0]
			}
			return cmder.run(cmd.Context(), file)
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagModelDir, &cmder.modelDir)
	config.AddStringFlag(cmd, config.Flags, config.FlagDataName, &cmder.dataName)
	config.AddStringFlag(cmd, config.Flags, config.FlagDataFile, &cmder.dataFile)
	config.AddIntFlag(cmd, config.Flags, config.FlagWorkers, &cmder.workers)
	config.AddStringFlag(cmd, config.Flags, config.FlagVectorProvider, &cmder.vectorProvider)
	config.AddStringFlag(cmd, config.Flags, config.FlagVectorTarget, &cmder.vectorTarget)
	cmd.Flags().BoolVar(&cmder.fromDataset, "from-dataset", false, "Index every sentence of the dataset file")

	return cmd
}

func (c *indexCommander) run(ctx context.Context, file string) error {
	c.logger = logger.ForCLI(c.debug)

	bundle, err := artifact.Load(c.modelDir)
	if err != nil {
		return fmt.Errorf("loading model: %w", err)
	}

	sentences, err := c.sentences(file)
	if err != nil {
		return err
	}
	if len(sentences) == 0 {
		return errors.New("no sentences to index")
	}

	driver, err := vectorstore.Open(ctx, c.viper, c.configDir, bundle, c.logger)
	if err != nil {
		return fmt.Errorf("opening vector store: %w", err)
	}
	defer driver.Close()

	embedder, err := embeddingutils.NewEmbedder(&embeddingutils.NewEmbedderOpts{
		ProviderType: embeddingutils.ProviderModel,
		Source:       artifact.NewHolder(bundle),
	})
	if err != nil {
		return err
	}
	defer embedder.Close()

	pool, err := index.NewPool(&index.Config{
		VectorDriver: driver,
		Embedder:     embedder,
		NumWorkers:   uint(max(c.workers, 1)),
		Logger:       c.logger,
	})
	if err != nil {
		return err
	}

	err = cliui.Step(c.out, fmt.Sprintf("Indexing %d sentences", len(sentences)), func() error {
		defer pool.Close()
		for _, s := range sentences {
			if err := pool.Submit(ctx, index.Job{Text: s}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("indexing: %w", err)
	}

	stats := pool.Stats()
	fmt.Fprintf(c.out, "    %d indexed, %d failed\n", stats.Indexed, stats.Failed)
	if stats.Failed > 0 {
		c.logger.Warn("some sentences were not indexed", "failed", stats.Failed)
	}
	return nil
}

// sentences returns the unique non-blank sentences to index, in first-seen
// order.
func (c *indexCommander) sentences(file string) ([]string, error) {
	var raw []string

	switch {
	case c.fromDataset:
		pairs, err := dataset.LoadPairs(c.dataName, c.dataFile, dataset.NewVocabulary(), 1)
		if err != nil {
			return nil, fmt.Errorf("loading dataset: %w", err)
		}
		for _, p := range pairs {
			raw = append(raw, p.LeftText, p.RightText)
		}

	default:
		r := c.in
		if file != "-" {
			f, err := os.Open(file)
			if err != nil {
				return nil, fmt.Errorf("opening sentences: %w", err)
			}
			defer f.Close()
			r = f
		}
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			raw = append(raw, scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("reading sentences: %w", err)
		}
	}

	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		id := index.DocumentID(s)
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, s)
	}
	return out, nil
}
