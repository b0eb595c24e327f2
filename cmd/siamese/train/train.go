// Package traincmder provides the train command, which fits a siamese model on
// a sentence pair dataset and saves it with its training curves.
package traincmder

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/papercomputeco/siamese/cmd/siamese/runstore"
	"github.com/papercomputeco/siamese/pkg/artifact"
	"github.com/papercomputeco/siamese/pkg/cliui"
	"github.com/papercomputeco/siamese/pkg/config"
	"github.com/papercomputeco/siamese/pkg/dataset"
	"github.com/papercomputeco/siamese/pkg/embeddings"
	"github.com/papercomputeco/siamese/pkg/eventstream"
	eventstreamutils "github.com/papercomputeco/siamese/pkg/eventstream/utils"
	"github.com/papercomputeco/siamese/pkg/logger"
	"github.com/papercomputeco/siamese/pkg/nn"
	"github.com/papercomputeco/siamese/pkg/plot"
	"github.com/papercomputeco/siamese/pkg/siamese"
	"github.com/papercomputeco/siamese/pkg/similarity"
	"github.com/papercomputeco/siamese/pkg/storage"
	"github.com/papercomputeco/siamese/pkg/train"
)

// HistoryFile is the HTML report written next to the model.
const HistoryFile = "history.html"

const trainLongDesc string = `Train a siamese LSTM sentence similarity model.

Loads a SICK or Quora TSV file, builds a frozen embedding matrix from
pretrained word2vec or GloVe vectors, fits the shared LSTM with Adadelta and
per-tensor gradient clipping, then writes model.json, model.weights,
vocab.json and history.html to the output directory.

Every run is recorded in the run history store (see "siamese runs"), and
per-epoch metrics can be published to Kafka.

Examples:
  siamese train
  siamese train -f Datasets/SICK.tsv -e Embeddings/glove.6B.300d.txt -n 25
  siamese train --data-name quora -f Datasets/quora_duplicate_questions.tsv -m cosine`

const trainShortDesc string = "Train a sentence similarity model"

var trainFlags = []string{
	config.FlagDataName,
	config.FlagDataFile,
	config.FlagTrainingRatio,
	config.FlagEmbeddingFile,
	config.FlagMaxLen,
	config.FlagHiddenSize,
	config.FlagDistanceMetric,
	config.FlagBatchSize,
	config.FlagNumIters,
	config.FlagLearningRate,
	config.FlagClipNorm,
	config.FlagSeed,
	config.FlagWorkers,
	config.FlagOutputDir,
	config.FlagStorage,
	config.FlagSQLite,
	config.FlagPostgres,
	config.FlagEventsProvider,
	config.FlagEventsBrokers,
	config.FlagEventsTopic,
}

type settings struct {
	DataName      string
	DataFile      string
	TrainingRatio float64
	EmbeddingFile string
	MaxLen        int
	HiddenSize    int
	Metric        similarity.Metric
	BatchSize     int
	NumIters      int
	LearningRate  float64
	ClipNorm      float64
	Seed          int64
	Workers       int
	OutputDir     string
}

type TrainCommander struct {
	flags struct {
		dataName, dataFile, embeddingFile, metric, outputDir string
		storage, sqlite, postgres                            string
		eventsProvider, eventsBrokers, eventsTopic           string
		ratio, learningRate, clipNorm                        float64
		maxLen, hidden, batch, iters, seed, workers          int
	}

	configDir string
	debug     bool
	viper     *viper.Viper
	out       io.Writer
	logger    *slog.Logger
}

func NewTrainCmd() *cobra.Command {
	cmder := &TrainCommander{}

	cmd := &cobra.Command{
		Use:   "train",
		Short: trainShortDesc,
		Long:  trainLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")
			v, err := config.InitViper(cmder.configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			config.BindRegisteredFlags(v, cmd, config.Flags, trainFlags)
			cmder.viper = v
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmder.debug, _ = cmd.Flags().GetBool("debug")
			cmder.out = cmd.OutOrStdout()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return cmder.run(ctx)
		},
	}

	f := &cmder.flags
	config.AddStringFlag(cmd, config.Flags, config.FlagDataName, &f.dataName)
	config.AddStringFlag(cmd, config.Flags, config.FlagDataFile, &f.dataFile)
	config.AddFloatFlag(cmd, config.Flags, config.FlagTrainingRatio, &f.ratio)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingFile, &f.embeddingFile)
	config.AddIntFlag(cmd, config.Flags, config.FlagMaxLen, &f.maxLen)
	config.AddIntFlag(cmd, config.Flags, config.FlagHiddenSize, &f.hidden)
	config.AddStringFlag(cmd, config.Flags, config.FlagDistanceMetric, &f.metric)
	config.AddIntFlag(cmd, config.Flags, config.FlagBatchSize, &f.batch)
	config.AddIntFlag(cmd, config.Flags, config.FlagNumIters, &f.iters)
	config.AddFloatFlag(cmd, config.Flags, config.FlagLearningRate, &f.learningRate)
	config.AddFloatFlag(cmd, config.Flags, config.FlagClipNorm, &f.clipNorm)
	config.AddIntFlag(cmd, config.Flags, config.FlagSeed, &f.seed)
	config.AddIntFlag(cmd, config.Flags, config.FlagWorkers, &f.workers)
	config.AddStringFlag(cmd, config.Flags, config.FlagOutputDir, &f.outputDir)
	config.AddStringFlag(cmd, config.Flags, config.FlagStorage, &f.storage)
	config.AddStringFlag(cmd, config.Flags, config.FlagSQLite, &f.sqlite)
	config.AddStringFlag(cmd, config.Flags, config.FlagPostgres, &f.postgres)
	config.AddStringFlag(cmd, config.Flags, config.FlagEventsProvider, &f.eventsProvider)
	config.AddStringFlag(cmd, config.Flags, config.FlagEventsBrokers, &f.eventsBrokers)
	config.AddStringFlag(cmd, config.Flags, config.FlagEventsTopic, &f.eventsTopic)

	return cmd
}

func (c *TrainCommander) settings() settings {
	v := c.viper
	return settings{
		DataName:      v.GetString("data.name"),
		DataFile:      v.GetString("data.file"),
		TrainingRatio: v.GetFloat64("data.training_ratio"),
		EmbeddingFile: v.GetString("embedding.file"),
		MaxLen:        v.GetInt("model.max_len"),
		HiddenSize:    v.GetInt("model.hidden_size"),
		Metric:        similarity.ParseMetric(v.GetString("model.distance_metric")),
		BatchSize:     v.GetInt("train.batch_size"),
		NumIters:      v.GetInt("train.num_iters"),
		LearningRate:  v.GetFloat64("train.learning_rate"),
		ClipNorm:      v.GetFloat64("train.clip_norm"),
		Seed:          v.GetInt64("train.seed"),
		Workers:       v.GetInt("train.workers"),
		OutputDir:     v.GetString("output.dir"),
	}
}

func (c *TrainCommander) run(ctx context.Context) error {
	c.logger = logger.ForCLI(c.debug)
	s := c.settings()

	store, err := runstore.Open(ctx, c.viper, c.configDir, true)
	if err != nil {
		return err
	}
	defer store.Close()

	pub, err := eventstreamutils.NewPublisher(&eventstreamutils.NewPublisherOpts{
		ProviderType: c.viper.GetString("events.provider"),
		Brokers:      c.viper.GetString("events.brokers"),
		Topic:        c.viper.GetString("events.topic"),
	})
	if err != nil {
		return err
	}
	defer pub.Close()

	var ds *dataset.Dataset
	err = cliui.Step(c.out, "Loading "+s.DataName+" dataset", func() error {
		var err error
		ds, err = dataset.Load(dataset.Options{
			Name:          s.DataName,
			Path:          s.DataFile,
			TrainingRatio: s.TrainingRatio,
			MaxLen:        s.MaxLen,
			Seed:          s.Seed,
		})
		return err
	})
	if err != nil {
		return fmt.Errorf("loading dataset: %w", err)
	}
	fmt.Fprintf(c.out, "    %d training pairs, %d validation pairs, max sequence length %d, %d words\n",
		len(ds.Train), len(ds.Validation), ds.MaxLen, ds.VocabSize())

	var (
		weights *nn.Param
		stats   embeddings.Stats
	)
	err = cliui.Step(c.out, "Building embedding matrix", func() error {
		var err error
		weights, stats, err = embeddings.BuildMatrix(s.EmbeddingFile, ds.Vocab, s.Seed)
		return err
	})
	if err != nil {
		return fmt.Errorf("building embeddings: %w", err)
	}
	c.logger.Debug("embedding coverage",
		"dim", stats.Dim,
		"found", stats.Found,
		"missing", stats.Missing,
		"file_words", stats.FileWords,
	)

	model, err := siamese.New(siamese.Config{
		MaxLen:        ds.MaxLen,
		EmbeddingSize: stats.Dim,
		VocabSize:     ds.VocabSize(),
		HiddenSize:    s.HiddenSize,
		Metric:        s.Metric,
	}, weights, rand.New(rand.NewSource(s.Seed)))
	if err != nil {
		return fmt.Errorf("assembling model: %w", err)
	}

	summary := model.Summary()
	rendered, err := cliui.RenderMarkdown(c.out, summary.Markdown())
	if err != nil {
		c.logger.Debug("rendering summary", "error", err)
	}
	fmt.Fprintln(c.out, rendered)

	run := &storage.Run{
		ID:            uuid.NewString(),
		Dataset:       s.DataName,
		DataFile:      s.DataFile,
		EmbeddingFile: s.EmbeddingFile,
		OutputDir:     s.OutputDir,
		Metric:        s.Metric.String(),
		MaxLen:        ds.MaxLen,
		HiddenSize:    s.HiddenSize,
		BatchSize:     s.BatchSize,
		Epochs:        s.NumIters,
		LearningRate:  s.LearningRate,
		TrainSamples:  len(ds.Train),
		ValSamples:    len(ds.Validation),
		Status:        storage.StatusRunning,
		StartedAt:     time.Now(),
	}
	if err := store.CreateRun(ctx, run); err != nil {
		return fmt.Errorf("recording run: %w", err)
	}
	c.logger.Info("training started", "run_id", run.ID, "epochs", s.NumIters, "metric", s.Metric.String())

	opts := train.DefaultOptions()
	opts.BatchSize = s.BatchSize
	opts.Epochs = s.NumIters
	opts.LearningRate = s.LearningRate
	opts.ClipNorm = s.ClipNorm
	opts.Seed = s.Seed
	opts.Workers = s.Workers
	opts.RunID = run.ID
	opts.Logger = c.logger
	opts.Observers = []train.Observer{
		train.LogObserver(c.logger),
		storage.EpochObserver(store),
		eventstream.EpochObserver(pub),
	}

	history, err := train.Fit(ctx, model, ds.Train, ds.Validation, opts)
	if err == nil {
		err = c.save(s.OutputDir, model, ds.Vocab, history)
	}

	c.finish(ctx, store, pub, run, history, err)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.out, "\n%s\n", plot.Terminal(history))
	fmt.Fprintf(c.out, "%d epochs in %s\n", history.Epochs(), cliui.FormatClock(history.Duration))
	fmt.Fprintf(c.out, "Model saved to %s (run %s)\n", s.OutputDir, run.ID)
	return nil
}

func (c *TrainCommander) save(dir string, model *siamese.Model, vocab *dataset.Vocabulary, history *train.History) error {
	err := cliui.Step(c.out, "Saving model to "+dir, func() error {
		return artifact.Save(dir, model, vocab)
	})
	if err != nil {
		return fmt.Errorf("saving model: %w", err)
	}

	report := filepath.Join(dir, HistoryFile)
	err = cliui.Step(c.out, "Writing "+report, func() error {
		return plot.WriteHTML(report, history)
	})
	if err != nil {
		return fmt.Errorf("writing history: %w", err)
	}
	return nil
}

// finish records the outcome of a run in the store and on the event stream.
// Failures here are logged; the training result stands.
func (c *TrainCommander) finish(ctx context.Context, store storage.Driver, pub eventstream.Publisher, run *storage.Run, history *train.History, runErr error) {
	status, msg := storage.StatusCompleted, ""
	if runErr != nil {
		status, msg = storage.StatusFailed, runErr.Error()
	}

	// An interrupted run is still recorded.
	ctx = context.WithoutCancel(ctx)

	now := time.Now()
	if err := store.FinishRun(ctx, run.ID, status, msg, now); err != nil {
		c.logger.Warn("recording run outcome", "run_id", run.ID, "error", err)
	}

	meta := eventstream.RunMeta{
		Status:     string(status),
		Error:      msg,
		DurationMs: now.Sub(run.StartedAt).Milliseconds(),
		OutputDir:  run.OutputDir,
	}
	if history != nil {
		meta.Epochs = history.Epochs()
	}
	if err := pub.Publish(ctx, eventstream.NewRunFinishedEvent(run.ID, meta)); err != nil {
		c.logger.Warn("publishing run outcome", "run_id", run.ID, "error", err)
	}

	if runErr != nil {
		c.logger.Error("training failed", "run_id", run.ID, "error", runErr)
	} else {
		c.logger.Info("training finished", "run_id", run.ID, "epochs", meta.Epochs)
	}
}
