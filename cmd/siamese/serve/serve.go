// Package servecmder provides the serve command, which runs the scoring API
// and MCP server over a trained model.
package servecmder

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/papercomputeco/siamese/api"
	"github.com/papercomputeco/siamese/cmd/siamese/vectorstore"
	"github.com/papercomputeco/siamese/pkg/artifact"
	"github.com/papercomputeco/siamese/pkg/config"
	embeddingutils "github.com/papercomputeco/siamese/pkg/embeddings/utils"
	"github.com/papercomputeco/siamese/pkg/index"
	"github.com/papercomputeco/siamese/pkg/logger"
)

// providerNone disables the sentence index, and with it search and indexing.
const providerNone = "none"

type ServeCommander struct {
	listen         string
	modelDir       string
	vectorProvider string
	vectorTarget   string
	workers        int
	logFile        string
	noWatch        bool

	configDir string
	debug     bool
	viper     *viper.Viper
	logger    *slog.Logger
}

const serveLongDesc string = `Serve a trained model over HTTP.

The API exposes:
  GET  /ping             Health check
  GET  /v1/model         Model structure and fingerprint
  POST /v1/similarity    Score sentence pairs
  POST /v1/encode        Encode sentences to hidden states
  GET  /v1/search        Similarity search over indexed sentences
  POST /v1/index         Queue sentences for indexing
       /mcp              MCP server with similarity and search tools

The model directory is watched and the model is reloaded in place when a new
one is saved there. Pass --no-watch to serve a fixed model.

Search and indexing need a vector store; pass --vector-store-provider none to
serve scoring only.

Examples:
  siamese serve
  siamese serve -d Models --listen :9000
  siamese serve --vector-store-provider qdrant --vector-store-target localhost:6334`

const serveShortDesc string = "Serve the model over HTTP and MCP"

var serveFlags = []string{
	config.FlagAPIListen,
	config.FlagModelDir,
	config.FlagWorkers,
	config.FlagVectorProvider,
	config.FlagVectorTarget,
}

func NewServeCmd() *cobra.Command {
	cmder := &ServeCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")
			v, err := config.InitViper(cmder.configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			config.BindRegisteredFlags(v, cmd, config.Flags, serveFlags)
			cmder.viper = v
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}
			cmder.listen = cmder.viper.GetString("api.listen")
			cmder.modelDir = cmder.viper.GetString("output.dir")
			cmder.workers = cmder.viper.GetInt("train.workers")
			cmder.vectorProvider = cmder.viper.GetString("vector_store.provider")
			return cmder.run(cmd.Context())
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagAPIListen, &cmder.listen)
	config.AddStringFlag(cmd, config.Flags, config.FlagModelDir, &cmder.modelDir)
	config.AddIntFlag(cmd, config.Flags, config.FlagWorkers, &cmder.workers)
	config.AddStringFlag(cmd, config.Flags, config.FlagVectorProvider, &cmder.vectorProvider)
	config.AddStringFlag(cmd, config.Flags, config.FlagVectorTarget, &cmder.vectorTarget)
	cmd.Flags().StringVar(&cmder.logFile, "log-file", "", "Also write JSON logs to this file")
	cmd.Flags().BoolVar(&cmder.noWatch, "no-watch", false, "Do not reload the model when it changes on disk")

	return cmd
}

func (c *ServeCommander) run(parent context.Context) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c.logger = logger.ForCLI(c.debug)
	if c.logFile != "" {
		f, err := os.OpenFile(c.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		defer f.Close()
		c.logger = logger.Multi(c.logger, logger.New(
			logger.WithDebug(c.debug),
			logger.WithJSON(true),
			logger.WithWriter(f),
		))
	}

	bundle, err := artifact.Load(c.modelDir)
	if err != nil {
		return fmt.Errorf("loading model: %w", err)
	}
	if bundle.Vocab == nil {
		return fmt.Errorf("model in %s has no vocabulary", bundle.Dir)
	}
	models := artifact.NewHolder(bundle)
	c.logger.Info("loaded model",
		"dir", bundle.Dir,
		"metric", bundle.Model.Config().Metric.String(),
		"vocab_size", bundle.Vocab.Size(),
	)

	apiConfig := api.Config{
		ListenAddr: c.listen,
		Models:     models,
	}

	if c.vectorProvider != providerNone {
		driver, err := vectorstore.Open(ctx, c.viper, c.configDir, bundle, c.logger)
		if err != nil {
			return fmt.Errorf("opening vector store: %w", err)
		}
		defer driver.Close()

		embedder, err := embeddingutils.NewEmbedder(&embeddingutils.NewEmbedderOpts{
			ProviderType: embeddingutils.ProviderModel,
			Source:       models,
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
		defer pool.Close()

		apiConfig.VectorDriver = driver
		apiConfig.Embedder = embedder
		apiConfig.Indexer = pool
	} else {
		c.logger.Info("vector store disabled, search and indexing are off")
	}

	server, err := api.NewServer(apiConfig, c.logger)
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	if !c.noWatch {
		go func() {
			if err := artifact.Watch(ctx, models, artifact.DefaultDebounce, c.logger); err != nil {
				c.logger.Error("model watcher stopped", "error", err)
			}
		}()
	}

	errChan := make(chan error, 1)
	go func() {
		if err := server.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		c.logger.Info("shutting down")
		return server.Shutdown()
	}
}
