package api

import (
	"errors"
	"log/slog"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/siamese/api/mcp"
)

// Server is the API server for scoring and searching sentences.
type Server struct {
	config Config
	logger *slog.Logger
	app    *fiber.App
}

// NewServer creates a new API server.
func NewServer(config Config, logger *slog.Logger) (*Server, error) {
	if config.Models == nil || config.Models.Current() == nil {
		return nil, errors.New("api server needs a loaded model")
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config: config,
		logger: logger,
		app:    app,
	}

	mcpServer, err := mcp.NewServer(mcp.Config{
		Models:       config.Models,
		VectorDriver: config.VectorDriver,
		Embedder:     config.Embedder,
		Logger:       logger,
	})
	if err != nil {
		return nil, err
	}

	app.Get("/ping", s.handlePing)
	app.Get("/v1/model", s.handleModel)
	app.Post("/v1/similarity", s.handleSimilarity)
	app.Post("/v1/encode", s.handleEncode)
	app.Get("/v1/search", s.handleSearchEndpoint)
	app.Post("/v1/index", s.handleIndex)
	app.All("/mcp", adaptor.HTTPHandler(mcpServer.Handler()))

	return s, nil
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server", "listen", s.config.ListenAddr)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
