// Package mcp provides an MCP (Model Context Protocol) server exposing the
// loaded similarity model as tools.
package mcp

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/siamese/pkg/artifact"
	"github.com/papercomputeco/siamese/pkg/embeddings"
	"github.com/papercomputeco/siamese/pkg/utils"
	"github.com/papercomputeco/siamese/pkg/vector"
)

type Config struct {
	// Models serves the active model. It is required.
	Models *artifact.Holder

	// VectorDriver and Embedder enable the search tool when both are set.
	VectorDriver vector.Driver
	Embedder     embeddings.Embedder

	Logger *slog.Logger
}

type Server struct {
	config    Config
	mcpServer *mcp.Server
	handler   *mcp.StreamableHTTPHandler
}

// NewServer creates a new MCP server with the similarity tool and, when a
// sentence index is configured, the search tool.
func NewServer(c Config) (*Server, error) {
	if c.Models == nil || c.Models.Current() == nil {
		return nil, errors.New("model is required")
	}
	if c.Logger == nil {
		return nil, errors.New("logger is required")
	}

	s := &Server{
		config: c,
	}

	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "siamese",
			Version: utils.Version,
		},
		&mcp.ServerOptions{},
	)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        similarityToolName,
		Description: similarityDescription,
	}, s.handleSimilarity)

	if c.VectorDriver != nil && c.Embedder != nil {
		mcp.AddTool(mcpServer, &mcp.Tool{
			Name:        searchToolName,
			Description: searchDescription,
		}, s.handleSearch)
	}

	s.mcpServer = mcpServer

	// Create a streamable HTTP net/http handler for stateless operations
	s.handler = mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server {
			return mcpServer
		},
		&mcp.StreamableHTTPOptions{
			Stateless: true,
		},
	)

	return s, nil
}

// Handler returns the HTTP handler for the MCP server.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func errorResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}
