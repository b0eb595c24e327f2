// Package api provides the HTTP scoring API over a loaded similarity model.
package api

import (
	"github.com/papercomputeco/siamese/pkg/artifact"
	"github.com/papercomputeco/siamese/pkg/embeddings"
	"github.com/papercomputeco/siamese/pkg/index"
	"github.com/papercomputeco/siamese/pkg/vector"
)

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8081")
	ListenAddr string

	// Models serves the active model and is swapped on hot reload.
	Models *artifact.Holder

	// VectorDriver and Embedder enable /v1/search and the MCP search tool.
	VectorDriver vector.Driver
	Embedder     embeddings.Embedder

	// Indexer enables POST /v1/index.
	Indexer *index.Pool
}
