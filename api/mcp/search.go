package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	apisearch "github.com/papercomputeco/siamese/api/search"
)

var (
	searchToolName    = "search"
	searchDescription = "Find indexed sentences most similar to the query text. Candidates come from the sentence index and are ranked by the loaded model's similarity score."
)

// SearchInput represents the input arguments for the search tool.
type SearchInput struct {
	Query string `json:"query" jsonschema:"the sentence to find similar sentences for"`
	TopK  int    `json:"top_k,omitempty" jsonschema:"number of results to return (default: 5)"`
}

func (s *Server) handleSearch(ctx context.Context, _ *mcp.CallToolRequest, input SearchInput) (*mcp.CallToolResult, apisearch.SearchOutput, error) {
	logger := s.config.Logger

	output, err := apisearch.Search(
		ctx,
		input.Query,
		input.TopK,
		s.config.Models.Current().Model.Config().Metric,
		s.config.Embedder,
		s.config.VectorDriver,
		logger,
	)
	if err != nil {
		logger.Error("MCP search failed", "error", err)
		return errorResult(fmt.Sprintf("Search failed: %v", err)), apisearch.SearchOutput{}, nil
	}

	jsonBytes, err := json.Marshal(output)
	if err != nil {
		return errorResult(fmt.Sprintf("Failed to serialize results: %v", err)), apisearch.SearchOutput{}, nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(jsonBytes)}},
	}, *output, nil
}
