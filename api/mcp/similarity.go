package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

var (
	similarityToolName    = "similarity"
	similarityDescription = "Score how semantically similar two sentences are with the loaded Siamese LSTM model. Returns a score where higher means more similar; with the manhattan metric the score is in (0, 1] and 1 means identical encodings."
)

// SimilarityInput represents the input arguments for the similarity tool.
type SimilarityInput struct {
	Left  string `json:"left" jsonschema:"the first sentence"`
	Right string `json:"right" jsonschema:"the second sentence"`
}

// SimilarityOutput represents the output of the similarity tool.
type SimilarityOutput struct {
	Left   string  `json:"left"`
	Right  string  `json:"right"`
	Score  float64 `json:"score"`
	Metric string  `json:"metric"`
}

func (s *Server) handleSimilarity(_ context.Context, _ *mcp.CallToolRequest, input SimilarityInput) (*mcp.CallToolResult, SimilarityOutput, error) {
	logger := s.config.Logger
	logger.Debug("MCP similarity request", "left", input.Left, "right", input.Right)

	b := s.config.Models.Current()
	score, err := b.ScoreText(input.Left, input.Right)
	if err != nil {
		logger.Error("failed to score sentences", "error", err)
		return errorResult(fmt.Sprintf("Failed to score sentences: %v", err)), SimilarityOutput{}, nil
	}

	output := SimilarityOutput{
		Left:   input.Left,
		Right:  input.Right,
		Score:  score,
		Metric: b.Model.Config().Metric.String(),
	}

	// Structured output is also returned as serialized JSON text for
	// clients that only read text content.
	jsonBytes, err := json.Marshal(output)
	if err != nil {
		return errorResult(fmt.Sprintf("Failed to serialize result: %v", err)), SimilarityOutput{}, nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(jsonBytes)}},
	}, output, nil
}
