// Package search provides shared search types and logic for similarity
// search over indexed sentences. It is used by the REST API endpoint, the
// MCP server tool and the search command.
package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/papercomputeco/siamese/pkg/embeddings"
	"github.com/papercomputeco/siamese/pkg/similarity"
	"github.com/papercomputeco/siamese/pkg/vector"
)

const (
	// DefaultTopK is used when a request does not set top_k.
	DefaultTopK = 5

	// candidateFactor widens the vector store query so that rescoring with
	// the model metric can reorder beyond the store's own ranking.
	candidateFactor = 4
)

// ErrEmptyQuery is returned for a blank query.
var ErrEmptyQuery = errors.New("query is required")

// SearchInput represents the input arguments for a search request.
type SearchInput struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k,omitempty"`
}

// SearchResult represents a single search result.
type SearchResult struct {
	ID   string `json:"id"`
	Text string `json:"text"`

	// Score is the model similarity between the query and Text.
	Score float64 `json:"score"`

	// IndexScore is the vector store's own score.
	IndexScore float32 `json:"index_score"`
}

// SearchOutput represents the output of a search operation.
type SearchOutput struct {
	Query   string         `json:"query"`
	Metric  string         `json:"metric"`
	Results []SearchResult `json:"results"`
	Count   int            `json:"count"`
}

// Search encodes the query, fetches candidates from the vector store and
// ranks them by the model similarity under metric.
func Search(
	ctx context.Context,
	query string,
	topK int,
	metric similarity.Metric,
	embedder embeddings.Embedder,
	vectorDriver vector.Driver,
	logger *slog.Logger,
) (*SearchOutput, error) {
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if topK <= 0 {
		topK = DefaultTopK
	}

	logger.Debug("search request", "query", query, "top_k", topK)

	queryEmbedding, err := embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	candidates, err := vectorDriver.Query(ctx, queryEmbedding, topK*candidateFactor)
	if err != nil {
		return nil, fmt.Errorf("failed to query vector store: %w", err)
	}

	q := widen(queryEmbedding)
	results := make([]SearchResult, 0, len(candidates))
	for _, c := range candidates {
		score, err := similarity.Score(metric, q, widen(c.Embedding))
		if err != nil {
			logger.Warn("skipping candidate indexed with another model",
				"id", c.ID,
				"dimensions", len(c.Embedding),
				"error", err,
			)
			continue
		}
		results = append(results, SearchResult{
			ID:         c.ID,
			Text:       c.Text,
			Score:      score,
			IndexScore: c.Score,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ID < results[j].ID
	})
	if len(results) > topK {
		results = results[:topK]
	}

	return &SearchOutput{
		Query:   query,
		Metric:  metric.String(),
		Results: results,
		Count:   len(results),
	}, nil
}

func widen(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}
