package api

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	apisearch "github.com/papercomputeco/siamese/api/search"
	"github.com/papercomputeco/siamese/pkg/embeddings/encoder"
)

// handleSearchEndpoint handles GET /v1/search requests.
// Query parameters:
//   - query (required): the sentence to search for
//   - top_k (optional, default 5): number of results to return
func (s *Server) handleSearchEndpoint(c *fiber.Ctx) error {
	if s.config.VectorDriver == nil || s.config.Embedder == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{
			Error: "search is not configured: vector driver and embedder are required",
		})
	}

	query := c.Query("query")
	if query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "query parameter is required",
		})
	}

	topK := apisearch.DefaultTopK
	if topKStr := c.Query("top_k"); topKStr != "" {
		parsed, err := strconv.Atoi(topKStr)
		if err != nil || parsed <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
				Error: "top_k must be a positive integer",
			})
		}
		topK = parsed
	}

	output, err := apisearch.Search(
		c.Context(),
		query,
		topK,
		s.config.Models.Current().Model.Config().Metric,
		s.config.Embedder,
		s.config.VectorDriver,
		s.logger,
	)
	if errors.Is(err, encoder.ErrNoKnownWords) {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(ErrorResponse{Error: err.Error()})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error: err.Error(),
		})
	}

	return c.JSON(output)
}
