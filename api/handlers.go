package api

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/siamese/pkg/index"
	"github.com/papercomputeco/siamese/pkg/siamese"
)

// DuplicateThreshold is the score above which a pair is reported as a
// duplicate, matching the training accuracy threshold.
const DuplicateThreshold = 0.5

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ModelResponse describes the active model.
type ModelResponse struct {
	Dir                string         `json:"dir"`
	Fingerprint        string         `json:"fingerprint"`
	Config             siamese.Config `json:"config"`
	VocabularySize     int            `json:"vocabulary_size"`
	TotalParams        int            `json:"total_params"`
	TrainableParams    int            `json:"trainable_params"`
	NonTrainableParams int            `json:"non_trainable_params"`
}

// SimilarityRequest is the body of POST /v1/similarity.
type SimilarityRequest struct {
	Left  string `json:"left"`
	Right string `json:"right"`
}

// SimilarityResponse is the score of one sentence pair.
type SimilarityResponse struct {
	Score     float64 `json:"score"`
	Metric    string  `json:"metric"`
	Duplicate bool    `json:"duplicate"`
}

// EncodeRequest is the body of POST /v1/encode.
type EncodeRequest struct {
	Text string `json:"text"`
}

// EncodeResponse holds the padded token ids and the encoder output.
type EncodeResponse struct {
	Tokens    []int     `json:"tokens"`
	Embedding []float64 `json:"embedding"`
}

// IndexRequest is the body of POST /v1/index.
type IndexRequest struct {
	Texts []string `json:"texts"`
}

// IndexResponse reports how many texts were queued.
type IndexResponse struct {
	Queued  int `json:"queued"`
	Dropped int `json:"dropped"`
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

func (s *Server) handleModel(c *fiber.Ctx) error {
	b := s.config.Models.Current()

	fingerprint, err := b.Structure.Fingerprint()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to fingerprint model"})
	}

	sum := b.Model.Summary()
	resp := ModelResponse{
		Dir:                b.Dir,
		Fingerprint:        fingerprint,
		Config:             b.Model.Config(),
		TotalParams:        sum.Total,
		TrainableParams:    sum.Trainable,
		NonTrainableParams: sum.NonTrainable,
	}
	if b.Vocab != nil {
		resp.VocabularySize = b.Vocab.Size()
	}
	return c.JSON(resp)
}

func (s *Server) handleSimilarity(c *fiber.Ctx) error {
	var req SimilarityRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}
	if strings.TrimSpace(req.Left) == "" || strings.TrimSpace(req.Right) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "left and right are required"})
	}

	b := s.config.Models.Current()
	score, err := b.ScoreText(req.Left, req.Right)
	if err != nil {
		s.logger.Warn("failed to score sentences", "error", err)
		return c.Status(fiber.StatusUnprocessableEntity).JSON(ErrorResponse{Error: err.Error()})
	}

	return c.JSON(SimilarityResponse{
		Score:     score,
		Metric:    b.Model.Config().Metric.String(),
		Duplicate: score > DuplicateThreshold,
	})
}

func (s *Server) handleEncode(c *fiber.Ctx) error {
	var req EncodeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}

	b := s.config.Models.Current()
	ids, err := b.Encode(req.Text)
	if err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(ErrorResponse{Error: err.Error()})
	}
	h, err := b.Model.Encode(ids)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: err.Error()})
	}

	return c.JSON(EncodeResponse{Tokens: ids, Embedding: h})
}

func (s *Server) handleIndex(c *fiber.Ctx) error {
	if s.config.Indexer == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{
			Error: "indexing is not configured: vector driver is required",
		})
	}

	var req IndexRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}
	if len(req.Texts) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "texts are required"})
	}

	var resp IndexResponse
	for _, t := range req.Texts {
		if s.config.Indexer.Enqueue(index.Job{Text: t}) {
			resp.Queued++
		} else {
			resp.Dropped++
		}
	}
	if resp.Queued == 0 {
		return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{Error: "index queue full"})
	}
	return c.Status(fiber.StatusAccepted).JSON(resp)
}
