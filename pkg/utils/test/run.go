package testutils

import (
	"time"

	"github.com/papercomputeco/siamese/pkg/storage"
)

// NewTestRun creates a running run started at the given time.
func NewTestRun(id string, startedAt time.Time) *storage.Run {
	return &storage.Run{
		ID:            id,
		Dataset:       "sick",
		DataFile:      "Datasets/SICK.tsv",
		EmbeddingFile: "Embeddings/test.bin",
		OutputDir:     "Models",
		Metric:        "manhattan",
		MaxLen:        20,
		HiddenSize:    50,
		BatchSize:     32,
		Epochs:        7,
		LearningRate:  1.0,
		TrainSamples:  8,
		ValSamples:    2,
		Status:        storage.StatusRunning,
		StartedAt:     startedAt.UTC(),
	}
}
