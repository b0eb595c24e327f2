package testutils

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/papercomputeco/siamese/pkg/vector"
)

// MockVectorDriver is an in-memory vector driver with exact L2 search.
type MockVectorDriver struct {
	mu        sync.Mutex
	documents map[string]vector.Document

	// FailAdd causes Add to return this error when set
	FailAdd error
}

func NewMockVectorDriver() *MockVectorDriver {
	return &MockVectorDriver{
		documents: make(map[string]vector.Document),
	}
}

func (m *MockVectorDriver) Add(_ context.Context, docs []vector.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailAdd != nil {
		return m.FailAdd
	}
	for _, d := range docs {
		m.documents[d.ID] = d
	}
	return nil
}

func (m *MockVectorDriver) Query(_ context.Context, embedding []float32, topK int) ([]vector.QueryResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	results := make([]vector.QueryResult, 0, len(m.documents))
	for _, d := range m.documents {
		var sum float64
		for i := range min(len(d.Embedding), len(embedding)) {
			diff := float64(d.Embedding[i] - embedding[i])
			sum += diff * diff
		}
		results = append(results, vector.QueryResult{
			Document: d,
			Score:    float32(1 / (1 + math.Sqrt(sum))),
		})
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ID < results[j].ID
	})
	if topK > 0 && len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

func (m *MockVectorDriver) Get(_ context.Context, ids []string) ([]vector.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var docs []vector.Document
	for _, id := range ids {
		if d, ok := m.documents[id]; ok {
			docs = append(docs, d)
		}
	}
	return docs, nil
}

func (m *MockVectorDriver) Delete(_ context.Context, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		delete(m.documents, id)
	}
	return nil
}

// Len returns the number of stored documents.
func (m *MockVectorDriver) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.documents)
}

func (m *MockVectorDriver) Close() error {
	return nil
}
