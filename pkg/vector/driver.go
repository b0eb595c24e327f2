// Package vector provides interfaces and implementations for storing encoded
// sentences and finding their nearest neighbours.
package vector

import "context"

// Document represents a stored sentence with its encoding.
type Document struct {
	// ID is a unique identifier for the document.
	ID string

	// Text is the sentence that was encoded.
	Text string

	// Embedding is the encoder's final hidden state for Text.
	Embedding []float32
}

// QueryResult represents a search result with similarity score.
type QueryResult struct {
	Document

	// Score represents the similarity score (higher = more similar).
	Score float32
}

// Driver handles storage and retrieval of sentence encodings.
type Driver interface {
	// Add stores documents with their embeddings.
	// If a document with the same ID already exists, implementers should update
	// the document.
	Add(ctx context.Context, docs []Document) error

	// Query finds the topK nearest documents to the given embedding.
	Query(ctx context.Context, embedding []float32, topK int) ([]QueryResult, error)

	// Get retrieves documents by their IDs.
	Get(ctx context.Context, ids []string) ([]Document, error)

	// Delete removes documents by their IDs.
	Delete(ctx context.Context, ids []string) error

	// Close releases any resources held by the driver.
	Close() error
}
