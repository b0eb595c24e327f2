package vector

import "errors"

var (
	// ErrNotFound is returned when a document is not found in the vector store.
	ErrNotFound = errors.New("document not found")

	// ErrEmbedding is returned when encoding a sentence fails.
	ErrEmbedding = errors.New("embedding failed")

	// ErrConnection is returned when the vector store connection fails.
	ErrConnection = errors.New("vector store connection failed")

	// ErrDimensions is returned when an embedding does not match the store.
	ErrDimensions = errors.New("embedding dimensions mismatch")
)
