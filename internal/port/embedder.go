package port

import (
	"context"

	"studyrag/internal/domain"
)

// Embedder generates vector embeddings for text.
type Embedder interface {
	// Embed generates embeddings for the given texts.
	// Returns a slice of vectors, one per input text.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension returns the embedding vector dimension.
	Dimension() int

	// ModelName returns the name of the embedding model.
	ModelName() string
}

// VectorStore persists chunk vectors with their text and metadata.
// Implementations are safe for concurrent use and serialize conflicting writes.
type VectorStore interface {
	// Add stores records in one batch. An existing id is overwritten.
	Add(ctx context.Context, records []VectorRecord) error

	// Query finds the k nearest records to the vector. A non-empty filter the
	// store cannot evaluate yields *domain.FilteredQueryError.
	Query(ctx context.Context, vector []float32, k int, filter domain.Filter) ([]VectorMatch, error)

	// Delete removes every record matching the filter and returns how many
	// were removed. An empty filter is rejected.
	Delete(ctx context.Context, filter domain.Filter) (int, error)

	// Count returns the number of records in the store.
	Count(ctx context.Context) (int, error)

	// Documents summarizes the stored records per doc_id.
	Documents(ctx context.Context) ([]domain.Document, error)
}

// VectorRecord represents a chunk to be stored.
type VectorRecord struct {
	ID       string            // "{doc_id}_{index}"
	Vector   []float32         // Embedding vector
	Text     string            // Chunk passage
	Metadata map[string]string // doc_id, filename, subject, chunk_index, ...
}

// VectorMatch represents a query result.
type VectorMatch struct {
	ID       string
	Text     string
	Metadata map[string]string
	Distance float64 // Cosine distance (lower is closer)
}
