package port

import (
	"context"

	"studyrag/internal/domain"
)

// Retriever finds the chunks nearest to a query.
type Retriever interface {
	// Search returns up to k chunks scored by similarity (higher is better).
	// Scores are not thresholded; callers apply relevance cutoffs.
	Search(ctx context.Context, query string, filter domain.Filter, k int) ([]domain.ScoredChunk, error)
}
