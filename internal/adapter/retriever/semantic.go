package retriever

import (
	"context"
	"errors"
	"fmt"

	"studyrag/internal/domain"
	"studyrag/internal/logger"
	"studyrag/internal/port"
)

// SemanticRetriever embeds the query and asks the vector store for its
// nearest chunks. When the store cannot evaluate the metadata filter it
// retries exactly once without it.
type SemanticRetriever struct {
	vectorStore port.VectorStore
	embedder    port.Embedder
}

func NewSemanticRetriever(vectorStore port.VectorStore, embedder port.Embedder) *SemanticRetriever {
	return &SemanticRetriever{
		vectorStore: vectorStore,
		embedder:    embedder,
	}
}

func (r *SemanticRetriever) Search(ctx context.Context, query string, filter domain.Filter, k int) ([]domain.ScoredChunk, error) {
	vector, err := r.embedQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	results, err := r.vectorStore.Query(ctx, vector, k, filter)
	var fqe *domain.FilteredQueryError
	if errors.As(err, &fqe) {
		logger.Warnw("filtered query failed, retrying without filter",
			"filter", map[string]string(filter),
			"error", fqe.Err,
		)
		results, err = r.vectorStore.Query(ctx, vector, k, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}

	chunks := make([]domain.ScoredChunk, 0, len(results))
	for _, result := range results {
		chunks = append(chunks, domain.ScoredChunk{
			Chunk: domain.ChunkFromMetadata(result.ID, result.Text, result.Metadata),
			Score: 1 - result.Distance,
		})
	}

	return chunks, nil
}

func (r *SemanticRetriever) embedQuery(ctx context.Context, query string) ([]float32, error) {
	embeddings, err := r.embedder.Embed(ctx, []string{query})
	if err != nil {
		if domain.IsEmbeddingError(err) {
			return nil, err
		}
		return nil, &domain.EmbeddingError{Op: "embed query", Err: err}
	}
	if len(embeddings) != 1 {
		return nil, &domain.EmbeddingError{
			Op:  "embed query",
			Err: fmt.Errorf("expected 1 vector, got %d", len(embeddings)),
		}
	}
	if dim := r.embedder.Dimension(); dim > 0 && len(embeddings[0]) != dim {
		return nil, &domain.EmbeddingError{
			Op:  "embed query",
			Err: fmt.Errorf("vector has dimension %d, expected %d", len(embeddings[0]), dim),
		}
	}
	return embeddings[0], nil
}
