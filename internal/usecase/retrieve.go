package usecase

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"studyrag/internal/domain"
	"studyrag/internal/logger"
)

// RetrieveRequest is a natural-language query with an optional subject scope.
type RetrieveRequest struct {
	Query   string
	Subject string
	TopK    int // 0 selects the configured default
}

// Retrieve returns the chunks most relevant to the query, best first.
//
// Scores are 1 - cosine distance rounded to 4 decimals. Chunks whose
// unrounded score is below the threshold are dropped, duplicates (by chunk id) are removed and
// at most TopK chunks are returned. An empty index yields an empty result
// without calling the embedder.
func (e *Engine) Retrieve(ctx context.Context, req RetrieveRequest) (*domain.RetrievalResult, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, fmt.Errorf("query is empty: %w", domain.ErrInvalidInput)
	}
	if req.TopK < 0 {
		return nil, fmt.Errorf("top_k must be at least 1, got %d: %w", req.TopK, domain.ErrInvalidInput)
	}

	topK := req.TopK
	if topK == 0 {
		topK = e.topK
	}

	result := &domain.RetrievalResult{
		Query:  req.Query,
		Chunks: []domain.RetrievedChunk{},
	}

	total, err := e.store.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count chunks: %w", err)
	}
	if total == 0 {
		return result, nil
	}

	k := topK
	if total < k {
		k = total
	}

	candidates, err := e.retriever.Search(ctx, req.Query, e.subjectFilter(req.Subject), k)
	if err != nil {
		return nil, err
	}

	best := make(map[string]domain.ScoredChunk, len(candidates))
	for _, c := range candidates {
		if c.Score < e.threshold {
			continue
		}
		c.Score = roundScore(c.Score)
		if prev, dup := best[c.Chunk.ID]; dup && prev.Score >= c.Score {
			continue
		}
		best[c.Chunk.ID] = c
	}

	ranked := make([]domain.ScoredChunk, 0, len(best))
	for _, c := range best {
		ranked = append(ranked, c)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].Chunk.ID < ranked[j].Chunk.ID
	})
	if len(ranked) > topK {
		ranked = ranked[:topK]
	}

	logger.Debugf("query %q: %d candidates, %d kept", req.Query, len(candidates), len(ranked))

	for _, c := range ranked {
		result.Chunks = append(result.Chunks, domain.RetrievedChunk{
			DocID:      c.Chunk.DocID,
			Text:       c.Chunk.Text,
			Filename:   c.Chunk.Filename,
			Subject:    c.Chunk.Subject,
			ChunkIndex: c.Chunk.Index,
			Score:      c.Score,
		})
	}

	return result, nil
}

// subjectFilter scopes a query to one subject. An empty subject or the
// default label searches every document.
func (e *Engine) subjectFilter(subject string) domain.Filter {
	subject = strings.TrimSpace(subject)
	if subject == "" || strings.EqualFold(subject, e.defaultSubject) {
		return nil
	}
	return domain.Filter{domain.MetaSubject: subject}
}

// roundScore rounds to 4 decimals and clamps to [0, 1].
func roundScore(score float64) float64 {
	score = math.Round(score*1e4) / 1e4
	return math.Max(0, math.Min(1, score))
}
