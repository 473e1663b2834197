package memstore

import (
	"context"
	"fmt"
	"sync"

	"studyrag/internal/adapter/vecmath"
	"studyrag/internal/domain"
	"studyrag/internal/port"
)

// VectorStore keeps chunk vectors in memory. Used by tests and the
// "memory" store backend.
type VectorStore struct {
	mu        sync.RWMutex
	dimension int
	records   map[string]port.VectorRecord
}

// NewVectorStore creates an empty store. A zero dimension accepts the
// dimension of the first record added.
func NewVectorStore(dimension int) *VectorStore {
	return &VectorStore{
		dimension: dimension,
		records:   make(map[string]port.VectorRecord),
	}
}

func (s *VectorStore) Add(ctx context.Context, records []port.VectorRecord) error {
	if err := ctx.Err(); err != nil {
		return &domain.StoreError{Op: "add", Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dim := s.dimension
	for _, r := range records {
		if dim == 0 {
			dim = len(r.Vector)
		}
		if len(r.Vector) != dim {
			return &domain.StoreError{
				Op:  "add",
				Err: fmt.Errorf("vector dimension mismatch: expected %d, got %d", dim, len(r.Vector)),
			}
		}
	}

	s.dimension = dim
	for _, r := range records {
		s.records[r.ID] = copyRecord(r)
	}
	return nil
}

func (s *VectorStore) Query(ctx context.Context, vector []float32, k int, filter domain.Filter) ([]port.VectorMatch, error) {
	if err := ctx.Err(); err != nil {
		return nil, &domain.StoreError{Op: "query", Err: err}
	}
	if key := filter.UnsupportedKey(); key != "" {
		return nil, &domain.FilteredQueryError{
			Filter: filter,
			Err:    fmt.Errorf("metadata key %q is not filterable", key),
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.records) == 0 {
		return nil, nil
	}
	if len(vector) != s.dimension {
		return nil, &domain.StoreError{
			Op:  "query",
			Err: fmt.Errorf("query dimension mismatch: expected %d, got %d", s.dimension, len(vector)),
		}
	}

	candidates := make([]vecmath.Candidate, 0, len(s.records))
	for id, r := range s.records {
		if filter.Matches(r.Metadata) {
			candidates = append(candidates, vecmath.Candidate{ID: id, Vector: r.Vector})
		}
	}

	neighbours := vecmath.Nearest(vector, candidates, k)
	matches := make([]port.VectorMatch, len(neighbours))
	for i, n := range neighbours {
		r := s.records[n.ID]
		matches[i] = port.VectorMatch{
			ID:       n.ID,
			Text:     r.Text,
			Metadata: copyMetadata(r.Metadata),
			Distance: n.Distance,
		}
	}
	return matches, nil
}

func (s *VectorStore) Delete(ctx context.Context, filter domain.Filter) (int, error) {
	if filter.Empty() {
		return 0, fmt.Errorf("delete requires a filter: %w", domain.ErrInvalidInput)
	}
	if err := ctx.Err(); err != nil {
		return 0, &domain.StoreError{Op: "delete", Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, r := range s.records {
		if filter.Matches(r.Metadata) {
			delete(s.records, id)
			removed++
		}
	}
	return removed, nil
}

func (s *VectorStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}

func (s *VectorStore) Documents(ctx context.Context) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summarizer := domain.NewDocumentSummarizer()
	for _, r := range s.records {
		summarizer.Add(r.Metadata)
	}
	return summarizer.Documents(), nil
}

func copyRecord(r port.VectorRecord) port.VectorRecord {
	vec := make([]float32, len(r.Vector))
	copy(vec, r.Vector)
	return port.VectorRecord{
		ID:       r.ID,
		Vector:   vec,
		Text:     r.Text,
		Metadata: copyMetadata(r.Metadata),
	}
}

func copyMetadata(meta map[string]string) map[string]string {
	out := make(map[string]string, len(meta))
	for k, v := range meta {
		out[k] = v
	}
	return out
}
