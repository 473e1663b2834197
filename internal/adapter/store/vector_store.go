package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"go.etcd.io/bbolt"

	"studyrag/internal/adapter/vecmath"
	"studyrag/internal/domain"
	"studyrag/internal/port"
)

// BoltVectorStore implements VectorStore using BoltDB for persistence.
// Every record is mirrored in memory and searched by brute force.
type BoltVectorStore struct {
	db        *bbolt.DB
	dimension int
	mu        sync.RWMutex
	vectors   map[string]vectorEntry
}

type vectorEntry struct {
	vector   []float32
	text     string
	metadata map[string]string
}

type storedVector struct {
	Vector   []float32         `json:"v"`
	Text     string            `json:"t"`
	Metadata map[string]string `json:"m,omitempty"`
}

// NewBoltVectorStore loads every stored vector into memory. It fails when a
// record is unreadable or was embedded with a different dimension.
func NewBoltVectorStore(bs *BoltStore, dimension int) (*BoltVectorStore, error) {
	store := &BoltVectorStore{
		db:        bs.DB(),
		dimension: dimension,
		vectors:   make(map[string]vectorEntry),
	}

	if err := store.loadVectors(); err != nil {
		return nil, &domain.StoreError{Op: "load", Err: err}
	}

	return store, nil
}

func (s *BoltVectorStore) loadVectors() error {
	return s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketVectors)
		if b == nil {
			return fmt.Errorf("vectors bucket not found")
		}

		return b.ForEach(func(k, v []byte) error {
			var stored storedVector
			if err := json.Unmarshal(v, &stored); err != nil {
				return fmt.Errorf("corrupt record %s: %w", k, err)
			}
			if len(stored.Vector) != s.dimension {
				return fmt.Errorf("record %s has dimension %d, index expects %d; rebuild the index",
					k, len(stored.Vector), s.dimension)
			}
			s.vectors[string(k)] = vectorEntry{
				vector:   stored.Vector,
				text:     stored.Text,
				metadata: stored.Metadata,
			}
			return nil
		})
	})
}

// Add writes all records in one transaction. The in-memory mirror is only
// updated after the transaction commits.
func (s *BoltVectorStore) Add(ctx context.Context, records []port.VectorRecord) error {
	if err := ctx.Err(); err != nil {
		return &domain.StoreError{Op: "add", Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketVectors)
		if b == nil {
			return fmt.Errorf("vectors bucket not found")
		}

		for _, r := range records {
			if len(r.Vector) != s.dimension {
				return fmt.Errorf("vector dimension mismatch: expected %d, got %d", s.dimension, len(r.Vector))
			}

			data, err := json.Marshal(storedVector{
				Vector:   r.Vector,
				Text:     r.Text,
				Metadata: r.Metadata,
			})
			if err != nil {
				return err
			}

			if err := b.Put([]byte(r.ID), data); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return &domain.StoreError{Op: "add", Err: err}
	}

	for _, r := range records {
		s.vectors[r.ID] = vectorEntry{
			vector:   r.Vector,
			text:     r.Text,
			metadata: r.Metadata,
		}
	}
	return nil
}

// Query finds the k nearest vectors to the query using cosine distance.
func (s *BoltVectorStore) Query(ctx context.Context, vector []float32, k int, filter domain.Filter) ([]port.VectorMatch, error) {
	if err := ctx.Err(); err != nil {
		return nil, &domain.StoreError{Op: "query", Err: err}
	}
	if key := filter.UnsupportedKey(); key != "" {
		return nil, &domain.FilteredQueryError{
			Filter: filter,
			Err:    fmt.Errorf("metadata key %q is not indexed", key),
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(vector) != s.dimension {
		return nil, &domain.StoreError{
			Op:  "query",
			Err: fmt.Errorf("query dimension mismatch: expected %d, got %d", s.dimension, len(vector)),
		}
	}

	if len(s.vectors) == 0 {
		return nil, nil
	}

	candidates := make([]vecmath.Candidate, 0, len(s.vectors))
	for id, entry := range s.vectors {
		if filter.Matches(entry.metadata) {
			candidates = append(candidates, vecmath.Candidate{ID: id, Vector: entry.vector})
		}
	}

	neighbours := vecmath.Nearest(vector, candidates, k)
	results := make([]port.VectorMatch, len(neighbours))
	for i, n := range neighbours {
		entry := s.vectors[n.ID]
		results[i] = port.VectorMatch{
			ID:       n.ID,
			Text:     entry.text,
			Metadata: entry.metadata,
			Distance: n.Distance,
		}
	}

	return results, nil
}

// Delete removes every record whose metadata matches the filter.
func (s *BoltVectorStore) Delete(ctx context.Context, filter domain.Filter) (int, error) {
	if filter.Empty() {
		return 0, fmt.Errorf("delete requires a filter: %w", domain.ErrInvalidInput)
	}
	if err := ctx.Err(); err != nil {
		return 0, &domain.StoreError{Op: "delete", Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var ids []string
	for id, entry := range s.vectors {
		if filter.Matches(entry.metadata) {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return 0, nil
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketVectors)
		if b == nil {
			return fmt.Errorf("vectors bucket not found")
		}
		for _, id := range ids {
			if err := b.Delete([]byte(id)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, &domain.StoreError{Op: "delete", Err: err}
	}

	for _, id := range ids {
		delete(s.vectors, id)
	}
	return len(ids), nil
}

// Count returns the number of vectors in the store.
func (s *BoltVectorStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.vectors), nil
}

// Documents summarizes stored chunks per document.
func (s *BoltVectorStore) Documents(ctx context.Context) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summarizer := domain.NewDocumentSummarizer()
	for _, entry := range s.vectors {
		summarizer.Add(entry.metadata)
	}
	return summarizer.Documents(), nil
}

// Dimension returns the vector dimension the store accepts.
func (s *BoltVectorStore) Dimension() int {
	return s.dimension
}
