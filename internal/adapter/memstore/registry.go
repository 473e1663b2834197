package memstore

import (
	"sync"

	"studyrag/internal/domain"
)

// Registry is the in-memory document registry.
type Registry struct {
	mu   sync.RWMutex
	docs map[string]domain.Document
}

func NewRegistry() *Registry {
	return &Registry{docs: make(map[string]domain.Document)}
}

func (r *Registry) Register(doc domain.Document) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs[doc.ID] = doc
}

func (r *Registry) Unregister(docID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.docs[docID]; !ok {
		return false
	}
	delete(r.docs, docID)
	return true
}

func (r *Registry) Get(docID string) (domain.Document, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.docs[docID]
	return doc, ok
}

// List returns registered documents ordered by upload time, then id.
func (r *Registry) List() []domain.Document {
	r.mu.RLock()
	docs := make([]domain.Document, 0, len(r.docs))
	for _, doc := range r.docs {
		docs = append(docs, doc)
	}
	r.mu.RUnlock()

	domain.SortDocuments(docs)
	return docs
}

// ChunkCount returns the registered chunk count, or 0 for unknown ids.
func (r *Registry) ChunkCount(docID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.docs[docID].ChunkCount
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.docs)
}

func (r *Registry) Reset(docs []domain.Document) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs = make(map[string]domain.Document, len(docs))
	for _, doc := range docs {
		r.docs[doc.ID] = doc
	}
}
