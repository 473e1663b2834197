package port

import "studyrag/internal/domain"

// Registry tracks per-document bookkeeping for listing and administration.
// It holds no chunk data; the vector store owns that independently.
type Registry interface {
	Register(doc domain.Document)

	Unregister(docID string) bool

	Get(docID string) (domain.Document, bool)

	List() []domain.Document

	ChunkCount(docID string) int

	Len() int

	// Reset replaces the registry contents, used when rebuilding from the store.
	Reset(docs []domain.Document)
}
