package usecase

import (
	"context"
	"fmt"
	"strings"

	"studyrag/internal/domain"
	"studyrag/internal/logger"
)

// DocumentList is the registry listing plus any disagreement found between
// the registry and the vector store.
type DocumentList struct {
	Documents []domain.Document          `json:"documents"`
	Warnings  []domain.ConsistencyWarning `json:"warnings,omitempty"`
}

// ListDocuments returns registered documents ordered by upload time, then
// id. Registry/store disagreements are reported as warnings and never fail
// the call.
func (e *Engine) ListDocuments(ctx context.Context) (*DocumentList, error) {
	docs := e.registry.List()

	stored, err := e.store.Documents(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to scan stored documents: %w", err)
	}

	return &DocumentList{
		Documents: docs,
		Warnings:  compareDocuments(docs, stored),
	}, nil
}

func compareDocuments(registered, stored []domain.Document) []domain.ConsistencyWarning {
	storedByID := make(map[string]domain.Document, len(stored))
	for _, d := range stored {
		storedByID[d.ID] = d
	}

	var warnings []domain.ConsistencyWarning
	seen := make(map[string]bool, len(registered))
	for _, d := range registered {
		seen[d.ID] = true
		s, ok := storedByID[d.ID]
		switch {
		case !ok:
			warnings = append(warnings, domain.ConsistencyWarning{
				DocID:  d.ID,
				Reason: "registered but has no chunks in the vector store",
			})
		case s.ChunkCount != d.ChunkCount:
			warnings = append(warnings, domain.ConsistencyWarning{
				DocID:  d.ID,
				Reason: fmt.Sprintf("registry records %d chunks, vector store holds %d", d.ChunkCount, s.ChunkCount),
			})
		}
	}

	for _, s := range stored {
		if !seen[s.ID] {
			warnings = append(warnings, domain.ConsistencyWarning{
				DocID:  s.ID,
				Reason: fmt.Sprintf("%d chunks in the vector store but not registered", s.ChunkCount),
			})
		}
	}

	return warnings
}

// DeleteDocument removes every chunk of the document and its registry
// entry, returning the number of chunks removed.
func (e *Engine) DeleteDocument(ctx context.Context, docID string) (int, error) {
	docID = strings.TrimSpace(docID)
	if docID == "" {
		return 0, fmt.Errorf("doc_id is empty: %w", domain.ErrInvalidInput)
	}

	removed, err := e.store.Delete(ctx, domain.Filter{domain.MetaDocID: docID})
	if err != nil {
		return 0, fmt.Errorf("failed to delete chunks of %s: %w", docID, err)
	}

	registered := e.registry.Unregister(docID)
	if !registered && removed == 0 {
		return 0, fmt.Errorf("document %s: %w", docID, domain.ErrNotFound)
	}

	e.invalidateCache()
	logger.Infow("document deleted", "doc_id", docID, "chunks", removed)
	return removed, nil
}

// Reconcile rebuilds the registry from the documents present in the vector
// store and returns how many were found.
func (e *Engine) Reconcile(ctx context.Context) (int, error) {
	docs, err := e.store.Documents(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to scan stored documents: %w", err)
	}

	e.registry.Reset(docs)
	e.invalidateCache()

	logger.Infow("registry reconciled", "documents", len(docs))
	return len(docs), nil
}

// Count returns the number of chunks in the vector store.
func (e *Engine) Count(ctx context.Context) (int, error) {
	return e.store.Count(ctx)
}

// ChunkCount returns the registered chunk count of a document, 0 if unknown.
func (e *Engine) ChunkCount(docID string) int {
	return e.registry.ChunkCount(docID)
}

// Stats summarizes the registry.
func (e *Engine) Stats(ctx context.Context) (domain.Stats, error) {
	total, err := e.store.Count(ctx)
	if err != nil {
		return domain.Stats{}, err
	}
	return domain.Stats{TotalDocs: e.registry.Len(), TotalChunks: total}, nil
}
