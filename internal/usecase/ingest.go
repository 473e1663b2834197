package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"studyrag/internal/domain"
	"studyrag/internal/logger"
	"studyrag/internal/port"
)

// IngestRequest is a decoded document and its provenance.
type IngestRequest struct {
	Text       string
	Filename   string
	Subject    string
	UploadedAt time.Time // zero means now
}

// Ingest chunks, embeds and stores a document, then registers it.
//
// All chunks are embedded in one batch and written in one store call, so a
// failure in either step leaves no chunks and no registry entry behind.
// A document too short to yield any chunk is not an error: its id is
// returned with ChunkCount 0 and nothing is stored.
func (e *Engine) Ingest(ctx context.Context, req IngestRequest) (domain.Document, error) {
	if strings.TrimSpace(req.Text) == "" {
		return domain.Document{}, fmt.Errorf("document has no extractable text: %w", domain.ErrInvalidInput)
	}

	doc := domain.Document{
		ID:         e.uniqueDocID(),
		Filename:   strings.TrimSpace(req.Filename),
		Subject:    strings.TrimSpace(req.Subject),
		UploadedAt: req.UploadedAt,
	}
	if doc.Filename == "" {
		doc.Filename = "unknown"
	}
	if doc.Subject == "" {
		doc.Subject = e.defaultSubject
	}
	if doc.UploadedAt.IsZero() {
		doc.UploadedAt = e.now()
	}
	doc.UploadedAt = doc.UploadedAt.UTC().Truncate(time.Second)

	passages := e.chunker.Chunk(req.Text)
	if len(passages) == 0 {
		logger.Infow("document produced no chunks", "doc_id", doc.ID, "filename", doc.Filename)
		return doc, nil
	}

	vectors, err := e.embedder.Embed(ctx, passages)
	if err != nil {
		if domain.IsEmbeddingError(err) {
			return domain.Document{}, err
		}
		return domain.Document{}, &domain.EmbeddingError{Op: "embed chunks", Err: err}
	}
	if len(vectors) != len(passages) {
		return domain.Document{}, &domain.EmbeddingError{
			Op:  "embed chunks",
			Err: fmt.Errorf("got %d vectors for %d chunks", len(vectors), len(passages)),
		}
	}

	records := make([]port.VectorRecord, len(passages))
	for i, text := range passages {
		chunk := domain.Chunk{
			ID:         fmt.Sprintf("%s_%d", doc.ID, i),
			DocID:      doc.ID,
			Index:      i,
			Total:      len(passages),
			Text:       text,
			Filename:   doc.Filename,
			Subject:    doc.Subject,
			UploadedAt: doc.UploadedAt,
		}
		records[i] = port.VectorRecord{
			ID:       chunk.ID,
			Vector:   vectors[i],
			Text:     chunk.Text,
			Metadata: chunk.Metadata(),
		}
	}

	if err := e.store.Add(ctx, records); err != nil {
		return domain.Document{}, fmt.Errorf("failed to store chunks: %w", err)
	}

	doc.ChunkCount = len(records)
	e.registry.Register(doc)
	e.invalidateCache()

	logger.Infow("document ingested",
		"doc_id", doc.ID,
		"filename", doc.Filename,
		"subject", doc.Subject,
		"chunks", doc.ChunkCount,
	)
	return doc, nil
}

// uniqueDocID draws ids until one is not already registered. Short ids
// make collisions possible, if unlikely.
func (e *Engine) uniqueDocID() string {
	id := e.newID()
	for i := 0; i < 8; i++ {
		if _, taken := e.registry.Get(id); !taken {
			return id
		}
		id = e.newID()
	}
	return id
}
