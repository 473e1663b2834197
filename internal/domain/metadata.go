package domain

import (
	"sort"
	"strconv"
	"time"
)

// Metadata flattens a chunk into the string map stored next to its vector.
func (c Chunk) Metadata() map[string]string {
	meta := map[string]string{
		MetaDocID:      c.DocID,
		MetaFilename:   c.Filename,
		MetaSubject:    c.Subject,
		MetaChunkIndex: strconv.Itoa(c.Index),
		MetaChunkTotal: strconv.Itoa(c.Total),
	}
	if !c.UploadedAt.IsZero() {
		meta[MetaUploadedAt] = c.UploadedAt.UTC().Format(time.RFC3339)
	}
	return meta
}

// ChunkFromMetadata rebuilds a chunk from a stored record.
// Missing keys fall back to the same defaults used at ingestion.
func ChunkFromMetadata(id, text string, meta map[string]string) Chunk {
	c := Chunk{
		ID:       id,
		Text:     text,
		DocID:    meta[MetaDocID],
		Filename: meta[MetaFilename],
		Subject:  meta[MetaSubject],
	}
	if c.Filename == "" {
		c.Filename = "unknown"
	}
	if c.Subject == "" {
		c.Subject = DefaultSubject
	}
	c.Index, _ = strconv.Atoi(meta[MetaChunkIndex])
	c.Total, _ = strconv.Atoi(meta[MetaChunkTotal])
	if ts, err := time.Parse(time.RFC3339, meta[MetaUploadedAt]); err == nil {
		c.UploadedAt = ts
	}
	return c
}

// DocumentSummarizer aggregates stored chunk metadata into per-document
// summaries. Stores feed it one record at a time while scanning.
type DocumentSummarizer struct {
	docs map[string]*Document
}

func NewDocumentSummarizer() *DocumentSummarizer {
	return &DocumentSummarizer{docs: make(map[string]*Document)}
}

func (s *DocumentSummarizer) Add(meta map[string]string) {
	docID := meta[MetaDocID]
	if docID == "" {
		return
	}
	doc, ok := s.docs[docID]
	if !ok {
		c := ChunkFromMetadata("", "", meta)
		doc = &Document{
			ID:         docID,
			Filename:   c.Filename,
			Subject:    c.Subject,
			UploadedAt: c.UploadedAt,
		}
		s.docs[docID] = doc
	}
	doc.ChunkCount++
}

// Documents returns the summaries ordered by upload time, then id.
func (s *DocumentSummarizer) Documents() []Document {
	out := make([]Document, 0, len(s.docs))
	for _, d := range s.docs {
		out = append(out, *d)
	}
	SortDocuments(out)
	return out
}

// SortDocuments orders documents by upload time, then id.
func SortDocuments(docs []Document) {
	sort.Slice(docs, func(i, j int) bool {
		if !docs[i].UploadedAt.Equal(docs[j].UploadedAt) {
			return docs[i].UploadedAt.Before(docs[j].UploadedAt)
		}
		return docs[i].ID < docs[j].ID
	})
}
