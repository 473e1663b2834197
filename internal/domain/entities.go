package domain

import "time"

// DefaultSubject is the label given to documents uploaded without a subject.
// Retrieval treats it as "no subject filter".
const DefaultSubject = "General"

// Metadata keys stored alongside every chunk.
const (
	MetaDocID      = "doc_id"
	MetaFilename   = "filename"
	MetaSubject    = "subject"
	MetaChunkIndex = "chunk_index"
	MetaChunkTotal = "chunk_total"
	MetaUploadedAt = "uploaded_at"
)

type Document struct {
	ID         string    `json:"doc_id"`
	Filename   string    `json:"filename"`
	Subject    string    `json:"subject"`
	ChunkCount int       `json:"chunk_count"`
	UploadedAt time.Time `json:"uploaded_at"`
}

type Chunk struct {
	ID         string
	DocID      string
	Index      int
	Total      int
	Text       string
	Filename   string
	Subject    string
	UploadedAt time.Time
}

// ScoredChunk is a retrieved chunk annotated with its similarity score.
type ScoredChunk struct {
	Chunk Chunk
	Score float64
}

// Filter is an exact-match metadata filter. An empty filter matches everything.
type Filter map[string]string

func (f Filter) Empty() bool {
	return len(f) == 0
}

// Matches reports whether the metadata satisfies every key of the filter.
func (f Filter) Matches(meta map[string]string) bool {
	for k, v := range f {
		if meta[k] != v {
			return false
		}
	}
	return true
}

type Query struct {
	Text    string
	Subject string
	TopK    int
}

// RetrievedChunk is the provenance-annotated form handed to downstream consumers.
type RetrievedChunk struct {
	DocID      string  `json:"doc_id"`
	Text       string  `json:"text"`
	Filename   string  `json:"filename"`
	Subject    string  `json:"subject"`
	ChunkIndex int     `json:"chunk_index"`
	Score      float64 `json:"score"`
}

type RetrievalResult struct {
	Query  string           `json:"query"`
	Chunks []RetrievedChunk `json:"chunks"`
}

type Stats struct {
	TotalDocs   int `json:"total_docs"`
	TotalChunks int `json:"total_chunks"`
}

// FilterableKeys are the metadata keys every vector store can filter on.
var FilterableKeys = map[string]bool{
	MetaDocID:    true,
	MetaSubject:  true,
	MetaFilename: true,
}

// UnsupportedKey returns the first filter key outside FilterableKeys, or "".
func (f Filter) UnsupportedKey() string {
	for k := range f {
		if !FilterableKeys[k] {
			return k
		}
	}
	return ""
}
