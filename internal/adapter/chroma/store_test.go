package chroma

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studyrag/internal/domain"
	"studyrag/internal/port"
)

func TestMetadataRoundTrip(t *testing.T) {
	meta := map[string]string{
		domain.MetaDocID:      "ab12cd34",
		domain.MetaFilename:   "newton.txt",
		domain.MetaSubject:    "Physics",
		domain.MetaChunkIndex: "3",
		domain.MetaChunkTotal: "7",
		domain.MetaUploadedAt: "2026-03-01T10:00:00Z",
	}

	got, err := fromDocumentMetadata(toDocumentMetadata(meta))
	require.NoError(t, err)
	assert.Equal(t, meta, got)
}

func TestNonNumericChunkIndexStaysString(t *testing.T) {
	got, err := fromDocumentMetadata(toDocumentMetadata(map[string]string{domain.MetaChunkIndex: "x"}))
	require.NoError(t, err)
	assert.Equal(t, "x", got[domain.MetaChunkIndex])
}

func TestFromNilMetadata(t *testing.T) {
	got, err := fromDocumentMetadata(nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestWhereClause(t *testing.T) {
	single := whereClause(domain.Filter{domain.MetaSubject: "Physics"})
	assert.NotNil(t, single)

	both := whereClause(domain.Filter{domain.MetaSubject: "Physics", domain.MetaDocID: "ab12cd34"})
	assert.NotNil(t, both)
}

func TestQueryErrorClassification(t *testing.T) {
	filter := domain.Filter{domain.MetaSubject: "Physics"}

	tests := []struct {
		name         string
		filter       domain.Filter
		err          error
		wantFiltered bool
	}{
		{"rejected where clause", filter, errors.New("error executing request: Invalid where clause"), true},
		{"validation failure", filter, errors.New("ValidationError: metadata key not allowed"), true},
		{"connection refused", filter, errors.New("dial tcp 127.0.0.1:8000: connect: connection refused"), false},
		{"server fault", filter, errors.New("unexpected code [500 Internal Server Error]"), false},
		{"unfiltered rejection", nil, errors.New("Invalid where clause"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := queryError(tt.filter, tt.err)

			var fqe *domain.FilteredQueryError
			var se *domain.StoreError
			if tt.wantFiltered {
				assert.True(t, errors.As(err, &fqe))
			} else {
				assert.False(t, errors.As(err, &fqe))
				assert.True(t, errors.As(err, &se))
			}
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

// fakeChroma answers the collection and query calls of the v2 HTTP API.
type fakeChroma struct {
	queryStatus int
	queryBody   string
	lastQuery   map[string]interface{}
}

func (f *fakeChroma) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/collections"):
		io.WriteString(w, `{"id": "8ecf0f7e-e806-47f8-96a1-4732ef42359e", "name": "study_materials",
			"metadata": {"hnsw:space": "cosine"}, "tenant": "default_tenant", "database": "default_database"}`)
	case strings.HasSuffix(r.URL.Path, "/query"):
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &f.lastQuery)
		if f.queryStatus != 0 {
			w.WriteHeader(f.queryStatus)
		}
		io.WriteString(w, f.queryBody)
	default:
		io.WriteString(w, `{}`)
	}
}

func TestQueryMapsResults(t *testing.T) {
	fake := &fakeChroma{queryBody: `{
		"ids": [["ab12cd34_0", "ab12cd34_1"]],
		"documents": [["Force equals mass times acceleration.", "Momentum is conserved."]],
		"metadatas": [[
			{"doc_id": "ab12cd34", "subject": "Physics", "filename": "newton.txt", "chunk_index": 0},
			{"doc_id": "ab12cd34", "subject": "Physics", "filename": "newton.txt", "chunk_index": 1}
		]],
		"distances": [[0.125, 0.5]],
		"include": ["documents", "metadatas", "distances"]
	}`}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	ctx := context.Background()
	s, err := Open(ctx, srv.URL, "study_materials")
	require.NoError(t, err)
	defer s.Close()

	matches, err := s.Query(ctx, []float32{1, 0, 0}, 2, domain.Filter{domain.MetaSubject: "Physics"})
	require.NoError(t, err)
	require.Len(t, matches, 2)

	assert.Equal(t, "ab12cd34_0", matches[0].ID)
	assert.Equal(t, "Force equals mass times acceleration.", matches[0].Text)
	assert.InDelta(t, 0.125, matches[0].Distance, 1e-6)
	assert.Equal(t, "Physics", matches[0].Metadata[domain.MetaSubject])
	assert.Equal(t, "1", matches[1].Metadata[domain.MetaChunkIndex])
	assert.Contains(t, fake.lastQuery, "where")
}

func TestQueryServerFaultIsStoreError(t *testing.T) {
	fake := &fakeChroma{queryStatus: http.StatusInternalServerError, queryBody: `{"error": "InternalError", "message": "segment unavailable"}`}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	ctx := context.Background()
	s, err := Open(ctx, srv.URL, "study_materials")
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Query(ctx, []float32{1, 0, 0}, 2, domain.Filter{domain.MetaSubject: "Physics"})
	require.Error(t, err)

	var fqe *domain.FilteredQueryError
	assert.False(t, errors.As(err, &fqe), "a server fault must not trigger the unfiltered retry")
	assert.True(t, domain.IsStoreError(err))
}

// TestLiveCollection runs against a real server when STUDYRAG_CHROMA_URL is set.
func TestLiveCollection(t *testing.T) {
	url := os.Getenv("STUDYRAG_CHROMA_URL")
	if url == "" {
		t.Skip("STUDYRAG_CHROMA_URL not set")
	}

	ctx := context.Background()
	s, err := Open(ctx, url, "studyrag_test")
	require.NoError(t, err)
	defer s.Close()

	records := []port.VectorRecord{
		{ID: "live0001_0", Vector: []float32{1, 0, 0}, Text: "force", Metadata: map[string]string{domain.MetaDocID: "live0001", domain.MetaSubject: "Physics", domain.MetaChunkIndex: "0"}},
		{ID: "live0002_0", Vector: []float32{0, 1, 0}, Text: "cells", Metadata: map[string]string{domain.MetaDocID: "live0002", domain.MetaSubject: "Biology", domain.MetaChunkIndex: "0"}},
	}
	require.NoError(t, s.Add(ctx, records))
	defer s.Delete(ctx, domain.Filter{domain.MetaDocID: "live0002"})

	matches, err := s.Query(ctx, []float32{1, 0, 0}, 1, domain.Filter{domain.MetaSubject: "Physics"})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "live0001_0", matches[0].ID)
	assert.InDelta(t, 0, matches[0].Distance, 1e-4)

	removed, err := s.Delete(ctx, domain.Filter{domain.MetaDocID: "live0001"})
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
}
