// Package handler serves the knowledge-base HTTP API.
package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"studyrag/internal/domain"
	"studyrag/internal/logger"
	"studyrag/internal/middleware"
	"studyrag/internal/usecase"
)

// Engine is the part of usecase.Engine the API needs.
type Engine interface {
	Ingest(ctx context.Context, req usecase.IngestRequest) (domain.Document, error)
	Retrieve(ctx context.Context, req usecase.RetrieveRequest) (*domain.RetrievalResult, error)
	ListDocuments(ctx context.Context) (*usecase.DocumentList, error)
	DeleteDocument(ctx context.Context, docID string) (int, error)
	Stats(ctx context.Context) (domain.Stats, error)
}

// Options configures the router.
type Options struct {
	MaxUploadMB int
}

// NewRouter registers every route on a new gin engine.
func NewRouter(engine Engine, opts Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger())

	docs := NewDocumentHandler(engine, opts.MaxUploadMB)
	search := NewRetrieveHandler(engine)

	r.GET("/health", docs.Health)
	r.POST("/upload", docs.Upload)
	r.GET("/documents", docs.List)
	r.DELETE("/documents/:doc_id", docs.Delete)
	r.POST("/retrieve", search.Retrieve)

	return r
}

// statusFor maps engine errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case domain.IsEmbeddingError(err):
		return http.StatusBadGateway
	case domain.IsStoreError(err):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Errorw("request failed", "path", c.FullPath(), "error", err)
	}
	_ = c.Error(err)
	c.JSON(status, gin.H{"error": err.Error()})
}
