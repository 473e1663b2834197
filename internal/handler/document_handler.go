package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"studyrag/internal/usecase"
)

// DefaultMaxUploadMB caps uploads when no limit is configured.
const DefaultMaxUploadMB = 10

var uploadExtensions = map[string]bool{
	".txt": true,
	".md":  true,
}

// DocumentHandler handles document upload and administration.
type DocumentHandler struct {
	engine   Engine
	maxBytes int64
}

func NewDocumentHandler(engine Engine, maxUploadMB int) *DocumentHandler {
	if maxUploadMB <= 0 {
		maxUploadMB = DefaultMaxUploadMB
	}
	return &DocumentHandler{
		engine:   engine,
		maxBytes: int64(maxUploadMB) << 20,
	}
}

// Upload ingests the multipart "file" field under the "subject" query
// parameter.
func (h *DocumentHandler) Upload(c *gin.Context) {
	if c.Request.ContentLength > h.maxBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": fmt.Sprintf("file exceeds %d bytes", h.maxBytes)})
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes)

	header, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": fmt.Sprintf("file exceeds %d bytes", h.maxBytes)})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file: " + err.Error()})
		return
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !uploadExtensions[ext] {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unsupported file type %q, expected .txt or .md", ext)})
		return
	}

	f, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot open upload: " + err.Error()})
		return
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read upload: " + err.Error()})
		return
	}
	if !utf8.Valid(content) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is not UTF-8 text"})
		return
	}

	doc, err := h.engine.Ingest(c.Request.Context(), usecase.IngestRequest{
		Text:     string(content),
		Filename: header.Filename,
		Subject:  c.Query("subject"),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, doc)
}

// List returns registered documents and any consistency warnings.
func (h *DocumentHandler) List(c *gin.Context) {
	list, err := h.engine.ListDocuments(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// Delete removes a document and all of its chunks.
func (h *DocumentHandler) Delete(c *gin.Context) {
	docID := c.Param("doc_id")

	removed, err := h.engine.DeleteDocument(c.Request.Context(), docID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":         "success",
		"doc_id":         docID,
		"chunks_removed": removed,
	})
}

// Health reports liveness along with index size.
func (h *DocumentHandler) Health(c *gin.Context) {
	stats, err := h.engine.Stats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"documents": stats.TotalDocs,
		"chunks":    stats.TotalChunks,
	})
}
