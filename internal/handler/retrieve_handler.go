package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"studyrag/internal/usecase"
)

type retrieveRequest struct {
	Query   string `json:"query"`
	Subject string `json:"subject"`
	TopK    int    `json:"top_k"`
}

// RetrieveHandler answers retrieval queries.
type RetrieveHandler struct {
	engine Engine
}

func NewRetrieveHandler(engine Engine) *RetrieveHandler {
	return &RetrieveHandler{engine: engine}
}

// Retrieve returns the chunks most relevant to the query, best first.
func (h *RetrieveHandler) Retrieve(c *gin.Context) {
	var req retrieveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	result, err := h.engine.Retrieve(c.Request.Context(), usecase.RetrieveRequest{
		Query:   req.Query,
		Subject: req.Subject,
		TopK:    req.TopK,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
