package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"betvex/internal/indexer"
)

// GQLHandler proxies raw GraphQL queries to the indexing service.
type GQLHandler struct {
	indexer *indexer.Client
}

func NewGQLHandler(indexerClient *indexer.Client) *GQLHandler {
	return &GQLHandler{indexer: indexerClient}
}

// Proxy forwards the query verbatim and returns the upstream response.
// POST /api/gql
func (h *GQLHandler) Proxy(c *gin.Context) {
	var req struct {
		GQL string `json:"gql" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.indexer.Query(c.Request.Context(), req.GQL)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "indexer request failed"})
		return
	}

	c.Data(http.StatusOK, "application/json", resp)
}
