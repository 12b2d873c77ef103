package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/notesd/internal/embeddings"
	"github.com/fyrsmithlabs/notesd/internal/retrieval"
)

// handleQuery runs semantic retrieval over the tenant's notes.
//
// An empty knowledge base is a 400, not an empty result: "nothing indexed"
// and "nothing relevant" are different answers.
func (s *Server) handleQuery(c echo.Context) error {
	var req QueryRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}
	if req.Query == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "query is required"})
	}

	topK := req.TopK
	if topK <= 0 {
		topK = req.ResultsPerPage
	}
	tenantID := s.resolveTenant(c, req.Tenant)

	results, err := s.engine.Query(c.Request().Context(), tenantID, req.Query, topK)
	switch {
	case err == nil:
	case errors.Is(err, retrieval.ErrEmptyKnowledgeBase):
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "knowledge base is empty, add notes first"})
	case errors.Is(err, embeddings.ErrEmbeddingFailed), errors.Is(err, embeddings.ErrEmptyInput):
		s.logger.Error("embedding failed", zap.String("tenant", tenantID), zap.Error(err))
		return c.JSON(http.StatusBadGateway, ErrorResponse{Error: "embedding provider unavailable"})
	default:
		s.logger.Error("query failed", zap.String("tenant", tenantID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "query failed"})
	}

	s.metrics.observeQueryResults(len(results))
	if results == nil {
		results = []retrieval.Result{}
	}
	return c.JSON(http.StatusOK, QueryResponse{Results: results})
}
