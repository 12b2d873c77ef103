package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/notesd/internal/notes"
)

// handleListNotes returns the tenant's notes as a bare JSON array,
// optionally filtered by fileId.
func (s *Server) handleListNotes(c echo.Context) error {
	tenantID := s.resolveTenant(c, "")

	list, err := s.notes.List(c.Request().Context(), tenantID, c.QueryParam("fileId"))
	if err != nil {
		s.logger.Error("listing notes failed", zap.String("tenant", tenantID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, Envelope{Success: false, Error: "failed to load notes"})
	}
	if list == nil {
		list = []notes.Note{}
	}
	return c.JSON(http.StatusOK, list)
}

// handleAddNote appends a note. A duplicate (content, fileId) is a soft
// failure: HTTP 200 with success false.
func (s *Server) handleAddNote(c echo.Context) error {
	var req NoteRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, Envelope{Success: false, Error: "invalid request body"})
	}
	tenantID := s.resolveTenant(c, req.Tenant)

	note := notes.Note{
		ID:        req.ID,
		FileID:    req.FileID,
		Content:   req.Content,
		CreatedAt: req.CreatedAt,
		Type:      req.Type,
		Title:     req.Title,
		Author:    req.Author,
		Date:      req.Date,
		Page:      req.Page,
	}

	err := s.notes.Add(c.Request().Context(), tenantID, note)
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, Envelope{Success: true})
	case errors.Is(err, notes.ErrMissingContent):
		return c.JSON(http.StatusBadRequest, Envelope{Success: false, Error: "content is required"})
	case errors.Is(err, notes.ErrDuplicateContent):
		return c.JSON(http.StatusOK, Envelope{Success: false, Error: "note already exists, not added again"})
	default:
		s.logger.Error("adding note failed", zap.String("tenant", tenantID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, Envelope{Success: false, Error: "failed to save note"})
	}
}

// handleDeleteNotes removes one note by id, or every note for a fileId.
func (s *Server) handleDeleteNotes(c echo.Context) error {
	var req NoteRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, Envelope{Success: false, Error: "invalid request body"})
	}
	tenantID := s.resolveTenant(c, req.Tenant)

	err := s.notes.Remove(c.Request().Context(), tenantID, notes.Selector{ID: req.ID, FileID: req.FileID})
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, Envelope{Success: true})
	case errors.Is(err, notes.ErrMissingSelector):
		return c.JSON(http.StatusBadRequest, Envelope{Success: false, Error: "id or fileId is required"})
	case errors.Is(err, notes.ErrNotFound):
		return c.JSON(http.StatusNotFound, Envelope{Success: false, Error: "no matching notes"})
	default:
		s.logger.Error("deleting notes failed", zap.String("tenant", tenantID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, Envelope{Success: false, Error: "failed to delete notes"})
	}
}
