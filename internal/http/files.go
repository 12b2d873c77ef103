package http

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/notesd/internal/files"
	"github.com/fyrsmithlabs/notesd/internal/tenant"
)

// FileAddRequest is the request body for POST /api/v1/files: a registry
// record plus the tenant field.
type FileAddRequest struct {
	Tenant string `json:"tenant" form:"tenant"`
	files.Record
}

// handleListFiles returns the tenant's file registry as a bare JSON array.
func (s *Server) handleListFiles(c echo.Context) error {
	tenantID := s.resolveTenant(c, "")

	list, err := s.registry.List(c.Request().Context(), tenantID)
	if err != nil {
		s.logger.Error("listing files failed", zap.String("tenant", tenantID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, Envelope{Success: false, Error: "failed to load files"})
	}
	if list == nil {
		list = []files.Record{}
	}
	return c.JSON(http.StatusOK, list)
}

// handleAddFile registers a file record. An existing id is a soft failure:
// HTTP 200 with success false.
func (s *Server) handleAddFile(c echo.Context) error {
	var req FileAddRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, Envelope{Success: false, Error: "invalid request body"})
	}
	tenantID := s.resolveTenant(c, req.Tenant)

	err := s.registry.Add(c.Request().Context(), tenantID, req.Record)
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, Envelope{Success: true})
	case errors.Is(err, files.ErrMissingID):
		return c.JSON(http.StatusBadRequest, Envelope{Success: false, Error: "file id is required"})
	case errors.Is(err, files.ErrAlreadyExists):
		return c.JSON(http.StatusOK, Envelope{Success: false, Error: "file already exists"})
	default:
		s.logger.Error("registering file failed", zap.String("tenant", tenantID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, Envelope{Success: false, Error: "failed to save file record"})
	}
}

// handleDeleteFile removes a registry record. Idempotent: deleting an
// unknown id is success. Notes extracted from the file are left in place;
// callers cascade explicitly through DELETE /notes {fileId} when they mean
// to.
func (s *Server) handleDeleteFile(c echo.Context) error {
	var req FileDeleteRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, Envelope{Success: false, Error: "invalid request body"})
	}
	if req.ID == "" {
		return c.JSON(http.StatusBadRequest, Envelope{Success: false, Error: "file id is required"})
	}
	tenantID := s.resolveTenant(c, req.Tenant)

	// Remove the stored bytes as well, when this registry entry came from an
	// upload. A missing physical file is not an error.
	if rec, err := s.registry.Get(c.Request().Context(), tenantID, req.ID); err == nil {
		s.removeStoredFile(tenantID, rec)
	}

	if err := s.registry.Remove(c.Request().Context(), tenantID, req.ID); err != nil {
		s.logger.Error("deleting file failed", zap.String("tenant", tenantID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, Envelope{Success: false, Error: "failed to delete file record"})
	}
	return c.JSON(http.StatusOK, Envelope{Success: true})
}

// handleUpload stores an uploaded document under the tenant's directory and
// registers it. The document's bytes are opaque to notesd; note extraction
// happens client-side.
func (s *Server) handleUpload(c echo.Context) error {
	tenantID := s.resolveTenant(c, "")

	header, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, UploadResponse{Error: "no file selected"})
	}
	if header.Filename == "" {
		return c.JSON(http.StatusBadRequest, UploadResponse{Error: "no file selected"})
	}
	if header.Size > s.config.UploadMaxBytes {
		return c.JSON(http.StatusBadRequest, UploadResponse{
			Error: fmt.Sprintf("file exceeds %d bytes", s.config.UploadMaxBytes),
		})
	}

	filename := sanitizeFilename(header.Filename)
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	if !slices.Contains(s.config.UploadExtensions, ext) {
		return c.JSON(http.StatusBadRequest, UploadResponse{
			Error: "unsupported file type, allowed: " + strings.Join(s.config.UploadExtensions, ", "),
		})
	}

	ctx := c.Request().Context()

	// One stored file per title; re-uploading the same name is rejected
	// rather than silently replaced.
	existing, err := s.registry.List(ctx, tenantID)
	if err != nil {
		s.logger.Error("upload registry check failed", zap.String("tenant", tenantID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, UploadResponse{Error: "failed to load files"})
	}
	for _, rec := range existing {
		if rec.Title == filename {
			return c.JSON(http.StatusBadRequest, UploadResponse{Error: "file already exists"})
		}
	}

	dir, err := tenant.Dir(s.store.Root(), tenantID)
	if err != nil {
		s.logger.Error("resolving tenant dir failed", zap.String("tenant", tenantID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, UploadResponse{Error: "failed to store file"})
	}
	if err := saveMultipartFile(header, filepath.Join(dir, filename)); err != nil {
		s.logger.Error("storing upload failed", zap.String("tenant", tenantID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, UploadResponse{Error: "failed to store file"})
	}

	rec := files.NewUploadRecord(filename, header.Size)
	if err := s.registry.Add(ctx, tenantID, rec); err != nil {
		s.logger.Error("registering upload failed", zap.String("tenant", tenantID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, UploadResponse{Error: "failed to save file record"})
	}

	return c.JSON(http.StatusOK, UploadResponse{Success: true, FileID: rec.ID, Record: &rec})
}

// handleDownload streams a stored document, gated on the registry's
// downloadable flag.
func (s *Server) handleDownload(c echo.Context) error {
	tenantID := s.resolveTenant(c, "")
	fileID := c.Param("fileId")

	rec, err := s.registry.Get(c.Request().Context(), tenantID, fileID)
	if err != nil || !rec.Meta.Downloadable {
		return c.JSON(http.StatusNotFound, Envelope{Success: false, Error: "file not found or not downloadable"})
	}

	path := filepath.Join(s.store.Root(), tenantID, rec.Title)
	if _, err := os.Stat(path); err != nil {
		return c.JSON(http.StatusNotFound, Envelope{Success: false, Error: "stored file is missing"})
	}

	return c.Attachment(path, rec.Title)
}

// removeStoredFile best-effort deletes an uploaded file's bytes.
func (s *Server) removeStoredFile(tenantID string, rec files.Record) {
	if rec.Title == "" {
		return
	}
	path := filepath.Join(s.store.Root(), tenantID, rec.Title)
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.logger.Warn("removing stored file failed",
			zap.String("tenant", tenantID),
			zap.String("path", path),
			zap.Error(err),
		)
	}
}

// sanitizeFilename reduces an uploaded filename to a safe base name:
// path components are stripped and anything outside [A-Za-z0-9._-] becomes
// an underscore.
func sanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))

	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z',
			r >= 'A' && r <= 'Z',
			r >= '0' && r <= '9',
			r == '.', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}

	out := strings.Trim(b.String(), "._")
	if out == "" {
		out = "upload"
	}
	return out
}

// saveMultipartFile copies the uploaded part to dst.
func saveMultipartFile(header *multipart.FileHeader, dst string) error {
	src, err := header.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, src)
	return err
}
