// Package http provides the HTTP API for notesd.
package http

import (
	"github.com/fyrsmithlabs/notesd/internal/files"
	"github.com/fyrsmithlabs/notesd/internal/retrieval"
)

// Envelope is the success-wrapped response body used by mutation endpoints.
// Soft conflicts (duplicate note, existing file id) come back as HTTP 200
// with Success false; callers must check the success field, not only the
// status code. The convention predates this server and is kept for
// compatibility with existing clients.
type Envelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// QueryRequest is the request body for POST /api/v1/query.
//
// TopK and ResultsPerPage are aliases; ResultsPerPage is the field name the
// original frontend sends. When both are present TopK wins.
type QueryRequest struct {
	Query          string `json:"query" form:"question"`
	TopK           int    `json:"topK" form:"top_k"`
	ResultsPerPage int    `json:"resultsPerPage"`
	Tenant         string `json:"tenant" form:"tenant"`
}

// QueryResponse is the response body for POST /api/v1/query.
type QueryResponse struct {
	Results []retrieval.Result `json:"results"`
}

// ErrorResponse is the body for rejected query requests.
type ErrorResponse struct {
	Error string `json:"error"`
}

// NoteRequest is the request body for POST/DELETE /api/v1/notes. The note
// fields are used by POST; ID/FileID select what DELETE removes.
type NoteRequest struct {
	Tenant    string `json:"tenant" form:"tenant"`
	ID        string `json:"id"`
	FileID    string `json:"fileId"`
	Content   string `json:"content"`
	CreatedAt string `json:"createdAt"`
	Type      string `json:"type"`
	Title     string `json:"title"`
	Author    string `json:"author"`
	Date      string `json:"date"`
	Page      string `json:"page"`
}

// FileDeleteRequest is the request body for DELETE /api/v1/files.
type FileDeleteRequest struct {
	Tenant string `json:"tenant" form:"tenant"`
	ID     string `json:"id"`
}

// UploadResponse is the response body for POST /api/v1/upload.
type UploadResponse struct {
	Success bool          `json:"success"`
	Error   string        `json:"error,omitempty"`
	FileID  string        `json:"fileId,omitempty"`
	Record  *files.Record `json:"record,omitempty"`
}

// StatusResponse is the response body for GET /api/v1/status.
type StatusResponse struct {
	Status        string `json:"status"`
	Version       string `json:"version,omitempty"`
	ActiveTenants int    `json:"active_tenants"`
	LockRegistry  int    `json:"lock_registry"`
	DataDir       string `json:"data_dir"`
	ServerTime    string `json:"server_time"`
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}
