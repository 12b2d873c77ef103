// Package notes implements the tenant-scoped Notes collection: retrievable
// text fragments with provenance metadata, optionally linked to a registered
// source file.
package notes

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/notesd/internal/recordstore"
)

// CollectionName is the on-disk collection name ("<tenant>/notes.json").
const CollectionName = "notes"

// Sentinel errors for note operations.
var (
	// ErrMissingContent is returned when a note has no content.
	ErrMissingContent = errors.New("note content is required")

	// ErrDuplicateContent is returned when a note with the same
	// (content, fileId) already exists. The collection is unchanged.
	ErrDuplicateContent = errors.New("note content already exists")

	// ErrNotFound is returned when a remove selector matches nothing.
	ErrNotFound = errors.New("note not found")

	// ErrMissingSelector is returned when remove is called without exactly
	// one of id or fileId.
	ErrMissingSelector = errors.New("exactly one of id or fileId is required")
)

// Note is a single retrievable text fragment. Notes are immutable once
// created; there is no update operation.
type Note struct {
	ID        string `json:"id"`
	FileID    string `json:"fileId,omitempty"`
	Content   string `json:"content"`
	CreatedAt string `json:"createdAt,omitempty"`
	Type      string `json:"type,omitempty"`
	Title     string `json:"title,omitempty"`
	Author    string `json:"author,omitempty"`
	Date      string `json:"date,omitempty"`
	Page      string `json:"page,omitempty"`
}

// Selector picks notes for removal: by single id or by source fileId.
type Selector struct {
	ID     string
	FileID string
}

// Service exposes CRUD over a tenant's Notes collection.
type Service struct {
	coll   recordstore.Collection[Note]
	logger *zap.Logger
}

// NewService creates a notes service backed by the given store.
func NewService(store *recordstore.Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		coll:   recordstore.NewCollection[Note](store, CollectionName),
		logger: logger.Named("notes"),
	}
}

// Add appends a note to the tenant's collection. Duplicate (content, fileId)
// pairs are suppressed with ErrDuplicateContent. A missing id or createdAt is
// filled in at add time so bulk-extracted notes remain individually
// addressable.
func (s *Service) Add(ctx context.Context, tenantID string, note Note) error {
	if note.Content == "" {
		return ErrMissingContent
	}

	err := s.coll.Update(ctx, tenantID, func(records []Note) ([]Note, error) {
		for _, existing := range records {
			if existing.Content == note.Content && existing.FileID == note.FileID {
				return nil, ErrDuplicateContent
			}
		}
		if note.ID == "" {
			note.ID = uuid.NewString()
		}
		if note.CreatedAt == "" {
			note.CreatedAt = time.Now().UTC().Format(time.RFC3339)
		}
		return append(records, note), nil
	})
	if err != nil {
		return err
	}

	s.logger.Debug("note added",
		zap.String("tenant", tenantID),
		zap.String("id", note.ID),
		zap.String("file_id", note.FileID),
	)
	return nil
}

// List returns the tenant's notes in insertion order. A non-empty fileID
// restricts the result to notes extracted from that file.
func (s *Service) List(ctx context.Context, tenantID, fileID string) ([]Note, error) {
	records, err := s.coll.Load(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if fileID == "" {
		return records, nil
	}

	filtered := make([]Note, 0, len(records))
	for _, n := range records {
		if n.FileID == fileID {
			filtered = append(filtered, n)
		}
	}
	return filtered, nil
}

// Remove deletes the note matching sel.ID, or every note matching
// sel.FileID (the cascade used when a source file is withdrawn). Exactly one
// selector must be set. ErrNotFound if nothing matched; the collection is
// only rewritten when something was removed.
func (s *Service) Remove(ctx context.Context, tenantID string, sel Selector) error {
	if (sel.ID == "") == (sel.FileID == "") {
		return ErrMissingSelector
	}

	removed := 0
	err := s.coll.Update(ctx, tenantID, func(records []Note) ([]Note, error) {
		kept := records[:0:0]
		for _, n := range records {
			if (sel.ID != "" && n.ID == sel.ID) || (sel.FileID != "" && n.FileID == sel.FileID) {
				continue
			}
			kept = append(kept, n)
		}
		removed = len(records) - len(kept)
		if removed == 0 {
			return nil, ErrNotFound
		}
		return kept, nil
	})
	if err != nil {
		return err
	}

	s.logger.Debug("notes removed",
		zap.String("tenant", tenantID),
		zap.String("id", sel.ID),
		zap.String("file_id", sel.FileID),
		zap.Int("count", removed),
	)
	return nil
}
