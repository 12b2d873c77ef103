// Package files implements the tenant-scoped FileRegistry: metadata records
// describing source documents, independent of the notes extracted from them.
package files

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/notesd/internal/recordstore"
)

// CollectionName is the on-disk collection name ("<tenant>/files.json").
const CollectionName = "files"

// Sentinel errors for registry operations.
var (
	// ErrMissingID is returned when a record has no id.
	ErrMissingID = errors.New("file id is required")

	// ErrAlreadyExists is returned when a record with the same id is already
	// registered. The registry is unchanged.
	ErrAlreadyExists = errors.New("file already exists")

	// ErrRecordNotFound is returned by Get when no record has the given id.
	ErrRecordNotFound = errors.New("file record not found")
)

// Meta carries document metadata. Downloadable gates whether retrieval
// responses may expose the underlying file for download.
type Meta struct {
	Title         string  `json:"title,omitempty"`
	Author        string  `json:"author,omitempty"`
	Date          string  `json:"date,omitempty"`
	Page          string  `json:"page,omitempty"`
	Type          string  `json:"type,omitempty"`
	Downloadable  bool    `json:"downloadable"`
	FileSize      int64   `json:"file_size,omitempty"`
	UploadTime    float64 `json:"upload_time,omitempty"`
	FileExtension string  `json:"file_extension,omitempty"`
}

// Record describes one registered source document.
type Record struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Meta  Meta   `json:"meta"`
}

// Registry exposes CRUD over a tenant's FileRegistry collection.
type Registry struct {
	coll   recordstore.Collection[Record]
	logger *zap.Logger
}

// NewRegistry creates a file registry backed by the given store.
func NewRegistry(store *recordstore.Store, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		coll:   recordstore.NewCollection[Record](store, CollectionName),
		logger: logger.Named("files"),
	}
}

// Add registers a record. The id is caller-supplied and must be unique
// within the tenant.
func (r *Registry) Add(ctx context.Context, tenantID string, rec Record) error {
	if rec.ID == "" {
		return ErrMissingID
	}

	err := r.coll.Update(ctx, tenantID, func(records []Record) ([]Record, error) {
		for _, existing := range records {
			if existing.ID == rec.ID {
				return nil, ErrAlreadyExists
			}
		}
		return append(records, rec), nil
	})
	if err != nil {
		return err
	}

	r.logger.Debug("file registered",
		zap.String("tenant", tenantID),
		zap.String("id", rec.ID),
		zap.String("title", rec.Title),
	)
	return nil
}

// List returns the tenant's registry in insertion order.
func (r *Registry) List(ctx context.Context, tenantID string) ([]Record, error) {
	return r.coll.Load(ctx, tenantID)
}

// Get returns the record with the given id, or ErrRecordNotFound.
func (r *Registry) Get(ctx context.Context, tenantID, id string) (Record, error) {
	records, err := r.coll.Load(ctx, tenantID)
	if err != nil {
		return Record{}, err
	}
	for _, rec := range records {
		if rec.ID == id {
			return rec, nil
		}
	}
	return Record{}, ErrRecordNotFound
}

// Remove deletes the record with the given id. Removal is idempotent: a
// missing id is success, not an error. Deleting a record does not cascade to
// the notes extracted from it; retrieval degrades through the enrichment
// fallback instead.
func (r *Registry) Remove(ctx context.Context, tenantID, id string) error {
	return r.coll.Update(ctx, tenantID, func(records []Record) ([]Record, error) {
		kept := records[:0:0]
		for _, rec := range records {
			if rec.ID != id {
				kept = append(kept, rec)
			}
		}
		return kept, nil
	})
}

// NewUploadRecord builds the registry record for an uploaded file, mirroring
// the metadata shape the frontend expects. The id embeds the sanitized
// filename after a random prefix so collisions are practically impossible
// while the name stays recognizable.
func NewUploadRecord(filename string, size int64) Record {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	return Record{
		ID:    uuid.NewString() + strings.NewReplacer("/", "_", "\\", "_").Replace(filename),
		Title: filename,
		Meta: Meta{
			Title:         filename,
			Type:          "uploaded",
			Downloadable:  true,
			FileSize:      size,
			UploadTime:    float64(time.Now().Unix()),
			FileExtension: ext,
		},
	}
}
