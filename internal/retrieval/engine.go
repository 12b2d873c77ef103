// Package retrieval ranks a tenant's notes against a natural-language query.
//
// The engine is stateless per call: it loads the tenant's notes, embeds
// every note's content plus the query with one provider (so the vectors are
// comparable), builds a transient flat index, and returns the closest notes
// under a distance threshold, enriched with file-registry metadata.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/notesd/internal/embeddings"
	"github.com/fyrsmithlabs/notesd/internal/files"
	"github.com/fyrsmithlabs/notesd/internal/notes"
)

// ErrEmptyKnowledgeBase is returned when the tenant has no notes to search.
// Distinct from a successful query that clears nothing: "nothing indexed" is
// not "nothing relevant".
var ErrEmptyKnowledgeBase = errors.New("knowledge base is empty")

const (
	// DefaultThreshold is the maximum squared-L2 distance for a note to
	// count as relevant, calibrated to the m3e-base embedding space the
	// system shipped with. The scale depends entirely on the embedding
	// model; recalibrate via config when the model changes.
	DefaultThreshold = 500.0

	// DefaultTopK is the result count when the caller does not ask for one.
	DefaultTopK = 5
)

// Config tunes the engine.
type Config struct {
	// Threshold is the strict upper bound on result distance.
	Threshold float64
	// DefaultTopK is used when a query supplies no positive topK.
	DefaultTopK int
}

// Result is one enriched retrieval hit: the original note fields plus the
// distance score and the file-registry join.
type Result struct {
	notes.Note
	Score            float64 `json:"score"`
	FileDownloadable bool    `json:"fileDownloadable"`
	FileTitle        string  `json:"fileTitle"`
}

// Engine answers queries over a tenant's notes.
type Engine struct {
	notes    *notes.Service
	registry *files.Registry
	embedder embeddings.Embedder
	cfg      Config
	logger   *zap.Logger
}

// NewEngine creates a retrieval engine. Zero config fields fall back to the
// package defaults.
func NewEngine(noteSvc *notes.Service, registry *files.Registry, embedder embeddings.Embedder, cfg Config, logger *zap.Logger) *Engine {
	if cfg.Threshold <= 0 {
		cfg.Threshold = DefaultThreshold
	}
	if cfg.DefaultTopK <= 0 {
		cfg.DefaultTopK = DefaultTopK
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		notes:    noteSvc,
		registry: registry,
		embedder: embedder,
		cfg:      cfg,
		logger:   logger.Named("retrieval"),
	}
}

// Query returns up to topK notes relevant to the query, ascending by
// distance. An empty result is a valid outcome when nothing clears the
// threshold; ErrEmptyKnowledgeBase means there was nothing to search at all.
func (e *Engine) Query(ctx context.Context, tenantID, query string, topK int) ([]Result, error) {
	start := time.Now()
	if topK <= 0 {
		topK = e.cfg.DefaultTopK
	}

	all, err := e.notes.List(ctx, tenantID, "")
	if err != nil {
		return nil, fmt.Errorf("loading notes: %w", err)
	}
	if len(all) == 0 {
		return nil, ErrEmptyKnowledgeBase
	}

	contents := make([]string, len(all))
	for i, n := range all {
		contents[i] = n.Content
	}

	noteVecs, err := e.embedder.EmbedDocuments(ctx, contents)
	if err != nil {
		return nil, fmt.Errorf("embedding notes: %w", err)
	}
	queryVec, err := e.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	idx, err := newFlatIndex(noteVecs)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", embeddings.ErrEmbeddingFailed, err)
	}
	matches, err := idx.search(queryVec, topK)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", embeddings.ErrEmbeddingFailed, err)
	}

	results := e.enrich(ctx, tenantID, all, matches)

	e.logger.Debug("query served",
		zap.String("tenant", tenantID),
		zap.Int("notes", len(all)),
		zap.Int("top_k", topK),
		zap.Int("results", len(results)),
		zap.Duration("duration", time.Since(start)),
	)
	return results, nil
}

// enrich filters matches by the threshold and joins the survivors against
// the tenant's file registry. A missing registry record degrades to the
// note's own title and downloadable=false rather than failing the query.
func (e *Engine) enrich(ctx context.Context, tenantID string, all []notes.Note, matches []match) []Result {
	records := map[string]files.Record{}
	if regRecords, err := e.registry.List(ctx, tenantID); err != nil {
		e.logger.Warn("registry unavailable, serving unenriched results",
			zap.String("tenant", tenantID), zap.Error(err))
	} else {
		for _, rec := range regRecords {
			records[rec.ID] = rec
		}
	}

	results := make([]Result, 0, len(matches))
	for _, m := range matches {
		if m.distance >= e.cfg.Threshold {
			continue
		}
		note := all[m.index]

		res := Result{
			Note:      note,
			Score:     m.distance,
			FileTitle: note.Title,
		}
		if note.FileID != "" {
			if rec, ok := records[note.FileID]; ok {
				res.FileDownloadable = rec.Meta.Downloadable
				if rec.Title != "" {
					res.FileTitle = rec.Title
				}
			}
		}
		results = append(results, res)
	}
	return results
}
