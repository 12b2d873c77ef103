// Package embeddings generates vector embeddings for note content and
// queries via an external provider.
//
// The provider is an opaque capability: text in, fixed-length float vector
// out, deterministic for a given model version. Documents and queries must
// be encoded with the same model so the vectors live in one comparable
// space. Failures propagate to the caller; there is no internal retry.
package embeddings

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for embedding operations.
var (
	// ErrEmptyInput indicates empty or nil input texts.
	ErrEmptyInput = errors.New("empty or nil input texts")

	// ErrInvalidConfig indicates invalid configuration.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrEmbeddingFailed indicates embedding generation failure.
	ErrEmbeddingFailed = errors.New("embedding generation failed")
)

// Embedder generates vector embeddings from text.
type Embedder interface {
	// EmbedDocuments generates embeddings for multiple texts, one vector per
	// input, in input order.
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedQuery generates an embedding for a single query. Some models
	// optimize differently for queries vs documents.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// ProviderConfig selects and configures an embedding provider.
type ProviderConfig struct {
	// Provider is the provider type. Only "tei" is currently supported.
	Provider string
	// BaseURL is the TEI endpoint base URL.
	BaseURL string
	// Model is the embedding model name, recorded for logging and for
	// threshold calibration bookkeeping.
	Model string
	// Timeout bounds a single embed round trip. Zero means no client
	// timeout; callers bound latency via ctx.
	Timeout time.Duration
}

// NewProvider creates an embedding provider from config.
func NewProvider(cfg ProviderConfig) (Embedder, error) {
	switch cfg.Provider {
	case "tei", "":
		return NewTEIService(TEIConfig{
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			Timeout: cfg.Timeout,
		})
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", ErrInvalidConfig, cfg.Provider)
	}
}
