// Package config provides configuration loading for notesd.
//
// Configuration is loaded from a YAML file, then overridden by environment
// variables, with hardcoded defaults underneath.
package config

import (
	"fmt"
	"time"
)

// Config holds the complete notesd configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Storage   StorageConfig   `koanf:"storage"`
	Logging   LoggingConfig   `koanf:"logging"`
	Embedding EmbeddingConfig `koanf:"embedding"`
	Retrieval RetrievalConfig `koanf:"retrieval"`
	Upload    UploadConfig    `koanf:"upload"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// StorageConfig holds collection storage configuration.
type StorageConfig struct {
	// DataDir is the root under which per-tenant collections live.
	DataDir string `koanf:"data_dir"`
}

// LoggingConfig holds logger configuration.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `koanf:"level"`
	// Format is "json" or "console".
	Format string `koanf:"format"`
}

// EmbeddingConfig holds embedding provider configuration.
type EmbeddingConfig struct {
	// Provider is the provider type. Only "tei" is currently supported.
	Provider string `koanf:"provider"`
	// BaseURL is the embedding endpoint base URL.
	BaseURL string `koanf:"base_url"`
	// Model is the embedding model name.
	Model string `koanf:"model"`
	// Timeout bounds one embed round trip.
	Timeout time.Duration `koanf:"timeout"`
}

// RetrievalConfig holds retrieval engine configuration.
type RetrievalConfig struct {
	// Threshold is the maximum squared-L2 distance for a relevant result.
	// Its scale is coupled to the embedding model; recalibrate them
	// together when the model changes.
	Threshold float64 `koanf:"threshold"`
	// DefaultTopK is the result count when a query does not supply one.
	DefaultTopK int `koanf:"default_top_k"`
}

// UploadConfig holds upload endpoint configuration.
type UploadConfig struct {
	// MaxSizeBytes caps an uploaded file's size.
	MaxSizeBytes int64 `koanf:"max_size_bytes"`
	// AllowedExtensions lists acceptable lowercase extensions without dots.
	AllowedExtensions []string `koanf:"allowed_extensions"`
}

// applyDefaults fills in zero values with defaults.
func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 5000
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}
	if cfg.Storage.DataDir == "" {
		cfg.Storage.DataDir = "data"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = "tei"
	}
	if cfg.Embedding.BaseURL == "" {
		cfg.Embedding.BaseURL = "http://localhost:8080"
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = "moka-ai/m3e-base"
	}
	if cfg.Embedding.Timeout == 0 {
		cfg.Embedding.Timeout = 30 * time.Second
	}
	if cfg.Retrieval.Threshold == 0 {
		cfg.Retrieval.Threshold = 500.0
	}
	if cfg.Retrieval.DefaultTopK == 0 {
		cfg.Retrieval.DefaultTopK = 5
	}
	if cfg.Upload.MaxSizeBytes == 0 {
		cfg.Upload.MaxSizeBytes = 16 * 1024 * 1024
	}
	if len(cfg.Upload.AllowedExtensions) == 0 {
		cfg.Upload.AllowedExtensions = []string{"pdf", "docx", "doc", "txt", "md"}
	}
}

// Validate checks the configuration for values that cannot work.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be 1-65535, got %d", c.Server.Port)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}
	if c.Retrieval.Threshold < 0 {
		return fmt.Errorf("retrieval.threshold cannot be negative, got %g", c.Retrieval.Threshold)
	}
	if c.Retrieval.DefaultTopK < 1 {
		return fmt.Errorf("retrieval.default_top_k must be positive, got %d", c.Retrieval.DefaultTopK)
	}
	if c.Upload.MaxSizeBytes < 1 {
		return fmt.Errorf("upload.max_size_bytes must be positive, got %d", c.Upload.MaxSizeBytes)
	}
	return nil
}
