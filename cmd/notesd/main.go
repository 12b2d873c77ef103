// Notesd is a multi-tenant note-retrieval daemon.
//
// Each tenant accumulates a private collection of text fragments extracted
// from uploaded documents and queries them by semantic similarity over HTTP.
//
// Usage:
//
//	# Start the server with defaults
//	notesd serve
//
//	# Load a config file and override via environment
//	notesd serve --config /etc/notesd/config.yaml
//	NOTESD_SERVER_PORT=8080 notesd serve
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/notesd/internal/config"
	"github.com/fyrsmithlabs/notesd/internal/embeddings"
	"github.com/fyrsmithlabs/notesd/internal/files"
	httpserver "github.com/fyrsmithlabs/notesd/internal/http"
	"github.com/fyrsmithlabs/notesd/internal/logging"
	"github.com/fyrsmithlabs/notesd/internal/notes"
	"github.com/fyrsmithlabs/notesd/internal/recordstore"
	"github.com/fyrsmithlabs/notesd/internal/retrieval"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

var configPath string

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "notesd",
	Short: "Multi-tenant semantic note store",
	Long: `notesd keeps per-tenant collections of notes and source-file metadata,
and answers natural-language queries with the semantically closest notes.`,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the notesd HTTP server",
	RunE:  runServe,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("notesd %s (commit %s, built %s)\n", version, gitCommit, buildDate)
	},
}

func init() {
	serveCmd.Flags().StringVar(&configPath, "config", "", "path to YAML config file")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger, err := logging.New(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Fields: map[string]string{"service": "notesd", "version": version},
	})
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	store := recordstore.NewStore(cfg.Storage.DataDir, logger)
	noteSvc := notes.NewService(store, logger)
	registry := files.NewRegistry(store, logger)

	embedder, err := embeddings.NewProvider(embeddings.ProviderConfig{
		Provider: cfg.Embedding.Provider,
		BaseURL:  cfg.Embedding.BaseURL,
		Model:    cfg.Embedding.Model,
		Timeout:  cfg.Embedding.Timeout,
	})
	if err != nil {
		return fmt.Errorf("creating embedding provider: %w", err)
	}

	engine := retrieval.NewEngine(noteSvc, registry, embedder, retrieval.Config{
		Threshold:   cfg.Retrieval.Threshold,
		DefaultTopK: cfg.Retrieval.DefaultTopK,
	}, logger)

	srv, err := httpserver.NewServer(store, noteSvc, registry, engine, logger, &httpserver.Config{
		Host:             cfg.Server.Host,
		Port:             cfg.Server.Port,
		Version:          version,
		UploadMaxBytes:   cfg.Upload.MaxSizeBytes,
		UploadExtensions: cfg.Upload.AllowedExtensions,
	})
	if err != nil {
		return fmt.Errorf("creating http server: %w", err)
	}

	logger.Info("notesd starting",
		zap.String("version", version),
		zap.String("data_dir", cfg.Storage.DataDir),
		zap.String("embedding_model", cfg.Embedding.Model),
		zap.Float64("retrieval_threshold", cfg.Retrieval.Threshold),
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case sig := <-sigCh:
		logger.Info("signal received, shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
