package http

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/notesd/internal/files"
	"github.com/fyrsmithlabs/notesd/internal/notes"
	"github.com/fyrsmithlabs/notesd/internal/recordstore"
	"github.com/fyrsmithlabs/notesd/internal/retrieval"
	"github.com/fyrsmithlabs/notesd/internal/tenant"
)

// Config holds HTTP server configuration.
type Config struct {
	Host string
	Port int

	// Version is reported on /api/v1/status.
	Version string

	// UploadMaxBytes caps uploaded file size.
	UploadMaxBytes int64
	// UploadExtensions lists acceptable lowercase extensions without dots.
	UploadExtensions []string
}

// Server exposes the notesd HTTP API.
type Server struct {
	echo     *echo.Echo
	logger   *zap.Logger
	config   *Config
	metrics  *Metrics
	store    *recordstore.Store
	notes    *notes.Service
	registry *files.Registry
	engine   *retrieval.Engine

	mu            sync.Mutex
	activeTenants map[string]struct{}
}

// NewServer creates the HTTP server with all routes registered.
func NewServer(store *recordstore.Store, noteSvc *notes.Service, registry *files.Registry, engine *retrieval.Engine, logger *zap.Logger, cfg *Config) (*Server, error) {
	if store == nil || noteSvc == nil || registry == nil || engine == nil {
		return nil, fmt.Errorf("store, notes, registry, and engine are required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = &Config{Host: "localhost", Port: 5000}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	metrics := NewMetrics(func() float64 { return float64(store.LockCount()) })

	s := &Server{
		echo:          e,
		logger:        logger.Named("http"),
		config:        cfg,
		metrics:       metrics,
		store:         store,
		notes:         noteSvc,
		registry:      registry,
		engine:        engine,
		activeTenants: make(map[string]struct{}),
	}

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(metrics.middleware)
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			duration := time.Since(start)

			s.logger.Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", duration),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)

			return err
		}
	})

	s.registerRoutes()
	return s, nil
}

// registerRoutes sets up the HTTP endpoints.
func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(
		promhttp.HandlerFor(s.metrics.Registry(), promhttp.HandlerOpts{})))

	v1 := s.echo.Group("/api/v1")
	v1.POST("/query", s.handleQuery)

	v1.GET("/notes", s.handleListNotes)
	v1.POST("/notes", s.handleAddNote)
	v1.DELETE("/notes", s.handleDeleteNotes)

	v1.GET("/files", s.handleListFiles)
	v1.POST("/files", s.handleAddFile)
	v1.DELETE("/files", s.handleDeleteFile)

	v1.POST("/upload", s.handleUpload)
	v1.GET("/download/:fileId", s.handleDownload)

	v1.GET("/status", s.handleStatus)
}

// resolveTenant derives the sanitized tenant identifier for a request.
// Precedence: query parameter, then the body field the handler already
// bound, then the form field. Anything unusable resolves to the default
// tenant, never an error.
func (s *Server) resolveTenant(c echo.Context, bodyTenant string) string {
	raw := c.QueryParam("tenant")
	if raw == "" {
		raw = bodyTenant
	}
	if raw == "" {
		raw = c.FormValue("tenant")
	}

	id := tenant.Sanitize(raw)

	s.mu.Lock()
	s.activeTenants[id] = struct{}{}
	s.mu.Unlock()

	return id
}

// activeTenantCount reports how many distinct tenants this process served.
func (s *Server) activeTenantCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.activeTenants)
}

// handleHealth returns a simple health check response.
func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// handleStatus reports process-level counters.
func (s *Server) handleStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, StatusResponse{
		Status:        "running",
		Version:       s.config.Version,
		ActiveTenants: s.activeTenantCount(),
		LockRegistry:  s.store.LockCount(),
		DataDir:       s.store.Root(),
		ServerTime:    time.Now().Format("2006-01-02 15:04:05"),
	})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info("starting http server", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}
