// Package server exposes the document structuring pipeline over HTTP: a
// processing endpoint accepting images, PDFs, or pre-recognized token pages,
// a websocket endpoint streaming per-page progress, health and prometheus
// metrics endpoints, and CORS/metrics middleware with optional rate limiting.
package server

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MeKo-Tech/docstruct/internal/document"
	"github.com/MeKo-Tech/docstruct/internal/pipeline"
)

// processor is what the server needs from the pipeline.
type processor interface {
	ProcessDocument(ctx context.Context, inputs []pipeline.PageInput) (document.Document, error)
	ProcessImages(ctx context.Context, imgs []image.Image) (document.Document, error)
	ProcessPage(ctx context.Context, in pipeline.PageInput) document.Page
	Assemble(pages []document.Page) document.Document
}

// Config holds server configuration.
type Config struct {
	Host        string
	Port        int
	CORSOrigin  string
	MaxUploadMB int64
	TimeoutSec  int

	// Rate limiting is disabled when RequestsPerMinute is zero.
	RequestsPerMinute int
	MaxDataPerDayMB   int64
}

// Server holds the HTTP server state and dependencies.
type Server struct {
	pipeline    processor
	corsOrigin  string
	maxUploadMB int64
	timeoutSec  int
	rateLimiter *RateLimiter
	logger      *slog.Logger
}

// New creates a server around an already-built pipeline.
func New(pl processor, cfg Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		pipeline:    pl,
		corsOrigin:  cfg.CORSOrigin,
		maxUploadMB: cfg.MaxUploadMB,
		timeoutSec:  cfg.TimeoutSec,
		logger:      logger,
	}
	if cfg.RequestsPerMinute > 0 {
		s.rateLimiter = NewRateLimiter(cfg.RequestsPerMinute, 0, 0, cfg.MaxDataPerDayMB*1024*1024)
	}
	return s
}

// SetupRoutes configures the HTTP routes.
func (s *Server) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", s.corsMiddleware(s.healthHandler))
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/process", s.corsMiddleware(s.rateLimitMiddleware(s.processHandler)))
	mux.HandleFunc("/ws/process", s.processWebSocketHandler)
}

// Handler returns the fully-wired HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.SetupRoutes(mux)
	return mux
}

// ListenAndServe runs the server until the context is cancelled, then shuts
// down gracefully within the given timeout.
func (s *Server) ListenAndServe(ctx context.Context, host string, port int, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", host, port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      time.Duration(s.timeoutSec) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", slog.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}
