// Package api serves the read-side HTTP endpoints over the whale store
// and the refresh coordinator's snapshot.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/whale-tracker/internal/config"
	"github.com/whale-tracker/internal/logging"
	"github.com/whale-tracker/internal/models"
	"github.com/whale-tracker/internal/storage"
	"github.com/whale-tracker/internal/types"
)

// SnapshotSource is the coordinator surface the API reads from.
type SnapshotSource interface {
	Snapshot(ctx context.Context) *models.Snapshot
	IsStale() bool
}

// WhaleReader is the repository surface the API reads from.
type WhaleReader interface {
	Top(ctx context.Context, limit int, network types.Network) ([]models.WhaleRecord, error)
	GetStats(ctx context.Context) (*storage.Stats, error)
}

// Server wraps the HTTP server and its dependencies.
type Server struct {
	router      *mux.Router
	httpServer  *http.Server
	whales      WhaleReader
	coordinator SnapshotSource
	rateLimiter *RateLimiter
}

// NewServer creates a new API server. coordinator may be nil when the
// process serves stored data only.
func NewServer(cfg *config.ServerConfig, whales WhaleReader, coordinator SnapshotSource) *Server {
	s := &Server{
		router:      mux.NewRouter(),
		whales:      whales,
		coordinator: coordinator,
		rateLimiter: NewRateLimiter(cfg.RPS),
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(LoggingMiddleware)
	s.router.Use(RecoveryMiddleware)
	s.router.Use(CORSMiddleware)
	s.router.Use(RateLimitMiddleware(s.rateLimiter))
	s.router.Use(CompressionMiddleware)
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/whales/top", s.handleTopWhales).Methods(http.MethodGet)
	s.router.HandleFunc("/whales/stats", s.handleWhaleStats).Methods(http.MethodGet)
}

// Start begins serving HTTP requests. Blocks until the server stops.
func (s *Server) Start() error {
	logging.WithField("addr", s.httpServer.Addr).Info("starting API server")
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("shutting down API server")
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the routed handler for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}
