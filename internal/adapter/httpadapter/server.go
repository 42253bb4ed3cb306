package httpadapter

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/delivery-radius-service/internal/domain"
	"github.com/couchcryptid/delivery-radius-service/internal/session"
)

// CodeDirectory answers reference lookups for the zip code endpoints.
type CodeDirectory interface {
	Lookup(code string) (domain.ReferencePoint, bool)
	SearchByCity(query string, limit int) []domain.ReferencePoint
	ByState(state string) []domain.ReferencePoint
}

// Server exposes health, readiness, metrics, and the query API.
type Server struct {
	httpServer *http.Server
	session    *session.Session
	codes      CodeDirectory
	provider   domain.DriveTimeProvider
	clock      clockwork.Clock
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics, and /api routes.
func NewServer(addr string, sess *session.Session, codes CodeDirectory, provider domain.DriveTimeProvider, clock clockwork.Clock, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:        addr,
			Handler:     mux,
			ReadTimeout: 10 * time.Second,
			// Queries wait on drive-time batches.
			WriteTimeout: 5 * time.Minute,
			IdleTimeout:  60 * time.Second,
		},
		session:  sess,
		codes:    codes,
		provider: provider,
		clock:    clock,
		logger:   logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(sess))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("POST /api/query", s.handleQuery)
	mux.HandleFunc("GET /api/results", s.handleResults)
	mux.HandleFunc("POST /api/overrides/{code}", s.handleToggleOverride)
	mux.HandleFunc("GET /api/summary", s.handleSummary)
	mux.HandleFunc("GET /api/export.csv", s.handleExport)
	mux.HandleFunc("GET /api/progress", s.handleProgress)
	mux.HandleFunc("POST /api/new-search", s.handleNewSearch)
	mux.HandleFunc("POST /api/reset", s.handleReset)
	mux.HandleFunc("POST /api/drive-times", s.handleDriveTimes)
	mux.HandleFunc("GET /api/zipcodes", s.handleSearchCodes)
	mux.HandleFunc("GET /api/zipcodes/{code}", s.handleLookupCode)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}
