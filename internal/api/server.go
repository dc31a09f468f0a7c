// Package api exposes the forecast engine over HTTP.
package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/ruddro-roy/satlink-planner/internal/auth"
	"github.com/ruddro-roy/satlink-planner/internal/forecast"
	"github.com/ruddro-roy/satlink-planner/internal/health"
	"github.com/ruddro-roy/satlink-planner/internal/httputil"
	"github.com/ruddro-roy/satlink-planner/internal/metrics"
	"github.com/ruddro-roy/satlink-planner/internal/tle"
)

// Server holds the HTTP server and its dependencies.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	engine     *forecast.Engine
	store      *tle.Store
	trustProxy bool
}

// NewServer creates a configured HTTP server.
func NewServer(addr string, logger *slog.Logger, engine *forecast.Engine, store *tle.Store, authCfg auth.Config, trustProxy bool) *Server {
	s := &Server{
		logger:     logger,
		engine:     engine,
		store:      store,
		trustProxy: trustProxy,
	}

	mux := http.NewServeMux()

	// Register routes.
	mux.HandleFunc("GET /healthz", health.Healthz)
	mux.HandleFunc("GET /readyz", health.Readyz)
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("POST /api/v1/passes", s.handlePasses)
	mux.HandleFunc("POST /api/v1/passes/export.ics", s.handlePassesICS)
	mux.HandleFunc("POST /api/v1/margin", s.handleMargin)
	mux.HandleFunc("GET /api/v1/elements", s.handleElements)
	mux.HandleFunc("GET /api/v1/elements/{catalog_number}", s.handleElementsByCatalog)

	// Build middleware chain: metrics -> logging -> auth -> mux.
	var handler http.Handler = mux
	handler = auth.Middleware(authCfg)(handler)
	handler = s.loggingMiddleware()(handler)
	handler = metrics.Middleware(handler)

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// HTTPServer returns the underlying *http.Server for external control (e.g. shutdown).
func (s *Server) HTTPServer() *http.Server {
	return s.httpServer
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Handler returns the full middleware-wrapped handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// probePath returns true for health/readiness probe paths that should not log at INFO.
func probePath(path string) bool {
	return path == "/healthz" || path == "/readyz"
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.statusCode = code
	sr.ResponseWriter.WriteHeader(code)
}

func (s *Server) loggingMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sr := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(sr, r)

			duration := time.Since(start)
			level := slog.LevelInfo
			if probePath(r.URL.Path) {
				level = slog.LevelDebug
			}

			s.logger.Log(r.Context(), level, "request",
				"component", "api",
				"method", r.Method,
				"path", r.URL.Path,
				"status", strconv.Itoa(sr.statusCode),
				"duration_ms", duration.Milliseconds(),
				"remote_ip", httputil.ClientIP(r, s.trustProxy),
			)
		})
	}
}
