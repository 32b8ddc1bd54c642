package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/cuemby/modelkeeper/pkg/log"
	"github.com/cuemby/modelkeeper/pkg/metrics"
	"github.com/cuemby/modelkeeper/pkg/scheduler"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
)

const (
	readHeaderTimeout = 5 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
)

// StatusSource reports the scheduler's state for /status
type StatusSource interface {
	State() scheduler.State
	LastTick() (scheduler.TickReport, bool)
}

// Server exposes health, readiness, metrics, and reconciliation status over HTTP
type Server struct {
	router  *chi.Mux
	source  StatusSource
	version string
	logger  zerolog.Logger

	mu       sync.Mutex
	http     *http.Server
	listener net.Listener
	addr     string
}

// NewServer creates a status server listening on addr
func NewServer(addr string, source StatusSource, version string) *Server {
	s := &Server{
		router:  chi.NewRouter(),
		source:  source,
		version: version,
		logger:  log.WithComponent("api"),
		addr:    addr,
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(metricsMiddleware)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))

	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.Get("/health", metrics.HealthHandler())
	s.router.Get("/ready", metrics.ReadyHandler())
	s.router.Get("/live", metrics.LivenessHandler())
	s.router.Handle("/metrics", metrics.Handler())
	s.router.Get("/status", s.handleStatus)
}

// Router returns the HTTP handler for embedding in other servers
func (s *Server) Router() http.Handler {
	return s.router
}

// Addr returns the bound address once Serve is listening, otherwise the
// configured address
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// Serve listens on the configured address and blocks until the server fails
// or Shutdown is called. A clean shutdown returns nil.
func (s *Server) Serve() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.addr, err)
	}

	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}

	s.mu.Lock()
	if s.http != nil {
		s.mu.Unlock()
		_ = ln.Close()
		return fmt.Errorf("status server already serving")
	}
	s.http = srv
	s.listener = ln
	s.mu.Unlock()

	s.logger.Info().Str("addr", ln.Addr().String()).Msg("Status server listening")

	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.http
	s.mu.Unlock()

	if srv == nil {
		return nil
	}
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown status server: %w", err)
	}
	s.logger.Info().Msg("Status server stopped")
	return nil
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int64("duration_ms", time.Since(start).Milliseconds()).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("Request")
	})
}
