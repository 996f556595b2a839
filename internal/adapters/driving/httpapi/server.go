// Package httpapi exposes source status and sync control over HTTP.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/custodia-labs/sercha-intake/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-intake/internal/logger"
)

// DefaultAddr is the listen address used when none is configured.
const DefaultAddr = "127.0.0.1:8790"

// maxUploadBytes bounds a multipart upload to /assess.
const maxUploadBytes = 64 << 20

// Options configure the server.
type Options struct {
	Addr string

	// AllowedOrigins enables CORS for browser dashboards. Empty disables it.
	AllowedOrigins []string

	// RequestTimeout bounds every request except sync.
	RequestTimeout time.Duration

	// WorkDir receives uploads for /assess. Empty uses the OS temp dir.
	WorkDir string

	// MCP, when set, is mounted at /mcp outside the request timeout.
	MCP http.Handler
}

// Server wraps the HTTP server instance and its handlers.
type Server struct {
	httpServer *http.Server
	handler    *handler
}

// NewServer builds and wires all routes.
func NewServer(engine driving.SyncEngine, intake driving.IntakeService, opts Options) *Server {
	if opts.Addr == "" {
		opts.Addr = DefaultAddr
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 60 * time.Second
	}

	h := newHandler(engine, intake, opts.WorkDir)
	return &Server{
		httpServer: &http.Server{
			Addr:              opts.Addr,
			Handler:           newRouter(h, opts),
			ReadHeaderTimeout: 10 * time.Second,
		},
		handler: h,
	}
}

func newRouter(h *handler, opts Options) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	if len(opts.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: opts.AllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
		}))
	}

	r.Get("/healthz", h.health)

	r.Group(func(api chi.Router) {
		api.Use(middleware.Timeout(opts.RequestTimeout))
		api.Get("/sources", h.listSources)
		api.Get("/sources/{id}/status", h.sourceStatus)
		api.Post("/sources/{id}/pause", h.pause)
		api.Post("/sources/{id}/resume", h.resume)
		api.Post("/sources/{id}/reset", h.reset)
		api.Post("/assess", h.assess)
	})

	// Sync with ?wait=true can outlive the request timeout.
	r.Post("/sources/{id}/sync", h.sync)

	if opts.MCP != nil {
		r.Handle("/mcp", opts.MCP)
		r.Handle("/mcp/*", opts.MCP)
	}

	return r
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Start runs the HTTP server until ctx is cancelled, then shuts it down.
func (s *Server) Start(ctx context.Context) error {
	s.handler.setBase(ctx)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP API listening on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.Shutdown(shutdownCtx)
}

// Shutdown gracefully stops the server and waits for background syncs.
func (s *Server) Shutdown(ctx context.Context) error {
	logger.Info("Shutting down HTTP API...")
	err := s.httpServer.Shutdown(ctx)
	s.handler.wait()
	return err
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		logger.Debug("%s %s %d %s [%s]", r.Method, r.URL.Path, ww.Status(),
			time.Since(start).Round(time.Millisecond), middleware.GetReqID(r.Context()))
	})
}
