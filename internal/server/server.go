// Package server exposes the document store over HTTP.
//
// Routes:
//
//	GET    /healthz                      liveness and build information
//	GET    /metrics                      Prometheus metrics, when configured
//	GET    /documents                    list stored documents
//	PUT    /documents/{name}             validate and store a document
//	GET    /documents/{name}             fetch a document
//	DELETE /documents/{name}             delete a document
//	GET    /documents/{name}/tree        containment tree as JSON
//	GET    /documents/{name}/graph.json  dependency order as JSON
//	GET    /documents/{name}/graph.svg   dependency graph as SVG
//
// A document is only stored after it has been read back successfully, so
// everything in the store deserializes.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/keygraph/internal/config"
	"github.com/matzehuels/keygraph/pkg/serial"
	"github.com/matzehuels/keygraph/pkg/store"
)

// Server serves the HTTP API.
type Server struct {
	docs       store.Store
	serializer *serial.Serializer
	logger     *log.Logger
	metrics    http.Handler
	maxBytes   int64
}

// Option configures a [Server].
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics mounts h at /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

// WithMaxDocumentBytes limits the size of uploaded documents.
func WithMaxDocumentBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBytes = n
		}
	}
}

// New creates a server over docs that validates uploads with ser.
func New(docs store.Store, ser *serial.Serializer, opts ...Option) *Server {
	s := &Server{
		docs:       docs,
		serializer: ser,
		logger:     log.Default(),
		maxBytes:   32 << 20,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed API.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", s.handleHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Route("/documents", func(r chi.Router) {
		r.Get("/", s.handleList)
		r.Route("/{name}", func(r chi.Router) {
			r.Use(validName)
			r.Put("/", s.handlePut)
			r.Get("/", s.handleGet)
			r.Delete("/", s.handleDelete)
			r.Get("/tree", s.handleTree)
			r.Get("/graph.json", s.handleGraphJSON)
			r.Get("/graph.svg", s.handleGraphSVG)
		})
	})
	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start).Round(time.Microsecond),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

func validName(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := store.ValidateName(chi.URLParam(r, "name")); err != nil {
			writeError(w, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Run serves the API on cfg.Addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context, cfg config.ServerConfig) error {
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", cfg.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	timeout := cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	s.logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
