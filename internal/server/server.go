// Package server exposes the pipeline over HTTP.
//
// Routes:
//
//	GET  /healthz        liveness and build version
//	POST /v1/check       run the pipeline, return the full result
//	POST /v1/peel        run the pipeline, return only the peel sequences
//	POST /v1/render      draw one locus of the dataset (?locus=&format=)
//
// Request bodies carry the dataset and, optionally, pipeline options that
// override the server defaults:
//
//	{"dataset": {"pedigree": [...], "loci": [...]}, "options": {"diagnose": true}}
//
// Every request gets its own [pipeline.Runner]; the cache and the diagnosis
// store are shared. Cache keys carry an "api:" prefix so that results never
// mix with those of the CLI when both use the same backend.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/genelim/internal/config"
	"github.com/matzehuels/genelim/pkg/cache"
	gerrors "github.com/matzehuels/genelim/pkg/errors"
	"github.com/matzehuels/genelim/pkg/observability"
	"github.com/matzehuels/genelim/pkg/pipeline"
	"github.com/matzehuels/genelim/pkg/store"
)

// Server handles API requests.
type Server struct {
	cache    cache.Cache
	keyer    cache.Keyer
	store    store.Store
	logger   *log.Logger
	defaults pipeline.Options
	maxBody  int64
	ttl      time.Duration
}

// Options configure a Server.
type Options struct {
	Cache  cache.Cache
	Store  store.Store
	Logger *log.Logger
	// Defaults are the pipeline options requests start from.
	Defaults pipeline.Options
	// MaxBody limits request bodies, in bytes; 0 means no limit.
	MaxBody int64
	// TTL overrides the cache expiry of per-locus results.
	TTL time.Duration
}

// New creates a server. A nil cache disables caching.
func New(opts Options) *Server {
	if opts.Cache == nil {
		opts.Cache = cache.NewNullCache()
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &Server{
		cache:    opts.Cache,
		keyer:    cache.NewScopedKeyer(nil, "api:"),
		store:    opts.Store,
		logger:   opts.Logger,
		defaults: opts.Defaults,
		maxBody:  opts.MaxBody,
		ttl:      opts.TTL,
	}
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/check", s.handleCheck)
		r.Post("/peel", s.handlePeel)
		r.Post("/render", s.handleRender)
	})
	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, cfg config.Server) error {
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  cfg.ReadTimeout.Duration,
		WriteTimeout: cfg.WriteTimeout.Duration,
		BaseContext:  func(net.Listener) context.Context { return ctx },
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
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// observe fires the HTTP hooks and logs every request.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hooks := observability.HTTP()
		hooks.OnRequest(r.Context(), r.Method, r.URL.Path)
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		path := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			path = rc.RoutePattern()
		}
		duration := time.Since(start)
		hooks.OnResponse(r.Context(), r.Method, path, status, duration)
		s.logger.Debug("request",
			"id", middleware.GetReqID(r.Context()),
			"method", r.Method,
			"path", path,
			"status", status,
			"duration", duration)
	})
}

// newRunner returns a runner for one request.
func (s *Server) newRunner() *pipeline.Runner {
	r := pipeline.NewRunner(s.cache, s.keyer, s.logger)
	r.Store = s.store
	if s.ttl > 0 {
		r.TTL = s.ttl
	}
	return r
}

// statusFor maps an error code to an HTTP status.
func statusFor(err error) int {
	switch gerrors.GetCode(err) {
	case gerrors.ErrCodeInvalidInput, gerrors.ErrCodeInvalidPedigree, gerrors.ErrCodeInvalidLocus,
		gerrors.ErrCodeInvalidFormat, gerrors.ErrCodeInvalidPath, gerrors.ErrCodeConfiguration:
		return http.StatusBadRequest
	case gerrors.ErrCodeInconsistent:
		return http.StatusUnprocessableEntity
	case gerrors.ErrCodeNotFound:
		return http.StatusNotFound
	case gerrors.ErrCodeCancelled:
		return http.StatusRequestTimeout
	case gerrors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	}
	return http.StatusInternalServerError
}

type errorBody struct {
	Code    gerrors.Code `json:"code"`
	Message string       `json:"message"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
	// Result holds the loci finished before the failure.
	Result *pipeline.Result `json:"result,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, err error, partial *pipeline.Result) {
	code := gerrors.GetCode(err)
	if code == "" {
		code = gerrors.ErrCodeInternal
	}
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "err", err)
	}
	writeJSON(w, status, errorResponse{
		Error:  errorBody{Code: code, Message: gerrors.UserMessage(err)},
		Result: partial,
	})
}
