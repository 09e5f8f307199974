// Package server exposes the registry over HTTP: the rendered read path,
// the schema-gated write path, health and metrics.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dyluth/roster/internal/platform/metrics"
	"github.com/dyluth/roster/pkg/roster"
)

// ProtocolHeader carries the protocol version when the query parameter is absent.
const ProtocolHeader = "X-Roster-Protocol"

// maxBodyBytes bounds write-path request bodies.
const maxBodyBytes = 1 << 20

// Fetcher serves the ordered registry.
type Fetcher interface {
	FetchRegistry(ctx context.Context) ([]roster.Entry, error)
}

// Writer applies schema-gated changes.
type Writer interface {
	Append(ctx context.Context, candidate map[string]any) (*roster.Entry, error)
	Update(ctx context.Context, position int, candidate map[string]any) (*roster.Entry, error)
}

// Pinger reports store health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options configures a Server.
type Options struct {
	Query  Fetcher
	Admin  Writer
	Health Pinger
	Logger *slog.Logger

	// Registry receives the server's metrics and backs /metrics.
	// A fresh registry is created when nil.
	Registry *prometheus.Registry

	// ExposeRaw mounts GET /api/registry/raw, which returns unredacted entries.
	ExposeRaw bool

	RequestTimeout time.Duration
}

// Server is the registry HTTP handler.
type Server struct {
	router  chi.Router
	query   Fetcher
	admin   Writer
	health  Pinger
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// New builds the router.
func New(opts Options) *Server {
	reg := opts.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	s := &Server{
		router:  chi.NewRouter(),
		query:   opts.Query,
		admin:   opts.Admin,
		health:  opts.Health,
		logger:  log,
		metrics: metrics.New(reg),
	}

	r := s.router
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	r.Route("/api/registry", func(r chi.Router) {
		r.Use(middleware.Timeout(timeout))
		r.Get("/", s.handleRegistry)
		if opts.ExposeRaw {
			r.Get("/raw", s.handleRaw)
		}
		r.Post("/", s.handleAppend)
		r.Patch("/{position}", s.handleUpdate)
	})

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// observe logs each request and records its latency under the route pattern.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)
		s.metrics.ObserveRequest(route, strconv.Itoa(status), elapsed.Seconds())

		s.logger.DebugContext(r.Context(), "request served",
			"request_id", middleware.GetReqID(r.Context()),
			"method", r.Method,
			"route", route,
			"status", status,
			"duration_ms", elapsed.Milliseconds(),
		)
	})
}
