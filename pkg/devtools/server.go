package devtools

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-dev/weft/pkg/core"
)

// TreeSource renders the current host tree. It is called from HTTP
// handlers, so implementations hop to the executor goroutine themselves.
type TreeSource func(ctx context.Context) (string, error)

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server's logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithGatherer sets the registry served on /metrics.
// Default: prometheus.DefaultGatherer
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithEventBuffer sets how many events /events/recent replays (default 256).
// Zero disables the buffer.
func WithEventBuffer(n int) Option {
	return func(s *Server) {
		if n >= 0 {
			s.buffer = n
		}
	}
}

// WithTree sets the source for /tree.
func WithTree(src TreeSource) Option {
	return func(s *Server) {
		s.tree = src
	}
}

// WithTreeTimeout bounds how long /tree waits for the tree source.
func WithTreeTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.treeTimeout = d
		}
	}
}

// Server is the devtools HTTP inspector.
type Server struct {
	logger      *slog.Logger
	gatherer    prometheus.Gatherer
	tree        TreeSource
	treeTimeout time.Duration
	buffer      int
	hub         *hub
	router      chi.Router
}

// New creates a devtools server.
func New(opts ...Option) *Server {
	s := &Server{
		logger:      slog.Default(),
		gatherer:    prometheus.DefaultGatherer,
		treeTimeout: 2 * time.Second,
		buffer:      256,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "devtools")
	s.hub = newHub(s.buffer, s.logger)
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	r.Get("/events", s.hub.serve)
	r.Get("/events/recent", s.handleRecent)
	r.Get("/tree", s.handleTree)
	return r
}

// Handler returns the HTTP handler serving the inspector routes.
func (s *Server) Handler() http.Handler { return s.router }

// Observe implements core.Observer.
func (s *Server) Observe(ev core.Event) {
	s.hub.publish(NewEventRecord(ev))
}

// Clients returns the number of connected event streams.
func (s *Server) Clients() int { return s.hub.clientCount() }

// Close disconnects every event stream.
func (s *Server) Close() { s.hub.close() }

func (s *Server) handleRecent(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.hub.snapshot()); err != nil {
		s.logger.Warn("encode recent events", "error", err)
	}
}

func (s *Server) handleTree(w http.ResponseWriter, req *http.Request) {
	if s.tree == nil {
		http.Error(w, "no tree source", http.StatusNotFound)
		return
	}
	ctx, cancel := context.WithTimeout(req.Context(), s.treeTimeout)
	defer cancel()

	html, err := s.tree(ctx)
	if err != nil {
		s.logger.Warn("tree source failed", "error", err)
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(html))
}
