package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/anyjiujitsu/openmat-service/internal/catalog"
	"github.com/anyjiujitsu/openmat-service/internal/domain"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// distanceWait bounds how long a directory request waits for its origin ZIP
// to resolve before answering with pending set.
const distanceWait = 3 * time.Second

// Catalog is the read side of the catalog the API serves.
type Catalog interface {
	sharedobs.ReadinessChecker
	Directory(f domain.DirectoryFilter, dist domain.DistanceFilter, onUpdate func()) catalog.DirectoryView
	Events(f domain.EventFilter) catalog.EventsView
	Facets() domain.Facets
}

// Server exposes the directory and events API alongside health, readiness,
// and metrics endpoints.
type Server struct {
	httpServer *http.Server
	catalog    Catalog
	logger     *slog.Logger
	wait       time.Duration
}

// NewServer creates an HTTP server. allowedOrigins configures CORS for the
// /api routes; an empty list allows any origin.
func NewServer(addr string, cat Catalog, allowedOrigins []string, logger *slog.Logger) *Server {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      r,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		catalog: cat,
		logger:  logger,
		wait:    distanceWait,
	}

	r.Get("/healthz", sharedobs.LivenessHandler())
	r.Get("/readyz", sharedobs.ReadinessHandler(cat))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: allowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))
		r.Get("/directory", s.handleDirectory)
		r.Get("/events", s.handleEvents)
		r.Get("/facets", s.handleFacets)
	})

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

// handleDirectory serves GET /api/directory. When a distance origin is still
// resolving it waits briefly for the lookup and renders again.
func (s *Server) handleDirectory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := domain.DirectoryFilter{
		States: upperSet(q["state"]),
		Opens:  upperSet(q["opens"]),
		Guests: upperSet(q["guests"]),
		Query:  q.Get("q"),
	}

	var dist domain.DistanceFilter
	if zip := strings.TrimSpace(q.Get("zip")); zip != "" {
		miles, err := strconv.ParseFloat(q.Get("miles"), 64)
		if err != nil || miles < 0 {
			writeError(w, http.StatusBadRequest, "miles must be a non-negative number")
			return
		}
		dist = domain.DistanceFilter{OriginZIP: zip, RadiusMiles: miles}
	}

	updated := make(chan struct{})
	view := s.catalog.Directory(f, dist, func() { close(updated) })
	if view.Pending > 0 {
		timer := time.NewTimer(s.wait)
		defer timer.Stop()
		select {
		case <-updated:
			view = s.catalog.Directory(f, dist, nil)
		case <-timer.C:
			s.logger.Debug("zip lookup still pending", "zip", dist.OriginZIP)
		case <-r.Context().Done():
			return
		}
	}
	writeJSON(w, http.StatusOK, view)
}

// handleEvents serves GET /api/events.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := domain.EventFilter{
		Years:  domain.NewSet(q["year"]...),
		States: domain.NewSet(q["state"]...),
		Types:  domain.NewSet(q["type"]...),
		Query:  q.Get("q"),
	}
	writeJSON(w, http.StatusOK, s.catalog.Events(f))
}

// handleFacets serves GET /api/facets.
func (s *Server) handleFacets(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.catalog.Facets())
}

func upperSet(values []string) domain.Set {
	s := make(domain.Set, len(values))
	for _, v := range values {
		s.Add(strings.ToUpper(v))
	}
	return s
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // client may have gone away
}
