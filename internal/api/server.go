package api

import (
	"log/slog"
	"net/http"

	"github.com/dgallion1/navcore/internal/analytics"
	"github.com/dgallion1/navcore/internal/catalog"
	"github.com/dgallion1/navcore/internal/config"
	"github.com/dgallion1/navcore/internal/observer"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server is the HTTP preview API for navigation sources.
type Server struct {
	router     chi.Router
	catalog    *catalog.Catalog
	pool       *observer.Pool
	dispatcher analytics.Dispatcher
	log        *slog.Logger
	cfg        config.Config
}

// NewServer creates and configures the HTTP server. pool may be nil when
// no observer hosts are running.
func NewServer(cat *catalog.Catalog, pool *observer.Pool, log *slog.Logger, cfg config.Config) *Server {
	if pool == nil {
		pool = observer.NewPool(nil)
	}
	s := &Server{
		catalog:    cat,
		pool:       pool,
		dispatcher: analytics.NewSlogDispatcher(log),
		log:        log,
		cfg:        cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Post("/api/nav/flatten", s.handleFlatten)
		r.Post("/api/nav/secondary", s.handleSecondary)
		r.Post("/api/nav/context", s.handleContext)

		r.Get("/api/sources", s.handleListSources)
		r.Get("/api/sources/{name}/flatten", s.handleFlattenSource)
		r.Post("/api/sources/{name}/reload", s.handleReloadSource)

		r.Get("/api/observers", s.handleObservers)
		r.Get("/api/stats/reload", s.handleReloadStats)
		r.Post("/api/analytics/format", s.handleAnalyticsFormat)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"sources": len(s.catalog.List()),
	})
}
