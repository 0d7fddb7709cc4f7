// Package web provides the HTTP API consumed by the analytics dashboard:
// dataset validation, CSV upload, schema introspection, and summary lookup.
package web

import (
	"context"
	"net/http"
	"time"

	"github.com/arclend/lenddash/internal/store"
	"github.com/arclend/lenddash/internal/validation"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"

	"github.com/arclend/lenddash/internal/web/middleware"
)

// DatasetStore is the persistence surface the handlers need.
// Satisfied by *store.ReportStore.
type DatasetStore interface {
	SaveDataset(ctx context.Context, meta store.DatasetMeta, res *validation.DatasetResult) error
	Summary(ctx context.Context, id uuid.UUID) (*store.DatasetSummary, error)
	InvalidRecords(ctx context.Context, id uuid.UUID, limit, offset int) ([]store.RejectedRow, error)
	RecentDatasets(ctx context.Context, limit int) ([]store.DatasetSummary, error)
}

// SummaryCache is the optional read-through cache for dataset summaries.
// Satisfied by *cache.SummaryCache; may be nil when Redis is not configured.
type SummaryCache interface {
	Put(ctx context.Context, s *store.DatasetSummary) error
	Get(ctx context.Context, id string) (*store.DatasetSummary, error)
}

// Config holds the web layer's runtime limits.
type Config struct {
	MaxBodySize    int64
	MaxRecords     int
	RequestTimeout time.Duration
	AllowedOrigins []string
}

// Server is the HTTP server for the report validation API.
type Server struct {
	engine *validation.Engine
	store  DatasetStore
	cache  SummaryCache
	cfg    Config
	router *chi.Mux
	server *http.Server
}

// NewServer creates a Server around an engine, a dataset store, and an
// optional summary cache.
func NewServer(engine *validation.Engine, st DatasetStore, sc SummaryCache, cfg Config) *Server {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 60 * time.Second
	}
	s := &Server{
		engine: engine,
		store:  st,
		cache:  sc,
		cfg:    cfg,
		router: chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)
	s.router.Use(chimw.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(chimw.Recoverer)
	s.router.Use(chimw.Compress(5))
	s.router.Use(chimw.Timeout(s.cfg.RequestTimeout))

	origins := s.cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/report-types", s.handleListReportTypes)
		r.Get("/report-types/{reportType}/schema", s.handleGetSchema)
		r.Post("/report-types/{reportType}/validate", s.handleValidate)
		r.Post("/report-types/{reportType}/datasets", s.handleUploadDataset)

		r.Get("/datasets", s.handleRecentDatasets)
		r.Get("/datasets/{datasetID}/summary", s.handleDatasetSummary)
		r.Get("/datasets/{datasetID}/invalid", s.handleInvalidRecords)
	})
}

// Handler returns the root http.Handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start begins listening on addr. Blocks until the server stops.
func (s *Server) Start(addr string, readTimeout, writeTimeout, idleTimeout time.Duration) error {
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
