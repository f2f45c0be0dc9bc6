// Package server provides the HTTP API for darkhorse.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/andreasrassloff-ai/darkhorse/internal/history"
	"github.com/andreasrassloff-ai/darkhorse/internal/metrics"
	"github.com/andreasrassloff-ai/darkhorse/internal/modules/watchlist"
	"github.com/andreasrassloff-ai/darkhorse/internal/scheduler"
)

// Config holds server configuration
type Config struct {
	Log  zerolog.Logger
	Addr string

	// Instrument served by /api/recommendation
	AssetName string
	DataPath  string

	Analyzer *watchlist.Analyzer
	Latest   *watchlist.Latest
	// WatchlistJob refreshes Latest; nil when no watchlist is configured
	WatchlistJob scheduler.Job
	Metrics      *metrics.Metrics
	DevMode      bool
}

// Server represents the HTTP server
type Server struct {
	router       *chi.Mux
	server       *http.Server
	log          zerolog.Logger
	assetName    string
	dataPath     string
	analyzer     *watchlist.Analyzer
	latest       *watchlist.Latest
	watchlistJob scheduler.Job
	metrics      *metrics.Metrics
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	latest := cfg.Latest
	if latest == nil {
		latest = &watchlist.Latest{}
	}

	s := &Server{
		router:       chi.NewRouter(),
		log:          cfg.Log.With().Str("component", "server").Logger(),
		assetName:    cfg.AssetName,
		dataPath:     cfg.DataPath,
		analyzer:     cfg.Analyzer,
		latest:       latest,
		watchlistJob: cfg.WatchlistJob,
		metrics:      cfg.Metrics,
	}

	s.setupMiddleware(cfg.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler returns the root handler, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(60 * time.Second))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/recommendation", s.handleRecommendation)
		r.Get("/watchlist", s.handleWatchlist)
		r.Post("/jobs/watchlist", s.handleTriggerWatchlist)
	})

	if s.metrics != nil {
		s.router.Handle("/metrics", s.metrics.Handler())
	}
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}

// fileEntry describes the configured data file as a watchlist entry
func (s *Server) fileEntry() history.Entry {
	return history.Entry{Symbol: s.assetName, Source: history.SourceFile, Path: s.dataPath}
}
