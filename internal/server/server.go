// Package server exposes the tracker over HTTP for local frontends.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"svtk/internal/config"
	"svtk/internal/tracker"
)

// Server wraps the tracker with an HTTP API. The tracker itself is not
// concurrency safe, so every handler takes the server mutex.
type Server struct {
	cfg    *config.Config
	log    zerolog.Logger
	router *chi.Mux
	server *http.Server

	mu      *sync.Mutex
	tracker *tracker.Tracker
}

// New creates a server around a tracker. mu guards the tracker and is
// shared with the scheduler, which runs against the same instance.
func New(cfg *config.Config, t *tracker.Tracker, mu *sync.Mutex, log zerolog.Logger) *Server {
	s := &Server{
		cfg:     cfg,
		log:     log.With().Str("service", "server").Logger(),
		router:  chi.NewRouter(),
		mu:      mu,
		tracker: t,
	}

	s.setupMiddleware(cfg.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
	}
	return s
}

func (s *Server) setupMiddleware(devMode bool) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(120 * time.Second))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Route("/events", func(r chi.Router) {
			r.Get("/", s.handleListEvents)
			r.Post("/", s.handleAddEvent)
			r.Post("/bulk", s.handleAddEvents)
			r.Delete("/bulk", s.handleRemoveEvents)
			r.Get("/export", s.handleExportEvents)
			r.Post("/import", s.handleImportEvents)
			r.Get("/{id}", s.handleGetEvent)
			r.Put("/{id}", s.handleUpdateEvent)
			r.Delete("/{id}", s.handleRemoveEvent)
			r.Put("/{id}/notes", s.handleSetEventNotes)
		})

		r.Route("/trash", func(r chi.Router) {
			r.Get("/", s.handleGetTrash)
			r.Post("/undo", s.handleUndoRemoval)
			r.Delete("/", s.handleClearTrash)
		})

		r.Get("/holdings", s.handleHoldings)
		r.Get("/value", s.handlePortfolioValue)
		r.Get("/summary", s.handleSummary)
		r.Get("/assets", s.handleUniqueAssets)
		r.Get("/assets/{symbol}/price", s.handleAssetPrice)

		r.Route("/charts", func(r chi.Router) {
			r.Get("/portfolio", s.handlePortfolioChart)
			r.Get("/assets/{symbol}", s.handleAssetChart)
		})

		r.Route("/prices", func(r chi.Router) {
			r.Post("/refresh", s.handleRefreshPrices)
			r.Get("/cache", s.handleCacheStats)
			r.Delete("/cache", s.handleCacheClear)
		})

		r.Route("/settings", func(r chi.Router) {
			r.Get("/", s.handleGetSettings)
			r.Put("/currency", s.handleSetCurrency)
			r.Put("/api-keys/{provider}", s.handleSetAPIKey)
			r.Delete("/api-keys/{provider}", s.handleRemoveAPIKey)
		})

		r.Post("/save", s.handleSave)
		r.Post("/password", s.handleChangePassword)
	})
}

// Start begins serving. Blocks until the listener fails or the server
// shuts down.
func (s *Server) Start() error {
	s.log.Info().Int("port", s.cfg.Port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}
