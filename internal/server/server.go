// Package server provides the HTTP API for the ticker classifier.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/StephanAkkerman/ticker-classifier/internal/backup"
	"github.com/StephanAkkerman/ticker-classifier/internal/cache"
	"github.com/StephanAkkerman/ticker-classifier/internal/classify"
)

// BatchClassifier is the classification surface the server exposes.
type BatchClassifier interface {
	Classify(ctx context.Context, symbols []string) []classify.Classification
	ClassifyConcurrent(ctx context.Context, symbols []string) []classify.Classification
}

// Config holds server configuration.
type Config struct {
	Log        zerolog.Logger
	Classifier BatchClassifier
	Store      *cache.Store
	Backup     *backup.Service // nil when backups are not configured
	Port       int
	DevMode    bool
}

// Server represents the HTTP server.
type Server struct {
	router     *chi.Mux
	server     *http.Server
	log        zerolog.Logger
	classifier BatchClassifier
	store      *cache.Store
	backup     *backup.Service
	startedAt  time.Time
}

// New creates a new HTTP server.
func New(cfg Config) *Server {
	s := &Server{
		router:     chi.NewRouter(),
		log:        cfg.Log.With().Str("component", "server").Logger(),
		classifier: cfg.Classifier,
		store:      cfg.Store,
		backup:     cfg.Backup,
		startedAt:  time.Now(),
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Timeout(60 * time.Second))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/classify", s.handleClassify)
		r.Route("/cache", func(r chi.Router) {
			r.Post("/evict", s.handleEvictExpired)
			r.Delete("/", s.handleClearCache)
		})
		r.Post("/backup", s.handleBackup)
	})

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 75 * time.Second,
	}

	return s
}

// Router returns the chi router (used by handler tests).
func (s *Server) Router() http.Handler {
	return s.router
}

// Start begins listening. Blocks until the server stops.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("HTTP server listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
