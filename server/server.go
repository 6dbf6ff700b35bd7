// Package server provides HTTP server management and lifecycle handling for the protocols API.
// It includes server setup, middleware configuration, route management, and graceful shutdown
// capabilities with proper error handling and logging.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/giygas/protocolos-api/config"
	"github.com/giygas/protocolos-api/interfaces"
	"github.com/giygas/protocolos-api/logging"
	"github.com/giygas/protocolos-api/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const rateLimiterCleanupInterval = 30 * time.Minute

// Server represents the HTTP server
type Server struct {
	server      *http.Server
	router      chi.Router
	handler     interfaces.HTTPHandler
	config      *config.Config
	rateLimiter *RateLimiter
	cleanupCtx  context.Context
	stopCleanup context.CancelFunc
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config, handler interfaces.HTTPHandler) *Server {
	router := chi.NewRouter()
	cleanupCtx, stopCleanup := context.WithCancel(context.Background())

	server := &Server{
		server: &http.Server{
			Handler:        router,
			Addr:           net.JoinHostPort(cfg.Address, cfg.Port),
			ReadTimeout:    15 * time.Second,
			WriteTimeout:   15 * time.Second,
			IdleTimeout:    60 * time.Second,
			MaxHeaderBytes: int(cfg.MaxHeaderSize),
		},
		router:      router,
		handler:     handler,
		config:      cfg,
		rateLimiter: NewRateLimiter(),
		cleanupCtx:  cleanupCtx,
		stopCleanup: stopCleanup,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

// setupMiddleware configures all middleware
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(logging.LoggingMiddleware(logging.Logger()))
	s.router.Use(middleware.RedirectSlashes)
	s.router.Use(middleware.Recoverer)
	s.router.Use(RequestSizeMiddleware(s.config))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.config.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "Retry-After"},
		MaxAge:         300,
	}))
	s.router.Use(s.rateLimiter.Middleware)
	s.router.Use(metrics.Metrics)
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	// Registered first so the /v1 subrouter inherits them
	s.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondWithError(w, http.StatusNotFound, "Route not found")
	})
	s.router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	s.router.Route("/v1", func(r chi.Router) {
		r.Get("/protocols", s.handler.ListProtocols)
		r.Get("/protocols/{name}", s.handler.GetProtocol)
		r.Get("/cids", s.handler.SearchCIDs)
		r.Post("/prescriptions", s.handler.CreatePrescription)
		r.Post("/schedule", s.handler.BuildSchedule)
		r.Get("/patient/bsa", s.handler.ComputeBSA)
	})

	s.router.Get("/health", s.handler.HealthCheck)
	s.router.Handle("/metrics", promhttp.Handler())
}

// Handler returns the router, with every middleware applied
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the server and blocks until it stops.
// http.ErrServerClosed is returned as nil.
func (s *Server) Start() error {
	s.rateLimiter.StartCleanup(s.cleanupCtx, rateLimiterCleanupInterval)

	logging.Info(fmt.Sprintf("Starting server at: %s", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down server...")

	s.stopCleanup()

	if err := s.server.Shutdown(ctx); err != nil {
		logging.Error("Server forced to shutdown", "error", err)
		if err := s.server.Close(); err != nil {
			logging.Error("Server close error", "error", err)
			return err
		}
	}

	logging.Info("Server shutdown complete")
	return nil
}
