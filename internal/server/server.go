// Package server provides the HTTP server and routing for the local API.
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

	"github.com/BedheadProgrammer/FinanceBuddy-sub000/internal/di"
	assistanthandlers "github.com/BedheadProgrammer/FinanceBuddy-sub000/internal/modules/assistant/handlers"
	optionshandlers "github.com/BedheadProgrammer/FinanceBuddy-sub000/internal/modules/options/handlers"
	portfolioshandlers "github.com/BedheadProgrammer/FinanceBuddy-sub000/internal/modules/portfolios/handlers"
	positionshandlers "github.com/BedheadProgrammer/FinanceBuddy-sub000/internal/modules/positions/handlers"
	selectionhandlers "github.com/BedheadProgrammer/FinanceBuddy-sub000/internal/modules/selection/handlers"
	tradinghandlers "github.com/BedheadProgrammer/FinanceBuddy-sub000/internal/modules/trading/handlers"
)

// Config holds server configuration
type Config struct {
	Log       zerolog.Logger
	Port      int
	DevMode   bool
	Container *di.Container

	// Per-IP limit on mutating requests. Zero RPS disables it.
	MutationRPS   float64
	MutationBurst int
}

// Server represents the HTTP server
type Server struct {
	router    *chi.Mux
	server    *http.Server
	log       zerolog.Logger
	container *di.Container
	limiter   *RateLimiter
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		log:       cfg.Log.With().Str("component", "server").Logger(),
		container: cfg.Container,
	}
	if cfg.MutationRPS > 0 {
		s.limiter = NewRateLimiter(cfg.MutationRPS, cfg.MutationBurst)
	}

	s.setupMiddleware(cfg.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.Port),
		Handler:     s.router,
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: the event stream is long-lived. Other routes are
		// bounded by the Timeout middleware.
		IdleTimeout: 60 * time.Second,
	}

	return s
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)

	s.router.Use(cors.Handler(corsOptions(devMode)))

	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// corsOptions allows any origin in dev mode so a UI dev server on another
// host can reach the API. Otherwise only loopback origins are accepted.
func corsOptions(devMode bool) cors.Options {
	opts := cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if devMode {
		opts.AllowedOrigins = []string{"*"}
		opts.AllowCredentials = false
	}
	return opts
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	c := s.container
	s.router.Route("/api", func(r chi.Router) {
		// The stream outlives the request timeout, so it is mounted first
		r.Get("/events/stream", NewEventsStreamHandler(c.EventBus, s.log).ServeHTTP)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(60 * time.Second))
			if s.limiter != nil {
				r.Use(s.limiter.LimitMutations)
			}

			portfolioshandlers.NewHandler(c.Directory, c.Reconciler, s.log).RegisterRoutes(r)
			positionshandlers.NewHandler(c.Reconciler, s.log).RegisterRoutes(r)
			selectionhandlers.NewHandler(c.Selections, c.Reconciler, c.Submitters, s.log).RegisterRoutes(r)
			tradinghandlers.NewHandler(c.StockExecutor, c.CryptoExecutor, s.log).RegisterRoutes(r)
			optionshandlers.NewHandler(c.OptionExecutor, s.log).RegisterRoutes(r)
			assistanthandlers.NewHandler(c.Assistant, s.log).RegisterRoutes(r)
		})
	})
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server. It blocks until the server stops.
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
