// Package server implements the HTTP Service Facade: the Price Provider
// Adapter, Returns/Statistics Kernel, Correlation Matrix Engine,
// Distribution Parameter Mapper, and Simulation Coordinator, wired
// together behind one chi router.
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

	"github.com/aristath/portfolio-risk-engine/internal/cache"
	"github.com/aristath/portfolio-risk-engine/internal/config"
	"github.com/aristath/portfolio-risk-engine/internal/events"
	"github.com/aristath/portfolio-risk-engine/internal/provider"
)

const serviceVersion = "1.0.0"

// defaultBenchmark is the symbol beta/correlation endpoints compare
// against when the caller omits one.
const defaultBenchmark = "SPY"

// Config holds server configuration
type Config struct {
	Port     int
	Log      zerolog.Logger
	Config   *config.Config
	Cache    *cache.Cache
	Provider *provider.Provider
	Events   *events.Manager
	DevMode  bool
}

// Server represents the HTTP server
type Server struct {
	router   *chi.Mux
	server   *http.Server
	log      zerolog.Logger
	cfg      *config.Config
	cache    *cache.Cache
	provider *provider.Provider
	events   *events.Manager

	runsMu sync.Mutex
	runs   map[string]context.CancelFunc
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	eventsManager := cfg.Events
	if eventsManager == nil {
		eventsManager = events.NewManager(cfg.Log)
	}

	s := &Server{
		router:   chi.NewRouter(),
		log:      cfg.Log.With().Str("component", "server").Logger(),
		cfg:      cfg.Config,
		cache:    cfg.Cache,
		provider: cfg.Provider,
		events:   eventsManager,
		runs:     make(map[string]context.CancelFunc),
	}

	s.setupMiddleware(cfg.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(60 * time.Second))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.Get("/", s.handleHealth)
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/prices", s.handlePrices)
		r.Get("/quotes", s.handleQuotes)
		r.Get("/profile", s.handleProfile)
		r.Get("/fx", s.handleFx)
		r.Get("/beta", s.handleBeta)
		r.Get("/volatility", s.handleVolatility)
		r.Get("/distribution", s.handleDistribution)
		r.Get("/calendar-returns", s.handleCalendarReturns)
		r.Get("/correlation", s.handleCorrelation)
		r.Get("/risk-metrics", s.handleRiskMetrics)

		r.Post("/simulate", s.handleSimulate)
		r.Delete("/simulate/{runId}", s.handleCancelSimulate)
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Int("port", s.cfg.Port).Msg("Starting HTTP server")
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
