// Package server provides the HTTP server and routing for the portfolio monitor.
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

	"github.com/aristath/portfolio-monitor/internal/clientdata"
	"github.com/aristath/portfolio-monitor/internal/database"
	monitorhandlers "github.com/aristath/portfolio-monitor/internal/modules/monitor/handlers"
	"github.com/aristath/portfolio-monitor/internal/scheduler"
)

// Config holds server dependencies
type Config struct {
	Log       zerolog.Logger
	CacheDB   *database.DB
	Cache     *clientdata.Repository
	Scheduler *scheduler.Scheduler
	Monitor   *monitorhandlers.Handler
	Port      int
	DevMode   bool
	Version   string
}

// Server is the HTTP server
type Server struct {
	router         *chi.Mux
	server         *http.Server
	log            zerolog.Logger
	port           int
	cacheDB        *database.DB
	monitor        *monitorhandlers.Handler
	systemHandlers *SystemHandlers
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router:         chi.NewRouter(),
		log:            cfg.Log.With().Str("component", "server").Logger(),
		port:           cfg.Port,
		cacheDB:        cfg.CacheDB,
		monitor:        cfg.Monitor,
		systemHandlers: NewSystemHandlers(cfg.Log, cfg.CacheDB, cfg.Cache, cfg.Scheduler, cfg.Version),
	}

	s.setupMiddleware(cfg.DevMode)
	s.setupRoutes()

	// WriteTimeout leaves room for a cold-cache check of 20 tickers
	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

func (s *Server) setupMiddleware(devMode bool) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(60 * time.Second))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/system/status", s.systemHandlers.HandleSystemStatus)

		if s.monitor != nil {
			s.monitor.RegisterRoutes(r)
		}
	})

	if s.monitor != nil {
		s.monitor.RegisterDashboard(s.router)
	}
}

// Router exposes the configured router, mainly for tests
func (s *Server) Router() http.Handler {
	return s.router
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Int("port", s.port).Msg("Starting HTTP server")
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
