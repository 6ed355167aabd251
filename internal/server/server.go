// Package server sets up the HTTP server, router, and all route definitions.
//
// This package is the "wiring" layer. It is the composition root where the
// whole dependency chain is assembled:
//
//	sqlite.DB → UserDB/MovieDB → AccountService/FavouritesService → handlers
//	          ↘ LocalStrategy/JWTStrategy → auth.Authenticate gates
//
// Keeping it apart from main.go lets tests build a complete server on an
// in-memory database and drive it through Handler().
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sakif/dojodb/internal/auth"
	"github.com/sakif/dojodb/internal/config"
	"github.com/sakif/dojodb/internal/handler"
	"github.com/sakif/dojodb/internal/middleware"
	sqliteRepo "github.com/sakif/dojodb/internal/repository/sqlite"
	"github.com/sakif/dojodb/internal/seed"
	"github.com/sakif/dojodb/internal/service"
)

// Server represents the HTTP server and all its dependencies.
//
// RESOURCE MANAGEMENT:
// The Server owns the database connection and the rate limiter's sweeper
// goroutine. Close releases both; Start calls it on the way out.
type Server struct {
	router   *chi.Mux
	config   config.Config
	logger   *slog.Logger
	db       *sqliteRepo.DB
	registry *prometheus.Registry
	// stop ends background work started by New.
	stop context.CancelFunc
}

// New opens the database, seeds the catalog if configured and wires every
// route.
//
// IMPORT ALIAS:
// repository/sqlite is imported as sqliteRepo to keep it apart from the
// modernc.org/sqlite driver package.
func New(cfg config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if cfg.MoviesSeedFile != "" {
		if _, err := seed.LoadMovies(context.Background(), cfg.MoviesSeedFile, db.Movies(), logger); err != nil {
			db.Close()
			return nil, fmt.Errorf("seeding movies: %w", err)
		}
	}

	ctx, stop := context.WithCancel(context.Background())

	s := &Server{
		router:   chi.NewRouter(),
		config:   cfg,
		logger:   logger,
		db:       db,
		registry: prometheus.NewRegistry(),
		stop:     stop,
	}

	if err := s.setupRoutes(ctx); err != nil {
		s.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
//
//	GET    /                                  → welcome text
//	GET    /healthz                           → store ping
//	GET    /metrics                           → Prometheus exposition
//	POST   /users                             → register        [rate limit]
//	POST   /login                             → login           [rate limit, local]
//	GET    /users/{id}                        → profile         [jwt]
//	PUT    /users/{id}                        → update profile  [jwt]
//	DELETE /users/{id}                        → delete account  [jwt]
//	GET    /users/{id}/favourites             → list            [jwt]
//	POST   /users/{id}/favourites/{movieID}   → add             [jwt]
//	DELETE /users/{id}/favourites/{movieID}   → remove          [jwt]
//
// MIDDLEWARE ORDER MATTERS:
//  1. RequestID assigns an ID to each request (logged by Logger)
//  2. RealIP extracts the client IP from proxy headers (used by RateLimit)
//  3. Logger and Instrument observe the final status
//  4. Recoverer turns panics into 500s inside the observed span
func (s *Server) setupRoutes(ctx context.Context) error {
	tokens, err := auth.NewTokenService(s.config.JWTSecret, s.config.TokenTTL)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordServiceWithCost(s.config.BcryptCost)

	s.registry.MustRegister(collectors.NewGoCollector())
	s.registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := middleware.NewMetrics(s.registry)

	users := s.db.Users()
	movies := s.db.Movies()

	accounts := service.NewAccountService(users, tokens, passwords, s.logger)
	favourites := service.NewFavouritesService(users, movies, s.logger)

	authHandler := handler.NewAuthHandler(accounts, s.logger)
	userHandler := handler.NewUserHandler(accounts, s.logger)
	favHandler := handler.NewFavouritesHandler(favourites, s.logger)
	healthHandler := handler.NewHealthHandler(s.db, s.logger)

	localGate := auth.Authenticate(auth.NewLocalStrategy(users, passwords, s.logger), s.logger)
	jwtGate := auth.Authenticate(auth.NewJWTStrategy(tokens, users, s.logger), s.logger)
	rateLimit := middleware.RateLimit(ctx, s.config.AuthRateRPS, s.config.AuthRateBurst)

	// === Global Middleware ===
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(metrics.Instrument)
	s.router.Use(chimiddleware.Recoverer)

	// === Public Routes ===
	s.router.Get("/", handler.HandleWelcome)
	s.router.Get("/healthz", healthHandler.HandleHealth)
	s.router.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	// === Credential Routes ===
	s.router.Group(func(r chi.Router) {
		r.Use(rateLimit)
		r.Post("/users", authHandler.HandleRegister)
		r.With(localGate).Post("/login", authHandler.HandleLogin)
	})

	// === Owner-only Routes ===
	s.router.Route("/users/{id}", func(r chi.Router) {
		r.Use(jwtGate)
		r.Get("/", userHandler.HandleGet)
		r.Put("/", userHandler.HandleUpdate)
		r.Delete("/", userHandler.HandleDelete)

		r.Get("/favourites", favHandler.HandleList)
		r.Post("/favourites/{movieID}", favHandler.HandleAdd)
		r.Delete("/favourites/{movieID}", favHandler.HandleRemove)
	})

	return nil
}

// Handler returns the root handler, for tests that drive the API through
// httptest without opening a socket.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close stops background work and closes the database.
func (s *Server) Close() error {
	s.stop()
	return s.db.Close()
}

// Start serves HTTP until SIGINT or SIGTERM, then shuts down gracefully:
//  1. Stop accepting new connections
//  2. Wait up to 30s for in-flight requests
//  3. Close the database (flushes WAL, releases the file lock)
func (s *Server) Start() error {
	defer s.Close()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.config.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("env", s.config.Env),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
