// Package server sets up the HTTP server, router, and all route definitions.
//
// SERVER ARCHITECTURE:
// This package is the "wiring" layer: it connects handlers, middleware and
// routes, and owns the database connection for the life of the process.
//
// DEPENDENCY INJECTION FLOW:
//
//	main.go builds Config → server.New:
//	  sqlite.DB → AuthService, CatalogService, AdminService → handlers → routes
//
// This is the "composition root" pattern: every dependency is created here
// and nowhere else, so tests can build the whole app with server.New and
// drive it through Handler().
package server

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/game-list/internal/auth"
	"github.com/sakif/game-list/internal/handler"
	"github.com/sakif/game-list/internal/middleware"
	sqliteRepo "github.com/sakif/game-list/internal/repository/sqlite"
	"github.com/sakif/game-list/internal/service"
	"github.com/sakif/game-list/internal/validation"
	"github.com/sakif/game-list/web"
)

// Config holds server configuration. main.go fills it from the environment.
type Config struct {
	Port   int
	DBPath string

	// SessionSecret signs session cookies. At least 16 characters.
	SessionSecret string
	SessionTTL    time.Duration
	RememberTTL   time.Duration
	CookieSecure  bool

	// BcryptCost of 0 selects auth.DefaultCost.
	BcryptCost int

	// Clock drives the landing page's year buckets. Nil means time.Now.
	Clock func() time.Time
}

// Server represents the HTTP server and all its dependencies.
//
// RESOURCE MANAGEMENT:
// The Server owns the database connection. Start closes it on shutdown;
// callers that never Start (tests) call Close.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New opens the database and wires every route.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(); err != nil {
		db.Close() // Clean up DB if route setup fails
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
//
//	GET       /healthz                        → health probe (JSON)
//	GET       /static/*                       → embedded JS/CSS
//	GET       /                               → landing page, or 303 /feed
//	GET|POST  /signup, /login                 → account forms
//	GET|POST  /search                         → title search
//	GET       /logout, /feed                  → login required
//	POST      /add, /remove                   → login required (JSON)
//	GET|POST  /setting                        → login required
//	*         /admin/...                      → admin only (JSON)
//
// MIDDLEWARE ORDER MATTERS:
//  1. RequestID: unique id per request, picked up by the logger
//  2. RealIP: client IP from proxy headers
//  3. Recoverer: a panic becomes a 500 instead of a dead connection
//  4. Identify: session cookie → *model.User on the context
//  5. Logger: runs inside Identify so it can log the user id
func (s *Server) setupRoutes() error {
	// === Services ===
	passwords, err := auth.NewPasswordService(s.config.BcryptCost)
	if err != nil {
		return err
	}
	sessions, err := auth.NewSessionService(s.config.SessionSecret, auth.SessionOptions{
		SessionTTL:  s.config.SessionTTL,
		RememberTTL: s.config.RememberTTL,
		Secure:      s.config.CookieSecure,
	})
	if err != nil {
		return err
	}

	catalogService := service.NewCatalogService(s.db, s.db, s.logger)
	if s.config.Clock != nil {
		catalogService.WithClock(s.config.Clock)
	}
	validator := validation.New()
	authService := service.NewAuthService(s.db, passwords, validator, s.logger)
	adminService := service.NewAdminService(service.DefaultRegistry(), s.db, validator, s.logger)

	// === Handlers ===
	renderer, err := handler.NewRenderer(web.FS, s.logger)
	if err != nil {
		return err
	}
	catalogHandler := handler.NewCatalogHandler(catalogService, renderer, s.logger)
	authHandler := handler.NewAuthHandler(authService, sessions, renderer, s.logger)
	listHandler := handler.NewListHandler(catalogService)
	adminHandler := handler.NewAdminHandler(adminService)
	healthHandler := handler.NewHealthHandler(s.db, s.logger)

	staticFS, err := fs.Sub(web.FS, "static")
	if err != nil {
		return fmt.Errorf("opening static assets: %w", err)
	}

	// === Global Middleware ===
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(auth.Identify(sessions, s.db, s.logger))
	s.router.Use(middleware.Logger(s.logger))

	// === Public Routes ===
	s.router.Get("/healthz", healthHandler.HandleHealth)
	s.router.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))

	s.router.Get("/", catalogHandler.HandleIndex)
	s.router.Get("/signup", authHandler.HandleSignupForm)
	s.router.Post("/signup", authHandler.HandleSignup)
	s.router.Get("/login", authHandler.HandleLoginForm)
	s.router.Post("/login", authHandler.HandleLogin)
	s.router.Get("/search", catalogHandler.HandleSearch)
	s.router.Post("/search", catalogHandler.HandleSearch)

	// === Signed-in Routes ===
	s.router.Group(func(r chi.Router) {
		r.Use(auth.RequireLogin)

		r.Get("/logout", authHandler.HandleLogout)
		r.Get("/feed", catalogHandler.HandleFeed)
		r.Post("/add", listHandler.HandleAdd)
		r.Post("/remove", listHandler.HandleRemove)
		r.Get("/setting", authHandler.HandleSettingForm)
		r.Post("/setting", authHandler.HandleSetting)
	})

	// === Admin Console ===
	s.router.Route("/admin", func(r chi.Router) {
		r.Use(auth.RequireAdmin)

		r.Get("/", adminHandler.HandleIndex)
		r.Put("/games/{id}/tags/{kind}", adminHandler.HandleSetTags)
		r.Get("/{resource}", adminHandler.HandleList)
		r.Post("/{resource}", adminHandler.HandleCreate)
		r.Get("/{resource}/{id}", adminHandler.HandleGet)
		r.Put("/{resource}/{id}", adminHandler.HandleUpdate)
		r.Delete("/{resource}/{id}", adminHandler.HandleDelete)
	})

	return nil
}

// Handler returns the fully wired router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the database. Start calls it on its own way out.
func (s *Server) Close() error {
	return s.db.Close()
}

// Start starts the HTTP server and handles graceful shutdown.
//
// GRACEFUL SHUTDOWN:
//  1. Stop accepting new connections
//  2. Wait up to 30s for in-flight requests
//  3. Close the database (flushes the WAL, releases the file lock)
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
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
