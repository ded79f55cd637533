// Package server is the composition root: it owns the router, wires the
// dependency chain (sqlite.DB → services → handlers), and runs the HTTP
// server with graceful shutdown.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/thought-journal/internal/auth"
	"github.com/sakif/thought-journal/internal/handler"
	"github.com/sakif/thought-journal/internal/middleware"
	sqliteRepo "github.com/sakif/thought-journal/internal/repository/sqlite"
	"github.com/sakif/thought-journal/internal/service"
)

// Config holds everything main reads from the environment.
type Config struct {
	Port        int
	TemplateDir string
	StaticDir   string
	DBPath      string

	JWTSecret string

	// GitHub OAuth app credentials. When ClientID is empty the OAuth
	// routes are not registered and only local login/password works.
	GitHubClientID     string
	GitHubClientSecret string
	GitHubCallbackURL  string
}

// Server owns the router and the database connection; the connection is
// closed during graceful shutdown after in-flight requests drain.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New opens the database and wires all routes. On any wiring error the
// database is closed again so a failed start leaks nothing.
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
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// setupRoutes builds the dependency chain and binds it to URLs.
//
// Route map:
//
//	GET    /                     today widget (5 newest + composer)
//	GET    /history              full list with edit/delete
//	GET    /static/*             assets
//	GET    /auth/github/login    OAuth redirect
//	GET    /auth/github/callback OAuth completion
//	POST   /auth/register        local account
//	POST   /auth/login           local sign-in
//	POST   /auth/logout          clear session
//	GET    /api/me               current user          (auth required)
//	GET    /api/competencies     skill catalog         (auth required)
//	GET    /api/entry            list caller's entries (auth required)
//	POST   /api/entry            create entry          (auth required)
//	PUT    /api/entry/{id}       update entry          (auth required)
//	DELETE /api/entry/{id}       delete entry          (auth required)
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	fileServer := http.FileServer(http.Dir(s.config.StaticDir))
	s.router.Handle("/static/*", http.StripPrefix("/static/", fileServer))

	// --- auth plumbing ---
	tokens, err := auth.NewTokenService(s.config.JWTSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordService()

	var github *auth.GitHubProvider
	if s.config.GitHubClientID != "" {
		github = auth.NewGitHubProvider(
			s.config.GitHubClientID,
			s.config.GitHubClientSecret,
			s.config.GitHubCallbackURL,
		)
	} else {
		s.logger.Warn("GitHub OAuth not configured — only local login is available")
	}

	// --- services ---
	authService := service.NewAuthService(s.db, tokens, passwords, s.logger)
	entryService := service.NewEntryService(s.db, s.db, s.logger)
	competencyService := service.NewCompetencyService(s.db, s.logger)

	// --- handlers ---
	authHandler := handler.NewAuthHandler(github, authService, s.logger)
	entryHandler := handler.NewEntryHandler(entryService, s.logger)
	competencyHandler := handler.NewCompetencyHandler(competencyService, s.logger)

	pageHandler, err := handler.NewPageHandler(
		s.config.TemplateDir, entryService, competencyService, s.logger,
	)
	if err != nil {
		return fmt.Errorf("creating page handler: %w", err)
	}

	// Pages render a signed-out shell for anonymous visitors, so they only
	// need OptionalAuth.
	s.router.Group(func(r chi.Router) {
		r.Use(auth.OptionalAuth(tokens))
		r.Get("/", pageHandler.HandleToday)
		r.Get("/history", pageHandler.HandleHistory)
	})

	s.router.Route("/auth", func(r chi.Router) {
		if github != nil {
			r.Get("/github/login", authHandler.HandleGitHubLogin)
			r.Get("/github/callback", authHandler.HandleGitHubCallback)
		}
		r.Post("/register", authHandler.HandleRegister)
		r.Post("/login", authHandler.HandleLogin)
		r.Post("/logout", authHandler.HandleLogout)
	})

	// The whole API is owner-scoped, so everything sits behind RequireAuth.
	s.router.Route("/api", func(r chi.Router) {
		r.Use(auth.RequireAuth(tokens))
		r.Get("/me", authHandler.HandleMe)
		r.Get("/competencies", competencyHandler.HandleList)
		r.Get("/entry", entryHandler.HandleList)
		r.Post("/entry", entryHandler.HandleCreate)
		r.Put("/entry/{id}", entryHandler.HandleUpdate)
		r.Delete("/entry/{id}", entryHandler.HandleDelete)
	})

	return nil
}

// Start runs the server until SIGINT/SIGTERM, then drains in-flight
// requests (30s budget) and closes the database.
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
		if err != http.ErrServerClosed {
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
