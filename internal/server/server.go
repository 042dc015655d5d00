// Package server sets up the HTTP server, router, and all route
// definitions.
//
// This is the composition root: the one place where the whole
// dependency graph is assembled —
//
//	config → sqlite.DB → services → handlers → routes
//
// Each layer only receives what it needs: services get the repository
// interface (not the concrete DB), handlers get services (not the
// repository), and nothing below this package knows about routing.
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
	"github.com/go-chi/cors"

	"github.com/sakif/doc-generator/internal/auth"
	"github.com/sakif/doc-generator/internal/config"
	"github.com/sakif/doc-generator/internal/docs"
	"github.com/sakif/doc-generator/internal/github"
	"github.com/sakif/doc-generator/internal/handler"
	"github.com/sakif/doc-generator/internal/middleware"
	sqliteRepo "github.com/sakif/doc-generator/internal/repository/sqlite"
	"github.com/sakif/doc-generator/internal/service"
)

// Server owns the router and the resources that need closing on
// shutdown (currently just the database).
type Server struct {
	router *chi.Mux
	cfg    *config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New assembles the full dependency graph and wires the routes.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	tokens, err := auth.NewTokenService(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating token service: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		cfg:    cfg,
		logger: logger,
		db:     db,
	}
	s.setupRoutes(tokens)

	return s, nil
}

// setupRoutes wires middleware, services, handlers, and URL patterns.
//
// MIDDLEWARE ORDER:
// RequestID → RealIP → CORS → Logger → Recoverer. The logger runs
// after RequestID so every log line carries the request ID; Recoverer
// runs last so a panicking handler still produces a logged 500.
func (s *Server) setupRoutes(tokens *auth.TokenService) {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)

	// Outbound clients
	githubClient := github.NewClient(s.cfg.GitHub, s.logger)
	docsService := docs.NewService(s.cfg.OpenAI, s.logger)

	// Services
	passwords := auth.NewPasswordService()
	userService := service.NewUserService(s.db, tokens, passwords, githubClient, s.logger)
	githubService := service.NewGitHubService(s.db, githubClient, s.logger)

	// Handlers
	authHandler := handler.NewAuthHandler(userService, s.logger)
	registerHandler := handler.NewRegisterHandler(userService, s.logger)
	userHandler := handler.NewUserHandler(userService, s.logger)
	githubHandler := handler.NewGitHubHandler(githubService, s.logger)
	docsHandler := handler.NewDocsHandler(docsService, s.cfg.OpenAI, s.logger)
	healthHandler := handler.NewHealthHandler(s.db, s.logger)

	requireAuth := auth.RequireAuth(tokens)

	s.router.Route("/api", func(r chi.Router) {
		// Public endpoints
		r.Get("/health", healthHandler.HandleHealth)
		r.Get("/openai/health", docsHandler.HandleHealth)
		r.Post("/auth/login", authHandler.HandleLogin)
		r.Post("/auth/refresh", authHandler.HandleRefresh)
		r.Post("/register", registerHandler.HandleRegister)
		r.Post("/register/validate-github", registerHandler.HandleValidateGitHub)

		// Everything below requires a valid access token
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			r.Get("/me", authHandler.HandleMe)

			r.Get("/users", userHandler.HandleList)
			r.Get("/users/search", userHandler.HandleSearch)
			r.Get("/users/{id}", userHandler.HandleGet)
			r.Put("/users/{id}", userHandler.HandleUpdate)
			r.Delete("/users/{id}", userHandler.HandleDelete)
			r.Put("/users/{id}/password", userHandler.HandleChangePassword)
			r.Put("/users/{id}/promote", userHandler.HandlePromote)

			r.Get("/github/repositories", githubHandler.HandleRepositories)
			r.Get("/github/repository/{repo_name}", githubHandler.HandleContents)
			r.Get("/github/repository/{repo_name}/branches", githubHandler.HandleBranches)

			r.Post("/openai/generate-documentation", docsHandler.HandleGenerate)
		})
	})
}

// Start runs the HTTP server until a shutdown signal arrives, then
// drains in-flight requests and closes the database.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // documentation generation can take a while
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.cfg.Port),
			slog.String("database", s.cfg.DBPath),
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
