// Package server is the composition root: it opens the database, builds the
// service and handler graph, mounts the routes, and runs the HTTP server
// with graceful shutdown. main.go stays minimal — load config, create the
// server, start it.
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

	"github.com/shaiq/auth-practice/internal/auth"
	"github.com/shaiq/auth-practice/internal/config"
	"github.com/shaiq/auth-practice/internal/handler"
	"github.com/shaiq/auth-practice/internal/mail"
	"github.com/shaiq/auth-practice/internal/middleware"
	"github.com/shaiq/auth-practice/internal/model"
	sqliteRepo "github.com/shaiq/auth-practice/internal/repository/sqlite"
	"github.com/shaiq/auth-practice/internal/service"
)

// Server owns the router and the database connection. The connection is
// closed during shutdown, after in-flight requests have drained.
type Server struct {
	router *chi.Mux
	cfg    *config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New wires the full dependency chain: database → repositories → services →
// handlers → routes. Each layer only receives the interfaces it needs.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		cfg:    cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	tokens, err := auth.NewTokenService(s.cfg.JWTSecret, s.cfg.JWTTTL)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordService()

	// The provider stays nil when the credentials are absent; the OAuth
	// endpoints then answer with a configuration error.
	var google service.OAuthProvider
	if s.cfg.GoogleConfigured() {
		google = auth.NewGoogleProvider(
			s.cfg.GoogleClientID,
			s.cfg.GoogleClientSecret,
			s.cfg.GoogleRedirectURI,
		)
	} else {
		s.logger.Warn("Google OAuth credentials not set; /auth/google is disabled")
	}

	mailer := mail.New(s.cfg, s.logger)

	authSvc := service.NewAuthService(s.db, tokens, passwords, google, mailer, s.cfg.ResetTokenTTL(), s.logger)
	userSvc := service.NewUserService(s.db, passwords, s.logger)
	postSvc := service.NewPostService(s.db.Posts(), s.db.Categories(), s.logger)

	authHandler := handler.NewAuthHandler(authSvc, s.logger)
	userHandler := handler.NewUserHandler(userSvc, s.logger)
	postHandler := handler.NewPostHandler(postSvc, s.logger)

	requireAuth := auth.RequireAuth(tokens, handler.WriteError)
	requireModerator := auth.RequireRole(handler.WriteError, model.RoleModerator)

	s.router.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.HandleRegister)
		r.Post("/login", authHandler.HandleLogin)
		r.Get("/google", authHandler.HandleGoogleLogin)
		r.Get("/google/callback", authHandler.HandleGoogleCallback)
		r.Post("/forgot-password", authHandler.HandleForgotPassword)
		r.Post("/reset-password", authHandler.HandleResetPassword)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/user", authHandler.HandleCurrentUser)
			r.With(requireModerator).Get("/admin", authHandler.HandleAdmin)
		})
	})

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/profiles", userHandler.HandleListProfiles)
		r.Get("/posts", postHandler.HandleList)
		r.Get("/posts/{id}", postHandler.HandleGet)
		r.Get("/categories", postHandler.HandleListCategories)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/users", userHandler.HandleCreate)
			r.Get("/users", userHandler.HandleList)
			r.Get("/users/{id}", userHandler.HandleGet)
			r.Put("/users/{id}", userHandler.HandleUpdate)
			r.Delete("/users/{id}", userHandler.HandleDelete)
			r.Post("/posts", postHandler.HandleCreate)
			r.Delete("/posts/{id}", postHandler.HandleDelete)
		})
	})

	return nil
}

// Start runs the server until SIGINT/SIGTERM, then drains in-flight
// requests for up to 30 seconds and closes the database.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Port),
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
