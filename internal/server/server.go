// Package server sets up the HTTP server, router, and all route definitions.
//
// This package is the "wiring" layer — the composition root where the whole
// dependency chain is assembled:
//
//	sqlite.DB → repositories → services → handlers → routes
//
// Each layer only receives what it needs: services get repository
// interfaces (not the concrete DB), handlers get services (not
// repositories). main.go stays minimal — it loads config and calls Start.
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
	"golang.org/x/time/rate"

	"github.com/sakif/compliance-chat/internal/agent"
	"github.com/sakif/compliance-chat/internal/auth"
	"github.com/sakif/compliance-chat/internal/config"
	"github.com/sakif/compliance-chat/internal/handler"
	"github.com/sakif/compliance-chat/internal/middleware"
	sqliteRepo "github.com/sakif/compliance-chat/internal/repository/sqlite"
	"github.com/sakif/compliance-chat/internal/service"
)

// Server owns the router, the database connection, and the config it was
// built from. The DB is closed during graceful shutdown.
type Server struct {
	router *chi.Mux
	cfg    *config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New creates a Server with the full dependency graph wired.
//
// The agent gateway is optional: with no API key configured the server
// still starts — auth, history, and deletes all work, and chat sends
// report the agent as unavailable. This mirrors how the app has always
// degraded rather than refusing to boot.
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

// setupRoutes configures middleware, builds the services, and mounts the
// route table:
//
//	POST   /api/auth/register   → create account        (public)
//	POST   /api/auth/login      → issue token           (public)
//	POST   /api/auth/logout     → acknowledge           (bearer)
//	GET    /api/auth/profile    → current user          (bearer)
//	POST   /api/chat/send       → agent round-trip      (bearer, rate-limited)
//	GET    /api/chat/history    → paginated history     (bearer, rate-limited)
//	DELETE /api/chat/{chatID}   → delete one record     (bearer, rate-limited)
//	DELETE /api/chat            → clear history         (bearer, rate-limited)
//
// MIDDLEWARE ORDER MATTERS: RequestID and RealIP must run before the logger
// (so log lines carry them) and before the rate limiter (so limits key on
// the real client IP, not the proxy's).
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID) // Adds X-Request-ID header
	s.router.Use(chimiddleware.RealIP)    // Extracts real IP from X-Forwarded-For
	s.router.Use(chimiddleware.Recoverer) // Recovers from panics, returns 500
	s.router.Use(middleware.Logger(s.logger))

	// The separately-hosted frontend calls the API cross-origin. Wide open,
	// like the original deployment; lock AllowedOrigins down when the
	// frontend origin is fixed.
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	tokens, err := auth.NewTokenService(s.cfg.JWTSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordService()

	// The agent gateway is nil when unconfigured; ChatService handles that.
	var ai agent.Agent
	if s.cfg.Agent.APIKey != "" {
		openAI, err := agent.NewOpenAIAgent(agent.Config{
			APIKey:       s.cfg.Agent.APIKey,
			BaseURL:      s.cfg.Agent.BaseURL,
			Model:        s.cfg.Agent.Model,
			Instructions: s.cfg.Agent.Instructions,
			Timeout:      s.cfg.Agent.Timeout,
		}, s.logger)
		if err != nil {
			return fmt.Errorf("creating agent gateway: %w", err)
		}
		ai = openAI
	} else {
		s.logger.Warn("OPENAI_API_KEY not set — chat sends will fail as upstream unavailable")
	}

	authService := service.NewAuthService(s.db, tokens, passwords, s.logger)
	chatService := service.NewChatService(s.db, ai, s.logger)

	authHandler := handler.NewAuthHandler(authService, s.logger)
	chatHandler := handler.NewChatHandler(chatService, s.logger)

	requireAuth := auth.RequireAuth(tokens)
	rateLimit := middleware.RateLimit(rate.Limit(s.cfg.RateLimit.RPS), s.cfg.RateLimit.Burst)

	s.router.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.HandleRegister)
			r.Post("/login", authHandler.HandleLogin)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/logout", authHandler.HandleLogout)
				r.Get("/profile", authHandler.HandleProfile)
			})
		})

		r.Route("/chat", func(r chi.Router) {
			r.Use(requireAuth)
			r.Use(rateLimit)
			r.Post("/send", chatHandler.HandleSend)
			r.Get("/history", chatHandler.HandleHistory)
			r.Delete("/{chatID}", chatHandler.HandleDelete)
			r.Delete("/", chatHandler.HandleClear)
		})
	})

	// JSON bodies even for router-level misses, so clients never have to
	// parse a text/plain 404.
	s.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"not_found","message":"route not found"}`))
	})
	s.router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusMethodNotAllowed)
		w.Write([]byte(`{"error":"method_not_allowed","message":"method not allowed"}`))
	})

	return nil
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully:
//  1. Stop accepting new connections
//  2. Wait up to 30s for in-flight requests (agent calls included)
//  3. Close the database (flushes the WAL, releases the file lock)
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		// WriteTimeout must comfortably exceed the agent call bound, or the
		// server would cut off slow-but-successful agent responses.
		WriteTimeout: s.cfg.Agent.Timeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.cfg.Port),
			slog.String("database", s.cfg.DBPath),
			slog.String("model", s.cfg.Agent.Model),
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
