// Package server sets up the HTTP server, router, and all route definitions.
//
// This package is the composition root — the one place where the whole
// dependency chain is assembled:
//
//	sqlite.DB → identity.Reconciler → service.ArticleService → handler.ArticleHandler
//	         ↘ service.AuthService  → handler.AuthHandler
//	redis    → view.RedisInvalidator (or NopInvalidator when Redis is absent)
//	minio    → upload.Store → handler.UploadHandler
//
// Each layer only receives what it needs: the service gets repository
// interfaces, never the concrete sqlite.DB; the handlers get services,
// never repositories. main.go stays minimal — read config, call New, Start.
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
	"github.com/redis/go-redis/v9"

	"github.com/sakif/pressroom/internal/auth"
	"github.com/sakif/pressroom/internal/handler"
	"github.com/sakif/pressroom/internal/identity"
	"github.com/sakif/pressroom/internal/middleware"
	sqliteRepo "github.com/sakif/pressroom/internal/repository/sqlite"
	"github.com/sakif/pressroom/internal/service"
	"github.com/sakif/pressroom/internal/upload"
	"github.com/sakif/pressroom/internal/view"
)

// Config holds server configuration. Everything beyond Port, DBPath and
// the JWT/GitHub block is optional: with no Redis the view invalidator is
// a no-op, with no MinIO the upload endpoint is not registered.
type Config struct {
	Port   int
	DBPath string

	JWTSecret          string
	GitHubClientID     string
	GitHubClientSecret string
	GitHubCallbackURL  string

	RedisAddr     string
	RedisPassword string

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioPublicURL string
	MinioUseSSL    bool
}

// Server owns the router and every closeable resource it wires up. The
// database and Redis connections are closed during graceful shutdown.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB
	redis  *redis.Client // nil when Redis is not configured
}

// New creates a Server with all routes wired. It fails fast on anything
// essential (database, token secret, MinIO when configured) and degrades
// gracefully on Redis: an unreachable invalidation backend must not keep
// articles from being published.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Server, error) {
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

	if err := s.setupRoutes(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

func (s *Server) setupRoutes(ctx context.Context) error {
	// Global middleware, in execution order: request id, real client IP,
	// structured request log, panic recovery.
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.RequestLogger(s.logger))
	s.router.Use(chimiddleware.Recoverer)

	// === View invalidation ===
	var invalidator view.Invalidator = view.NopInvalidator{}
	if s.config.RedisAddr != "" {
		client, err := view.NewRedisClient(ctx, s.config.RedisAddr, s.config.RedisPassword)
		if err != nil {
			s.logger.Warn("Redis unreachable — view invalidation disabled",
				slog.String("addr", s.config.RedisAddr),
				slog.String("error", err.Error()),
			)
		} else {
			s.redis = client
			invalidator = view.NewRedisInvalidator(client, s.logger)
		}
	}

	// === Core services ===
	reconciler := identity.NewReconciler(s.db.Users(), s.logger)
	articleService := service.NewArticleService(s.db, reconciler, invalidator, s.logger)
	articleHandler := handler.NewArticleHandler(articleService, s.logger)

	// === Authentication ===
	tokens, err := auth.NewTokenService(s.config.JWTSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	provider := auth.NewGitHubProvider(
		s.config.GitHubClientID,
		s.config.GitHubClientSecret,
		s.config.GitHubCallbackURL,
	)
	authService := service.NewAuthService(provider, tokens, s.db.Users(), s.logger)
	authHandler := handler.NewAuthHandler(authService, s.logger)

	s.router.Get("/auth/github/login", authHandler.HandleGitHubLogin)
	s.router.Get("/auth/github/callback", authHandler.HandleGitHubCallback)
	s.router.Post("/auth/logout", authHandler.HandleLogout)

	// === API routes ===
	s.router.Route("/api", func(r chi.Router) {
		// Public reads
		r.Get("/articles", articleHandler.HandleList)
		r.Get("/articles/{id}", articleHandler.HandleGetByID)

		// Authenticated writes
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens))
			r.Post("/articles", articleHandler.HandleCreate)
			r.Put("/articles/{id}", articleHandler.HandleEdit)
			r.Delete("/articles/{id}", articleHandler.HandleDelete)
			r.Get("/me", authHandler.HandleMe)

			if s.config.MinioEndpoint != "" {
				store, err := upload.New(ctx,
					s.config.MinioEndpoint,
					s.config.MinioAccessKey,
					s.config.MinioSecretKey,
					s.config.MinioBucket,
					s.config.MinioPublicURL,
					s.config.MinioUseSSL,
				)
				if err != nil {
					s.logger.Error("MinIO unavailable — uploads disabled",
						slog.String("endpoint", s.config.MinioEndpoint),
						slog.String("error", err.Error()),
					)
				} else {
					uploadHandler := handler.NewUploadHandler(store, s.logger)
					r.Post("/uploads", uploadHandler.HandleUpload)
					r.Delete("/uploads/{key}", uploadHandler.HandleRemove)
				}
			}
		})
	})

	return nil
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully: stop accepting connections, drain in-flight requests for up
// to 30 seconds, close Redis, close SQLite (flushes the WAL and releases
// the file lock).
func (s *Server) Start() error {
	defer s.db.Close()
	if s.redis != nil {
		defer s.redis.Close()
	}

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
