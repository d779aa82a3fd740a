package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/BradenHooton/showcase/internal/auth"
	"github.com/BradenHooton/showcase/internal/background"
	"github.com/BradenHooton/showcase/internal/config"
	"github.com/BradenHooton/showcase/internal/database"
	"github.com/BradenHooton/showcase/internal/handlers"
	middlewareCustom "github.com/BradenHooton/showcase/internal/middleware"
	"github.com/BradenHooton/showcase/internal/repositories"
	"github.com/BradenHooton/showcase/internal/routes"
	"github.com/BradenHooton/showcase/internal/services"
	pkghttp "github.com/BradenHooton/showcase/pkg/http"
	pkglogger "github.com/BradenHooton/showcase/pkg/logger"
)

// attemptStore is what main needs from either store backend
type attemptStore interface {
	services.AttemptStore
	handlers.Pinger
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLogLevel(cfg.Server.LogLevel)}))
	slog.SetDefault(logger)
	logger.Info("configuration loaded",
		slog.String("env", cfg.Server.Env),
		slog.String("attempt_store", cfg.Auth.AttemptStore))

	// Attempt store: process memory by default, PostgreSQL to survive restarts
	var store attemptStore
	switch cfg.Auth.AttemptStore {
	case config.AttemptStorePostgres:
		db, err := database.NewConnection(&cfg.Database, logger)
		if err != nil {
			logger.Error("failed to connect to database", slog.Any("error", err))
			os.Exit(1)
		}
		defer db.Close()

		migrateCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err = db.Migrate(migrateCtx)
		cancel()
		if err != nil {
			logger.Error("failed to run migrations", slog.Any("error", err))
			os.Exit(1)
		}

		store = repositories.NewPostgresAttemptStore(db, cfg.Auth.AttemptRetention, nil)
	default:
		store = repositories.NewMemoryAttemptStore(cfg.Auth.AttemptRetention, nil)
	}

	// Initialize security services
	auditLogger := pkglogger.NewAuditLogger(logger)
	ipConfig := &pkghttp.IPConfig{
		TrustForwardedHeaders: cfg.Auth.TrustProxyHeaders,
		TrustedProxies:        cfg.Auth.TrustedProxies,
	}

	rateLimitService := services.NewRateLimitService(store, services.RateLimitConfig{}, logger)

	sessionManager, err := auth.NewSessionManager(auth.SessionConfig{
		Secret:  cfg.Session.Secret,
		Timeout: cfg.Session.Timeout,
		Cookie: auth.CookieConfig{
			Name:     cfg.Session.CookieName,
			Domain:   cfg.Session.CookieDomain,
			Secure:   cfg.Session.Secure,
			SameSite: "strict",
		},
	}, logger, auditLogger)
	if err != nil {
		logger.Error("failed to initialize session manager", slog.Any("error", err))
		os.Exit(1)
	}

	timingDelay := auth.NewTimingDelay(auth.TimingConfig{
		BaseDelayMs:   cfg.Auth.TimingDelayBaseMs,
		RandomDelayMs: cfg.Auth.TimingDelayRandomMs,
	})

	// Optional lockout alert email
	var notifier services.LockoutNotifier
	if cfg.Alert.Enabled() {
		sesNotifier, err := services.NewSESLockoutNotifier(context.Background(),
			cfg.Alert.AWSRegion, cfg.Alert.FromAddress, cfg.Alert.Recipient, logger)
		if err != nil {
			logger.Error("failed to initialize lockout notifier", slog.Any("error", err))
			os.Exit(1)
		}
		notifier = sesNotifier
	}

	authService := services.NewAuthService(rateLimitService, sessionManager, services.AuthServiceConfig{
		Password: cfg.Auth.Password,
		Timing:   timingDelay,
		Notifier: notifier,
	}, logger, auditLogger)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, sessionManager, rateLimitService, ipConfig, logger)
	siteHandler := handlers.NewSiteHandler(cfg.Server.SiteDir)
	healthHandler := handlers.NewHealthHandler(store, cfg.Auth.AttemptStore, logger)

	// Setup router. chi's RealIP is not used: client identification honours
	// TRUST_PROXY_HEADERS itself.
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	router.Use(middlewareCustom.SecureLogger(logger, ipConfig))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	routes.RegisterRoutes(router, routes.Dependencies{
		AuthHandler:    authHandler,
		SiteHandler:    siteHandler,
		HealthHandler:  healthHandler,
		Sessions:       sessionManager,
		IPConfig:       ipConfig,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		LoginRateLimit: cfg.Auth.LoginRequestsPerMinute,
		Logger:         logger,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start cleanup task
	cleanupManager := background.NewCleanupManager(rateLimitService, logger, cfg.Auth.CleanupInterval)
	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()

	go cleanupManager.Start(cleanupCtx)

	// Start server
	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	cleanupCancel()
	cleanupManager.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("server stopped gracefully")
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
