package routes

import (
	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/BradenHooton/showcase/internal/auth"
	"github.com/BradenHooton/showcase/internal/handlers"
	"github.com/BradenHooton/showcase/internal/middleware"
	pkghttp "github.com/BradenHooton/showcase/pkg/http"
)

// Dependencies bundles what the route table needs
type Dependencies struct {
	AuthHandler    *handlers.AuthHandler
	SiteHandler    *handlers.SiteHandler
	HealthHandler  *handlers.HealthHandler
	Sessions       auth.SessionChecker
	IPConfig       *pkghttp.IPConfig
	AllowedOrigins []string
	LoginRateLimit int
	Logger         *slog.Logger
}

// RegisterRoutes registers all application routes
func RegisterRoutes(router chi.Router, deps Dependencies) {
	loginLimit := middleware.DefaultLoginRateLimit(deps.IPConfig)
	if deps.LoginRateLimit > 0 {
		loginLimit.RequestsPerMinute = deps.LoginRateLimit
	}
	gate := auth.RequireSession(deps.Sessions, auth.GateConfig{LoginPath: auth.DefaultLoginPath})

	// Public routes - no session required
	router.Get("/health", deps.HealthHandler.Health)
	router.Get(auth.DefaultLoginPath, deps.SiteHandler.Login)

	router.Route("/auth", func(r chi.Router) {
		r.Use(middleware.CORS(middleware.DefaultCORSConfig(deps.AllowedOrigins)))
		r.Use(middleware.RequireSameOrigin(deps.AllowedOrigins, deps.Logger))

		r.With(middleware.RateLimitByClient(loginLimit)).Post("/", deps.AuthHandler.Login)
		r.Delete("/", deps.AuthHandler.Logout)
		r.Get("/", deps.AuthHandler.Session)
		r.Get("/status", deps.AuthHandler.Status)

		// Diagnostics across all clients need a session
		r.With(gate).Get("/stats", deps.AuthHandler.Stats)
	})

	// Everything else is the gated showcase
	router.Group(func(r chi.Router) {
		r.Use(gate)
		r.Get("/*", deps.SiteHandler.Files)
		r.Head("/*", deps.SiteHandler.Files)
	})
}
