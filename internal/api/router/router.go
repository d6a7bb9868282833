package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vahabvahabov/silentsignals/internal/api/handlers"
	"github.com/vahabvahabov/silentsignals/internal/api/middleware"
	"github.com/vahabvahabov/silentsignals/internal/config"
	"github.com/vahabvahabov/silentsignals/internal/pkg/logger"
	"github.com/vahabvahabov/silentsignals/internal/pkg/metrics"
)

type Handlers struct {
	Health  *handlers.HealthHandler
	Auth    *handlers.AuthHandler
	Contact *handlers.ContactHandler
	Alert   *handlers.AlertHandler
}

func New(cfg *config.Config, log *logger.Logger, h *Handlers) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(log))
	r.Use(middleware.Recovery(log))
	r.Use(metrics.Middleware())
	r.Use(middleware.CORS([]string{cfg.Server.FrontendURL}))
	r.Use(middleware.RateLimit(100, 200)) // 100 req/sec, burst of 200

	// Public routes
	r.Group(func(r chi.Router) {
		r.Get("/health", h.Health.Healthz)
		r.Get("/healthz", h.Health.Healthz)
		r.Get("/readyz", h.Health.Readyz)
		r.Handle("/metrics", metrics.Handler())

		r.Post("/api/v1/auth/register", h.Auth.Register)
		r.Post("/api/v1/auth/login", h.Auth.Login)
	})

	// Protected routes (require authentication)
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthMiddleware(cfg.Auth.JWTSecret))

		r.Get("/api/v1/auth/me", h.Auth.Me)
		r.Post("/api/v1/auth/verify-email", h.Auth.VerifyEmail)
		r.Post("/api/v1/auth/logout", h.Auth.Logout)

		r.Route("/api/v1/contacts", func(r chi.Router) {
			r.Get("/", h.Contact.List)
			r.Post("/", h.Contact.Create)
			r.Put("/{id}", h.Contact.Update)
			r.Delete("/{id}", h.Contact.Delete)
		})

		r.Route("/api/v1/alerts", func(r chi.Router) {
			r.Get("/", h.Alert.List)
			r.Post("/", h.Alert.Trigger)
			r.Get("/rate-limit", h.Alert.RateLimitStatus)
			r.Put("/{id}/status", h.Alert.UpdateStatus)
		})
	})

	return r
}
