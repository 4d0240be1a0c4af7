package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/devdanielvaldez/autoclinic-bot/internal/http/handlers"
	httpmiddleware "github.com/devdanielvaldez/autoclinic-bot/internal/http/middleware"
	"github.com/devdanielvaldez/autoclinic-bot/internal/messaging"
	"github.com/devdanielvaldez/autoclinic-bot/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger           *logging.Logger
	MessagingHandler *messaging.Handler
	AdminHandler     *handlers.AdminHandler
	MetricsHandler   http.Handler

	// AdminJWTSecret enables the /admin routes when set.
	AdminJWTSecret     string
	CORSAllowedOrigins []string
	APIRateLimit       float64
	APIRateBurst       int
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}
	r.Use(middleware.Recoverer)

	// Public endpoints (webhooks, health checks)
	r.Group(func(public chi.Router) {
		public.Get("/health", cfg.MessagingHandler.HealthCheck)
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
		public.Post("/webhooks/twilio", cfg.MessagingHandler.TwilioWebhook)
	})

	r.Route("/api", func(api chi.Router) {
		if len(cfg.CORSAllowedOrigins) > 0 {
			api.Use(cors.Handler(cors.Options{
				AllowedOrigins: cfg.CORSAllowedOrigins,
				AllowedMethods: []string{http.MethodPost, http.MethodOptions},
				AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
				MaxAge:         300,
			}))
		}
		if cfg.APIRateLimit > 0 {
			api.Use(httpmiddleware.RateLimit(cfg.APIRateLimit, cfg.APIRateBurst))
		}
		api.Post("/messages", cfg.MessagingHandler.MessagesAPI)
	})

	if cfg.AdminHandler != nil && cfg.AdminJWTSecret != "" {
		r.Route("/admin", func(admin chi.Router) {
			admin.Use(httpmiddleware.AdminJWT(cfg.AdminJWTSecret))
			admin.Get("/paused", cfg.AdminHandler.ListPaused)
			admin.Post("/sessions/{phone}/pause", cfg.AdminHandler.Pause)
			admin.Post("/sessions/{phone}/resume", cfg.AdminHandler.Resume)
			admin.Get("/bookings/{code}", cfg.AdminHandler.GetBooking)
			admin.Patch("/bookings/{code}/status", cfg.AdminHandler.UpdateBookingStatus)
		})
	}

	return r
}
