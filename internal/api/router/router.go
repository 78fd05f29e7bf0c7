package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wolfman30/braidbook/internal/appointments"
	"github.com/wolfman30/braidbook/internal/availability"
	"github.com/wolfman30/braidbook/internal/calendar"
	"github.com/wolfman30/braidbook/internal/catalog"
	"github.com/wolfman30/braidbook/internal/http/handlers"
	httpmiddleware "github.com/wolfman30/braidbook/internal/http/middleware"
	"github.com/wolfman30/braidbook/internal/settings"
	"github.com/wolfman30/braidbook/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	Availability       *availability.Handler
	Appointments       *appointments.Handler
	Calendar           *calendar.Handler
	Catalog            *catalog.Handler
	Settings           *settings.Handler
	AdminAuthSecret    string
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string

	// PublicLimiter throttles booking and management-link traffic per IP.
	// Nil disables throttling.
	PublicLimiter *httpmiddleware.RateLimiter
}

// New creates the chi router with the public booking API and the admin API.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	r.Use(httpmiddleware.RequestLogger(cfg.Logger))

	throttle := func(next http.Handler) http.Handler { return next }
	if cfg.PublicLimiter != nil {
		throttle = cfg.PublicLimiter.Middleware
	}

	// Public booking site
	r.Group(func(public chi.Router) {
		public.Get("/health", handlers.Health)
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
		public.Route("/api", func(api chi.Router) {
			api.Get("/availability", cfg.Availability.GetSlots)
			api.Get("/services", cfg.Catalog.ListActive)
			api.With(throttle).Post("/appointments", cfg.Appointments.Create)
			api.With(throttle).Mount("/manage", cfg.Appointments.ManageRoutes())
		})
	})

	// Salon back office
	r.Route("/admin", func(admin chi.Router) {
		admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
		admin.Mount("/appointments", cfg.Appointments.AdminRoutes())
		admin.Mount("/availability", cfg.Calendar.AvailabilityRoutes())
		admin.Mount("/blocks", cfg.Calendar.BlockRoutes())
		admin.Mount("/services", cfg.Catalog.AdminRoutes())
		admin.Mount("/settings", cfg.Settings.Routes())
	})

	return r
}
