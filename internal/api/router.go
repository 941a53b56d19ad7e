package api

import (
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/welldanyogia/webrana-contact/internal/api/handlers"
	"github.com/welldanyogia/webrana-contact/internal/api/middleware"
	"github.com/welldanyogia/webrana-contact/internal/logger"
	"github.com/welldanyogia/webrana-contact/internal/ratelimit"
)

// RouterConfig holds dependencies for the router
type RouterConfig struct {
	Contact        handlers.Submitter
	MailConfigured func() bool
	// Submissions admits contact posts per caller.
	Submissions ratelimit.Limiter
	// SubmissionWindow is advertised in Retry-After on denial.
	SubmissionWindow time.Duration
	// HealthChecks maps a service name to its probe for /health and /ready.
	HealthChecks map[string]ratelimit.Pinger
	Logger       *slog.Logger
	Security     *logger.SecurityLogger

	// Security configuration
	AllowedOrigins []string
	Production     bool
	BodyLimit      string
	// Burst is the per-IP token bucket applied to every route.
	Burst *middleware.IPRateLimiter
}

// NewRouter creates and configures the Echo router with all routes
func NewRouter(cfg *RouterConfig) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.BodyLimit == "" {
		cfg.BodyLimit = "64K"
	}
	if cfg.Submissions == nil {
		cfg.Submissions = ratelimit.NewMemoryStore(ratelimit.DefaultPolicy())
	}
	if cfg.Burst == nil {
		cfg.Burst = middleware.NewIPRateLimiter(10, 20)
	}

	// Middleware (applied in order)
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.SecureHeaders())
	e.Use(middleware.SecureCORS(cfg.AllowedOrigins, cfg.Production))
	e.Use(middleware.BodyLimit(cfg.BodyLimit))
	e.Use(middleware.RateLimiter(cfg.Burst, cfg.Logger))
	e.Use(middleware.RequestLogger(cfg.Logger))

	healthHandler := handlers.NewHealthHandler(cfg.HealthChecks, cfg.MailConfigured)
	contactHandler := handlers.NewContactHandler(cfg.Contact, cfg.Logger)

	// Health routes
	e.GET("/health", healthHandler.Health)
	e.GET("/ready", healthHandler.Ready)

	// API routes
	api := e.Group("/api")

	submissionLimit := middleware.SubmissionLimit(middleware.SubmissionLimitConfig{
		Limiter:    cfg.Submissions,
		RetryAfter: cfg.SubmissionWindow,
		Security:   cfg.Security,
		Logger:     cfg.Logger,
	})
	api.POST("/contact", contactHandler.Submit, submissionLimit)
	api.POST("/contact/", contactHandler.Submit, submissionLimit)

	return e
}
