package middleware

import (
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/welldanyogia/webrana-contact/internal/api/response"
	"github.com/welldanyogia/webrana-contact/internal/contact"
	"github.com/welldanyogia/webrana-contact/internal/logger"
	"github.com/welldanyogia/webrana-contact/internal/ratelimit"
)

// CallerKey is the echo context key holding the resolved caller identifier.
const CallerKey = "contact.caller"

// SubmissionLimitConfig configures SubmissionLimit.
type SubmissionLimitConfig struct {
	Limiter ratelimit.Limiter
	// RetryAfter is advertised on denial, normally the full window.
	RetryAfter time.Duration
	Security   *logger.SecurityLogger
	Logger     *slog.Logger
}

// SubmissionLimit admits at most the configured number of submissions
// per caller within the window. It runs before the body is read, so
// malformed requests still use a slot. A store error lets the request
// through and is logged.
func SubmissionLimit(cfg SubmissionLimitConfig) echo.MiddlewareFunc {
	if cfg.RetryAfter <= 0 {
		cfg.RetryAfter = ratelimit.DefaultWindow
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Security == nil {
		cfg.Security = logger.NewSecurityLogger(cfg.Logger)
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			caller := contact.ResolveCaller(c.Request().Header)
			c.Set(CallerKey, caller)

			decision, err := cfg.Limiter.Admit(c.Request().Context(), caller)
			if err != nil {
				cfg.Logger.Error("submission limiter unavailable",
					slog.String("caller", caller),
					slog.Any("error", err))
				return next(c)
			}

			if !decision.Allowed {
				cfg.Security.RateLimitExceeded(caller, c.Path(), decision.RetryAfter)
				return response.TooManyRequests(c, contact.MsgRateLimited, cfg.RetryAfter)
			}

			return next(c)
		}
	}
}

// Caller returns the identifier stored by SubmissionLimit, resolving it
// from the headers when the middleware did not run.
func Caller(c echo.Context) string {
	if v, ok := c.Get(CallerKey).(string); ok && v != "" {
		return v
	}
	return contact.ResolveCaller(c.Request().Header)
}
