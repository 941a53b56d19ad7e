package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/welldanyogia/webrana-contact/internal/ratelimit"
)

const pingTimeout = 2 * time.Second

// HealthHandler handles health check HTTP requests
type HealthHandler struct {
	checks         map[string]ratelimit.Pinger
	mailConfigured func() bool
}

// NewHealthHandler creates a new HealthHandler. checks maps a service name
// to its probe; mailConfigured reports whether mail credentials are set.
func NewHealthHandler(checks map[string]ratelimit.Pinger, mailConfigured func() bool) *HealthHandler {
	if checks == nil {
		checks = map[string]ratelimit.Pinger{}
	}
	if mailConfigured == nil {
		mailConfigured = func() bool { return false }
	}
	return &HealthHandler{checks: checks, mailConfigured: mailConfigured}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status   string            `json:"status"`
	Services map[string]string `json:"services"`
}

// Health handles GET /health. Missing mail credentials are reported but do
// not make the process unhealthy.
func (h *HealthHandler) Health(c echo.Context) error {
	services, healthy := h.probe(c.Request().Context())

	if h.mailConfigured() {
		services["mail"] = "configured"
	} else {
		services["mail"] = "not configured"
	}

	status, statusCode := "healthy", http.StatusOK
	if !healthy {
		status, statusCode = "unhealthy", http.StatusServiceUnavailable
	}

	return c.JSON(statusCode, HealthResponse{
		Status:   status,
		Services: services,
	})
}

// Ready handles GET /ready
func (h *HealthHandler) Ready(c echo.Context) error {
	services, healthy := h.probe(c.Request().Context())
	if !healthy {
		for _, name := range sortedKeys(services) {
			if services[name] == "unhealthy" {
				return c.JSON(http.StatusServiceUnavailable, map[string]string{
					"status": "not ready",
					"reason": name + " ping failed",
				})
			}
		}
	}

	if !h.mailConfigured() {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"reason": "email service not configured",
		})
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status": "ready",
	})
}

func (h *HealthHandler) probe(ctx context.Context) (map[string]string, bool) {
	services := make(map[string]string, len(h.checks)+1)
	healthy := true
	for name, p := range h.checks {
		pctx, cancel := context.WithTimeout(ctx, pingTimeout)
		err := p.Ping(pctx)
		cancel()
		if err != nil {
			services[name] = "unhealthy"
			healthy = false
			continue
		}
		services[name] = "healthy"
	}
	return services, healthy
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
