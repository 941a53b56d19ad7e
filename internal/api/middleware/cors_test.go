package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func corsServer(origins []string, production bool) *echo.Echo {
	e := echo.New()
	e.Use(SecureCORS(origins, production))
	e.POST("/api/contact", func(c echo.Context) error {
		return c.String(http.StatusOK, "success")
	})
	return e
}

func TestSecureCORS_AllowedOrigin(t *testing.T) {
	e := corsServer([]string{"http://localhost:3000", " https://example.com"}, false)

	req := httptest.NewRequest(http.MethodPost, "/api/contact", nil)
	req.Header.Set("Origin", "https://example.com")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestSecureCORS_DisallowedOrigin(t *testing.T) {
	e := corsServer([]string{"http://localhost:3000"}, false)

	req := httptest.NewRequest(http.MethodPost, "/api/contact", nil)
	req.Header.Set("Origin", "http://malicious.com")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	// Request still succeeds but without CORS headers for disallowed origin
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestSecureCORS_PreflightOptions(t *testing.T) {
	e := corsServer([]string{"http://localhost:3000"}, false)

	req := httptest.NewRequest(http.MethodOptions, "/api/contact", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST")
	assert.NotContains(t, rec.Header().Get("Access-Control-Allow-Methods"), "DELETE")
}

func TestParseOrigins(t *testing.T) {
	tests := []struct {
		name       string
		origins    []string
		production bool
		want       []string
	}{
		{"empty defaults to localhost", nil, false, []string{defaultOrigin}},
		{"trims and skips blanks", []string{" https://a.com ", "", "https://b.com"}, false, []string{"https://a.com", "https://b.com"}},
		{"wildcard kept in development", []string{"*"}, false, []string{"*"}},
		{"wildcard dropped in production", []string{"*", "https://a.com"}, true, []string{"https://a.com"}},
		{"only wildcard in production", []string{"*"}, true, []string{defaultOrigin}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseOrigins(tt.origins, tt.production))
		})
	}
}
