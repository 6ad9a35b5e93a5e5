package app

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	httpserver "github.com/hirelens/screener/internal/adapter/httpserver"
	"github.com/hirelens/screener/internal/config"
)

func TestParseOrigins(t *testing.T) {
	assert.Equal(t, []string{"*"}, ParseOrigins(""))
	assert.Equal(t, []string{"*"}, ParseOrigins("*"))
	assert.Equal(t, []string{"https://a.io", "https://b.io"}, ParseOrigins(" https://a.io , https://b.io "))
	assert.Equal(t, []string{"*"}, ParseOrigins(" , "))
}

func TestBuildRouter_HealthAndSecurityHeaders(t *testing.T) {
	h := BuildRouter(config.Config{RateLimitPerMin: 10}, &httpserver.Server{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}

func TestBuildRouter_AdminHiddenWithoutCredentials(t *testing.T) {
	h := BuildRouter(config.Config{RateLimitPerMin: 10}, &httpserver.Server{})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/admin/pii/coll-1", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBuildRouter_AdminMountedWithCredentials(t *testing.T) {
	cfg := config.Config{RateLimitPerMin: 10, AdminUsername: "admin", AdminPasswordHash: "$2a$10$hash"}
	h := BuildRouter(cfg, &httpserver.Server{Cfg: cfg})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/admin/pii/coll-1", nil))
	// mounted but unauthorized without credentials
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestBuildRouter_MetricsExposed(t *testing.T) {
	h := BuildRouter(config.Config{RateLimitPerMin: 10}, &httpserver.Server{})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
