package httpserver

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/hirelens/screener/internal/config"
)

func guardedServer(t *testing.T) *Server {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	return &Server{Cfg: config.Config{AdminUsername: "admin", AdminPasswordHash: string(hash)}}
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAdminGuard_NoCredentials(t *testing.T) {
	h := guardedServer(t).AdminGuard()(okHandler())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/admin/pii/x", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Header().Get("WWW-Authenticate"), "Basic")
}

func TestAdminGuard_WrongPassword(t *testing.T) {
	h := guardedServer(t).AdminGuard()(okHandler())
	req := httptest.NewRequest(http.MethodGet, "/v1/admin/pii/x", nil)
	req.SetBasicAuth("admin", "wrong")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminGuard_ValidCredentials(t *testing.T) {
	h := guardedServer(t).AdminGuard()(okHandler())
	req := httptest.NewRequest(http.MethodGet, "/v1/admin/pii/x", nil)
	req.SetBasicAuth("admin", "s3cret")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAdminGuard_DisabledWithoutConfig(t *testing.T) {
	srv := &Server{Cfg: config.Config{}}
	h := srv.AdminGuard()(okHandler())
	req := httptest.NewRequest(http.MethodGet, "/v1/admin/pii/x", nil)
	req.SetBasicAuth("anyone", "anything")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
