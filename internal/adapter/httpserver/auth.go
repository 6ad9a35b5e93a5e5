package httpserver

import (
	"crypto/subtle"
	"net/http"

	"golang.org/x/crypto/bcrypt"
)

// AdminGuard enforces HTTP Basic Auth against the configured admin
// credentials. The password is compared against a bcrypt hash so the
// plaintext never appears in configuration.
func (s *Server) AdminGuard() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, pass, ok := r.BasicAuth()
			if !ok || !s.adminCredentialsValid(user, pass) {
				w.Header().Set("WWW-Authenticate", `Basic realm="admin"`)
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (s *Server) adminCredentialsValid(user, pass string) bool {
	if !s.Cfg.AdminEnabled() {
		return false
	}
	if subtle.ConstantTimeCompare([]byte(user), []byte(s.Cfg.AdminUsername)) != 1 {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(s.Cfg.AdminPasswordHash), []byte(pass)) == nil
}
