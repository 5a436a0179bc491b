package server

import (
	"crypto/subtle"
	"net/http"

	"github.com/zeusync/physics2d/internal/core/observability/log"
)

// authorize guards control endpoints with the configured token, passed as
// the token query parameter.
func (s *Server) authorize(next http.Handler) http.Handler {
	if s.config.Token == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.tokenValid(r.URL.Query().Get("token")) {
			s.logger.Warn("rejected unauthorized client", log.String("remote_addr", r.RemoteAddr))
			http.Error(w, ErrUnauthorized.Error(), http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// tokenValid reports whether got matches the configured token. Everything
// passes when no token is set.
func (s *Server) tokenValid(got string) bool {
	if s.config.Token == "" {
		return true
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(s.config.Token)) == 1
}
