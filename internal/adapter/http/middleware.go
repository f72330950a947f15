package http

import (
	"net/http"
	"strings"
)

// requireSession rejects API calls without the current session token. Login
// itself is exempt, and the gate is open when no credentials are configured.
func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.svc.Sessions.Enabled() || (r.Method == http.MethodPost && r.URL.Path == "/api/v1/session") {
			next.ServeHTTP(w, r)
			return
		}

		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || !s.svc.Sessions.Valid(strings.TrimSpace(token)) {
			w.Header().Set("WWW-Authenticate", `Bearer realm="agri-assist"`)
			writeError(w, http.StatusUnauthorized, "unauthorized", "a valid session token is required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
