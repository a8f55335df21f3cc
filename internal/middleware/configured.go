package middleware

import (
	"net/http"
	"strings"
)

// RequireConfigured short-circuits every route except health checks and static
// assets while the service is missing required configuration. render writes the
// blocking page; it is expected to use status 503.
func RequireConfigured(configErr error, render func(http.ResponseWriter, *http.Request)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if configErr == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/healthz" || strings.HasPrefix(r.URL.Path, "/assets/") {
				next.ServeHTTP(w, r)
				return
			}
			if render == nil || IsHTMX(r.Context()) {
				WriteError(w, r, http.StatusServiceUnavailable, "service not configured")
				return
			}
			render(w, r)
		})
	}
}
