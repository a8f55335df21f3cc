package middleware

import (
	"net/http"
	"strings"

	"finitefield.org/cinema-web/internal/query"
)

// ViewIDHeader carries the id of the page view a fragment request comes from.
const ViewIDHeader = "X-View-ID"

const maxViewIDLen = 64

// HTMXInfo captures request metadata from HX-* headers.
type HTMXInfo struct {
	IsHTMX         bool
	IsBoosted      bool
	CurrentURL     string
	Target         string
	Trigger        string
	HistoryRestore bool
	Navigation     query.Navigation
	ViewID         string
}

// HTMX marks requests coming from htmx so handlers/middlewares can adapt responses
func HTMX(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		info := HTMXInfo{
			IsHTMX:         strings.EqualFold(r.Header.Get("HX-Request"), "true"),
			IsBoosted:      strings.EqualFold(r.Header.Get("HX-Boosted"), "true"),
			CurrentURL:     r.Header.Get("HX-Current-URL"),
			Target:         r.Header.Get("HX-Target"),
			Trigger:        r.Header.Get("HX-Trigger"),
			HistoryRestore: strings.EqualFold(r.Header.Get("HX-History-Restore-Request"), "true"),
			Navigation:     query.ParseNavigation(r.Header.Get(query.NavigationHeader)),
			ViewID:         strings.TrimSpace(r.Header.Get(ViewIDHeader)),
		}
		if len(info.ViewID) > maxViewIDLen {
			info.ViewID = info.ViewID[:maxViewIDLen]
		}
		next.ServeHTTP(w, r.WithContext(WithHTMX(r.Context(), info)))
	})
}

// RequireHTMX answers 404 to direct navigation so fragment routes stay internal.
// History restores are also refused; htmx then reloads the full page.
func RequireHTMX(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		info := HTMXFromContext(r.Context())
		if !info.IsHTMX || info.HistoryRestore {
			http.NotFound(w, r)
			return
		}
		w.Header().Add("Vary", "HX-Request")
		next.ServeHTTP(w, r)
	})
}
