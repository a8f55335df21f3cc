package middleware

import (
	"context"
	"net/http"
	"time"

	"finitefield.org/cinema-web/internal/i18n"
)

const localeCookieName = "hl"

// VaryLocale sets Vary header for Accept-Language on dynamic responses
func VaryLocale(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Vary", "Accept-Language")
		next.ServeHTTP(w, r)
	})
}

// Locale resolves the preferred language and stores it in the session and the `hl` cookie.
// Precedence: ?hl= query, session, cookie, Accept-Language.
func Locale(bundle *i18n.Bundle) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), ctxKeyLocaleFB, bundle.Fallback())
			r = r.WithContext(ctx)
			s := GetSession(r)
			if q := r.URL.Query().Get("hl"); q != "" {
				lang := bundle.Normalize(q)
				if s.Locale != lang {
					s.Locale = lang
					s.MarkDirty()
				}
				http.SetCookie(w, &http.Cookie{
					Name:     localeCookieName,
					Value:    lang,
					Path:     "/",
					SameSite: http.SameSiteLaxMode,
					Expires:  time.Now().Add(365 * 24 * time.Hour),
				})
			} else if s.Locale == "" || !bundle.IsSupported(s.Locale) {
				if c, err := r.Cookie(localeCookieName); err == nil && bundle.IsSupported(c.Value) {
					s.Locale = bundle.Normalize(c.Value)
				} else {
					s.Locale = bundle.Resolve(r.Header.Get("Accept-Language"))
				}
				s.MarkDirty()
			}
			w.Header().Set("Content-Language", s.Locale)
			next.ServeHTTP(w, r)
		})
	}
}

// Lang returns current lang from session, else the bundle fallback, else "tr".
func Lang(r *http.Request) string {
	if s := GetSession(r); s != nil && s.Locale != "" {
		return s.Locale
	}
	if v := r.Context().Value(ctxKeyLocaleFB); v != nil {
		if fb, ok := v.(string); ok && fb != "" {
			return fb
		}
	}
	return "tr"
}
