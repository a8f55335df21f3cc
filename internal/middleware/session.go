package middleware

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"
)

const (
	sessionCookieName = "CINEMA_SESSION"
	sessionLifetime   = 30 * 24 * time.Hour
)

// SessionData is the signed-cookie session. Its ID keys request supersession.
type SessionData struct {
	ID        string    `json:"id"`
	Locale    string    `json:"locale,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	// internal dirty flag; not serialized
	dirty bool `json:"-"`
}

var (
	sessionMu      sync.RWMutex
	sessionSignKey []byte
	sessionSecure  bool
)

// ConfigureSessions sets the signing key and the Secure cookie flag. An empty key
// generates a process-ephemeral one; it reports whether that happened.
func ConfigureSessions(key string, secure bool) (ephemeral bool) {
	sessionMu.Lock()
	defer sessionMu.Unlock()
	sessionSecure = secure
	if strings.TrimSpace(key) != "" {
		sessionSignKey = []byte(key)
		return false
	}
	sessionSignKey = make([]byte, 32)
	if _, err := rand.Read(sessionSignKey); err != nil {
		sessionSignKey = []byte("insecure-dev-key-please-set-CINEMA_SESSION_SIGNING_KEY")
	}
	return true
}

func signingKey() ([]byte, bool) {
	sessionMu.RLock()
	key, secure := sessionSignKey, sessionSecure
	sessionMu.RUnlock()
	if key == nil {
		ConfigureSessions("", false)
		return signingKey()
	}
	return key, secure
}

// Session loads or initializes a session and stores it in request context.
func Session(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sd, fromCookie := readSessionCookie(r)
		if sd.ID == "" {
			sd.ID = randID()
			sd.CreatedAt = time.Now().UTC()
			sd.UpdatedAt = sd.CreatedAt
			sd.dirty = true
		}
		ctx := context.WithValue(r.Context(), ctxKeySession, sd)
		rw := NewResponseRecorder(w)
		// the cookie has to be set before headers are flushed
		rw.SetBeforeWrite(func(w http.ResponseWriter) {
			if sd.dirty || !fromCookie {
				writeSessionCookie(w, sd)
			}
		})
		next.ServeHTTP(rw, r.WithContext(ctx))
		// nothing was written (e.g. an empty 200); persist now
		if !rw.Written() && (sd.dirty || !fromCookie) {
			writeSessionCookie(w, sd)
		}
	})
}

// GetSession returns session data from context
func GetSession(r *http.Request) *SessionData {
	if v := r.Context().Value(ctxKeySession); v != nil {
		if sd, ok := v.(*SessionData); ok {
			return sd
		}
	}
	return &SessionData{}
}

// SessionKey returns the id used to group a browser's requests, falling back to
// the remote address when no session is attached.
func SessionKey(r *http.Request) string {
	if s := GetSession(r); s.ID != "" {
		return s.ID
	}
	return "ip:" + clientIP(r)
}

// ViewKey scopes a request to one page view of one browser, so tabs sharing a
// cookie never supersede each other. A request without a view id gets a key of
// its own.
func ViewKey(r *http.Request) string {
	view := HTMXFromContext(r.Context()).ViewID
	if view == "" {
		return "req:" + randID()
	}
	return SessionKey(r) + "/" + view
}

// MarkDirty flags the session for writing at end of request
func (s *SessionData) MarkDirty() { s.dirty = true; s.UpdatedAt = time.Now().UTC() }

// readSessionCookie parses and verifies the session cookie
func readSessionCookie(r *http.Request) (*SessionData, bool) {
	c, err := r.Cookie(sessionCookieName)
	if err != nil || c.Value == "" {
		return &SessionData{}, false
	}
	payload, sig, ok := strings.Cut(c.Value, ".")
	if !ok {
		return &SessionData{}, false
	}
	payloadB, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return &SessionData{}, false
	}
	sigB, err := base64.RawURLEncoding.DecodeString(sig)
	if err != nil {
		return &SessionData{}, false
	}
	key, _ := signingKey()
	mac := hmac.New(sha256.New, key)
	mac.Write(payloadB)
	if !hmac.Equal(sigB, mac.Sum(nil)) {
		return &SessionData{}, false
	}
	var sd SessionData
	if err := json.Unmarshal(payloadB, &sd); err != nil {
		return &SessionData{}, false
	}
	return &sd, true
}

func writeSessionCookie(w http.ResponseWriter, sd *SessionData) {
	key, secure := signingKey()
	b, _ := json.Marshal(sd)
	payload := base64.RawURLEncoding.EncodeToString(b)
	mac := hmac.New(sha256.New, key)
	mac.Write(b)
	sig := base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    payload + "." + sig,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(sessionLifetime),
	})
}

func randID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(b)
}
