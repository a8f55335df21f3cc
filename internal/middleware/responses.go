package middleware

import (
	"encoding/json"
	"errors"
	"net/http"

	"finitefield.org/cinema-web/internal/tmdb"
)

// errorResponse is the JSON envelope for failed htmx requests. Upstream failures
// also name the metadata endpoint and its status.
type errorResponse struct {
	Error    string `json:"error"`
	Endpoint string `json:"endpoint,omitempty"`
	Upstream int    `json:"upstream_status,omitempty"`
}

// WriteError answers htmx requests with a JSON body and everything else with plain text.
func WriteError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	writeError(w, r, code, errorResponse{Error: msg})
}

// WriteFetchError reports a failed metadata call. A *tmdb.FetchError contributes
// its human-readable message; anything else falls back to fallback.
func WriteFetchError(w http.ResponseWriter, r *http.Request, code int, err error, fallback string) {
	body := errorResponse{Error: fallback}
	var fe *tmdb.FetchError
	if errors.As(err, &fe) {
		body.Endpoint = fe.Endpoint
		body.Upstream = fe.Status
		if fe.Message != "" {
			body.Error = fe.Message
		}
	}
	writeError(w, r, code, body)
}

func writeError(w http.ResponseWriter, r *http.Request, code int, body errorResponse) {
	if IsHTMX(r.Context()) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(body)
		return
	}
	http.Error(w, body.Error, code)
}
