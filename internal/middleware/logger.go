package middleware

import (
	"net"
	"net/http"
	"strings"
	"time"

	chiMid "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"finitefield.org/cinema-web/internal/logging"
)

// Logger puts a request-scoped zap logger on the context and emits one structured
// line per request once the handler returns.
func Logger(base *zap.Logger) func(http.Handler) http.Handler {
	if base == nil {
		base = zap.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rid := chiMid.GetReqID(r.Context())
			ctx := r.Context()
			if rid != "" {
				ctx = WithRequestID(ctx, rid)
			}
			logger := base.With(zap.String("request_id", rid))
			ctx = logging.WithLogger(ctx, logger)
			r = r.WithContext(ctx)

			rw := NewResponseRecorder(w)
			next.ServeHTTP(rw, r)

			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rw.Status()),
				zap.Duration("duration", time.Since(start)),
				zap.Int64("bytes", rw.BytesWritten()),
				zap.String("remote_ip", clientIP(r)),
				zap.Bool("htmx", IsHTMX(r.Context())),
			}
			if s := GetSession(r); s.ID != "" {
				fields = append(fields, zap.String("session_id", s.ID))
			}
			switch status := rw.Status(); {
			case status >= http.StatusInternalServerError:
				logger.Error("request", fields...)
			case status >= http.StatusBadRequest && status != http.StatusNotFound:
				logger.Warn("request", fields...)
			default:
				logger.Info("request", fields...)
			}
		})
	}
}

func clientIP(r *http.Request) string {
	// chi's RealIP has already folded X-Forwarded-For / X-Real-IP into RemoteAddr
	host := strings.TrimSpace(r.RemoteAddr)
	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	return host
}
