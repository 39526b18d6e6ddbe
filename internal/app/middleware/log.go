package middleware

import (
	"aishop/internal/app/logger"
	"github.com/rs/zerolog/hlog"
	"net/http"
	"time"
)

// Log attaches a request scoped logger and writes one access line per request.
// Query strings are left out of the access line.
func Log(l logger.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		h := hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
			hlog.FromRequest(r).Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", status).
				Int("size", size).
				Dur("duration", duration).
				Msg("Request")
		})(next)
		h = hlog.RequestIDHandler("request_id", "X-Request-Id")(h)
		return hlog.NewHandler(l.Logger)(h)
	}
}
