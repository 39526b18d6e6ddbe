package middleware

import (
	"aishop/internal/app/handler"
	"aishop/internal/app/logger"
	"crypto/sha256"
	"crypto/subtle"
	"net/http"
	"strings"
)

const apikeyScheme = "Apikey "

// Apikey authenticates payment gateway callbacks with the shared API key.
// An empty key rejects every request. Keys are compared as SHA-256 digests in
// constant time so neither length nor matching prefix is observable.
func Apikey(secret string) func(next http.Handler) http.Handler {
	expected := sha256.Sum256([]byte(secret))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			log := logger.Get(r.Context(), "Middleware.Apikey").With().
				Str("remote_addr", r.RemoteAddr).
				Str("authorization", logger.RedactCredential(header)).
				Logger()

			if secret == "" {
				log.Error().Msg("Gateway API key is not configured")
				handler.WriteEnvelope(w, false, handler.MsgServerConfiguration, http.StatusInternalServerError)
				return
			}

			var reason string
			if header == "" {
				reason = "missing authorization header"
			} else if key, ok := strings.CutPrefix(header, apikeyScheme); !ok {
				reason = "unexpected authorization scheme"
			} else if got := sha256.Sum256([]byte(key)); subtle.ConstantTimeCompare(got[:], expected[:]) != 1 {
				reason = "api key mismatch"
			}

			if reason != "" {
				log.Warn().Str("reason", reason).Msg("Gateway authentication rejected")
				handler.WriteEnvelope(w, false, handler.MsgUnauthorized, http.StatusUnauthorized)
				return
			}

			log.Info().Msg("Gateway authenticated")
			next.ServeHTTP(w, r)
		})
	}
}
