package middleware

import (
	"aishop/internal/app/apperr"
	"aishop/internal/app/handler"
	"aishop/internal/app/logger"
	"aishop/internal/app/session"
	"context"
	"net/http"
	"strings"
)

// Auth resolves the customer from a bearer token.
func Auth(sessions session.Reader) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log := logger.Get(r.Context(), "Middleware.Auth")

			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				log.Debug().Msg("Invalid Authorization header")
				handler.WriteError(w, apperr.ErrUnauthorized, http.StatusUnauthorized)
				return
			}

			customerID, err := sessions.Read(r.Context(), token)
			if err != nil {
				log.Debug().Err(err).Msg("Token validation failed")
				handler.WriteError(w, apperr.ErrUnauthorized, http.StatusUnauthorized)
				return
			}

			r = r.WithContext(context.WithValue(r.Context(), handler.ContextKeyCustomer{}, customerID))
			next.ServeHTTP(w, r)
		})
	}
}
