// Package middleware provides HTTP middlewares for authentication and
// request logging.
package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/offersync/offersync/internal/auth"
)

type ctxKey string

const userKey ctxKey = "user"

// BearerAuth enforces Google bearer-token authentication.
//
// It extracts the token from the Authorization header, resolves it to a user
// through the verifier, and stores the user in the request context so
// handlers receive an already-validated identity. Requests without a valid
// token are rejected with 401 before any store access.
func BearerAuth(verifier auth.Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				unauthorized(w, "no authentication token provided")
				return
			}

			user, err := verifier.Verify(r.Context(), strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				unauthorized(w, "invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), userKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "error": msg})
}

// GetUserFromContext extracts the verified user from the request context.
// Returns nil if the request did not pass BearerAuth.
func GetUserFromContext(ctx context.Context) *auth.User {
	user, _ := ctx.Value(userKey).(*auth.User)
	return user
}

// WithUser returns a context carrying the given user. Intended for handler
// tests that bypass BearerAuth.
func WithUser(ctx context.Context, user *auth.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}
