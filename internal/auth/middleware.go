package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// errNoCredential is returned when the request carries no bearer token at
// all, as opposed to carrying an invalid one.
var errNoCredential = errors.New("auth: no bearer token on request")

// contextKey is an unexported type used for context keys in this package.
//
// WHY A CUSTOM TYPE FOR CONTEXT KEYS?
// context.WithValue uses any as the key type. If you use a plain string
// like "userID", ANY package that knows the string can read or shadow your
// value. A package-private type prevents collisions: only this package can
// create a key of type contextKey, so only this package can read or write
// the identity stored in the context.
type contextKey string

const userIDKey contextKey = "userID"

// RequireAuth is a middleware that enforces authentication on protected
// routes.
//
// It reads the access token from the Authorization header
// ("Bearer <token>"), validates it, and stores the userID in the request
// context. If the token is missing, expired, or of the wrong type, it
// returns 401 and stops the request chain.
//
// MIDDLEWARE PATTERN IN GO:
// A middleware takes an http.Handler and returns a new http.Handler that
// wraps it. Chi applies middlewares in a chain:
// req → M1 → M2 → Handler → M2 → M1 → resp
func RequireAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := extractUserID(r, tokens)
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"success":false,"message":"Valid authentication required"}`))
				return
			}

			// Store userID in context so handlers can read it
			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserIDFromContext retrieves the authenticated user's ID from the request
// context.
//
// Returns ("", false) if the request is anonymous (no valid token present).
// On a RequireAuth-protected route it always returns (id, true).
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

// extractUserID reads the bearer token from the Authorization header and
// validates it as an access token.
//
// The header format is "Authorization: Bearer <jwt>" — anything else
// (missing header, wrong scheme, refresh token in the access slot) is an
// authentication failure.
func extractUserID(r *http.Request, tokens *TokenService) (string, error) {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", errNoCredential
	}

	return tokens.ValidateAccess(strings.TrimPrefix(header, prefix))
}
