package auth

import (
	"context"
	"net/http"
	"strings"
)

// contextKey is unexported so only this package can set or read identities.
type contextKey string

const identityKey contextKey = "identity"

// CookieName is the session cookie holding the JWT.
const CookieName = "token"

// RequireAuth rejects requests without a valid token with 401 and the
// standard JSON error body. On success the identity is in the context.
func RequireAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := extractIdentity(r, tokens)
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"Unauthorized","code":"unauthenticated"}` + "\n"))
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

// OptionalAuth attaches the identity when a valid token is present and lets
// anonymous requests through. The dashboard page uses it to choose between
// the sign-in view and the tracker.
func OptionalAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if identity, err := extractIdentity(r, tokens); err == nil {
				r = r.WithContext(WithIdentity(r.Context(), identity))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithIdentity returns a copy of ctx carrying identity.
func WithIdentity(ctx context.Context, identity string) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// IdentityFromContext returns the caller's identity subject, or ("", false)
// for anonymous requests.
func IdentityFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(identityKey).(string)
	return id, ok && id != ""
}

// extractIdentity prefers the session cookie and falls back to a bearer
// token, which is what trackerctl-issued tokens use. A stale cookie does not
// hide a valid bearer token on the same request.
func extractIdentity(r *http.Request, tokens *TokenService) (string, error) {
	cookieErr := ErrInvalidToken
	if cookie, err := r.Cookie(CookieName); err == nil && cookie.Value != "" {
		identity, err := tokens.Validate(cookie.Value)
		if err == nil {
			return identity, nil
		}
		cookieErr = err
	}

	header := r.Header.Get("Authorization")
	if scheme, token, ok := strings.Cut(header, " "); ok && strings.EqualFold(scheme, "Bearer") {
		return tokens.Validate(strings.TrimSpace(token))
	}

	return "", cookieErr
}
