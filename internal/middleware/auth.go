// Package middleware provides the HTTP middleware chain: authentication,
// CORS and per-client rate limiting.
package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/clipstream/clipstream/internal/domain/user"
	"github.com/clipstream/clipstream/internal/storage"
	"github.com/clipstream/clipstream/internal/token"
	"github.com/clipstream/clipstream/pkg/logger"
)

type contextKey string

const userKey contextKey = "auth.user"

// AccessTokenCookie is the cookie the access token travels in. The
// Authorization header is the fallback for non-browser clients.
const AccessTokenCookie = "accessToken"

// Authenticator gates routes behind a valid access token.
type Authenticator struct {
	issuer *token.Issuer
	users  storage.UserStore
	log    *logger.Logger
}

// NewAuthenticator constructs the authentication middleware.
func NewAuthenticator(issuer *token.Issuer, users storage.UserStore, log *logger.Logger) *Authenticator {
	if log == nil {
		log = logger.NewDefault("auth")
	}
	return &Authenticator{issuer: issuer, users: users, log: log}
}

// Require rejects the request unless it carries a valid access token for an
// existing account, and attaches that account to the context.
func (a *Authenticator) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := extractToken(r)
		if tokenString == "" {
			unauthorized(w, "missing access token")
			return
		}

		claims, err := a.issuer.VerifyAccess(tokenString)
		if err != nil {
			unauthorized(w, "invalid access token")
			return
		}

		u, err := a.users.GetUser(r.Context(), claims.Subject)
		if err != nil {
			unauthorized(w, "invalid access token")
			return
		}
		// The context carries the public principal only; credentials stay in
		// the store.
		u.PasswordHash = ""
		u.RefreshToken = ""

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey, u)))
	})
}

// extractToken prefers the cookie over the Authorization header.
func extractToken(r *http.Request) string {
	if cookie, err := r.Cookie(AccessTokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	return ""
}

// UserFrom returns the authenticated account attached by Require.
func UserFrom(ctx context.Context) (user.User, bool) {
	u, ok := ctx.Value(userKey).(user.User)
	return u, ok
}

// UserID returns the authenticated account's ID, or empty.
func UserID(ctx context.Context) string {
	u, _ := UserFrom(ctx)
	return u.ID
}

// WithUser attaches an account to the context. Test helper.
func WithUser(ctx context.Context, u user.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"statusCode": http.StatusUnauthorized,
		"message":    msg,
		"success":    false,
		"errors":     []string{},
	})
}
