package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tonermart/backend/internal/access"
)

type contextKey string

const principalKey contextKey = "principal"

// SessionChecker reports whether a session id is still live. Implemented
// by the auth service; always-true when no session cache is configured.
type SessionChecker interface {
	SessionAlive(ctx context.Context, sessionID string) bool
}

var (
	jwtSecret []byte
	sessions  SessionChecker
)

// InitAuthMiddleware wires the signing secret and the session checker.
// Call once at startup, before the router is built.
func InitAuthMiddleware(secret string, checker SessionChecker) {
	jwtSecret = []byte(secret)
	sessions = checker
}

// AuthMiddleware validates the bearer token and stores the resolved
// principal in the request context. It authenticates only; capability
// checks happen in the access gate so that denials name the resource.
func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Authorization header required", http.StatusUnauthorized)
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			http.Error(w, "Invalid authorization header format", http.StatusUnauthorized)
			return
		}

		principal, err := validateToken(r.Context(), parts[1])
		if err != nil {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), principalKey, principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// PrincipalFrom extracts the authenticated principal stored by
// AuthMiddleware.
func PrincipalFrom(ctx context.Context) (access.Principal, bool) {
	p, ok := ctx.Value(principalKey).(access.Principal)
	return p, ok
}

func validateToken(ctx context.Context, tokenString string) (access.Principal, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return access.Principal{}, jwt.ErrTokenUnverifiable
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return access.Principal{}, jwt.ErrTokenInvalidClaims
	}

	if sessions != nil {
		sid, _ := claims["sid"].(string)
		if !sessions.SessionAlive(ctx, sid) {
			return access.Principal{}, jwt.ErrTokenExpired
		}
	}

	name, _ := claims["sub"].(string)
	role, _ := claims["role"].(string)
	return access.Principal{Name: name, Role: access.Role(role)}, nil
}
