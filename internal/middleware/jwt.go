package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/vireo-pm/vireo/internal/models"
)

type key string

const identityKey key = "identity"

// JWTMiddleware validates the Bearer token and stores the caller's resolved
// identity (user id + role) in the request context.
func JWTMiddleware(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "missing authorization header", http.StatusUnauthorized)
				return
			}

			tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

			token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return secret, nil
			})
			if err != nil || !token.Valid {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				http.Error(w, "invalid token claims", http.StatusUnauthorized)
				return
			}
			userID, ok := claims["user_id"].(float64)
			if !ok {
				http.Error(w, "invalid token claims", http.StatusUnauthorized)
				return
			}
			role, _ := claims["role"].(string)

			ident := models.Identity{UserID: int(userID), Role: role}
			ctx := context.WithValue(r.Context(), identityKey, ident)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetIdentity returns the caller identity stored by JWTMiddleware.
func GetIdentity(ctx context.Context) (models.Identity, bool) {
	ident, ok := ctx.Value(identityKey).(models.Identity)
	return ident, ok
}

// GetUserID returns the caller's user id from the request context.
func GetUserID(ctx context.Context) (int, bool) {
	ident, ok := GetIdentity(ctx)
	return ident.UserID, ok
}

// WithIdentity returns a context carrying the given identity. Test helper and
// entry point for non-HTTP callers (CLI, jobs).
func WithIdentity(ctx context.Context, ident models.Identity) context.Context {
	return context.WithValue(ctx, identityKey, ident)
}

// RequireRole returns 403 unless the caller's role is one of roles.
// Must run after JWTMiddleware.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ident, ok := GetIdentity(r.Context())
			if !ok {
				http.Error(w, "missing identity", http.StatusUnauthorized)
				return
			}
			for _, role := range roles {
				if ident.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte(`{"error":"forbidden"}`))
		})
	}
}
