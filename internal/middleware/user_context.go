// internal/middleware/user_context.go
package middleware

import (
	"context"
	"net/http"

	"github.com/go-chi/jwtauth/v5"

	"github.com/cgtm/cgtm_backend/internal/pkg/response"
)

type contextKey string

const (
	UserIDContextKey contextKey = "user_id"
	RoleContextKey   contextKey = "role"
)

// GetUserIDFromContext returns the authenticated user id.
func GetUserIDFromContext(ctx context.Context) (string, bool) {
	if val := ctx.Value(UserIDContextKey); val != nil {
		if id, ok := val.(string); ok && id != "" {
			return id, true
		}
	}
	return "", false
}

// GetRoleFromContext returns the authenticated user's role.
func GetRoleFromContext(ctx context.Context) (string, bool) {
	if val := ctx.Value(RoleContextKey); val != nil {
		if role, ok := val.(string); ok && role != "" {
			return role, true
		}
	}
	return "", false
}

// AddUserToContext extracts user_id and role from the JWT claims and puts
// them in the request context.
func AddUserToContext() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, claims, _ := jwtauth.FromContext(r.Context())
			if claims == nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			if id, ok := claims["user_id"].(string); ok && id != "" {
				ctx = context.WithValue(ctx, UserIDContextKey, id)
			}
			if role, ok := claims["role"].(string); ok && role != "" {
				ctx = context.WithValue(ctx, RoleContextKey, role)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminOnly refuses requests whose token does not carry the admin role.
func AdminOnly() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, _, err := jwtauth.FromContext(r.Context())
			if err != nil {
				response.RespondWithError(w, http.StatusUnauthorized, "Invalid token")
				return
			}
			claims, err := token.AsMap(r.Context())
			if err != nil {
				response.RespondWithError(w, http.StatusUnauthorized, "Invalid claims")
				return
			}
			if claims["role"] != "admin" {
				response.RespondWithError(w, http.StatusForbidden, "Access denied")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
