package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"task-manager/logging"
	"task-manager/models"
	"task-manager/services"
)

type contextKey string

const (
	userContextKey  contextKey = "user"
	tokenContextKey contextKey = "token"
)

func writeAuthError(w http.ResponseWriter, status int, kind, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": kind, "message": message})
}

// JWTAuthMiddleware authenticates the bearer token, verifies it is still an
// active session (logout revokes it), and attaches the acting user to the
// request context.
func JWTAuthMiddleware(jwtService *services.JWTService, userService *services.UserService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeAuthError(w, http.StatusUnauthorized, models.ErrUnauthenticated.Error(), "Authorization header missing")
				return
			}

			tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
			claims, err := jwtService.ValidateToken(tokenStr)
			if err != nil {
				logging.Logger.Warnf("Event ID: JWT_AUTH_INVALID_TOKEN, Description: Invalid token for request to %s %s: %v", r.Method, r.URL.Path, err)
				writeAuthError(w, http.StatusUnauthorized, models.ErrUnauthenticated.Error(), "Invalid token")
				return
			}

			userID, err := primitive.ObjectIDFromHex(claims.UserID)
			if err != nil {
				writeAuthError(w, http.StatusUnauthorized, models.ErrUnauthenticated.Error(), "Invalid token")
				return
			}

			user, err := userService.GetByID(r.Context(), userID)
			if err != nil {
				writeAuthError(w, http.StatusUnauthorized, models.ErrUnauthenticated.Error(), "Invalid token")
				return
			}

			if !user.HasToken(tokenStr) {
				writeAuthError(w, http.StatusUnauthorized, models.ErrUnauthenticated.Error(), "Session has been revoked")
				return
			}

			ctx := context.WithValue(r.Context(), userContextKey, user)
			ctx = context.WithValue(ctx, tokenContextKey, tokenStr)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserFromContext returns the authenticated user attached by the auth
// middleware.
func UserFromContext(ctx context.Context) (models.User, bool) {
	user, ok := ctx.Value(userContextKey).(models.User)
	return user, ok
}

// TokenFromContext returns the raw session token of the current request.
func TokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(tokenContextKey).(string)
	return token, ok
}
