package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/tsunayoshi21/Labeling-app/internal/api/shared"
	"github.com/tsunayoshi21/Labeling-app/internal/domain"
	"github.com/tsunayoshi21/Labeling-app/internal/service/auth"
)

// AuthMiddleware provides JWT authentication for routes.
type AuthMiddleware struct {
	jwtService auth.JWTService
}

// NewAuthMiddleware creates a new AuthMiddleware with the given dependencies.
func NewAuthMiddleware(jwtService auth.JWTService) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService: jwtService,
	}
}

// Authenticate validates JWT tokens from the Authorization header and
// adds the reviewer's ID and role to the request context for authorized
// requests.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Authorization header required")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid authorization format")
			return
		}

		claims, err := m.jwtService.ValidateToken(r.Context(), parts[1])
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrExpiredToken):
				shared.RespondWithError(w, r, http.StatusUnauthorized, "Token expired")
			case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrTokenNotYetValid):
				shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid token")
			default:
				slog.Error("failed to validate token", "error", err)
				shared.RespondWithError(w, r, http.StatusInternalServerError, "Authentication error")
			}
			return
		}

		ctx := context.WithValue(r.Context(), shared.ReviewerIDContextKey, claims.ReviewerID)
		ctx = context.WithValue(ctx, shared.ReviewerRoleContextKey, claims.Role)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireReference allows only reviewers holding the reference role
// through. It must run after Authenticate.
func (m *AuthMiddleware) RequireReference(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		role, ok := GetReviewerRole(r)
		if !ok || role != domain.RoleReference {
			shared.RespondWithError(w, r, http.StatusForbidden, "Reference role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetReviewerID extracts the reviewer ID from the request context.
// Returns the ID and a boolean indicating if it was found.
func GetReviewerID(r *http.Request) (uuid.UUID, bool) {
	reviewerID, ok := r.Context().Value(shared.ReviewerIDContextKey).(uuid.UUID)
	return reviewerID, ok
}

// GetReviewerRole extracts the reviewer role from the request context.
// Returns the role and a boolean indicating if it was found.
func GetReviewerRole(r *http.Request) (domain.ReviewerRole, bool) {
	role, ok := r.Context().Value(shared.ReviewerRoleContextKey).(domain.ReviewerRole)
	return role, ok
}
