// Package auth provides authentication for the annotation task engine:
// bcrypt password handling and HMAC-signed JWT access tokens carrying
// the reviewer's identity and role.
package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/tsunayoshi21/Labeling-app/internal/domain"
)

// Common authentication errors.
var (
	// ErrInvalidToken indicates a malformed token or a bad signature.
	ErrInvalidToken = errors.New("invalid token")

	// ErrExpiredToken indicates a token past its expiry.
	ErrExpiredToken = errors.New("token expired")

	// ErrTokenNotYetValid indicates a token used before its validity window.
	ErrTokenNotYetValid = errors.New("token not yet valid")

	// ErrInvalidCredentials indicates a failed name/password login. The
	// same error covers an unknown name and a wrong password, so a login
	// response never reveals which reviewers exist.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Claims holds the validated contents of an access token.
type Claims struct {
	ReviewerID uuid.UUID
	Name       string
	Role       domain.ReviewerRole
	IssuedAt   time.Time
	ExpiresAt  time.Time
	ID         string
}

// JWTService generates and validates access tokens.
type JWTService interface {
	// GenerateToken creates a signed access token for the reviewer.
	GenerateToken(ctx context.Context, reviewer *domain.Reviewer) (string, error)

	// ValidateToken validates an access token and returns its claims.
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)
}
