package auth

import (
	"context"
	"log/slog"

	"github.com/tsunayoshi21/Labeling-app/internal/domain"
	"github.com/tsunayoshi21/Labeling-app/internal/platform/logger"
	"github.com/tsunayoshi21/Labeling-app/internal/store"
)

// Service authenticates reviewers by name and password and issues
// access tokens.
type Service struct {
	reviewers store.ReviewerStore
	verifier  PasswordVerifier
	jwt       JWTService
	logger    *slog.Logger
}

// NewService creates a new auth Service with the given dependencies.
// Panics if any dependency is nil.
func NewService(reviewers store.ReviewerStore, verifier PasswordVerifier, jwt JWTService, log *slog.Logger) *Service {
	if reviewers == nil {
		panic("reviewer store cannot be nil")
	}
	if verifier == nil {
		panic("password verifier cannot be nil")
	}
	if jwt == nil {
		panic("jwt service cannot be nil")
	}
	if log == nil {
		panic("logger cannot be nil")
	}
	return &Service{
		reviewers: reviewers,
		verifier:  verifier,
		jwt:       jwt,
		logger:    log.With(slog.String("component", "auth_service")),
	}
}

// Login verifies the reviewer's credentials and returns a signed access
// token together with the reviewer. An unknown name and a wrong
// password both return ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, name, password string) (string, *domain.Reviewer, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	reviewer, err := s.reviewers.GetByName(ctx, name)
	if err != nil {
		if store.IsNotFoundError(err) {
			log.Debug("login failed: unknown reviewer name")
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}

	if err := s.verifier.Compare(reviewer.HashedPassword, password); err != nil {
		log.Debug("login failed: password mismatch",
			slog.String("reviewer_id", reviewer.ID.String()))
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.jwt.GenerateToken(ctx, reviewer)
	if err != nil {
		return "", nil, err
	}

	log.Info("reviewer logged in",
		slog.String("reviewer_id", reviewer.ID.String()),
		slog.String("role", string(reviewer.Role)))
	return token, reviewer, nil
}
