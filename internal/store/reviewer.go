package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/tsunayoshi21/Labeling-app/internal/domain"
)

// ReviewerStore defines the interface for reviewer data persistence.
type ReviewerStore interface {
	// Create saves a new reviewer to the store.
	// Returns ErrReviewerNameExists if the name is already taken.
	Create(ctx context.Context, reviewer *domain.Reviewer) error

	// GetByID retrieves a reviewer by its unique ID.
	// Returns ErrReviewerNotFound if the reviewer does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Reviewer, error)

	// GetByName retrieves a reviewer by its unique display name.
	// Returns ErrReviewerNotFound if the reviewer does not exist.
	GetByName(ctx context.Context, name string) (*domain.Reviewer, error)

	// GetReference resolves the reference reviewer by role lookup.
	// Returns ErrReferenceReviewerNotFound if no reviewer holds the role.
	GetReference(ctx context.Context) (*domain.Reviewer, error)

	// List returns all reviewers ordered by name.
	List(ctx context.Context) ([]*domain.Reviewer, error)

	// Delete removes a reviewer. The schema cascades the delete to the
	// reviewer's assignments. Returns ErrReviewerNotFound if the reviewer
	// does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// WithTx returns a ReviewerStore bound to the given transaction so
	// multiple operations can share one transactional boundary.
	WithTx(tx *sql.Tx) ReviewerStore
}
