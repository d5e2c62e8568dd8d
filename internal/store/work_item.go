package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/tsunayoshi21/Labeling-app/internal/domain"
)

// WorkItemStore defines the interface for work item data persistence.
type WorkItemStore interface {
	// Create saves a new work item to the store.
	Create(ctx context.Context, item *domain.WorkItem) error

	// GetByID retrieves a work item by its unique ID.
	// Returns ErrWorkItemNotFound if the work item does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.WorkItem, error)

	// List returns all work items.
	List(ctx context.Context) ([]*domain.WorkItem, error)

	// RandomUntouched selects up to limit work items, in random order
	// without replacement, that have no assignment from any non-reference
	// reviewer and no pending assignment from the reference reviewer. Items
	// the reference already finalized, or that nobody has touched, are
	// eligible.
	RandomUntouched(ctx context.Context, referenceID uuid.UUID, limit int) ([]*domain.WorkItem, error)

	// RandomFinalizedByReference selects up to limit work items, in random
	// order without replacement, that the reference reviewer has finalized
	// (status other than pending) and that the given reviewer does not
	// already hold.
	RandomFinalizedByReference(
		ctx context.Context,
		referenceID uuid.UUID,
		reviewerID uuid.UUID,
		limit int,
	) ([]*domain.WorkItem, error)

	// WithTx returns a WorkItemStore bound to the given transaction.
	WithTx(tx *sql.Tx) WorkItemStore
}
