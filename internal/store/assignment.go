package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/tsunayoshi21/Labeling-app/internal/domain"
)

// AssignmentStore defines the interface for assignment data persistence.
// All methods return value snapshots; the store never hands out references
// that stay live across transactions.
type AssignmentStore interface {
	// Create saves a new assignment. Returns ErrDuplicateAssignment if an
	// assignment for the same (reviewer, work item) pair already exists,
	// whether found by the pre-insert check or reported by the unique
	// constraint when a concurrent insert wins the race.
	Create(ctx context.Context, assignment *domain.Assignment) error

	// GetByID retrieves an assignment by its unique ID.
	// Returns ErrAssignmentNotFound if the assignment does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Assignment, error)

	// GetByPair retrieves the assignment binding the given reviewer to the
	// given work item. Returns ErrAssignmentNotFound when no such binding
	// exists.
	GetByPair(ctx context.Context, reviewerID, workItemID uuid.UUID) (*domain.Assignment, error)

	// ExistsForPair reports whether an assignment exists for the pair.
	// Insert paths call this inside the inserting transaction to re-check
	// the uniqueness invariant under concurrency.
	ExistsForPair(ctx context.Context, reviewerID, workItemID uuid.UUID) (bool, error)

	// Update persists the assignment's owner, status, corrected text and
	// updated_at. Returns ErrAssignmentNotFound if the assignment does not
	// exist.
	Update(ctx context.Context, assignment *domain.Assignment) error

	// Delete removes an assignment by ID.
	// Returns ErrAssignmentNotFound if the assignment does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// DeleteByStatuses removes all of a reviewer's assignments whose status
	// is in the given set, returning the number deleted.
	DeleteByStatuses(
		ctx context.Context,
		reviewerID uuid.UUID,
		statuses []domain.AssignmentStatus,
	) (int64, error)

	// ListByReviewerAndStatuses returns the reviewer's assignments whose
	// status is in the given set, oldest first.
	ListByReviewerAndStatuses(
		ctx context.Context,
		reviewerID uuid.UUID,
		statuses []domain.AssignmentStatus,
	) ([]*domain.Assignment, error)

	// ListByWorkItem returns all assignments for a work item.
	ListByWorkItem(ctx context.Context, workItemID uuid.UUID) ([]*domain.Assignment, error)

	// FirstPendingWithItem returns the reviewer's next pending assignment
	// joined with its work item. Returns ErrAssignmentNotFound when the
	// reviewer has no pending assignments.
	FirstPendingWithItem(ctx context.Context, reviewerID uuid.UUID) (*TaskWithItem, error)

	// HistoryWithItems returns the reviewer's reviewed assignments joined
	// with their work items, most recently updated first.
	HistoryWithItems(ctx context.Context, reviewerID uuid.UUID, limit int) ([]*TaskWithItem, error)

	// PendingWithItems returns up to limit of the reviewer's pending
	// assignments joined with their work items.
	PendingWithItems(ctx context.Context, reviewerID uuid.UUID, limit int) ([]*TaskWithItem, error)

	// GetWithItem returns one assignment joined with its work item. When
	// reviewerID is non-nil the assignment must belong to that reviewer;
	// otherwise ErrAssignmentNotFound is returned.
	GetWithItem(
		ctx context.Context,
		assignmentID uuid.UUID,
		reviewerID *uuid.UUID,
	) (*TaskWithItem, error)

	// ListWithItemsByReviewer returns all of a reviewer's assignments joined
	// with their work items, most recently updated first.
	ListWithItemsByReviewer(ctx context.Context, reviewerID uuid.UUID) ([]*TaskWithItem, error)

	// FindDiscrepancies returns, for every work item, the pairs of reviewed
	// assignments where the given reference reviewer and another reviewer
	// stored different text. Comparison is on the raw stored text,
	// case-sensitive, with NULL distinct from every string. When reviewerIDs
	// is non-empty only those reviewers are considered. Results are ordered
	// by the reviewer assignment's updated_at, newest first.
	FindDiscrepancies(
		ctx context.Context,
		referenceID uuid.UUID,
		reviewerIDs []uuid.UUID,
	) ([]*Discrepancy, error)

	// WithTx returns an AssignmentStore bound to the given transaction.
	WithTx(tx *sql.Tx) AssignmentStore
}
