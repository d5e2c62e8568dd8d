package store

import (
	"context"

	"github.com/google/uuid"
)

// StatsStore defines the read-only aggregate queries behind the statistics
// and administration surfaces. Each method is a single query; none of them
// requires a transactional variant.
type StatsStore interface {
	// ReviewerCounts returns per-status counts over one reviewer's
	// assignments.
	ReviewerCounts(ctx context.Context, reviewerID uuid.UUID) (*StatusCounts, error)

	// SystemCounts returns the system-wide totals. Assignment and task
	// counts cover non-reference reviewers only; the annotated work item
	// count considers reviewed assignments from any reviewer.
	SystemCounts(ctx context.Context) (*SystemCounts, error)

	// AgreementPairs returns, for every work item where both the reference
	// reviewer and another reviewer hold a reviewed assignment, the two
	// stored texts. When reviewerID is non-nil only that reviewer's pairs
	// are returned.
	AgreementPairs(
		ctx context.Context,
		referenceID uuid.UUID,
		reviewerID *uuid.UUID,
	) ([]*AgreementPair, error)

	// RecentActivity returns reviewers ordered by their most recent review
	// action (reviewed assignments only, assignment creation is not
	// activity), with per-status counts.
	RecentActivity(ctx context.Context, limit int) ([]*ReviewerActivity, error)

	// ReviewersWithStats returns every reviewer with assigned, completed
	// and pending counts, ordered by name.
	ReviewersWithStats(ctx context.Context) ([]*ReviewerWithStats, error)

	// WorkItemsWithStats returns every work item with per-status assignment
	// counts.
	WorkItemsWithStats(ctx context.Context) ([]*WorkItemWithStats, error)

	// ExportRows returns one row per reviewed assignment joined with the
	// work item's import sequence number and the reviewer's name, ordered
	// by sequence then name.
	ExportRows(ctx context.Context) ([]*ExportRow, error)
}
