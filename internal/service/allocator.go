package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/tsunayoshi21/Labeling-app/internal/domain"
	"github.com/tsunayoshi21/Labeling-app/internal/platform/logger"
	"github.com/tsunayoshi21/Labeling-app/internal/store"
)

// AllocatorService creates assignments, either for an explicit set of
// reviewers and work items or by randomly sampling eligible work items
// for a single reviewer.
type AllocatorService struct {
	txn         store.Transactor
	reviewers   store.ReviewerStore
	workItems   store.WorkItemStore
	assignments store.AssignmentStore
	logger      *slog.Logger
}

// NewAllocatorService creates a new AllocatorService with the given
// dependencies. Panics if any dependency is nil.
func NewAllocatorService(
	txn store.Transactor,
	reviewers store.ReviewerStore,
	workItems store.WorkItemStore,
	assignments store.AssignmentStore,
	log *slog.Logger,
) *AllocatorService {
	if txn == nil {
		panic("transactor cannot be nil")
	}
	if reviewers == nil {
		panic("reviewer store cannot be nil")
	}
	if workItems == nil {
		panic("work item store cannot be nil")
	}
	if assignments == nil {
		panic("assignment store cannot be nil")
	}
	if log == nil {
		panic("logger cannot be nil")
	}
	return &AllocatorService{
		txn:         txn,
		reviewers:   reviewers,
		workItems:   workItems,
		assignments: assignments,
		logger:      log.With(slog.String("component", "allocator_service")),
	}
}

// AssignExplicit creates a pending assignment for every (reviewer, work
// item) pair in the cross product of the two ID lists, skipping pairs
// that already have an assignment. It returns the number of assignments
// actually created. The whole batch runs in a single transaction; a
// concurrent insert of the same pair is treated as an existing pair, not
// an error.
func (s *AllocatorService) AssignExplicit(ctx context.Context, reviewerIDs, workItemIDs []uuid.UUID) (int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	created := 0
	err := s.txn.InTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		as := s.assignments.WithTx(tx)
		for _, reviewerID := range reviewerIDs {
			for _, workItemID := range workItemIDs {
				ok, err := createIfAbsent(ctx, as, reviewerID, workItemID)
				if err != nil {
					return err
				}
				if ok {
					created++
				}
			}
		}
		return nil
	})
	if err != nil {
		log.Error("explicit assignment failed", slog.String("error", err.Error()))
		return 0, mapStoreError(err)
	}

	log.Debug("explicit assignment complete",
		slog.Int("reviewers", len(reviewerIDs)),
		slog.Int("work_items", len(workItemIDs)),
		slog.Int("created", created))
	return created, nil
}

// AssignRandom assigns up to count randomly sampled work items to the
// given reviewer as pending assignments. With prioritizeUnannotated set,
// only work items untouched by any non-reference reviewer (and not held
// pending by the reference) are eligible; otherwise only work items the
// reference reviewer has already finalized and the reviewer does not yet
// hold are eligible. Fewer than count eligible items is not an error;
// the returned count reflects what was actually created.
func (s *AllocatorService) AssignRandom(ctx context.Context, reviewerID uuid.UUID, count int, prioritizeUnannotated bool) (int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if count <= 0 {
		return 0, ErrInvalidCount
	}

	created := 0
	err := s.txn.InTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		rs := s.reviewers.WithTx(tx)
		ws := s.workItems.WithTx(tx)
		as := s.assignments.WithTx(tx)

		if _, err := rs.GetByID(ctx, reviewerID); err != nil {
			return err
		}
		reference, err := rs.GetReference(ctx)
		if err != nil {
			return err
		}

		var candidates []*domain.WorkItem
		if prioritizeUnannotated {
			candidates, err = ws.RandomUntouched(ctx, reference.ID, count)
		} else {
			candidates, err = ws.RandomFinalizedByReference(ctx, reference.ID, reviewerID, count)
		}
		if err != nil {
			return err
		}

		for _, item := range candidates {
			ok, err := createIfAbsent(ctx, as, reviewerID, item.ID)
			if err != nil {
				return err
			}
			if ok {
				created++
			}
		}
		return nil
	})
	if err != nil {
		log.Error("random assignment failed",
			slog.String("reviewer_id", reviewerID.String()),
			slog.String("error", err.Error()))
		return 0, mapStoreError(err)
	}

	log.Debug("random assignment complete",
		slog.String("reviewer_id", reviewerID.String()),
		slog.Int("requested", count),
		slog.Int("created", created),
		slog.Bool("prioritize_unannotated", prioritizeUnannotated))
	return created, nil
}

// createIfAbsent inserts a pending assignment for the pair unless one
// already exists. A unique violation from a concurrent insert counts as
// an existing pair. Returns true when a row was created.
func createIfAbsent(ctx context.Context, as store.AssignmentStore, reviewerID, workItemID uuid.UUID) (bool, error) {
	exists, err := as.ExistsForPair(ctx, reviewerID, workItemID)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	assignment, err := domain.NewAssignment(reviewerID, workItemID)
	if err != nil {
		return false, err
	}
	if err := as.Create(ctx, assignment); err != nil {
		if errors.Is(err, store.ErrDuplicateAssignment) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// mapStoreError translates store layer sentinel errors into the service
// layer's vocabulary, leaving everything else untouched.
func mapStoreError(err error) error {
	switch {
	case errors.Is(err, store.ErrReferenceReviewerNotFound):
		return ErrReferenceNotFound
	case errors.Is(err, store.ErrReviewerNotFound):
		return ErrReviewerNotFound
	case errors.Is(err, store.ErrWorkItemNotFound):
		return ErrWorkItemNotFound
	case errors.Is(err, store.ErrAssignmentNotFound):
		return ErrAssignmentNotFound
	case errors.Is(err, store.ErrReviewerNameExists):
		return ErrReviewerNameTaken
	default:
		return err
	}
}
