package service

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tsunayoshi21/Labeling-app/internal/domain"
	"github.com/tsunayoshi21/Labeling-app/internal/platform/logger"
	"github.com/tsunayoshi21/Labeling-app/internal/store"
)

// TransferResult reports the outcome of an ownership transfer.
type TransferResult struct {
	Transferred int `json:"transferred"`
	Skipped     int `json:"skipped"`
	Attempted   int `json:"attempted"`
}

// TransferService moves assignments from one reviewer to another,
// preserving status, corrected text, and, for reviewed assignments, the
// review timestamp.
type TransferService struct {
	txn         store.Transactor
	reviewers   store.ReviewerStore
	assignments store.AssignmentStore
	logger      *slog.Logger
}

// NewTransferService creates a new TransferService with the given
// dependencies. Panics if any dependency is nil.
func NewTransferService(
	txn store.Transactor,
	reviewers store.ReviewerStore,
	assignments store.AssignmentStore,
	log *slog.Logger,
) *TransferService {
	if txn == nil {
		panic("transactor cannot be nil")
	}
	if reviewers == nil {
		panic("reviewer store cannot be nil")
	}
	if assignments == nil {
		panic("assignment store cannot be nil")
	}
	if log == nil {
		panic("logger cannot be nil")
	}
	return &TransferService{
		txn:         txn,
		reviewers:   reviewers,
		assignments: assignments,
		logger:      log.With(slog.String("component", "transfer_service")),
	}
}

// Transfer moves the source reviewer's assignments in the selected
// status classes to the destination reviewer. At least one of
// includePending and includeReviewed must be set, and the two reviewers
// must differ.
//
// When the destination already holds an assignment for the same work
// item the source assignment is normally skipped. The one exception:
// if the destination's copy is still pending and the source's is not,
// the source's result is merged onto the destination's copy in place,
// the source assignment is left where it is, and the merge counts as
// transferred. Pending assignments that change owner get a fresh
// timestamp; reviewed ones keep their review timestamp.
func (s *TransferService) Transfer(ctx context.Context, fromID, toID uuid.UUID, includePending, includeReviewed bool) (*TransferResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if fromID == toID {
		return nil, ErrSelfTransfer
	}
	var statuses []domain.AssignmentStatus
	if includePending {
		statuses = append(statuses, domain.StatusPending)
	}
	if includeReviewed {
		statuses = append(statuses, domain.ReviewedStatuses()...)
	}
	if len(statuses) == 0 {
		return nil, ErrNoStatusesSelected
	}

	result := &TransferResult{}
	err := s.txn.InTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		rs := s.reviewers.WithTx(tx)
		as := s.assignments.WithTx(tx)

		if _, err := rs.GetByID(ctx, fromID); err != nil {
			return err
		}
		if _, err := rs.GetByID(ctx, toID); err != nil {
			return err
		}

		assignments, err := as.ListByReviewerAndStatuses(ctx, fromID, statuses)
		if err != nil {
			return err
		}
		result.Attempted = len(assignments)

		for _, assignment := range assignments {
			existing, err := as.GetByPair(ctx, toID, assignment.WorkItemID)
			switch {
			case err == nil:
				if existing.Status == domain.StatusPending && assignment.IsReviewed() {
					if err := mergeOntoPending(ctx, as, existing, assignment); err != nil {
						return err
					}
					result.Transferred++
					continue
				}
				result.Skipped++
			case store.IsNotFoundError(err):
				if err := reassign(ctx, as, assignment, toID); err != nil {
					return err
				}
				result.Transferred++
			default:
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Error("transfer failed",
			slog.String("from", fromID.String()),
			slog.String("to", toID.String()),
			slog.String("error", err.Error()))
		return nil, mapStoreError(err)
	}

	log.Info("assignments transferred",
		slog.String("from", fromID.String()),
		slog.String("to", toID.String()),
		slog.Int("transferred", result.Transferred),
		slog.Int("skipped", result.Skipped),
		slog.Int("attempted", result.Attempted))
	return result, nil
}

// mergeOntoPending copies the source's corrected text and status onto
// the destination's pending assignment and refreshes its timestamp. The
// source assignment keeps its owner; callers count the merge as a
// transfer.
func mergeOntoPending(ctx context.Context, as store.AssignmentStore, dest, source *domain.Assignment) error {
	if err := dest.SetStatus(source.Status, source.CorrectedText); err != nil {
		return err
	}
	return as.Update(ctx, dest)
}

// reassign points the assignment at its new owner. Only pending
// assignments get a fresh timestamp; a reviewed assignment's timestamp
// records when it was reviewed, not when it changed hands.
func reassign(ctx context.Context, as store.AssignmentStore, assignment *domain.Assignment, toID uuid.UUID) error {
	assignment.ReviewerID = toID
	if !assignment.IsReviewed() {
		assignment.UpdatedAt = time.Now().UTC()
	}
	return as.Update(ctx, assignment)
}
