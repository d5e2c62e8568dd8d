package service

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/google/uuid"

	"github.com/tsunayoshi21/Labeling-app/internal/domain"
	"github.com/tsunayoshi21/Labeling-app/internal/platform/logger"
	"github.com/tsunayoshi21/Labeling-app/internal/store"
)

// ReviewService applies review decisions to assignments. Any status may
// follow any status; an approval without text adopts the work item's
// initial text so that approved assignments always carry the text they
// approved.
type ReviewService struct {
	txn         store.Transactor
	workItems   store.WorkItemStore
	assignments store.AssignmentStore
	logger      *slog.Logger
}

// NewReviewService creates a new ReviewService with the given
// dependencies. Panics if any dependency is nil.
func NewReviewService(
	txn store.Transactor,
	workItems store.WorkItemStore,
	assignments store.AssignmentStore,
	log *slog.Logger,
) *ReviewService {
	if txn == nil {
		panic("transactor cannot be nil")
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
	return &ReviewService{
		txn:         txn,
		workItems:   workItems,
		assignments: assignments,
		logger:      log.With(slog.String("component", "review_service")),
	}
}

// UpdateStatus records a review decision on behalf of a reviewer. The
// assignment must belong to requesterID; an assignment owned by someone
// else is reported as not found, so a reviewer cannot probe for the
// existence of other reviewers' assignments. A nil text leaves the
// stored corrected text untouched. Returns the updated assignment.
func (s *ReviewService) UpdateStatus(
	ctx context.Context,
	assignmentID, requesterID uuid.UUID,
	status domain.AssignmentStatus,
	correctedText *string,
) (*domain.Assignment, error) {
	return s.update(ctx, assignmentID, &requesterID, status, correctedText)
}

// AdminUpdateStatus records a review decision without an ownership
// check, for administrative corrections.
func (s *ReviewService) AdminUpdateStatus(
	ctx context.Context,
	assignmentID uuid.UUID,
	status domain.AssignmentStatus,
	correctedText *string,
) (*domain.Assignment, error) {
	return s.update(ctx, assignmentID, nil, status, correctedText)
}

func (s *ReviewService) update(
	ctx context.Context,
	assignmentID uuid.UUID,
	requesterID *uuid.UUID,
	status domain.AssignmentStatus,
	correctedText *string,
) (*domain.Assignment, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if !status.IsValid() {
		return nil, ErrInvalidStatus
	}

	var updated *domain.Assignment
	err := s.txn.InTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		as := s.assignments.WithTx(tx)
		ws := s.workItems.WithTx(tx)

		assignment, err := as.GetByID(ctx, assignmentID)
		if err != nil {
			return err
		}
		if requesterID != nil && assignment.ReviewerID != *requesterID {
			return store.ErrAssignmentNotFound
		}

		if err := applyStatus(ctx, ws, assignment, status, correctedText); err != nil {
			return err
		}
		if err := as.Update(ctx, assignment); err != nil {
			return err
		}
		updated = assignment
		return nil
	})
	if err != nil {
		log.Debug("status update failed",
			slog.String("assignment_id", assignmentID.String()),
			slog.String("error", err.Error()))
		return nil, mapStoreError(err)
	}

	log.Debug("status updated",
		slog.String("assignment_id", assignmentID.String()),
		slog.String("status", string(status)))
	return updated, nil
}

// applyStatus mutates the assignment in memory for the given decision.
// An approval without text substitutes the work item's initial text
// before the status change is applied, so approved assignments always
// record the text that was approved.
func applyStatus(
	ctx context.Context,
	ws store.WorkItemStore,
	assignment *domain.Assignment,
	status domain.AssignmentStatus,
	correctedText *string,
) error {
	if status == domain.StatusApproved && textAbsent(correctedText) {
		item, err := ws.GetByID(ctx, assignment.WorkItemID)
		if err != nil {
			return err
		}
		text := item.InitialText
		correctedText = &text
	}
	return assignment.SetStatus(status, correctedText)
}

func textAbsent(text *string) bool {
	return text == nil || *text == ""
}
