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

// QualityService compares reviewer output against the reference
// reviewer's output on shared work items, and consolidates one
// assignment's result onto another.
type QualityService struct {
	txn         store.Transactor
	reviewers   store.ReviewerStore
	workItems   store.WorkItemStore
	assignments store.AssignmentStore
	logger      *slog.Logger
}

// NewQualityService creates a new QualityService with the given
// dependencies. Panics if any dependency is nil.
func NewQualityService(
	txn store.Transactor,
	reviewers store.ReviewerStore,
	workItems store.WorkItemStore,
	assignments store.AssignmentStore,
	log *slog.Logger,
) *QualityService {
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
	return &QualityService{
		txn:         txn,
		reviewers:   reviewers,
		workItems:   workItems,
		assignments: assignments,
		logger:      log.With(slog.String("component", "quality_service")),
	}
}

// FindDiscrepancies returns every work item where a reviewer's result
// disagrees with the reference reviewer's result, considering only pairs
// where both sides have left the pending state. Two results agree when
// their corrected texts are equal, treating two NULLs as equal and a
// NULL against any text as a disagreement. An empty reviewerIDs slice
// compares all non-reference reviewers.
func (s *QualityService) FindDiscrepancies(ctx context.Context, reviewerIDs []uuid.UUID) ([]*store.Discrepancy, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	reference, err := s.reviewers.GetReference(ctx)
	if err != nil {
		return nil, mapStoreError(err)
	}

	discrepancies, err := s.assignments.FindDiscrepancies(ctx, reference.ID, reviewerIDs)
	if err != nil {
		log.Error("discrepancy query failed", slog.String("error", err.Error()))
		return nil, mapStoreError(err)
	}

	log.Debug("discrepancies found",
		slog.Int("count", len(discrepancies)),
		slog.Int("reviewer_filter", len(reviewerIDs)))
	return discrepancies, nil
}

// Consolidate copies the source assignment's effective text and status
// onto the target assignment. Both assignments must reference the same
// work item. The copy goes through the same decision path as a regular
// review, so an approved source with no stored text still resolves to
// the work item's initial text on the target.
func (s *QualityService) Consolidate(ctx context.Context, sourceID, targetID uuid.UUID) (*domain.Assignment, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var updated *domain.Assignment
	err := s.txn.InTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		as := s.assignments.WithTx(tx)
		ws := s.workItems.WithTx(tx)

		source, err := as.GetByID(ctx, sourceID)
		if err != nil {
			return err
		}
		target, err := as.GetByID(ctx, targetID)
		if err != nil {
			return err
		}
		if source.WorkItemID != target.WorkItemID {
			return ErrWorkItemMismatch
		}

		text := source.CorrectedText
		if textAbsent(text) {
			item, err := ws.GetByID(ctx, source.WorkItemID)
			if err != nil {
				return err
			}
			effective := item.InitialText
			text = &effective
		}

		if err := applyStatus(ctx, ws, target, source.Status, text); err != nil {
			return err
		}
		if err := as.Update(ctx, target); err != nil {
			return err
		}
		updated = target
		return nil
	})
	if err != nil {
		log.Debug("consolidation failed",
			slog.String("source_id", sourceID.String()),
			slog.String("target_id", targetID.String()),
			slog.String("error", err.Error()))
		return nil, mapStoreError(err)
	}

	log.Info("assignment consolidated",
		slog.String("source_id", sourceID.String()),
		slog.String("target_id", targetID.String()),
		slog.String("status", string(updated.Status)))
	return updated, nil
}
