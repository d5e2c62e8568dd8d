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

// Notifier is told when a reviewer's task queue runs dry and when it
// has tasks again. Implementations decide whether and how to tell
// anyone else; duplicate suppression is their concern, callers report
// every observation.
type Notifier interface {
	// QueueEmpty reports that the reviewer requested a task and none
	// was available.
	QueueEmpty(ctx context.Context, reviewerID uuid.UUID, reviewerName string)
	// QueueActive reports that the reviewer has pending tasks again.
	QueueActive(ctx context.Context, reviewerID uuid.UUID)
}

// NoopNotifier is a Notifier that does nothing.
type NoopNotifier struct{}

func (NoopNotifier) QueueEmpty(context.Context, uuid.UUID, string) {}
func (NoopNotifier) QueueActive(context.Context, uuid.UUID)       {}

// TaskService serves a reviewer's task queue: the next pending task,
// history, previews, and deletion of a reviewer's own assignments.
type TaskService struct {
	txn         store.Transactor
	reviewers   store.ReviewerStore
	assignments store.AssignmentStore
	notifier    Notifier
	logger      *slog.Logger
}

// NewTaskService creates a new TaskService with the given dependencies.
// A nil notifier is replaced with a NoopNotifier; everything else
// panics when nil.
func NewTaskService(
	txn store.Transactor,
	reviewers store.ReviewerStore,
	assignments store.AssignmentStore,
	notifier Notifier,
	log *slog.Logger,
) *TaskService {
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
	if notifier == nil {
		notifier = NoopNotifier{}
	}
	return &TaskService{
		txn:         txn,
		reviewers:   reviewers,
		assignments: assignments,
		notifier:    notifier,
		logger:      log.With(slog.String("component", "task_service")),
	}
}

// NextPendingTask returns the reviewer's oldest pending assignment
// together with its work item. An empty queue returns ErrNoPendingTasks
// and is reported to the notifier; a non-empty queue is reported as
// active so the notifier can re-arm.
func (s *TaskService) NextPendingTask(ctx context.Context, reviewerID uuid.UUID) (*store.TaskWithItem, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	reviewer, err := s.reviewers.GetByID(ctx, reviewerID)
	if err != nil {
		return nil, mapStoreError(err)
	}

	task, err := s.assignments.FirstPendingWithItem(ctx, reviewerID)
	if err != nil {
		if store.IsNotFoundError(err) {
			log.Debug("task queue empty", slog.String("reviewer_id", reviewerID.String()))
			s.notifier.QueueEmpty(ctx, reviewer.ID, reviewer.Name)
			return nil, ErrNoPendingTasks
		}
		return nil, mapStoreError(err)
	}

	s.notifier.QueueActive(ctx, reviewer.ID)
	return task, nil
}

// TaskHistory returns the reviewer's most recently reviewed
// assignments, newest first, with their work items.
func (s *TaskService) TaskHistory(ctx context.Context, reviewerID uuid.UUID, limit int) ([]*store.TaskWithItem, error) {
	if _, err := s.reviewers.GetByID(ctx, reviewerID); err != nil {
		return nil, mapStoreError(err)
	}
	tasks, err := s.assignments.HistoryWithItems(ctx, reviewerID, limit)
	if err != nil {
		return nil, mapStoreError(err)
	}
	return tasks, nil
}

// PendingPreview returns the head of the reviewer's pending queue in
// serving order, with work items.
func (s *TaskService) PendingPreview(ctx context.Context, reviewerID uuid.UUID, limit int) ([]*store.TaskWithItem, error) {
	if _, err := s.reviewers.GetByID(ctx, reviewerID); err != nil {
		return nil, mapStoreError(err)
	}
	tasks, err := s.assignments.PendingWithItems(ctx, reviewerID, limit)
	if err != nil {
		return nil, mapStoreError(err)
	}
	return tasks, nil
}

// GetTask returns one assignment with its work item. When requesterID
// is non-nil the assignment must belong to that reviewer; a foreign
// assignment is reported as not found.
func (s *TaskService) GetTask(ctx context.Context, assignmentID uuid.UUID, requesterID *uuid.UUID) (*store.TaskWithItem, error) {
	task, err := s.assignments.GetWithItem(ctx, assignmentID, requesterID)
	if err != nil {
		return nil, mapStoreError(err)
	}
	return task, nil
}

// ReviewerAssignments returns all of a reviewer's assignments with
// their work items, most recently updated first.
func (s *TaskService) ReviewerAssignments(ctx context.Context, reviewerID uuid.UUID) ([]*store.TaskWithItem, error) {
	if _, err := s.reviewers.GetByID(ctx, reviewerID); err != nil {
		return nil, mapStoreError(err)
	}
	tasks, err := s.assignments.ListWithItemsByReviewer(ctx, reviewerID)
	if err != nil {
		return nil, mapStoreError(err)
	}
	return tasks, nil
}

// DeleteAssignment removes one of the reviewer's own assignments. An
// assignment owned by another reviewer is reported as not found.
func (s *TaskService) DeleteAssignment(ctx context.Context, assignmentID, requesterID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	err := s.txn.InTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		as := s.assignments.WithTx(tx)
		assignment, err := as.GetByID(ctx, assignmentID)
		if err != nil {
			return err
		}
		if assignment.ReviewerID != requesterID {
			return store.ErrAssignmentNotFound
		}
		return as.Delete(ctx, assignmentID)
	})
	if err != nil {
		return mapStoreError(err)
	}

	log.Info("assignment deleted",
		slog.String("assignment_id", assignmentID.String()),
		slog.String("reviewer_id", requesterID.String()))
	return nil
}

// DeleteAssignmentsByStatus removes all of the reviewer's assignments
// in the given statuses and returns how many were removed.
func (s *TaskService) DeleteAssignmentsByStatus(ctx context.Context, reviewerID uuid.UUID, statuses []domain.AssignmentStatus) (int64, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if len(statuses) == 0 {
		return 0, ErrNoStatusesSelected
	}
	for _, status := range statuses {
		if !status.IsValid() {
			return 0, ErrInvalidStatus
		}
	}

	var deleted int64
	err := s.txn.InTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		rs := s.reviewers.WithTx(tx)
		as := s.assignments.WithTx(tx)

		if _, err := rs.GetByID(ctx, reviewerID); err != nil {
			return err
		}
		n, err := as.DeleteByStatuses(ctx, reviewerID, statuses)
		if err != nil {
			return err
		}
		deleted = n
		return nil
	})
	if err != nil {
		return 0, mapStoreError(err)
	}

	log.Info("assignments deleted by status",
		slog.String("reviewer_id", reviewerID.String()),
		slog.Int64("deleted", deleted))
	return deleted, nil
}
