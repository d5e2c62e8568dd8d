package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/tsunayoshi21/Labeling-app/internal/domain"
	"github.com/tsunayoshi21/Labeling-app/internal/platform/logger"
	"github.com/tsunayoshi21/Labeling-app/internal/store"
)

// PostgresAssignmentStore implements the store.AssignmentStore interface
// using a PostgreSQL database as the storage backend.
type PostgresAssignmentStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresAssignmentStore creates a new PostgreSQL implementation of the
// AssignmentStore interface. If logger is nil, a default logger will be used.
func NewPostgresAssignmentStore(db store.DBTX, logger *slog.Logger) *PostgresAssignmentStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresAssignmentStore{
		db:     db,
		logger: logger.With(slog.String("component", "assignment_store")),
	}
}

// Ensure PostgresAssignmentStore implements store.AssignmentStore interface
var _ store.AssignmentStore = (*PostgresAssignmentStore)(nil)

// WithTx implements store.AssignmentStore.WithTx
func (s *PostgresAssignmentStore) WithTx(tx *sql.Tx) store.AssignmentStore {
	return &PostgresAssignmentStore{db: tx, logger: s.logger}
}

// Create implements store.AssignmentStore.Create
// The UNIQUE (reviewer_id, work_item_id) constraint backs the uniqueness
// invariant: a violation means a concurrent insert won the race and is
// reported as store.ErrDuplicateAssignment for the caller to skip.
func (s *PostgresAssignmentStore) Create(ctx context.Context, assignment *domain.Assignment) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := assignment.Validate(); err != nil {
		log.Warn("assignment validation failed during create",
			slog.String("error", err.Error()),
			slog.String("assignment_id", assignment.ID.String()))
		return err
	}

	query := `
		INSERT INTO assignments (id, work_item_id, reviewer_id, corrected_text, status, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		assignment.ID,
		assignment.WorkItemID,
		assignment.ReviewerID,
		assignment.CorrectedText,
		assignment.Status,
		assignment.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			log.Debug("duplicate assignment insert skipped",
				slog.String("reviewer_id", assignment.ReviewerID.String()),
				slog.String("work_item_id", assignment.WorkItemID.String()))
			return store.ErrDuplicateAssignment
		}

		if isForeignKeyViolation(err) {
			log.Warn("foreign key violation during assignment creation",
				slog.String("error", err.Error()),
				slog.String("reviewer_id", assignment.ReviewerID.String()),
				slog.String("work_item_id", assignment.WorkItemID.String()))
			return fmt.Errorf("%w: reviewer or work item missing", store.ErrInvalidEntity)
		}

		log.Error("failed to create assignment",
			slog.String("error", err.Error()),
			slog.String("assignment_id", assignment.ID.String()))
		return store.NewStoreError("assignment", "create", "insert failed", err)
	}

	return nil
}

const assignmentColumns = "id, work_item_id, reviewer_id, corrected_text, status, updated_at"

// GetByID implements store.AssignmentStore.GetByID
func (s *PostgresAssignmentStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Assignment, error) {
	query := fmt.Sprintf("SELECT %s FROM assignments WHERE id = $1", assignmentColumns)
	return s.queryOne(ctx, query, id)
}

// GetByPair implements store.AssignmentStore.GetByPair
func (s *PostgresAssignmentStore) GetByPair(
	ctx context.Context,
	reviewerID, workItemID uuid.UUID,
) (*domain.Assignment, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM assignments WHERE reviewer_id = $1 AND work_item_id = $2",
		assignmentColumns,
	)
	return s.queryOne(ctx, query, reviewerID, workItemID)
}

// ExistsForPair implements store.AssignmentStore.ExistsForPair
func (s *PostgresAssignmentStore) ExistsForPair(
	ctx context.Context,
	reviewerID, workItemID uuid.UUID,
) (bool, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT EXISTS (
			SELECT 1 FROM assignments
			WHERE reviewer_id = $1 AND work_item_id = $2
		)
	`

	var exists bool
	err := s.db.QueryRowContext(ctx, query, reviewerID, workItemID).Scan(&exists)
	if err != nil {
		log.Error("failed to check assignment existence",
			slog.String("error", err.Error()),
			slog.String("reviewer_id", reviewerID.String()),
			slog.String("work_item_id", workItemID.String()))
		return false, store.NewStoreError("assignment", "exists", "query failed", err)
	}

	return exists, nil
}

// Update implements store.AssignmentStore.Update
// It persists owner, status, corrected text and updated_at in one statement.
func (s *PostgresAssignmentStore) Update(ctx context.Context, assignment *domain.Assignment) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := assignment.Validate(); err != nil {
		log.Warn("assignment validation failed during update",
			slog.String("error", err.Error()),
			slog.String("assignment_id", assignment.ID.String()))
		return err
	}

	query := `
		UPDATE assignments
		SET reviewer_id = $1, corrected_text = $2, status = $3, updated_at = $4
		WHERE id = $5
	`

	result, err := s.db.ExecContext(
		ctx,
		query,
		assignment.ReviewerID,
		assignment.CorrectedText,
		assignment.Status,
		assignment.UpdatedAt,
		assignment.ID,
	)

	if err != nil {
		if isUniqueViolation(err) {
			log.Debug("assignment update would duplicate a pair",
				slog.String("assignment_id", assignment.ID.String()),
				slog.String("reviewer_id", assignment.ReviewerID.String()))
			return store.ErrDuplicateAssignment
		}

		log.Error("failed to update assignment",
			slog.String("error", err.Error()),
			slog.String("assignment_id", assignment.ID.String()))
		return store.NewStoreError("assignment", "update", "update failed", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		log.Error("failed to get rows affected",
			slog.String("error", err.Error()),
			slog.String("assignment_id", assignment.ID.String()))
		return store.NewStoreError("assignment", "update", "rows affected unavailable", err)
	}

	if rowsAffected == 0 {
		log.Debug("assignment not found for update",
			slog.String("assignment_id", assignment.ID.String()))
		return store.ErrAssignmentNotFound
	}

	return nil
}

// Delete implements store.AssignmentStore.Delete
func (s *PostgresAssignmentStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, "DELETE FROM assignments WHERE id = $1", id)
	if err != nil {
		log.Error("failed to delete assignment",
			slog.String("error", err.Error()),
			slog.String("assignment_id", id.String()))
		return store.NewStoreError("assignment", "delete", "delete failed", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return store.NewStoreError("assignment", "delete", "rows affected unavailable", err)
	}

	if rowsAffected == 0 {
		log.Debug("assignment not found for delete", slog.String("assignment_id", id.String()))
		return store.ErrAssignmentNotFound
	}

	log.Info("assignment deleted", slog.String("assignment_id", id.String()))
	return nil
}

// DeleteByStatuses implements store.AssignmentStore.DeleteByStatuses
func (s *PostgresAssignmentStore) DeleteByStatuses(
	ctx context.Context,
	reviewerID uuid.UUID,
	statuses []domain.AssignmentStatus,
) (int64, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if len(statuses) == 0 {
		return 0, nil
	}

	placeholders, args := statusArgs(2, statuses)
	query := fmt.Sprintf(
		"DELETE FROM assignments WHERE reviewer_id = $1 AND status IN (%s)",
		placeholders,
	)

	result, err := s.db.ExecContext(ctx, query, append([]any{reviewerID}, args...)...)
	if err != nil {
		log.Error("failed to delete assignments by status",
			slog.String("error", err.Error()),
			slog.String("reviewer_id", reviewerID.String()))
		return 0, store.NewStoreError("assignment", "delete_by_status", "delete failed", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, store.NewStoreError("assignment", "delete_by_status", "rows affected unavailable", err)
	}

	log.Info("assignments deleted by status",
		slog.String("reviewer_id", reviewerID.String()),
		slog.Int64("deleted", deleted))
	return deleted, nil
}

// ListByReviewerAndStatuses implements store.AssignmentStore.ListByReviewerAndStatuses
func (s *PostgresAssignmentStore) ListByReviewerAndStatuses(
	ctx context.Context,
	reviewerID uuid.UUID,
	statuses []domain.AssignmentStatus,
) ([]*domain.Assignment, error) {
	if len(statuses) == 0 {
		return []*domain.Assignment{}, nil
	}

	placeholders, args := statusArgs(2, statuses)
	query := fmt.Sprintf(
		"SELECT %s FROM assignments WHERE reviewer_id = $1 AND status IN (%s) ORDER BY updated_at",
		assignmentColumns,
		placeholders,
	)

	return s.queryMany(ctx, query, append([]any{reviewerID}, args...)...)
}

// ListByWorkItem implements store.AssignmentStore.ListByWorkItem
func (s *PostgresAssignmentStore) ListByWorkItem(
	ctx context.Context,
	workItemID uuid.UUID,
) ([]*domain.Assignment, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM assignments WHERE work_item_id = $1 ORDER BY updated_at",
		assignmentColumns,
	)
	return s.queryMany(ctx, query, workItemID)
}

const taskWithItemColumns = `
	a.id, a.work_item_id, a.reviewer_id, a.corrected_text, a.status, a.updated_at,
	w.id, w.content_ref, w.initial_text, w.created_at
`

// FirstPendingWithItem implements store.AssignmentStore.FirstPendingWithItem
func (s *PostgresAssignmentStore) FirstPendingWithItem(
	ctx context.Context,
	reviewerID uuid.UUID,
) (*store.TaskWithItem, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM assignments a
		JOIN work_items w ON w.id = a.work_item_id
		WHERE a.reviewer_id = $1 AND a.status = 'pending'
		ORDER BY a.updated_at
		LIMIT 1
	`, taskWithItemColumns)

	tasks, err := s.queryTasks(ctx, query, reviewerID)
	if err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		return nil, store.ErrAssignmentNotFound
	}
	return tasks[0], nil
}

// HistoryWithItems implements store.AssignmentStore.HistoryWithItems
func (s *PostgresAssignmentStore) HistoryWithItems(
	ctx context.Context,
	reviewerID uuid.UUID,
	limit int,
) ([]*store.TaskWithItem, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM assignments a
		JOIN work_items w ON w.id = a.work_item_id
		WHERE a.reviewer_id = $1 AND a.status <> 'pending'
		ORDER BY a.updated_at DESC
		LIMIT $2
	`, taskWithItemColumns)

	return s.queryTasks(ctx, query, reviewerID, limit)
}

// PendingWithItems implements store.AssignmentStore.PendingWithItems
func (s *PostgresAssignmentStore) PendingWithItems(
	ctx context.Context,
	reviewerID uuid.UUID,
	limit int,
) ([]*store.TaskWithItem, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM assignments a
		JOIN work_items w ON w.id = a.work_item_id
		WHERE a.reviewer_id = $1 AND a.status = 'pending'
		ORDER BY a.updated_at
		LIMIT $2
	`, taskWithItemColumns)

	return s.queryTasks(ctx, query, reviewerID, limit)
}

// GetWithItem implements store.AssignmentStore.GetWithItem
func (s *PostgresAssignmentStore) GetWithItem(
	ctx context.Context,
	assignmentID uuid.UUID,
	reviewerID *uuid.UUID,
) (*store.TaskWithItem, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM assignments a
		JOIN work_items w ON w.id = a.work_item_id
		WHERE a.id = $1
	`, taskWithItemColumns)
	args := []any{assignmentID}

	if reviewerID != nil {
		query += " AND a.reviewer_id = $2"
		args = append(args, *reviewerID)
	}

	tasks, err := s.queryTasks(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		return nil, store.ErrAssignmentNotFound
	}
	return tasks[0], nil
}

// ListWithItemsByReviewer implements store.AssignmentStore.ListWithItemsByReviewer
func (s *PostgresAssignmentStore) ListWithItemsByReviewer(
	ctx context.Context,
	reviewerID uuid.UUID,
) ([]*store.TaskWithItem, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM assignments a
		JOIN work_items w ON w.id = a.work_item_id
		WHERE a.reviewer_id = $1
		ORDER BY a.updated_at DESC
	`, taskWithItemColumns)

	return s.queryTasks(ctx, query, reviewerID)
}

// FindDiscrepancies implements store.AssignmentStore.FindDiscrepancies
// The self-join pairs every reviewed non-reference assignment with the
// reference reviewer's reviewed assignment for the same work item and keeps
// the pairs whose stored texts differ, treating NULL as distinct from every
// string including the empty string.
func (s *PostgresAssignmentStore) FindDiscrepancies(
	ctx context.Context,
	referenceID uuid.UUID,
	reviewerIDs []uuid.UUID,
) ([]*store.Discrepancy, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT
			w.id, w.content_ref, w.initial_text,
			u.id, u.name, a.id, a.corrected_text, a.status, a.updated_at,
			r.id, r.corrected_text, r.status, r.updated_at
		FROM assignments a
		JOIN reviewers u ON u.id = a.reviewer_id
		JOIN work_items w ON w.id = a.work_item_id
		JOIN assignments r
			ON r.work_item_id = a.work_item_id
			AND r.reviewer_id = $1
			AND r.status <> 'pending'
		WHERE a.reviewer_id <> $1
		  AND a.status <> 'pending'
		  AND (
			(a.corrected_text IS NULL AND r.corrected_text IS NOT NULL)
			OR (a.corrected_text IS NOT NULL AND r.corrected_text IS NULL)
			OR a.corrected_text <> r.corrected_text
		  )
	`
	args := []any{referenceID}

	if len(reviewerIDs) > 0 {
		placeholders := make([]string, len(reviewerIDs))
		for i, id := range reviewerIDs {
			placeholders[i] = fmt.Sprintf("$%d", len(args)+1)
			args = append(args, id)
		}
		query += fmt.Sprintf(" AND a.reviewer_id IN (%s)", strings.Join(placeholders, ", "))
	}

	query += " ORDER BY a.updated_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query discrepancies",
			slog.String("error", err.Error()),
			slog.String("reference_id", referenceID.String()))
		return nil, store.NewStoreError("assignment", "find_discrepancies", "query failed", err)
	}
	defer closeRows(rows, log)

	discrepancies := []*store.Discrepancy{}
	for rows.Next() {
		var d store.Discrepancy
		var reviewerStatus, referenceStatus string

		err := rows.Scan(
			&d.WorkItemID,
			&d.ContentRef,
			&d.InitialText,
			&d.ReviewerID,
			&d.ReviewerName,
			&d.AssignmentID,
			&d.ReviewerText,
			&reviewerStatus,
			&d.ReviewerUpdatedAt,
			&d.ReferenceAssignmentID,
			&d.ReferenceText,
			&referenceStatus,
			&d.ReferenceUpdatedAt,
		)
		if err != nil {
			log.Error("failed to scan discrepancy row", slog.String("error", err.Error()))
			return nil, store.NewStoreError("assignment", "find_discrepancies", "scan failed", err)
		}

		d.ReviewerStatus = domain.AssignmentStatus(reviewerStatus)
		d.ReferenceStatus = domain.AssignmentStatus(referenceStatus)
		discrepancies = append(discrepancies, &d)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows", slog.String("error", err.Error()))
		return nil, store.NewStoreError("assignment", "find_discrepancies", "row iteration failed", err)
	}

	log.Debug("discrepancies found", slog.Int("count", len(discrepancies)))
	return discrepancies, nil
}

// queryOne runs a single-assignment query.
func (s *PostgresAssignmentStore) queryOne(
	ctx context.Context,
	query string,
	args ...any,
) (*domain.Assignment, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var assignment domain.Assignment
	var status string

	err := s.db.QueryRowContext(ctx, query, args...).Scan(
		&assignment.ID,
		&assignment.WorkItemID,
		&assignment.ReviewerID,
		&assignment.CorrectedText,
		&status,
		&assignment.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrAssignmentNotFound
		}
		log.Error("failed to get assignment", slog.String("error", err.Error()))
		return nil, store.NewStoreError("assignment", "get", "query failed", err)
	}

	assignment.Status = domain.AssignmentStatus(status)
	return &assignment, nil
}

// queryMany runs a multi-assignment query.
func (s *PostgresAssignmentStore) queryMany(
	ctx context.Context,
	query string,
	args ...any,
) ([]*domain.Assignment, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query assignments", slog.String("error", err.Error()))
		return nil, store.NewStoreError("assignment", "list", "query failed", err)
	}
	defer closeRows(rows, log)

	assignments := []*domain.Assignment{}
	for rows.Next() {
		var assignment domain.Assignment
		var status string

		err := rows.Scan(
			&assignment.ID,
			&assignment.WorkItemID,
			&assignment.ReviewerID,
			&assignment.CorrectedText,
			&status,
			&assignment.UpdatedAt,
		)
		if err != nil {
			log.Error("failed to scan assignment row", slog.String("error", err.Error()))
			return nil, store.NewStoreError("assignment", "list", "scan failed", err)
		}

		assignment.Status = domain.AssignmentStatus(status)
		assignments = append(assignments, &assignment)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows", slog.String("error", err.Error()))
		return nil, store.NewStoreError("assignment", "list", "row iteration failed", err)
	}

	return assignments, nil
}

// queryTasks runs an assignment-with-work-item join query.
func (s *PostgresAssignmentStore) queryTasks(
	ctx context.Context,
	query string,
	args ...any,
) ([]*store.TaskWithItem, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query tasks", slog.String("error", err.Error()))
		return nil, store.NewStoreError("assignment", "list", "query failed", err)
	}
	defer closeRows(rows, log)

	tasks := []*store.TaskWithItem{}
	for rows.Next() {
		var task store.TaskWithItem
		var status string

		err := rows.Scan(
			&task.Assignment.ID,
			&task.Assignment.WorkItemID,
			&task.Assignment.ReviewerID,
			&task.Assignment.CorrectedText,
			&status,
			&task.Assignment.UpdatedAt,
			&task.WorkItem.ID,
			&task.WorkItem.ContentRef,
			&task.WorkItem.InitialText,
			&task.WorkItem.CreatedAt,
		)
		if err != nil {
			log.Error("failed to scan task row", slog.String("error", err.Error()))
			return nil, store.NewStoreError("assignment", "list", "scan failed", err)
		}

		task.Assignment.Status = domain.AssignmentStatus(status)
		tasks = append(tasks, &task)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows", slog.String("error", err.Error()))
		return nil, store.NewStoreError("assignment", "list", "row iteration failed", err)
	}

	return tasks, nil
}

// statusArgs builds an IN-list of placeholders starting at the given
// positional index, plus the matching argument slice.
func statusArgs(start int, statuses []domain.AssignmentStatus) (string, []any) {
	placeholders := make([]string, len(statuses))
	args := make([]any, len(statuses))
	for i, status := range statuses {
		placeholders[i] = fmt.Sprintf("$%d", start+i)
		args[i] = string(status)
	}
	return strings.Join(placeholders, ", "), args
}
