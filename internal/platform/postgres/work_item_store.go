package postgres

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

// PostgresWorkItemStore implements the store.WorkItemStore interface
// using a PostgreSQL database as the storage backend.
type PostgresWorkItemStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresWorkItemStore creates a new PostgreSQL implementation of the
// WorkItemStore interface. If logger is nil, a default logger will be used.
func NewPostgresWorkItemStore(db store.DBTX, logger *slog.Logger) *PostgresWorkItemStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresWorkItemStore{
		db:     db,
		logger: logger.With(slog.String("component", "work_item_store")),
	}
}

// Ensure PostgresWorkItemStore implements store.WorkItemStore interface
var _ store.WorkItemStore = (*PostgresWorkItemStore)(nil)

// WithTx implements store.WorkItemStore.WithTx
func (s *PostgresWorkItemStore) WithTx(tx *sql.Tx) store.WorkItemStore {
	return &PostgresWorkItemStore{db: tx, logger: s.logger}
}

// Create implements store.WorkItemStore.Create
func (s *PostgresWorkItemStore) Create(ctx context.Context, item *domain.WorkItem) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := item.Validate(); err != nil {
		log.Warn("work item validation failed during create",
			slog.String("error", err.Error()),
			slog.String("work_item_id", item.ID.String()))
		return err
	}

	query := `
		INSERT INTO work_items (id, content_ref, initial_text, created_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		item.ID,
		item.ContentRef,
		item.InitialText,
		item.CreatedAt,
	)

	if err != nil {
		log.Error("failed to create work item",
			slog.String("error", err.Error()),
			slog.String("work_item_id", item.ID.String()))
		return store.NewStoreError("work_item", "create", "insert failed", err)
	}

	log.Info("work item created",
		slog.String("work_item_id", item.ID.String()),
		slog.String("content_ref", item.ContentRef))
	return nil
}

// GetByID implements store.WorkItemStore.GetByID
func (s *PostgresWorkItemStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.WorkItem, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, content_ref, initial_text, created_at
		FROM work_items
		WHERE id = $1
	`

	var item domain.WorkItem
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&item.ID,
		&item.ContentRef,
		&item.InitialText,
		&item.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("work item not found", slog.String("work_item_id", id.String()))
			return nil, store.ErrWorkItemNotFound
		}
		log.Error("failed to get work item by ID",
			slog.String("error", err.Error()),
			slog.String("work_item_id", id.String()))
		return nil, store.NewStoreError("work_item", "get", "query failed", err)
	}

	return &item, nil
}

// List implements store.WorkItemStore.List
func (s *PostgresWorkItemStore) List(ctx context.Context) ([]*domain.WorkItem, error) {
	query := `
		SELECT id, content_ref, initial_text, created_at
		FROM work_items
		ORDER BY seq
	`
	return s.queryItems(ctx, query)
}

// RandomUntouched implements store.WorkItemStore.RandomUntouched
// A work item is a candidate when no non-reference reviewer holds an
// assignment for it in any status and the reference reviewer holds no
// pending assignment for it. Items the reference already finalized, or that
// nobody has touched, are eligible.
func (s *PostgresWorkItemStore) RandomUntouched(
	ctx context.Context,
	referenceID uuid.UUID,
	limit int,
) ([]*domain.WorkItem, error) {
	query := `
		SELECT w.id, w.content_ref, w.initial_text, w.created_at
		FROM work_items w
		WHERE NOT EXISTS (
			SELECT 1 FROM assignments a
			WHERE a.work_item_id = w.id
			  AND (
				a.reviewer_id <> $1
				OR (a.reviewer_id = $1 AND a.status = 'pending')
			  )
		)
		ORDER BY random()
		LIMIT $2
	`
	return s.queryItems(ctx, query, referenceID, limit)
}

// RandomFinalizedByReference implements store.WorkItemStore.RandomFinalizedByReference
// Candidates are work items the reference reviewer finalized that the
// target reviewer does not already hold.
func (s *PostgresWorkItemStore) RandomFinalizedByReference(
	ctx context.Context,
	referenceID uuid.UUID,
	reviewerID uuid.UUID,
	limit int,
) ([]*domain.WorkItem, error) {
	query := `
		SELECT w.id, w.content_ref, w.initial_text, w.created_at
		FROM work_items w
		WHERE EXISTS (
			SELECT 1 FROM assignments a
			WHERE a.work_item_id = w.id
			  AND a.reviewer_id = $1
			  AND a.status <> 'pending'
		)
		AND NOT EXISTS (
			SELECT 1 FROM assignments a
			WHERE a.work_item_id = w.id
			  AND a.reviewer_id = $2
		)
		ORDER BY random()
		LIMIT $3
	`
	return s.queryItems(ctx, query, referenceID, reviewerID, limit)
}

// queryItems runs a work item query and scans the result rows.
func (s *PostgresWorkItemStore) queryItems(
	ctx context.Context,
	query string,
	args ...any,
) ([]*domain.WorkItem, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query work items", slog.String("error", err.Error()))
		return nil, store.NewStoreError("work_item", "query", "query failed", err)
	}
	defer closeRows(rows, log)

	items := []*domain.WorkItem{}
	for rows.Next() {
		var item domain.WorkItem
		err := rows.Scan(
			&item.ID,
			&item.ContentRef,
			&item.InitialText,
			&item.CreatedAt,
		)
		if err != nil {
			log.Error("failed to scan work item row", slog.String("error", err.Error()))
			return nil, store.NewStoreError("work_item", "query", "scan failed", err)
		}
		items = append(items, &item)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows", slog.String("error", err.Error()))
		return nil, store.NewStoreError("work_item", "query", "row iteration failed", err)
	}

	return items, nil
}
