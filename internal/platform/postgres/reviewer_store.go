package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/tsunayoshi21/Labeling-app/internal/domain"
	"github.com/tsunayoshi21/Labeling-app/internal/platform/logger"
	"github.com/tsunayoshi21/Labeling-app/internal/store"
)

// PostgresReviewerStore implements the store.ReviewerStore interface
// using a PostgreSQL database as the storage backend.
type PostgresReviewerStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresReviewerStore creates a new PostgreSQL implementation of the
// ReviewerStore interface. It accepts a database connection or transaction
// that should be initialized and managed by the caller. If logger is nil, a
// default logger will be used.
func NewPostgresReviewerStore(db store.DBTX, logger *slog.Logger) *PostgresReviewerStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresReviewerStore{
		db:     db,
		logger: logger.With(slog.String("component", "reviewer_store")),
	}
}

// Ensure PostgresReviewerStore implements store.ReviewerStore interface
var _ store.ReviewerStore = (*PostgresReviewerStore)(nil)

// WithTx implements store.ReviewerStore.WithTx
func (s *PostgresReviewerStore) WithTx(tx *sql.Tx) store.ReviewerStore {
	return &PostgresReviewerStore{db: tx, logger: s.logger}
}

// Create implements store.ReviewerStore.Create
// Returns store.ErrReviewerNameExists if the name is already taken.
func (s *PostgresReviewerStore) Create(ctx context.Context, reviewer *domain.Reviewer) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := reviewer.Validate(); err != nil {
		log.Warn("reviewer validation failed during create",
			slog.String("error", err.Error()),
			slog.String("reviewer_id", reviewer.ID.String()))
		return err
	}

	query := `
		INSERT INTO reviewers (id, name, hashed_password, role, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		reviewer.ID,
		reviewer.Name,
		reviewer.HashedPassword,
		reviewer.Role,
		reviewer.CreatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			log.Warn("duplicate reviewer name",
				slog.String("reviewer_name", reviewer.Name))
			return store.ErrReviewerNameExists
		}

		log.Error("failed to create reviewer",
			slog.String("error", err.Error()),
			slog.String("reviewer_id", reviewer.ID.String()))
		return store.NewStoreError("reviewer", "create", "insert failed", err)
	}

	log.Info("reviewer created",
		slog.String("reviewer_id", reviewer.ID.String()),
		slog.String("reviewer_name", reviewer.Name),
		slog.String("role", string(reviewer.Role)))
	return nil
}

const reviewerColumns = "id, name, hashed_password, role, created_at"

// scanReviewer scans one reviewer row.
func scanReviewer(row *sql.Row) (*domain.Reviewer, error) {
	var reviewer domain.Reviewer
	var role string

	err := row.Scan(
		&reviewer.ID,
		&reviewer.Name,
		&reviewer.HashedPassword,
		&role,
		&reviewer.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	reviewer.Role = domain.ReviewerRole(role)
	return &reviewer, nil
}

// GetByID implements store.ReviewerStore.GetByID
func (s *PostgresReviewerStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Reviewer, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := fmt.Sprintf("SELECT %s FROM reviewers WHERE id = $1", reviewerColumns)

	reviewer, err := scanReviewer(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("reviewer not found", slog.String("reviewer_id", id.String()))
			return nil, store.ErrReviewerNotFound
		}
		log.Error("failed to get reviewer by ID",
			slog.String("error", err.Error()),
			slog.String("reviewer_id", id.String()))
		return nil, store.NewStoreError("reviewer", "get", "query failed", err)
	}

	return reviewer, nil
}

// GetByName implements store.ReviewerStore.GetByName
func (s *PostgresReviewerStore) GetByName(ctx context.Context, name string) (*domain.Reviewer, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := fmt.Sprintf("SELECT %s FROM reviewers WHERE name = $1", reviewerColumns)

	reviewer, err := scanReviewer(s.db.QueryRowContext(ctx, query, name))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("reviewer not found", slog.String("reviewer_name", name))
			return nil, store.ErrReviewerNotFound
		}
		log.Error("failed to get reviewer by name",
			slog.String("error", err.Error()),
			slog.String("reviewer_name", name))
		return nil, store.NewStoreError("reviewer", "get", "query failed", err)
	}

	return reviewer, nil
}

// GetReference implements store.ReviewerStore.GetReference
// The reference reviewer is resolved by role lookup, never by a fixed ID.
func (s *PostgresReviewerStore) GetReference(ctx context.Context) (*domain.Reviewer, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := fmt.Sprintf(
		"SELECT %s FROM reviewers WHERE role = $1 ORDER BY created_at LIMIT 1",
		reviewerColumns,
	)

	reviewer, err := scanReviewer(s.db.QueryRowContext(ctx, query, domain.RoleReference))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Warn("no reference reviewer configured")
			return nil, store.ErrReferenceReviewerNotFound
		}
		log.Error("failed to get reference reviewer",
			slog.String("error", err.Error()))
		return nil, store.NewStoreError("reviewer", "get_reference", "query failed", err)
	}

	return reviewer, nil
}

// List implements store.ReviewerStore.List
func (s *PostgresReviewerStore) List(ctx context.Context) ([]*domain.Reviewer, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := fmt.Sprintf("SELECT %s FROM reviewers ORDER BY name", reviewerColumns)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		log.Error("failed to list reviewers", slog.String("error", err.Error()))
		return nil, store.NewStoreError("reviewer", "list", "query failed", err)
	}
	defer closeRows(rows, log)

	reviewers := []*domain.Reviewer{}
	for rows.Next() {
		var reviewer domain.Reviewer
		var role string

		err := rows.Scan(
			&reviewer.ID,
			&reviewer.Name,
			&reviewer.HashedPassword,
			&role,
			&reviewer.CreatedAt,
		)
		if err != nil {
			log.Error("failed to scan reviewer row", slog.String("error", err.Error()))
			return nil, store.NewStoreError("reviewer", "list", "scan failed", err)
		}

		reviewer.Role = domain.ReviewerRole(role)
		reviewers = append(reviewers, &reviewer)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows", slog.String("error", err.Error()))
		return nil, store.NewStoreError("reviewer", "list", "row iteration failed", err)
	}

	return reviewers, nil
}

// Delete implements store.ReviewerStore.Delete
// The reviewer's assignments are removed by the ON DELETE CASCADE foreign
// key on assignments.reviewer_id.
func (s *PostgresReviewerStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, "DELETE FROM reviewers WHERE id = $1", id)
	if err != nil {
		log.Error("failed to delete reviewer",
			slog.String("error", err.Error()),
			slog.String("reviewer_id", id.String()))
		return store.NewStoreError("reviewer", "delete", "delete failed", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		log.Error("failed to get rows affected",
			slog.String("error", err.Error()),
			slog.String("reviewer_id", id.String()))
		return store.NewStoreError("reviewer", "delete", "rows affected unavailable", err)
	}

	if rowsAffected == 0 {
		log.Debug("reviewer not found for delete", slog.String("reviewer_id", id.String()))
		return store.ErrReviewerNotFound
	}

	log.Info("reviewer deleted", slog.String("reviewer_id", id.String()))
	return nil
}

// closeRows closes rows and logs a close failure.
func closeRows(rows *sql.Rows, log *slog.Logger) {
	if err := rows.Close(); err != nil {
		log.Error("failed to close rows", slog.String("error", err.Error()))
	}
}
