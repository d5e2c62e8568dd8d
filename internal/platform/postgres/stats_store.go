package postgres

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/tsunayoshi21/Labeling-app/internal/platform/logger"
	"github.com/tsunayoshi21/Labeling-app/internal/store"
)

// PostgresStatsStore implements the store.StatsStore interface using
// aggregate queries over the reviewers, work_items and assignments tables.
type PostgresStatsStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresStatsStore creates a new PostgreSQL implementation of the
// StatsStore interface. If logger is nil, a default logger will be used.
func NewPostgresStatsStore(db store.DBTX, logger *slog.Logger) *PostgresStatsStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresStatsStore{
		db:     db,
		logger: logger.With(slog.String("component", "stats_store")),
	}
}

// Ensure PostgresStatsStore implements store.StatsStore interface
var _ store.StatsStore = (*PostgresStatsStore)(nil)

// ReviewerCounts implements store.StatsStore.ReviewerCounts
func (s *PostgresStatsStore) ReviewerCounts(
	ctx context.Context,
	reviewerID uuid.UUID,
) (*store.StatusCounts, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'pending'),
			COUNT(*) FILTER (WHERE status = 'corrected'),
			COUNT(*) FILTER (WHERE status = 'approved'),
			COUNT(*) FILTER (WHERE status = 'discarded')
		FROM assignments
		WHERE reviewer_id = $1
	`

	var counts store.StatusCounts
	err := s.db.QueryRowContext(ctx, query, reviewerID).Scan(
		&counts.Total,
		&counts.Pending,
		&counts.Corrected,
		&counts.Approved,
		&counts.Discarded,
	)
	if err != nil {
		log.Error("failed to query reviewer counts",
			slog.String("error", err.Error()),
			slog.String("reviewer_id", reviewerID.String()))
		return nil, store.NewStoreError("stats", "reviewer_counts", "query failed", err)
	}

	return &counts, nil
}

// SystemCounts implements store.StatsStore.SystemCounts
// Assignment and task totals exclude the reference reviewer; the annotated
// work item count considers reviewed assignments from any reviewer.
func (s *PostgresStatsStore) SystemCounts(ctx context.Context) (*store.SystemCounts, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var counts store.SystemCounts

	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM reviewers").Scan(&counts.TotalReviewers)
	if err != nil {
		log.Error("failed to count reviewers", slog.String("error", err.Error()))
		return nil, store.NewStoreError("stats", "system_counts", "query failed", err)
	}

	err = s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM work_items").Scan(&counts.TotalWorkItems)
	if err != nil {
		log.Error("failed to count work items", slog.String("error", err.Error()))
		return nil, store.NewStoreError("stats", "system_counts", "query failed", err)
	}

	query := `
		SELECT
			COUNT(*) FILTER (WHERE r.role <> 'reference'),
			COUNT(*) FILTER (WHERE a.status = 'pending' AND r.role <> 'reference'),
			COUNT(*) FILTER (WHERE a.status <> 'pending' AND r.role <> 'reference'),
			COUNT(DISTINCT a.work_item_id) FILTER (WHERE a.status <> 'pending')
		FROM assignments a
		JOIN reviewers r ON r.id = a.reviewer_id
	`

	err = s.db.QueryRowContext(ctx, query).Scan(
		&counts.TotalAssignments,
		&counts.PendingTasks,
		&counts.CompletedTasks,
		&counts.AnnotatedWorkItems,
	)
	if err != nil {
		log.Error("failed to query assignment totals", slog.String("error", err.Error()))
		return nil, store.NewStoreError("stats", "system_counts", "query failed", err)
	}

	return &counts, nil
}

// AgreementPairs implements store.StatsStore.AgreementPairs
func (s *PostgresStatsStore) AgreementPairs(
	ctx context.Context,
	referenceID uuid.UUID,
	reviewerID *uuid.UUID,
) ([]*store.AgreementPair, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT a.reviewer_id, a.work_item_id, a.corrected_text, r.corrected_text
		FROM assignments a
		JOIN assignments r
			ON r.work_item_id = a.work_item_id
			AND r.reviewer_id = $1
			AND r.status <> 'pending'
		WHERE a.reviewer_id <> $1
		  AND a.status <> 'pending'
	`
	args := []any{referenceID}

	if reviewerID != nil {
		query += " AND a.reviewer_id = $2"
		args = append(args, *reviewerID)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query agreement pairs",
			slog.String("error", err.Error()),
			slog.String("reference_id", referenceID.String()))
		return nil, store.NewStoreError("stats", "agreement_pairs", "query failed", err)
	}
	defer closeRows(rows, log)

	pairs := []*store.AgreementPair{}
	for rows.Next() {
		var pair store.AgreementPair
		err := rows.Scan(
			&pair.ReviewerID,
			&pair.WorkItemID,
			&pair.ReviewerText,
			&pair.ReferenceText,
		)
		if err != nil {
			log.Error("failed to scan agreement pair row", slog.String("error", err.Error()))
			return nil, store.NewStoreError("stats", "agreement_pairs", "scan failed", err)
		}
		pairs = append(pairs, &pair)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows", slog.String("error", err.Error()))
		return nil, store.NewStoreError("stats", "agreement_pairs", "row iteration failed", err)
	}

	return pairs, nil
}

// RecentActivity implements store.StatsStore.RecentActivity
// Only reviewed assignments count as activity; handing a reviewer new
// pending work does not move it up the list.
func (s *PostgresStatsStore) RecentActivity(
	ctx context.Context,
	limit int,
) ([]*store.ReviewerActivity, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT
			u.id, u.name, la.last_activity,
			COUNT(a.id),
			COUNT(*) FILTER (WHERE a.status <> 'pending'),
			COUNT(*) FILTER (WHERE a.status = 'approved'),
			COUNT(*) FILTER (WHERE a.status = 'corrected'),
			COUNT(*) FILTER (WHERE a.status = 'discarded')
		FROM reviewers u
		JOIN assignments a ON a.reviewer_id = u.id
		JOIN (
			SELECT reviewer_id, MAX(updated_at) AS last_activity
			FROM assignments
			WHERE status <> 'pending'
			GROUP BY reviewer_id
		) la ON la.reviewer_id = u.id
		GROUP BY u.id, u.name, la.last_activity
		ORDER BY la.last_activity DESC
		LIMIT $1
	`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		log.Error("failed to query recent activity", slog.String("error", err.Error()))
		return nil, store.NewStoreError("stats", "recent_activity", "query failed", err)
	}
	defer closeRows(rows, log)

	activity := []*store.ReviewerActivity{}
	for rows.Next() {
		var entry store.ReviewerActivity
		err := rows.Scan(
			&entry.ReviewerID,
			&entry.Name,
			&entry.LastActivity,
			&entry.TotalAssigned,
			&entry.Completed,
			&entry.Approved,
			&entry.Corrected,
			&entry.Discarded,
		)
		if err != nil {
			log.Error("failed to scan activity row", slog.String("error", err.Error()))
			return nil, store.NewStoreError("stats", "recent_activity", "scan failed", err)
		}
		activity = append(activity, &entry)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows", slog.String("error", err.Error()))
		return nil, store.NewStoreError("stats", "recent_activity", "row iteration failed", err)
	}

	return activity, nil
}

// ReviewersWithStats implements store.StatsStore.ReviewersWithStats
func (s *PostgresStatsStore) ReviewersWithStats(ctx context.Context) ([]*store.ReviewerWithStats, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT
			u.id, u.name, u.role,
			COUNT(a.id),
			COUNT(a.id) FILTER (WHERE a.status <> 'pending'),
			COUNT(a.id) FILTER (WHERE a.status = 'pending')
		FROM reviewers u
		LEFT JOIN assignments a ON a.reviewer_id = u.id
		GROUP BY u.id, u.name, u.role
		ORDER BY u.name
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		log.Error("failed to query reviewers with stats", slog.String("error", err.Error()))
		return nil, store.NewStoreError("stats", "reviewers_with_stats", "query failed", err)
	}
	defer closeRows(rows, log)

	reviewers := []*store.ReviewerWithStats{}
	for rows.Next() {
		var entry store.ReviewerWithStats
		err := rows.Scan(
			&entry.ReviewerID,
			&entry.Name,
			&entry.Role,
			&entry.TotalAssigned,
			&entry.Completed,
			&entry.Pending,
		)
		if err != nil {
			log.Error("failed to scan reviewer stats row", slog.String("error", err.Error()))
			return nil, store.NewStoreError("stats", "reviewers_with_stats", "scan failed", err)
		}
		reviewers = append(reviewers, &entry)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows", slog.String("error", err.Error()))
		return nil, store.NewStoreError("stats", "reviewers_with_stats", "row iteration failed", err)
	}

	return reviewers, nil
}

// WorkItemsWithStats implements store.StatsStore.WorkItemsWithStats
func (s *PostgresStatsStore) WorkItemsWithStats(ctx context.Context) ([]*store.WorkItemWithStats, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT
			w.id, w.content_ref, w.initial_text,
			COUNT(a.id),
			COUNT(a.id) FILTER (WHERE a.status = 'pending'),
			COUNT(a.id) FILTER (WHERE a.status = 'corrected'),
			COUNT(a.id) FILTER (WHERE a.status = 'approved'),
			COUNT(a.id) FILTER (WHERE a.status = 'discarded')
		FROM work_items w
		LEFT JOIN assignments a ON a.work_item_id = w.id
		GROUP BY w.id, w.content_ref, w.initial_text, w.seq
		ORDER BY w.seq
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		log.Error("failed to query work items with stats", slog.String("error", err.Error()))
		return nil, store.NewStoreError("stats", "work_items_with_stats", "query failed", err)
	}
	defer closeRows(rows, log)

	items := []*store.WorkItemWithStats{}
	for rows.Next() {
		var entry store.WorkItemWithStats
		err := rows.Scan(
			&entry.WorkItemID,
			&entry.ContentRef,
			&entry.InitialText,
			&entry.TotalAssignments,
			&entry.Pending,
			&entry.Corrected,
			&entry.Approved,
			&entry.Discarded,
		)
		if err != nil {
			log.Error("failed to scan work item stats row", slog.String("error", err.Error()))
			return nil, store.NewStoreError("stats", "work_items_with_stats", "scan failed", err)
		}
		items = append(items, &entry)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows", slog.String("error", err.Error()))
		return nil, store.NewStoreError("stats", "work_items_with_stats", "row iteration failed", err)
	}

	return items, nil
}

// ExportRows implements store.StatsStore.ExportRows
func (s *PostgresStatsStore) ExportRows(ctx context.Context) ([]*store.ExportRow, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT w.seq, u.name, a.corrected_text
		FROM assignments a
		JOIN work_items w ON w.id = a.work_item_id
		JOIN reviewers u ON u.id = a.reviewer_id
		WHERE a.status <> 'pending'
		ORDER BY w.seq, u.name
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		log.Error("failed to query export rows", slog.String("error", err.Error()))
		return nil, store.NewStoreError("stats", "export_rows", "query failed", err)
	}
	defer closeRows(rows, log)

	exported := []*store.ExportRow{}
	for rows.Next() {
		var row store.ExportRow
		err := rows.Scan(&row.WorkItemSeq, &row.ReviewerName, &row.Text)
		if err != nil {
			log.Error("failed to scan export row", slog.String("error", err.Error()))
			return nil, store.NewStoreError("stats", "export_rows", "scan failed", err)
		}
		exported = append(exported, &row)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows", slog.String("error", err.Error()))
		return nil, store.NewStoreError("stats", "export_rows", "row iteration failed", err)
	}

	log.Info("export rows collected", slog.Int("count", len(exported)))
	return exported, nil
}
