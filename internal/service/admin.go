package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tsunayoshi21/Labeling-app/internal/domain"
	"github.com/tsunayoshi21/Labeling-app/internal/platform/logger"
	"github.com/tsunayoshi21/Labeling-app/internal/store"
)

// initialTextPreviewLen caps the initial text shown in work item listings.
const initialTextPreviewLen = 100

// PasswordHasher hashes plaintext passwords for storage.
type PasswordHasher interface {
	Hash(ctx context.Context, password string) (string, error)
}

// ReviewerActivity is one row of the recent activity feed: a reviewer's
// counters plus the per-status share of their completed work.
type ReviewerActivity struct {
	ReviewerID    uuid.UUID `json:"reviewer_id"`
	Name          string    `json:"name"`
	LastActivity  time.Time `json:"last_activity"`
	TotalAssigned int       `json:"total_assigned"`
	Completed     int       `json:"completed"`
	Approved      int       `json:"approved"`
	ApprovedPct   float64   `json:"approved_pct"`
	Corrected     int       `json:"corrected"`
	CorrectedPct  float64   `json:"corrected_pct"`
	Discarded     int       `json:"discarded"`
	DiscardedPct  float64   `json:"discarded_pct"`
}

// AdminService covers the administrative surface: managing reviewers
// and work items, dataset-wide listings, the activity feed, and export.
type AdminService struct {
	txn         store.Transactor
	reviewers   store.ReviewerStore
	workItems   store.WorkItemStore
	assignments store.AssignmentStore
	stats       store.StatsStore
	hasher      PasswordHasher
	logger      *slog.Logger
}

// NewAdminService creates a new AdminService with the given
// dependencies. Panics if any dependency is nil.
func NewAdminService(
	txn store.Transactor,
	reviewers store.ReviewerStore,
	workItems store.WorkItemStore,
	assignments store.AssignmentStore,
	stats store.StatsStore,
	hasher PasswordHasher,
	log *slog.Logger,
) *AdminService {
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
	if stats == nil {
		panic("stats store cannot be nil")
	}
	if hasher == nil {
		panic("password hasher cannot be nil")
	}
	if log == nil {
		panic("logger cannot be nil")
	}
	return &AdminService{
		txn:         txn,
		reviewers:   reviewers,
		workItems:   workItems,
		assignments: assignments,
		stats:       stats,
		hasher:      hasher,
		logger:      log.With(slog.String("component", "admin_service")),
	}
}

// CreateReviewer registers a new reviewer with a hashed password.
func (s *AdminService) CreateReviewer(ctx context.Context, name, password string, role domain.ReviewerRole) (*domain.Reviewer, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	hashed, err := s.hasher.Hash(ctx, password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}
	reviewer, err := domain.NewReviewer(name, hashed, role)
	if err != nil {
		return nil, err
	}
	if err := s.reviewers.Create(ctx, reviewer); err != nil {
		return nil, mapStoreError(err)
	}

	log.Info("reviewer created",
		slog.String("reviewer_id", reviewer.ID.String()),
		slog.String("role", string(reviewer.Role)))
	return reviewer, nil
}

// DeleteReviewer removes a reviewer and, through the store's cascade,
// all of their assignments.
func (s *AdminService) DeleteReviewer(ctx context.Context, reviewerID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := s.reviewers.Delete(ctx, reviewerID); err != nil {
		return mapStoreError(err)
	}
	log.Info("reviewer deleted", slog.String("reviewer_id", reviewerID.String()))
	return nil
}

// ListReviewers returns all reviewers without their password hashes.
func (s *AdminService) ListReviewers(ctx context.Context) ([]*domain.Reviewer, error) {
	reviewers, err := s.reviewers.List(ctx)
	if err != nil {
		return nil, mapStoreError(err)
	}
	return reviewers, nil
}

// CreateWorkItem registers a new work item with its immutable content
// reference and initial guess text.
func (s *AdminService) CreateWorkItem(ctx context.Context, contentRef, initialText string) (*domain.WorkItem, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	item, err := domain.NewWorkItem(contentRef, initialText)
	if err != nil {
		return nil, err
	}
	if err := s.workItems.Create(ctx, item); err != nil {
		return nil, mapStoreError(err)
	}

	log.Info("work item created", slog.String("work_item_id", item.ID.String()))
	return item, nil
}

// ListReviewersWithStats returns every reviewer with their assignment
// counters.
func (s *AdminService) ListReviewersWithStats(ctx context.Context) ([]*store.ReviewerWithStats, error) {
	rows, err := s.stats.ReviewersWithStats(ctx)
	if err != nil {
		return nil, mapStoreError(err)
	}
	return rows, nil
}

// ListWorkItemsWithStats returns every work item with per-status
// assignment counts. Initial texts are truncated for display.
func (s *AdminService) ListWorkItemsWithStats(ctx context.Context) ([]*store.WorkItemWithStats, error) {
	rows, err := s.stats.WorkItemsWithStats(ctx)
	if err != nil {
		return nil, mapStoreError(err)
	}
	for _, row := range rows {
		row.InitialText = truncateText(row.InitialText, initialTextPreviewLen)
	}
	return rows, nil
}

// WorkItemAssignments returns every assignment on one work item.
func (s *AdminService) WorkItemAssignments(ctx context.Context, workItemID uuid.UUID) ([]*domain.Assignment, error) {
	if _, err := s.workItems.GetByID(ctx, workItemID); err != nil {
		return nil, mapStoreError(err)
	}
	assignments, err := s.assignments.ListByWorkItem(ctx, workItemID)
	if err != nil {
		return nil, mapStoreError(err)
	}
	return assignments, nil
}

// RecentActivity returns the reviewers with the most recent real review
// activity, newest first, with per-status percentages of their
// completed work.
func (s *AdminService) RecentActivity(ctx context.Context, limit int) ([]*ReviewerActivity, error) {
	rows, err := s.stats.RecentActivity(ctx, limit)
	if err != nil {
		return nil, mapStoreError(err)
	}

	activity := make([]*ReviewerActivity, 0, len(rows))
	for _, row := range rows {
		entry := &ReviewerActivity{
			ReviewerID:    row.ReviewerID,
			Name:          row.Name,
			LastActivity:  row.LastActivity,
			TotalAssigned: row.TotalAssigned,
			Completed:     row.Completed,
			Approved:      row.Approved,
			Corrected:     row.Corrected,
			Discarded:     row.Discarded,
		}
		if row.Completed > 0 {
			entry.ApprovedPct = round1(float64(row.Approved) / float64(row.Completed) * 100)
			entry.CorrectedPct = round1(float64(row.Corrected) / float64(row.Completed) * 100)
			entry.DiscardedPct = round1(float64(row.Discarded) / float64(row.Completed) * 100)
		}
		activity = append(activity, entry)
	}
	return activity, nil
}

// ExportByWorkItem exports every reviewed assignment grouped by work
// item. The outer key is the work item's zero-padded sequence number
// ("img_00000000042"), the inner map goes from reviewer name to the
// stored corrected text, with the literal "NULL" standing in for an
// absent text.
func (s *AdminService) ExportByWorkItem(ctx context.Context) (map[string]map[string]string, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.stats.ExportRows(ctx)
	if err != nil {
		return nil, mapStoreError(err)
	}

	result := make(map[string]map[string]string)
	for _, row := range rows {
		key := fmt.Sprintf("img_%011d", row.WorkItemSeq)
		group, ok := result[key]
		if !ok {
			group = make(map[string]string)
			result[key] = group
		}
		if row.Text != nil && *row.Text != "" {
			group[row.ReviewerName] = *row.Text
		} else {
			group[row.ReviewerName] = "NULL"
		}
	}

	log.Info("annotations exported", slog.Int("work_items", len(result)))
	return result, nil
}

// truncateText shortens s to at most max runes, appending an ellipsis
// when something was cut.
func truncateText(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
