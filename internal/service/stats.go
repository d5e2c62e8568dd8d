package service

import (
	"context"
	"log/slog"
	"math"

	"github.com/google/uuid"

	"github.com/tsunayoshi21/Labeling-app/internal/platform/logger"
	"github.com/tsunayoshi21/Labeling-app/internal/store"
)

// SystemStats is the system-wide progress snapshot, the stored counts
// plus the derived remaining-work figures.
type SystemStats struct {
	TotalReviewers       int     `json:"total_reviewers"`
	TotalWorkItems       int     `json:"total_work_items"`
	TotalAssignments     int     `json:"total_assignments"`
	PendingTasks         int     `json:"pending_tasks"`
	CompletedTasks       int     `json:"completed_tasks"`
	AnnotatedWorkItems   int     `json:"annotated_work_items"`
	UnannotatedWorkItems int     `json:"unannotated_work_items"`
	ProgressPercent      float64 `json:"progress_percent"`
}

// AgreementStat is one reviewer's agreement rate against the reference
// reviewer over the work items both have reviewed.
type AgreementStat struct {
	AgreementPercent float64 `json:"agreement_percent"`
	Agreements       int     `json:"agreements"`
	TotalComparisons int     `json:"total_comparisons"`
}

// StatsService reads per-reviewer and system-wide statistics. All of
// its operations are read-only snapshots and run outside transactions.
type StatsService struct {
	reviewers store.ReviewerStore
	stats     store.StatsStore
	logger    *slog.Logger
}

// NewStatsService creates a new StatsService with the given
// dependencies. Panics if any dependency is nil.
func NewStatsService(reviewers store.ReviewerStore, stats store.StatsStore, log *slog.Logger) *StatsService {
	if reviewers == nil {
		panic("reviewer store cannot be nil")
	}
	if stats == nil {
		panic("stats store cannot be nil")
	}
	if log == nil {
		panic("logger cannot be nil")
	}
	return &StatsService{
		reviewers: reviewers,
		stats:     stats,
		logger:    log.With(slog.String("component", "stats_service")),
	}
}

// ReviewerStats returns the assignment counts per status for one
// reviewer.
func (s *StatsService) ReviewerStats(ctx context.Context, reviewerID uuid.UUID) (*store.StatusCounts, error) {
	if _, err := s.reviewers.GetByID(ctx, reviewerID); err != nil {
		return nil, mapStoreError(err)
	}
	counts, err := s.stats.ReviewerCounts(ctx, reviewerID)
	if err != nil {
		return nil, mapStoreError(err)
	}
	return counts, nil
}

// SystemStats returns system-wide totals plus the derived unannotated
// work item count and overall progress percentage. Progress is the
// share of work items with at least one reviewed assignment, rounded to
// one decimal; zero work items means zero progress.
func (s *StatsService) SystemStats(ctx context.Context) (*SystemStats, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	counts, err := s.stats.SystemCounts(ctx)
	if err != nil {
		log.Error("system stats query failed", slog.String("error", err.Error()))
		return nil, mapStoreError(err)
	}

	stats := &SystemStats{
		TotalReviewers:       counts.TotalReviewers,
		TotalWorkItems:       counts.TotalWorkItems,
		TotalAssignments:     counts.TotalAssignments,
		PendingTasks:         counts.PendingTasks,
		CompletedTasks:       counts.CompletedTasks,
		AnnotatedWorkItems:   counts.AnnotatedWorkItems,
		UnannotatedWorkItems: counts.TotalWorkItems - counts.AnnotatedWorkItems,
	}
	if counts.TotalWorkItems > 0 {
		stats.ProgressPercent = round1(float64(counts.AnnotatedWorkItems) / float64(counts.TotalWorkItems) * 100)
	}
	return stats, nil
}

// AgreementStats computes each reviewer's agreement rate against the
// reference reviewer, keyed by reviewer ID. Only work items where both
// the reviewer and the reference have left the pending state are
// compared; texts agree when they are equal, counting two NULLs as
// equal and a NULL against any text as a disagreement. Reviewers with
// no comparable work items are absent from the result. A non-nil
// reviewerID restricts the computation to that reviewer.
func (s *StatsService) AgreementStats(ctx context.Context, reviewerID *uuid.UUID) (map[uuid.UUID]*AgreementStat, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	reference, err := s.reviewers.GetReference(ctx)
	if err != nil {
		return nil, mapStoreError(err)
	}

	pairs, err := s.stats.AgreementPairs(ctx, reference.ID, reviewerID)
	if err != nil {
		log.Error("agreement query failed", slog.String("error", err.Error()))
		return nil, mapStoreError(err)
	}

	result := make(map[uuid.UUID]*AgreementStat)
	for _, pair := range pairs {
		stat, ok := result[pair.ReviewerID]
		if !ok {
			stat = &AgreementStat{}
			result[pair.ReviewerID] = stat
		}
		stat.TotalComparisons++
		if textsEqual(pair.ReviewerText, pair.ReferenceText) {
			stat.Agreements++
		}
	}
	for _, stat := range result {
		stat.AgreementPercent = round1(float64(stat.Agreements) / float64(stat.TotalComparisons) * 100)
	}
	return result, nil
}

// textsEqual compares two nullable texts. Two NULLs are equal; NULL
// against any stored text is not. Comparison is exact, no trimming or
// case folding.
func textsEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// round1 rounds to one decimal place, half away from zero.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
