package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsunayoshi21/Labeling-app/internal/domain"
	"github.com/tsunayoshi21/Labeling-app/internal/mocks"
	"github.com/tsunayoshi21/Labeling-app/internal/service"
)

func newStatsService(f *mocks.FakeStores) *service.StatsService {
	return service.NewStatsService(f.Reviewers, f.Stats, testLogger())
}

func TestStatsService_ReviewerStats(t *testing.T) {
	ctx := context.Background()

	t.Run("counts per status", func(t *testing.T) {
		f := mocks.NewFakeStores()
		alice := seedReviewer(t, f, "alice", domain.RoleReviewer)
		item1 := seedWorkItem(t, f, "batch/0001.png", "one")
		item2 := seedWorkItem(t, f, "batch/0002.png", "two")
		item3 := seedWorkItem(t, f, "batch/0003.png", "three")

		seedPending(t, f, alice.ID, item1.ID)
		seedReviewed(t, f, alice.ID, item2.ID, domain.StatusApproved, nil)
		seedReviewed(t, f, alice.ID, item3.ID, domain.StatusCorrected, strPtr("fixed"))

		counts, err := newStatsService(f).ReviewerStats(ctx, alice.ID)
		require.NoError(t, err)
		assert.Equal(t, 3, counts.Total)
		assert.Equal(t, 1, counts.Pending)
		assert.Equal(t, 1, counts.Approved)
		assert.Equal(t, 1, counts.Corrected)
		assert.Equal(t, 0, counts.Discarded)
	})

	t.Run("unknown reviewer", func(t *testing.T) {
		f := mocks.NewFakeStores()
		_, err := newStatsService(f).ReviewerStats(ctx, uuid.New())
		assert.True(t, errors.Is(err, service.ErrReviewerNotFound))
	})
}

func TestStatsService_SystemStats(t *testing.T) {
	ctx := context.Background()

	t.Run("derives remaining work and progress", func(t *testing.T) {
		f := mocks.NewFakeStores()
		admin := seedReviewer(t, f, "admin", domain.RoleReference)
		alice := seedReviewer(t, f, "alice", domain.RoleReviewer)

		item1 := seedWorkItem(t, f, "batch/0001.png", "one")
		item2 := seedWorkItem(t, f, "batch/0002.png", "two")
		seedWorkItem(t, f, "batch/0003.png", "three")

		seedReviewed(t, f, alice.ID, item1.ID, domain.StatusApproved, nil)
		seedPending(t, f, alice.ID, item2.ID)
		seedReviewed(t, f, admin.ID, item2.ID, domain.StatusCorrected, strPtr("fixed"))

		stats, err := newStatsService(f).SystemStats(ctx)
		require.NoError(t, err)

		assert.Equal(t, 2, stats.TotalReviewers)
		assert.Equal(t, 3, stats.TotalWorkItems)
		// Reference assignments are not part of the task workload.
		assert.Equal(t, 2, stats.TotalAssignments)
		assert.Equal(t, 1, stats.PendingTasks)
		assert.Equal(t, 1, stats.CompletedTasks)
		// Any reviewer's reviewed assignment marks the item annotated.
		assert.Equal(t, 2, stats.AnnotatedWorkItems)
		assert.Equal(t, 1, stats.UnannotatedWorkItems)
		assert.InDelta(t, 66.7, stats.ProgressPercent, 0.001)
	})

	t.Run("empty system reports zero progress", func(t *testing.T) {
		f := mocks.NewFakeStores()
		stats, err := newStatsService(f).SystemStats(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, stats.TotalWorkItems)
		assert.Equal(t, 0.0, stats.ProgressPercent)
	})
}

func TestStatsService_AgreementStats(t *testing.T) {
	ctx := context.Background()

	t.Run("aggregates agreement per reviewer", func(t *testing.T) {
		f := mocks.NewFakeStores()
		admin := seedReviewer(t, f, "admin", domain.RoleReference)
		alice := seedReviewer(t, f, "alice", domain.RoleReviewer)
		bob := seedReviewer(t, f, "bob", domain.RoleReviewer)

		item1 := seedWorkItem(t, f, "batch/0001.png", "one")
		item2 := seedWorkItem(t, f, "batch/0002.png", "two")
		item3 := seedWorkItem(t, f, "batch/0003.png", "three")

		seedReviewed(t, f, admin.ID, item1.ID, domain.StatusCorrected, strPtr("cat"))
		seedReviewed(t, f, admin.ID, item2.ID, domain.StatusCorrected, strPtr("dog"))
		seedReviewed(t, f, admin.ID, item3.ID, domain.StatusDiscarded, nil)

		seedReviewed(t, f, alice.ID, item1.ID, domain.StatusCorrected, strPtr("cat"))
		seedReviewed(t, f, alice.ID, item2.ID, domain.StatusCorrected, strPtr("dog bark"))
		seedReviewed(t, f, alice.ID, item3.ID, domain.StatusDiscarded, nil)

		// Bob never reviewed anything the reference finalized.
		seedPending(t, f, bob.ID, item1.ID)

		result, err := newStatsService(f).AgreementStats(ctx, nil)
		require.NoError(t, err)
		require.Len(t, result, 1)

		stat, ok := result[alice.ID]
		require.True(t, ok)
		assert.Equal(t, 3, stat.TotalComparisons)
		// Matching text plus the two-NULLs case both count as agreement.
		assert.Equal(t, 2, stat.Agreements)
		assert.InDelta(t, 66.7, stat.AgreementPercent, 0.001)
	})

	t.Run("NULL against text is a disagreement", func(t *testing.T) {
		f := mocks.NewFakeStores()
		admin := seedReviewer(t, f, "admin", domain.RoleReference)
		alice := seedReviewer(t, f, "alice", domain.RoleReviewer)

		item := seedWorkItem(t, f, "batch/0001.png", "one")
		seedReviewed(t, f, admin.ID, item.ID, domain.StatusCorrected, strPtr("cat"))
		seedReviewed(t, f, alice.ID, item.ID, domain.StatusDiscarded, nil)

		result, err := newStatsService(f).AgreementStats(ctx, nil)
		require.NoError(t, err)
		stat, ok := result[alice.ID]
		require.True(t, ok)
		assert.Equal(t, 0, stat.Agreements)
		assert.Equal(t, 1, stat.TotalComparisons)
		assert.Equal(t, 0.0, stat.AgreementPercent)
	})

	t.Run("single reviewer filter", func(t *testing.T) {
		f := mocks.NewFakeStores()
		admin := seedReviewer(t, f, "admin", domain.RoleReference)
		alice := seedReviewer(t, f, "alice", domain.RoleReviewer)
		bob := seedReviewer(t, f, "bob", domain.RoleReviewer)

		item := seedWorkItem(t, f, "batch/0001.png", "one")
		seedReviewed(t, f, admin.ID, item.ID, domain.StatusCorrected, strPtr("cat"))
		seedReviewed(t, f, alice.ID, item.ID, domain.StatusCorrected, strPtr("cat"))
		seedReviewed(t, f, bob.ID, item.ID, domain.StatusCorrected, strPtr("cat"))

		result, err := newStatsService(f).AgreementStats(ctx, &bob.ID)
		require.NoError(t, err)
		require.Len(t, result, 1)
		_, ok := result[bob.ID]
		assert.True(t, ok)
	})

	t.Run("no reference reviewer", func(t *testing.T) {
		f := mocks.NewFakeStores()
		seedReviewer(t, f, "alice", domain.RoleReviewer)

		_, err := newStatsService(f).AgreementStats(ctx, nil)
		assert.True(t, errors.Is(err, service.ErrReferenceNotFound))
	})
}
