package service_test

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/tsunayoshi21/Labeling-app/internal/domain"
	"github.com/tsunayoshi21/Labeling-app/internal/mocks"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func seedReviewer(t *testing.T, f *mocks.FakeStores, name string, role domain.ReviewerRole) *domain.Reviewer {
	t.Helper()
	reviewer, err := domain.NewReviewer(name, "hashed-password", role)
	require.NoError(t, err)
	require.NoError(t, f.Reviewers.Create(context.Background(), reviewer))
	return reviewer
}

func seedWorkItem(t *testing.T, f *mocks.FakeStores, contentRef, initialText string) *domain.WorkItem {
	t.Helper()
	item, err := domain.NewWorkItem(contentRef, initialText)
	require.NoError(t, err)
	require.NoError(t, f.WorkItems.Create(context.Background(), item))
	return item
}

func seedPending(t *testing.T, f *mocks.FakeStores, reviewerID, workItemID uuid.UUID) *domain.Assignment {
	t.Helper()
	assignment, err := domain.NewAssignment(reviewerID, workItemID)
	require.NoError(t, err)
	require.NoError(t, f.Assignments.Create(context.Background(), assignment))
	return assignment
}

func seedReviewed(
	t *testing.T,
	f *mocks.FakeStores,
	reviewerID, workItemID uuid.UUID,
	status domain.AssignmentStatus,
	text *string,
) *domain.Assignment {
	t.Helper()
	assignment, err := domain.NewAssignment(reviewerID, workItemID)
	require.NoError(t, err)
	require.NoError(t, assignment.SetStatus(status, text))
	require.NoError(t, f.Assignments.Create(context.Background(), assignment))
	return assignment
}

// setUpdatedAt pins an assignment's timestamp so ordering assertions do
// not depend on wall clock resolution.
func setUpdatedAt(t *testing.T, f *mocks.FakeStores, assignment *domain.Assignment, at time.Time) {
	t.Helper()
	assignment.UpdatedAt = at
	require.NoError(t, f.Assignments.Update(context.Background(), assignment))
}

func strPtr(s string) *string {
	return &s
}
