package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsunayoshi21/Labeling-app/internal/domain"
	"github.com/tsunayoshi21/Labeling-app/internal/mocks"
	"github.com/tsunayoshi21/Labeling-app/internal/service"
)

// recordingNotifier captures queue transitions for assertions.
type recordingNotifier struct {
	mu          sync.Mutex
	emptyCalls  []uuid.UUID
	activeCalls []uuid.UUID
}

func (n *recordingNotifier) QueueEmpty(_ context.Context, reviewerID uuid.UUID, _ string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.emptyCalls = append(n.emptyCalls, reviewerID)
}

func (n *recordingNotifier) QueueActive(_ context.Context, reviewerID uuid.UUID) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.activeCalls = append(n.activeCalls, reviewerID)
}

func newTaskService(f *mocks.FakeStores, notifier service.Notifier) *service.TaskService {
	return service.NewTaskService(&mocks.FakeTransactor{}, f.Reviewers, f.Assignments, notifier, testLogger())
}

func TestTaskService_NextPendingTask(t *testing.T) {
	ctx := context.Background()

	t.Run("serves the oldest pending task", func(t *testing.T) {
		f := mocks.NewFakeStores()
		alice := seedReviewer(t, f, "alice", domain.RoleReviewer)
		item1 := seedWorkItem(t, f, "batch/0001.png", "one")
		item2 := seedWorkItem(t, f, "batch/0002.png", "two")

		newer := seedPending(t, f, alice.ID, item1.ID)
		older := seedPending(t, f, alice.ID, item2.ID)
		base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		setUpdatedAt(t, f, older, base)
		setUpdatedAt(t, f, newer, base.Add(time.Minute))

		notifier := &recordingNotifier{}
		task, err := newTaskService(f, notifier).NextPendingTask(ctx, alice.ID)
		require.NoError(t, err)
		assert.Equal(t, older.ID, task.Assignment.ID)
		assert.Equal(t, item2.ID, task.WorkItem.ID)
		assert.Equal(t, "two", task.WorkItem.InitialText)
		assert.Equal(t, []uuid.UUID{alice.ID}, notifier.activeCalls)
		assert.Empty(t, notifier.emptyCalls)
	})

	t.Run("empty queue notifies and returns no-tasks", func(t *testing.T) {
		f := mocks.NewFakeStores()
		alice := seedReviewer(t, f, "alice", domain.RoleReviewer)
		item := seedWorkItem(t, f, "batch/0001.png", "one")
		seedReviewed(t, f, alice.ID, item.ID, domain.StatusApproved, nil)

		notifier := &recordingNotifier{}
		_, err := newTaskService(f, notifier).NextPendingTask(ctx, alice.ID)
		assert.True(t, errors.Is(err, service.ErrNoPendingTasks))
		assert.Equal(t, []uuid.UUID{alice.ID}, notifier.emptyCalls)
		assert.Empty(t, notifier.activeCalls)
	})

	t.Run("unknown reviewer does not notify", func(t *testing.T) {
		f := mocks.NewFakeStores()
		notifier := &recordingNotifier{}
		_, err := newTaskService(f, notifier).NextPendingTask(ctx, uuid.New())
		assert.True(t, errors.Is(err, service.ErrReviewerNotFound))
		assert.Empty(t, notifier.emptyCalls)
	})

	t.Run("nil notifier is tolerated", func(t *testing.T) {
		f := mocks.NewFakeStores()
		alice := seedReviewer(t, f, "alice", domain.RoleReviewer)

		_, err := newTaskService(f, nil).NextPendingTask(ctx, alice.ID)
		assert.True(t, errors.Is(err, service.ErrNoPendingTasks))
	})
}

func TestTaskService_TaskHistory(t *testing.T) {
	ctx := context.Background()

	t.Run("newest reviewed first, pending excluded", func(t *testing.T) {
		f := mocks.NewFakeStores()
		alice := seedReviewer(t, f, "alice", domain.RoleReviewer)
		item1 := seedWorkItem(t, f, "batch/0001.png", "one")
		item2 := seedWorkItem(t, f, "batch/0002.png", "two")
		item3 := seedWorkItem(t, f, "batch/0003.png", "three")

		first := seedReviewed(t, f, alice.ID, item1.ID, domain.StatusApproved, nil)
		second := seedReviewed(t, f, alice.ID, item2.ID, domain.StatusCorrected, strPtr("fixed"))
		seedPending(t, f, alice.ID, item3.ID)

		base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		setUpdatedAt(t, f, first, base)
		setUpdatedAt(t, f, second, base.Add(time.Hour))

		history, err := newTaskService(f, nil).TaskHistory(ctx, alice.ID, 10)
		require.NoError(t, err)
		require.Len(t, history, 2)
		assert.Equal(t, second.ID, history[0].Assignment.ID)
		assert.Equal(t, first.ID, history[1].Assignment.ID)
	})

	t.Run("limit caps the result", func(t *testing.T) {
		f := mocks.NewFakeStores()
		alice := seedReviewer(t, f, "alice", domain.RoleReviewer)
		for i := 0; i < 5; i++ {
			item := seedWorkItem(t, f, "batch/x.png", "text")
			seedReviewed(t, f, alice.ID, item.ID, domain.StatusApproved, nil)
		}

		history, err := newTaskService(f, nil).TaskHistory(ctx, alice.ID, 3)
		require.NoError(t, err)
		assert.Len(t, history, 3)
	})
}

func TestTaskService_GetTask(t *testing.T) {
	ctx := context.Background()

	t.Run("owner can read, stranger cannot", func(t *testing.T) {
		f := mocks.NewFakeStores()
		alice := seedReviewer(t, f, "alice", domain.RoleReviewer)
		bob := seedReviewer(t, f, "bob", domain.RoleReviewer)
		item := seedWorkItem(t, f, "batch/0001.png", "one")
		assignment := seedPending(t, f, alice.ID, item.ID)

		svc := newTaskService(f, nil)

		task, err := svc.GetTask(ctx, assignment.ID, &alice.ID)
		require.NoError(t, err)
		assert.Equal(t, assignment.ID, task.Assignment.ID)

		_, err = svc.GetTask(ctx, assignment.ID, &bob.ID)
		assert.True(t, errors.Is(err, service.ErrAssignmentNotFound))
	})

	t.Run("nil requester skips the ownership check", func(t *testing.T) {
		f := mocks.NewFakeStores()
		alice := seedReviewer(t, f, "alice", domain.RoleReviewer)
		item := seedWorkItem(t, f, "batch/0001.png", "one")
		assignment := seedPending(t, f, alice.ID, item.ID)

		task, err := newTaskService(f, nil).GetTask(ctx, assignment.ID, nil)
		require.NoError(t, err)
		assert.Equal(t, assignment.ID, task.Assignment.ID)
	})
}

func TestTaskService_DeleteAssignment(t *testing.T) {
	ctx := context.Background()

	t.Run("owner deletes", func(t *testing.T) {
		f := mocks.NewFakeStores()
		alice := seedReviewer(t, f, "alice", domain.RoleReviewer)
		item := seedWorkItem(t, f, "batch/0001.png", "one")
		assignment := seedPending(t, f, alice.ID, item.ID)

		require.NoError(t, newTaskService(f, nil).DeleteAssignment(ctx, assignment.ID, alice.ID))

		_, err := f.Assignments.GetByID(ctx, assignment.ID)
		assert.Error(t, err)
	})

	t.Run("stranger gets not found and the row survives", func(t *testing.T) {
		f := mocks.NewFakeStores()
		alice := seedReviewer(t, f, "alice", domain.RoleReviewer)
		bob := seedReviewer(t, f, "bob", domain.RoleReviewer)
		item := seedWorkItem(t, f, "batch/0001.png", "one")
		assignment := seedPending(t, f, alice.ID, item.ID)

		err := newTaskService(f, nil).DeleteAssignment(ctx, assignment.ID, bob.ID)
		assert.True(t, errors.Is(err, service.ErrAssignmentNotFound))

		_, err = f.Assignments.GetByID(ctx, assignment.ID)
		assert.NoError(t, err)
	})
}

func TestTaskService_DeleteAssignmentsByStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("removes only the selected statuses", func(t *testing.T) {
		f := mocks.NewFakeStores()
		alice := seedReviewer(t, f, "alice", domain.RoleReviewer)
		item1 := seedWorkItem(t, f, "batch/0001.png", "one")
		item2 := seedWorkItem(t, f, "batch/0002.png", "two")
		item3 := seedWorkItem(t, f, "batch/0003.png", "three")

		seedPending(t, f, alice.ID, item1.ID)
		seedReviewed(t, f, alice.ID, item2.ID, domain.StatusDiscarded, nil)
		kept := seedReviewed(t, f, alice.ID, item3.ID, domain.StatusApproved, nil)

		deleted, err := newTaskService(f, nil).DeleteAssignmentsByStatus(ctx, alice.ID,
			[]domain.AssignmentStatus{domain.StatusPending, domain.StatusDiscarded})
		require.NoError(t, err)
		assert.Equal(t, int64(2), deleted)

		_, err = f.Assignments.GetByID(ctx, kept.ID)
		assert.NoError(t, err)
	})

	t.Run("empty status list is rejected", func(t *testing.T) {
		f := mocks.NewFakeStores()
		alice := seedReviewer(t, f, "alice", domain.RoleReviewer)

		_, err := newTaskService(f, nil).DeleteAssignmentsByStatus(ctx, alice.ID, nil)
		assert.True(t, errors.Is(err, service.ErrNoStatusesSelected))
	})

	t.Run("invalid status is rejected", func(t *testing.T) {
		f := mocks.NewFakeStores()
		alice := seedReviewer(t, f, "alice", domain.RoleReviewer)

		_, err := newTaskService(f, nil).DeleteAssignmentsByStatus(ctx, alice.ID,
			[]domain.AssignmentStatus{domain.AssignmentStatus("bogus")})
		assert.True(t, errors.Is(err, service.ErrInvalidStatus))
	})
}
