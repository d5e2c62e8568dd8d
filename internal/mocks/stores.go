package mocks

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/tsunayoshi21/Labeling-app/internal/domain"
	"github.com/tsunayoshi21/Labeling-app/internal/store"
)

// state is the shared backing data of one FakeStores instance: the
// three entity tables plus the work item import sequence.
type state struct {
	mu sync.Mutex

	reviewers     map[uuid.UUID]*domain.Reviewer
	reviewerOrder []uuid.UUID

	items     map[uuid.UUID]*domain.WorkItem
	itemOrder []uuid.UUID
	itemSeq   map[uuid.UUID]int64
	nextSeq   int64

	assignments     map[uuid.UUID]*domain.Assignment
	assignmentOrder []uuid.UUID
}

// FakeStores bundles in-memory implementations of every store
// interface over one shared data set, so cross-entity semantics
// (allocation eligibility, cascades, joins) behave like the real
// schema.
type FakeStores struct {
	s *state

	Reviewers   *FakeReviewerStore
	WorkItems   *FakeWorkItemStore
	Assignments *FakeAssignmentStore
	Stats       *FakeStatsStore
}

// NewFakeStores creates an empty in-memory data set with store views
// over it.
func NewFakeStores() *FakeStores {
	s := &state{
		reviewers:   make(map[uuid.UUID]*domain.Reviewer),
		items:       make(map[uuid.UUID]*domain.WorkItem),
		itemSeq:     make(map[uuid.UUID]int64),
		assignments: make(map[uuid.UUID]*domain.Assignment),
	}
	return &FakeStores{
		s:           s,
		Reviewers:   &FakeReviewerStore{s: s},
		WorkItems:   &FakeWorkItemStore{s: s},
		Assignments: &FakeAssignmentStore{s: s},
		Stats:       &FakeStatsStore{s: s},
	}
}

func cloneReviewer(r *domain.Reviewer) *domain.Reviewer {
	c := *r
	return &c
}

func cloneItem(i *domain.WorkItem) *domain.WorkItem {
	c := *i
	return &c
}

func cloneAssignment(a *domain.Assignment) *domain.Assignment {
	c := *a
	if a.CorrectedText != nil {
		text := *a.CorrectedText
		c.CorrectedText = &text
	}
	return &c
}

// FakeReviewerStore is an in-memory store.ReviewerStore.
type FakeReviewerStore struct {
	s *state
}

var _ store.ReviewerStore = (*FakeReviewerStore)(nil)

func (f *FakeReviewerStore) Create(_ context.Context, reviewer *domain.Reviewer) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	for _, existing := range f.s.reviewers {
		if existing.Name == reviewer.Name {
			return store.ErrReviewerNameExists
		}
	}
	f.s.reviewers[reviewer.ID] = cloneReviewer(reviewer)
	f.s.reviewerOrder = append(f.s.reviewerOrder, reviewer.ID)
	return nil
}

func (f *FakeReviewerStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Reviewer, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	reviewer, ok := f.s.reviewers[id]
	if !ok {
		return nil, store.ErrReviewerNotFound
	}
	return cloneReviewer(reviewer), nil
}

func (f *FakeReviewerStore) GetByName(_ context.Context, name string) (*domain.Reviewer, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	for _, reviewer := range f.s.reviewers {
		if reviewer.Name == name {
			return cloneReviewer(reviewer), nil
		}
	}
	return nil, store.ErrReviewerNotFound
}

func (f *FakeReviewerStore) GetReference(_ context.Context) (*domain.Reviewer, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	for _, id := range f.s.reviewerOrder {
		if reviewer, ok := f.s.reviewers[id]; ok && reviewer.Role == domain.RoleReference {
			return cloneReviewer(reviewer), nil
		}
	}
	return nil, store.ErrReferenceReviewerNotFound
}

func (f *FakeReviewerStore) List(_ context.Context) ([]*domain.Reviewer, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	reviewers := make([]*domain.Reviewer, 0, len(f.s.reviewers))
	for _, reviewer := range f.s.reviewers {
		reviewers = append(reviewers, cloneReviewer(reviewer))
	}
	sort.Slice(reviewers, func(i, j int) bool { return reviewers[i].Name < reviewers[j].Name })
	return reviewers, nil
}

func (f *FakeReviewerStore) Delete(_ context.Context, id uuid.UUID) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	if _, ok := f.s.reviewers[id]; !ok {
		return store.ErrReviewerNotFound
	}
	delete(f.s.reviewers, id)
	for i, rid := range f.s.reviewerOrder {
		if rid == id {
			f.s.reviewerOrder = append(f.s.reviewerOrder[:i], f.s.reviewerOrder[i+1:]...)
			break
		}
	}
	// The schema cascades reviewer deletion to their assignments.
	f.deleteAssignmentsWhereLocked(func(a *domain.Assignment) bool { return a.ReviewerID == id })
	return nil
}

func (f *FakeReviewerStore) deleteAssignmentsWhereLocked(match func(*domain.Assignment) bool) {
	kept := f.s.assignmentOrder[:0]
	for _, aid := range f.s.assignmentOrder {
		if a, ok := f.s.assignments[aid]; ok && match(a) {
			delete(f.s.assignments, aid)
			continue
		}
		kept = append(kept, aid)
	}
	f.s.assignmentOrder = kept
}

func (f *FakeReviewerStore) WithTx(_ *sql.Tx) store.ReviewerStore { return f }

// FakeWorkItemStore is an in-memory store.WorkItemStore. Its "random"
// selections are deterministic, in import order, which keeps tests
// stable while preserving the eligibility rules.
type FakeWorkItemStore struct {
	s *state
}

var _ store.WorkItemStore = (*FakeWorkItemStore)(nil)

func (f *FakeWorkItemStore) Create(_ context.Context, item *domain.WorkItem) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	f.s.nextSeq++
	f.s.items[item.ID] = cloneItem(item)
	f.s.itemOrder = append(f.s.itemOrder, item.ID)
	f.s.itemSeq[item.ID] = f.s.nextSeq
	return nil
}

func (f *FakeWorkItemStore) GetByID(_ context.Context, id uuid.UUID) (*domain.WorkItem, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	item, ok := f.s.items[id]
	if !ok {
		return nil, store.ErrWorkItemNotFound
	}
	return cloneItem(item), nil
}

func (f *FakeWorkItemStore) List(_ context.Context) ([]*domain.WorkItem, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	items := make([]*domain.WorkItem, 0, len(f.s.itemOrder))
	for _, id := range f.s.itemOrder {
		items = append(items, cloneItem(f.s.items[id]))
	}
	return items, nil
}

func (f *FakeWorkItemStore) RandomUntouched(_ context.Context, referenceID uuid.UUID, limit int) ([]*domain.WorkItem, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	var result []*domain.WorkItem
	for _, id := range f.s.itemOrder {
		if len(result) >= limit {
			break
		}
		if f.untouchedLocked(id, referenceID) {
			result = append(result, cloneItem(f.s.items[id]))
		}
	}
	return result, nil
}

// untouchedLocked reports whether no non-reference reviewer holds the
// item and the reference does not hold it pending.
func (f *FakeWorkItemStore) untouchedLocked(itemID, referenceID uuid.UUID) bool {
	for _, a := range f.s.assignments {
		if a.WorkItemID != itemID {
			continue
		}
		if a.ReviewerID != referenceID {
			return false
		}
		if a.Status == domain.StatusPending {
			return false
		}
	}
	return true
}

func (f *FakeWorkItemStore) RandomFinalizedByReference(
	_ context.Context,
	referenceID uuid.UUID,
	reviewerID uuid.UUID,
	limit int,
) ([]*domain.WorkItem, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	var result []*domain.WorkItem
	for _, id := range f.s.itemOrder {
		if len(result) >= limit {
			break
		}
		finalized := false
		held := false
		for _, a := range f.s.assignments {
			if a.WorkItemID != id {
				continue
			}
			if a.ReviewerID == referenceID && a.Status != domain.StatusPending {
				finalized = true
			}
			if a.ReviewerID == reviewerID {
				held = true
			}
		}
		if finalized && !held {
			result = append(result, cloneItem(f.s.items[id]))
		}
	}
	return result, nil
}

func (f *FakeWorkItemStore) WithTx(_ *sql.Tx) store.WorkItemStore { return f }

// FakeAssignmentStore is an in-memory store.AssignmentStore.
type FakeAssignmentStore struct {
	s *state
}

var _ store.AssignmentStore = (*FakeAssignmentStore)(nil)

func (f *FakeAssignmentStore) Create(_ context.Context, assignment *domain.Assignment) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	for _, a := range f.s.assignments {
		if a.ReviewerID == assignment.ReviewerID && a.WorkItemID == assignment.WorkItemID {
			return store.ErrDuplicateAssignment
		}
	}
	if _, ok := f.s.reviewers[assignment.ReviewerID]; !ok {
		return fmt.Errorf("%w: unknown reviewer", store.ErrInvalidEntity)
	}
	if _, ok := f.s.items[assignment.WorkItemID]; !ok {
		return fmt.Errorf("%w: unknown work item", store.ErrInvalidEntity)
	}

	f.s.assignments[assignment.ID] = cloneAssignment(assignment)
	f.s.assignmentOrder = append(f.s.assignmentOrder, assignment.ID)
	return nil
}

func (f *FakeAssignmentStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Assignment, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	assignment, ok := f.s.assignments[id]
	if !ok {
		return nil, store.ErrAssignmentNotFound
	}
	return cloneAssignment(assignment), nil
}

func (f *FakeAssignmentStore) GetByPair(_ context.Context, reviewerID, workItemID uuid.UUID) (*domain.Assignment, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	for _, a := range f.s.assignments {
		if a.ReviewerID == reviewerID && a.WorkItemID == workItemID {
			return cloneAssignment(a), nil
		}
	}
	return nil, store.ErrAssignmentNotFound
}

func (f *FakeAssignmentStore) ExistsForPair(_ context.Context, reviewerID, workItemID uuid.UUID) (bool, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	for _, a := range f.s.assignments {
		if a.ReviewerID == reviewerID && a.WorkItemID == workItemID {
			return true, nil
		}
	}
	return false, nil
}

func (f *FakeAssignmentStore) Update(_ context.Context, assignment *domain.Assignment) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	if _, ok := f.s.assignments[assignment.ID]; !ok {
		return store.ErrAssignmentNotFound
	}
	for _, a := range f.s.assignments {
		if a.ID != assignment.ID &&
			a.ReviewerID == assignment.ReviewerID &&
			a.WorkItemID == assignment.WorkItemID {
			return store.ErrDuplicateAssignment
		}
	}
	f.s.assignments[assignment.ID] = cloneAssignment(assignment)
	return nil
}

func (f *FakeAssignmentStore) Delete(_ context.Context, id uuid.UUID) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	if _, ok := f.s.assignments[id]; !ok {
		return store.ErrAssignmentNotFound
	}
	delete(f.s.assignments, id)
	for i, aid := range f.s.assignmentOrder {
		if aid == id {
			f.s.assignmentOrder = append(f.s.assignmentOrder[:i], f.s.assignmentOrder[i+1:]...)
			break
		}
	}
	return nil
}

func (f *FakeAssignmentStore) DeleteByStatuses(
	_ context.Context,
	reviewerID uuid.UUID,
	statuses []domain.AssignmentStatus,
) (int64, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	inSet := statusSet(statuses)
	var deleted int64
	kept := f.s.assignmentOrder[:0]
	for _, aid := range f.s.assignmentOrder {
		a := f.s.assignments[aid]
		if a.ReviewerID == reviewerID && inSet[a.Status] {
			delete(f.s.assignments, aid)
			deleted++
			continue
		}
		kept = append(kept, aid)
	}
	f.s.assignmentOrder = kept
	return deleted, nil
}

func (f *FakeAssignmentStore) ListByReviewerAndStatuses(
	_ context.Context,
	reviewerID uuid.UUID,
	statuses []domain.AssignmentStatus,
) ([]*domain.Assignment, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	inSet := statusSet(statuses)
	var result []*domain.Assignment
	for _, aid := range f.s.assignmentOrder {
		a := f.s.assignments[aid]
		if a.ReviewerID == reviewerID && inSet[a.Status] {
			result = append(result, cloneAssignment(a))
		}
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].UpdatedAt.Before(result[j].UpdatedAt) })
	return result, nil
}

func (f *FakeAssignmentStore) ListByWorkItem(_ context.Context, workItemID uuid.UUID) ([]*domain.Assignment, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	var result []*domain.Assignment
	for _, aid := range f.s.assignmentOrder {
		a := f.s.assignments[aid]
		if a.WorkItemID == workItemID {
			result = append(result, cloneAssignment(a))
		}
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].UpdatedAt.Before(result[j].UpdatedAt) })
	return result, nil
}

func (f *FakeAssignmentStore) FirstPendingWithItem(ctx context.Context, reviewerID uuid.UUID) (*store.TaskWithItem, error) {
	tasks, err := f.PendingWithItems(ctx, reviewerID, 1)
	if err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		return nil, store.ErrAssignmentNotFound
	}
	return tasks[0], nil
}

func (f *FakeAssignmentStore) HistoryWithItems(_ context.Context, reviewerID uuid.UUID, limit int) ([]*store.TaskWithItem, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	var matched []*domain.Assignment
	for _, a := range f.s.assignments {
		if a.ReviewerID == reviewerID && a.Status != domain.StatusPending {
			matched = append(matched, a)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool { return matched[i].UpdatedAt.After(matched[j].UpdatedAt) })
	return f.tasksLocked(matched, limit), nil
}

func (f *FakeAssignmentStore) PendingWithItems(_ context.Context, reviewerID uuid.UUID, limit int) ([]*store.TaskWithItem, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	var matched []*domain.Assignment
	for _, a := range f.s.assignments {
		if a.ReviewerID == reviewerID && a.Status == domain.StatusPending {
			matched = append(matched, a)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool { return matched[i].UpdatedAt.Before(matched[j].UpdatedAt) })
	return f.tasksLocked(matched, limit), nil
}

func (f *FakeAssignmentStore) GetWithItem(
	_ context.Context,
	assignmentID uuid.UUID,
	reviewerID *uuid.UUID,
) (*store.TaskWithItem, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	a, ok := f.s.assignments[assignmentID]
	if !ok {
		return nil, store.ErrAssignmentNotFound
	}
	if reviewerID != nil && a.ReviewerID != *reviewerID {
		return nil, store.ErrAssignmentNotFound
	}
	tasks := f.tasksLocked([]*domain.Assignment{a}, 1)
	if len(tasks) == 0 {
		return nil, store.ErrWorkItemNotFound
	}
	return tasks[0], nil
}

func (f *FakeAssignmentStore) ListWithItemsByReviewer(_ context.Context, reviewerID uuid.UUID) ([]*store.TaskWithItem, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	var matched []*domain.Assignment
	for _, a := range f.s.assignments {
		if a.ReviewerID == reviewerID {
			matched = append(matched, a)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool { return matched[i].UpdatedAt.After(matched[j].UpdatedAt) })
	return f.tasksLocked(matched, len(matched)), nil
}

func (f *FakeAssignmentStore) FindDiscrepancies(
	_ context.Context,
	referenceID uuid.UUID,
	reviewerIDs []uuid.UUID,
) ([]*store.Discrepancy, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	filter := make(map[uuid.UUID]bool, len(reviewerIDs))
	for _, id := range reviewerIDs {
		filter[id] = true
	}

	var result []*store.Discrepancy
	for _, aid := range f.s.assignmentOrder {
		a := f.s.assignments[aid]
		if a.ReviewerID == referenceID || a.Status == domain.StatusPending {
			continue
		}
		if len(filter) > 0 && !filter[a.ReviewerID] {
			continue
		}
		var ref *domain.Assignment
		for _, other := range f.s.assignments {
			if other.ReviewerID == referenceID &&
				other.WorkItemID == a.WorkItemID &&
				other.Status != domain.StatusPending {
				ref = other
				break
			}
		}
		if ref == nil || textsMatch(a.CorrectedText, ref.CorrectedText) {
			continue
		}
		item := f.s.items[a.WorkItemID]
		reviewer := f.s.reviewers[a.ReviewerID]
		result = append(result, &store.Discrepancy{
			WorkItemID:            item.ID,
			ContentRef:            item.ContentRef,
			InitialText:           item.InitialText,
			ReviewerID:            a.ReviewerID,
			ReviewerName:          reviewer.Name,
			AssignmentID:          a.ID,
			ReviewerText:          cloneAssignment(a).CorrectedText,
			ReviewerStatus:        a.Status,
			ReviewerUpdatedAt:     a.UpdatedAt,
			ReferenceAssignmentID: ref.ID,
			ReferenceText:         cloneAssignment(ref).CorrectedText,
			ReferenceStatus:       ref.Status,
			ReferenceUpdatedAt:    ref.UpdatedAt,
		})
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].ReviewerUpdatedAt.After(result[j].ReviewerUpdatedAt)
	})
	return result, nil
}

func (f *FakeAssignmentStore) WithTx(_ *sql.Tx) store.AssignmentStore { return f }

// tasksLocked joins assignments with their work items. Caller holds the
// state lock.
func (f *FakeAssignmentStore) tasksLocked(assignments []*domain.Assignment, limit int) []*store.TaskWithItem {
	tasks := make([]*store.TaskWithItem, 0, len(assignments))
	for _, a := range assignments {
		if len(tasks) >= limit {
			break
		}
		item, ok := f.s.items[a.WorkItemID]
		if !ok {
			continue
		}
		tasks = append(tasks, &store.TaskWithItem{
			Assignment: *cloneAssignment(a),
			WorkItem:   *cloneItem(item),
		})
	}
	return tasks
}

func statusSet(statuses []domain.AssignmentStatus) map[domain.AssignmentStatus]bool {
	set := make(map[domain.AssignmentStatus]bool, len(statuses))
	for _, status := range statuses {
		set[status] = true
	}
	return set
}

// textsMatch compares two nullable texts, treating two NULLs as equal
// and NULL against any stored text as different.
func textsMatch(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
