package mocks

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/tsunayoshi21/Labeling-app/internal/domain"
	"github.com/tsunayoshi21/Labeling-app/internal/store"
)

// FakeStatsStore computes the aggregate queries over the shared
// in-memory data set.
type FakeStatsStore struct {
	s *state
}

var _ store.StatsStore = (*FakeStatsStore)(nil)

func (f *FakeStatsStore) ReviewerCounts(_ context.Context, reviewerID uuid.UUID) (*store.StatusCounts, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	counts := &store.StatusCounts{}
	for _, a := range f.s.assignments {
		if a.ReviewerID != reviewerID {
			continue
		}
		counts.Total++
		switch a.Status {
		case domain.StatusPending:
			counts.Pending++
		case domain.StatusCorrected:
			counts.Corrected++
		case domain.StatusApproved:
			counts.Approved++
		case domain.StatusDiscarded:
			counts.Discarded++
		}
	}
	return counts, nil
}

func (f *FakeStatsStore) SystemCounts(_ context.Context) (*store.SystemCounts, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	counts := &store.SystemCounts{
		TotalReviewers: len(f.s.reviewers),
		TotalWorkItems: len(f.s.items),
	}
	annotated := make(map[uuid.UUID]bool)
	for _, a := range f.s.assignments {
		if a.Status != domain.StatusPending {
			annotated[a.WorkItemID] = true
		}
		reviewer, ok := f.s.reviewers[a.ReviewerID]
		if !ok || reviewer.Role == domain.RoleReference {
			continue
		}
		counts.TotalAssignments++
		if a.Status == domain.StatusPending {
			counts.PendingTasks++
		} else {
			counts.CompletedTasks++
		}
	}
	counts.AnnotatedWorkItems = len(annotated)
	return counts, nil
}

func (f *FakeStatsStore) AgreementPairs(
	_ context.Context,
	referenceID uuid.UUID,
	reviewerID *uuid.UUID,
) ([]*store.AgreementPair, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	reviewed := make(map[uuid.UUID]*domain.Assignment)
	for _, a := range f.s.assignments {
		if a.ReviewerID == referenceID && a.Status != domain.StatusPending {
			reviewed[a.WorkItemID] = a
		}
	}

	pairs := []*store.AgreementPair{}
	for _, aid := range f.s.assignmentOrder {
		a := f.s.assignments[aid]
		if a.ReviewerID == referenceID || a.Status == domain.StatusPending {
			continue
		}
		if reviewerID != nil && a.ReviewerID != *reviewerID {
			continue
		}
		ref, ok := reviewed[a.WorkItemID]
		if !ok {
			continue
		}
		pairs = append(pairs, &store.AgreementPair{
			ReviewerID:    a.ReviewerID,
			WorkItemID:    a.WorkItemID,
			ReviewerText:  cloneAssignment(a).CorrectedText,
			ReferenceText: cloneAssignment(ref).CorrectedText,
		})
	}
	return pairs, nil
}

func (f *FakeStatsStore) RecentActivity(_ context.Context, limit int) ([]*store.ReviewerActivity, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	byReviewer := make(map[uuid.UUID]*store.ReviewerActivity)
	lastActivity := make(map[uuid.UUID]time.Time)
	for _, a := range f.s.assignments {
		entry, ok := byReviewer[a.ReviewerID]
		if !ok {
			reviewer, found := f.s.reviewers[a.ReviewerID]
			if !found {
				continue
			}
			entry = &store.ReviewerActivity{ReviewerID: reviewer.ID, Name: reviewer.Name}
			byReviewer[a.ReviewerID] = entry
		}
		entry.TotalAssigned++
		switch a.Status {
		case domain.StatusPending:
		case domain.StatusApproved:
			entry.Completed++
			entry.Approved++
		case domain.StatusCorrected:
			entry.Completed++
			entry.Corrected++
		case domain.StatusDiscarded:
			entry.Completed++
			entry.Discarded++
		}
		if a.Status != domain.StatusPending && a.UpdatedAt.After(lastActivity[a.ReviewerID]) {
			lastActivity[a.ReviewerID] = a.UpdatedAt
		}
	}

	result := []*store.ReviewerActivity{}
	for id, entry := range byReviewer {
		// Reviewers with no reviewed assignments have no activity yet.
		last, ok := lastActivity[id]
		if !ok {
			continue
		}
		entry.LastActivity = last
		result = append(result, entry)
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].LastActivity.After(result[j].LastActivity)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (f *FakeStatsStore) ReviewersWithStats(_ context.Context) ([]*store.ReviewerWithStats, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	result := make([]*store.ReviewerWithStats, 0, len(f.s.reviewers))
	for _, reviewer := range f.s.reviewers {
		entry := &store.ReviewerWithStats{
			ReviewerID: reviewer.ID,
			Name:       reviewer.Name,
			Role:       reviewer.Role,
		}
		for _, a := range f.s.assignments {
			if a.ReviewerID != reviewer.ID {
				continue
			}
			entry.TotalAssigned++
			if a.Status == domain.StatusPending {
				entry.Pending++
			} else {
				entry.Completed++
			}
		}
		result = append(result, entry)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (f *FakeStatsStore) WorkItemsWithStats(_ context.Context) ([]*store.WorkItemWithStats, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	result := make([]*store.WorkItemWithStats, 0, len(f.s.itemOrder))
	for _, id := range f.s.itemOrder {
		item := f.s.items[id]
		entry := &store.WorkItemWithStats{
			WorkItemID:  item.ID,
			ContentRef:  item.ContentRef,
			InitialText: item.InitialText,
		}
		for _, a := range f.s.assignments {
			if a.WorkItemID != id {
				continue
			}
			entry.TotalAssignments++
			switch a.Status {
			case domain.StatusPending:
				entry.Pending++
			case domain.StatusCorrected:
				entry.Corrected++
			case domain.StatusApproved:
				entry.Approved++
			case domain.StatusDiscarded:
				entry.Discarded++
			}
		}
		result = append(result, entry)
	}
	return result, nil
}

func (f *FakeStatsStore) ExportRows(_ context.Context) ([]*store.ExportRow, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	rows := []*store.ExportRow{}
	for _, aid := range f.s.assignmentOrder {
		a := f.s.assignments[aid]
		if a.Status == domain.StatusPending {
			continue
		}
		reviewer, ok := f.s.reviewers[a.ReviewerID]
		if !ok {
			continue
		}
		seq, ok := f.s.itemSeq[a.WorkItemID]
		if !ok {
			continue
		}
		rows = append(rows, &store.ExportRow{
			WorkItemSeq:  seq,
			ReviewerName: reviewer.Name,
			Text:         cloneAssignment(a).CorrectedText,
		})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].WorkItemSeq != rows[j].WorkItemSeq {
			return rows[i].WorkItemSeq < rows[j].WorkItemSeq
		}
		return rows[i].ReviewerName < rows[j].ReviewerName
	})
	return rows, nil
}
