package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// AssignmentStatus represents the review state of an Assignment.
type AssignmentStatus string

// Possible assignment status values. An assignment starts pending; the
// three reviewed states are terminal only from the caller's perspective,
// re-transitions between them model re-review.
const (
	StatusPending   AssignmentStatus = "pending"
	StatusCorrected AssignmentStatus = "corrected"
	StatusApproved  AssignmentStatus = "approved"
	StatusDiscarded AssignmentStatus = "discarded"
)

// IsValid reports whether the status is one of the four known values.
func (s AssignmentStatus) IsValid() bool {
	return isValidAssignmentStatus(s)
}

// ReviewedStatuses lists the non-pending states in a stable order.
func ReviewedStatuses() []AssignmentStatus {
	return []AssignmentStatus{StatusCorrected, StatusApproved, StatusDiscarded}
}

// Common validation errors for Assignment
var (
	ErrEmptyAssignmentID         = errors.New("assignment ID cannot be empty")
	ErrEmptyAssignmentReviewerID = errors.New("assignment reviewer ID cannot be empty")
	ErrEmptyAssignmentWorkItemID = errors.New("assignment work item ID cannot be empty")
	ErrInvalidAssignmentStatus   = errors.New("invalid assignment status")
	ErrPendingWithText           = errors.New("pending assignment cannot carry corrected text")
)

// Assignment binds exactly one Reviewer to exactly one WorkItem and tracks
// the correction lifecycle. At most one assignment may exist per
// (reviewer, work item) pair at any time; the store enforces this with a
// unique constraint and callers re-check it inside the inserting
// transaction.
type Assignment struct {
	ID            uuid.UUID        `json:"id"`
	WorkItemID    uuid.UUID        `json:"work_item_id"`
	ReviewerID    uuid.UUID        `json:"reviewer_id"`
	CorrectedText *string          `json:"corrected_text"`
	Status        AssignmentStatus `json:"status"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// NewAssignment creates a pending Assignment binding the given reviewer to
// the given work item. Returns an error if validation fails.
func NewAssignment(reviewerID, workItemID uuid.UUID) (*Assignment, error) {
	assignment := &Assignment{
		ID:         uuid.New(),
		WorkItemID: workItemID,
		ReviewerID: reviewerID,
		Status:     StatusPending,
		UpdatedAt:  time.Now().UTC(),
	}

	if err := assignment.Validate(); err != nil {
		return nil, err
	}

	return assignment, nil
}

// Validate checks if the Assignment has valid data.
func (a *Assignment) Validate() error {
	if a.ID == uuid.Nil {
		return ErrEmptyAssignmentID
	}

	if a.ReviewerID == uuid.Nil {
		return ErrEmptyAssignmentReviewerID
	}

	if a.WorkItemID == uuid.Nil {
		return ErrEmptyAssignmentWorkItemID
	}

	if !isValidAssignmentStatus(a.Status) {
		return ErrInvalidAssignmentStatus
	}

	if a.Status == StatusPending && a.CorrectedText != nil {
		return ErrPendingWithText
	}

	return nil
}

// SetStatus moves the assignment to the given status, stores the corrected
// text when one is supplied, and refreshes the UpdatedAt timestamp. A nil
// text leaves the stored text untouched, except that moving back to pending
// always clears it: pending assignments never carry corrected text.
// Returns an error if the status is not one of the four valid values.
func (a *Assignment) SetStatus(status AssignmentStatus, correctedText *string) error {
	if !isValidAssignmentStatus(status) {
		return ErrInvalidAssignmentStatus
	}

	a.Status = status
	if correctedText != nil {
		a.CorrectedText = correctedText
	}
	if status == StatusPending {
		a.CorrectedText = nil
	}
	a.UpdatedAt = time.Now().UTC()
	return nil
}

// EffectiveText returns the text this assignment stands for: the corrected
// text when one was stored, otherwise the work item's initial guess.
func (a *Assignment) EffectiveText(initialText string) string {
	if a.CorrectedText != nil {
		return *a.CorrectedText
	}
	return initialText
}

// IsReviewed reports whether the assignment left the pending state.
func (a *Assignment) IsReviewed() bool {
	return a.Status != StatusPending
}

// isValidAssignmentStatus checks if the given status is a valid AssignmentStatus.
func isValidAssignmentStatus(status AssignmentStatus) bool {
	switch status {
	case StatusPending, StatusCorrected, StatusApproved, StatusDiscarded:
		return true
	default:
		return false
	}
}
