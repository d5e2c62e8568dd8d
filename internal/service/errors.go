package service

import (
	"errors"
)

// Common error types for the task engine services. NotFound and invalid
// argument errors are surfaced to the caller unchanged and are not
// retryable; transaction failures come out of the store layer wrapped in
// store.ErrTransactionFailed and may be retried.
var (
	// ErrReviewerNotFound indicates that the referenced reviewer does not exist.
	ErrReviewerNotFound = errors.New("reviewer not found")

	// ErrWorkItemNotFound indicates that the referenced work item does not exist.
	ErrWorkItemNotFound = errors.New("work item not found")

	// ErrAssignmentNotFound indicates that the assignment does not exist or
	// does not belong to the requesting reviewer.
	ErrAssignmentNotFound = errors.New("assignment not found")

	// ErrReferenceNotFound indicates that no reviewer holds the reference role.
	ErrReferenceNotFound = errors.New("no reference reviewer configured")

	// ErrInvalidStatus indicates a status value outside the four valid states.
	ErrInvalidStatus = errors.New("invalid assignment status")

	// ErrInvalidCount indicates a non-positive allocation count.
	ErrInvalidCount = errors.New("count must be positive")

	// ErrSelfTransfer indicates a transfer where source and destination are
	// the same reviewer.
	ErrSelfTransfer = errors.New("source and destination reviewer are the same")

	// ErrNoStatusesSelected indicates a transfer with both status flags off.
	ErrNoStatusesSelected = errors.New("no statuses selected for transfer")

	// ErrWorkItemMismatch indicates a consolidation across two assignments
	// that reference different work items.
	ErrWorkItemMismatch = errors.New("assignments reference different work items")

	// ErrNoPendingTasks indicates that the reviewer's task queue is empty.
	ErrNoPendingTasks = errors.New("no pending tasks")

	// ErrReviewerNameTaken indicates that the reviewer name is already in use.
	ErrReviewerNameTaken = errors.New("reviewer name already in use")
)
