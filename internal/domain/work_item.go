package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common validation errors for WorkItem
var (
	ErrEmptyWorkItemID         = errors.New("work item ID cannot be empty")
	ErrEmptyWorkItemContentRef = errors.New("work item content reference cannot be empty")
	ErrEmptyWorkItemText       = errors.New("work item initial text cannot be empty")
)

// WorkItem is an immutable unit of review work: an opaque content
// reference (typically an image path) plus the machine-generated initial
// guess text produced by the upstream recognition pipeline. Work items are
// created by an administrative import step and never mutated afterwards.
type WorkItem struct {
	ID          uuid.UUID `json:"id"`
	ContentRef  string    `json:"content_ref"`
	InitialText string    `json:"initial_text"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewWorkItem creates a new WorkItem with the given content reference and
// initial guess text. It generates a new UUID and sets the creation
// timestamp. Returns an error if validation fails.
func NewWorkItem(contentRef, initialText string) (*WorkItem, error) {
	item := &WorkItem{
		ID:          uuid.New(),
		ContentRef:  contentRef,
		InitialText: initialText,
		CreatedAt:   time.Now().UTC(),
	}

	if err := item.Validate(); err != nil {
		return nil, err
	}

	return item, nil
}

// Validate checks if the WorkItem has valid data.
func (w *WorkItem) Validate() error {
	if w.ID == uuid.Nil {
		return ErrEmptyWorkItemID
	}

	if w.ContentRef == "" {
		return ErrEmptyWorkItemContentRef
	}

	if w.InitialText == "" {
		return ErrEmptyWorkItemText
	}

	return nil
}
