package store

import (
	"time"

	"github.com/google/uuid"
	"github.com/tsunayoshi21/Labeling-app/internal/domain"
)

// TaskWithItem is a value snapshot of an assignment joined with its work
// item, detached from any database session.
type TaskWithItem struct {
	Assignment domain.Assignment `json:"assignment"`
	WorkItem   domain.WorkItem   `json:"work_item"`
}

// Discrepancy describes one work item where the reference reviewer and
// another reviewer stored different final text.
type Discrepancy struct {
	WorkItemID  uuid.UUID `json:"work_item_id"`
	ContentRef  string    `json:"content_ref"`
	InitialText string    `json:"initial_text"`

	ReviewerID        uuid.UUID               `json:"reviewer_id"`
	ReviewerName      string                  `json:"reviewer_name"`
	AssignmentID      uuid.UUID               `json:"assignment_id"`
	ReviewerText      *string                 `json:"reviewer_text"`
	ReviewerStatus    domain.AssignmentStatus `json:"reviewer_status"`
	ReviewerUpdatedAt time.Time               `json:"reviewer_updated_at"`

	ReferenceAssignmentID uuid.UUID               `json:"reference_assignment_id"`
	ReferenceText         *string                 `json:"reference_text"`
	ReferenceStatus       domain.AssignmentStatus `json:"reference_status"`
	ReferenceUpdatedAt    time.Time               `json:"reference_updated_at"`
}

// StatusCounts holds per-status assignment counts for one reviewer.
type StatusCounts struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Corrected int `json:"corrected"`
	Approved  int `json:"approved"`
	Discarded int `json:"discarded"`
}

// SystemCounts holds the raw system-wide totals. Derived values (the
// unannotated count, the progress percentage) are computed by the
// statistics service.
type SystemCounts struct {
	TotalReviewers     int `json:"total_reviewers"`
	TotalWorkItems     int `json:"total_work_items"`
	TotalAssignments   int `json:"total_assignments"`
	PendingTasks       int `json:"pending_tasks"`
	CompletedTasks     int `json:"completed_tasks"`
	AnnotatedWorkItems int `json:"annotated_work_items"`
}

// AgreementPair is one comparable (reviewer, reference) text pair for a
// work item both have reviewed.
type AgreementPair struct {
	ReviewerID    uuid.UUID `json:"reviewer_id"`
	WorkItemID    uuid.UUID `json:"work_item_id"`
	ReviewerText  *string   `json:"reviewer_text"`
	ReferenceText *string   `json:"reference_text"`
}

// ReviewerActivity summarizes a reviewer's recent review work.
type ReviewerActivity struct {
	ReviewerID    uuid.UUID `json:"reviewer_id"`
	Name          string    `json:"name"`
	LastActivity  time.Time `json:"last_activity"`
	TotalAssigned int       `json:"total_assigned"`
	Completed     int       `json:"completed"`
	Approved      int       `json:"approved"`
	Corrected     int       `json:"corrected"`
	Discarded     int       `json:"discarded"`
}

// ReviewerWithStats pairs a reviewer with its workload counts.
type ReviewerWithStats struct {
	ReviewerID    uuid.UUID           `json:"reviewer_id"`
	Name          string              `json:"name"`
	Role          domain.ReviewerRole `json:"role"`
	TotalAssigned int                 `json:"total_assigned"`
	Completed     int                 `json:"completed"`
	Pending       int                 `json:"pending"`
}

// WorkItemWithStats pairs a work item with its per-status assignment counts.
type WorkItemWithStats struct {
	WorkItemID       uuid.UUID `json:"work_item_id"`
	ContentRef       string    `json:"content_ref"`
	InitialText      string    `json:"initial_text"`
	TotalAssignments int       `json:"total_assignments"`
	Pending          int       `json:"pending"`
	Corrected        int       `json:"corrected"`
	Approved         int       `json:"approved"`
	Discarded        int       `json:"discarded"`
}

// ExportRow is one reviewed assignment flattened for export: the work
// item's import sequence number, the reviewer's name and the stored text.
type ExportRow struct {
	WorkItemSeq  int64   `json:"work_item_seq"`
	ReviewerName string  `json:"reviewer_name"`
	Text         *string `json:"text"`
}
