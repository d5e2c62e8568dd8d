package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/tsunayoshi21/Labeling-app/internal/domain"
	"github.com/tsunayoshi21/Labeling-app/internal/store"
)

// LoginRequest represents the login request body.
type LoginRequest struct {
	Name     string `json:"name" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse represents the login response body.
type LoginResponse struct {
	Token    string           `json:"token"`
	Reviewer ReviewerResponse `json:"reviewer"`
}

// ReviewerResponse represents the response data for a reviewer. The
// password hash never leaves the server.
type ReviewerResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// WorkItemResponse represents the response data for a work item.
type WorkItemResponse struct {
	ID          string    `json:"id"`
	ContentRef  string    `json:"content_ref"`
	InitialText string    `json:"initial_text"`
	CreatedAt   time.Time `json:"created_at"`
}

// AssignmentResponse represents the response data for an assignment.
type AssignmentResponse struct {
	ID            string    `json:"id"`
	WorkItemID    string    `json:"work_item_id"`
	ReviewerID    string    `json:"reviewer_id"`
	CorrectedText *string   `json:"corrected_text"`
	Status        string    `json:"status"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TaskResponse pairs an assignment with its work item.
type TaskResponse struct {
	Assignment AssignmentResponse `json:"assignment"`
	WorkItem   WorkItemResponse   `json:"work_item"`
}

// UpdateStatusRequest represents the request body for a review decision.
type UpdateStatusRequest struct {
	Status        string  `json:"status" validate:"required,oneof=pending corrected approved discarded"`
	CorrectedText *string `json:"corrected_text"`
}

// CreateReviewerRequest represents the request body for creating a reviewer.
type CreateReviewerRequest struct {
	Name     string `json:"name" validate:"required,min=1,max=100"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"required,oneof=reviewer reference"`
}

// CreateWorkItemRequest represents the request body for creating a work item.
type CreateWorkItemRequest struct {
	ContentRef  string `json:"content_ref" validate:"required"`
	InitialText string `json:"initial_text" validate:"required"`
}

// AssignExplicitRequest represents the request body for explicit allocation.
type AssignExplicitRequest struct {
	ReviewerIDs []uuid.UUID `json:"reviewer_ids" validate:"required,min=1"`
	WorkItemIDs []uuid.UUID `json:"work_item_ids" validate:"required,min=1"`
}

// AssignRandomRequest represents the request body for random allocation.
type AssignRandomRequest struct {
	ReviewerID            uuid.UUID `json:"reviewer_id" validate:"required"`
	Count                 int       `json:"count" validate:"required,gt=0"`
	PrioritizeUnannotated bool      `json:"prioritize_unannotated"`
}

// AssignResponse reports how many assignments an allocation created.
type AssignResponse struct {
	Created int `json:"created"`
}

// TransferRequest represents the request body for an ownership transfer.
type TransferRequest struct {
	FromReviewerID  uuid.UUID `json:"from_reviewer_id" validate:"required"`
	ToReviewerID    uuid.UUID `json:"to_reviewer_id" validate:"required"`
	IncludePending  bool      `json:"include_pending"`
	IncludeReviewed bool      `json:"include_reviewed"`
}

// ConsolidateRequest represents the request body for consolidating one
// assignment's result onto another.
type ConsolidateRequest struct {
	SourceAssignmentID uuid.UUID `json:"source_assignment_id" validate:"required"`
	TargetAssignmentID uuid.UUID `json:"target_assignment_id" validate:"required"`
}

// DeleteByStatusRequest represents the request body for bulk-deleting a
// reviewer's assignments by status.
type DeleteByStatusRequest struct {
	Statuses []string `json:"statuses" validate:"required,min=1,dive,oneof=pending corrected approved discarded"`
}

// DeletedResponse reports how many assignments a bulk delete removed.
type DeletedResponse struct {
	Deleted int64 `json:"deleted"`
}

// DiscrepancyResponse represents one quality control discrepancy: a
// reviewer's result against the reference's result on the same work item.
type DiscrepancyResponse struct {
	WorkItemID          string    `json:"work_item_id"`
	ContentRef          string    `json:"content_ref"`
	InitialText         string    `json:"initial_text"`
	ReviewerID          string    `json:"reviewer_id"`
	ReviewerName        string    `json:"reviewer_name"`
	AssignmentID        string    `json:"assignment_id"`
	ReviewerText        *string   `json:"reviewer_text"`
	ReviewerStatus      string    `json:"reviewer_status"`
	ReviewerUpdatedAt   time.Time `json:"reviewer_updated_at"`
	ReferenceAssignment string    `json:"reference_assignment_id"`
	ReferenceText       *string   `json:"reference_text"`
	ReferenceStatus     string    `json:"reference_status"`
	ReferenceUpdatedAt  time.Time `json:"reference_updated_at"`
}

// reviewerToResponse converts a domain.Reviewer to a ReviewerResponse.
func reviewerToResponse(reviewer *domain.Reviewer) ReviewerResponse {
	return ReviewerResponse{
		ID:        reviewer.ID.String(),
		Name:      reviewer.Name,
		Role:      string(reviewer.Role),
		CreatedAt: reviewer.CreatedAt,
	}
}

// workItemToResponse converts a domain.WorkItem to a WorkItemResponse.
func workItemToResponse(item *domain.WorkItem) WorkItemResponse {
	return WorkItemResponse{
		ID:          item.ID.String(),
		ContentRef:  item.ContentRef,
		InitialText: item.InitialText,
		CreatedAt:   item.CreatedAt,
	}
}

// assignmentToResponse converts a domain.Assignment to an AssignmentResponse.
func assignmentToResponse(assignment *domain.Assignment) AssignmentResponse {
	return AssignmentResponse{
		ID:            assignment.ID.String(),
		WorkItemID:    assignment.WorkItemID.String(),
		ReviewerID:    assignment.ReviewerID.String(),
		CorrectedText: assignment.CorrectedText,
		Status:        string(assignment.Status),
		UpdatedAt:     assignment.UpdatedAt,
	}
}

// taskToResponse converts a store.TaskWithItem to a TaskResponse.
func taskToResponse(task *store.TaskWithItem) TaskResponse {
	return TaskResponse{
		Assignment: assignmentToResponse(&task.Assignment),
		WorkItem:   workItemToResponse(&task.WorkItem),
	}
}

// tasksToResponse converts a slice of store.TaskWithItem to responses.
func tasksToResponse(tasks []*store.TaskWithItem) []TaskResponse {
	responses := make([]TaskResponse, 0, len(tasks))
	for _, task := range tasks {
		responses = append(responses, taskToResponse(task))
	}
	return responses
}

// discrepancyToResponse converts a store.Discrepancy to a DiscrepancyResponse.
func discrepancyToResponse(d *store.Discrepancy) DiscrepancyResponse {
	return DiscrepancyResponse{
		WorkItemID:          d.WorkItemID.String(),
		ContentRef:          d.ContentRef,
		InitialText:         d.InitialText,
		ReviewerID:          d.ReviewerID.String(),
		ReviewerName:        d.ReviewerName,
		AssignmentID:        d.AssignmentID.String(),
		ReviewerText:        d.ReviewerText,
		ReviewerStatus:      string(d.ReviewerStatus),
		ReviewerUpdatedAt:   d.ReviewerUpdatedAt,
		ReferenceAssignment: d.ReferenceAssignmentID.String(),
		ReferenceText:       d.ReferenceText,
		ReferenceStatus:     string(d.ReferenceStatus),
		ReferenceUpdatedAt:  d.ReferenceUpdatedAt,
	}
}
