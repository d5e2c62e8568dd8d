package api

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/tsunayoshi21/Labeling-app/internal/api/shared"
	"github.com/tsunayoshi21/Labeling-app/internal/domain"
	"github.com/tsunayoshi21/Labeling-app/internal/platform/logger"
	"github.com/tsunayoshi21/Labeling-app/internal/service"
)

// defaultActivityLimit caps the recent activity feed unless the caller
// asks for a different limit.
const defaultActivityLimit = 6

// AdminHandler handles the administrative HTTP requests: reviewer and
// work item management, allocation, transfer, quality control,
// statistics, and export. All of its routes require the reference role.
type AdminHandler struct {
	adminService    *service.AdminService
	allocator       *service.AllocatorService
	transferService *service.TransferService
	qualityService  *service.QualityService
	statsService    *service.StatsService
	reviewService   *service.ReviewService
	taskService     *service.TaskService
	logger          *slog.Logger
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(
	adminService *service.AdminService,
	allocator *service.AllocatorService,
	transferService *service.TransferService,
	qualityService *service.QualityService,
	statsService *service.StatsService,
	reviewService *service.ReviewService,
	taskService *service.TaskService,
	logger *slog.Logger,
) *AdminHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for AdminHandler")
	}

	return &AdminHandler{
		adminService:    adminService,
		allocator:       allocator,
		transferService: transferService,
		qualityService:  qualityService,
		statsService:    statsService,
		reviewService:   reviewService,
		taskService:     taskService,
		logger:          logger.With(slog.String("component", "admin_handler")),
	}
}

// CreateReviewer handles POST /admin/reviewers requests.
func (h *AdminHandler) CreateReviewer(w http.ResponseWriter, r *http.Request) {
	var req CreateReviewerRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	reviewer, err := h.adminService.CreateReviewer(r.Context(), req.Name, req.Password, domain.ReviewerRole(req.Role))
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, reviewerToResponse(reviewer))
}

// ListReviewers handles GET /admin/reviewers requests.
// It returns every reviewer with their workload counters.
func (h *AdminHandler) ListReviewers(w http.ResponseWriter, r *http.Request) {
	rows, err := h.adminService.ListReviewersWithStats(r.Context())
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, rows)
}

// DeleteReviewer handles DELETE /admin/reviewers/{id} requests.
func (h *AdminHandler) DeleteReviewer(w http.ResponseWriter, r *http.Request) {
	reviewerID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.adminService.DeleteReviewer(r.Context(), reviewerID); err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ReviewerStats handles GET /admin/reviewers/{id}/stats requests.
func (h *AdminHandler) ReviewerStats(w http.ResponseWriter, r *http.Request) {
	reviewerID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	counts, err := h.statsService.ReviewerStats(r.Context(), reviewerID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, counts)
}

// ReviewerAssignments handles GET /admin/reviewers/{id}/assignments requests.
func (h *AdminHandler) ReviewerAssignments(w http.ResponseWriter, r *http.Request) {
	reviewerID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	tasks, err := h.taskService.ReviewerAssignments(r.Context(), reviewerID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, tasksToResponse(tasks))
}

// DeleteReviewerAssignments handles DELETE /admin/reviewers/{id}/assignments
// requests. The request body selects which statuses to delete.
func (h *AdminHandler) DeleteReviewerAssignments(w http.ResponseWriter, r *http.Request) {
	reviewerID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var req DeleteByStatusRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	statuses := make([]domain.AssignmentStatus, 0, len(req.Statuses))
	for _, status := range req.Statuses {
		statuses = append(statuses, domain.AssignmentStatus(status))
	}

	deleted, err := h.taskService.DeleteAssignmentsByStatus(r.Context(), reviewerID, statuses)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, DeletedResponse{Deleted: deleted})
}

// CreateWorkItem handles POST /admin/work-items requests.
func (h *AdminHandler) CreateWorkItem(w http.ResponseWriter, r *http.Request) {
	var req CreateWorkItemRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	item, err := h.adminService.CreateWorkItem(r.Context(), req.ContentRef, req.InitialText)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusCreated, workItemToResponse(item))
}

// ListWorkItems handles GET /admin/work-items requests.
// It returns every work item with per-status assignment counts.
func (h *AdminHandler) ListWorkItems(w http.ResponseWriter, r *http.Request) {
	rows, err := h.adminService.ListWorkItemsWithStats(r.Context())
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, rows)
}

// WorkItemAssignments handles GET /admin/work-items/{id}/assignments requests.
func (h *AdminHandler) WorkItemAssignments(w http.ResponseWriter, r *http.Request) {
	workItemID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	assignments, err := h.adminService.WorkItemAssignments(r.Context(), workItemID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	responses := make([]AssignmentResponse, 0, len(assignments))
	for _, assignment := range assignments {
		responses = append(responses, assignmentToResponse(assignment))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, responses)
}

// AssignExplicit handles POST /admin/assignments requests.
// It creates pending assignments for the cross product of the given
// reviewer and work item lists.
func (h *AdminHandler) AssignExplicit(w http.ResponseWriter, r *http.Request) {
	var req AssignExplicitRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	created, err := h.allocator.AssignExplicit(r.Context(), req.ReviewerIDs, req.WorkItemIDs)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusCreated, AssignResponse{Created: created})
}

// AssignRandom handles POST /admin/assignments/random requests.
func (h *AdminHandler) AssignRandom(w http.ResponseWriter, r *http.Request) {
	var req AssignRandomRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	created, err := h.allocator.AssignRandom(r.Context(), req.ReviewerID, req.Count, req.PrioritizeUnannotated)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusCreated, AssignResponse{Created: created})
}

// Transfer handles POST /admin/assignments/transfer requests.
func (h *AdminHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	var req TransferRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.transferService.Transfer(
		r.Context(),
		req.FromReviewerID,
		req.ToReviewerID,
		req.IncludePending,
		req.IncludeReviewed,
	)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, result)
}

// Consolidate handles POST /admin/assignments/consolidate requests.
func (h *AdminHandler) Consolidate(w http.ResponseWriter, r *http.Request) {
	var req ConsolidateRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	updated, err := h.qualityService.Consolidate(r.Context(), req.SourceAssignmentID, req.TargetAssignmentID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, assignmentToResponse(updated))
}

// UpdateAssignment handles PUT /admin/assignments/{id} requests.
// It records a review decision without an ownership check.
func (h *AdminHandler) UpdateAssignment(w http.ResponseWriter, r *http.Request) {
	assignmentID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	assignment, err := h.reviewService.AdminUpdateStatus(
		r.Context(),
		assignmentID,
		domain.AssignmentStatus(req.Status),
		req.CorrectedText,
	)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, assignmentToResponse(assignment))
}

// Discrepancies handles GET /admin/quality/discrepancies requests.
// Repeatable reviewer_id query parameters narrow the comparison; no
// parameter compares every non-reference reviewer.
func (h *AdminHandler) Discrepancies(w http.ResponseWriter, r *http.Request) {
	var reviewerIDs []uuid.UUID
	for _, raw := range r.URL.Query()["reviewer_id"] {
		id, err := uuid.Parse(raw)
		if err != nil {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid reviewer_id format")
			return
		}
		reviewerIDs = append(reviewerIDs, id)
	}

	discrepancies, err := h.qualityService.FindDiscrepancies(r.Context(), reviewerIDs)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	responses := make([]DiscrepancyResponse, 0, len(discrepancies))
	for _, d := range discrepancies {
		responses = append(responses, discrepancyToResponse(d))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, responses)
}

// SystemStats handles GET /admin/stats requests.
func (h *AdminHandler) SystemStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.statsService.SystemStats(r.Context())
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, stats)
}

// AgreementStats handles GET /admin/stats/agreement requests.
// An optional reviewer_id query parameter restricts the computation to
// one reviewer.
func (h *AdminHandler) AgreementStats(w http.ResponseWriter, r *http.Request) {
	var reviewerID *uuid.UUID
	if raw := r.URL.Query().Get("reviewer_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid reviewer_id format")
			return
		}
		reviewerID = &id
	}

	stats, err := h.statsService.AgreementStats(r.Context(), reviewerID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, stats)
}

// RecentActivity handles GET /admin/activity requests.
func (h *AdminHandler) RecentActivity(w http.ResponseWriter, r *http.Request) {
	activity, err := h.adminService.RecentActivity(r.Context(), queryLimit(r, defaultActivityLimit))
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, activity)
}

// Export handles GET /admin/export requests.
// It returns every reviewed assignment grouped by work item.
func (h *AdminHandler) Export(w http.ResponseWriter, r *http.Request) {
	export, err := h.adminService.ExportByWorkItem(r.Context())
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, export)
}

// decodeAndValidate decodes the request body into v and validates it,
// writing the error response itself when either step fails.
func (h *AdminHandler) decodeAndValidate(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	if err := shared.DecodeJSON(r, v); err != nil {
		log.Warn("invalid request format", slog.String("error", err.Error()))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return false
	}
	if err := shared.Validate.Struct(v); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return false
	}
	return true
}
