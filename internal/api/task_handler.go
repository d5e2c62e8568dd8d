package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tsunayoshi21/Labeling-app/internal/api/middleware"
	"github.com/tsunayoshi21/Labeling-app/internal/api/shared"
	"github.com/tsunayoshi21/Labeling-app/internal/domain"
	"github.com/tsunayoshi21/Labeling-app/internal/platform/logger"
	"github.com/tsunayoshi21/Labeling-app/internal/service"
)

// defaultHistoryLimit caps history and preview listings unless the
// caller asks for a different limit.
const defaultHistoryLimit = 10

// TaskHandler handles the reviewer-facing task queue HTTP requests
type TaskHandler struct {
	taskService   *service.TaskService
	reviewService *service.ReviewService
	logger        *slog.Logger
}

// NewTaskHandler creates a new TaskHandler
func NewTaskHandler(
	taskService *service.TaskService,
	reviewService *service.ReviewService,
	logger *slog.Logger,
) *TaskHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for TaskHandler")
	}

	return &TaskHandler{
		taskService:   taskService,
		reviewService: reviewService,
		logger:        logger.With(slog.String("component", "task_handler")),
	}
}

// GetNextTask handles GET /tasks/next requests.
// It returns the authenticated reviewer's oldest pending task, or 204
// when the queue is empty.
func (h *TaskHandler) GetNextTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	reviewerID, ok := middleware.GetReviewerID(r)
	if !ok || reviewerID == uuid.Nil {
		log.Warn("reviewer ID not found or invalid in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Reviewer ID not found or invalid")
		return
	}

	task, err := h.taskService.NextPendingTask(r.Context(), reviewerID)
	if errors.Is(err, service.ErrNoPendingTasks) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, taskToResponse(task))
}

// GetHistory handles GET /tasks/history requests.
// It returns the reviewer's most recently reviewed tasks, newest first.
func (h *TaskHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	reviewerID, ok := middleware.GetReviewerID(r)
	if !ok || reviewerID == uuid.Nil {
		log.Warn("reviewer ID not found or invalid in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Reviewer ID not found or invalid")
		return
	}

	tasks, err := h.taskService.TaskHistory(r.Context(), reviewerID, queryLimit(r, defaultHistoryLimit))
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, tasksToResponse(tasks))
}

// GetPending handles GET /tasks/pending requests.
// It returns the head of the reviewer's pending queue in serving order.
func (h *TaskHandler) GetPending(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	reviewerID, ok := middleware.GetReviewerID(r)
	if !ok || reviewerID == uuid.Nil {
		log.Warn("reviewer ID not found or invalid in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Reviewer ID not found or invalid")
		return
	}

	tasks, err := h.taskService.PendingPreview(r.Context(), reviewerID, queryLimit(r, defaultHistoryLimit))
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, tasksToResponse(tasks))
}

// GetTask handles GET /tasks/{id} requests.
// It returns one of the reviewer's own tasks with its work item.
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	reviewerID, ok := middleware.GetReviewerID(r)
	if !ok || reviewerID == uuid.Nil {
		log.Warn("reviewer ID not found or invalid in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Reviewer ID not found or invalid")
		return
	}

	assignmentID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	task, err := h.taskService.GetTask(r.Context(), assignmentID, &reviewerID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, taskToResponse(task))
}

// UpdateTask handles PUT /tasks/{id} requests.
// It records the reviewer's decision on one of their own assignments.
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	reviewerID, ok := middleware.GetReviewerID(r)
	if !ok || reviewerID == uuid.Nil {
		log.Warn("reviewer ID not found or invalid in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Reviewer ID not found or invalid")
		return
	}

	assignmentID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		log.Warn("invalid request format", slog.String("error", err.Error()))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.Validate.Struct(req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	assignment, err := h.reviewService.UpdateStatus(
		r.Context(),
		assignmentID,
		reviewerID,
		domain.AssignmentStatus(req.Status),
		req.CorrectedText,
	)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	log.Debug("task updated",
		slog.String("assignment_id", assignmentID.String()),
		slog.String("status", req.Status))
	shared.RespondWithJSON(w, r, http.StatusOK, assignmentToResponse(assignment))
}

// DeleteTask handles DELETE /tasks/{id} requests.
// It removes one of the reviewer's own assignments.
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	reviewerID, ok := middleware.GetReviewerID(r)
	if !ok || reviewerID == uuid.Nil {
		log.Warn("reviewer ID not found or invalid in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Reviewer ID not found or invalid")
		return
	}

	assignmentID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.taskService.DeleteAssignment(r.Context(), assignmentID, reviewerID); err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// pathUUID extracts and parses a UUID path parameter, writing a 400
// response and returning false when it is missing or malformed.
func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	raw := chi.URLParam(r, name)
	if raw == "" {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Missing "+name+" path parameter")
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid "+name+" format")
		return uuid.Nil, false
	}
	return id, true
}

// queryLimit parses the limit query parameter, falling back to def for
// missing or unusable values.
func queryLimit(r *http.Request, def int) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return def
	}
	return limit
}
