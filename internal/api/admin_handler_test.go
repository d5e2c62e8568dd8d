package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/tsunayoshi21/Labeling-app/internal/api/shared"
	"github.com/tsunayoshi21/Labeling-app/internal/domain"
	"github.com/tsunayoshi21/Labeling-app/internal/mocks"
	"github.com/tsunayoshi21/Labeling-app/internal/service"
	"github.com/tsunayoshi21/Labeling-app/internal/service/auth"
)

// adminHandlerEnv bundles the fake stores with a fully wired AdminHandler.
type adminHandlerEnv struct {
	stores  *mocks.FakeStores
	handler *AdminHandler
}

func newAdminHandlerEnv() *adminHandlerEnv {
	stores := mocks.NewFakeStores()
	logger := newTestLogger()
	txn := &mocks.FakeTransactor{}

	adminService := service.NewAdminService(
		txn, stores.Reviewers, stores.WorkItems, stores.Assignments, stores.Stats,
		auth.NewBcryptHasher(bcrypt.MinCost), logger)
	allocator := service.NewAllocatorService(
		txn, stores.Reviewers, stores.WorkItems, stores.Assignments, logger)
	transferService := service.NewTransferService(txn, stores.Reviewers, stores.Assignments, logger)
	qualityService := service.NewQualityService(
		txn, stores.Reviewers, stores.WorkItems, stores.Assignments, logger)
	statsService := service.NewStatsService(stores.Reviewers, stores.Stats, logger)
	reviewService := service.NewReviewService(txn, stores.WorkItems, stores.Assignments, logger)
	taskService := service.NewTaskService(txn, stores.Reviewers, stores.Assignments, nil, logger)

	return &adminHandlerEnv{
		stores: stores,
		handler: NewAdminHandler(
			adminService, allocator, transferService, qualityService,
			statsService, reviewService, taskService, logger),
	}
}

func (e *adminHandlerEnv) seedReviewer(t *testing.T, name string, role domain.ReviewerRole) *domain.Reviewer {
	t.Helper()
	reviewer, err := domain.NewReviewer(name, "hashed-password", role)
	require.NoError(t, err)
	require.NoError(t, e.stores.Reviewers.Create(context.Background(), reviewer))
	return reviewer
}

func (e *adminHandlerEnv) seedWorkItem(t *testing.T, contentRef, initialText string) *domain.WorkItem {
	t.Helper()
	item, err := domain.NewWorkItem(contentRef, initialText)
	require.NoError(t, err)
	require.NoError(t, e.stores.WorkItems.Create(context.Background(), item))
	return item
}

func (e *adminHandlerEnv) seedReviewed(
	t *testing.T,
	reviewerID, workItemID uuid.UUID,
	status domain.AssignmentStatus,
	text *string,
) *domain.Assignment {
	t.Helper()
	assignment, err := domain.NewAssignment(reviewerID, workItemID)
	require.NoError(t, err)
	require.NoError(t, assignment.SetStatus(status, text))
	require.NoError(t, e.stores.Assignments.Create(context.Background(), assignment))
	return assignment
}

func jsonRequest(t *testing.T, method, target string, payload interface{}) *http.Request {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(method, target, bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestAdminHandler_CreateReviewer(t *testing.T) {
	t.Parallel()

	t.Run("creates the reviewer", func(t *testing.T) {
		env := newAdminHandlerEnv()

		req := jsonRequest(t, "POST", "/admin/reviewers", map[string]interface{}{
			"name":     "alice",
			"password": "password1234567",
			"role":     "reviewer",
		})

		recorder := httptest.NewRecorder()
		env.handler.CreateReviewer(recorder, req)

		require.Equal(t, http.StatusCreated, recorder.Code)

		var resp ReviewerResponse
		require.NoError(t, json.NewDecoder(recorder.Body).Decode(&resp))
		assert.Equal(t, "alice", resp.Name)
		assert.Equal(t, "reviewer", resp.Role)
		assert.NotEmpty(t, resp.ID)
	})

	t.Run("rejects a duplicate name", func(t *testing.T) {
		env := newAdminHandlerEnv()
		env.seedReviewer(t, "alice", domain.RoleReviewer)

		req := jsonRequest(t, "POST", "/admin/reviewers", map[string]interface{}{
			"name":     "alice",
			"password": "password1234567",
			"role":     "reviewer",
		})

		recorder := httptest.NewRecorder()
		env.handler.CreateReviewer(recorder, req)

		assert.Equal(t, http.StatusConflict, recorder.Code)

		var errorResp shared.ErrorResponse
		require.NoError(t, json.NewDecoder(recorder.Body).Decode(&errorResp))
		assert.Contains(t, errorResp.Error, "already in use")
	})

	t.Run("rejects an unknown role", func(t *testing.T) {
		env := newAdminHandlerEnv()

		req := jsonRequest(t, "POST", "/admin/reviewers", map[string]interface{}{
			"name":     "alice",
			"password": "password1234567",
			"role":     "superuser",
		})

		recorder := httptest.NewRecorder()
		env.handler.CreateReviewer(recorder, req)

		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})

	t.Run("rejects a short password", func(t *testing.T) {
		env := newAdminHandlerEnv()

		req := jsonRequest(t, "POST", "/admin/reviewers", map[string]interface{}{
			"name":     "alice",
			"password": "short",
			"role":     "reviewer",
		})

		recorder := httptest.NewRecorder()
		env.handler.CreateReviewer(recorder, req)

		assert.Equal(t, http.StatusBadRequest, recorder.Code)

		var errorResp shared.ErrorResponse
		require.NoError(t, json.NewDecoder(recorder.Body).Decode(&errorResp))
		assert.Contains(t, errorResp.Error, "Invalid Password")
	})
}

func TestAdminHandler_DeleteReviewer(t *testing.T) {
	t.Parallel()

	env := newAdminHandlerEnv()
	alice := env.seedReviewer(t, "alice", domain.RoleReviewer)

	t.Run("rejects a malformed ID", func(t *testing.T) {
		req := httptest.NewRequest("DELETE", "/admin/reviewers/not-a-uuid", nil)
		req = withPathParam(req, "id", "not-a-uuid")

		recorder := httptest.NewRecorder()
		env.handler.DeleteReviewer(recorder, req)

		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})

	t.Run("deletes the reviewer", func(t *testing.T) {
		req := httptest.NewRequest("DELETE", "/admin/reviewers/"+alice.ID.String(), nil)
		req = withPathParam(req, "id", alice.ID.String())

		recorder := httptest.NewRecorder()
		env.handler.DeleteReviewer(recorder, req)

		require.Equal(t, http.StatusNoContent, recorder.Code)

		_, err := env.stores.Reviewers.GetByID(context.Background(), alice.ID)
		assert.Error(t, err)
	})
}

func TestAdminHandler_CreateWorkItem(t *testing.T) {
	t.Parallel()

	env := newAdminHandlerEnv()

	req := jsonRequest(t, "POST", "/admin/work-items", map[string]interface{}{
		"content_ref":  "batch/0001.png",
		"initial_text": "initial guess",
	})

	recorder := httptest.NewRecorder()
	env.handler.CreateWorkItem(recorder, req)

	require.Equal(t, http.StatusCreated, recorder.Code)

	var resp WorkItemResponse
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&resp))
	assert.Equal(t, "batch/0001.png", resp.ContentRef)
	assert.Equal(t, "initial guess", resp.InitialText)
}

func TestAdminHandler_AssignExplicit(t *testing.T) {
	t.Parallel()

	t.Run("creates the cross product", func(t *testing.T) {
		env := newAdminHandlerEnv()
		alice := env.seedReviewer(t, "alice", domain.RoleReviewer)
		item1 := env.seedWorkItem(t, "batch/0001.png", "one")
		item2 := env.seedWorkItem(t, "batch/0002.png", "two")

		req := jsonRequest(t, "POST", "/admin/assignments", map[string]interface{}{
			"reviewer_ids":  []string{alice.ID.String()},
			"work_item_ids": []string{item1.ID.String(), item2.ID.String()},
		})

		recorder := httptest.NewRecorder()
		env.handler.AssignExplicit(recorder, req)

		require.Equal(t, http.StatusCreated, recorder.Code)

		var resp AssignResponse
		require.NoError(t, json.NewDecoder(recorder.Body).Decode(&resp))
		assert.Equal(t, 2, resp.Created)
	})

	t.Run("rejects empty ID lists", func(t *testing.T) {
		env := newAdminHandlerEnv()

		req := jsonRequest(t, "POST", "/admin/assignments", map[string]interface{}{
			"reviewer_ids":  []string{},
			"work_item_ids": []string{},
		})

		recorder := httptest.NewRecorder()
		env.handler.AssignExplicit(recorder, req)

		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})
}

func TestAdminHandler_AssignRandom(t *testing.T) {
	t.Parallel()

	t.Run("assigns untouched work items", func(t *testing.T) {
		env := newAdminHandlerEnv()
		env.seedReviewer(t, "admin", domain.RoleReference)
		alice := env.seedReviewer(t, "alice", domain.RoleReviewer)
		env.seedWorkItem(t, "batch/0001.png", "one")
		env.seedWorkItem(t, "batch/0002.png", "two")

		req := jsonRequest(t, "POST", "/admin/assignments/random", map[string]interface{}{
			"reviewer_id":            alice.ID.String(),
			"count":                  2,
			"prioritize_unannotated": true,
		})

		recorder := httptest.NewRecorder()
		env.handler.AssignRandom(recorder, req)

		require.Equal(t, http.StatusCreated, recorder.Code)

		var resp AssignResponse
		require.NoError(t, json.NewDecoder(recorder.Body).Decode(&resp))
		assert.Equal(t, 2, resp.Created)
	})

	t.Run("rejects a non-positive count", func(t *testing.T) {
		env := newAdminHandlerEnv()
		alice := env.seedReviewer(t, "alice", domain.RoleReviewer)

		req := jsonRequest(t, "POST", "/admin/assignments/random", map[string]interface{}{
			"reviewer_id": alice.ID.String(),
			"count":       0,
		})

		recorder := httptest.NewRecorder()
		env.handler.AssignRandom(recorder, req)

		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})

	t.Run("reports an unknown reviewer", func(t *testing.T) {
		env := newAdminHandlerEnv()
		env.seedReviewer(t, "admin", domain.RoleReference)

		req := jsonRequest(t, "POST", "/admin/assignments/random", map[string]interface{}{
			"reviewer_id": uuid.New().String(),
			"count":       1,
		})

		recorder := httptest.NewRecorder()
		env.handler.AssignRandom(recorder, req)

		assert.Equal(t, http.StatusNotFound, recorder.Code)
	})
}

func TestAdminHandler_Transfer(t *testing.T) {
	t.Parallel()

	t.Run("moves the selected assignments", func(t *testing.T) {
		env := newAdminHandlerEnv()
		alice := env.seedReviewer(t, "alice", domain.RoleReviewer)
		bob := env.seedReviewer(t, "bob", domain.RoleReviewer)
		item := env.seedWorkItem(t, "batch/0001.png", "one")
		env.seedReviewed(t, alice.ID, item.ID, domain.StatusApproved, nil)

		req := jsonRequest(t, "POST", "/admin/assignments/transfer", map[string]interface{}{
			"from_reviewer_id": alice.ID.String(),
			"to_reviewer_id":   bob.ID.String(),
			"include_reviewed": true,
		})

		recorder := httptest.NewRecorder()
		env.handler.Transfer(recorder, req)

		require.Equal(t, http.StatusOK, recorder.Code)

		var result service.TransferResult
		require.NoError(t, json.NewDecoder(recorder.Body).Decode(&result))
		assert.Equal(t, 1, result.Transferred)
		assert.Equal(t, 0, result.Skipped)
	})

	t.Run("rejects a self transfer", func(t *testing.T) {
		env := newAdminHandlerEnv()
		alice := env.seedReviewer(t, "alice", domain.RoleReviewer)

		req := jsonRequest(t, "POST", "/admin/assignments/transfer", map[string]interface{}{
			"from_reviewer_id": alice.ID.String(),
			"to_reviewer_id":   alice.ID.String(),
			"include_pending":  true,
		})

		recorder := httptest.NewRecorder()
		env.handler.Transfer(recorder, req)

		assert.Equal(t, http.StatusBadRequest, recorder.Code)

		var errorResp shared.ErrorResponse
		require.NoError(t, json.NewDecoder(recorder.Body).Decode(&errorResp))
		assert.Contains(t, errorResp.Error, "must differ")
	})
}

func TestAdminHandler_Consolidate(t *testing.T) {
	t.Parallel()

	env := newAdminHandlerEnv()
	admin := env.seedReviewer(t, "admin", domain.RoleReference)
	alice := env.seedReviewer(t, "alice", domain.RoleReviewer)
	item := env.seedWorkItem(t, "batch/0001.png", "initial guess")
	source := env.seedReviewed(t, admin.ID, item.ID, domain.StatusCorrected, strPtr("fixed text"))
	target := env.seedReviewed(t, alice.ID, item.ID, domain.StatusApproved, nil)

	req := jsonRequest(t, "POST", "/admin/assignments/consolidate", map[string]interface{}{
		"source_assignment_id": source.ID.String(),
		"target_assignment_id": target.ID.String(),
	})

	recorder := httptest.NewRecorder()
	env.handler.Consolidate(recorder, req)

	require.Equal(t, http.StatusOK, recorder.Code)

	var resp AssignmentResponse
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&resp))
	assert.Equal(t, target.ID.String(), resp.ID)
	assert.Equal(t, "corrected", resp.Status)
	require.NotNil(t, resp.CorrectedText)
	assert.Equal(t, "fixed text", *resp.CorrectedText)
}

func TestAdminHandler_Discrepancies(t *testing.T) {
	t.Parallel()

	t.Run("rejects a malformed reviewer filter", func(t *testing.T) {
		env := newAdminHandlerEnv()

		req := httptest.NewRequest("GET", "/admin/quality/discrepancies?reviewer_id=not-a-uuid", nil)

		recorder := httptest.NewRecorder()
		env.handler.Discrepancies(recorder, req)

		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})

	t.Run("lists disagreements with the reference", func(t *testing.T) {
		env := newAdminHandlerEnv()
		admin := env.seedReviewer(t, "admin", domain.RoleReference)
		alice := env.seedReviewer(t, "alice", domain.RoleReviewer)
		item := env.seedWorkItem(t, "batch/0001.png", "cat sat")

		env.seedReviewed(t, admin.ID, item.ID, domain.StatusCorrected, strPtr("cat sat down"))
		env.seedReviewed(t, alice.ID, item.ID, domain.StatusCorrected, strPtr("kat sat"))

		req := httptest.NewRequest("GET", "/admin/quality/discrepancies", nil)

		recorder := httptest.NewRecorder()
		env.handler.Discrepancies(recorder, req)

		require.Equal(t, http.StatusOK, recorder.Code)

		var discrepancies []DiscrepancyResponse
		require.NoError(t, json.NewDecoder(recorder.Body).Decode(&discrepancies))
		require.Len(t, discrepancies, 1)
		assert.Equal(t, "alice", discrepancies[0].ReviewerName)
		assert.Equal(t, item.ID.String(), discrepancies[0].WorkItemID)
	})
}

func TestAdminHandler_SystemStats(t *testing.T) {
	t.Parallel()

	env := newAdminHandlerEnv()
	alice := env.seedReviewer(t, "alice", domain.RoleReviewer)
	item := env.seedWorkItem(t, "batch/0001.png", "one")
	env.seedWorkItem(t, "batch/0002.png", "two")
	env.seedReviewed(t, alice.ID, item.ID, domain.StatusApproved, nil)

	req := httptest.NewRequest("GET", "/admin/stats", nil)

	recorder := httptest.NewRecorder()
	env.handler.SystemStats(recorder, req)

	require.Equal(t, http.StatusOK, recorder.Code)

	var stats map[string]interface{}
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&stats))
	assert.EqualValues(t, 2, stats["total_work_items"])
	assert.EqualValues(t, 1, stats["annotated_work_items"])
}

func TestAdminHandler_AgreementStats_RejectsMalformedFilter(t *testing.T) {
	t.Parallel()

	env := newAdminHandlerEnv()

	req := httptest.NewRequest("GET", "/admin/stats/agreement?reviewer_id=nope", nil)

	recorder := httptest.NewRecorder()
	env.handler.AgreementStats(recorder, req)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestAdminHandler_Export(t *testing.T) {
	t.Parallel()

	env := newAdminHandlerEnv()
	alice := env.seedReviewer(t, "alice", domain.RoleReviewer)
	item := env.seedWorkItem(t, "batch/0001.png", "initial guess")
	env.seedReviewed(t, alice.ID, item.ID, domain.StatusCorrected, strPtr("fixed"))

	req := httptest.NewRequest("GET", "/admin/export", nil)

	recorder := httptest.NewRecorder()
	env.handler.Export(recorder, req)

	require.Equal(t, http.StatusOK, recorder.Code)

	var export map[string]map[string]string
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&export))
	require.Len(t, export, 1)
	for key, reviews := range export {
		assert.Regexp(t, `^img_\d{11}$`, key)
		assert.Equal(t, "fixed", reviews["alice"])
	}
}

func TestAdminHandler_WorkItemAssignments_UnknownItem(t *testing.T) {
	t.Parallel()

	env := newAdminHandlerEnv()

	missing := uuid.New()
	req := httptest.NewRequest("GET", "/admin/work-items/"+missing.String()+"/assignments", nil)
	req = withPathParam(req, "id", missing.String())

	recorder := httptest.NewRecorder()
	env.handler.WorkItemAssignments(recorder, req)

	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestAdminHandler_DeleteReviewerAssignments(t *testing.T) {
	t.Parallel()

	env := newAdminHandlerEnv()
	alice := env.seedReviewer(t, "alice", domain.RoleReviewer)
	item1 := env.seedWorkItem(t, "batch/0001.png", "one")
	item2 := env.seedWorkItem(t, "batch/0002.png", "two")
	env.seedReviewed(t, alice.ID, item1.ID, domain.StatusDiscarded, nil)
	env.seedReviewed(t, alice.ID, item2.ID, domain.StatusApproved, nil)

	t.Run("rejects an unknown status", func(t *testing.T) {
		req := jsonRequest(t, "DELETE", "/admin/reviewers/"+alice.ID.String()+"/assignments",
			map[string]interface{}{"statuses": []string{"archived"}})
		req = withPathParam(req, "id", alice.ID.String())

		recorder := httptest.NewRecorder()
		env.handler.DeleteReviewerAssignments(recorder, req)

		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})

	t.Run("deletes only the selected statuses", func(t *testing.T) {
		req := jsonRequest(t, "DELETE", "/admin/reviewers/"+alice.ID.String()+"/assignments",
			map[string]interface{}{"statuses": []string{"discarded"}})
		req = withPathParam(req, "id", alice.ID.String())

		recorder := httptest.NewRecorder()
		env.handler.DeleteReviewerAssignments(recorder, req)

		require.Equal(t, http.StatusOK, recorder.Code)

		var resp DeletedResponse
		require.NoError(t, json.NewDecoder(recorder.Body).Decode(&resp))
		assert.Equal(t, int64(1), resp.Deleted)
	})
}
