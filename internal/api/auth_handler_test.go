package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/tsunayoshi21/Labeling-app/internal/api/shared"
	"github.com/tsunayoshi21/Labeling-app/internal/domain"
	"github.com/tsunayoshi21/Labeling-app/internal/mocks"
	"github.com/tsunayoshi21/Labeling-app/internal/service/auth"
)

// newTestLogger returns a logger that discards everything. Handler tests
// only care about responses.
func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAuthHandler_Login(t *testing.T) {
	t.Parallel()

	testName := "alice"
	testPassword := "password1234567"

	hashed, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)

	stores := mocks.NewFakeStores()
	reviewer, err := domain.NewReviewer(testName, string(hashed), domain.RoleReviewer)
	require.NoError(t, err)
	require.NoError(t, stores.Reviewers.Create(context.Background(), reviewer))

	jwtService := &mocks.MockJWTService{Token: "test-token"}
	authService := auth.NewService(stores.Reviewers, auth.NewBcryptVerifier(), jwtService, newTestLogger())
	handler := NewAuthHandler(authService, newTestLogger())

	tests := []struct {
		name       string
		payload    interface{}
		wantStatus int
		wantToken  bool
		wantErrMsg string
	}{
		{
			name: "valid login",
			payload: map[string]interface{}{
				"name":     testName,
				"password": testPassword,
			},
			wantStatus: http.StatusOK,
			wantToken:  true,
		},
		{
			name: "wrong password",
			payload: map[string]interface{}{
				"name":     testName,
				"password": "not-the-password",
			},
			wantStatus: http.StatusUnauthorized,
			wantErrMsg: "Invalid credentials",
		},
		{
			name: "unknown reviewer",
			payload: map[string]interface{}{
				"name":     "nobody",
				"password": testPassword,
			},
			wantStatus: http.StatusUnauthorized,
			wantErrMsg: "Invalid credentials",
		},
		{
			name: "missing password",
			payload: map[string]interface{}{
				"name": testName,
			},
			wantStatus: http.StatusBadRequest,
			wantErrMsg: "Invalid Password",
		},
		{
			name: "missing name",
			payload: map[string]interface{}{
				"password": testPassword,
			},
			wantStatus: http.StatusBadRequest,
			wantErrMsg: "Invalid Name",
		},
		{
			name:       "invalid JSON",
			payload:    `{"name": "alice", this is not JSON`,
			wantStatus: http.StatusBadRequest,
			wantErrMsg: "Invalid request format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var reqBody []byte
			switch payload := tt.payload.(type) {
			case string:
				reqBody = []byte(payload)
			default:
				var err error
				reqBody, err = json.Marshal(payload)
				require.NoError(t, err)
			}

			req := httptest.NewRequest("POST", "/auth/login", bytes.NewBuffer(reqBody))
			req.Header.Set("Content-Type", "application/json")

			recorder := httptest.NewRecorder()

			handler.Login(recorder, req)

			assert.Equal(t, tt.wantStatus, recorder.Code)

			if tt.wantToken {
				var loginResp LoginResponse
				require.NoError(t, json.NewDecoder(recorder.Body).Decode(&loginResp))
				assert.Equal(t, "test-token", loginResp.Token)
				assert.Equal(t, reviewer.ID.String(), loginResp.Reviewer.ID)
				assert.Equal(t, testName, loginResp.Reviewer.Name)
				assert.Equal(t, string(domain.RoleReviewer), loginResp.Reviewer.Role)
				return
			}

			var errorResp shared.ErrorResponse
			require.NoError(t, json.NewDecoder(recorder.Body).Decode(&errorResp))
			assert.Contains(t, errorResp.Error, tt.wantErrMsg)
		})
	}
}
