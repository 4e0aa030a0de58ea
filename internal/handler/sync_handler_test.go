package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/creator-tracker/video-sync-go/internal/middleware"
	"github.com/creator-tracker/video-sync-go/internal/sync"
	"github.com/creator-tracker/video-sync-go/pkg/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
	_ = logger.Init("error", "")
}

type mockRunner struct {
	mock.Mock
}

func (m *mockRunner) Run(ctx context.Context, scope sync.Scope, manual bool) (*sync.RunSummary, error) {
	args := m.Called(ctx, scope, manual)
	summary, _ := args.Get(0).(*sync.RunSummary)
	return summary, args.Error(1)
}

func newTriggerRouter(runner Runner, secret string) *gin.Engine {
	router := gin.New()
	router.POST("/api/v1/sync", middleware.TriggerAuth(secret), NewSyncHandler(runner).Trigger)
	return router
}

func postSync(router *gin.Engine, token string, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sync", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestTriggerWithValidTokenRunsScheduledSync(t *testing.T) {
	runner := &mockRunner{}
	runner.On("Run", mock.Anything, sync.Scope{}, false).
		Return(&sync.RunSummary{RunID: "r1", Success: true}, nil).Once()

	w := postSync(newTriggerRouter(runner, "shhh"), "shhh", "")

	require.Equal(t, http.StatusOK, w.Code)
	var summary sync.RunSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.True(t, summary.Success)
	runner.AssertExpectations(t)
}

func TestTriggerWithWrongTokenRejected(t *testing.T) {
	runner := &mockRunner{}

	w := postSync(newTriggerRouter(runner, "shhh"), "wrong", "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	runner.AssertNotCalled(t, "Run")
}

func TestTriggerWithoutTokenOrManualFlagRejected(t *testing.T) {
	runner := &mockRunner{}

	w := postSync(newTriggerRouter(runner, "shhh"), "", `{}`)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	runner.AssertNotCalled(t, "Run")
}

func TestTriggerManualFlagAuthorizesWithoutToken(t *testing.T) {
	runner := &mockRunner{}
	runner.On("Run", mock.Anything, sync.Scope{OrganizationID: "org-1"}, true).
		Return(&sync.RunSummary{Success: true}, nil).Once()

	w := postSync(newTriggerRouter(runner, "shhh"), "", `{"manual":true,"organizationId":"org-1"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	runner.AssertExpectations(t)
}

func TestTriggerUnknownScopeReturns404(t *testing.T) {
	runner := &mockRunner{}
	runner.On("Run", mock.Anything, sync.Scope{OrganizationID: "nope"}, true).
		Return(&sync.RunSummary{}, &sync.ScopeNotFoundError{OrganizationID: "nope"}).Once()

	w := postSync(newTriggerRouter(runner, "shhh"), "", `{"manual":true,"organizationId":"nope"}`)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTriggerProjectWithoutOrganizationRejected(t *testing.T) {
	runner := &mockRunner{}

	w := postSync(newTriggerRouter(runner, "shhh"), "shhh", `{"projectId":"proj-1"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	runner.AssertNotCalled(t, "Run")
}

func TestTriggerInternalErrorReturns500(t *testing.T) {
	runner := &mockRunner{}
	runner.On("Run", mock.Anything, sync.Scope{}, true).
		Return(nil, errors.New("pool exhausted")).Once()

	w := postSync(newTriggerRouter(runner, "shhh"), "", `{"manual":true}`)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

// Per-account failures are part of the summary, not an HTTP error.
func TestTriggerPartialFailureStillReturns200(t *testing.T) {
	runner := &mockRunner{}
	runner.On("Run", mock.Anything, sync.Scope{}, false).
		Return(&sync.RunSummary{
			Success:        true,
			Accounts:       3,
			AccountsFailed: 1,
			Failures: []sync.AccountFailure{
				{Org: "org-1", Project: "proj-1", Account: "broken", Error: "actor timeout"},
			},
		}, nil).Once()

	w := postSync(newTriggerRouter(runner, "shhh"), "shhh", "")

	require.Equal(t, http.StatusOK, w.Code)
	var summary sync.RunSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.Equal(t, 1, summary.AccountsFailed)
	require.Len(t, summary.Failures, 1)
	assert.Equal(t, "broken", summary.Failures[0].Account)
}
