// Package handler provides HTTP request handlers for the application.
package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/creator-tracker/video-sync-go/internal/middleware"
	"github.com/creator-tracker/video-sync-go/internal/sync"
	"github.com/creator-tracker/video-sync-go/pkg/logger"
)

// Runner executes one sync pass. Satisfied by *sync.Engine.
type Runner interface {
	Run(ctx context.Context, scope sync.Scope, manual bool) (*sync.RunSummary, error)
}

// TriggerRequest is the POST body of the sync trigger.
//
// Manual marks a pre-authenticated invocation from the management surface;
// scheduled invocations authenticate with the bearer trigger token instead.
// The optional scope narrows the run to one organization or project.
type TriggerRequest struct {
	Manual         bool   `json:"manual"`
	OrganizationID string `json:"organizationId"`
	ProjectID      string `json:"projectId"`
}

// SyncHandler exposes the sync trigger endpoint.
type SyncHandler struct {
	runner Runner
}

// NewSyncHandler creates a new SyncHandler instance.
func NewSyncHandler(runner Runner) *SyncHandler {
	return &SyncHandler{runner: runner}
}

// Trigger handles POST /api/v1/sync.
//
// Pre-flight failures map to HTTP errors: 401 for a request that is neither
// token-authenticated nor manual, 400 for a malformed scope, 404 for an
// unknown scope. Once the run starts, per-account failures are reported
// inside the 200 summary, never as an HTTP error.
func (h *SyncHandler) Trigger(c *gin.Context) {
	var req TriggerRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
	}

	tokenAuthed := c.GetString(middleware.AuthSourceKey) == middleware.AuthSourceToken
	if !tokenAuthed && !req.Manual {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	if req.ProjectID != "" && req.OrganizationID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "projectId requires organizationId"})
		return
	}

	scope := sync.Scope{OrganizationID: req.OrganizationID, ProjectID: req.ProjectID}
	summary, err := h.runner.Run(c.Request.Context(), scope, req.Manual)
	if err != nil {
		var notFound *sync.ScopeNotFoundError
		if errors.As(err, &notFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": notFound.Error()})
			return
		}
		logger.Log.Error("sync run failed before processing", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, summary)
}
