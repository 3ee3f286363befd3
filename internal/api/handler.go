// Package api exposes sync triggers, integration management and context
// building over HTTP.
package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"knowledge_sync/internal/domain"
	"knowledge_sync/internal/retrieval"
)

type Handler struct {
	syncer       Syncer
	integrations IntegrationManager
	contexts     ContextBuilder
	artifacts    ArtifactReader
	logger       *slog.Logger
}

func NewHandler(syncer Syncer, integrations IntegrationManager, contexts ContextBuilder, artifacts ArtifactReader, logger *slog.Logger) *Handler {
	return &Handler{
		syncer:       syncer,
		integrations: integrations,
		contexts:     contexts,
		artifacts:    artifacts,
		logger:       logger.With("component", "api"),
	}
}

type ConnectRequest struct {
	AccessToken  string         `json:"access_token"`
	RefreshToken string         `json:"refresh_token"`
	ExpiresAt    *time.Time     `json:"expires_at"`
	Settings     map[string]any `json:"settings"`
}

// NewRouter mounts the handler. Everything under /api needs the access key
// and a user id.
func NewRouter(h *Handler, accessKey string, logger *slog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(logger))

	r.GET("/health", h.Health)

	api := r.Group("/api", AccessKeyMiddleware(accessKey), UserMiddleware())
	api.GET("/integrations", h.ListIntegrations)
	api.POST("/integrations/:provider", h.Connect)
	api.DELETE("/integrations/:provider", h.Disconnect)
	api.POST("/integrations/:provider/sync", h.Sync)
	api.POST("/context", h.BuildContext)
	api.GET("/tasks", h.ListTasks)
	api.GET("/memories", h.ListMemories)

	return r
}

// Health reports liveness.
// GET /health
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Sync runs one sync for the user and provider and returns the batch report.
// POST /api/integrations/:provider/sync
func (h *Handler) Sync(c *gin.Context) {
	userID := c.GetString(ctxUserID)

	res, err := h.syncer.SyncIntegration(c.Request.Context(), userID, c.Param("provider"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GET /api/integrations
func (h *Handler) ListIntegrations(c *gin.Context) {
	statuses, err := h.integrations.Status(c.Request.Context(), c.GetString(ctxUserID))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"integrations": statuses})
}

// POST /api/integrations/:provider
func (h *Handler) Connect(c *gin.Context) {
	var req ConnectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	creds := domain.Credentials{
		AccessToken:  req.AccessToken,
		RefreshToken: req.RefreshToken,
		ExpiresAt:    req.ExpiresAt,
	}
	in, err := h.integrations.Connect(c.Request.Context(), c.GetString(ctxUserID), c.Param("provider"), creds, req.Settings)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, in)
}

// DELETE /api/integrations/:provider
func (h *Handler) Disconnect(c *gin.Context) {
	if err := h.integrations.Disconnect(c.Request.Context(), c.GetString(ctxUserID), c.Param("provider")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// BuildContext returns the ranked context window for a conversation.
// POST /api/context
func (h *Handler) BuildContext(c *gin.Context) {
	var req retrieval.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(req.Messages) == 0 && strings.TrimSpace(req.ExtraText) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "messages or extra_text required"})
		return
	}
	req.UserID = c.GetString(ctxUserID)

	window, err := h.contexts.BuildContext(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, window)
}

// GET /api/tasks
func (h *Handler) ListTasks(c *gin.Context) {
	tasks, err := h.artifacts.ListTasks(c.Request.Context(), c.GetString(ctxUserID))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

// GET /api/memories
func (h *Handler) ListMemories(c *gin.Context) {
	memories, err := h.artifacts.ListMemories(c.Request.Context(), c.GetString(ctxUserID))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"memories": memories})
}

func (h *Handler) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", "path", c.FullPath(), "error", err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	var fetchErr *domain.ProviderFetchError
	switch {
	case errors.Is(err, domain.ErrProviderNotRegistered), errors.Is(err, domain.ErrIntegrationNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrMissingCredentials):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrSyncInProgress), errors.Is(err, domain.ErrLockLost):
		return http.StatusConflict
	case errors.As(err, &fetchErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
