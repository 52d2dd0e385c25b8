package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/reusefull/reusefull/backend/matching-service/internal/db"
	"github.com/reusefull/reusefull/backend/matching-service/internal/models"
	"github.com/reusefull/reusefull/backend/matching-service/internal/storage"
	"go.uber.org/zap"
)

// GetMe handles GET /me: the caller's user row plus any charity signup draft.
func (h *Handler) GetMe(c *gin.Context) {
	if !h.storeReady(c) {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()
	sub := Subject(c)

	user, err := h.store.GetUser(ctx, sub)
	if err != nil && !errors.Is(err, db.ErrNotFound) {
		h.logger.Error("failed to get user", zap.String("sub", sub), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load profile"})
		return
	}
	draft, err := h.store.GetSignupDraft(ctx, sub)
	if err != nil && !errors.Is(err, db.ErrNotFound) {
		h.logger.Error("failed to get signup draft", zap.String("sub", sub), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load profile"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":      user,
		"draft":     draft,
		"completed": draft != nil && len(draft.AcceptedItemTypes) > 0,
	})
}

// SaveSignupDraft handles PUT /charity-signup/draft
func (h *Handler) SaveSignupDraft(c *gin.Context) {
	if _, ok := h.upsertSignup(c, false); ok {
		c.Status(http.StatusNoContent)
	}
}

// SubmitSignup handles POST /charity-signup/submit. The charity is left
// pending until an admin approves it.
func (h *Handler) SubmitSignup(c *gin.Context) {
	if id, ok := h.upsertSignup(c, true); ok {
		c.JSON(http.StatusCreated, gin.H{"ok": true, "charityId": id})
	}
}

func (h *Handler) upsertSignup(c *gin.Context, submit bool) (int, bool) {
	if !h.storeReady(c) {
		return 0, false
	}
	var payload models.CharitySignup
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return 0, false
	}

	rec := payload.Normalize()
	if submit {
		pending := false
		rec.Approved = &pending
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	sub := Subject(c)
	id, err := h.store.UpsertCharityForUser(ctx, sub, rec, payload.Categories, payload.AcceptedItemTypes)
	if err != nil {
		h.logger.Error("failed to save charity signup", zap.String("sub", sub), zap.Bool("submit", submit), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save charity"})
		return 0, false
	}
	h.logger.Info("charity signup saved", zap.String("sub", sub), zap.Int("charity_id", id), zap.Bool("submit", submit))
	return id, true
}

type logoUploadRequest struct {
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
}

// LogoUploadURL handles POST /uploads/logo-url
func (h *Handler) LogoUploadURL(c *gin.Context) {
	var req logoUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.FileName) == "" || strings.TrimSpace(req.ContentType) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "fileName and contentType are required"})
		return
	}
	if h.logos == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "S3_BUCKET not configured"})
		return
	}

	up, err := h.logos.SignLogoUpload(c.Request.Context(), Subject(c), req.FileName, req.ContentType)
	if err != nil {
		if errors.Is(err, storage.ErrNotConfigured) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "S3_BUCKET not configured"})
			return
		}
		h.logger.Error("failed to sign logo upload", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed_to_sign"})
		return
	}
	c.JSON(http.StatusOK, up)
}
