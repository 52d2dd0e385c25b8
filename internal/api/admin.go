package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/reusefull/reusefull/backend/matching-service/internal/db"
	"go.uber.org/zap"
)

// ListPendingCharities handles GET /admin/charities/pending
func (h *Handler) ListPendingCharities(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	charities, err := h.store.ListPendingCharities(ctx)
	if err != nil {
		h.logger.Error("failed to list pending charities", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch pending charities"})
		return
	}
	c.JSON(http.StatusOK, charities)
}

// ApproveCharity handles POST /admin/charities/:id/approve
func (h *Handler) ApproveCharity(c *gin.Context) {
	h.reviewCharity(c, "approve", h.store.ApproveCharity)
}

// DenyCharity handles POST /admin/charities/:id/deny
func (h *Handler) DenyCharity(c *gin.Context) {
	h.reviewCharity(c, "deny", h.store.DenyCharity)
}

func (h *Handler) reviewCharity(c *gin.Context, action string, apply func(context.Context, int) error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid charity id"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	if err := apply(ctx, id); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Charity not found"})
			return
		}
		h.logger.Error("failed to review charity", zap.String("action", action), zap.Int("charity_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update charity"})
		return
	}
	h.logger.Info("charity reviewed", zap.String("action", action), zap.Int("charity_id", id), zap.String("admin", Subject(c)))
	c.JSON(http.StatusOK, gin.H{"ok": true, "charityId": id})
}
