package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// EmailVerifiedEvent is the identity-provider log type for a successful email verification.
const EmailVerifiedEvent = "sv"

type upsertUserRequest struct {
	Sub           string `json:"sub"`
	EmailVerified bool   `json:"email_verified"`
}

// UpsertUser handles POST /users, called by the identity provider after signup.
func (h *Handler) UpsertUser(c *gin.Context) {
	if !h.storeReady(c) {
		return
	}
	var req upsertUserRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Sub) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sub is required"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()
	if err := h.store.UpsertUser(ctx, req.Sub, req.EmailVerified); err != nil {
		h.logger.Error("failed to upsert user", zap.String("sub", req.Sub), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save user"})
		return
	}
	c.Status(http.StatusNoContent)
}

type logEvent struct {
	Type    string `json:"type"`
	UserID  string `json:"user_id"`
	Details struct {
		UserID string `json:"user_id"`
	} `json:"details"`
}

func (e logEvent) subject() string {
	if e.UserID != "" {
		return e.UserID
	}
	return e.Details.UserID
}

// decodeLogEvents accepts either a single event object or an array of events.
func decodeLogEvents(body []byte) ([]logEvent, error) {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return nil, nil
	}
	if strings.HasPrefix(trimmed, "[") {
		var events []logEvent
		if err := json.Unmarshal(body, &events); err != nil {
			return nil, err
		}
		return events, nil
	}
	var evt logEvent
	if err := json.Unmarshal(body, &evt); err != nil {
		return nil, err
	}
	return []logEvent{evt}, nil
}

// IdentityLogsWebhook handles POST /identity/logs/webhook. Email verification
// events mark the user verified. Failures are acknowledged so the stream does
// not retry forever.
func (h *Handler) IdentityLogsWebhook(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		h.logger.Warn("failed to read identity log batch", zap.Error(err))
		c.Status(http.StatusOK)
		return
	}
	events, err := decodeLogEvents(body)
	if err != nil {
		h.logger.Warn("malformed identity log batch", zap.Error(err))
		c.Status(http.StatusOK)
		return
	}
	if len(events) == 0 {
		c.Status(http.StatusNoContent)
		return
	}
	if h.store == nil {
		c.Status(http.StatusOK)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	verified := 0
	for _, evt := range events {
		sub := evt.subject()
		if evt.Type != EmailVerifiedEvent || sub == "" {
			continue
		}
		if err := h.store.UpsertUser(ctx, sub, true); err != nil {
			h.logger.Error("failed to mark user verified", zap.String("sub", sub), zap.Error(err))
			c.Status(http.StatusOK)
			return
		}
		verified++
	}
	h.logger.Info("identity log batch processed", zap.Int("events", len(events)), zap.Int("verified", verified))
	c.Status(http.StatusNoContent)
}
