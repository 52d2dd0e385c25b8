package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/reusefull/reusefull/backend/matching-service/internal/matching"
	"github.com/reusefull/reusefull/backend/matching-service/internal/models"
	"go.uber.org/zap"
)

// matchTimeout bounds collection loading plus the geocode call.
const matchTimeout = 20 * time.Second

// Match handles POST /matches: one stateless pass over fresh collections.
func (h *Handler) Match(c *gin.Context) {
	if !h.storeReady(c) {
		return
	}
	var prefs models.DonorPreferences
	if err := c.ShouldBindJSON(&prefs); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), matchTimeout)
	defer cancel()

	collections, err := matching.LoadCollections(ctx, h.store)
	if err != nil {
		h.logger.Error("failed to load collections", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load charities"})
		return
	}

	charities := h.matcher.Run(ctx, collections, prefs)
	c.JSON(http.StatusOK, gin.H{
		"charities": charities,
		"count":     len(charities),
		"complete":  prefs.Complete(),
	})
}

// CreateDonorSession handles POST /donor-sessions
func (h *Handler) CreateDonorSession(c *gin.Context) {
	id, _ := h.sessions.Create()
	c.JSON(http.StatusCreated, gin.H{"session_id": id})
}

// UpdateDonorPreferences handles PUT /donor-sessions/:id/preferences
func (h *Handler) UpdateDonorPreferences(c *gin.Context) {
	session, ok := h.sessions.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}
	if !h.storeReady(c) {
		return
	}
	var prefs models.DonorPreferences
	if err := c.ShouldBindJSON(&prefs); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), matchTimeout)
	defer cancel()

	out, err := session.Refresh(ctx, h.store, prefs)
	if err != nil {
		h.logger.Error("failed to refresh donor session", zap.String("session_id", c.Param("id")), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load charities"})
		return
	}
	if out.Superseded {
		h.logger.Debug("donor pass superseded",
			zap.String("session_id", c.Param("id")),
			zap.Uint64("applied_generation", out.Generation),
		)
	}

	c.JSON(http.StatusOK, gin.H{
		"charities":  out.Charities,
		"count":      len(out.Charities),
		"generation": out.Generation,
		"superseded": out.Superseded,
		"complete":   prefs.Complete(),
	})
}

// GetDonorResults handles GET /donor-sessions/:id/results
func (h *Handler) GetDonorResults(c *gin.Context) {
	session, ok := h.sessions.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}
	charities, gen := session.Results()
	c.JSON(http.StatusOK, gin.H{
		"charities":  charities,
		"count":      len(charities),
		"generation": gen,
	})
}
