package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// serveCollection writes a read-only collection or a 500 when the store fails.
func serveCollection[T any](h *Handler, c *gin.Context, name string, list func(context.Context) ([]T, error)) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	rows, err := list(ctx)
	if err != nil {
		h.logger.Error("failed to list collection", zap.String("collection", name), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch " + name})
		return
	}
	c.JSON(http.StatusOK, rows)
}

// GetOrgs handles GET /orgs
func (h *Handler) GetOrgs(c *gin.Context) {
	if !h.storeReady(c) {
		return
	}
	serveCollection(h, c, "orgs", h.store.ListCharities)
}

// GetOrgItems handles GET /org-items
func (h *Handler) GetOrgItems(c *gin.Context) {
	if !h.storeReady(c) {
		return
	}
	serveCollection(h, c, "org-items", h.store.ListItemAcceptances)
}

// GetCategories handles GET /categories
func (h *Handler) GetCategories(c *gin.Context) {
	if !h.storeReady(c) {
		return
	}
	serveCollection(h, c, "categories", h.store.ListCategories)
}

// GetOrgCharityTypes handles GET /org-charity-types
func (h *Handler) GetOrgCharityTypes(c *gin.Context) {
	if !h.storeReady(c) {
		return
	}
	serveCollection(h, c, "org-charity-types", h.store.ListCategoryMappings)
}

// GetItems handles GET /items
func (h *Handler) GetItems(c *gin.Context) {
	if !h.storeReady(c) {
		return
	}
	serveCollection(h, c, "items", h.store.ListItems)
}
