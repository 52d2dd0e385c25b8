package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/reusefull/reusefull/backend/matching-service/internal/db"
	"github.com/reusefull/reusefull/backend/matching-service/internal/matching"
	"github.com/reusefull/reusefull/backend/matching-service/internal/models"
	"github.com/reusefull/reusefull/backend/matching-service/internal/storage"
	"go.uber.org/zap"
)

// Store is the persistence surface the handlers need. *db.Database satisfies it.
type Store interface {
	matching.Source
	ListItems(ctx context.Context) ([]models.Item, error)

	UpsertUser(ctx context.Context, sub string, emailVerified bool) error
	GetUser(ctx context.Context, sub string) (*models.User, error)
	IsAdmin(ctx context.Context, sub string) (bool, error)

	UpsertCharityForUser(ctx context.Context, sub string, rec models.CharityRecord, categories, items []string) (int, error)
	GetSignupDraft(ctx context.Context, sub string) (*models.SignupDraft, error)

	ListPendingCharities(ctx context.Context) ([]models.CharityProfile, error)
	ApproveCharity(ctx context.Context, id int) error
	DenyCharity(ctx context.Context, id int) error

	Health(ctx context.Context) error
}

var _ Store = (*db.Database)(nil)

// LogoSigner issues presigned logo upload URLs.
type LogoSigner interface {
	SignLogoUpload(ctx context.Context, sub, fileName, contentType string) (*storage.LogoUpload, error)
}

// Handler holds the collaborators behind the HTTP handlers
type Handler struct {
	store    Store
	matcher  *matching.Matcher
	sessions *matching.Sessions
	logos    LogoSigner
	logger   *zap.Logger
	service  string
}

// Options configures a Handler.
type Options struct {
	Store    Store
	Matcher  *matching.Matcher
	Sessions *matching.Sessions
	Logos    LogoSigner
	Logger   *zap.Logger
	Service  string
}

// NewHandler creates a new handler instance
func NewHandler(opts Options) *Handler {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	matcher := opts.Matcher
	if matcher == nil {
		matcher = matching.NewMatcher(nil, logger)
	}
	sessions := opts.Sessions
	if sessions == nil {
		sessions = matching.NewSessions(matcher, 30*time.Minute)
	}
	service := opts.Service
	if service == "" {
		service = "matching-service"
	}
	return &Handler{
		store:    opts.Store,
		matcher:  matcher,
		sessions: sessions,
		logos:    opts.Logos,
		logger:   logger,
		service:  service,
	}
}

// Health handles GET /health
func (h *Handler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if h.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": "Database not initialized"})
		return
	}
	if err := h.store.Health(ctx); err != nil {
		h.logger.Warn("health check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unhealthy",
			"error":  "Database connection failed",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"service":   h.service,
	})
}

// Info handles GET /
func (h *Handler) Info(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": h.service,
		"version": "1.0.0",
		"status":  "running",
	})
}

func (h *Handler) storeReady(c *gin.Context) bool {
	if h.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Database not initialized"})
		return false
	}
	return true
}
