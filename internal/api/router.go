package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/reusefull/reusefull/backend/matching-service/internal/logging"
	"go.uber.org/zap"
)

// RouterConfig carries the secrets and CORS origin the routes need.
type RouterConfig struct {
	JWTSecret    string
	ActionSecret string
	CORSOrigin   string
}

// NewRouter wires every route onto a fresh gin engine.
func NewRouter(h *Handler, cfg RouterConfig, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	router := gin.New()

	router.Use(logging.JSONLogger(logger))
	router.Use(gin.Recovery())
	router.Use(CORSMiddleware(cfg.CORSOrigin))

	// Health and readiness endpoints
	router.GET("/live", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/ready", h.Health)
	router.GET("/health", h.Health)

	v1 := router.Group("/api/v1")
	{
		// Collections (public)
		v1.GET("/orgs", h.GetOrgs)
		v1.GET("/org-items", h.GetOrgItems)
		v1.GET("/categories", h.GetCategories)
		v1.GET("/org-charity-types", h.GetOrgCharityTypes)
		v1.GET("/items", h.GetItems)

		// Donor matching (public)
		v1.POST("/matches", h.Match)
		v1.POST("/donor-sessions", h.CreateDonorSession)
		v1.PUT("/donor-sessions/:id/preferences", h.UpdateDonorPreferences)
		v1.GET("/donor-sessions/:id/results", h.GetDonorResults)

		// Identity provider callbacks
		hooks := v1.Group("")
		hooks.Use(ActionSecretMiddleware(cfg.ActionSecret))
		{
			hooks.POST("/users", h.UpsertUser)
			hooks.POST("/identity/logs/webhook", h.IdentityLogsWebhook)
		}

		// Charity accounts (authenticated)
		auth := v1.Group("")
		auth.Use(AuthMiddleware(cfg.JWTSecret, logger))
		{
			auth.GET("/me", h.GetMe)
			auth.PUT("/charity-signup/draft", h.SaveSignupDraft)
			auth.POST("/charity-signup/submit", h.SubmitSignup)
			auth.POST("/uploads/logo-url", h.LogoUploadURL)
		}

		admin := v1.Group("/admin")
		admin.Use(AuthMiddleware(cfg.JWTSecret, logger), h.AdminMiddleware())
		{
			admin.GET("/charities/pending", h.ListPendingCharities)
			admin.POST("/charities/:id/approve", h.ApproveCharity)
			admin.POST("/charities/:id/deny", h.DenyCharity)
		}
	}

	// Root endpoint for basic info
	router.GET("/", h.Info)

	return router
}
