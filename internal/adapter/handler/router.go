package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/telaila/companion/pkg/config"
)

// Router holds all handlers
type Router struct {
	cfg              *config.Config
	testerHandler    *Tester
	dashboardHandler *Dashboard
	biographyHandler *Biography
	webhookHandler   *Webhook
}

// NewRouter creates a new router with all handlers
func NewRouter(cfg *config.Config, testerHandler *Tester, dashboardHandler *Dashboard, biographyHandler *Biography, webhookHandler *Webhook) *Router {
	return &Router{
		cfg:              cfg,
		testerHandler:    testerHandler,
		dashboardHandler: dashboardHandler,
		biographyHandler: biographyHandler,
		webhookHandler:   webhookHandler,
	}
}

// Setup configures all application routes
func (rt *Router) Setup(e *echo.Echo) {
	// Health check endpoint
	e.GET("/health", rt.healthCheck)

	// API v1 group
	v1 := e.Group("/v1")

	rt.setupTesterRoutes(v1)
	rt.setupWebhookRoutes(v1)
}

// setupTesterRoutes configures tester, dashboard and biography routes
func (rt *Router) setupTesterRoutes(g *echo.Group) {
	testers := g.Group("/testers")

	if rt.testerHandler != nil {
		testers.POST("", rt.testerHandler.Register)
		testers.GET("", rt.testerHandler.List)
		testers.GET("/:id", rt.testerHandler.Get)
		testers.POST("/:id/agent", rt.testerHandler.LinkAgent)
		testers.GET("/:id/knowledge-base", rt.testerHandler.KnowledgeBase)
		g.GET("/agents/:agent_id/knowledge-base", rt.testerHandler.KnowledgeBaseByAgent)
	}

	if rt.dashboardHandler != nil {
		testers.GET("/:id/dashboard", rt.dashboardHandler.Get)
		testers.GET("/:id/family-updates", rt.dashboardHandler.FamilyUpdates)
	}

	if rt.biographyHandler != nil {
		testers.GET("/:id/biography", rt.biographyHandler.Get)
		testers.GET("/:id/biography/export", rt.biographyHandler.Export)
		testers.POST("/:id/biography/upload", rt.biographyHandler.Upload)
		testers.GET("/:id/biography/exports", rt.biographyHandler.Exports)
		testers.GET("/:id/biography/blocks", rt.biographyHandler.Blocks)
	}
}

// setupWebhookRoutes configures inbound webhooks
func (rt *Router) setupWebhookRoutes(g *echo.Group) {
	if rt.webhookHandler != nil {
		g.POST("/webhooks/elevenlabs/conversation-ended", rt.webhookHandler.ConversationEnded)
	}
}

// healthCheck returns health status
func (rt *Router) healthCheck(c echo.Context) error {
	env := "production"
	if rt.cfg != nil && rt.cfg.Server.Environment != "" {
		env = rt.cfg.Server.Environment
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":      "ok",
		"service":     "telaila-companion",
		"environment": env,
		"time":        time.Now().UTC().Format(time.RFC3339),
	})
}
