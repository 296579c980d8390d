package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/anytimesk/stock-ml-front-end/internal/session"
)

// HealthDeps are the dependencies reported by the health check.
type HealthDeps struct {
	Sessions     *session.Store
	RedisPing    func(ctx context.Context) error
	PostgresPing func(ctx context.Context) error
	Kafka        bool
	Tracing      bool
}

// DashboardHandler serves the navigation shell: health, tab redirect and
// the theme toggle.
type DashboardHandler struct {
	deps   HealthDeps
	logger *zap.Logger
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(deps HealthDeps, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{
		deps:   deps,
		logger: logger,
	}
}

// Health reports liveness and the state of optional dependencies
// GET /health
func (h *DashboardHandler) Health(c *gin.Context) {
	status := "healthy"

	ctx, cancel := context.WithTimeout(c.Request.Context(), 1*time.Second)
	defer cancel()

	if h.deps.RedisPing != nil {
		if err := h.deps.RedisPing(ctx); err != nil {
			status = "degraded"
			h.logger.Warn("Redis health check failed", zap.Error(err))
		}
	}
	if h.deps.PostgresPing != nil {
		if err := h.deps.PostgresPing(ctx); err != nil {
			status = "degraded"
			h.logger.Warn("Postgres health check failed", zap.Error(err))
		}
	}

	sessions := 0
	if h.deps.Sessions != nil {
		sessions = h.deps.Sessions.Len()
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   status,
		"redis":    h.deps.RedisPing != nil,
		"postgres": h.deps.PostgresPing != nil,
		"kafka":    h.deps.Kafka,
		"tracing":  h.deps.Tracing,
		"sessions": sessions,
	})
}

// Index redirects to the tab the session last visited
// GET /
func (h *DashboardHandler) Index(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}
	redirect(c, sess.ActiveTab().Path())
}

// ToggleTheme flips the session theme and returns to the calling page
// POST /theme/toggle
func (h *DashboardHandler) ToggleTheme(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}

	mode := sess.Theme.Toggle()
	h.logger.Debug("Theme toggled", zap.String("session_id", sess.ID), zap.String("theme", string(mode)))

	redirect(c, returnPath(c.PostForm("return"), sess.ActiveTab()))
}

// returnPath accepts only a known tab page, so the form cannot redirect
// off-site.
func returnPath(raw string, fallback session.Tab) string {
	if tab, ok := session.ParseTab(strings.TrimPrefix(raw, "/")); ok {
		return tab.Path()
	}
	return fallback.Path()
}
