package handler

import (
	"context"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/anytimesk/stock-ml-front-end/internal/chart"
	"github.com/anytimesk/stock-ml-front-end/internal/middleware"
	"github.com/anytimesk/stock-ml-front-end/internal/panel"
	"github.com/anytimesk/stock-ml-front-end/internal/session"
	"github.com/anytimesk/stock-ml-front-end/internal/theme"
	"github.com/anytimesk/stock-ml-front-end/internal/utils"
)

// PageSizes are the page sizes offered for the price table.
var PageSizes = []int{5, 10, 20, 50}

var tabLabels = map[session.Tab]string{
	session.TabSearch: "Search",
	session.TabML:     "Training",
}

// TabLink is one entry of the tab menu.
type TabLink struct {
	Label  string
	Path   string
	Active bool
}

// Page is the data every page template receives.
type Page struct {
	Title    string
	Theme    theme.Mode
	ThemeCSS template.CSS
	Path     string
	Tabs     []TabLink
	Refresh  int

	Search     *panel.SearchView
	Zoom       chart.Zoom
	ChartWidth int
	PageSizes  []int

	ML *panel.MLView
}

// UIConfig controls post/redirect/get pacing.
type UIConfig struct {
	SettleTimeout  time.Duration
	RefreshSeconds int
}

func newPage(sess *session.Session, active session.Tab) Page {
	mode := sess.Theme.Mode()
	p := Page{
		Title:    tabLabels[active],
		Theme:    mode,
		ThemeCSS: themeCSS(mode.Palette()),
		Path:     active.Path(),
	}
	for _, t := range session.Tabs {
		p.Tabs = append(p.Tabs, TabLink{Label: tabLabels[t], Path: t.Path(), Active: t == active})
	}
	return p
}

// themeCSS exposes the palette to the stylesheet as custom properties.
func themeCSS(p theme.Palette) template.CSS {
	return template.CSS(fmt.Sprintf(
		":root{--background:%s;--foreground:%s;--card:%s;--border:%s;--shadow:%s}",
		p.Background, p.Foreground, p.CardBackground, p.BorderColor, p.ShadowColor,
	))
}

// requireSession fetches the session attached by the session middleware.
func requireSession(c *gin.Context) (*session.Session, bool) {
	sess := middleware.CurrentSession(c)
	if sess == nil {
		utils.SendErrorResponse(c, http.StatusInternalServerError, "session unavailable")
		c.Abort()
		return nil, false
	}
	return sess, true
}

// settle waits up to the configured time for an action to finish so the
// page after the redirect usually shows its result.
func (u UIConfig) settle(c *gin.Context, done <-chan struct{}) {
	if done == nil || u.SettleTimeout <= 0 {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), u.SettleTimeout)
	defer cancel()
	panel.Wait(ctx, done)
}

func (u UIConfig) refresh(pending bool) int {
	if !pending {
		return 0
	}
	return u.RefreshSeconds
}

func redirect(c *gin.Context, path string) {
	c.Redirect(http.StatusSeeOther, path)
}
