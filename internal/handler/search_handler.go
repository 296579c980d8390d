package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/anytimesk/stock-ml-front-end/internal/chart"
	"github.com/anytimesk/stock-ml-front-end/internal/middleware"
	"github.com/anytimesk/stock-ml-front-end/internal/session"
	"github.com/anytimesk/stock-ml-front-end/internal/utils"
)

// ChartLimits is the default chart width and the largest size a client
// may ask for. A zero maximum leaves that dimension uncapped.
type ChartLimits struct {
	Width     int
	MaxWidth  int
	MaxHeight int
}

func (l ChartLimits) clamp(w, h int) (int, int) {
	if l.MaxWidth > 0 && w > l.MaxWidth {
		w = l.MaxWidth
	}
	if l.MaxHeight > 0 && h > l.MaxHeight {
		h = l.MaxHeight
	}
	return w, h
}

// SearchHandler serves the price search tab and its chart panes.
type SearchHandler struct {
	ui     UIConfig
	limits ChartLimits
	logger *zap.Logger
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(ui UIConfig, limits ChartLimits, logger *zap.Logger) *SearchHandler {
	return &SearchHandler{
		ui:     ui,
		limits: limits,
		logger: logger,
	}
}

// Page renders the search tab
// GET /search
func (h *SearchHandler) Page(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}
	sess.SetActiveTab(session.TabSearch)

	if size, err := strconv.Atoi(c.Query("size")); err == nil && isPageSize(size) {
		sess.Search.SetPageSize(size)
	}
	if page := utils.ParsePageParam(c, "page"); page > 0 {
		sess.Search.SetPage(page)
	}

	view := sess.Search.View()
	zoom := view.Zoom
	if z, ok := parseZoom(c); ok {
		zoom = z
	}

	width := h.limits.Width
	if w, err := strconv.Atoi(c.Query("w")); err == nil && w > 0 {
		width, _ = h.limits.clamp(w, 0)
	}

	page := newPage(sess, session.TabSearch)
	page.Refresh = h.ui.refresh(view.Pending)
	page.Search = &view
	page.Zoom = zoom
	page.ChartWidth = width
	page.PageSizes = PageSizes

	c.HTML(http.StatusOK, "search", page)
}

// Submit starts a price search
// POST /search
func (h *SearchHandler) Submit(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}

	// An unparsable row count is passed on as 0 and rejected by validation.
	rows, _ := strconv.Atoi(c.PostForm("numOfRows"))
	done := sess.Search.Search(c.PostForm("itmsNm"), rows)
	h.ui.settle(c, done)

	redirect(c, session.TabSearch.Path())
}

// Chart renders one pane of the price chart as SVG
// GET /search/chart/:pane
func (h *SearchHandler) Chart(c *gin.Context) {
	pane, err := chart.ParsePane(c.Param("pane"))
	if err != nil {
		utils.SendErrorResponse(c, http.StatusNotFound, err.Error())
		return
	}

	sess := middleware.CurrentSession(c)
	if sess == nil {
		c.Status(http.StatusNoContent)
		return
	}

	view := sess.Search.Chart()
	w, _ := strconv.Atoi(c.Query("w"))
	hgt, _ := strconv.Atoi(c.Query("h"))
	if w > 0 {
		if hgt <= 0 {
			_, hgt = view.Size()
		}
		view.Resize(h.limits.clamp(w, hgt))
	}

	var zoom *chart.Zoom
	if z, ok := parseZoom(c); ok {
		zoom = &z
	}

	svg, err := view.Render(pane, zoom)
	if errors.Is(err, chart.ErrNoData) {
		c.Status(http.StatusNoContent)
		return
	}
	if err != nil {
		h.logger.Error("Failed to render chart", zap.String("pane", string(pane)), zap.Error(err))
		utils.SendErrorResponse(c, http.StatusInternalServerError, "Failed to render chart")
		return
	}

	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/svg+xml", svg)
}

// parseZoom reads a start/end percentage pair. Both must be present.
func parseZoom(c *gin.Context) (chart.Zoom, bool) {
	start, err1 := strconv.ParseFloat(c.Query("start"), 64)
	end, err2 := strconv.ParseFloat(c.Query("end"), 64)
	if err1 != nil || err2 != nil {
		return chart.Zoom{}, false
	}
	return chart.Zoom{Start: start, End: end}.Normalize(), true
}

func isPageSize(size int) bool {
	for _, s := range PageSizes {
		if s == size {
			return true
		}
	}
	return false
}
