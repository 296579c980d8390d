package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/anytimesk/stock-ml-front-end/internal/model"
	"github.com/anytimesk/stock-ml-front-end/internal/session"
	"github.com/anytimesk/stock-ml-front-end/internal/utils"
)

// MLHandler serves the training tab.
type MLHandler struct {
	ui     UIConfig
	logger *zap.Logger
}

// NewMLHandler creates a new ML handler
func NewMLHandler(ui UIConfig, logger *zap.Logger) *MLHandler {
	return &MLHandler{
		ui:     ui,
		logger: logger,
	}
}

// Page renders the training tab, loading the file list on first visit
// GET /ml
func (h *MLHandler) Page(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}
	sess.SetActiveTab(session.TabML)

	h.ui.settle(c, sess.ML.EnsureLoaded())

	if page := utils.ParsePageParam(c, "page"); page > 0 {
		sess.ML.SetPage(page)
	}

	view := sess.ML.View()
	pending := view.Files.Pending || view.Generate.Pending || view.Train.Pending || view.Predict.Pending

	page := newPage(sess, session.TabML)
	page.Refresh = h.ui.refresh(pending)
	page.ML = &view

	c.HTML(http.StatusOK, "ml", page)
}

// RefreshFiles reloads the CSV file list
// POST /ml/files/refresh
func (h *MLHandler) RefreshFiles(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}
	h.ui.settle(c, sess.ML.RefreshFiles())
	redirect(c, session.TabML.Path())
}

// GenerateCSV asks the backend to export a stock's history as CSV
// POST /ml/csv
func (h *MLHandler) GenerateCSV(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}
	h.ui.settle(c, sess.ML.GenerateCSV(c.PostForm("itmsNm")))
	redirect(c, session.TabML.Path())
}

// Select toggles the file at an absolute list index
// POST /ml/select/:index
func (h *MLHandler) Select(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}

	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		utils.SendErrorResponse(c, http.StatusBadRequest, "invalid index")
		return
	}
	if !sess.ML.ToggleIndex(index) {
		utils.SendErrorResponse(c, http.StatusNotFound, fmt.Sprintf("no file at index %d", index))
		return
	}

	redirect(c, session.TabML.Path())
}

// SetModel switches the model toggle
// POST /ml/model
func (h *MLHandler) SetModel(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}

	m, err := model.ParseModelType(c.PostForm("model_type"))
	if err != nil {
		utils.SendErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	sess.ML.SetModelType(m)

	redirect(c, session.TabML.Path())
}

// Train trains the active model on the first selected file
// POST /ml/train
func (h *MLHandler) Train(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}
	h.logger.Debug("Training requested",
		zap.String("session_id", sess.ID),
		zap.String("model_type", string(sess.ML.ModelType())))

	h.ui.settle(c, sess.ML.Train())
	redirect(c, session.TabML.Path())
}

// Predict runs the active model on the first selected file
// POST /ml/predict
func (h *MLHandler) Predict(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}
	h.ui.settle(c, sess.ML.Predict())
	redirect(c, session.TabML.Path())
}
