package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/anytimesk/stock-ml-front-end/internal/middleware"
	"github.com/anytimesk/stock-ml-front-end/internal/prefs"
	"github.com/anytimesk/stock-ml-front-end/internal/session"
	"github.com/anytimesk/stock-ml-front-end/internal/web"
)

// RouterDeps is everything the router wires together.
type RouterDeps struct {
	Sessions       *session.Store
	Prefs          prefs.Store
	Health         HealthDeps
	UI             UIConfig
	Chart          ChartLimits
	RateLimiter    *middleware.RateLimiter
	ClientIPHeader string
	Logger         *zap.Logger
}

// NewRouter builds the gin engine serving the dashboard. A nil
// RateLimiter disables rate limiting.
func NewRouter(d RouterDeps) (*gin.Engine, error) {
	tmpl, err := web.Templates()
	if err != nil {
		return nil, err
	}

	router := gin.New()
	router.SetHTMLTemplate(tmpl)

	// Use standard middlewares
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(d.Logger))

	dashboardHandler := NewDashboardHandler(d.Health, d.Logger)
	searchHandler := NewSearchHandler(d.UI, d.Chart, d.Logger)
	mlHandler := NewMLHandler(d.UI, d.Logger)

	// Health check
	router.GET("/health", dashboardHandler.Health)
	router.StaticFS("/static", web.Static())

	// Chart images are only meaningful for a browser that already has a
	// session, so they never create one.
	router.GET("/search/chart/:pane", middleware.LookupSession(d.Sessions), searchHandler.Chart)

	pages := router.Group("/")
	pages.Use(middleware.Session(d.Sessions, d.Prefs, d.Logger))
	if d.RateLimiter != nil {
		pages.Use(middleware.RateLimit(d.RateLimiter, d.ClientIPHeader))
	}
	{
		pages.GET("/", dashboardHandler.Index)
		pages.POST("/theme/toggle", dashboardHandler.ToggleTheme)

		// Search tab
		pages.GET("/search", searchHandler.Page)
		pages.POST("/search", searchHandler.Submit)

		// Training tab
		pages.GET("/ml", mlHandler.Page)
		pages.POST("/ml/files/refresh", mlHandler.RefreshFiles)
		pages.POST("/ml/csv", mlHandler.GenerateCSV)
		pages.POST("/ml/select/:index", mlHandler.Select)
		pages.POST("/ml/model", mlHandler.SetModel)
		pages.POST("/ml/train", mlHandler.Train)
		pages.POST("/ml/predict", mlHandler.Predict)
	}

	return router, nil
}
