package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/avemasa0625-dev/gantt-pro-app/config"
	"github.com/avemasa0625-dev/gantt-pro-app/internal/api/handler"
	"github.com/avemasa0625-dev/gantt-pro-app/internal/api/middleware"
)

// rateWindow 限流窗口；配置里的 rate_limit 为每窗口请求数
const rateWindow = time.Minute

// Setup 初始化现场服务（cmd/server）的路由
//
// limiter 为 nil 时不限流。
func Setup(cfg *config.Config, h *handler.Handler, limiter middleware.Limiter, logger *zap.Logger) *gin.Engine {
	r := newEngine(cfg, logger)
	r.Use(middleware.RateLimit(limiter, cfg.Server.RateLimit, rateWindow, logger))

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 数据集
		v1.GET("/dataset", h.Dataset.GetStatus)
		v1.POST("/dataset/import", h.Dataset.Import)
		v1.GET("/products", h.Dataset.ListProducts)
		v1.GET("/products/:id/parts", h.Dataset.ListParts)

		// 作业计时与进度
		parts := v1.Group("/parts/:id")
		{
			parts.GET("/session", h.Session.Get)
			parts.POST("/session/start", h.Session.Start)
			parts.POST("/session/pause", h.Session.Pause)
			parts.POST("/session/complete", h.Session.Complete)
			parts.POST("/session/undo", h.Session.Undo)

			parts.GET("/progress", h.Progress.Summary)
			parts.GET("/calendar", h.Progress.Calendar)
		}
		v1.GET("/calendar", h.Progress.CalendarAll)

		// 导出
		v1.GET("/export/report", h.Export.ExportReport)
	}

	return r
}

// SetupSync 初始化远端快照服务（cmd/syncd）的路由
func SetupSync(cfg *config.Config, h *handler.SyncHandler, limiter middleware.Limiter, logger *zap.Logger) *gin.Engine {
	r := newEngine(cfg, logger)

	api := r.Group("/api")
	api.Use(middleware.RateLimit(limiter, cfg.Server.RateLimit, rateWindow, logger))
	{
		api.GET("/data", h.GetData)
		api.POST("/save-log", h.SaveLog)
	}

	return r
}

func newEngine(cfg *config.Config, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(cfg.Server.MaxBodyBytes))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}
