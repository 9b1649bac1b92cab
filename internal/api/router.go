package api

import (
	"net/http"

	"DirectorySync/internal/config"

	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// NewRouter 注册全部路由；debug 模式下额外挂载 pprof
func NewRouter(cfg *config.ServerConfig, businesses *BusinessHandler, sync *SyncHandler, logger *logrus.Logger) *gin.Engine {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(logger))

	if cfg.Mode == gin.DebugMode {
		// 注册ppof 方便调试和监测性能问题
		pprof.Register(r)
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	apiGroup := r.Group("/api")
	apiGroup.GET("/businesses", businesses.ListBusinesses)
	apiGroup.GET("/businesses/:slug", businesses.GetBusiness)
	apiGroup.GET("/enrichment/:external_id", businesses.GetEnrichment)
	apiGroup.GET("/categories", businesses.ListCategories)
	apiGroup.POST("/sync", sync.Sync)

	return r
}
