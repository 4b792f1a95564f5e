package handler

import (
	"net/http"

	"github.com/chaos-io/cutout/middleware"
	"github.com/gin-gonic/gin"
)

// BuildInfo 构建信息，由 main 通过 ldflags 注入
type BuildInfo struct {
	Version   string
	BuildTime string
	GitCommit string
}

// NewRouter 创建 gin 路由
func NewRouter(mode string, info BuildInfo, h *CutoutHandler) *gin.Engine {
	gin.SetMode(mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS())

	// 健康检查和版本信息
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"version": info.Version,
		})
	})

	r.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":    info.Version,
			"build_time": info.BuildTime,
			"git_commit": info.GitCommit,
		})
	})

	h.Register(r.Group("/api/v1"))
	return r
}
