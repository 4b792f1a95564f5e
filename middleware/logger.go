package middleware

import (
	"time"

	"github.com/chaos-io/cutout/util"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Logger zap 请求日志
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", c.Writer.Status()),
			zap.Int("size", c.Writer.Size()),
			zap.String("ip", c.ClientIP()),
			zap.Duration("cost", time.Since(start)),
			zap.String("user_agent", c.Request.UserAgent()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		switch status := c.Writer.Status(); {
		case status >= 500:
			util.Logger.Error("request", fields...)
		case status >= 400:
			util.Logger.Warn("request", fields...)
		default:
			util.Logger.Info("request", fields...)
		}
	}
}
