// Package middleware 提供gin中间件
// 包含请求日志、panic恢复和请求方身份解析
package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/zapsync/zapsync/internal/logger"
)

// RequestLogger 请求日志中间件
// 为每个请求生成request_id并在响应头回显，便于跨日志关联
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		entry := logger.WithFields(logrus.Fields{
			"request_id": requestID,
			"status":     status,
			"latency":    latency.String(),
			"client_ip":  c.ClientIP(),
			"method":     c.Request.Method,
			"path":       path,
			"raw_query":  raw,
		})

		switch {
		case status >= 500:
			entry.Error("HTTP请求完成")
		case status >= 400:
			entry.Warn("HTTP请求完成")
		default:
			entry.Info("HTTP请求完成")
		}
	}
}
