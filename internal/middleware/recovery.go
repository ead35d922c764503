package middleware

import (
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	apperrors "github.com/zapsync/zapsync/internal/errors"
	"github.com/zapsync/zapsync/internal/logger"
	"github.com/zapsync/zapsync/internal/response"
)

// Recovery panic恢复中间件
// 请求处理中的panic转换为500响应，不影响其他请求
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.WithFields(logrus.Fields{
					"request_id": c.GetString("request_id"),
					"path":       c.Request.URL.Path,
					"panic":      r,
					"stack":      string(debug.Stack()),
				}).Error("请求处理发生panic")

				response.InternalServerError(c, apperrors.GetErrorMessage(apperrors.ErrInternalServer))
				c.Abort()
			}
		}()
		c.Next()
	}
}
