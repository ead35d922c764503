package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	apperrors "github.com/zapsync/zapsync/internal/errors"
	"github.com/zapsync/zapsync/internal/response"
)

// OwnerIDKey 上下文中存放请求方标识的键
const OwnerIDKey = "owner_id"

// Identity 请求方身份解析中间件
// 从Bearer令牌主题或X-User-ID头解析所有者标识；身份的签发与校验
// 由网关层负责，本服务只要求标识存在
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		ownerID := ownerFromRequest(c)
		if ownerID == "" {
			response.Unauthorized(c, apperrors.GetErrorMessage(apperrors.ErrUnauthorized))
			c.Abort()
			return
		}

		c.Set(OwnerIDKey, ownerID)
		c.Next()
	}
}

// GetOwnerID 从gin上下文中取出请求方标识
func GetOwnerID(c *gin.Context) string {
	return c.GetString(OwnerIDKey)
}

func ownerFromRequest(c *gin.Context) string {
	auth := c.GetHeader("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		token := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
		if token != "" {
			return token
		}
	}
	return strings.TrimSpace(c.GetHeader("X-User-ID"))
}
