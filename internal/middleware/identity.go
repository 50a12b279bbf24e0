package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"brainboost/internal/utils"
)

// Identity 是一個 Gin 中間件，從請求的 JWT token 解出帳號識別
// 認證本身由外部服務負責，這裡的識別只用於顯示和審計
// token 缺失或無效時不拒絕請求，只是不設置識別
func Identity(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token != "" {
			if claims, err := utils.ParseToken(token, secret); err == nil {
				c.Set("identity", claims.Identity())
				c.Set("username", claims.Username)
			}
		}
		c.Next()
	}
}

// bearerToken 從 Authorization 頭或 token 查詢參數取出 token
// WebSocket 握手無法自訂請求頭，所以也接受查詢參數
func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
		return ""
	}
	return c.Query("token")
}
