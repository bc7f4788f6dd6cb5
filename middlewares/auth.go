package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"devevents/utils"
)

// Context keys set by Authenticate.
const (
	CtxUserID = "userId"
	CtxEmail  = "email"
	CtxRole   = "role"
)

// Authenticate 驗證 Authorization header 的 JWT，成功就把 userId / email / role 放進 context
func Authenticate(c *gin.Context) {
	token := strings.TrimSpace(c.Request.Header.Get("Authorization"))
	token = strings.TrimSpace(strings.TrimPrefix(token, "Bearer "))
	if token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Not authorized."})
		return
	}

	claims, err := utils.VerifyToken(token)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Not authorized."})
		return
	}

	c.Set(CtxUserID, claims.UserID)
	c.Set(CtxEmail, claims.Email)
	c.Set(CtxRole, claims.Role)
	c.Next()
}
