package middleware

import (
	"net/http"

	"campusboard/internal/models"
	"campusboard/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/go-chi/jwtauth/v5"
)

const CheckUserKey = "user"

// LoadUser 解析 Authorization: Bearer 令牌并把用户放进 context。
// 没有令牌时按匿名访问继续；令牌无效或过期直接 401。
func LoadUser(auth *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := jwtauth.TokenFromHeader(c.Request)
		if token == "" {
			c.Next()
			return
		}

		user, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		c.Set(CheckUserKey, user)
		c.Next()
	}
}

// CurrentUser 返回已登录用户，匿名时为 nil
func CurrentUser(c *gin.Context) *models.User {
	if v, ok := c.Get(CheckUserKey); ok {
		if user, ok := v.(*models.User); ok {
			return user
		}
	}
	return nil
}

// AuthRequired ensures a user is logged in
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "请先登录"})
			return
		}
		c.Next()
	}
}

// AdminRequired 仅允许 ADMIN 用户，需放在 AuthRequired 之后
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil || !user.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "需要管理员权限"})
			return
		}
		c.Next()
	}
}
