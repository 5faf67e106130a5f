package middleware

import (
	"eportfolio_grading/internal/config"
	"eportfolio_grading/internal/lang"
	"eportfolio_grading/internal/model"
	"eportfolio_grading/internal/util"
	"eportfolio_grading/pkg/logger"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// TokenCookie 页面访问时携带 JWT 的 cookie 名
const TokenCookie = "eportfolio_token"

// LangKey gin.Context 中保存界面语言的键
const LangKey = "lang"

func extractToken(c *gin.Context) string {
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	if token := c.Query("token"); token != "" {
		return token
	}
	if token, err := c.Cookie(TokenCookie); err == nil {
		return token
	}
	return ""
}

func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractToken(c)
		if tokenString == "" {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		claims, err := util.ParseJWT(tokenString, cfg.JWT.Secret)
		if err != nil {
			logger.Log.Debug("JWT解析错误", zap.Error(err))
			util.Unauthorized(c)
			c.Abort()
			return
		}

		c.Set("user", claims)
		c.Next()
	}
}

func RoleMiddleware(roles ...model.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := util.GetUserFromContext(c)
		if user == nil {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		hasRole := false
		for _, role := range roles {
			// 管理员拥有所有教师权限
			if user.Role == model.Admin || user.Role == role {
				hasRole = true
				break
			}
		}

		if !hasRole {
			util.Forbidden(c)
			c.Abort()
			return
		}
		c.Next()
	}
}

// Language 用户偏好语言优先，其次 Accept-Language
func Language() gin.HandlerFunc {
	return func(c *gin.Context) {
		preferred := ""
		if claims := util.GetUserFromContext(c); claims != nil {
			preferred = claims.Lang
		}
		c.Set(LangKey, lang.Match(preferred, c.GetHeader("Accept-Language")))
		c.Next()
	}
}
