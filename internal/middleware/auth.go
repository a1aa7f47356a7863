package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"givemepillow/internal/security"
)

const claimsKey = "claims"

// Auth читает сессионную cookie, проверяет токен и кладёт claims в контекст.
func Auth(manager *security.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie(security.CookieName)

		claims, err := manager.Parse(token)
		if err != nil {
			switch {
			case errors.Is(err, security.ErrUnauthenticated):
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "not authenticated"})
			case errors.Is(err, security.ErrTokenExpired):
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "token is expired"})
			default:
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "invalid token"})
			}
			return
		}

		c.Set(claimsKey, claims)
		c.Next()
	}
}

// RequireScope отсекает токены с чужим scope: signup-токен годится только
// для завершения регистрации, остальные эндпоинты требуют primary_user.
func RequireScope(scope security.Scope) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := Claims(c)
		if claims == nil || !claims.HasScope(scope) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "forbidden scope"})
			return
		}
		c.Next()
	}
}

// Claims достаёт проверенные claims из контекста запроса.
func Claims(c *gin.Context) *security.Claims {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*security.Claims)
	return claims
}
