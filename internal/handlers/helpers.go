package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"givemepillow/internal/gallery"
	"givemepillow/internal/middleware"
	"givemepillow/internal/repositories"
	"givemepillow/internal/security"
	"givemepillow/internal/services"
)

// abortWithError переводит сентинелы нижних слоёв в HTTP-статусы.
// Внутренние детали наружу не уходят, только машинный статус и сообщение.
func abortWithError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "not found"})
	case errors.Is(err, repositories.ErrConflict):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"message": "conflict"})
	case errors.Is(err, services.ErrForbidden):
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "forbidden"})
	case errors.Is(err, gallery.ErrDecode):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "unsupported or corrupt image"})
	case errors.Is(err, gallery.ErrInvalidRegion):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "crop box outside image bounds"})
	default:
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "internal error"})
	}
}

// currentUserID — id пользователя из проверенного primary_user-токена.
func currentUserID(c *gin.Context) (int64, bool) {
	claims := middleware.Claims(c)
	if claims == nil || !claims.HasScope(security.ScopePrimaryUser) {
		return 0, false
	}
	return claims.UserID, true
}
