package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"givemepillow/internal/gallery"
	"givemepillow/internal/security"
	"givemepillow/internal/services"
)

type UserHandler struct {
	users *services.UserService
}

func NewUserHandler(users *services.UserService) *UserHandler {
	return &UserHandler{users: users}
}

func (h *UserHandler) Me(c *gin.Context) {
	userID, _ := currentUserID(c)
	user, err := h.users.Get(c.Request.Context(), userID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) GetByID(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid user id"})
		return
	}
	user, err := h.users.Get(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// Поля-указатели различают "не прислано" и "прислано пустым": отсутствующее
// поле не трогает сохранённое значение, пустая строка очищает его.
type updateProfileRequest struct {
	Name *string `json:"name" binding:"omitempty,max=50"`
	Bio  *string `json:"bio" binding:"omitempty,max=500"`
}

func (h *UserHandler) UpdateMe(c *gin.Context) {
	userID, _ := currentUserID(c)
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	user, err := h.users.UpdateProfile(c.Request.Context(), userID, req.Name, req.Bio)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// SetAvatar — multipart с одним файлом и геометрией кадрирования.
func (h *UserHandler) SetAvatar(c *gin.Context) {
	userID, _ := currentUserID(c)

	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "file is required"})
		return
	}
	var area cropArea
	if err := json.Unmarshal([]byte(c.PostForm("area")), &area); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid crop area"})
		return
	}

	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "unreadable file"})
		return
	}
	data, err := io.ReadAll(f)
	f.Close()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "unreadable file"})
		return
	}

	user, err := h.users.SetAvatar(c.Request.Context(), userID, data, gallery.ProcessOptions{
		Rotate:       area.Rotate,
		X:            area.X,
		Y:            area.Y,
		Width:        area.Width,
		Height:       area.Height,
		KeepOriginal: area.SaveOriginal,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// DeleteMe удаляет аккаунт вместе с файлами и завершает сессию.
func (h *UserHandler) DeleteMe(c *gin.Context) {
	userID, _ := currentUserID(c)
	if err := h.users.DeleteAccount(c.Request.Context(), userID); err != nil {
		abortWithError(c, err)
		return
	}
	security.ClearCookie(c)
	c.JSON(http.StatusOK, gin.H{"message": "account deleted"})
}
