package handlers

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"givemepillow/internal/gallery"
	"givemepillow/internal/repositories"
)

// PictureHandler отдаёт файлы хранилища. Имена на диске без расширения,
// формат берётся из метаданных.
type PictureHandler struct {
	pictures *repositories.PictureRepository
	posts    *repositories.PostRepository
	photos   *gallery.Store
	avatars  *gallery.Store
}

func NewPictureHandler(
	pictures *repositories.PictureRepository,
	posts *repositories.PostRepository,
	photos, avatars *gallery.Store,
) *PictureHandler {
	return &PictureHandler{pictures: pictures, posts: posts, photos: photos, avatars: avatars}
}

func (h *PictureHandler) GetOptimized(c *gin.Context) {
	ownerID, err := strconv.ParseInt(c.Param("user_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid user id"})
		return
	}
	path := h.photos.Path(gallery.Optimized, ownerID, c.Param("picture_id"))
	if _, err := os.Stat(path); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "picture not found"})
		return
	}
	c.Header("Content-Type", "image/jpeg")
	c.File(path)
}

// GetOriginal — скачивание оригинала: поднимает счётчик downloads и отдаёт
// файл с человеческим именем.
func (h *PictureHandler) GetOriginal(c *gin.Context) {
	pictureID := c.Param("picture_id")

	pic, owner, err := h.pictures.Get(c.Request.Context(), pictureID)
	if err != nil {
		abortWithError(c, err)
		return
	}

	if err := h.posts.IncrementDownloads(c.Request.Context(), pic.PostID); err != nil {
		log.Printf("[pictures][original] downloads increment post=%d: %v", pic.PostID, err)
	}

	path := h.photos.Path(gallery.Original, owner.ID, pic.ID)
	if _, err := os.Stat(path); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "picture not found"})
		return
	}

	parts := strings.Split(pic.ID, "-")
	filename := fmt.Sprintf("%s_%s.%s", owner.Username, parts[len(parts)-1], pic.Format)
	c.FileAttachment(path, filename)
}

func (h *PictureHandler) GetAvatar(c *gin.Context) {
	source := gallery.Variant(c.Param("source"))
	if source != gallery.Original && source != gallery.Optimized {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid source"})
		return
	}
	ownerID, err := strconv.ParseInt(c.Param("user_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid user id"})
		return
	}
	path := h.avatars.Path(source, ownerID, c.Param("avatar_id"))
	if _, err := os.Stat(path); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "avatar not found"})
		return
	}
	if source == gallery.Optimized {
		c.Header("Content-Type", "image/jpeg")
	}
	c.File(path)
}
