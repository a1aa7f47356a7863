package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"givemepillow/internal/models"
	"givemepillow/internal/services"
)

type PostHandler struct {
	posts *services.PostService
}

func NewPostHandler(posts *services.PostService) *PostHandler {
	return &PostHandler{posts: posts}
}

// cropArea — клиентская геометрия одной картинки. rotate — визуальный
// поворот в превью, конвейер применит его с обратным знаком.
type cropArea struct {
	X            int  `json:"x"`
	Y            int  `json:"y"`
	Width        int  `json:"width"`
	Height       int  `json:"height"`
	Rotate       int  `json:"rotate"`
	SaveOriginal bool `json:"saveOriginal"`
}

// Create принимает multipart: title, description, aspectRatio, files[] и
// параллельный files списку areas[] с JSON-геометрией.
func (h *PostHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "not authenticated"})
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid multipart form"})
		return
	}

	files := form.File["files"]
	areas := form.Value["areas"]
	if len(files) == 0 || len(files) != len(areas) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "files and areas must match"})
		return
	}

	aspectRatio, err := strconv.ParseFloat(c.PostForm("aspectRatio"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid aspectRatio"})
		return
	}

	newPost := services.NewPost{
		UserID:      userID,
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
		AspectRatio: aspectRatio,
	}

	for i, fh := range files {
		var area cropArea
		if err := json.Unmarshal([]byte(areas[i]), &area); err != nil {
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

		newPost.Pictures = append(newPost.Pictures, services.NewPicture{
			Data:         data,
			Rotate:       area.Rotate,
			X:            area.X,
			Y:            area.Y,
			Width:        area.Width,
			Height:       area.Height,
			KeepOriginal: area.SaveOriginal,
		})
	}

	post, err := h.posts.Publish(c.Request.Context(), newPost)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, post)
}

// Страница листинга не бывает больше maxListLimit: каждый пост тянет за
// собой запрос картинок.
const maxListLimit = 100

// List — курсорная пагинация: before (RFC3339, created_at последнего
// увиденного поста) и limit.
func (h *PostHandler) List(c *gin.Context) {
	limit := maxListLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"message": "invalid limit"})
			return
		}
		if n > maxListLimit {
			n = maxListLimit
		}
		limit = n
	}

	var before *time.Time
	if raw := c.Query("before"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "invalid before cursor"})
			return
		}
		before = &t
	}

	var userID *int64
	if raw := c.Query("user_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "invalid user_id"})
			return
		}
		userID = &id
	}

	posts, err := h.posts.List(c.Request.Context(), before, limit, userID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	if posts == nil {
		posts = []models.Post{}
	}
	c.JSON(http.StatusOK, posts)
}

func (h *PostHandler) GetByID(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid post id"})
		return
	}
	post, err := h.posts.Get(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

func (h *PostHandler) Delete(c *gin.Context) {
	userID, _ := currentUserID(c)
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid post id"})
		return
	}
	if err := h.posts.Delete(c.Request.Context(), id, userID); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "post deleted"})
}

func (h *PostHandler) Bookmark(c *gin.Context) {
	userID, _ := currentUserID(c)
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid post id"})
		return
	}
	if err := h.posts.Bookmark(c.Request.Context(), userID, id); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "bookmarked"})
}

func (h *PostHandler) Unbookmark(c *gin.Context) {
	userID, _ := currentUserID(c)
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid post id"})
		return
	}
	if err := h.posts.Unbookmark(c.Request.Context(), userID, id); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "bookmark removed"})
}

func (h *PostHandler) Bookmarks(c *gin.Context) {
	userID, _ := currentUserID(c)
	posts, err := h.posts.Bookmarks(c.Request.Context(), userID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, posts)
}
