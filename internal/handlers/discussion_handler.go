package handlers

import (
	"context"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"givemepillow/internal/models"
	"givemepillow/internal/realtime"
	"givemepillow/internal/repositories"
	"givemepillow/internal/services"
)

type DiscussionHandler struct {
	comments *repositories.CommentRepository
	users    *services.UserService
	hub      *realtime.DiscussionHub
	upgrader websocket.Upgrader
}

func NewDiscussionHandler(
	comments *repositories.CommentRepository,
	users *services.UserService,
	hub *realtime.DiscussionHub,
) *DiscussionHandler {
	return &DiscussionHandler{
		comments: comments,
		users:    users,
		hub:      hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

func (h *DiscussionHandler) Messages(c *gin.Context) {
	postID, err := strconv.ParseInt(c.Param("post_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid post id"})
		return
	}
	comments, err := h.comments.ListByPost(c.Request.Context(), postID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	if comments == nil {
		comments = []models.Comment{}
	}
	c.JSON(http.StatusOK, comments)
}

type inboundComment struct {
	Text string `json:"text"`
}

// Join — websocket обсуждения поста: входящие {"text": ...}, исходящие —
// сохранённый комментарий с автором. Рассылка только после записи в БД.
func (h *DiscussionHandler) Join(c *gin.Context) {
	postID, err := strconv.ParseInt(c.Param("post_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid post id"})
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "not authenticated"})
		return
	}

	user, err := h.users.Get(c.Request.Context(), userID)
	if err != nil {
		abortWithError(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[discussions][join] upgrade post=%d: %v", postID, err)
		return
	}

	h.hub.Join(postID, conn)
	defer h.hub.Leave(postID, conn)

	// после апгрейда контекст запроса может быть отменён, а комментарии
	// должны дописываться до конца
	ctx := context.WithoutCancel(c.Request.Context())

	for {
		var inbound inboundComment
		if err := conn.ReadJSON(&inbound); err != nil {
			return
		}
		if inbound.Text == "" {
			continue
		}

		comment := &models.Comment{
			PostID: postID,
			UserID: userID,
			Text:   inbound.Text,
			User:   user,
		}
		if err := h.comments.Add(ctx, comment); err != nil {
			log.Printf("[discussions][join] comment add post=%d: %v", postID, err)
			continue
		}

		h.hub.Broadcast(postID, comment)
	}
}
