package realtime

import (
	"sync"

	"github.com/gorilla/websocket"
)

// DiscussionHub раздаёт комментарии всем подключённым к обсуждению поста.
type DiscussionHub struct {
	mu          sync.Mutex
	discussions map[int64]map[*websocket.Conn]struct{}
}

func NewDiscussionHub() *DiscussionHub {
	return &DiscussionHub{
		discussions: make(map[int64]map[*websocket.Conn]struct{}),
	}
}

func (h *DiscussionHub) Join(postID int64, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.discussions[postID] == nil {
		h.discussions[postID] = make(map[*websocket.Conn]struct{})
	}
	h.discussions[postID][conn] = struct{}{}
}

func (h *DiscussionHub) Leave(postID int64, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.discussions[postID]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.discussions, postID)
		}
	}
	_ = conn.Close()
}

// Broadcast пишет под общим мьютексом: у websocket-соединения не может
// быть двух конкурентных писателей.
func (h *DiscussionHub) Broadcast(postID int64, v interface{}) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.discussions[postID] {
		_ = conn.WriteJSON(v)
	}
}
