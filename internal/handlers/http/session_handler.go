package http

import (
	"net/http"

	"kickpulse/internal/core/services"

	"github.com/gin-gonic/gin"
)

// SessionHandler exposes the live session over a small read-only API.
type SessionHandler struct {
	engine *services.Engine
}

func NewSessionHandler(engine *services.Engine) *SessionHandler {
	return &SessionHandler{engine: engine}
}

func (h *SessionHandler) SetupRoutes(router *gin.Engine) {
	router.GET("/healthz", h.Health)

	api := router.Group("/api/v1")
	{
		api.GET("/session", h.GetSession)
		api.GET("/session/stats", h.GetStats)
	}
}

func (h *SessionHandler) Health(c *gin.Context) {
	status := "ok"
	if !h.engine.Running() {
		status = "stopped"
	}
	c.JSON(http.StatusOK, gin.H{"status": status})
}

func (h *SessionHandler) GetSession(c *gin.Context) {
	session := h.engine.Session()
	c.JSON(http.StatusOK, gin.H{
		"session_id":  session.ID,
		"channel":     session.ChannelName,
		"chatroom_id": session.ChatroomID,
		"started_at":  session.StartedAt,
		"running":     h.engine.Running(),
	})
}

func (h *SessionHandler) GetStats(c *gin.Context) {
	counts, top, viewers := h.engine.Stats()

	chatters := make([]gin.H, 0, len(top))
	for _, chatter := range top {
		chatters = append(chatters, gin.H{
			"sender_id":   chatter.SenderID,
			"sender_name": chatter.SenderName,
			"count":       chatter.Count,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"messages_per_second": counts.MessagesPerSecond,
		"messages_per_minute": counts.MessagesPerMinute,
		"unique_per_second":   counts.UniquePerSecond,
		"unique_per_minute":   counts.UniquePerMinute,
		"total_messages":      counts.TotalMessages,
		"unique_total":        counts.UniqueTotal,
		"viewer_count":        viewers,
		"top_chatters":        chatters,
		"last_activity":       h.engine.LastActivity(),
	})
}
