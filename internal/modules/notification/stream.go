package notification

import (
	"io"
	"log"
	"net/http"
	"time"

	jwtsvc "qaforum/internal/pkg/jwt"

	"github.com/gin-gonic/gin"
)

// StreamHandler serves the live notification stream as server-sent events.
//
// Endpoint: GET /notifications/stream?token=JWT
//
// EventSource cannot set headers, so the credential travels in the query
// string and is validated per connection.
type StreamHandler struct {
	hub       *Hub
	jwt       *jwtsvc.Service
	service   *Service
	heartbeat time.Duration
}

func NewStreamHandler(hub *Hub, jwt *jwtsvc.Service, service *Service, heartbeat time.Duration) *StreamHandler {
	if heartbeat <= 0 {
		heartbeat = 25 * time.Second
	}
	return &StreamHandler{
		hub:       hub,
		jwt:       jwt,
		service:   service,
		heartbeat: heartbeat,
	}
}

func (h *StreamHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/notifications/stream", h.HandleStream)
}

func (h *StreamHandler) HandleStream(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "Token is required. Use ?token=YOUR_JWT_TOKEN",
		})
		return
	}

	claims, err := h.jwt.ValidateToken(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "Invalid or expired token",
		})
		return
	}
	userID := claims.UserID

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")

	sub := h.hub.Register(userID)
	defer h.hub.Unregister(sub)
	log.Printf("stream_open user_id=%d subscribers=%d", userID, h.hub.SubscriberCount(userID))
	defer log.Printf("stream_close user_id=%d", userID)

	c.SSEvent(EventConnected, gin.H{})
	c.Writer.Flush()

	// Initial count so a reconnecting client converges without waiting for
	// the next change. A lookup failure is not fatal to the stream.
	if count, err := h.service.UnreadCount(c.Request.Context(), userID); err == nil {
		c.SSEvent(EventUnreadCount, gin.H{"count": count})
		c.Writer.Flush()
	}

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	clientGone := c.Request.Context().Done()

	c.Stream(func(w io.Writer) bool {
		select {
		case ev, ok := <-sub.Events():
			if !ok {
				return false
			}
			c.SSEvent(ev.Name, ev.Data)
			return true
		case <-ticker.C:
			// SSE comment keeps proxies from timing the connection out
			_, err := io.WriteString(w, ": ping\n\n")
			return err == nil
		case <-clientGone:
			return false
		}
	})
}
