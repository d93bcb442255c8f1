package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	apierrors "github.com/yukikurage/ticket-tracker-api/internal/errors"
)

// Presence answers who is connected and pushes announcements.
type Presence interface {
	OnlineUsers() []string
	OnlineUsersCount() int
	IsUserOnline(username string) bool
	BroadcastAnnouncement(announcement, sender string) int
}

type NotificationHandler struct {
	presence Presence
}

func NewNotificationHandler(presence Presence) *NotificationHandler {
	return &NotificationHandler{presence: presence}
}

// ListOnline returns the connected usernames
func (h *NotificationHandler) ListOnline(c *gin.Context) {
	users := h.presence.OnlineUsers()
	c.JSON(http.StatusOK, gin.H{
		"users": users,
		"count": len(users),
	})
}

// IsOnline reports whether one user is connected
func (h *NotificationHandler) IsOnline(c *gin.Context) {
	username := c.Param("username")
	c.JSON(http.StatusOK, gin.H{
		"username": username,
		"online":   h.presence.IsUserOnline(username),
	})
}

// Broadcast sends an announcement from the caller to every connected user
func (h *NotificationHandler) Broadcast(c *gin.Context) {
	principal, ok := currentPrincipal(c)
	if !ok {
		return
	}

	type BroadcastRequest struct {
		Message string `json:"message" binding:"required"`
	}

	var req BroadcastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	delivered := h.presence.BroadcastAnnouncement(req.Message, principal.Username)
	c.JSON(http.StatusOK, gin.H{
		"delivered": delivered,
		"online":    h.presence.OnlineUsersCount(),
	})
}
