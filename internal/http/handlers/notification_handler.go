package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"gorm.io/gorm"

	"nyumbani/internal/auth"
	"nyumbani/internal/models"
	"nyumbani/internal/notify"
)

// ListNotifications returns the user's notifications, unread first.
func ListNotifications(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		cl, _ := auth.FromContext(c)

		limit := 50
		if limitStr := c.Query("limit"); limitStr != "" {
			if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 && parsed <= 200 {
				limit = parsed
			}
		}

		var notifications []models.Notification
		if err := db.Where("user_id = ?", cl.UserID).
			Order("`read` ASC, created_at DESC").
			Limit(limit).
			Find(&notifications).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		var unread int64
		db.Model(&models.Notification{}).
			Where("user_id = ? AND `read` = ?", cl.UserID, false).
			Count(&unread)

		c.JSON(http.StatusOK, gin.H{
			"notifications": notifications,
			"unread":        unread,
		})
	}
}

// MarkNotificationRead flags one notification as read.
func MarkNotificationRead(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		cl, _ := auth.FromContext(c)

		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid notification id"})
			return
		}

		res := db.Model(&models.Notification{}).
			Where("id = ? AND user_id = ?", id, cl.UserID).
			Update("read", true)
		if res.Error != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": res.Error.Error()})
			return
		}
		if res.RowsAffected == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "notification not found"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "marked read"})
	}
}

// MarkAllNotificationsRead flags every unread notification as read.
func MarkAllNotificationsRead(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		cl, _ := auth.FromContext(c)

		if err := db.Model(&models.Notification{}).
			Where("user_id = ? AND `read` = ?", cl.UserID, false).
			Update("read", true).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "all marked read"})
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // same-origin deployments only, adjust later if needed
	},
}

type wsAuthMsg struct {
	Op    string `json:"op"` // operation: "auth"
	Token string `json:"token"`
}

// NotificationsWS upgrades to a websocket and streams the user's
// notifications as they are created. The first client frame must be
// {"op":"auth","token":"<jwt>"}; anything else closes the socket.
func NotificationsWS(db *gorm.DB, hub *notify.Hub, jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}

		var msg wsAuthMsg
		if err := conn.ReadJSON(&msg); err != nil || msg.Op != "auth" {
			conn.Close()
			return
		}

		claims, err := auth.ParseToken(msg.Token, jwtSecret)
		if err != nil {
			conn.WriteJSON(gin.H{"error": "invalid token"})
			conn.Close()
			return
		}

		var user models.User
		if err := db.First(&user, claims.UserID).Error; err != nil || user.Status != models.UserActive {
			conn.WriteJSON(gin.H{"error": "account unavailable"})
			conn.Close()
			return
		}

		// Replay unread notifications so the client starts in sync. The
		// hub writes them under its lock, so a publish landing mid-replay
		// cannot race the same connection.
		var unread []models.Notification
		db.Where("user_id = ? AND `read` = ?", claims.UserID, false).
			Order("created_at ASC").
			Find(&unread)
		backlog := make([]interface{}, len(unread))
		for i := range unread {
			backlog[i] = &unread[i]
		}
		if err := hub.Add(claims.UserID, conn, backlog...); err != nil {
			return
		}
		defer hub.Remove(claims.UserID, conn)

		// Hold the socket open; the hub writes, we only watch for close.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}
}
