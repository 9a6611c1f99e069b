package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"nyumbani/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ListActivity is the admin activity-log table: keyset pagination on id
// plus a free-text search over actor, action, entity type and IP.
func ListActivity(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := 20
		if limitStr := c.Query("limit"); limitStr != "" {
			if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 && parsed <= 100 {
				limit = parsed
			}
		}

		var afterID int64
		if cursorStr := c.Query("after_id"); cursorStr != "" {
			if parsed, err := strconv.ParseInt(cursorStr, 10, 64); err == nil && parsed > 0 {
				afterID = parsed
			}
		}

		search := strings.TrimSpace(c.Query("q"))

		query := db.Model(&models.ActivityLog{}).Order("id DESC")
		if afterID > 0 {
			query = query.Where("id < ?", afterID)
		}
		if search != "" {
			like := "%" + search + "%"
			query = query.Where("(actor_name LIKE ? OR action LIKE ? OR entity_type LIKE ? OR ip LIKE ?)",
				like, like, like, like)
		}

		var logs []models.ActivityLog
		if err := query.Limit(limit + 1).Find(&logs).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		var nextCursor *int64
		if len(logs) > limit {
			logs = logs[:limit]
			// Cursor is the last row shown; the next page filters id < cursor.
			next := logs[limit-1].ID
			nextCursor = &next
		}

		c.JSON(http.StatusOK, gin.H{
			"logs":        logs,
			"next_cursor": nextCursor,
		})
	}
}
