package handlers

import (
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"nyumbani/internal/auth"
	"nyumbani/internal/models"
)

// logActivity records a mutating action in the activity log. Failures are
// swallowed; the log must never fail the request that produced it.
func logActivity(c *gin.Context, db *gorm.DB, action, entityType string, entityID int64, meta map[string]interface{}) {
	var actorID int64
	var actorName string
	if cl, ok := auth.FromContext(c); ok {
		actorID = cl.UserID
		var u models.User
		if err := db.First(&u, cl.UserID).Error; err == nil {
			actorName = u.Name
		}
	}

	var metaJSON []byte
	if meta != nil {
		metaJSON, _ = json.Marshal(meta)
	}

	entry := models.ActivityLog{
		UserID:     actorID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Metadata:   datatypes.JSON(metaJSON),
		IP:         c.ClientIP(),
		UserAgent:  c.GetHeader("User-Agent"),
		ActorName:  actorName,
		CreatedAt:  time.Now(),
	}
	_ = db.Create(&entry).Error
}
