package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"nyumbani/internal/models"
	"nyumbani/internal/notify"
)

// ListPendingProperties returns listings awaiting moderation.
func ListPendingProperties(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var properties []models.Property
		if err := db.Preload("Images").Preload("Landlord").
			Where("status = ?", models.PropertyPending).
			Order("created_at ASC").
			Find(&properties).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"properties": properties})
	}
}

// ApproveProperty publishes a pending listing.
func ApproveProperty(db *gorm.DB, notifier *notify.Notifier) gin.HandlerFunc {
	return moderate(db, notifier, models.PropertyApproved, "properties.approve")
}

// RejectProperty declines a pending listing with a reason.
func RejectProperty(db *gorm.DB, notifier *notify.Notifier) gin.HandlerFunc {
	return moderate(db, notifier, models.PropertyRejected, "properties.reject")
}

func moderate(db *gorm.DB, notifier *notify.Notifier, to models.PropertyStatus, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid property id"})
			return
		}

		var input struct {
			Reason string `json:"reason"`
		}
		_ = c.ShouldBindJSON(&input)

		if to == models.PropertyRejected && input.Reason == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "reason is required when rejecting"})
			return
		}

		var property models.Property
		if err := db.First(&property, id).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "property not found"})
			return
		}
		if property.Status != models.PropertyPending {
			c.JSON(http.StatusConflict, gin.H{"error": "property is not pending moderation"})
			return
		}

		property.Status = to
		property.RejectReason = input.Reason
		if err := db.Save(&property).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		logActivity(c, db, action, "property", property.ID,
			map[string]interface{}{"reason": input.Reason})

		title := "Listing approved"
		body := property.Title + " is now live."
		if to == models.PropertyRejected {
			title = "Listing rejected"
			body = property.Title + ": " + input.Reason
		}
		_ = notifier.Send(c.Request.Context(), &models.Notification{
			UserID:     property.LandlordID,
			Kind:       models.NotifyListingModerated,
			Title:      title,
			Body:       body,
			PropertyID: &property.ID,
		})

		c.JSON(http.StatusOK, gin.H{"property": property})
	}
}
