package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"nyumbani/internal/auth"
	"nyumbani/internal/models"
	"nyumbani/internal/notify"
)

// CreateViewingRequest lets a tenant ask for a visit slot on an approved
// listing. The landlord gets an in-app notification.
func CreateViewingRequest(db *gorm.DB, notifier *notify.Notifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		cl, _ := auth.FromContext(c)

		var input struct {
			PropertyID  int64  `json:"property_id" binding:"required"`
			PreferredAt string `json:"preferred_at" binding:"required"`
			Message     string `json:"message"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		preferredAt, err := time.Parse(time.RFC3339, input.PreferredAt)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "preferred_at must be RFC3339"})
			return
		}
		if preferredAt.Before(time.Now()) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "preferred_at must be in the future"})
			return
		}

		var property models.Property
		if err := db.First(&property, input.PropertyID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "property not found"})
			return
		}
		if property.Status != models.PropertyApproved {
			c.JSON(http.StatusConflict, gin.H{"error": "property is not listed"})
			return
		}
		if property.LandlordID == cl.UserID {
			c.JSON(http.StatusConflict, gin.H{"error": "cannot request a viewing of your own listing"})
			return
		}

		// One open request per tenant per listing.
		var open int64
		db.Model(&models.ViewingRequest{}).
			Where("property_id = ? AND tenant_id = ? AND status = ?",
				property.ID, cl.UserID, models.ViewingPending).
			Count(&open)
		if open > 0 {
			c.JSON(http.StatusConflict, gin.H{"error": "you already have a pending viewing request for this listing"})
			return
		}

		viewing := models.ViewingRequest{
			PropertyID:  property.ID,
			TenantID:    cl.UserID,
			PreferredAt: preferredAt,
			Message:     input.Message,
			Status:      models.ViewingPending,
		}
		if err := db.Create(&viewing).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		logActivity(c, db, "viewings.create", "viewing_request", viewing.ID,
			map[string]interface{}{"property_id": property.ID})

		_ = notifier.Send(c.Request.Context(), &models.Notification{
			UserID:     property.LandlordID,
			Kind:       models.NotifyViewingRequested,
			Title:      "New viewing request",
			Body:       "A tenant wants to view " + property.Title + ".",
			PropertyID: &property.ID,
		})

		c.JSON(http.StatusCreated, gin.H{"viewing_request": viewing})
	}
}

// MyViewingRequests lists the tenant's own requests.
func MyViewingRequests(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		cl, _ := auth.FromContext(c)

		var viewings []models.ViewingRequest
		if err := db.Preload("Property").
			Where("tenant_id = ?", cl.UserID).
			Order("created_at DESC").
			Find(&viewings).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"viewing_requests": viewings})
	}
}

// LandlordViewingRequests lists requests against the landlord's listings.
func LandlordViewingRequests(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		cl, _ := auth.FromContext(c)

		var viewings []models.ViewingRequest
		if err := db.Preload("Property").Preload("Tenant").
			Joins("JOIN properties ON properties.id = viewing_requests.property_id").
			Where("properties.landlord_id = ?", cl.UserID).
			Order("viewing_requests.created_at DESC").
			Find(&viewings).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"viewing_requests": viewings})
	}
}

// RespondViewing lets the landlord confirm or decline a pending request.
func RespondViewing(db *gorm.DB, notifier *notify.Notifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		cl, _ := auth.FromContext(c)

		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid viewing request id"})
			return
		}

		var input struct {
			Action string `json:"action" binding:"required,oneof=confirm decline"`
			Note   string `json:"note"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		var viewing models.ViewingRequest
		if err := db.Preload("Property").First(&viewing, id).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "viewing request not found"})
			return
		}
		if viewing.Property == nil || viewing.Property.LandlordID != cl.UserID {
			c.JSON(http.StatusForbidden, gin.H{"error": "not your listing"})
			return
		}
		if viewing.Status != models.ViewingPending {
			c.JSON(http.StatusConflict, gin.H{"error": "viewing request already resolved"})
			return
		}

		now := time.Now()
		if input.Action == "confirm" {
			viewing.Status = models.ViewingConfirmed
		} else {
			viewing.Status = models.ViewingDeclined
		}
		viewing.LandlordNote = input.Note
		viewing.RespondedAt = &now

		if err := db.Save(&viewing).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		logActivity(c, db, "viewings.respond", "viewing_request", viewing.ID,
			map[string]interface{}{"action": input.Action})

		title := "Viewing confirmed"
		if viewing.Status == models.ViewingDeclined {
			title = "Viewing declined"
		}
		_ = notifier.Send(c.Request.Context(), &models.Notification{
			UserID:     viewing.TenantID,
			Kind:       models.NotifyViewingResponded,
			Title:      title,
			Body:       viewing.Property.Title + ": " + input.Note,
			PropertyID: &viewing.PropertyID,
		})

		c.JSON(http.StatusOK, gin.H{"viewing_request": viewing})
	}
}

// CancelViewing lets the tenant withdraw a pending request.
func CancelViewing(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		cl, _ := auth.FromContext(c)

		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid viewing request id"})
			return
		}

		var viewing models.ViewingRequest
		if err := db.First(&viewing, id).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "viewing request not found"})
			return
		}
		if viewing.TenantID != cl.UserID {
			c.JSON(http.StatusForbidden, gin.H{"error": "not your request"})
			return
		}
		if viewing.Status != models.ViewingPending {
			c.JSON(http.StatusConflict, gin.H{"error": "viewing request already resolved"})
			return
		}

		if err := db.Model(&viewing).Update("status", models.ViewingCancelled).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"viewing_request": viewing})
	}
}
