package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"nyumbani/internal/auth"
	"nyumbani/internal/models"
	"nyumbani/internal/mpesa"
	"nyumbani/internal/payments"
)

// InitiatePayment starts a contact unlock: creates the pending payment and
// fires the STK push. The response distinguishes a fresh push from a reused
// active unlock so the client knows whether to show the PIN prompt.
func InitiatePayment(db *gorm.DB, svc *payments.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		cl, _ := auth.FromContext(c)

		var input struct {
			PropertyID int64  `json:"property_id" binding:"required"`
			Phone      string `json:"phone"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		phone := input.Phone
		if phone == "" {
			var user models.User
			if err := db.First(&user, cl.UserID).Error; err == nil {
				phone = user.Phone
			}
		}

		payment, err := svc.Initiate(c.Request.Context(), cl.UserID, input.PropertyID, phone)
		if err != nil {
			switch {
			case errors.Is(err, payments.ErrInvalidPhone):
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			case errors.Is(err, payments.ErrOwnListing), errors.Is(err, payments.ErrPropertyUnavailable):
				c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			default:
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			}
			return
		}

		logActivity(c, db, "payments.initiate", "contact_payment", payment.ID,
			map[string]interface{}{"property_id": input.PropertyID, "status": payment.Status})

		status := http.StatusAccepted
		if payment.Status == models.PaymentCompleted {
			status = http.StatusOK
		}
		c.JSON(status, gin.H{"payment": payment})
	}
}

// PaymentStatus is polled by the client while the STK prompt is open.
func PaymentStatus(svc *payments.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		cl, _ := auth.FromContext(c)

		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payment id"})
			return
		}

		payment, err := svc.Status(c.Request.Context(), cl.UserID, id)
		if err != nil {
			if errors.Is(err, payments.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "payment not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"payment": payment})
	}
}

// MpesaCallback receives the gateway's asynchronous STK result. It is a
// public endpoint; the gateway does not authenticate. Unknown checkout ids
// and replays are acknowledged anyway so the gateway stops retrying.
func MpesaCallback(svc *payments.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var envelope mpesa.CallbackEnvelope
		if err := c.ShouldBindJSON(&envelope); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"ResultCode": 1, "ResultDesc": "malformed payload"})
			return
		}

		err := svc.HandleCallback(c.Request.Context(), &envelope.Body.StkCallback)
		if err != nil && !errors.Is(err, payments.ErrNotFound) {
			c.JSON(http.StatusInternalServerError, gin.H{"ResultCode": 1, "ResultDesc": "processing error"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"ResultCode": 0, "ResultDesc": "Accepted"})
	}
}

// MyUnlocks lists the user's completed contact payments.
func MyUnlocks(svc *payments.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		cl, _ := auth.FromContext(c)

		unlocks, err := svc.Unlocks(c.Request.Context(), cl.UserID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"unlocks": unlocks})
	}
}

// AdminListPayments is the moderation view over all contact payments,
// filterable by status.
func AdminListPayments(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		query := db.Model(&models.ContactPayment{}).
			Preload("User").Preload("Property").
			Order("created_at DESC")

		if status := c.Query("status"); status != "" {
			query = query.Where("status = ?", status)
		}

		limit := 50
		if limitStr := c.Query("limit"); limitStr != "" {
			if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 && parsed <= 200 {
				limit = parsed
			}
		}

		var rows []models.ContactPayment
		if err := query.Limit(limit).Find(&rows).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"payments": rows})
	}
}
