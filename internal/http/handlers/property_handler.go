package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"nyumbani/internal/auth"
	"nyumbani/internal/models"
	"nyumbani/internal/payments"
)

// ListProperties is the public browse endpoint: approved listings only,
// filterable by city, area, type, rent range and keyword.
func ListProperties(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		query := db.Model(&models.Property{}).
			Preload("Images").
			Where("status = ?", models.PropertyApproved)

		if city := strings.TrimSpace(c.Query("city")); city != "" {
			query = query.Where("city = ?", city)
		}
		if area := strings.TrimSpace(c.Query("area")); area != "" {
			query = query.Where("area = ?", area)
		}
		if t := c.Query("type"); t != "" {
			query = query.Where("type = ?", t)
		}
		if min := c.Query("min_rent"); min != "" {
			if d, err := decimal.NewFromString(min); err == nil {
				query = query.Where("rent_monthly >= ?", d)
			}
		}
		if max := c.Query("max_rent"); max != "" {
			if d, err := decimal.NewFromString(max); err == nil {
				query = query.Where("rent_monthly <= ?", d)
			}
		}
		if q := strings.TrimSpace(c.Query("q")); q != "" {
			like := "%" + q + "%"
			query = query.Where("(title LIKE ? OR description LIKE ?)", like, like)
		}

		switch c.Query("sort") {
		case "rent_asc":
			query = query.Order("rent_monthly ASC")
		case "rent_desc":
			query = query.Order("rent_monthly DESC")
		default:
			query = query.Order("created_at DESC")
		}

		limit := 20
		if limitStr := c.Query("limit"); limitStr != "" {
			if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 && parsed <= 100 {
				limit = parsed
			}
		}
		page := 1
		if pageStr := c.Query("page"); pageStr != "" {
			if parsed, err := strconv.Atoi(pageStr); err == nil && parsed > 0 {
				page = parsed
			}
		}

		var total int64
		if err := query.Count(&total).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		var properties []models.Property
		if err := query.Limit(limit).Offset((page - 1) * limit).Find(&properties).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"properties": properties,
			"total":      total,
			"page":       page,
			"limit":      limit,
		})
	}
}

// GetProperty returns one listing. The contact phone is included only for
// the owner or a requester with an active unlock; everyone else gets the
// listing with contact_unlocked=false. Unauthenticated viewers are allowed.
func GetProperty(db *gorm.DB, paySvc *payments.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid property id"})
			return
		}

		var property models.Property
		if err := db.Preload("Images").First(&property, id).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "property not found"})
			return
		}

		cl, authed := auth.FromContext(c)
		isOwner := authed && cl.UserID == property.LandlordID

		// Pending and rejected listings are visible only to their owner.
		// Rented listings stay reachable in detail (favorites and old
		// links still resolve) even though browse excludes them.
		public := property.Status == models.PropertyApproved || property.Status == models.PropertyRented
		if !public && !isOwner {
			c.JSON(http.StatusNotFound, gin.H{"error": "property not found"})
			return
		}

		unlocked := isOwner
		if !unlocked && authed {
			payment, err := paySvc.ActiveUnlock(c.Request.Context(), cl.UserID, property.ID)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			unlocked = payment != nil
		}

		if !isOwner {
			db.Model(&property).UpdateColumn("view_count", gorm.Expr("view_count + 1"))
		}

		resp := gin.H{
			"property":         property,
			"contact_unlocked": unlocked,
		}
		if unlocked {
			resp["contact_phone"] = property.ContactPhone
		}
		c.JSON(http.StatusOK, resp)
	}
}

type propertyInput struct {
	Title        string   `json:"title" binding:"required"`
	Description  string   `json:"description"`
	City         string   `json:"city" binding:"required"`
	Area         string   `json:"area"`
	Type         string   `json:"type" binding:"required,oneof=bedsitter single 1br 2br 3br house"`
	RentMonthly  string   `json:"rent_monthly" binding:"required"`
	Deposit      string   `json:"deposit"`
	Amenities    []string `json:"amenities"`
	ContactPhone string   `json:"contact_phone" binding:"required"`
}

// CreateProperty inserts a new pending listing for the landlord.
func CreateProperty(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		cl, _ := auth.FromContext(c)

		var in propertyInput
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		rent, err := decimal.NewFromString(in.RentMonthly)
		if err != nil || rent.IsNegative() || rent.IsZero() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "rent_monthly must be a positive amount"})
			return
		}
		deposit := decimal.Zero
		if in.Deposit != "" {
			if deposit, err = decimal.NewFromString(in.Deposit); err != nil || deposit.IsNegative() {
				c.JSON(http.StatusBadRequest, gin.H{"error": "deposit must be a non-negative amount"})
				return
			}
		}
		phone, err := payments.NormalizePhone(in.ContactPhone)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		amenitiesJSON, _ := json.Marshal(in.Amenities)

		property := models.Property{
			LandlordID:   cl.UserID,
			Title:        strings.TrimSpace(in.Title),
			Description:  in.Description,
			City:         strings.TrimSpace(in.City),
			Area:         strings.TrimSpace(in.Area),
			Type:         models.PropertyType(in.Type),
			RentMonthly:  rent,
			Deposit:      deposit,
			Amenities:    datatypes.JSON(amenitiesJSON),
			ContactPhone: phone,
			Status:       models.PropertyPending,
		}
		if err := db.Create(&property).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		logActivity(c, db, "properties.create", "property", property.ID,
			map[string]interface{}{"title": property.Title, "city": property.City})

		c.JSON(http.StatusCreated, gin.H{"property": property})
	}
}

// UpdateProperty lets the owning landlord edit a listing. Edits to an
// approved listing send it back to pending for re-moderation.
func UpdateProperty(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		cl, _ := auth.FromContext(c)

		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid property id"})
			return
		}

		var property models.Property
		if err := db.First(&property, id).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "property not found"})
			return
		}
		if property.LandlordID != cl.UserID {
			c.JSON(http.StatusForbidden, gin.H{"error": "not your listing"})
			return
		}

		var in propertyInput
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		rent, err := decimal.NewFromString(in.RentMonthly)
		if err != nil || rent.IsNegative() || rent.IsZero() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "rent_monthly must be a positive amount"})
			return
		}
		deposit := property.Deposit
		if in.Deposit != "" {
			if deposit, err = decimal.NewFromString(in.Deposit); err != nil || deposit.IsNegative() {
				c.JSON(http.StatusBadRequest, gin.H{"error": "deposit must be a non-negative amount"})
				return
			}
		}
		phone, err := payments.NormalizePhone(in.ContactPhone)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		amenitiesJSON, _ := json.Marshal(in.Amenities)

		property.Title = strings.TrimSpace(in.Title)
		property.Description = in.Description
		property.City = strings.TrimSpace(in.City)
		property.Area = strings.TrimSpace(in.Area)
		property.Type = models.PropertyType(in.Type)
		property.RentMonthly = rent
		property.Deposit = deposit
		property.Amenities = datatypes.JSON(amenitiesJSON)
		property.ContactPhone = phone
		if property.Status == models.PropertyApproved {
			property.Status = models.PropertyPending
		}

		if err := db.Save(&property).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		logActivity(c, db, "properties.update", "property", property.ID, nil)

		c.JSON(http.StatusOK, gin.H{"property": property})
	}
}

// MyProperties lists the landlord's own listings, any status.
func MyProperties(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		cl, _ := auth.FromContext(c)

		var properties []models.Property
		if err := db.Preload("Images").
			Where("landlord_id = ?", cl.UserID).
			Order("created_at DESC").
			Find(&properties).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"properties": properties})
	}
}

// MarkRented lets the owner close an approved listing.
func MarkRented(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		cl, _ := auth.FromContext(c)

		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid property id"})
			return
		}

		var property models.Property
		if err := db.First(&property, id).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "property not found"})
			return
		}
		if property.LandlordID != cl.UserID {
			c.JSON(http.StatusForbidden, gin.H{"error": "not your listing"})
			return
		}

		if err := db.Model(&property).Update("status", models.PropertyRented).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		logActivity(c, db, "properties.mark_rented", "property", property.ID, nil)

		c.JSON(http.StatusOK, gin.H{"property": property})
	}
}
