package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"nyumbani/internal/auth"
	"nyumbani/internal/models"
)

// AddFavorite bookmarks an approved listing for the user. Re-adding an
// existing favorite is a no-op.
func AddFavorite(db *gorm.DB) gin.HandlerFunc {
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
		if property.Status != models.PropertyApproved {
			c.JSON(http.StatusConflict, gin.H{"error": "property is not listed"})
			return
		}

		fav := models.Favorite{UserID: cl.UserID, PropertyID: property.ID}
		if err := db.Where("user_id = ? AND property_id = ?", cl.UserID, property.ID).
			FirstOrCreate(&fav).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusCreated, gin.H{"favorite": fav})
	}
}

// RemoveFavorite deletes the bookmark.
func RemoveFavorite(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		cl, _ := auth.FromContext(c)

		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid property id"})
			return
		}

		if err := db.Where("user_id = ? AND property_id = ?", cl.UserID, id).
			Delete(&models.Favorite{}).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "favorite removed"})
	}
}

// ListFavorites returns the user's bookmarked listings.
func ListFavorites(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		cl, _ := auth.FromContext(c)

		var favorites []models.Favorite
		if err := db.Preload("Property").Preload("Property.Images").
			Where("user_id = ?", cl.UserID).
			Order("created_at DESC").
			Find(&favorites).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"favorites": favorites})
	}
}
