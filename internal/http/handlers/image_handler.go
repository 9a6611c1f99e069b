package handlers

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"nyumbani/internal/auth"
	"nyumbani/internal/models"
)

var allowedImageExt = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

const maxImageSize = 5 << 20 // 5 MiB

// UploadPropertyImage accepts a multipart photo for one of the landlord's
// listings and stores it under uploadDir. The first image of a listing
// becomes its primary photo.
func UploadPropertyImage(db *gorm.DB, uploadDir string) gin.HandlerFunc {
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

		file, err := c.FormFile("image")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "image file is required"})
			return
		}
		if file.Size > maxImageSize {
			c.JSON(http.StatusBadRequest, gin.H{"error": "image exceeds 5MB limit"})
			return
		}
		ext := strings.ToLower(filepath.Ext(file.Filename))
		if !allowedImageExt[ext] {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported image type"})
			return
		}

		name := fmt.Sprintf("%d-%s%s", property.ID, uuid.NewString(), ext)
		dst := filepath.Join(uploadDir, name)
		if err := c.SaveUploadedFile(file, dst); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store image"})
			return
		}

		var count int64
		db.Model(&models.PropertyImage{}).Where("property_id = ?", property.ID).Count(&count)

		image := models.PropertyImage{
			PropertyID: property.ID,
			Path:       "/uploads/" + name,
			Position:   int(count),
			IsPrimary:  count == 0,
		}
		if err := db.Create(&image).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		logActivity(c, db, "properties.upload_image", "property", property.ID,
			map[string]interface{}{"path": image.Path})

		c.JSON(http.StatusCreated, gin.H{"image": image})
	}
}

// DeletePropertyImage removes a photo record from one of the landlord's
// listings. The file itself is left for out-of-band cleanup.
func DeletePropertyImage(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		cl, _ := auth.FromContext(c)

		imageID, err := strconv.ParseInt(c.Param("imageID"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid image id"})
			return
		}

		var image models.PropertyImage
		if err := db.First(&image, imageID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "image not found"})
			return
		}

		var property models.Property
		if err := db.First(&property, image.PropertyID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "property not found"})
			return
		}
		if property.LandlordID != cl.UserID {
			c.JSON(http.StatusForbidden, gin.H{"error": "not your listing"})
			return
		}

		if err := db.Delete(&image).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "image removed"})
	}
}
