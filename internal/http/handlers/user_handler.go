package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"nyumbani/internal/auth"
	"nyumbani/internal/models"
	"nyumbani/internal/rbac"
)

// ListUsers is the admin user table, filterable by role slug and email.
func ListUsers(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		query := db.Model(&models.User{}).Preload("Roles").Order("users.created_at DESC")

		if role := c.Query("role"); role != "" {
			query = query.
				Joins("JOIN user_roles ur ON ur.user_id = users.id").
				Joins("JOIN roles r ON r.id = ur.role_id").
				Where("r.slug = ?", role)
		}
		if q := strings.TrimSpace(c.Query("q")); q != "" {
			like := "%" + q + "%"
			query = query.Where("(users.email LIKE ? OR users.name LIKE ?)", like, like)
		}

		var users []models.User
		if err := query.Limit(200).Find(&users).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"users": users})
	}
}

// DeactivateUser suspends an account. Suspended users fail auth on their
// next request.
func DeactivateUser(db *gorm.DB) gin.HandlerFunc {
	return setUserStatus(db, models.UserSuspended, "users.deactivate")
}

// ActivateUser restores a suspended account.
func ActivateUser(db *gorm.DB) gin.HandlerFunc {
	return setUserStatus(db, models.UserActive, "users.activate")
}

func setUserStatus(db *gorm.DB, status models.UserStatus, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		cl, _ := auth.FromContext(c)

		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
			return
		}
		if id == cl.UserID {
			c.JSON(http.StatusConflict, gin.H{"error": "cannot change your own status"})
			return
		}

		var user models.User
		if err := db.First(&user, id).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}

		if status == models.UserSuspended {
			isAdmin, err := (rbac.Checker{DB: db}).HasRole(c, user.ID, "admin")
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			if isAdmin {
				c.JSON(http.StatusConflict, gin.H{"error": "cannot suspend an administrator"})
				return
			}
		}

		if err := db.Model(&user).Update("status", status).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		logActivity(c, db, action, "user", user.ID, nil)

		c.JSON(http.StatusOK, gin.H{"user": gin.H{
			"id":     user.ID,
			"email":  user.Email,
			"status": status,
		}})
	}
}
