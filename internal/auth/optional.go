package auth

import (
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"nyumbani/internal/models"
)

// Optional attaches claims when a valid token is presented but lets
// anonymous requests through. Public listing pages use it so contact
// gating can still recognise an entitled viewer.
func Optional(db *gorm.DB, secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := c.GetHeader("Authorization")
		if tokenStr == "" {
			if cookie, err := c.Cookie("token"); err == nil {
				tokenStr = "Bearer " + cookie
			}
		}
		if tokenStr == "" {
			c.Next()
			return
		}

		tokenStr = strings.TrimSpace(strings.TrimPrefix(tokenStr, "Bearer "))

		claims, err := ParseToken(tokenStr, secret)
		if err != nil {
			c.Next()
			return
		}

		var user models.User
		if err := db.First(&user, claims.UserID).Error; err != nil || user.Status != models.UserActive {
			c.Next()
			return
		}

		c.Set("claims", claims)
		c.Next()
	}
}
