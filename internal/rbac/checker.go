package rbac

import (
	"context"
	"strings"

	"gorm.io/gorm"
)

type Checker struct{ DB *gorm.DB }

func (c Checker) Can(ctx context.Context, userID int64, permKey string) (bool, error) {
	// JOIN user_roles -> roles -> role_permissions -> permissions by `key`
	var count int64
	err := c.DB.
		Table("user_roles ur").
		Joins("JOIN roles r ON r.id = ur.role_id").
		Joins("JOIN role_permissions rp ON rp.role_id = r.id").
		Joins("JOIN permissions p ON p.id = rp.permission_id").
		Where("ur.user_id = ? AND p.`key` = ?", userID, permKey).
		Count(&count).Error
	return count > 0, err
}

// HasRole reports whether the user holds the role with the given slug.
func (c Checker) HasRole(ctx context.Context, userID int64, slug string) (bool, error) {
	var count int64
	err := c.DB.
		Table("user_roles ur").
		Joins("JOIN roles r ON r.id = ur.role_id").
		Where("ur.user_id = ? AND r.slug = ?", userID, slug).
		Count(&count).Error
	return count > 0, err
}

// Helper to compose like "properties:write" from resource+action
func Key(resource, action string) string { return strings.ToLower(resource + ":" + action) }
