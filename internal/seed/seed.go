package seed

import (
	"log"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"nyumbani/internal/models"
)

func FirstSetup(db *gorm.DB) error {
	// -------------------------
	// 1) Ensure roles
	// -------------------------
	adminRole := models.Role{Name: "Administrator", Slug: "admin", IsSystem: true}
	landlordRole := models.Role{Name: "Landlord", Slug: "landlord", IsSystem: true}
	tenantRole := models.Role{Name: "Tenant", Slug: "tenant", IsSystem: true}

	if err := db.Where("slug=?", adminRole.Slug).FirstOrCreate(&adminRole).Error; err != nil {
		return err
	}
	if err := db.Where("slug=?", landlordRole.Slug).FirstOrCreate(&landlordRole).Error; err != nil {
		return err
	}
	if err := db.Where("slug=?", tenantRole.Slug).FirstOrCreate(&tenantRole).Error; err != nil {
		return err
	}

	// -------------------------
	// 2) Ensure permissions
	// -------------------------
	perms := []models.Permission{
		{Key: "properties:write", Description: "Create and manage own listings", Resource: "properties", Action: "write"},
		{Key: "properties:moderate", Description: "Approve or reject listings", Resource: "properties", Action: "moderate"},
		{Key: "viewings:request", Description: "Request property viewings", Resource: "viewings", Action: "request"},
		{Key: "users:read", Description: "View users", Resource: "users", Action: "read"},
		{Key: "users:write", Description: "Manage users", Resource: "users", Action: "write"},
		{Key: "payments:read", Description: "View all contact payments", Resource: "payments", Action: "read"},
		{Key: "activity:read", Description: "View the activity log", Resource: "activity", Action: "read"},
	}

	permIDs := map[string]uint64{}

	for _, p := range perms {
		tmp := p
		if err := db.Where("`key` = ?", tmp.Key).FirstOrCreate(&tmp).Error; err != nil {
			return err
		}
		permIDs[tmp.Key] = tmp.ID
	}

	// -------------------------
	// 3) role_permissions mapping
	// -------------------------
	// Helper: ensure mapping exists. Use a direct INSERT IGNORE into the
	// `role_permissions` join table to avoid GORM's "model value required"
	// error when operating on a table without a corresponding model.
	ensureRolePerm := func(roleID int64, permID uint64) error {
		res := db.Exec("INSERT IGNORE INTO role_permissions (role_id, permission_id) VALUES (?, ?)", roleID, permID)
		return res.Error
	}

	// Admin gets ALL permissions
	for _, pid := range permIDs {
		if err := ensureRolePerm(adminRole.ID, pid); err != nil {
			return err
		}
	}

	// Landlord: manage own listings
	landlordKeys := []string{"properties:write"}
	for _, k := range landlordKeys {
		if err := ensureRolePerm(landlordRole.ID, permIDs[k]); err != nil {
			return err
		}
	}

	// Tenant: request viewings
	tenantKeys := []string{"viewings:request"}
	for _, k := range tenantKeys {
		if err := ensureRolePerm(tenantRole.ID, permIDs[k]); err != nil {
			return err
		}
	}

	// -------------------------
	// 4) Ensure admin user
	// -------------------------
	const adminEmail = "admin@nyumbani.co.ke"
	const adminPass = "admin123" // change after first login

	passHash, _ := bcrypt.GenerateFromPassword([]byte(adminPass), bcrypt.DefaultCost)

	adminUser := models.User{
		Email:        adminEmail,
		Name:         "Admin User",
		Status:       models.UserActive,
		AuthProvider: "local",
		PasswordHash: string(passHash),
	}

	if err := db.Where("email=?", adminEmail).FirstOrCreate(&adminUser).Error; err != nil {
		return err
	}

	// -------------------------
	// 5) user_roles mapping (admin user -> admin role)
	// -------------------------
	if res := db.Exec("INSERT IGNORE INTO user_roles (user_id, role_id) VALUES (?, ?)", adminUser.ID, adminRole.ID); res.Error != nil {
		return res.Error
	}

	log.Printf("✅ Seed OK | admin=%s | roles=[admin,landlord,tenant] | perms=%d",
		adminEmail, len(perms),
	)
	return nil
}
