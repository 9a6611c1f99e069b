package models

import "time"

// Favorite bookmarks a property for a user. One row per (user, property).
type Favorite struct {
	ID         int64 `gorm:"primaryKey"`
	UserID     int64 `gorm:"uniqueIndex:idx_fav_user_property;not null"`
	PropertyID int64 `gorm:"uniqueIndex:idx_fav_user_property;not null"`
	CreatedAt  time.Time

	User     *User     `gorm:"foreignKey:UserID"`
	Property *Property `gorm:"foreignKey:PropertyID"`
}
