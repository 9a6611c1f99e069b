package models

import (
	"gorm.io/datatypes"
	"time"
)

type ActivityLog struct {
	ID         int64          `gorm:"primaryKey"`
	UserID     int64          `gorm:"index"`             // nullable (system actions possible)
	Action     string         `gorm:"size:200;not null"` // e.g. "properties.create", "payments.initiate"
	EntityType string         `gorm:"size:100"`          // e.g. "property", "contact_payment"
	EntityID   int64          `gorm:"index"`             // optional link to entity
	Metadata   datatypes.JSON `gorm:"type:json"`         // details of what changed
	IP         string         `gorm:"size:64"`
	ActorName  string         `gorm:"size:255" json:"actor_name"`
	UserAgent  string         `gorm:"size:255"`
	CreatedAt  time.Time

	User *User `gorm:"foreignKey:UserID"`
}
