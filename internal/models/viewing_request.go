package models

import "time"

type ViewingStatus string

const (
	ViewingPending   ViewingStatus = "pending"
	ViewingConfirmed ViewingStatus = "confirmed"
	ViewingDeclined  ViewingStatus = "declined"
	ViewingCancelled ViewingStatus = "cancelled"
)

type ViewingRequest struct {
	ID          int64         `gorm:"primaryKey"`
	PropertyID  int64         `gorm:"index;not null"`
	TenantID    int64         `gorm:"index;not null"`
	PreferredAt time.Time     `gorm:"not null"`
	Message     string        `gorm:"size:500"`
	Status      ViewingStatus `gorm:"size:16;index;default:pending"`
	// LandlordNote carries the landlord's reply when confirming or declining.
	LandlordNote string `gorm:"size:500"`
	RespondedAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Property *Property `gorm:"foreignKey:PropertyID"`
	Tenant   *User     `gorm:"foreignKey:TenantID"`
}
