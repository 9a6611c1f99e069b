package models

import "time"

type PropertyImage struct {
	ID         int64  `gorm:"primaryKey"`
	PropertyID int64  `gorm:"index;not null"`
	Path       string `gorm:"size:255;not null"`
	Position   int    `gorm:"default:0"`
	IsPrimary  bool   `gorm:"default:false"`
	CreatedAt  time.Time
}
