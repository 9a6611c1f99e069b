package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type PropertyStatus string

const (
	PropertyPending  PropertyStatus = "pending"
	PropertyApproved PropertyStatus = "approved"
	PropertyRejected PropertyStatus = "rejected"
	PropertyRented   PropertyStatus = "rented"
)

type PropertyType string

const (
	TypeBedsitter PropertyType = "bedsitter"
	TypeSingle    PropertyType = "single"
	TypeOneBed    PropertyType = "1br"
	TypeTwoBed    PropertyType = "2br"
	TypeThreeBed  PropertyType = "3br"
	TypeHouse     PropertyType = "house"
)

type Property struct {
	ID          int64           `gorm:"primaryKey"`
	LandlordID  int64           `gorm:"index;not null"`
	Title       string          `gorm:"size:200;not null"`
	Description string          `gorm:"type:text"`
	City        string          `gorm:"size:100;index;not null"`
	Area        string          `gorm:"size:100;index"`
	Type        PropertyType    `gorm:"size:20;index;not null"`
	RentMonthly decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"rent_monthly"`
	Deposit     decimal.Decimal `gorm:"type:decimal(12,2)" json:"deposit"`
	Amenities   datatypes.JSON  `gorm:"type:json"`
	// ContactPhone is the datum sold by the contact-unlock flow. It is
	// stripped from responses unless the requester owns the listing or
	// holds an active unlock.
	ContactPhone string         `gorm:"size:20" json:"-"`
	Status       PropertyStatus `gorm:"size:16;index;default:pending"`
	RejectReason string         `gorm:"size:255"`
	ViewCount    int64          `gorm:"default:0"`
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Landlord *User           `gorm:"foreignKey:LandlordID"`
	Images   []PropertyImage `gorm:"foreignKey:PropertyID"`
}
