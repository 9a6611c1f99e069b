package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentExpired   PaymentStatus = "expired"
)

// ContactPayment is one contact-unlock attempt: an STK push sent to the
// user's phone, resolved later by the provider callback. A completed row
// grants access to the property's contact phone until ExpiresAt.
type ContactPayment struct {
	ID         int64           `gorm:"primaryKey"`
	UserID     int64           `gorm:"index;not null"`
	PropertyID int64           `gorm:"index;not null"`
	Amount     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Phone      string          `gorm:"size:20;not null"`
	// AccountReference is the merchant-side reference shown on the STK
	// prompt and carried through the provider round trip.
	AccountReference  string        `gorm:"size:64;index;not null"`
	MerchantRequestID string        `gorm:"size:64"`
	CheckoutRequestID string        `gorm:"size:64;uniqueIndex"`
	Status            PaymentStatus `gorm:"size:16;index;default:pending"`
	ProviderReceipt   string        `gorm:"size:64"`
	FailReason        string        `gorm:"size:255"`
	PaidAt            *time.Time
	ExpiresAt         *time.Time `gorm:"index"`
	ReminderSentAt    *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time

	User     *User     `gorm:"foreignKey:UserID"`
	Property *Property `gorm:"foreignKey:PropertyID"`
}

// Active reports whether the payment grants contact access at t.
func (p *ContactPayment) Active(t time.Time) bool {
	return p.Status == PaymentCompleted && p.ExpiresAt != nil && p.ExpiresAt.After(t)
}
