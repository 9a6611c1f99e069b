package models

import "time"

type NotificationKind string

const (
	NotifyPaymentCompleted NotificationKind = "payment.completed"
	NotifyPaymentFailed    NotificationKind = "payment.failed"
	NotifyUnlockExpiring   NotificationKind = "unlock.expiring"
	NotifyViewingRequested NotificationKind = "viewing.requested"
	NotifyViewingResponded NotificationKind = "viewing.responded"
	NotifyListingModerated NotificationKind = "listing.moderated"
)

type Notification struct {
	ID         int64            `gorm:"primaryKey"`
	UserID     int64            `gorm:"index;not null"`
	Kind       NotificationKind `gorm:"size:32;not null"`
	Title      string           `gorm:"size:200;not null"`
	Body       string           `gorm:"size:500"`
	PropertyID *int64           `gorm:"index"`
	PaymentID  *int64           `gorm:"index"`
	Read       bool             `gorm:"default:false;index"`
	CreatedAt  time.Time
}
