package payments

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"nyumbani/internal/models"
	"nyumbani/internal/notify"
)

func newTestSweeper(t *testing.T, db *gorm.DB, now *time.Time) *Sweeper {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	s := NewSweeper(db, notify.New(db, nil), logger,
		time.Minute, 12*time.Hour, 5*time.Minute)
	s.now = func() time.Time { return *now }
	return s
}

func completedPayment(t *testing.T, db *gorm.DB, userID, propertyID int64, expiresAt time.Time) models.ContactPayment {
	t.Helper()
	paidAt := expiresAt.Add(-72 * time.Hour)
	payment := models.ContactPayment{
		UserID:            userID,
		PropertyID:        propertyID,
		Amount:            decimal.NewFromInt(200),
		Phone:             "254712345678",
		AccountReference:  "NYB-test",
		CheckoutRequestID: "checkout-" + time.Now().Format("150405.000000") + expiresAt.Format("05.000"),
		Status:            models.PaymentCompleted,
		PaidAt:            &paidAt,
		ExpiresAt:         &expiresAt,
	}
	require.NoError(t, db.Create(&payment).Error)
	return payment
}

func TestSweeperSendsReminderOnce(t *testing.T) {
	db := testDB(t)
	_, tenant, property := seedListing(t, db)
	now := time.Now()
	sweeper := newTestSweeper(t, db, &now)

	// Expires inside the reminder lead window.
	payment := completedPayment(t, db, tenant.ID, property.ID, now.Add(6*time.Hour))

	sweeper.Run(context.Background())

	var got models.ContactPayment
	require.NoError(t, db.First(&got, payment.ID).Error)
	require.NotNil(t, got.ReminderSentAt)

	var notes []models.Notification
	require.NoError(t, db.Where("user_id = ? AND kind = ?", tenant.ID, models.NotifyUnlockExpiring).Find(&notes).Error)
	require.Len(t, notes, 1)

	// A second sweep must not re-remind.
	sweeper.Run(context.Background())
	require.NoError(t, db.Where("user_id = ? AND kind = ?", tenant.ID, models.NotifyUnlockExpiring).Find(&notes).Error)
	require.Len(t, notes, 1)
}

func TestSweeperSkipsUnlocksOutsideLeadWindow(t *testing.T) {
	db := testDB(t)
	_, tenant, property := seedListing(t, db)
	now := time.Now()
	sweeper := newTestSweeper(t, db, &now)

	// Far from expiry: no reminder yet.
	fresh := completedPayment(t, db, tenant.ID, property.ID, now.Add(48*time.Hour))
	sweeper.Run(context.Background())

	var got models.ContactPayment
	require.NoError(t, db.First(&got, fresh.ID).Error)
	require.Nil(t, got.ReminderSentAt)
}

func TestSweeperSkipsAlreadyExpired(t *testing.T) {
	db := testDB(t)
	_, tenant, property := seedListing(t, db)
	now := time.Now()
	sweeper := newTestSweeper(t, db, &now)

	gone := completedPayment(t, db, tenant.ID, property.ID, now.Add(-time.Hour))
	sweeper.Run(context.Background())

	var got models.ContactPayment
	require.NoError(t, db.First(&got, gone.ID).Error)
	require.Nil(t, got.ReminderSentAt, "expired unlocks get no reminder")
}

func TestSweeperExpiresStalePending(t *testing.T) {
	db := testDB(t)
	_, tenant, property := seedListing(t, db)
	now := time.Now()
	sweeper := newTestSweeper(t, db, &now)

	stale := models.ContactPayment{
		UserID:            tenant.ID,
		PropertyID:        property.ID,
		Amount:            decimal.NewFromInt(200),
		Phone:             "254712345678",
		AccountReference:  "NYB-stale",
		CheckoutRequestID: "checkout-stale",
		Status:            models.PaymentPending,
	}
	require.NoError(t, db.Create(&stale).Error)

	// Not stale yet.
	sweeper.Run(context.Background())
	var got models.ContactPayment
	require.NoError(t, db.First(&got, stale.ID).Error)
	require.Equal(t, models.PaymentPending, got.Status)

	// Step past the pending timeout.
	now = now.Add(10 * time.Minute)
	sweeper.Run(context.Background())
	require.NoError(t, db.First(&got, stale.ID).Error)
	require.Equal(t, models.PaymentExpired, got.Status)
	require.Equal(t, "no confirmation received from gateway", got.FailReason)
}
