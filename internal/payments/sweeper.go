package payments

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"nyumbani/internal/models"
	"nyumbani/internal/notify"
)

// Sweeper periodically reminds users whose contact unlock is about to
// expire and rolls overdue pending payments to expired. It runs inside
// the API process and as the standalone sweeper binary.
type Sweeper struct {
	db       *gorm.DB
	notifier *notify.Notifier
	logger   *slog.Logger

	interval       time.Duration
	reminderLead   time.Duration
	pendingTimeout time.Duration

	now func() time.Time
}

func NewSweeper(db *gorm.DB, notifier *notify.Notifier, logger *slog.Logger,
	interval, reminderLead, pendingTimeout time.Duration) *Sweeper {
	return &Sweeper{
		db:             db,
		notifier:       notifier,
		logger:         logger,
		interval:       interval,
		reminderLead:   reminderLead,
		pendingTimeout: pendingTimeout,
		now:            time.Now,
	}
}

func (s *Sweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("payment sweeper started", "interval", s.interval)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Run(ctx)
		}
	}
}

// Run executes one sweep. Each row is handled independently; a failure on
// one row does not abort the rest.
func (s *Sweeper) Run(ctx context.Context) {
	s.sendReminders(ctx)
	s.expirePending(ctx)
}

func (s *Sweeper) sendReminders(ctx context.Context) {
	now := s.now()

	var due []models.ContactPayment
	err := s.db.WithContext(ctx).
		Where("status = ? AND reminder_sent_at IS NULL", models.PaymentCompleted).
		Where("expires_at > ? AND expires_at <= ?", now, now.Add(s.reminderLead)).
		Find(&due).Error
	if err != nil {
		s.logger.Error("reminder query failed", "error", err)
		return
	}

	for i := range due {
		payment := &due[i]
		note := models.Notification{
			UserID:     payment.UserID,
			Kind:       models.NotifyUnlockExpiring,
			Title:      "Contact access expiring soon",
			Body:       fmt.Sprintf("Your contact access for listing #%d expires at %s.", payment.PropertyID, payment.ExpiresAt.Format("Mon 2 Jan 15:04")),
			PropertyID: &payment.PropertyID,
			PaymentID:  &payment.ID,
		}
		if err := s.notifier.Send(ctx, &note); err != nil {
			s.logger.Error("reminder send failed", "payment_id", payment.ID, "error", err)
			continue
		}
		sentAt := now
		if err := s.db.WithContext(ctx).Model(payment).Update("reminder_sent_at", &sentAt).Error; err != nil {
			s.logger.Error("reminder mark failed", "payment_id", payment.ID, "error", err)
			continue
		}
		s.logger.Info("expiry reminder sent", "payment_id", payment.ID, "user_id", payment.UserID)
	}
}

func (s *Sweeper) expirePending(ctx context.Context) {
	cutoff := s.now().Add(-s.pendingTimeout)

	res := s.db.WithContext(ctx).
		Model(&models.ContactPayment{}).
		Where("status = ? AND created_at < ?", models.PaymentPending, cutoff).
		Updates(map[string]interface{}{
			"status":      models.PaymentExpired,
			"fail_reason": "no confirmation received from gateway",
		})
	if res.Error != nil {
		s.logger.Error("pending expiry failed", "error", res.Error)
		return
	}
	if res.RowsAffected > 0 {
		s.logger.Info("stale pending payments expired", "count", res.RowsAffected)
	}
}
