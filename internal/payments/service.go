package payments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"nyumbani/internal/models"
	"nyumbani/internal/mpesa"
	"nyumbani/internal/notify"
)

var (
	ErrOwnListing          = errors.New("cannot unlock contact for your own listing")
	ErrPropertyUnavailable = errors.New("property is not available for contact unlock")
	ErrInvalidPhone        = errors.New("phone must be a valid Kenyan mobile number")
	ErrNotFound            = errors.New("payment not found")
)

// StkPusher is the slice of the Daraja client the service needs.
type StkPusher interface {
	STKPush(ctx context.Context, phone string, amount decimal.Decimal, accountRef, desc string) (*mpesa.STKPushResult, error)
}

// Service drives the contact-payment lifecycle: STK push initiation,
// callback reconciliation, entitlement checks, and pending-row expiry.
type Service struct {
	db       *gorm.DB
	gateway  StkPusher
	notifier *notify.Notifier
	logger   *slog.Logger

	price          decimal.Decimal
	unlockWindow   time.Duration
	pendingTimeout time.Duration

	now func() time.Time
}

type Option func(*Service)

// WithClock overrides the clock; tests use it to step through the
// entitlement window.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(db *gorm.DB, gateway StkPusher, notifier *notify.Notifier, logger *slog.Logger,
	price decimal.Decimal, unlockWindow, pendingTimeout time.Duration, opts ...Option) *Service {
	s := &Service{
		db:             db,
		gateway:        gateway,
		notifier:       notifier,
		logger:         logger,
		price:          price,
		unlockWindow:   unlockWindow,
		pendingTimeout: pendingTimeout,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var phoneRe = regexp.MustCompile(`^254(7|1)\d{8}$`)

// NormalizePhone accepts 07XXXXXXXX, 01XXXXXXXX, +2547..., 2547... and
// returns the canonical 254XXXXXXXXX form.
func NormalizePhone(phone string) (string, error) {
	p := strings.TrimSpace(phone)
	p = strings.ReplaceAll(p, " ", "")
	p = strings.TrimPrefix(p, "+")
	if strings.HasPrefix(p, "0") {
		p = "254" + p[1:]
	}
	if !phoneRe.MatchString(p) {
		return "", ErrInvalidPhone
	}
	return p, nil
}

// Initiate starts a contact unlock for (userID, propertyID). If the user
// already holds an active unlock, or has a fresh pending push, that row is
// returned instead of charging again. Otherwise a pending row is created
// and an STK push sent; a rejected push rolls the row to failed.
func (s *Service) Initiate(ctx context.Context, userID, propertyID int64, phone string) (*models.ContactPayment, error) {
	normalized, err := NormalizePhone(phone)
	if err != nil {
		return nil, err
	}

	var property models.Property
	if err := s.db.WithContext(ctx).First(&property, propertyID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPropertyUnavailable
		}
		return nil, err
	}
	if property.LandlordID == userID {
		return nil, ErrOwnListing
	}
	if property.Status != models.PropertyApproved {
		return nil, ErrPropertyUnavailable
	}

	// Reuse an active unlock rather than double-charging.
	existing, err := s.ActiveUnlock(ctx, userID, propertyID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	// A fresh pending push means the STK prompt may still be open on the
	// user's phone; report it instead of stacking a second prompt.
	var pending models.ContactPayment
	err = s.db.WithContext(ctx).
		Where("user_id = ? AND property_id = ? AND status = ?", userID, propertyID, models.PaymentPending).
		Where("created_at > ?", s.now().Add(-s.pendingTimeout)).
		First(&pending).Error
	if err == nil {
		return &pending, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	payment := models.ContactPayment{
		UserID:           userID,
		PropertyID:       propertyID,
		Amount:           s.price,
		Phone:            normalized,
		AccountReference: accountRef(propertyID),
		Status:           models.PaymentPending,
	}
	if err := s.db.WithContext(ctx).Create(&payment).Error; err != nil {
		return nil, err
	}

	desc := fmt.Sprintf("Contact unlock for listing #%d", propertyID)
	result, err := s.gateway.STKPush(ctx, normalized, s.price, payment.AccountReference, desc)
	if err != nil {
		s.logger.Error("stk push rejected", "payment_id", payment.ID, "error", err)
		payment.Status = models.PaymentFailed
		payment.FailReason = err.Error()
		if dbErr := s.db.WithContext(ctx).Save(&payment).Error; dbErr != nil {
			return nil, dbErr
		}
		return &payment, nil
	}

	payment.MerchantRequestID = result.MerchantRequestID
	payment.CheckoutRequestID = result.CheckoutRequestID
	if err := s.db.WithContext(ctx).Save(&payment).Error; err != nil {
		return nil, err
	}

	s.logger.Info("stk push sent",
		"payment_id", payment.ID,
		"checkout_request_id", payment.CheckoutRequestID,
		"property_id", propertyID,
	)
	return &payment, nil
}

// accountRef builds the merchant reference shown on the STK prompt. The
// uuid suffix keeps retries for the same listing distinguishable.
func accountRef(propertyID int64) string {
	return fmt.Sprintf("NYB-%d-%s", propertyID, uuid.NewString()[:8])
}

// HandleCallback reconciles the gateway's asynchronous result against the
// pending row. Terminal rows are left untouched so replayed callbacks are
// no-ops.
func (s *Service) HandleCallback(ctx context.Context, cb *mpesa.StkCallback) error {
	var payment models.ContactPayment
	err := s.db.WithContext(ctx).
		Where("checkout_request_id = ?", cb.CheckoutRequestID).
		First(&payment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}

	if payment.Status != models.PaymentPending {
		s.logger.Info("callback replay ignored",
			"payment_id", payment.ID, "status", payment.Status)
		return nil
	}

	now := s.now()
	if cb.Success() {
		paidAt := now
		expiresAt := now.Add(s.unlockWindow)
		payment.Status = models.PaymentCompleted
		payment.ProviderReceipt = cb.Receipt()
		payment.PaidAt = &paidAt
		payment.ExpiresAt = &expiresAt
		if err := s.db.WithContext(ctx).Save(&payment).Error; err != nil {
			return err
		}
		s.logger.Info("payment completed",
			"payment_id", payment.ID, "receipt", payment.ProviderReceipt)
		s.notifyResult(ctx, &payment, true, expiresAt)
		return nil
	}

	payment.Status = models.PaymentFailed
	payment.FailReason = cb.ResultDesc
	if err := s.db.WithContext(ctx).Save(&payment).Error; err != nil {
		return err
	}
	s.logger.Info("payment failed",
		"payment_id", payment.ID, "result_code", cb.ResultCode, "reason", cb.ResultDesc)
	s.notifyResult(ctx, &payment, false, time.Time{})
	return nil
}

func (s *Service) notifyResult(ctx context.Context, payment *models.ContactPayment, ok bool, expiresAt time.Time) {
	if s.notifier == nil {
		return
	}
	note := models.Notification{
		UserID:     payment.UserID,
		PropertyID: &payment.PropertyID,
		PaymentID:  &payment.ID,
	}
	if ok {
		note.Kind = models.NotifyPaymentCompleted
		note.Title = "Contact unlocked"
		note.Body = fmt.Sprintf("Payment received. Contact access is open until %s.",
			expiresAt.Format("Mon 2 Jan 15:04"))
	} else {
		note.Kind = models.NotifyPaymentFailed
		note.Title = "Payment failed"
		note.Body = payment.FailReason
	}
	if err := s.notifier.Send(ctx, &note); err != nil {
		s.logger.Error("notification send failed", "payment_id", payment.ID, "error", err)
	}
}

// ActiveUnlock returns the user's unexpired completed payment for the
// property, or nil without error if there is none.
func (s *Service) ActiveUnlock(ctx context.Context, userID, propertyID int64) (*models.ContactPayment, error) {
	var payment models.ContactPayment
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND property_id = ? AND status = ? AND expires_at > ?",
			userID, propertyID, models.PaymentCompleted, s.now()).
		Order("expires_at DESC").
		First(&payment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// Status fetches one of the user's payments for STK-prompt polling.
// Pending rows older than the pending timeout are rolled to expired on
// read, so the client stops polling even if the callback never lands.
func (s *Service) Status(ctx context.Context, userID, paymentID int64) (*models.ContactPayment, error) {
	var payment models.ContactPayment
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", paymentID, userID).
		First(&payment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if payment.Status == models.PaymentPending && payment.CreatedAt.Before(s.now().Add(-s.pendingTimeout)) {
		payment.Status = models.PaymentExpired
		payment.FailReason = "no confirmation received from gateway"
		if err := s.db.WithContext(ctx).Save(&payment).Error; err != nil {
			return nil, err
		}
	}
	return &payment, nil
}

// Unlocks lists the user's completed payments, newest first.
func (s *Service) Unlocks(ctx context.Context, userID int64) ([]models.ContactPayment, error) {
	var rows []models.ContactPayment
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, models.PaymentCompleted).
		Order("paid_at DESC").
		Find(&rows).Error
	return rows, err
}
