package events

import (
	"context"
	"errors"
	"fmt"

	"contentpay_backend/internal/email"
	"contentpay_backend/internal/logger"
	"contentpay_backend/internal/models"
	"contentpay_backend/internal/repositories"

	"gorm.io/gorm"
)

// step runs fn with its own panic guard so one failing step does not stop
// the ones after it.
func step(ctx context.Context, listener, name string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s/%s panicked: %v", listener, name, r)
		}
		if err != nil {
			logger.CtxWithError(ctx, "listener step failed", err, "listener", listener, "step", name)
		}
	}()
	return fn()
}

// NotificationListener stores in-app notifications for the seller and, for
// member purchases, the buyer.
type NotificationListener struct {
	db               *gorm.DB
	notificationRepo repositories.NotificationRepository
}

func NewNotificationListener(db *gorm.DB, notificationRepo repositories.NotificationRepository) *NotificationListener {
	return &NotificationListener{db: db, notificationRepo: notificationRepo}
}

func (l *NotificationListener) Name() string { return "notification" }

func (l *NotificationListener) Handle(ctx context.Context, event Event) error {
	switch e := event.(type) {
	case PaymentCompleted:
		return l.onCompleted(ctx, e)
	case PaymentRefunded:
		return l.onRefunded(ctx, e)
	}
	return nil
}

func (l *NotificationListener) onCompleted(ctx context.Context, e PaymentCompleted) error {
	db := l.db.WithContext(ctx)
	data := map[string]interface{}{
		"order_id":     e.OrderID,
		"merchant_uid": e.MerchantUid,
		"content_id":   e.ContentID,
		"amount":       e.Amount.StringFixed(2),
	}

	sellerErr := step(ctx, l.Name(), "seller", func() error {
		return l.notificationRepo.Create(db, &models.Notification{
			UserID:  e.SellerID,
			Type:    models.NotificationTypeContentSold,
			Title:   "New sale",
			Message: fmt.Sprintf("%s was purchased", e.ContentTitle),
		}, data)
	})

	var buyerErr error
	if e.MemberID != "" {
		buyerErr = step(ctx, l.Name(), "buyer", func() error {
			return l.notificationRepo.Create(db, &models.Notification{
				UserID:  e.MemberID,
				Type:    models.NotificationTypePaymentCompleted,
				Title:   "Payment complete",
				Message: fmt.Sprintf("Your payment for %s is complete", e.ContentTitle),
			}, data)
		})
	}
	return errors.Join(sellerErr, buyerErr)
}

func (l *NotificationListener) onRefunded(ctx context.Context, e PaymentRefunded) error {
	db := l.db.WithContext(ctx)
	data := map[string]interface{}{
		"order_id":     e.OrderID,
		"merchant_uid": e.MerchantUid,
		"amount":       e.Amount.StringFixed(2),
		"reason":       e.Reason,
	}

	sellerErr := step(ctx, l.Name(), "seller", func() error {
		return l.notificationRepo.Create(db, &models.Notification{
			UserID:  e.SellerID,
			Type:    models.NotificationTypePurchaseRefunded,
			Title:   "Purchase refunded",
			Message: fmt.Sprintf("A purchase of %s was refunded", e.ContentTitle),
		}, data)
	})

	var buyerErr error
	if e.MemberID != "" {
		buyerErr = step(ctx, l.Name(), "buyer", func() error {
			return l.notificationRepo.Create(db, &models.Notification{
				UserID:  e.MemberID,
				Type:    models.NotificationTypePaymentRefunded,
				Title:   "Refund complete",
				Message: fmt.Sprintf("Your payment for %s was refunded", e.ContentTitle),
			}, data)
		})
	}
	return errors.Join(sellerErr, buyerErr)
}

// EmailListener mails receipts and refund confirmations to the buyer.
type EmailListener struct {
	provider email.Provider
}

func NewEmailListener(provider email.Provider) *EmailListener {
	return &EmailListener{provider: provider}
}

func (l *EmailListener) Name() string { return "email" }

func (l *EmailListener) Handle(ctx context.Context, event Event) error {
	switch e := event.(type) {
	case PaymentCompleted:
		if e.BuyerEmail == "" {
			return nil
		}
		return step(ctx, l.Name(), "receipt", func() error {
			return l.provider.SendTemplate([]string{e.BuyerEmail}, "Payment receipt", email.TemplatePaymentReceipt, email.TemplateData{
				"BuyerName":    e.BuyerName,
				"ContentTitle": e.ContentTitle,
				"OptionName":   e.OptionName,
				"MerchantUid":  e.MerchantUid,
				"Amount":       e.Amount,
				"PaidAt":       e.PaidAt.Format("2006-01-02 15:04"),
			})
		})
	case PaymentRefunded:
		if e.BuyerEmail == "" {
			return nil
		}
		return step(ctx, l.Name(), "refund", func() error {
			return l.provider.SendTemplate([]string{e.BuyerEmail}, "Refund confirmation", email.TemplatePaymentRefund, email.TemplateData{
				"BuyerName":    e.BuyerName,
				"ContentTitle": e.ContentTitle,
				"MerchantUid":  e.MerchantUid,
				"Amount":       e.Amount,
				"Reason":       e.Reason,
			})
		})
	}
	return nil
}
