package payment

import (
	"context"

	"contentpay_backend/internal/gateway"
	"contentpay_backend/internal/models"
	"contentpay_backend/internal/repositories"
	"contentpay_backend/pkg/apperrors"

	"gorm.io/gorm"
)

// GuestStrategy handles buyers identified only by a guest token. Guests have
// no account to receive notifications, so a contact address is required.
type GuestStrategy struct {
	base baseStrategy
}

func NewGuestStrategy(
	gw gateway.Client,
	txService TransactionService,
	orderRepo repositories.OrderRepository,
	recordRepo repositories.PaymentRecordRepository,
) *GuestStrategy {
	return &GuestStrategy{base: baseStrategy{
		gateway:    gw,
		txService:  txService,
		orderRepo:  orderRepo,
		recordRepo: recordRepo,
		precheck:   requireGuestContact,
	}}
}

func (s *GuestStrategy) Name() string { return "guest" }

func (s *GuestStrategy) Supports(id Identity) bool { return id.IsGuest() }

func (s *GuestStrategy) Approve(ctx context.Context, db *gorm.DB, cmd ApproveCommand) (*PaymentCompletion, error) {
	return s.base.approve(ctx, db, cmd)
}

func (s *GuestStrategy) RequestCancel(ctx context.Context, db *gorm.DB, cmd CancelRequestCommand) (*models.Order, error) {
	return s.base.requestCancel(ctx, db, cmd)
}

func (s *GuestStrategy) Cancel(ctx context.Context, db *gorm.DB, cmd CancelCommand) (*PaymentCancellation, error) {
	return s.base.cancel(ctx, db, cmd)
}

func requireGuestContact(_ *gorm.DB, order *models.Order) error {
	if order.BuyerEmail == "" && order.BuyerPhone == "" {
		return apperrors.ValidationError(map[string]string{"buyer": "guest orders need an email or phone"})
	}
	return nil
}
