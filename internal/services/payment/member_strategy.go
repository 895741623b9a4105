package payment

import (
	"context"

	"contentpay_backend/internal/gateway"
	"contentpay_backend/internal/models"
	"contentpay_backend/internal/repositories"
	"contentpay_backend/pkg/apperrors"

	"gorm.io/gorm"
)

// MemberStrategy handles buyers with an account.
type MemberStrategy struct {
	base         baseStrategy
	purchaseRepo repositories.PurchaseRepository
}

func NewMemberStrategy(
	gw gateway.Client,
	txService TransactionService,
	orderRepo repositories.OrderRepository,
	recordRepo repositories.PaymentRecordRepository,
	purchaseRepo repositories.PurchaseRepository,
) *MemberStrategy {
	s := &MemberStrategy{purchaseRepo: purchaseRepo}
	s.base = baseStrategy{
		gateway:    gw,
		txService:  txService,
		orderRepo:  orderRepo,
		recordRepo: recordRepo,
		precheck:   s.rejectRepurchase,
	}
	return s
}

func (s *MemberStrategy) Name() string { return "member" }

func (s *MemberStrategy) Supports(id Identity) bool { return id.IsMember() }

func (s *MemberStrategy) Approve(ctx context.Context, db *gorm.DB, cmd ApproveCommand) (*PaymentCompletion, error) {
	return s.base.approve(ctx, db, cmd)
}

func (s *MemberStrategy) RequestCancel(ctx context.Context, db *gorm.DB, cmd CancelRequestCommand) (*models.Order, error) {
	return s.base.requestCancel(ctx, db, cmd)
}

func (s *MemberStrategy) Cancel(ctx context.Context, db *gorm.DB, cmd CancelCommand) (*PaymentCancellation, error) {
	return s.base.cancel(ctx, db, cmd)
}

// rejectRepurchase stops a member from paying twice for the same document.
// Coaching sessions and subscription rounds may be bought repeatedly.
func (s *MemberStrategy) rejectRepurchase(db *gorm.DB, order *models.Order) error {
	if order.ContentType != models.ContentTypeDocument || order.IsSubscription() || order.MemberID == nil {
		return nil
	}
	owned, err := s.purchaseRepo.ExistsCompleted(db, *order.MemberID, order.ContentID)
	if err != nil {
		return toServiceError(err)
	}
	if owned {
		return apperrors.ErrAlreadyPurchased
	}
	return nil
}
