package payment

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"contentpay_backend/internal/gateway"
	"contentpay_backend/internal/models"
	"contentpay_backend/internal/repositories"
	"contentpay_backend/pkg/apperrors"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PaymentCompletion is everything downstream consumers need about a
// committed approval.
type PaymentCompletion struct {
	OrderID         string
	PurchaseID      string
	MerchantUid     string
	MemberID        string
	GuestID         string
	SellerID        string
	ContentID       string
	ContentTitle    string
	ContentType     models.ContentType
	OptionName      string
	Amount          decimal.Decimal
	PgTransactionID string
	PayMethod       string
	BuyerName       string
	BuyerEmail      string
	BuyerPhone      string
	PaidAt          time.Time

	SubscriptionID    string
	SubscriptionRound int
	NextBillingDate   *time.Time

	Warnings []Warning
}

type PaymentCancellation struct {
	OrderID             string
	MerchantUid         string
	MemberID            string
	GuestID             string
	SellerID            string
	ContentTitle        string
	Amount              decimal.Decimal
	Reason              string
	CancelTransactionID string
	BuyerName           string
	BuyerEmail          string
	CancelledAt         time.Time
}

// TxHook runs inside the completing transaction after the purchase exists.
type TxHook func(tx *gorm.DB, completion *PaymentCompletion) error

type CompleteInput struct {
	Order    *models.Order
	Approval *gateway.ApprovalResult
	Identity Identity
	Command  *ApproveCommand
	Hooks    []TxHook
}

type TransactionService interface {
	// CompletePayment records the approval and moves the order to PAID in one
	// transaction. On any error nothing is persisted and Order is unchanged.
	CompletePayment(db *gorm.DB, in CompleteInput) (*PaymentCompletion, error)
	CancelPayment(db *gorm.DB, order *models.Order, refund *gateway.RefundResult, reason string) (*PaymentCancellation, error)
	RecordFailure(db *gorm.DB, order *models.Order, code, message string) error
	RequestCancel(db *gorm.DB, order *models.Order, reason string) error
}

type transactionService struct {
	orderRepo    repositories.OrderRepository
	recordRepo   repositories.PaymentRecordRepository
	purchaseRepo repositories.PurchaseRepository
}

func NewTransactionService(
	orderRepo repositories.OrderRepository,
	recordRepo repositories.PaymentRecordRepository,
	purchaseRepo repositories.PurchaseRepository,
) TransactionService {
	return &transactionService{
		orderRepo:    orderRepo,
		recordRepo:   recordRepo,
		purchaseRepo: purchaseRepo,
	}
}

func (s *transactionService) CompletePayment(db *gorm.DB, in CompleteInput) (*PaymentCompletion, error) {
	if in.Order == nil || in.Approval == nil {
		return nil, apperrors.ProcessingError(errors.New("complete payment: order and approval are required"))
	}

	tx := db.Begin()
	if tx.Error != nil {
		return nil, apperrors.ProcessingError(tx.Error)
	}
	defer tx.Rollback()

	order := *in.Order
	approval := in.Approval
	now := time.Now().UTC()

	approvedAt := approval.ApprovedAt
	if approvedAt.IsZero() {
		approvedAt = now
	}

	record := &models.PaymentRecord{
		OrderID:         order.ID,
		MerchantUid:     order.MerchantUid,
		PgTransactionID: approval.PgTransactionID,
		PayMethod:       approval.PayMethod,
		PayerID:         approval.PayerID,
		BuyerName:       approval.Buyer.Name,
		BuyerPhone:      approval.Buyer.Phone,
		CardName:        approval.Card.Company,
		CardNumber:      approval.Card.Number,
		CardInstallment: approval.Card.Installment,
		TaxFree:         approval.TaxFree,
		TaxFreeAmount:   approval.TaxFreeAmount,
		VatAmount:       approval.VatAmount,
		ApprovedAmount:  approval.TotalAmount,
		ApprovedAt:      approvedAt,
	}
	var raw any
	if len(approval.Raw) > 0 && json.Valid(approval.Raw) {
		raw = approval.Raw
	}
	if err := s.recordRepo.Create(tx, record, raw); err != nil {
		return nil, toServiceError(err)
	}

	warnings, err := ValidateApproval(&order, in.Identity, in.Command, approval)
	if err != nil {
		return nil, err
	}

	order.Status = models.OrderStatusPaid
	order.PaidAt = lo.ToPtr(approvedAt)
	if err := s.orderRepo.UpdateStatus(tx, &order); err != nil {
		return nil, toServiceError(err)
	}

	purchase := models.NewPurchaseFromOrder(&order, approvedAt)
	if err := s.purchaseRepo.Create(tx, purchase); err != nil {
		if repositories.IsDuplicate(err) {
			return nil, apperrors.ErrAlreadyPurchased.WithError(err)
		}
		return nil, toServiceError(err)
	}

	completion := newCompletion(&order, purchase, record, warnings)
	for _, hook := range in.Hooks {
		if err := hook(tx, completion); err != nil {
			return nil, toServiceError(err)
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, apperrors.ProcessingError(fmt.Errorf("commit payment: %w", err))
	}

	*in.Order = order
	return completion, nil
}

func (s *transactionService) CancelPayment(db *gorm.DB, order *models.Order, refund *gateway.RefundResult, reason string) (*PaymentCancellation, error) {
	if err := ValidateStatus(order, models.OrderStatusCancelRequest); err != nil {
		return nil, err
	}

	tx := db.Begin()
	if tx.Error != nil {
		return nil, apperrors.ProcessingError(tx.Error)
	}
	defer tx.Rollback()

	updated := *order
	cancelledAt := time.Now().UTC()
	if refund != nil && !refund.CancelledAt.IsZero() {
		cancelledAt = refund.CancelledAt.UTC()
	}
	if reason == "" {
		reason = order.CancelReason
	}

	updated.Status = models.OrderStatusCancelled
	updated.CancelledAt = lo.ToPtr(cancelledAt)
	updated.CancelReason = reason
	if err := s.orderRepo.UpdateStatus(tx, &updated); err != nil {
		return nil, toServiceError(err)
	}

	if err := s.purchaseRepo.MarkCancelled(tx, order.ID, cancelledAt, reason); err != nil {
		return nil, toServiceError(err)
	}

	record, err := s.recordRepo.FindByOrderID(tx, order.ID)
	if err != nil {
		return nil, toServiceError(err)
	}

	cancelAmount := order.FinalAmount
	cancelTxID := ""
	if refund != nil {
		cancelTxID = refund.CancelTransactionID
		if !refund.CancelledAmount.IsZero() {
			cancelAmount = refund.CancelledAmount
		}
	}
	err = s.recordRepo.MarkCancelled(tx, record.ID, repositories.PaymentCancelInfo{
		CancelledAt:   cancelledAt,
		Reason:        reason,
		Amount:        cancelAmount,
		TransactionID: cancelTxID,
	})
	if err != nil {
		return nil, toServiceError(err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, apperrors.ProcessingError(fmt.Errorf("commit cancellation: %w", err))
	}

	*order = updated
	return &PaymentCancellation{
		OrderID:             order.ID,
		MerchantUid:         order.MerchantUid,
		MemberID:            lo.FromPtr(order.MemberID),
		GuestID:             lo.FromPtr(order.GuestID),
		SellerID:            order.SellerID,
		ContentTitle:        order.ContentTitle,
		Amount:              cancelAmount,
		Reason:              reason,
		CancelTransactionID: cancelTxID,
		BuyerName:           order.BuyerName,
		BuyerEmail:          order.BuyerEmail,
		CancelledAt:         cancelledAt,
	}, nil
}

func (s *transactionService) RecordFailure(db *gorm.DB, order *models.Order, code, message string) error {
	if err := ValidateStatus(order, models.OrderStatusPending); err != nil {
		return err
	}

	updated := *order
	updated.Status = models.OrderStatusFailed
	updated.FailedAt = lo.ToPtr(time.Now().UTC())
	updated.FailureReason = failureReason(code, message)
	if err := s.orderRepo.UpdateStatus(db, &updated); err != nil {
		return toServiceError(err)
	}
	*order = updated
	return nil
}

func (s *transactionService) RequestCancel(db *gorm.DB, order *models.Order, reason string) error {
	if err := ValidateStatus(order, models.OrderStatusPaid); err != nil {
		return err
	}

	updated := *order
	updated.Status = models.OrderStatusCancelRequest
	updated.CancelRequestedAt = lo.ToPtr(time.Now().UTC())
	updated.CancelReason = reason
	if err := s.orderRepo.UpdateStatus(db, &updated); err != nil {
		return toServiceError(err)
	}
	*order = updated
	return nil
}

func newCompletion(order *models.Order, purchase *models.Purchase, record *models.PaymentRecord, warnings []Warning) *PaymentCompletion {
	return &PaymentCompletion{
		OrderID:           order.ID,
		PurchaseID:        purchase.ID,
		MerchantUid:       order.MerchantUid,
		MemberID:          lo.FromPtr(order.MemberID),
		GuestID:           lo.FromPtr(order.GuestID),
		SellerID:          order.SellerID,
		ContentID:         order.ContentID,
		ContentTitle:      order.ContentTitle,
		ContentType:       order.ContentType,
		OptionName:        order.OptionName,
		Amount:            order.FinalAmount,
		PgTransactionID:   record.PgTransactionID,
		PayMethod:         record.PayMethod,
		BuyerName:         order.BuyerName,
		BuyerEmail:        order.BuyerEmail,
		BuyerPhone:        order.BuyerPhone,
		PaidAt:            lo.FromPtr(order.PaidAt),
		SubscriptionID:    lo.FromPtr(order.SubscriptionID),
		SubscriptionRound: order.SubscriptionRound,
		NextBillingDate:   order.NextBillingDate,
		Warnings:          warnings,
	}
}

func failureReason(code, message string) string {
	switch {
	case code == "":
		return message
	case message == "":
		return code
	default:
		return code + ": " + message
	}
}
