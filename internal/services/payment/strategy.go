package payment

import (
	"context"

	"contentpay_backend/internal/gateway"
	"contentpay_backend/internal/logger"
	"contentpay_backend/internal/models"
	"contentpay_backend/internal/repositories"
	"contentpay_backend/pkg/apperrors"

	"gorm.io/gorm"
)

// Strategy runs payment commands for one kind of buyer.
type Strategy interface {
	Name() string
	// Supports reports whether the identity belongs to this strategy. At most
	// one registered strategy matches any identity.
	Supports(id Identity) bool
	Approve(ctx context.Context, db *gorm.DB, cmd ApproveCommand) (*PaymentCompletion, error)
	RequestCancel(ctx context.Context, db *gorm.DB, cmd CancelRequestCommand) (*models.Order, error)
	Cancel(ctx context.Context, db *gorm.DB, cmd CancelCommand) (*PaymentCancellation, error)
}

// baseStrategy holds the flow shared by member and guest payments.
// precheck runs before the gateway is contacted.
type baseStrategy struct {
	gateway    gateway.Client
	txService  TransactionService
	orderRepo  repositories.OrderRepository
	recordRepo repositories.PaymentRecordRepository
	precheck   func(db *gorm.DB, order *models.Order) error
}

func (s *baseStrategy) loadOwned(db *gorm.DB, merchantUid string, id Identity) (*models.Order, error) {
	order, err := s.orderRepo.FindByMerchantUid(db, merchantUid)
	if err != nil {
		return nil, toServiceError(err)
	}
	if err := ValidateOwnership(order, id); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *baseStrategy) approve(ctx context.Context, db *gorm.DB, cmd ApproveCommand) (*PaymentCompletion, error) {
	order, err := s.loadOwned(db, cmd.MerchantUid, cmd.Identity)
	if err != nil {
		return nil, err
	}
	if err := ValidateStatus(order, models.OrderStatusPending); err != nil {
		return nil, err
	}
	if err := ValidateAmount(order, cmd.Amount); err != nil {
		return nil, err
	}
	if s.precheck != nil {
		if err := s.precheck(db, order); err != nil {
			return nil, err
		}
	}

	approval, err := s.gateway.RequestApproval(ctx, gateway.AuthResult{
		PaymentKey:  cmd.PaymentKey,
		MerchantUid: order.MerchantUid,
		Amount:      order.FinalAmount,
	})
	if err != nil {
		// the order stays PENDING; reconciliation settles it later
		return nil, apperrors.ErrGatewayAPI(err, "", "Payment gateway request failed")
	}

	if !approval.Success {
		if ferr := s.txService.RecordFailure(db, order, approval.ErrorCode, approval.ErrorMessage); ferr != nil {
			logger.CtxWithError(ctx, "failed to record declined payment", ferr)
		}
		return nil, apperrors.ErrGatewayAPI(nil, approval.ErrorCode, declineMessage(approval.ErrorMessage))
	}

	completion, err := s.txService.CompletePayment(db, CompleteInput{
		Order:    order,
		Approval: approval,
		Identity: cmd.Identity,
		Command:  &cmd,
	})
	if err != nil {
		if apperrors.HasCode(err, apperrors.CodeAmountMismatch) {
			s.compensate(ctx, order, approval)
		}
		return nil, err
	}

	for _, w := range completion.Warnings {
		logger.CtxWarn(ctx, "payment field mismatch", "field", w.Field, "expected", w.Expected, "actual", w.Actual)
	}
	return completion, nil
}

// compensate refunds a charge that was approved by the gateway but rejected
// locally. Failures are logged for manual follow-up.
func (s *baseStrategy) compensate(ctx context.Context, order *models.Order, approval *gateway.ApprovalResult) {
	refund, err := s.gateway.RequestRefund(ctx, gateway.CancelInfo{
		MerchantUid:     order.MerchantUid,
		PgTransactionID: approval.PgTransactionID,
		Amount:          approval.TotalAmount,
		Reason:          "amount mismatch",
	})
	switch {
	case err != nil:
		logger.CtxWithError(ctx, "compensating refund failed", err, "pg_transaction_id", approval.PgTransactionID)
	case !refund.Success:
		logger.CtxError(ctx, "compensating refund declined",
			"pg_transaction_id", approval.PgTransactionID, "code", refund.ErrorCode, "message", refund.ErrorMessage)
	default:
		logger.CtxWarn(ctx, "compensating refund issued", "pg_transaction_id", approval.PgTransactionID)
	}
}

func (s *baseStrategy) requestCancel(_ context.Context, db *gorm.DB, cmd CancelRequestCommand) (*models.Order, error) {
	order, err := s.loadOwned(db, cmd.MerchantUid, cmd.Identity)
	if err != nil {
		return nil, err
	}
	if err := s.txService.RequestCancel(db, order, cmd.Reason); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *baseStrategy) cancel(ctx context.Context, db *gorm.DB, cmd CancelCommand) (*PaymentCancellation, error) {
	order, err := s.loadOwned(db, cmd.MerchantUid, cmd.Identity)
	if err != nil {
		return nil, err
	}
	if err := ValidateStatus(order, models.OrderStatusCancelRequest); err != nil {
		return nil, err
	}

	record, err := s.recordRepo.FindByOrderID(db, order.ID)
	if err != nil {
		return nil, toServiceError(err)
	}

	reason := cmd.Reason
	if reason == "" {
		reason = order.CancelReason
	}

	refund, err := s.gateway.RequestRefund(ctx, gateway.CancelInfo{
		MerchantUid:     order.MerchantUid,
		PgTransactionID: record.PgTransactionID,
		Amount:          record.ApprovedAmount,
		Reason:          reason,
	})
	if err != nil {
		return nil, apperrors.ErrGatewayRefund(err, "", "Refund request failed")
	}
	if !refund.Success {
		return nil, apperrors.ErrGatewayRefund(nil, refund.ErrorCode, declineMessage(refund.ErrorMessage))
	}

	cancellation, err := s.txService.CancelPayment(db, order, refund, reason)
	if err != nil {
		// the gateway already refunded; the order needs manual attention
		logger.CtxWithError(ctx, "refund succeeded but local cancellation failed", err,
			"cancel_transaction_id", refund.CancelTransactionID)
		return nil, err
	}
	return cancellation, nil
}

func declineMessage(message string) string {
	if message == "" {
		return "Payment gateway declined the request"
	}
	return message
}
