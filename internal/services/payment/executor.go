package payment

import (
	"context"
	"time"

	"contentpay_backend/internal/events"
	"contentpay_backend/internal/logger"
	"contentpay_backend/internal/models"
	"contentpay_backend/pkg/apperrors"

	"gorm.io/gorm"
)

const (
	CommandApprove       = "approve"
	CommandRequestCancel = "request_cancel"
	CommandCancel        = "cancel"
)

// CommandExecutor dispatches payment commands to the strategy that supports
// the caller and publishes events once the work has committed.
type CommandExecutor struct {
	strategies []Strategy
	publisher  events.Publisher
}

func NewCommandExecutor(publisher events.Publisher, strategies ...Strategy) *CommandExecutor {
	return &CommandExecutor{strategies: strategies, publisher: publisher}
}

func (e *CommandExecutor) selectStrategy(id Identity) (Strategy, error) {
	for _, s := range e.strategies {
		if s.Supports(id) {
			return s, nil
		}
	}
	return nil, apperrors.ErrAuthenticationRequired
}

func (e *CommandExecutor) Approve(ctx context.Context, db *gorm.DB, cmd ApproveCommand) (completion *PaymentCompletion, err error) {
	ctx = logger.WithMerchantUid(ctx, cmd.MerchantUid)
	strategy, err := e.selectStrategy(cmd.Identity)
	if err != nil {
		logger.CommandLog(CommandApprove, "", cmd.MerchantUid, 0, err)
		return nil, err
	}

	start := time.Now()
	defer func() { logger.CommandLog(CommandApprove, strategy.Name(), cmd.MerchantUid, time.Since(start), err) }()

	completion, err = strategy.Approve(ctx, db, cmd)
	if err != nil {
		return nil, err
	}
	e.publisher.Publish(ctx, CompletedEvent(completion))
	return completion, nil
}

func (e *CommandExecutor) RequestCancel(ctx context.Context, db *gorm.DB, cmd CancelRequestCommand) (order *models.Order, err error) {
	ctx = logger.WithMerchantUid(ctx, cmd.MerchantUid)
	strategy, err := e.selectStrategy(cmd.Identity)
	if err != nil {
		logger.CommandLog(CommandRequestCancel, "", cmd.MerchantUid, 0, err)
		return nil, err
	}

	start := time.Now()
	defer func() {
		logger.CommandLog(CommandRequestCancel, strategy.Name(), cmd.MerchantUid, time.Since(start), err)
	}()

	return strategy.RequestCancel(ctx, db, cmd)
}

func (e *CommandExecutor) Cancel(ctx context.Context, db *gorm.DB, cmd CancelCommand) (cancellation *PaymentCancellation, err error) {
	ctx = logger.WithMerchantUid(ctx, cmd.MerchantUid)
	strategy, err := e.selectStrategy(cmd.Identity)
	if err != nil {
		logger.CommandLog(CommandCancel, "", cmd.MerchantUid, 0, err)
		return nil, err
	}

	start := time.Now()
	defer func() { logger.CommandLog(CommandCancel, strategy.Name(), cmd.MerchantUid, time.Since(start), err) }()

	cancellation, err = strategy.Cancel(ctx, db, cmd)
	if err != nil {
		return nil, err
	}
	e.publisher.Publish(ctx, RefundedEvent(cancellation))
	return cancellation, nil
}

func CompletedEvent(c *PaymentCompletion) events.PaymentCompleted {
	return events.PaymentCompleted{
		OrderID:           c.OrderID,
		PurchaseID:        c.PurchaseID,
		MerchantUid:       c.MerchantUid,
		MemberID:          c.MemberID,
		GuestID:           c.GuestID,
		SellerID:          c.SellerID,
		ContentID:         c.ContentID,
		ContentTitle:      c.ContentTitle,
		OptionName:        c.OptionName,
		Amount:            c.Amount,
		PgTransactionID:   c.PgTransactionID,
		PayMethod:         c.PayMethod,
		BuyerName:         c.BuyerName,
		BuyerEmail:        c.BuyerEmail,
		BuyerPhone:        c.BuyerPhone,
		PaidAt:            c.PaidAt,
		SubscriptionID:    c.SubscriptionID,
		SubscriptionRound: c.SubscriptionRound,
		NextBillingDate:   c.NextBillingDate,
	}
}

func RefundedEvent(c *PaymentCancellation) events.PaymentRefunded {
	return events.PaymentRefunded{
		OrderID:             c.OrderID,
		MerchantUid:         c.MerchantUid,
		MemberID:            c.MemberID,
		GuestID:             c.GuestID,
		SellerID:            c.SellerID,
		ContentTitle:        c.ContentTitle,
		Amount:              c.Amount,
		Reason:              c.Reason,
		CancelTransactionID: c.CancelTransactionID,
		BuyerName:           c.BuyerName,
		BuyerEmail:          c.BuyerEmail,
		RefundedAt:          c.CancelledAt,
	}
}
