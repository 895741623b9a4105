package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"contentpay_backend/internal/events"
	"contentpay_backend/internal/gateway"
	"contentpay_backend/internal/logger"
	"contentpay_backend/internal/models"
	"contentpay_backend/internal/repositories"
	"contentpay_backend/pkg/apperrors"

	"github.com/samber/lo"
	"gorm.io/gorm"
)

type ReconcileOutcome string

const (
	OutcomeCompleted ReconcileOutcome = "completed"
	OutcomeFailed    ReconcileOutcome = "failed"
	OutcomeMismatch  ReconcileOutcome = "mismatch"
	OutcomeUnchanged ReconcileOutcome = "unchanged"
)

// ReconcileReport counts outcomes of one batch run.
type ReconcileReport struct {
	Checked   int
	Completed int
	Failed    int
	Mismatch  int
	Unchanged int
	Errors    int
}

func (r *ReconcileReport) add(outcome ReconcileOutcome) {
	r.Checked++
	switch outcome {
	case OutcomeCompleted:
		r.Completed++
	case OutcomeFailed:
		r.Failed++
	case OutcomeMismatch:
		r.Mismatch++
	default:
		r.Unchanged++
	}
}

// Reconciler settles PENDING orders whose approval outcome is unknown locally
// by asking the gateway what happened.
type Reconciler struct {
	gateway   gateway.Client
	txService TransactionService
	orderRepo repositories.OrderRepository
	publisher events.Publisher
}

func NewReconciler(gw gateway.Client, txService TransactionService, orderRepo repositories.OrderRepository, publisher events.Publisher) *Reconciler {
	return &Reconciler{
		gateway:   gw,
		txService: txService,
		orderRepo: orderRepo,
		publisher: publisher,
	}
}

// ReconcileOrder brings one order in line with the gateway. With expireUnpaid
// an order the gateway has not charged is marked FAILED; without it only
// definitive gateway failures do that.
func (r *Reconciler) ReconcileOrder(ctx context.Context, db *gorm.DB, merchantUid string, expireUnpaid bool) (ReconcileOutcome, error) {
	ctx = logger.WithMerchantUid(ctx, merchantUid)

	order, err := r.orderRepo.FindByMerchantUid(db, merchantUid)
	if err != nil {
		return "", toServiceError(err)
	}
	if order.Status != models.OrderStatusPending {
		return OutcomeUnchanged, nil
	}

	result, err := r.gateway.FindPayment(ctx, merchantUid)
	if err != nil {
		return "", apperrors.ErrGatewayAPI(err, "", "Payment lookup failed")
	}

	switch result.Status {
	case gateway.PaymentStatusPaid:
		return r.complete(ctx, db, order, result)
	case gateway.PaymentStatusFailed, gateway.PaymentStatusCancelled:
		return r.fail(ctx, db, order, result.Status, result.ErrorMessage)
	default:
		if expireUnpaid {
			return r.fail(ctx, db, order, "EXPIRED", "payment was not completed in time")
		}
		return OutcomeUnchanged, nil
	}
}

func (r *Reconciler) complete(ctx context.Context, db *gorm.DB, order *models.Order, result *gateway.ApprovalResult) (ReconcileOutcome, error) {
	if err := ValidateAmount(order, result.TotalAmount); err != nil {
		logger.CtxError(ctx, "reconciliation amount mismatch, manual review required",
			"expected", order.FinalAmount.String(), "actual", result.TotalAmount.String(),
			"pg_transaction_id", result.PgTransactionID)
		return OutcomeMismatch, nil
	}

	owner := Identity{MemberID: lo.FromPtr(order.MemberID), GuestID: lo.FromPtr(order.GuestID)}
	completion, err := r.txService.CompletePayment(db, CompleteInput{
		Order:    order,
		Approval: result,
		Identity: owner,
	})
	if err != nil {
		return "", err
	}

	logger.CtxInfo(ctx, "pending order completed by reconciliation", "pg_transaction_id", result.PgTransactionID)
	r.publisher.Publish(ctx, CompletedEvent(completion))
	return OutcomeCompleted, nil
}

func (r *Reconciler) fail(ctx context.Context, db *gorm.DB, order *models.Order, code, message string) (ReconcileOutcome, error) {
	if err := r.txService.RecordFailure(db, order, code, message); err != nil {
		return "", err
	}
	logger.CtxInfo(ctx, "pending order marked failed by reconciliation", "code", code)
	return OutcomeFailed, nil
}

// ReconcileStale reconciles up to limit PENDING orders created more than
// olderThan ago. Per-order failures are logged and counted.
func (r *Reconciler) ReconcileStale(ctx context.Context, db *gorm.DB, olderThan time.Duration, limit int) (*ReconcileReport, error) {
	cutoff := time.Now().UTC().Add(-olderThan)
	orders, err := r.orderRepo.FindStalePending(db, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("reconcile stale: %w", err)
	}

	report := &ReconcileReport{}
	for _, order := range orders {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
		outcome, err := r.ReconcileOrder(ctx, db, order.MerchantUid, true)
		if err != nil {
			report.Checked++
			report.Errors++
			if !errors.Is(err, apperrors.ErrConcurrentModification) {
				logger.CtxWithError(ctx, "reconcile order failed", err, "merchant_uid", order.MerchantUid)
			}
			continue
		}
		report.add(outcome)
	}
	return report, nil
}
