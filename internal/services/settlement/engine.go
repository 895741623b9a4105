package settlement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"contentpay_backend/internal/gateway"
	"contentpay_backend/internal/logger"
	"contentpay_backend/internal/models"
	"contentpay_backend/internal/repositories"
	"contentpay_backend/pkg/apperrors"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const DefaultPayoutDelayDays = 7

// AggregateReport summarises one AggregatePeriod run.
type AggregateReport struct {
	Period      Period
	Sellers     int
	Settlements []string
	Items       int
	Failed      int
}

type Engine interface {
	// Aggregate settles every unsettled purchase of seller in period. It
	// returns nil when the seller has nothing to settle.
	Aggregate(ctx context.Context, db *gorm.DB, sellerID string, period Period) (*models.Settlement, error)
	AggregatePeriod(ctx context.Context, db *gorm.DB, period Period) (*AggregateReport, error)
	Approve(ctx context.Context, db *gorm.DB, settlementID, adminID string) (*models.Settlement, error)
	Cancel(ctx context.Context, db *gorm.DB, settlementID, reason string) (*models.Settlement, error)
	Get(db *gorm.DB, settlementID string) (*models.Settlement, error)
	List(db *gorm.DB, filter repositories.SettlementFilter) ([]models.Settlement, int64, error)
}

type engine struct {
	gateway         gateway.Client
	purchaseRepo    repositories.PurchaseRepository
	settlementRepo  repositories.SettlementRepository
	payoutDelayDays int
}

func NewEngine(
	gw gateway.Client,
	purchaseRepo repositories.PurchaseRepository,
	settlementRepo repositories.SettlementRepository,
	payoutDelayDays int,
) Engine {
	if payoutDelayDays < 0 {
		payoutDelayDays = DefaultPayoutDelayDays
	}
	return &engine{
		gateway:         gw,
		purchaseRepo:    purchaseRepo,
		settlementRepo:  settlementRepo,
		payoutDelayDays: payoutDelayDays,
	}
}

func (e *engine) Aggregate(ctx context.Context, db *gorm.DB, sellerID string, period Period) (*models.Settlement, error) {
	if err := period.Validate(); err != nil {
		return nil, apperrors.ValidationError(map[string]string{"period": err.Error()})
	}

	tx := db.Begin()
	if tx.Error != nil {
		return nil, apperrors.ProcessingError(tx.Error)
	}
	defer tx.Rollback()

	purchases, err := e.purchaseRepo.FindUnsettled(tx, sellerID, period.Start, period.End)
	if err != nil {
		return nil, apperrors.ProcessingError(err)
	}
	if len(purchases) == 0 {
		return nil, nil
	}

	settlement, err := e.settlementRepo.FindBySellerAndPeriod(tx, sellerID, period.Start, period.End)
	switch {
	case err == nil:
		if settlement.Status != models.SettlementStatusPending {
			closed := settlement
			settlement = e.newSettlement(sellerID, period, closed.Sequence+1)
			if err := e.settlementRepo.Create(tx, settlement); err != nil {
				return nil, settlementError(err)
			}
			logger.CtxInfo(ctx, "supplementary settlement opened",
				"settlement_id", settlement.ID, "previous_settlement_id", closed.ID,
				"previous_status", closed.Status, "sequence", settlement.Sequence)
		}
	case errors.Is(err, repositories.ErrSettlementNotFound):
		settlement = e.newSettlement(sellerID, period, 1)
		if err := e.settlementRepo.Create(tx, settlement); err != nil {
			return nil, settlementError(err)
		}
	default:
		return nil, apperrors.ProcessingError(err)
	}

	added := 0
	for _, p := range purchases {
		exists, err := e.settlementRepo.ItemExists(tx, p.ID)
		if err != nil {
			return nil, apperrors.ProcessingError(err)
		}
		if exists {
			continue
		}
		item := &models.SettlementItem{
			SettlementID: settlement.ID,
			PurchaseID:   p.ID,
			OrderID:      p.OrderID,
			Amount:       p.FinalPrice,
		}
		if err := e.settlementRepo.CreateItem(tx, item); err != nil {
			if repositories.IsDuplicate(err) {
				continue
			}
			return nil, apperrors.ProcessingError(err)
		}
		added++
	}

	items, err := e.settlementRepo.FindItems(tx, settlement.ID)
	if err != nil {
		return nil, apperrors.ProcessingError(err)
	}
	gross := decimal.Zero
	for _, item := range items {
		gross = gross.Add(item.Amount)
	}
	fees := CalculateFees(gross)
	settlement.TotalAmount = fees.Gross
	settlement.PgFee = fees.PgFee
	settlement.PlatformFee = fees.PlatformFee
	settlement.PayoutAmount = fees.Payout
	settlement.ItemCount = len(items)

	if err := e.settlementRepo.UpdateWithVersion(tx, settlement); err != nil {
		return nil, settlementError(err)
	}
	if err := tx.Commit().Error; err != nil {
		return nil, apperrors.ProcessingError(fmt.Errorf("commit settlement: %w", err))
	}

	settlement.Items = items
	logger.CtxInfo(ctx, "settlement aggregated",
		"settlement_id", settlement.ID, "seller_id", sellerID, "period", period.String(),
		"new_items", added, "total", settlement.TotalAmount.String(), "payout", settlement.PayoutAmount.String())
	return settlement, nil
}

func (e *engine) newSettlement(sellerID string, period Period, sequence int) *models.Settlement {
	return &models.Settlement{
		SellerID:            sellerID,
		PeriodStart:         period.Start,
		PeriodEnd:           period.End,
		Sequence:            sequence,
		ScheduledPayoutDate: period.End.AddDate(0, 0, e.payoutDelayDays),
		TotalAmount:         decimal.Zero,
		PgFee:               decimal.Zero,
		PlatformFee:         decimal.Zero,
		PayoutAmount:        decimal.Zero,
		Status:              models.SettlementStatusPending,
	}
}

func (e *engine) AggregatePeriod(ctx context.Context, db *gorm.DB, period Period) (*AggregateReport, error) {
	if err := period.Validate(); err != nil {
		return nil, apperrors.ValidationError(map[string]string{"period": err.Error()})
	}

	sellers, err := e.purchaseRepo.FindSellersWithUnsettled(db, period.Start, period.End)
	if err != nil {
		return nil, apperrors.ProcessingError(err)
	}

	report := &AggregateReport{Period: period, Sellers: len(sellers)}
	for _, sellerID := range sellers {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
		settlement, err := e.Aggregate(ctx, db, sellerID, period)
		if err != nil {
			report.Failed++
			logger.CtxWithError(ctx, "seller settlement failed", err, "seller_id", sellerID, "period", period.String())
			continue
		}
		if settlement != nil {
			report.Settlements = append(report.Settlements, settlement.ID)
			report.Items += settlement.ItemCount
		}
	}
	return report, nil
}

// Approve pays the seller out. A declined or failed payout leaves the
// settlement ON_HOLD with the reason, from where it can be approved again.
func (e *engine) Approve(ctx context.Context, db *gorm.DB, settlementID, adminID string) (*models.Settlement, error) {
	settlement, err := e.load(db, settlementID)
	if err != nil {
		return nil, err
	}
	if !settlement.Status.Approvable() {
		return nil, apperrors.ErrInvalidStatus("settlement", settlement.Status, models.SettlementStatusPending)
	}

	settlement.Status = models.SettlementStatusProcessing
	settlement.ApprovedBy = lo.ToPtr(adminID)
	settlement.HoldReason = ""
	if err := e.settlementRepo.UpdateWithVersion(db, settlement); err != nil {
		return nil, settlementError(err)
	}

	if !settlement.PayoutAmount.IsPositive() {
		return e.complete(ctx, db, settlement, "")
	}

	result, err := e.gateway.RequestPayout(ctx, gateway.PayoutRequest{
		SettlementID: settlement.ID,
		SellerID:     settlement.SellerID,
		Amount:       settlement.PayoutAmount,
	})
	switch {
	case err != nil:
		if herr := e.hold(db, settlement, "payout request failed: "+err.Error()); herr != nil {
			return nil, herr
		}
		return nil, apperrors.ErrGatewayPayout(err, "", "Payout request failed")
	case !result.Success:
		if herr := e.hold(db, settlement, failureReason(result)); herr != nil {
			return nil, herr
		}
		return nil, apperrors.ErrGatewayPayout(nil, result.ErrorCode, "Payout was declined")
	}

	return e.complete(ctx, db, settlement, result.PayoutTransactionID)
}

func (e *engine) complete(ctx context.Context, db *gorm.DB, settlement *models.Settlement, payoutTxID string) (*models.Settlement, error) {
	settlement.Status = models.SettlementStatusCompleted
	settlement.PayoutTransactionID = payoutTxID
	settlement.CompletedAt = lo.ToPtr(time.Now().UTC())
	if err := e.settlementRepo.UpdateWithVersion(db, settlement); err != nil {
		// the payout went out; the row must be fixed by hand
		logger.CtxWithError(ctx, "payout succeeded but settlement update failed", err,
			"settlement_id", settlement.ID, "payout_transaction_id", payoutTxID)
		return nil, settlementError(err)
	}
	logger.CtxInfo(ctx, "settlement completed", "settlement_id", settlement.ID, "payout_transaction_id", payoutTxID)
	return settlement, nil
}

func (e *engine) hold(db *gorm.DB, settlement *models.Settlement, reason string) error {
	settlement.Status = models.SettlementStatusOnHold
	settlement.HoldReason = reason
	if err := e.settlementRepo.UpdateWithVersion(db, settlement); err != nil {
		return settlementError(err)
	}
	return nil
}

func (e *engine) Cancel(ctx context.Context, db *gorm.DB, settlementID, reason string) (*models.Settlement, error) {
	settlement, err := e.load(db, settlementID)
	if err != nil {
		return nil, err
	}
	if !settlement.Status.Approvable() {
		return nil, apperrors.ErrInvalidStatus("settlement", settlement.Status, models.SettlementStatusPending)
	}

	settlement.Status = models.SettlementStatusCancelled
	settlement.HoldReason = reason
	if err := e.settlementRepo.UpdateWithVersion(db, settlement); err != nil {
		return nil, settlementError(err)
	}
	logger.CtxInfo(ctx, "settlement cancelled", "settlement_id", settlement.ID, "reason", reason)
	return settlement, nil
}

func (e *engine) Get(db *gorm.DB, settlementID string) (*models.Settlement, error) {
	settlement, err := e.load(db, settlementID)
	if err != nil {
		return nil, err
	}
	items, err := e.settlementRepo.FindItems(db, settlement.ID)
	if err != nil {
		return nil, apperrors.ProcessingError(err)
	}
	settlement.Items = items
	return settlement, nil
}

func (e *engine) List(db *gorm.DB, filter repositories.SettlementFilter) ([]models.Settlement, int64, error) {
	settlements, total, err := e.settlementRepo.List(db, filter)
	if err != nil {
		return nil, 0, apperrors.ProcessingError(err)
	}
	return settlements, total, nil
}

func (e *engine) load(db *gorm.DB, settlementID string) (*models.Settlement, error) {
	settlement, err := e.settlementRepo.FindByID(db, settlementID)
	if err != nil {
		return nil, settlementError(err)
	}
	return settlement, nil
}

func settlementError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrSettlementNotFound):
		return apperrors.ErrSettlementNotFound.WithError(err)
	case errors.Is(err, repositories.ErrVersionConflict), repositories.IsDuplicate(err):
		return apperrors.ErrConflict(err, "settlement", "Settlement was modified concurrently")
	default:
		return apperrors.ProcessingError(err)
	}
}

func failureReason(result *gateway.PayoutResult) string {
	switch {
	case result.ErrorCode == "":
		return result.ErrorMessage
	case result.ErrorMessage == "":
		return result.ErrorCode
	default:
		return result.ErrorCode + ": " + result.ErrorMessage
	}
}
