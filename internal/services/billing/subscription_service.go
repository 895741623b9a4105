package billing

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
	"contentpay_backend/internal/services/payment"
	"contentpay_backend/pkg/apperrors"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type BillingKeyAction string

const (
	ActionReuse             BillingKeyAction = "REUSE"
	ActionRegister          BillingKeyAction = "REGISTER"
	ActionRegisterAndCharge BillingKeyAction = "REGISTER_AND_CHARGE"
)

const (
	DefaultMaxFailures = 3
	// retryDelay pushes a failed renewal to the next day.
	retryDelay = 24 * time.Hour
	// renewalLease hides a claimed subscription from other runs while it is charged.
	renewalLease = time.Hour
)

var errRenewalClaimed = errors.New("renewal already claimed by another run")

// SubscribeRequest starts or resumes a subscription. With MerchantUid set the
// PENDING order of an earlier attempt is charged again with its metadata.
type SubscribeRequest struct {
	Action      BillingKeyAction `json:"action" validate:"required,oneof=REUSE REGISTER REGISTER_AND_CHARGE"`
	AuthKey     string           `json:"auth_key" validate:"required_unless=Action REUSE"`
	CustomerKey string           `json:"customer_key"`
	MerchantUid string           `json:"merchant_uid"`

	ContentID    string          `json:"content_id" validate:"required_without=MerchantUid"`
	ContentTitle string          `json:"content_title"`
	ContentType  string          `json:"content_type" validate:"omitempty,oneof=COACHING DOCUMENT"`
	OptionID     string          `json:"option_id"`
	OptionName   string          `json:"option_name"`
	SellerID     string          `json:"seller_id" validate:"required_without=MerchantUid"`
	Price        decimal.Decimal `json:"price"`

	BuyerName  string `json:"buyer_name"`
	BuyerPhone string `json:"buyer_phone"`
	BuyerEmail string `json:"buyer_email" validate:"omitempty,email"`
}

type SubscribeResult struct {
	BillingKey   *models.BillingKey
	Subscription *models.Subscription
	Order        *models.Order
	Completion   *payment.PaymentCompletion
}

// RenewalReport counts outcomes of one ChargeDue run.
type RenewalReport struct {
	Due     int
	Charged int
	Failed  int
	PastDue int
	// Skipped counts subscriptions another run claimed first.
	Skipped int
}

type SubscriptionService interface {
	Subscribe(ctx context.Context, db *gorm.DB, memberID string, req SubscribeRequest) (*SubscribeResult, error)
	ChargeDue(ctx context.Context, db *gorm.DB, now time.Time, limit int) (*RenewalReport, error)
	CancelSubscription(ctx context.Context, db *gorm.DB, memberID, subscriptionID string) (*models.Subscription, error)
}

type subscriptionService struct {
	gateway          gateway.Client
	txService        payment.TransactionService
	orderService     payment.OrderService
	orderRepo        repositories.OrderRepository
	subscriptionRepo repositories.SubscriptionRepository
	keyRepo          repositories.BillingKeyRepository
	keyService       BillingKeyService
	publisher        events.Publisher
	maxFailures      int
}

func NewSubscriptionService(
	gw gateway.Client,
	txService payment.TransactionService,
	orderService payment.OrderService,
	orderRepo repositories.OrderRepository,
	subscriptionRepo repositories.SubscriptionRepository,
	keyRepo repositories.BillingKeyRepository,
	keyService BillingKeyService,
	publisher events.Publisher,
	maxFailures int,
) SubscriptionService {
	if maxFailures < 1 {
		maxFailures = DefaultMaxFailures
	}
	return &subscriptionService{
		gateway:          gw,
		txService:        txService,
		orderService:     orderService,
		orderRepo:        orderRepo,
		subscriptionRepo: subscriptionRepo,
		keyRepo:          keyRepo,
		keyService:       keyService,
		publisher:        publisher,
		maxFailures:      maxFailures,
	}
}

// chargeMeta is the subscription state one charge applies on success.
type chargeMeta struct {
	subscription    *models.Subscription
	isNew           bool
	round           int
	nextBillingDate time.Time
}

func (s *subscriptionService) Subscribe(ctx context.Context, db *gorm.DB, memberID string, req SubscribeRequest) (*SubscribeResult, error) {
	if memberID == "" {
		return nil, apperrors.ErrAuthenticationRequired
	}

	result := &SubscribeResult{}
	switch req.Action {
	case ActionRegister, ActionRegisterAndCharge:
		key, err := s.keyService.Register(ctx, db, memberID, RegisterBillingKeyRequest{
			AuthKey:     req.AuthKey,
			CustomerKey: req.CustomerKey,
		})
		if err != nil {
			return nil, err
		}
		result.BillingKey = key
		if req.Action == ActionRegister {
			return result, nil
		}
	case ActionReuse:
		key, err := s.keyService.Active(db, memberID)
		if err != nil {
			return nil, err
		}
		result.BillingKey = key
	default:
		return nil, apperrors.ValidationError(map[string]string{"action": fmt.Sprintf("unknown billing key action %q", req.Action)})
	}

	order, meta, err := s.resolve(db, memberID, req)
	if err != nil {
		return nil, err
	}
	meta.subscription.BillingKeyID = result.BillingKey.ID

	completion, err := s.charge(ctx, db, result.BillingKey, order, meta)
	if err != nil {
		return nil, err
	}

	result.Order = order
	result.Subscription = meta.subscription
	result.Completion = completion
	return result, nil
}

// resolve returns the order to charge and the subscription metadata to apply.
func (s *subscriptionService) resolve(db *gorm.DB, memberID string, req SubscribeRequest) (*models.Order, *chargeMeta, error) {
	if req.MerchantUid != "" {
		return s.resolveExisting(db, memberID, req.MerchantUid)
	}

	contentType := models.ContentTypeCoaching
	if req.ContentType != "" {
		ct, err := models.ToContentType(req.ContentType)
		if err != nil {
			return nil, nil, apperrors.ValidationError(map[string]string{"content_type": err.Error()})
		}
		contentType = ct
	}
	if !req.Price.IsPositive() {
		return nil, nil, apperrors.ValidationError(map[string]string{"price": "must be positive"})
	}

	now := time.Now().UTC()
	meta := &chargeMeta{}
	existing, err := s.subscriptionRepo.FindActiveByMemberAndContent(db, memberID, req.ContentID, req.OptionID)
	switch {
	case err == nil:
		base := now
		if existing.NextBillingDate.After(now) {
			base = existing.NextBillingDate
		}
		meta.subscription = existing
		meta.round = existing.Round + 1
		meta.nextBillingDate = base.AddDate(0, 1, 0)
	case errors.Is(err, repositories.ErrSubscriptionNotFound):
		meta.isNew = true
		meta.subscription = &models.Subscription{
			BaseModel:    models.BaseModel{ID: uuid.NewString()},
			MemberID:     memberID,
			ContentID:    req.ContentID,
			ContentTitle: req.ContentTitle,
			ContentType:  contentType,
			OptionID:     req.OptionID,
			OptionName:   req.OptionName,
			SellerID:     req.SellerID,
			Price:        req.Price,
			Status:       models.SubscriptionStatusActive,
		}
		meta.round = 1
		meta.nextBillingDate = now.AddDate(0, 1, 0)
	default:
		return nil, nil, apperrors.ProcessingError(err)
	}

	order := s.newOrder(meta)
	order.BuyerName = req.BuyerName
	order.BuyerPhone = req.BuyerPhone
	order.BuyerEmail = req.BuyerEmail
	if err := s.orderService.Place(db, order); err != nil {
		return nil, nil, err
	}
	return order, meta, nil
}

func (s *subscriptionService) resolveExisting(db *gorm.DB, memberID, merchantUid string) (*models.Order, *chargeMeta, error) {
	order, err := s.orderService.GetOrder(db, payment.Identity{MemberID: memberID}, merchantUid)
	if err != nil {
		return nil, nil, err
	}
	if err := payment.ValidateStatus(order, models.OrderStatusPending); err != nil {
		return nil, nil, err
	}
	if !order.IsSubscription() || order.NextBillingDate == nil {
		return nil, nil, apperrors.ValidationError(map[string]string{"merchant_uid": "order carries no subscription metadata"})
	}

	meta := &chargeMeta{round: order.SubscriptionRound, nextBillingDate: *order.NextBillingDate}
	sub, err := s.subscriptionRepo.FindByID(db, *order.SubscriptionID)
	switch {
	case err == nil:
		meta.subscription = sub
	case errors.Is(err, repositories.ErrSubscriptionNotFound):
		// first round of a subscription whose initial charge never completed
		meta.isNew = true
		meta.subscription = &models.Subscription{
			BaseModel:    models.BaseModel{ID: *order.SubscriptionID},
			MemberID:     memberID,
			ContentID:    order.ContentID,
			ContentTitle: order.ContentTitle,
			ContentType:  order.ContentType,
			OptionID:     order.OptionID,
			OptionName:   order.OptionName,
			SellerID:     order.SellerID,
			Price:        order.FinalAmount,
			Status:       models.SubscriptionStatusActive,
		}
	default:
		return nil, nil, apperrors.ProcessingError(err)
	}
	return order, meta, nil
}

func (s *subscriptionService) newOrder(meta *chargeMeta) *models.Order {
	sub := meta.subscription
	return &models.Order{
		MemberID:             lo.ToPtr(sub.MemberID),
		ContentID:            sub.ContentID,
		ContentTitle:         sub.ContentTitle,
		ContentType:          sub.ContentType,
		OptionID:             sub.OptionID,
		OptionName:           sub.OptionName,
		SellerID:             sub.SellerID,
		OriginalAmount:       sub.Price,
		DiscountAmount:       decimal.Zero,
		CouponDiscountAmount: decimal.Zero,
		FinalAmount:          sub.Price,
		SubscriptionID:       lo.ToPtr(sub.ID),
		SubscriptionRound:    meta.round,
		NextBillingDate:      lo.ToPtr(meta.nextBillingDate),
	}
}

// charge bills the key for order and, in the same transaction that marks the
// order PAID, advances the subscription to the charged round.
func (s *subscriptionService) charge(ctx context.Context, db *gorm.DB, key *models.BillingKey, order *models.Order, meta *chargeMeta) (*payment.PaymentCompletion, error) {
	ctx = logger.WithMerchantUid(ctx, order.MerchantUid)
	start := time.Now()

	approval, err := s.gateway.ChargeBillingKey(ctx, gateway.BillingChargeRequest{
		BillingKey:  key.BillingKey,
		CustomerKey: key.CustomerKey,
		MerchantUid: order.MerchantUid,
		OrderName:   order.ContentTitle,
		Amount:      order.FinalAmount,
		Buyer: gateway.Buyer{
			Name:  order.BuyerName,
			Phone: order.BuyerPhone,
			Email: order.BuyerEmail,
		},
	})
	if err != nil {
		err = apperrors.ErrGatewayAPI(err, "", "Recurring charge request failed")
		logger.CommandLog("subscription_charge", "billing_key", order.MerchantUid, time.Since(start), err)
		return nil, err
	}
	if !approval.Success {
		if ferr := s.txService.RecordFailure(db, order, approval.ErrorCode, approval.ErrorMessage); ferr != nil {
			logger.CtxWithError(ctx, "failed to record declined recurring charge", ferr)
		}
		err = apperrors.ErrGatewayAPI(nil, approval.ErrorCode, "Recurring charge was declined")
		logger.CommandLog("subscription_charge", "billing_key", order.MerchantUid, time.Since(start), err)
		return nil, err
	}

	sub := meta.subscription
	advance := func(tx *gorm.DB, c *payment.PaymentCompletion) error {
		sub.BillingKeyID = key.ID
		sub.Round = meta.round
		sub.NextBillingDate = meta.nextBillingDate
		sub.LastOrderID = lo.ToPtr(c.OrderID)
		sub.Status = models.SubscriptionStatusActive
		sub.FailureCount = 0
		sub.CancelledAt = nil
		if meta.isNew {
			return s.subscriptionRepo.Create(tx, sub)
		}
		return s.subscriptionRepo.Update(tx, sub)
	}

	completion, err := s.txService.CompletePayment(db, payment.CompleteInput{
		Order:    order,
		Approval: approval,
		Identity: payment.Identity{MemberID: lo.FromPtr(order.MemberID)},
		Hooks:    []payment.TxHook{advance},
	})
	logger.CommandLog("subscription_charge", "billing_key", order.MerchantUid, time.Since(start), err)
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(ctx, payment.CompletedEvent(completion))
	return completion, nil
}

func (s *subscriptionService) ChargeDue(ctx context.Context, db *gorm.DB, now time.Time, limit int) (*RenewalReport, error) {
	due, err := s.subscriptionRepo.FindDue(db, now, limit)
	if err != nil {
		return nil, fmt.Errorf("charge due: %w", err)
	}

	report := &RenewalReport{Due: len(due)}
	for i := range due {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
		sub := &due[i]
		if err := s.renew(ctx, db, sub, now); err != nil {
			if errors.Is(err, errRenewalClaimed) {
				report.Skipped++
				logger.CtxInfo(ctx, "subscription renewal skipped", "subscription_id", sub.ID, "reason", err.Error())
				continue
			}
			report.Failed++
			logger.CtxWithError(ctx, "subscription renewal failed", err, "subscription_id", sub.ID, "failure_count", sub.FailureCount)
			if sub.Status == models.SubscriptionStatusPastDue {
				report.PastDue++
			}
			continue
		}
		report.Charged++
	}
	return report, nil
}

func (s *subscriptionService) renew(ctx context.Context, db *gorm.DB, sub *models.Subscription, now time.Time) error {
	next := sub.NextBillingDate.AddDate(0, 1, 0)
	if !next.After(now) {
		next = now.AddDate(0, 1, 0)
	}
	meta := &chargeMeta{subscription: sub, round: sub.Round + 1, nextBillingDate: next}

	if err := s.subscriptionRepo.ClaimRenewal(db, sub, now.Add(renewalLease)); err != nil {
		if errors.Is(err, repositories.ErrVersionConflict) {
			return errRenewalClaimed
		}
		return apperrors.ProcessingError(err)
	}

	chargeErr := func() error {
		key, err := s.renewalKey(db, sub)
		if err != nil {
			return err
		}
		order := s.newOrder(meta)
		if err := s.orderService.Place(db, order); err != nil {
			return err
		}
		_, err = s.charge(ctx, db, key, order, meta)
		return err
	}()
	if chargeErr == nil {
		return nil
	}

	// reload so a partially applied hook never leaks into the failure update
	current, err := s.subscriptionRepo.FindByID(db, sub.ID)
	if err != nil {
		return errors.Join(chargeErr, err)
	}
	current.FailureCount++
	current.NextBillingDate = now.Add(retryDelay)
	if current.FailureCount >= s.maxFailures {
		current.Status = models.SubscriptionStatusPastDue
	}
	if err := s.subscriptionRepo.Update(db, current); err != nil {
		return errors.Join(chargeErr, err)
	}
	*sub = *current
	return chargeErr
}

// renewalKey prefers the key the subscription was created with and falls back
// to the member's current ACTIVE key.
func (s *subscriptionService) renewalKey(db *gorm.DB, sub *models.Subscription) (*models.BillingKey, error) {
	key, err := s.keyRepo.FindByID(db, sub.BillingKeyID)
	if err == nil && key.IsActive() {
		return key, nil
	}
	if err != nil && !errors.Is(err, repositories.ErrBillingKeyNotFound) {
		return nil, apperrors.ProcessingError(err)
	}
	return s.keyService.Active(db, sub.MemberID)
}

func (s *subscriptionService) CancelSubscription(ctx context.Context, db *gorm.DB, memberID, subscriptionID string) (*models.Subscription, error) {
	sub, err := s.subscriptionRepo.FindByID(db, subscriptionID)
	if err != nil {
		if errors.Is(err, repositories.ErrSubscriptionNotFound) {
			return nil, apperrors.ErrSubscriptionNotFound.WithError(err)
		}
		return nil, apperrors.ProcessingError(err)
	}
	if sub.MemberID != memberID {
		return nil, apperrors.ErrUnauthorized("subscription", "Subscription does not belong to the requester")
	}
	if !sub.IsRenewable() {
		return nil, apperrors.ErrInvalidStatus("subscription", sub.Status, models.SubscriptionStatusActive)
	}

	sub.Status = models.SubscriptionStatusCancelled
	sub.CancelledAt = lo.ToPtr(time.Now().UTC())
	if err := s.subscriptionRepo.Update(db, sub); err != nil {
		if errors.Is(err, repositories.ErrVersionConflict) {
			return nil, apperrors.ErrConflict(err, "subscription", "Subscription changed concurrently")
		}
		return nil, apperrors.ProcessingError(err)
	}
	logger.CtxInfo(ctx, "subscription cancelled", "subscription_id", sub.ID, "member_id", memberID)
	return sub, nil
}
