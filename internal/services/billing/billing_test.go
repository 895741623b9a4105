package billing_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"contentpay_backend/internal/gateway"
	"contentpay_backend/internal/gateway/gatewaytest"
	"contentpay_backend/internal/models"
	"contentpay_backend/internal/repositories"
	"contentpay_backend/internal/services/billing"
	"contentpay_backend/internal/services/payment"
	"contentpay_backend/internal/testutil"
	"contentpay_backend/pkg/apperrors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

type billingSuite struct {
	suite.Suite
	ctx      context.Context
	db       *gorm.DB
	memberID string

	gw            *gatewaytest.MockClient
	publisher     *testutil.RecordingPublisher
	orders        repositories.OrderRepository
	keys          repositories.BillingKeyRepository
	subscriptions repositories.SubscriptionRepository
	keyService    billing.BillingKeyService
	service       billing.SubscriptionService
}

func TestBillingSuite(t *testing.T) {
	suite.Run(t, new(billingSuite))
}

func (s *billingSuite) SetupTest() {
	s.ctx = context.Background()
	s.db = testutil.NewDB(s.T())
	s.memberID = uuid.NewString()
	s.gw = new(gatewaytest.MockClient)
	s.publisher = &testutil.RecordingPublisher{}

	s.orders = repositories.NewOrderRepository()
	s.keys = repositories.NewBillingKeyRepository()
	s.subscriptions = repositories.NewSubscriptionRepository()
	records := repositories.NewPaymentRecordRepository()
	purchases := repositories.NewPurchaseRepository()

	txService := payment.NewTransactionService(s.orders, records, purchases)
	s.keyService = billing.NewBillingKeyService(s.gw, s.keys)
	s.service = billing.NewSubscriptionService(
		s.gw, txService, payment.NewOrderService(s.orders), s.orders,
		s.subscriptions, s.keys, s.keyService, s.publisher, 3,
	)
}

func (s *billingSuite) TearDownTest() {
	s.gw.AssertExpectations(s.T())
}

func (s *billingSuite) expectIssue(billingKey string) {
	s.gw.On("IssueBillingKey", mock.Anything, mock.Anything).Return(&gateway.BillingKeyResult{
		Success:     true,
		BillingKey:  billingKey,
		CustomerKey: s.memberID,
		CardCompany: "Shinhan",
		CardNumber:  "4330-****-****-1234",
	}, nil).Once()
}

func charged(req gateway.BillingChargeRequest) *gateway.ApprovalResult {
	return &gateway.ApprovalResult{
		Success:         true,
		Status:          gateway.PaymentStatusPaid,
		MerchantUid:     req.MerchantUid,
		PgTransactionID: "pg-" + req.MerchantUid,
		PayMethod:       "BILLING",
		TotalAmount:     req.Amount,
	}
}

func (s *billingSuite) expectCharges(n int) {
	call := s.gw.On("ChargeBillingKey", mock.Anything, mock.Anything)
	call.RunFn = func(args mock.Arguments) {
		call.ReturnArguments = mock.Arguments{charged(args.Get(1).(gateway.BillingChargeRequest)), nil}
	}
	call.Times(n)
}

func (s *billingSuite) subscribeRequest(action billing.BillingKeyAction) billing.SubscribeRequest {
	return billing.SubscribeRequest{
		Action:       action,
		AuthKey:      "auth-key",
		ContentID:    "content-1",
		ContentTitle: "Weekly coaching",
		ContentType:  string(models.ContentTypeCoaching),
		OptionID:     "monthly",
		SellerID:     "seller-1",
		Price:        decimal.NewFromInt(9900),
		BuyerEmail:   "buyer@example.com",
	}
}

func (s *billingSuite) TestRegister_DeactivatesPreviousKey() {
	s.expectIssue("bk-1")
	first, err := s.keyService.Register(s.ctx, s.db, s.memberID, billing.RegisterBillingKeyRequest{AuthKey: "a1"})
	s.Require().NoError(err)

	s.expectIssue("bk-2")
	second, err := s.keyService.Register(s.ctx, s.db, s.memberID, billing.RegisterBillingKeyRequest{AuthKey: "a2"})
	s.Require().NoError(err)

	active, err := s.keyService.Active(s.db, s.memberID)
	s.Require().NoError(err)
	s.Equal(second.ID, active.ID)

	old, err := s.keys.FindByID(s.db, first.ID)
	s.Require().NoError(err)
	s.Equal(models.BillingKeyStatusInactive, old.Status)
	s.NotNil(old.DeactivatedAt)
}

func (s *billingSuite) TestRegister_Declined() {
	s.gw.On("IssueBillingKey", mock.Anything, mock.Anything).
		Return(&gateway.BillingKeyResult{ErrorCode: "INVALID_CARD"}, nil).Once()

	_, err := s.keyService.Register(s.ctx, s.db, s.memberID, billing.RegisterBillingKeyRequest{AuthKey: "a1"})
	s.True(apperrors.HasCode(err, apperrors.CodeGatewayAPIError))

	_, err = s.keyService.Active(s.db, s.memberID)
	s.ErrorIs(err, apperrors.ErrBillingKeyNotFound)
}

func (s *billingSuite) TestDelete() {
	s.expectIssue("bk-1")
	key, err := s.keyService.Register(s.ctx, s.db, s.memberID, billing.RegisterBillingKeyRequest{AuthKey: "a1"})
	s.Require().NoError(err)

	err = s.keyService.Delete(s.ctx, s.db, uuid.NewString(), key.ID)
	s.True(apperrors.HasCode(err, apperrors.CodeUnauthorized))

	s.gw.On("DeleteBillingKey", mock.Anything, "bk-1").Return(nil).Once()
	s.Require().NoError(s.keyService.Delete(s.ctx, s.db, s.memberID, key.ID))

	_, err = s.keyService.Active(s.db, s.memberID)
	s.ErrorIs(err, apperrors.ErrBillingKeyNotFound)
}

func (s *billingSuite) TestSubscribe_RegisterOnlyDoesNotCharge() {
	s.expectIssue("bk-1")
	result, err := s.service.Subscribe(s.ctx, s.db, s.memberID, s.subscribeRequest(billing.ActionRegister))
	s.Require().NoError(err)
	s.NotNil(result.BillingKey)
	s.Nil(result.Order)
	s.gw.AssertNotCalled(s.T(), "ChargeBillingKey", mock.Anything, mock.Anything)
}

func (s *billingSuite) TestSubscribe_RegisterAndChargeThenReuse() {
	s.expectIssue("bk-1")
	s.expectCharges(2)

	first, err := s.service.Subscribe(s.ctx, s.db, s.memberID, s.subscribeRequest(billing.ActionRegisterAndCharge))
	s.Require().NoError(err)
	s.Equal(models.OrderStatusPaid, first.Order.Status)
	s.Equal(1, first.Order.SubscriptionRound)
	s.Equal(1, first.Subscription.Round)
	s.Equal(first.BillingKey.ID, first.Subscription.BillingKeyID)
	s.WithinDuration(time.Now().UTC().AddDate(0, 1, 0), first.Subscription.NextBillingDate, time.Minute)

	second, err := s.service.Subscribe(s.ctx, s.db, s.memberID, s.subscribeRequest(billing.ActionReuse))
	s.Require().NoError(err)
	s.Equal(first.Subscription.ID, second.Subscription.ID)
	s.Equal(2, second.Order.SubscriptionRound)
	s.NotEqual(first.Order.ID, second.Order.ID)

	stored, err := s.subscriptions.FindByID(s.db, first.Subscription.ID)
	s.Require().NoError(err)
	s.Equal(2, stored.Round)
	s.Equal(second.Order.ID, *stored.LastOrderID)
	s.WithinDuration(time.Now().UTC().AddDate(0, 2, 0), stored.NextBillingDate, time.Minute)

	var purchases int64
	s.Require().NoError(s.db.Model(&models.Purchase{}).Count(&purchases).Error)
	s.EqualValues(2, purchases)
	s.Len(s.publisher.Events(), 2)
}

func (s *billingSuite) TestSubscribe_ReuseWithoutKey() {
	_, err := s.service.Subscribe(s.ctx, s.db, s.memberID, s.subscribeRequest(billing.ActionReuse))
	s.ErrorIs(err, apperrors.ErrBillingKeyNotFound)
}

func (s *billingSuite) TestSubscribe_RetryPendingOrderByMerchantUid() {
	s.expectIssue("bk-1")
	s.gw.On("ChargeBillingKey", mock.Anything, mock.Anything).Return(nil, errors.New("timeout")).Once()

	_, err := s.service.Subscribe(s.ctx, s.db, s.memberID, s.subscribeRequest(billing.ActionRegisterAndCharge))
	s.True(apperrors.HasCode(err, apperrors.CodeGatewayAPIError))

	pending, err := s.orders.FindByMember(s.db, s.memberID, 10)
	s.Require().NoError(err)
	s.Require().Len(pending, 1)
	s.Equal(models.OrderStatusPending, pending[0].Status)
	s.Require().NotNil(pending[0].SubscriptionID)

	s.expectCharges(1)
	req := billing.SubscribeRequest{Action: billing.ActionReuse, MerchantUid: pending[0].MerchantUid}
	result, err := s.service.Subscribe(s.ctx, s.db, s.memberID, req)
	s.Require().NoError(err)
	s.Equal(pending[0].ID, result.Order.ID)
	s.Equal(*pending[0].SubscriptionID, result.Subscription.ID)
	s.Equal(1, result.Subscription.Round)
}

func (s *billingSuite) dueSubscription(key *models.BillingKey, due time.Time) *models.Subscription {
	sub := &models.Subscription{
		MemberID:        s.memberID,
		ContentID:       "content-1",
		ContentTitle:    "Weekly coaching",
		ContentType:     models.ContentTypeCoaching,
		OptionID:        "monthly",
		SellerID:        "seller-1",
		BillingKeyID:    key.ID,
		Price:           decimal.NewFromInt(9900),
		Round:           1,
		NextBillingDate: due,
		Status:          models.SubscriptionStatusActive,
	}
	s.Require().NoError(s.subscriptions.Create(s.db, sub))
	return sub
}

func (s *billingSuite) TestChargeDue_Renews() {
	s.expectIssue("bk-1")
	key, err := s.keyService.Register(s.ctx, s.db, s.memberID, billing.RegisterBillingKeyRequest{AuthKey: "a1"})
	s.Require().NoError(err)

	now := time.Now().UTC()
	sub := s.dueSubscription(key, now.Add(-time.Hour))
	s.dueSubscription(key, now.Add(48*time.Hour))
	s.expectCharges(1)

	report, err := s.service.ChargeDue(s.ctx, s.db, now, 10)
	s.Require().NoError(err)
	s.Equal(&billing.RenewalReport{Due: 1, Charged: 1}, report)

	stored, err := s.subscriptions.FindByID(s.db, sub.ID)
	s.Require().NoError(err)
	s.Equal(2, stored.Round)
	s.True(stored.NextBillingDate.After(now))
}

// dueSnapshot serves a fixed due list, as a second worker that queried before
// the first one charged would see it.
type dueSnapshot struct {
	repositories.SubscriptionRepository
	due []models.Subscription
}

func (r *dueSnapshot) FindDue(_ *gorm.DB, _ time.Time, _ int) ([]models.Subscription, error) {
	return append([]models.Subscription(nil), r.due...), nil
}

func (s *billingSuite) TestChargeDue_ConcurrentRunsChargeRoundOnce() {
	s.expectIssue("bk-1")
	key, err := s.keyService.Register(s.ctx, s.db, s.memberID, billing.RegisterBillingKeyRequest{AuthKey: "a1"})
	s.Require().NoError(err)

	now := time.Now().UTC()
	sub := s.dueSubscription(key, now.Add(-time.Hour))
	due, err := s.subscriptions.FindDue(s.db, now, 10)
	s.Require().NoError(err)
	s.Require().Len(due, 1)

	records := repositories.NewPaymentRecordRepository()
	purchases := repositories.NewPurchaseRepository()
	second := billing.NewSubscriptionService(
		s.gw, payment.NewTransactionService(s.orders, records, purchases), payment.NewOrderService(s.orders), s.orders,
		&dueSnapshot{SubscriptionRepository: s.subscriptions, due: due}, s.keys, s.keyService, s.publisher, 3,
	)
	s.expectCharges(1)

	first, err := s.service.ChargeDue(s.ctx, s.db, now, 10)
	s.Require().NoError(err)
	s.Equal(1, first.Charged)

	report, err := second.ChargeDue(s.ctx, s.db, now, 10)
	s.Require().NoError(err)
	s.Equal(&billing.RenewalReport{Due: 1, Skipped: 1}, report)

	var paid int64
	s.Require().NoError(s.db.Model(&models.Order{}).
		Where("subscription_id = ? AND subscription_round = ? AND status = ?", sub.ID, 2, models.OrderStatusPaid).
		Count(&paid).Error)
	s.EqualValues(1, paid)

	stored, err := s.subscriptions.FindByID(s.db, sub.ID)
	s.Require().NoError(err)
	s.Equal(2, stored.Round)
	s.Zero(stored.FailureCount)
}

func (s *billingSuite) TestChargeDue_PastDueAfterRepeatedDeclines() {
	s.expectIssue("bk-1")
	key, err := s.keyService.Register(s.ctx, s.db, s.memberID, billing.RegisterBillingKeyRequest{AuthKey: "a1"})
	s.Require().NoError(err)

	now := time.Now().UTC()
	sub := s.dueSubscription(key, now.Add(-time.Hour))
	s.gw.On("ChargeBillingKey", mock.Anything, mock.Anything).
		Return(&gateway.ApprovalResult{ErrorCode: "INSUFFICIENT_FUNDS"}, nil).Times(3)

	for i := 0; i < 3; i++ {
		at := now.Add(time.Duration(i) * 25 * time.Hour)
		report, err := s.service.ChargeDue(s.ctx, s.db, at, 10)
		s.Require().NoError(err)
		s.Equal(1, report.Failed)
	}

	stored, err := s.subscriptions.FindByID(s.db, sub.ID)
	s.Require().NoError(err)
	s.Equal(3, stored.FailureCount)
	s.Equal(models.SubscriptionStatusPastDue, stored.Status)
	s.Equal(1, stored.Round)

	report, err := s.service.ChargeDue(s.ctx, s.db, now.Add(100*time.Hour), 10)
	s.Require().NoError(err)
	s.Zero(report.Due)
}

func (s *billingSuite) TestCancelSubscription() {
	s.expectIssue("bk-1")
	key, err := s.keyService.Register(s.ctx, s.db, s.memberID, billing.RegisterBillingKeyRequest{AuthKey: "a1"})
	s.Require().NoError(err)
	sub := s.dueSubscription(key, time.Now().UTC().Add(time.Hour))

	_, err = s.service.CancelSubscription(s.ctx, s.db, uuid.NewString(), sub.ID)
	s.True(apperrors.HasCode(err, apperrors.CodeUnauthorized))

	cancelled, err := s.service.CancelSubscription(s.ctx, s.db, s.memberID, sub.ID)
	s.Require().NoError(err)
	s.Equal(models.SubscriptionStatusCancelled, cancelled.Status)

	_, err = s.service.CancelSubscription(s.ctx, s.db, s.memberID, sub.ID)
	s.True(apperrors.HasCode(err, apperrors.CodeInvalidStatus))
}
