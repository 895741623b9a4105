package payment_test

import (
	"errors"
	"time"

	"contentpay_backend/internal/events"
	"contentpay_backend/internal/gateway"
	"contentpay_backend/internal/models"
	"contentpay_backend/internal/services/payment"
	"contentpay_backend/internal/testutil"

	"github.com/stretchr/testify/mock"
)

func (s *paymentSuite) reconciler() *payment.Reconciler {
	return payment.NewReconciler(s.gw, s.txService, s.orders, s.publisher)
}

func (s *paymentSuite) TestReconcile_GatewayPaidCompletesOrder() {
	order := testutil.CreateOrder(s.T(), s.db)
	s.gw.On("FindPayment", mock.Anything, order.MerchantUid).Return(approval(order.MerchantUid, 29900), nil).Once()

	outcome, err := s.reconciler().ReconcileOrder(s.ctx, s.db, order.MerchantUid, false)
	s.Require().NoError(err)
	s.Equal(payment.OutcomeCompleted, outcome)
	s.Equal(models.OrderStatusPaid, s.reload(order).Status)
	s.EqualValues(1, s.purchaseCount())

	published := s.publisher.Events()
	s.Require().Len(published, 1)
	s.IsType(events.PaymentCompleted{}, published[0])
}

func (s *paymentSuite) TestReconcile_AmountMismatchLeavesOrder() {
	order := testutil.CreateOrder(s.T(), s.db)
	s.gw.On("FindPayment", mock.Anything, order.MerchantUid).Return(approval(order.MerchantUid, 100), nil).Once()

	outcome, err := s.reconciler().ReconcileOrder(s.ctx, s.db, order.MerchantUid, true)
	s.Require().NoError(err)
	s.Equal(payment.OutcomeMismatch, outcome)
	s.Equal(models.OrderStatusPending, s.reload(order).Status)
	s.Zero(s.purchaseCount())
}

func (s *paymentSuite) TestReconcile_UnpaidOnlyExpiresWhenAsked() {
	order := testutil.CreateOrder(s.T(), s.db)
	ready := &gateway.ApprovalResult{Status: gateway.PaymentStatusReady}
	s.gw.On("FindPayment", mock.Anything, order.MerchantUid).Return(ready, nil).Twice()

	outcome, err := s.reconciler().ReconcileOrder(s.ctx, s.db, order.MerchantUid, false)
	s.Require().NoError(err)
	s.Equal(payment.OutcomeUnchanged, outcome)
	s.Equal(models.OrderStatusPending, s.reload(order).Status)

	outcome, err = s.reconciler().ReconcileOrder(s.ctx, s.db, order.MerchantUid, true)
	s.Require().NoError(err)
	s.Equal(payment.OutcomeFailed, outcome)
	s.Equal(models.OrderStatusFailed, s.reload(order).Status)
}

func (s *paymentSuite) TestReconcile_SkipsSettledOrders() {
	order := testutil.CreateOrder(s.T(), s.db, testutil.WithStatus(models.OrderStatusPaid))

	outcome, err := s.reconciler().ReconcileOrder(s.ctx, s.db, order.MerchantUid, true)
	s.Require().NoError(err)
	s.Equal(payment.OutcomeUnchanged, outcome)
}

func (s *paymentSuite) TestReconcileStale() {
	old := time.Now().UTC().Add(-2 * time.Hour)
	paid := testutil.CreateOrder(s.T(), s.db, testutil.WithCreatedAt(old))
	failed := testutil.CreateOrder(s.T(), s.db, testutil.WithCreatedAt(old))
	broken := testutil.CreateOrder(s.T(), s.db, testutil.WithCreatedAt(old))
	testutil.CreateOrder(s.T(), s.db)

	s.gw.On("FindPayment", mock.Anything, paid.MerchantUid).Return(approval(paid.MerchantUid, 29900), nil).Once()
	s.gw.On("FindPayment", mock.Anything, failed.MerchantUid).
		Return(&gateway.ApprovalResult{Status: gateway.PaymentStatusFailed, ErrorMessage: "timeout"}, nil).Once()
	s.gw.On("FindPayment", mock.Anything, broken.MerchantUid).Return(nil, errors.New("unreachable")).Once()

	report, err := s.reconciler().ReconcileStale(s.ctx, s.db, 30*time.Minute, 10)
	s.Require().NoError(err)
	s.Equal(&payment.ReconcileReport{Checked: 3, Completed: 1, Failed: 1, Errors: 1}, report)

	s.Equal(models.OrderStatusPaid, s.reload(paid).Status)
	s.Equal(models.OrderStatusFailed, s.reload(failed).Status)
	s.Equal(models.OrderStatusPending, s.reload(broken).Status)
}
