package payment_test

import (
	"regexp"
	"testing"

	"contentpay_backend/internal/models"
	"contentpay_backend/internal/repositories"
	"contentpay_backend/internal/services/payment"
	"contentpay_backend/internal/testutil"
	"contentpay_backend/pkg/apperrors"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var merchantUidPattern = regexp.MustCompile(`^ORDER-\d{8}-\d{6}-[A-Z0-9]{6}$`)

func newOrderRequest() *payment.CreateOrderRequest {
	return &payment.CreateOrderRequest{
		ContentID:            uuid.NewString(),
		ContentTitle:         gofakeit.BookTitle(),
		ContentType:          string(models.ContentTypeDocument),
		SellerID:             uuid.NewString(),
		BuyerName:            gofakeit.Name(),
		BuyerEmail:           gofakeit.Email(),
		OriginalAmount:       decimal.NewFromInt(35000),
		DiscountAmount:       decimal.NewFromInt(3000),
		CouponDiscountAmount: decimal.NewFromInt(2100),
	}
}

func TestOrderService_CreateOrder(t *testing.T) {
	db := testutil.NewDB(t)
	svc := payment.NewOrderService(repositories.NewOrderRepository())
	id := payment.Identity{MemberID: uuid.NewString()}

	order, err := svc.CreateOrder(db, id, newOrderRequest())
	require.NoError(t, err)
	assert.Regexp(t, merchantUidPattern, order.MerchantUid)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.True(t, order.FinalAmount.Equal(decimal.NewFromInt(29900)))
	assert.Nil(t, order.GuestID)

	found, err := svc.GetOrder(db, id, order.MerchantUid)
	require.NoError(t, err)
	assert.Equal(t, order.ID, found.ID)

	_, err = svc.GetOrder(db, payment.Identity{MemberID: uuid.NewString()}, order.MerchantUid)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))
}

func TestOrderService_CreateOrder_Rejects(t *testing.T) {
	db := testutil.NewDB(t)
	svc := payment.NewOrderService(repositories.NewOrderRepository())
	guest := payment.Identity{GuestID: uuid.NewString()}

	tests := []struct {
		name     string
		id       payment.Identity
		mutate   func(r *payment.CreateOrderRequest)
		wantCode apperrors.ErrorCode
	}{
		{
			name:     "no identity",
			mutate:   func(*payment.CreateOrderRequest) {},
			wantCode: apperrors.CodeAuthenticationRequired,
		},
		{
			name:     "discount above price",
			id:       guest,
			mutate:   func(r *payment.CreateOrderRequest) { r.DiscountAmount = decimal.NewFromInt(40000) },
			wantCode: apperrors.CodeValidationFailed,
		},
		{
			name:     "negative coupon",
			id:       guest,
			mutate:   func(r *payment.CreateOrderRequest) { r.CouponDiscountAmount = decimal.NewFromInt(-1) },
			wantCode: apperrors.CodeValidationFailed,
		},
		{
			name:     "unknown content type",
			id:       guest,
			mutate:   func(r *payment.CreateOrderRequest) { r.ContentType = "VIDEO" },
			wantCode: apperrors.CodeValidationFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := newOrderRequest()
			tt.mutate(req)
			_, err := svc.CreateOrder(db, tt.id, req)
			assert.True(t, apperrors.HasCode(err, tt.wantCode), "got %v", err)
		})
	}

	var n int64
	require.NoError(t, db.Model(&models.Order{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestOrderService_GetOrder_BadUid(t *testing.T) {
	db := testutil.NewDB(t)
	svc := payment.NewOrderService(repositories.NewOrderRepository())

	_, err := svc.GetOrder(db, payment.Identity{MemberID: "m"}, "not-a-uid")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidationFailed))

	_, err = svc.GetOrder(db, payment.Identity{MemberID: "m"}, "ORDER-20250101-120000-ABC123")
	assert.ErrorIs(t, err, apperrors.ErrOrderNotFound)
}
