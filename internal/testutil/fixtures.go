package testutil

import (
	"testing"
	"time"

	"contentpay_backend/internal/models"
	"contentpay_backend/internal/types"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// Clock is a fixed point in time used across tests.
var Clock = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

type OrderOption func(*models.Order)

func WithMerchantUid(uid string) OrderOption {
	return func(o *models.Order) { o.MerchantUid = uid }
}

func WithGuest(guestID string) OrderOption {
	return func(o *models.Order) {
		o.MemberID = nil
		o.GuestID = lo.ToPtr(guestID)
	}
}

func WithMember(memberID string) OrderOption {
	return func(o *models.Order) {
		o.GuestID = nil
		o.MemberID = lo.ToPtr(memberID)
	}
}

func WithAmount(amount int64) OrderOption {
	return func(o *models.Order) {
		o.OriginalAmount = decimal.NewFromInt(amount)
		o.DiscountAmount = decimal.Zero
		o.CouponDiscountAmount = decimal.Zero
		o.FinalAmount = decimal.NewFromInt(amount)
	}
}

func WithSeller(sellerID string) OrderOption {
	return func(o *models.Order) { o.SellerID = sellerID }
}

func WithStatus(status models.OrderStatus) OrderOption {
	return func(o *models.Order) { o.Status = status }
}

func WithCreatedAt(at time.Time) OrderOption {
	return func(o *models.Order) { o.CreatedAt = at }
}

// NewOrder builds a PENDING member order with random buyer data.
func NewOrder(opts ...OrderOption) *models.Order {
	o := &models.Order{
		MerchantUid:          types.NewMerchantUid(Clock).String(),
		MemberID:             lo.ToPtr(uuid.NewString()),
		ContentID:            uuid.NewString(),
		ContentTitle:         gofakeit.BookTitle(),
		ContentType:          models.ContentTypeDocument,
		OptionID:             uuid.NewString(),
		OptionName:           "PDF",
		SellerID:             uuid.NewString(),
		BuyerName:            gofakeit.Name(),
		BuyerPhone:           gofakeit.Phone(),
		BuyerEmail:           gofakeit.Email(),
		OriginalAmount:       decimal.NewFromInt(29900),
		DiscountAmount:       decimal.Zero,
		CouponDiscountAmount: decimal.Zero,
		FinalAmount:          decimal.NewFromInt(29900),
		Status:               models.OrderStatusPending,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// CreateOrder persists an order built by NewOrder.
func CreateOrder(t testing.TB, db *gorm.DB, opts ...OrderOption) *models.Order {
	t.Helper()
	o := NewOrder(opts...)
	require.NoError(t, db.Create(o).Error)
	return o
}

// CreatePurchase persists a COMPLETED purchase for seller.
func CreatePurchase(t testing.TB, db *gorm.DB, sellerID string, amount int64, purchasedAt time.Time) *models.Purchase {
	t.Helper()
	o := CreateOrder(t, db, WithSeller(sellerID), WithAmount(amount), WithStatus(models.OrderStatusPaid))
	p := models.NewPurchaseFromOrder(o, purchasedAt)
	require.NoError(t, db.Create(p).Error)
	return p
}
