package models

import (
	"errors"
	"fmt"
	"time"

	"contentpay_backend/internal/types"

	"github.com/shopspring/decimal"
)

var ErrAmountInvariant = errors.New("final amount does not match original minus discounts")

type Order struct {
	BaseModel
	MerchantUid string `gorm:"type:varchar(40);not null;uniqueIndex" json:"merchant_uid"`

	MemberID *string `gorm:"type:varchar(36);index" json:"member_id,omitempty"`
	GuestID  *string `gorm:"type:varchar(36);index" json:"guest_id,omitempty"`

	ContentID    string      `gorm:"type:varchar(36);not null;index" json:"content_id"`
	ContentTitle string      `gorm:"not null" json:"content_title"`
	ContentType  ContentType `gorm:"type:varchar(20);not null" json:"content_type"`
	OptionID     string      `gorm:"type:varchar(36)" json:"option_id"`
	OptionName   string      `json:"option_name"`
	SellerID     string      `gorm:"type:varchar(36);not null;index" json:"seller_id"`

	BuyerName  string `json:"buyer_name"`
	BuyerPhone string `json:"buyer_phone"`
	BuyerEmail string `json:"buyer_email"`

	OriginalAmount       decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"original_amount"`
	DiscountAmount       decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"discount_amount"`
	CouponID             *string         `gorm:"type:varchar(36)" json:"coupon_id,omitempty"`
	CouponDiscountAmount decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"coupon_discount_amount"`
	FinalAmount          decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"final_amount"`

	Status  OrderStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	Version int64       `gorm:"not null;default:0" json:"version"`

	SubscriptionID    *string    `gorm:"type:varchar(36);index" json:"subscription_id,omitempty"`
	SubscriptionRound int        `gorm:"not null;default:0" json:"subscription_round"`
	NextBillingDate   *time.Time `json:"next_billing_date,omitempty"`

	PaidAt            *time.Time `json:"paid_at,omitempty"`
	CancelRequestedAt *time.Time `json:"cancel_requested_at,omitempty"`
	CancelReason      string     `json:"cancel_reason,omitempty"`
	CancelledAt       *time.Time `json:"cancelled_at,omitempty"`
	FailedAt          *time.Time `json:"failed_at,omitempty"`
	FailureReason     string     `json:"failure_reason,omitempty"`
}

// IsOwnedBy is true when the caller identity is the order's single owner.
func (o *Order) IsOwnedBy(memberID, guestID string) bool {
	if memberID != "" {
		return o.MemberID != nil && *o.MemberID == memberID
	}
	if guestID != "" {
		return o.GuestID != nil && *o.GuestID == guestID
	}
	return false
}

func (o *Order) IsGuestOrder() bool {
	return o.GuestID != nil && *o.GuestID != ""
}

func (o *Order) IsSubscription() bool {
	return o.SubscriptionID != nil && *o.SubscriptionID != ""
}

// Owner returns the owner id regardless of kind.
func (o *Order) Owner() string {
	if o.MemberID != nil {
		return *o.MemberID
	}
	if o.GuestID != nil {
		return *o.GuestID
	}
	return ""
}

func (o *Order) Final() (types.PaymentAmount, error) {
	return types.NewPaymentAmount(o.FinalAmount)
}

// CheckAmounts verifies that every amount is a valid PaymentAmount and that
// final = original - discount - coupon discount.
func (o *Order) CheckAmounts() error {
	original, err := types.NewPaymentAmount(o.OriginalAmount)
	if err != nil {
		return fmt.Errorf("original amount: %w", err)
	}
	discount, err := types.NewPaymentAmount(o.DiscountAmount)
	if err != nil {
		return fmt.Errorf("discount amount: %w", err)
	}
	coupon, err := types.NewPaymentAmount(o.CouponDiscountAmount)
	if err != nil {
		return fmt.Errorf("coupon discount amount: %w", err)
	}
	final, err := types.NewPaymentAmount(o.FinalAmount)
	if err != nil {
		return fmt.Errorf("final amount: %w", err)
	}

	afterDiscount, err := original.Subtract(discount)
	if err != nil {
		return fmt.Errorf("discount: %w", err)
	}
	expected, err := afterDiscount.Subtract(coupon)
	if err != nil {
		return fmt.Errorf("coupon discount: %w", err)
	}
	if !expected.Equal(final) {
		return fmt.Errorf("%w: expected %s, got %s", ErrAmountInvariant, expected, final)
	}
	return nil
}
