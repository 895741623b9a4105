package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Purchase is the snapshot of a completed order. It is what settlements
// aggregate over.
type Purchase struct {
	BaseModel
	OrderID  string  `gorm:"type:varchar(36);not null;uniqueIndex" json:"order_id"`
	MemberID *string `gorm:"type:varchar(36);index" json:"member_id,omitempty"`
	GuestID  *string `gorm:"type:varchar(36);index" json:"guest_id,omitempty"`
	SellerID string  `gorm:"type:varchar(36);not null;index:idx_purchase_seller_time" json:"seller_id"`

	ContentID    string      `gorm:"type:varchar(36);not null" json:"content_id"`
	ContentTitle string      `json:"content_title"`
	ContentType  ContentType `gorm:"type:varchar(20)" json:"content_type"`
	OptionID     string      `gorm:"type:varchar(36)" json:"option_id"`
	OptionName   string      `json:"option_name"`

	OriginalPrice  decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"original_price"`
	DiscountPrice  decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"discount_price"`
	CouponID       *string         `gorm:"type:varchar(36)" json:"coupon_id,omitempty"`
	CouponDiscount decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"coupon_discount"`
	FinalPrice     decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"final_price"`

	SubscriptionID    *string `gorm:"type:varchar(36)" json:"subscription_id,omitempty"`
	SubscriptionRound int     `json:"subscription_round"`

	Status       PurchaseStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	PurchasedAt  time.Time      `gorm:"not null;index:idx_purchase_seller_time" json:"purchased_at"`
	CancelledAt  *time.Time     `json:"cancelled_at,omitempty"`
	RefundedAt   *time.Time     `json:"refunded_at,omitempty"`
	CancelReason string         `json:"cancel_reason,omitempty"`
}

// NewPurchaseFromOrder snapshots a paid order.
func NewPurchaseFromOrder(o *Order, purchasedAt time.Time) *Purchase {
	return &Purchase{
		OrderID:           o.ID,
		MemberID:          o.MemberID,
		GuestID:           o.GuestID,
		SellerID:          o.SellerID,
		ContentID:         o.ContentID,
		ContentTitle:      o.ContentTitle,
		ContentType:       o.ContentType,
		OptionID:          o.OptionID,
		OptionName:        o.OptionName,
		OriginalPrice:     o.OriginalAmount,
		DiscountPrice:     o.DiscountAmount,
		CouponID:          o.CouponID,
		CouponDiscount:    o.CouponDiscountAmount,
		FinalPrice:        o.FinalAmount,
		SubscriptionID:    o.SubscriptionID,
		SubscriptionRound: o.SubscriptionRound,
		Status:            PurchaseStatusCompleted,
		PurchasedAt:       purchasedAt,
	}
}
