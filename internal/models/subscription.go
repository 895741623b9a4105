package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Subscription holds the recurring state. Each renewal produces its own
// Order and Purchase tagged with Round.
type Subscription struct {
	BaseModel
	MemberID        string             `gorm:"type:varchar(36);not null;index" json:"member_id"`
	ContentID       string             `gorm:"type:varchar(36);not null" json:"content_id"`
	ContentTitle    string             `json:"content_title"`
	ContentType     ContentType        `gorm:"type:varchar(20)" json:"content_type"`
	OptionID        string             `gorm:"type:varchar(36)" json:"option_id"`
	OptionName      string             `json:"option_name"`
	SellerID        string             `gorm:"type:varchar(36);not null" json:"seller_id"`
	BillingKeyID    string             `gorm:"type:varchar(36);not null" json:"billing_key_id"`
	Price           decimal.Decimal    `gorm:"type:decimal(15,2);not null" json:"price"`
	Round           int                `gorm:"not null;default:0" json:"round"`
	NextBillingDate time.Time          `gorm:"not null;index" json:"next_billing_date"`
	LastOrderID     *string            `gorm:"type:varchar(36)" json:"last_order_id,omitempty"`
	Status          SubscriptionStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	FailureCount    int                `gorm:"not null;default:0" json:"failure_count"`
	CancelledAt     *time.Time         `json:"cancelled_at,omitempty"`
	Version         int64              `gorm:"not null;default:0" json:"version"`
}

func (s *Subscription) IsRenewable() bool {
	return s.Status == SubscriptionStatusActive || s.Status == SubscriptionStatusPastDue
}
