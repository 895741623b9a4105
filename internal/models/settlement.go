package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Settlement aggregates a seller's purchases of one period for payout.
type Settlement struct {
	BaseModel
	SellerID    string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_settlement_seller_period" json:"seller_id"`
	PeriodStart time.Time `gorm:"not null;uniqueIndex:idx_settlement_seller_period" json:"period_start"`
	PeriodEnd   time.Time `gorm:"not null;uniqueIndex:idx_settlement_seller_period" json:"period_end"`
	// Sequence numbers supplementary settlements opened for a period whose
	// earlier settlement was already paid out or closed.
	Sequence            int              `gorm:"not null;default:1;uniqueIndex:idx_settlement_seller_period" json:"sequence"`
	ScheduledPayoutDate time.Time        `json:"scheduled_payout_date"`
	TotalAmount         decimal.Decimal  `gorm:"type:decimal(15,2);not null" json:"total_amount"`
	PgFee               decimal.Decimal  `gorm:"type:decimal(15,2);not null" json:"pg_fee"`
	PlatformFee         decimal.Decimal  `gorm:"type:decimal(15,2);not null" json:"platform_fee"`
	PayoutAmount        decimal.Decimal  `gorm:"type:decimal(15,2);not null" json:"payout_amount"`
	ItemCount           int              `gorm:"not null;default:0" json:"item_count"`
	Status              SettlementStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	PayoutTransactionID string           `json:"payout_transaction_id,omitempty"`
	HoldReason          string           `json:"hold_reason,omitempty"`
	ApprovedBy          *string          `gorm:"type:varchar(36)" json:"approved_by,omitempty"`
	CompletedAt         *time.Time       `json:"completed_at,omitempty"`
	Version             int64            `gorm:"not null;default:0" json:"version"`

	Items []SettlementItem `gorm:"foreignKey:SettlementID" json:"items,omitempty"`
}

type SettlementItem struct {
	BaseModel
	SettlementID string          `gorm:"type:varchar(36);not null;index" json:"settlement_id"`
	PurchaseID   string          `gorm:"type:varchar(36);not null;uniqueIndex" json:"purchase_id"`
	OrderID      string          `gorm:"type:varchar(36);not null" json:"order_id"`
	Amount       decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"amount"`
}
