package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// PaymentRecord stores the gateway approval for an order. Only the
// cancellation fields change after creation.
type PaymentRecord struct {
	BaseModel
	OrderID         string `gorm:"type:varchar(36);not null;uniqueIndex" json:"order_id"`
	MerchantUid     string `gorm:"type:varchar(40);not null;uniqueIndex" json:"merchant_uid"`
	PgTransactionID string `gorm:"type:varchar(100);index" json:"pg_transaction_id"`
	PayMethod       string `json:"pay_method"`
	PayerID         string `json:"payer_id"`

	BuyerName  string `json:"buyer_name"`
	BuyerPhone string `json:"buyer_phone"`

	CardName        string `json:"card_name"`
	CardNumber      string `json:"card_number"`
	CardInstallment int    `json:"card_installment"`

	TaxFree        bool            `json:"tax_free"`
	TaxFreeAmount  decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"tax_free_amount"`
	VatAmount      decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"vat_amount"`
	ApprovedAmount decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"approved_amount"`
	ApprovedAt     time.Time       `json:"approved_at"`

	RawResponse datatypes.JSON `json:"raw_response"`

	CancelledAt         *time.Time       `json:"cancelled_at,omitempty"`
	CancelReason        string           `json:"cancel_reason,omitempty"`
	CancelAmount        *decimal.Decimal `gorm:"type:decimal(15,2)" json:"cancel_amount,omitempty"`
	CancelTransactionID string           `json:"cancel_transaction_id,omitempty"`
}
