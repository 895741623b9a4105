package gateway

import (
	"context"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Payment statuses reported by FindPayment.
const (
	PaymentStatusPaid      = "PAID"
	PaymentStatusReady     = "READY"
	PaymentStatusCancelled = "CANCELLED"
	PaymentStatusFailed    = "FAILED"
	PaymentStatusNotFound  = "NOT_FOUND"
)

// Client talks to the payment gateway. Declines come back as result values
// with Success=false; the error return is reserved for transport and protocol
// failures. Calls are never retried.
type Client interface {
	RequestApproval(ctx context.Context, auth AuthResult) (*ApprovalResult, error)
	RequestRefund(ctx context.Context, cancel CancelInfo) (*RefundResult, error)
	IssueBillingKey(ctx context.Context, req BillingKeyRequest) (*BillingKeyResult, error)
	ChargeBillingKey(ctx context.Context, req BillingChargeRequest) (*ApprovalResult, error)
	DeleteBillingKey(ctx context.Context, billingKey string) error
	FindPayment(ctx context.Context, merchantUid string) (*ApprovalResult, error)
	RequestPayout(ctx context.Context, req PayoutRequest) (*PayoutResult, error)
}

// AuthResult is what the buyer's browser brings back from the gateway
// checkout page.
type AuthResult struct {
	PaymentKey  string          `json:"payment_key" validate:"required"`
	MerchantUid string          `json:"merchant_uid" validate:"required"`
	Amount      decimal.Decimal `json:"amount"`
}

type Buyer struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

type Card struct {
	Company     string `json:"company"`
	Number      string `json:"number"`
	Installment int    `json:"installment"`
}

type ApprovalResult struct {
	Success         bool
	Status          string
	MerchantUid     string
	PgTransactionID string
	PayMethod       string
	PayerID         string
	TotalAmount     decimal.Decimal
	TaxFree         bool
	TaxFreeAmount   decimal.Decimal
	VatAmount       decimal.Decimal
	Buyer           Buyer
	Card            Card
	ApprovedAt      time.Time
	ErrorCode       string
	ErrorMessage    string
	Raw             json.RawMessage
}

type CancelInfo struct {
	MerchantUid     string
	PgTransactionID string
	Amount          decimal.Decimal
	Reason          string
}

type RefundResult struct {
	Success             bool
	CancelTransactionID string
	CancelledAmount     decimal.Decimal
	CancelledAt         time.Time
	ErrorCode           string
	ErrorMessage        string
	Raw                 json.RawMessage
}

type BillingKeyRequest struct {
	CustomerKey string `json:"customer_key"`
	AuthKey     string `json:"auth_key"`
}

type BillingKeyResult struct {
	Success      bool
	BillingKey   string
	CustomerKey  string
	CardCompany  string
	CardNumber   string
	ErrorCode    string
	ErrorMessage string
}

type BillingChargeRequest struct {
	BillingKey  string
	CustomerKey string
	MerchantUid string
	OrderName   string
	Amount      decimal.Decimal
	Buyer       Buyer
}

type PayoutRequest struct {
	SettlementID string
	SellerID     string
	Amount       decimal.Decimal
}

type PayoutResult struct {
	Success             bool
	PayoutTransactionID string
	ErrorCode           string
	ErrorMessage        string
}
