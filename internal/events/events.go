package events

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	NamePaymentCompleted = "payment.completed"
	NamePaymentRefunded  = "payment.refunded"
)

// Event is a plain data snapshot taken after a transaction commits.
type Event interface {
	EventName() string
}

type PaymentCompleted struct {
	OrderID         string
	PurchaseID      string
	MerchantUid     string
	MemberID        string
	GuestID         string
	SellerID        string
	ContentID       string
	ContentTitle    string
	OptionName      string
	Amount          decimal.Decimal
	PgTransactionID string
	PayMethod       string
	BuyerName       string
	BuyerEmail      string
	BuyerPhone      string
	PaidAt          time.Time

	SubscriptionID    string
	SubscriptionRound int
	NextBillingDate   *time.Time
}

func (PaymentCompleted) EventName() string { return NamePaymentCompleted }

type PaymentRefunded struct {
	OrderID             string
	MerchantUid         string
	MemberID            string
	GuestID             string
	SellerID            string
	ContentTitle        string
	Amount              decimal.Decimal
	Reason              string
	CancelTransactionID string
	BuyerName           string
	BuyerEmail          string
	RefundedAt          time.Time
}

func (PaymentRefunded) EventName() string { return NamePaymentRefunded }
