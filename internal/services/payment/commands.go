package payment

import (
	"github.com/shopspring/decimal"
)

// Identity is the caller: exactly one of MemberID and GuestID is set for a
// valid request.
type Identity struct {
	MemberID string
	GuestID  string
}

func (i Identity) IsMember() bool { return i.MemberID != "" && i.GuestID == "" }
func (i Identity) IsGuest() bool  { return i.GuestID != "" && i.MemberID == "" }

type ApproveCommand struct {
	Identity
	MerchantUid string
	PaymentKey  string
	// Amount is what the client claims it paid; it must equal the order total.
	Amount decimal.Decimal
	// Optional hints compared against the gateway response.
	TaxFree     *bool
	Installment *int
}

type CancelRequestCommand struct {
	Identity
	MerchantUid string
	Reason      string
}

type CancelCommand struct {
	Identity
	MerchantUid string
	Reason      string
}
