package types

import (
	"database/sql/driver"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// AmountScale is the number of fractional digits every PaymentAmount is kept at
const AmountScale = 2

var (
	maxAmount = decimal.NewFromInt(100_000_000)

	ErrNegativeAmount    = errors.New("amount must not be negative")
	ErrAmountOutOfBounds = errors.New("amount exceeds the allowed maximum")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrExcessPrecision   = errors.New("amount has more fractional digits than the currency allows")
)

// PaymentAmount is an immutable non-negative money amount, bounded and fixed at AmountScale
type PaymentAmount struct {
	d decimal.Decimal
}

var ZeroAmount = PaymentAmount{d: decimal.Zero}

func NewPaymentAmount(d decimal.Decimal) (PaymentAmount, error) {
	if d.IsNegative() {
		return PaymentAmount{}, fmt.Errorf("%w: %s", ErrNegativeAmount, d.String())
	}
	if d.GreaterThan(maxAmount) {
		return PaymentAmount{}, fmt.Errorf("%w: %s", ErrAmountOutOfBounds, d.String())
	}
	if !d.Equal(d.Truncate(AmountScale)) {
		return PaymentAmount{}, fmt.Errorf("%w: %s", ErrExcessPrecision, d.String())
	}
	return PaymentAmount{d: d}, nil
}

// ParsePaymentAmount accepts the gateway's string totals such as "29900" or "29900.00"
func ParsePaymentAmount(s string) (PaymentAmount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return PaymentAmount{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return NewPaymentAmount(d)
}

func MustPaymentAmount(v int64) PaymentAmount {
	a, err := NewPaymentAmount(decimal.NewFromInt(v))
	if err != nil {
		panic(err)
	}
	return a
}

// Subtract fails instead of producing a negative amount
func (a PaymentAmount) Subtract(b PaymentAmount) (PaymentAmount, error) {
	result := a.d.Sub(b.d)
	if result.IsNegative() {
		return PaymentAmount{}, fmt.Errorf("%w: %s - %s", ErrNegativeAmount, a.String(), b.String())
	}
	return PaymentAmount{d: result}, nil
}

func (a PaymentAmount) Add(b PaymentAmount) (PaymentAmount, error) {
	return NewPaymentAmount(a.d.Add(b.d))
}

// Equal compares numerically, so 29900 equals 29900.00
func (a PaymentAmount) Equal(b PaymentAmount) bool {
	return a.d.Equal(b.d)
}

func (a PaymentAmount) IsZero() bool {
	return a.d.IsZero()
}

func (a PaymentAmount) Decimal() decimal.Decimal {
	return a.d
}

func (a PaymentAmount) String() string {
	return a.d.StringFixed(AmountScale)
}

func (a PaymentAmount) Value() (driver.Value, error) {
	return a.d.StringFixed(AmountScale), nil
}

func (a *PaymentAmount) Scan(src interface{}) error {
	var d decimal.Decimal
	if err := d.Scan(src); err != nil {
		return fmt.Errorf("scan PaymentAmount: %w", err)
	}
	parsed, err := NewPaymentAmount(d)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

func (a PaymentAmount) MarshalJSON() ([]byte, error) {
	return []byte(`"` + a.String() + `"`), nil
}

func (a *PaymentAmount) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidAmount, string(data))
	}
	parsed, err := NewPaymentAmount(d)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
