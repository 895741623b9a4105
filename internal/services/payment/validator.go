package payment

import (
	"strconv"
	"strings"

	"contentpay_backend/internal/gateway"
	"contentpay_backend/internal/models"
	"contentpay_backend/internal/types"
	"contentpay_backend/pkg/apperrors"

	"github.com/shopspring/decimal"
)

// Warning is a non-fatal mismatch between the order and the gateway result.
type Warning struct {
	Field    string `json:"field"`
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
}

func ValidateOwnership(order *models.Order, id Identity) error {
	if !order.IsOwnedBy(id.MemberID, id.GuestID) {
		return apperrors.ErrUnauthorized("order", "Order does not belong to the requester")
	}
	return nil
}

func ValidateStatus(order *models.Order, required models.OrderStatus) error {
	if order.Status != required {
		return apperrors.ErrInvalidStatus("order", order.Status, required)
	}
	return nil
}

// ValidateAmount requires the reported total to equal the order's final amount exactly.
func ValidateAmount(order *models.Order, reported decimal.Decimal) error {
	expected, err := order.Final()
	if err != nil {
		return apperrors.ValidationError(map[string]string{"final_amount": err.Error()})
	}
	actual, err := types.NewPaymentAmount(reported)
	if err != nil {
		return apperrors.ErrAmountMismatch(expected.String(), reported.String())
	}
	if !expected.Equal(actual) {
		return apperrors.ErrAmountMismatch(expected.String(), actual.String())
	}
	return nil
}

// CompareSecondary lists mismatches of fields that never fail a payment.
// A field is compared only when both sides carry a value.
func CompareSecondary(order *models.Order, cmd *ApproveCommand, result *gateway.ApprovalResult) []Warning {
	var warnings []Warning

	compare := func(field, expected, actual string) {
		if expected == "" || actual == "" {
			return
		}
		if !strings.EqualFold(strings.TrimSpace(expected), strings.TrimSpace(actual)) {
			warnings = append(warnings, Warning{Field: field, Expected: expected, Actual: actual})
		}
	}

	compare("buyer_name", order.BuyerName, result.Buyer.Name)
	compare("buyer_phone", normalizePhone(order.BuyerPhone), normalizePhone(result.Buyer.Phone))

	if cmd != nil && cmd.TaxFree != nil {
		compare("tax_free", strconv.FormatBool(*cmd.TaxFree), strconv.FormatBool(result.TaxFree))
	}
	if cmd != nil && cmd.Installment != nil {
		compare("installment", strconv.Itoa(*cmd.Installment), strconv.Itoa(result.Card.Installment))
	}
	return warnings
}

// ValidateApproval runs every hard check on a successful gateway approval and
// returns the soft warnings.
func ValidateApproval(order *models.Order, id Identity, cmd *ApproveCommand, result *gateway.ApprovalResult) ([]Warning, error) {
	if err := ValidateOwnership(order, id); err != nil {
		return nil, err
	}
	if err := ValidateStatus(order, models.OrderStatusPending); err != nil {
		return nil, err
	}
	if err := ValidateAmount(order, result.TotalAmount); err != nil {
		return nil, err
	}
	return CompareSecondary(order, cmd, result), nil
}

func normalizePhone(phone string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)
}
