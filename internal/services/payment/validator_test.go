package payment_test

import (
	"testing"

	"contentpay_backend/internal/gateway"
	"contentpay_backend/internal/models"
	"contentpay_backend/internal/services/payment"
	"contentpay_backend/internal/testutil"
	"contentpay_backend/pkg/apperrors"

	"github.com/google/go-cmp/cmp"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateAmount(t *testing.T) {
	order := testutil.NewOrder(testutil.WithAmount(29900))

	tests := []struct {
		name     string
		reported decimal.Decimal
		wantCode apperrors.ErrorCode
	}{
		{name: "exact", reported: decimal.NewFromInt(29900)},
		{name: "scale does not matter", reported: decimal.RequireFromString("29900.00")},
		{name: "lower", reported: decimal.NewFromInt(19900), wantCode: apperrors.CodeAmountMismatch},
		{name: "one minor unit off", reported: decimal.RequireFromString("29900.01"), wantCode: apperrors.CodeAmountMismatch},
		{name: "sub-unit below rounds to total", reported: decimal.RequireFromString("29899.996"), wantCode: apperrors.CodeAmountMismatch},
		{name: "sub-unit above rounds to total", reported: decimal.RequireFromString("29900.004"), wantCode: apperrors.CodeAmountMismatch},
		{name: "negative", reported: decimal.NewFromInt(-29900), wantCode: apperrors.CodeAmountMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := payment.ValidateAmount(order, tt.reported)
			if tt.wantCode == "" {
				assert.NoError(t, err)
				return
			}
			assert.True(t, apperrors.HasCode(err, tt.wantCode), "got %v", err)
		})
	}
}

func TestValidateOwnership(t *testing.T) {
	member := testutil.NewOrder(testutil.WithMember("m-1"))
	guest := testutil.NewOrder(testutil.WithGuest("g-1"))

	assert.NoError(t, payment.ValidateOwnership(member, payment.Identity{MemberID: "m-1"}))
	assert.NoError(t, payment.ValidateOwnership(guest, payment.Identity{GuestID: "g-1"}))

	for _, id := range []payment.Identity{
		{MemberID: "m-2"},
		{GuestID: "m-1"},
		{},
	} {
		err := payment.ValidateOwnership(member, id)
		assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized), "identity %+v", id)
	}
	assert.Error(t, payment.ValidateOwnership(guest, payment.Identity{MemberID: "g-1"}))
}

func TestValidateStatus(t *testing.T) {
	order := testutil.NewOrder(testutil.WithStatus(models.OrderStatusPaid))
	assert.NoError(t, payment.ValidateStatus(order, models.OrderStatusPaid))

	err := payment.ValidateStatus(order, models.OrderStatusPending)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidStatus))
	assert.True(t, apperrors.IsValidation(err))
}

func TestCompareSecondary(t *testing.T) {
	order := testutil.NewOrder(func(o *models.Order) {
		o.BuyerName = "Kim Minji"
		o.BuyerPhone = "010-1234-5678"
	})
	cmd := &payment.ApproveCommand{TaxFree: lo.ToPtr(false), Installment: lo.ToPtr(3)}

	result := &gateway.ApprovalResult{
		Buyer:   gateway.Buyer{Name: "kim minji ", Phone: "01012345678"},
		TaxFree: true,
		Card:    gateway.Card{Installment: 0},
	}

	got := payment.CompareSecondary(order, cmd, result)
	want := []payment.Warning{
		{Field: "tax_free", Expected: "false", Actual: "true"},
		{Field: "installment", Expected: "3", Actual: "0"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("CompareSecondary mismatch (-want +got):\n%s", diff)
	}

	assert.Empty(t, payment.CompareSecondary(order, nil, &gateway.ApprovalResult{}))
}

func TestValidateApproval_ChecksAmountAfterOwnership(t *testing.T) {
	order := testutil.NewOrder(testutil.WithMember("m-1"), testutil.WithAmount(29900))
	result := &gateway.ApprovalResult{Success: true, TotalAmount: decimal.NewFromInt(19900)}

	_, err := payment.ValidateApproval(order, payment.Identity{MemberID: "m-2"}, nil, result)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))

	_, err = payment.ValidateApproval(order, payment.Identity{MemberID: "m-1"}, nil, result)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeAmountMismatch))

	result.TotalAmount = decimal.NewFromInt(29900)
	warnings, err := payment.ValidateApproval(order, payment.Identity{MemberID: "m-1"}, nil, result)
	require.NoError(t, err)
	assert.Empty(t, warnings)
}
