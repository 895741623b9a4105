package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	MerchantUid string `json:"merchant_uid" validate:"required,is-merchant-uid"`
	Month       string `json:"month" validate:"omitempty,is-month"`
	ContentType string `json:"content_type" validate:"omitempty,is-content-type"`
	Status      string `json:"status" validate:"omitempty,is-settlement-status"`
	Email       string `json:"email" validate:"omitempty,email"`
}

func TestValidate_Passes(t *testing.T) {
	v := New()
	err := v.Validate(&sample{
		MerchantUid: "ORDER-20250101-120000-ABC123",
		Month:       "2025-01",
		ContentType: "DOCUMENT",
		Status:      "ON_HOLD",
		Email:       "buyer@example.com",
	})
	assert.NoError(t, err)
}

func TestValidate_ReportsJSONFieldNames(t *testing.T) {
	v := New()
	err := v.Validate(&sample{
		MerchantUid: "ORDER-1",
		Month:       "2025-13",
		ContentType: "VIDEO",
		Status:      "DONE",
		Email:       "nope",
	})

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Len(t, vErr.Errors, 5)
	assert.Contains(t, vErr.Errors["merchant_uid"], "ORDER-yyyyMMdd")
	assert.Contains(t, vErr.Errors["month"], "YYYY-MM")
	assert.Contains(t, vErr.Errors["content_type"], "COACHING")
	assert.Contains(t, vErr.Errors, "status")
	assert.Equal(t, "Must be a valid email address", vErr.Errors["email"])
}

func TestValidate_Required(t *testing.T) {
	err := New().Validate(&sample{})

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, map[string]string{"merchant_uid": "This field is required"}, vErr.Errors)
}
