package models_test

import (
	"testing"

	"contentpay_backend/internal/models"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrder_CheckAmounts(t *testing.T) {
	tests := []struct {
		name                              string
		original, discount, coupon, final int64
		wantErr                           bool
	}{
		{name: "no discount: ok", original: 29900, final: 29900},
		{name: "both discounts: ok", original: 30000, discount: 1000, coupon: 500, final: 28500},
		{name: "final too high: fail", original: 30000, discount: 1000, final: 30000, wantErr: true},
		{name: "discount exceeds original: fail", original: 1000, discount: 2000, final: 0, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := &models.Order{
				OriginalAmount:       decimal.NewFromInt(tt.original),
				DiscountAmount:       decimal.NewFromInt(tt.discount),
				CouponDiscountAmount: decimal.NewFromInt(tt.coupon),
				FinalAmount:          decimal.NewFromInt(tt.final),
			}
			err := o.CheckAmounts()
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestOrder_IsOwnedBy(t *testing.T) {
	member := &models.Order{MemberID: lo.ToPtr("m-1")}
	guest := &models.Order{GuestID: lo.ToPtr("g-1")}

	assert.True(t, member.IsOwnedBy("m-1", ""))
	assert.False(t, member.IsOwnedBy("m-2", ""))
	assert.False(t, member.IsOwnedBy("", "m-1"))
	assert.False(t, member.IsOwnedBy("", ""))

	assert.True(t, guest.IsOwnedBy("", "g-1"))
	assert.False(t, guest.IsOwnedBy("g-1", ""))
	assert.True(t, guest.IsGuestOrder())
	assert.Equal(t, "g-1", guest.Owner())
}
