package settlement_test

import (
	"testing"
	"time"

	"contentpay_backend/internal/services/settlement"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateFees(t *testing.T) {
	tests := []struct {
		gross, pgFee, platformFee, payout int64
	}{
		{gross: 300000, pgFee: 5100, platformFee: 4500, payout: 290400},
		// 508.3 and 448.5 round to 508 and 449
		{gross: 29900, pgFee: 508, platformFee: 449, payout: 28943},
		{gross: 0, pgFee: 0, platformFee: 0, payout: 0},
		{gross: 100, pgFee: 2, platformFee: 2, payout: 96},
	}

	for _, tt := range tests {
		got := settlement.CalculateFees(decimal.NewFromInt(tt.gross))
		assert.True(t, got.PgFee.Equal(decimal.NewFromInt(tt.pgFee)), "gross %d pg fee %s", tt.gross, got.PgFee)
		assert.True(t, got.PlatformFee.Equal(decimal.NewFromInt(tt.platformFee)), "gross %d platform fee %s", tt.gross, got.PlatformFee)
		assert.True(t, got.Payout.Equal(decimal.NewFromInt(tt.payout)), "gross %d payout %s", tt.gross, got.Payout)
	}
}

func TestPeriods(t *testing.T) {
	now := time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)

	month := settlement.MonthOf(now)
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), month.Start)
	assert.Equal(t, time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC), month.End)

	prev := settlement.PreviousMonth(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC), prev.Start)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), prev.End)

	parsed, err := settlement.ParseMonth("2025-02")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), parsed.End)

	_, err = settlement.ParseMonth("2025/02")
	assert.Error(t, err)
	assert.Error(t, settlement.Period{Start: now, End: now}.Validate())
}
