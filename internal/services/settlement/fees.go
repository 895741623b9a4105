package settlement

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var (
	PgFeeRate       = decimal.RequireFromString("0.017")
	PlatformFeeRate = decimal.RequireFromString("0.015")
)

// Breakdown is the split of a seller's gross sales for one settlement.
type Breakdown struct {
	Gross       decimal.Decimal
	PgFee       decimal.Decimal
	PlatformFee decimal.Decimal
	Payout      decimal.Decimal
}

// CalculateFees rounds each fee half-up to whole currency units.
func CalculateFees(gross decimal.Decimal) Breakdown {
	pgFee := gross.Mul(PgFeeRate).Round(0)
	platformFee := gross.Mul(PlatformFeeRate).Round(0)
	return Breakdown{
		Gross:       gross,
		PgFee:       pgFee,
		PlatformFee: platformFee,
		Payout:      gross.Sub(pgFee).Sub(platformFee),
	}
}

// Period is the half-open interval [Start, End) of purchase times.
type Period struct {
	Start time.Time
	End   time.Time
}

func (p Period) Validate() error {
	if p.Start.IsZero() || p.End.IsZero() || !p.End.After(p.Start) {
		return fmt.Errorf("invalid settlement period %s - %s", p.Start.Format(time.RFC3339), p.End.Format(time.RFC3339))
	}
	return nil
}

func (p Period) String() string {
	return p.Start.Format("2006-01-02") + "~" + p.End.Format("2006-01-02")
}

// MonthOf returns the calendar month containing t, in UTC.
func MonthOf(t time.Time) Period {
	t = t.UTC()
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return Period{Start: start, End: start.AddDate(0, 1, 0)}
}

// PreviousMonth returns the calendar month before the one containing now.
func PreviousMonth(now time.Time) Period {
	current := MonthOf(now)
	return MonthOf(current.Start.AddDate(0, 0, -1))
}

// ParseMonth reads a "2006-01" month.
func ParseMonth(s string) (Period, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Period{}, fmt.Errorf("parse month %q: %w", s, err)
	}
	return MonthOf(t), nil
}
