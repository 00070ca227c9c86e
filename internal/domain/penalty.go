package domain

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// PenaltyPolicy holds the fee rules applied on lifecycle violations.
// The percentages are applied to the reservation's estimated cost; they are
// business policy, not derived from delivered energy.
type PenaltyPolicy struct {
	NoShowPercent         decimal.Decimal
	LateCancelPercent     decimal.Decimal
	LateCancelWindow      time.Duration
	OvertimeRatePerMinute decimal.Decimal
}

// DefaultPenaltyPolicy returns the standard policy: 30% no-show, 10% late
// cancel inside 10 minutes, 0.50 per overtime minute.
func DefaultPenaltyPolicy() PenaltyPolicy {
	return PenaltyPolicy{
		NoShowPercent:         decimal.NewFromInt(30),
		LateCancelPercent:     decimal.NewFromInt(10),
		LateCancelWindow:      10 * time.Minute,
		OvertimeRatePerMinute: decimal.RequireFromString("0.50"),
	}
}

var hundred = decimal.NewFromInt(100)

// NoShowFee returns the no-show penalty for an estimated cost.
func (p PenaltyPolicy) NoShowFee(estimatedCost decimal.Decimal) decimal.Decimal {
	return estimatedCost.Mul(p.NoShowPercent).Div(hundred).Round(2)
}

// LateCancelFee returns the cancel penalty for an estimated cost.
func (p PenaltyPolicy) LateCancelFee(estimatedCost decimal.Decimal) decimal.Decimal {
	return estimatedCost.Mul(p.LateCancelPercent).Div(hundred).Round(2)
}

// IsLateCancel reports whether cancelling at now falls inside the late window
// before start. Cancelling after the start is always late.
func (p PenaltyPolicy) IsLateCancel(start, now time.Time) bool {
	return start.Sub(now) < p.LateCancelWindow
}

// OvertimeMinutes returns the whole minutes (rounded up) that end exceeds scheduledEnd.
func OvertimeMinutes(scheduledEnd, end time.Time) int64 {
	if !end.After(scheduledEnd) {
		return 0
	}
	return int64(math.Ceil(end.Sub(scheduledEnd).Minutes()))
}

// OvertimeFee returns the charging fee for the given overtime minutes.
func (p PenaltyPolicy) OvertimeFee(minutes int64) decimal.Decimal {
	return p.OvertimeRatePerMinute.Mul(decimal.NewFromInt(minutes)).Round(2)
}
