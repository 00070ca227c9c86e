// Package estimator maps a requested charge to the time, energy and cost it needs.
package estimator

import (
	"errors"

	"github.com/shopspring/decimal"

	"github.com/seu-repo/sigec-booking/internal/domain"
)

// ErrInvalidRating is returned when the battery capacity or the connector
// power is not positive.
var ErrInvalidRating = errors.New("battery capacity and connector power must be positive")

var (
	hundred        = decimal.NewFromInt(100)
	minutesPerHour = decimal.NewFromInt(60)
)

// Input describes one requested charge on one connector.
type Input struct {
	BatteryCapacityKWh float64
	CurrentBattery     int
	TargetBattery      int
	PowerKW            float64
	PricePerKWh        decimal.Decimal
}

// Result is the outcome of an estimate.
type Result struct {
	RequiredMinutes int
	EnergyKWh       float64
	EstimatedCost   decimal.Decimal
}

// Estimate computes required minutes = ceil(energy / power x 60) where
// energy = (target - current) / 100 x capacity, and cost = energy x price.
func Estimate(in Input) (Result, error) {
	if in.CurrentBattery < 0 || in.TargetBattery > 100 || in.TargetBattery <= in.CurrentBattery {
		return Result{}, &domain.InvalidRangeError{Current: in.CurrentBattery, Target: in.TargetBattery}
	}
	if in.BatteryCapacityKWh <= 0 || in.PowerKW <= 0 {
		return Result{}, ErrInvalidRating
	}

	energy := decimal.NewFromInt(int64(in.TargetBattery - in.CurrentBattery)).
		Mul(decimal.NewFromFloat(in.BatteryCapacityKWh)).
		Div(hundred)

	// multiply before dividing so exact cases stay exact
	minutes := energy.Mul(minutesPerHour).Div(decimal.NewFromFloat(in.PowerKW)).Ceil()

	return Result{
		RequiredMinutes: int(minutes.IntPart()),
		EnergyKWh:       energy.Round(3).InexactFloat64(),
		EstimatedCost:   energy.Mul(in.PricePerKWh).Round(2),
	}, nil
}
