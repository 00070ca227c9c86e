package domain

import "github.com/shopspring/decimal"

// PriceQuote is the effective energy price for one connector at one instant.
// It feeds cost estimates only; conflict checks never depend on price.
type PriceQuote struct {
	Base            decimal.Decimal `json:"base"`
	TimeOfDayFactor decimal.Decimal `json:"time_of_day_factor"`
	Discount        decimal.Decimal `json:"discount"`
	Effective       decimal.Decimal `json:"effective"`
}

// FlatQuote returns a quote that applies no factor or discount.
func FlatQuote(base decimal.Decimal) PriceQuote {
	return PriceQuote{
		Base:            base,
		TimeOfDayFactor: decimal.NewFromInt(1),
		Discount:        decimal.Zero,
		Effective:       base,
	}
}
