package pricing

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/seu-repo/sigec-booking/internal/domain"
	"github.com/seu-repo/sigec-booking/internal/ports"
)

// Config holds the time-of-day pricing rules
type Config struct {
	// Peak hours definition, local hour of day [start, end)
	PeakStartHour int
	PeakEndHour   int

	// Multiplier applied to the base price during peak hours
	PeakFactor decimal.Decimal

	// Multiplier applied on Saturday and Sunday outside peak hours
	WeekendFactor decimal.Decimal

	// Location used to evaluate the hour of day
	Location *time.Location
}

// DefaultConfig returns the default pricing configuration
func DefaultConfig() *Config {
	return &Config{
		PeakStartHour: 17, // 5 PM
		PeakEndHour:   21, // 9 PM
		PeakFactor:    decimal.RequireFromString("1.25"),
		WeekendFactor: decimal.RequireFromString("0.90"),
		Location:      time.UTC,
	}
}

// Service computes effective prices from a connector's base price
type Service struct {
	log       *zap.Logger
	config    *Config
	discounts ports.DiscountProvider
}

// NewService creates a new pricing service. discounts may be nil.
func NewService(log *zap.Logger, config *Config, discounts ports.DiscountProvider) *Service {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Location == nil {
		config.Location = time.UTC
	}
	return &Service{
		log:       log,
		config:    config,
		discounts: discounts,
	}
}

// Quote returns base x factor x (1 - discount) for the connector at the given time.
// A failing discount provider degrades to no discount.
func (s *Service) Quote(ctx context.Context, connector *domain.ConnectorType, userID string, at time.Time) domain.PriceQuote {
	if connector == nil {
		return domain.FlatQuote(decimal.Zero)
	}

	factor := s.factorAt(at)
	discount := decimal.Zero
	if s.discounts != nil && userID != "" {
		d, err := s.discounts.Discount(ctx, userID)
		if err != nil {
			s.log.Warn("Discount lookup failed, pricing without discount",
				zap.String("user_id", userID),
				zap.Error(err),
			)
		} else if d.IsPositive() && d.LessThan(decimal.NewFromInt(1)) {
			discount = d
		}
	}

	effective := connector.PricePerKWh.
		Mul(factor).
		Mul(decimal.NewFromInt(1).Sub(discount)).
		Round(4)

	return domain.PriceQuote{
		Base:            connector.PricePerKWh,
		TimeOfDayFactor: factor,
		Discount:        discount,
		Effective:       effective,
	}
}

// IsPeakHour checks if t falls in peak hours
func (s *Service) IsPeakHour(t time.Time) bool {
	hour := t.In(s.config.Location).Hour()
	return hour >= s.config.PeakStartHour && hour < s.config.PeakEndHour
}

func (s *Service) factorAt(t time.Time) decimal.Decimal {
	if s.IsPeakHour(t) {
		return s.config.PeakFactor
	}
	weekday := t.In(s.config.Location).Weekday()
	if weekday == time.Saturday || weekday == time.Sunday {
		return s.config.WeekendFactor
	}
	return decimal.NewFromInt(1)
}

// NoDiscount is the default DiscountProvider when no subscription service is wired.
type NoDiscount struct{}

func (NoDiscount) Discount(ctx context.Context, userID string) (decimal.Decimal, error) {
	return decimal.Zero, nil
}
