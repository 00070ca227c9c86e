package pricing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/seu-repo/sigec-booking/internal/domain"
)

type discountFunc func(ctx context.Context, userID string) (decimal.Decimal, error)

func (f discountFunc) Discount(ctx context.Context, userID string) (decimal.Decimal, error) {
	return f(ctx, userID)
}

func ccs2() *domain.ConnectorType {
	return &domain.ConnectorType{ID: "ccs2", Name: "CCS2", PowerKW: 50, PricePerKWh: decimal.RequireFromString("2.00")}
}

func TestQuote_TimeOfDayFactor(t *testing.T) {
	svc := NewService(zap.NewNop(), nil, nil)

	tests := []struct {
		name   string
		at     time.Time
		factor string
		price  string
	}{
		{"weekday off-peak", time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC), "1", "2"},
		{"weekday peak", time.Date(2026, 3, 4, 18, 30, 0, 0, time.UTC), "1.25", "2.5"},
		{"peak end is exclusive", time.Date(2026, 3, 4, 21, 0, 0, 0, time.UTC), "1", "2"},
		{"weekend off-peak", time.Date(2026, 3, 7, 10, 0, 0, 0, time.UTC), "0.9", "1.8"},
		{"weekend peak", time.Date(2026, 3, 7, 17, 0, 0, 0, time.UTC), "1.25", "2.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := svc.Quote(context.Background(), ccs2(), "", tt.at)
			if !q.TimeOfDayFactor.Equal(decimal.RequireFromString(tt.factor)) {
				t.Errorf("expected factor %s, got %s", tt.factor, q.TimeOfDayFactor)
			}
			if !q.Effective.Equal(decimal.RequireFromString(tt.price)) {
				t.Errorf("expected effective price %s, got %s", tt.price, q.Effective)
			}
			if !q.Base.Equal(decimal.RequireFromString("2.00")) {
				t.Errorf("base price must be the connector price, got %s", q.Base)
			}
		})
	}
}

func TestQuote_AppliesDiscount(t *testing.T) {
	discounts := discountFunc(func(ctx context.Context, userID string) (decimal.Decimal, error) {
		if userID == "subscriber" {
			return decimal.RequireFromString("0.20"), nil
		}
		return decimal.Zero, nil
	})
	svc := NewService(zap.NewNop(), nil, discounts)
	at := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)

	q := svc.Quote(context.Background(), ccs2(), "subscriber", at)
	if !q.Effective.Equal(decimal.RequireFromString("1.6")) {
		t.Errorf("expected 1.6, got %s", q.Effective)
	}

	q = svc.Quote(context.Background(), ccs2(), "someone-else", at)
	if !q.Effective.Equal(decimal.RequireFromString("2")) {
		t.Errorf("expected 2, got %s", q.Effective)
	}
}

func TestQuote_DiscountFailureDegrades(t *testing.T) {
	discounts := discountFunc(func(ctx context.Context, userID string) (decimal.Decimal, error) {
		return decimal.Zero, errors.New("subscription service down")
	})
	svc := NewService(zap.NewNop(), nil, discounts)

	q := svc.Quote(context.Background(), ccs2(), "user-1", time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC))
	if !q.Discount.IsZero() {
		t.Errorf("expected no discount, got %s", q.Discount)
	}
	if !q.Effective.Equal(decimal.RequireFromString("2")) {
		t.Errorf("expected 2, got %s", q.Effective)
	}
}

func TestQuote_IgnoresOutOfRangeDiscount(t *testing.T) {
	discounts := discountFunc(func(ctx context.Context, userID string) (decimal.Decimal, error) {
		return decimal.NewFromInt(1), nil
	})
	svc := NewService(zap.NewNop(), nil, discounts)

	q := svc.Quote(context.Background(), ccs2(), "user-1", time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC))
	if !q.Effective.Equal(decimal.RequireFromString("2")) {
		t.Errorf("a full discount must be ignored, got %s", q.Effective)
	}
}
