package ports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/seu-repo/sigec-booking/internal/domain"
)

// CatalogService is the read view over stations, charging points and vehicles.
type CatalogService interface {
	GetChargingPoint(ctx context.Context, id string) (*domain.ChargingPoint, error)
	// ListStationPoints may serve a cached list; writes must re-read the point.
	ListStationPoints(ctx context.Context, stationID string) ([]domain.ChargingPoint, error)
	GetVehicle(ctx context.Context, id string) (*domain.Vehicle, error)
	// Invalidate drops cached data for the station after a status change.
	Invalidate(ctx context.Context, stationID string)
}

// PricingReference supplies the effective price used for cost estimates.
type PricingReference interface {
	Quote(ctx context.Context, connector *domain.ConnectorType, userID string, at time.Time) domain.PriceQuote
}

// DiscountProvider returns a subscription discount as a fraction in [0, 1).
type DiscountProvider interface {
	Discount(ctx context.Context, userID string) (decimal.Decimal, error)
}

// SlotQuery is the input of an availability search.
type SlotQuery struct {
	StationID      string
	VehicleID      string
	UserID         string
	CurrentBattery int
	TargetBattery  int
}

// AvailabilityService finds free windows long enough for a requested charge.
type AvailabilityService interface {
	FindAvailableSlots(ctx context.Context, q SlotQuery) (*domain.StationAvailability, error)
}

// ConfirmRequest books [StartTime, EndTime) on a charging point.
type ConfirmRequest struct {
	UserID          string
	VehicleID       string
	ChargingPointID string
	StartTime       time.Time
	EndTime         time.Time
	CurrentBattery  int
	TargetBattery   int
}

type CancelRequest struct {
	ReservationID string
	Actor         domain.Actor
	Reason        string
}

// CancelResult carries the canceled reservation and the late-cancel fee, if any.
type CancelResult struct {
	Reservation *domain.Reservation `json:"reservation"`
	Fee         *domain.Fee         `json:"fee,omitempty"`
}

type CompleteRequest struct {
	SessionID          string
	EnergyDeliveredKWh float64
	EndTime            time.Time
	Actor              domain.Actor
}

// CompleteResult carries the completed reservation and session plus the
// overtime fee, if any.
type CompleteResult struct {
	Reservation *domain.Reservation `json:"reservation"`
	Session     *domain.Session     `json:"session"`
	Fee         *domain.Fee         `json:"fee,omitempty"`
}

// ReservationService is the single writer of reservations. Every write is
// serialized per charging point.
type ReservationService interface {
	ConfirmReservation(ctx context.Context, req ConfirmRequest) (*domain.Reservation, error)
	CancelReservation(ctx context.Context, req CancelRequest) (*CancelResult, error)
	StartSession(ctx context.Context, reservationID string, actor domain.Actor) (*domain.Session, error)
	CompleteSession(ctx context.Context, req CompleteRequest) (*CompleteResult, error)

	// ExpireNoShow cancels a BOOKED reservation whose grace window elapsed and
	// raises the NO_SHOW fee. It returns (nil, nil) when nothing was due.
	ExpireNoShow(ctx context.Context, reservationID string) (*domain.Fee, error)

	// FlagOvertime marks a CHARGING reservation past its scheduled end as
	// notified. It returns false when it was already flagged or not due.
	FlagOvertime(ctx context.Context, reservationID string) (bool, error)

	GetReservation(ctx context.Context, id string, actor domain.Actor) (*domain.Reservation, error)
	ListUserReservations(ctx context.Context, userID string, limit, offset int) ([]domain.Reservation, error)
	GetSession(ctx context.Context, id string, actor domain.Actor) (*domain.Session, error)
	ListFees(ctx context.Context, reservationID string, actor domain.Actor) ([]domain.Fee, error)
}

type ReassignRequest struct {
	ReservationID  string
	CurrentPointID string
	NewPointID     string
	Reason         string
	Actor          domain.Actor
}

// ReassignmentService moves a booking between compatible charging points.
type ReassignmentService interface {
	FindAlternativePoints(ctx context.Context, reservationID, currentPointID string) ([]domain.ChargingPoint, error)
	ReassignPoint(ctx context.Context, req ReassignRequest) (*domain.Reservation, error)
}
