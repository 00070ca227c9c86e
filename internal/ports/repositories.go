package ports

import (
	"context"
	"time"

	"github.com/seu-repo/sigec-booking/internal/domain"
)

// Repositories return (nil, nil) when a single record is not found. Callers
// decide whether absence is an error.

type StationRepository interface {
	FindByID(ctx context.Context, id string) (*domain.Station, error)
}

type ChargingPointRepository interface {
	Save(ctx context.Context, cp *domain.ChargingPoint) error
	FindByID(ctx context.Context, id string) (*domain.ChargingPoint, error)
	// FindByStation returns the station's points with their connector types loaded.
	FindByStation(ctx context.Context, stationID string) ([]domain.ChargingPoint, error)
	UpdateStatus(ctx context.Context, id string, status domain.ChargingPointStatus) error
}

type VehicleRepository interface {
	// FindByID returns the vehicle with its car model and supported connectors loaded.
	FindByID(ctx context.Context, id string) (*domain.Vehicle, error)
}

type ReservationRepository interface {
	Create(ctx context.Context, r *domain.Reservation) error
	Update(ctx context.Context, r *domain.Reservation) error
	FindByID(ctx context.Context, id string) (*domain.Reservation, error)
	FindByUserID(ctx context.Context, userID string, limit, offset int) ([]domain.Reservation, error)

	// FindActiveByPoint returns BOOKED and CHARGING reservations on the point
	// that end after the given instant, ordered by start time.
	FindActiveByPoint(ctx context.Context, pointID string, after time.Time) ([]domain.Reservation, error)

	// FindOverlapping returns active reservations on the point whose window
	// intersects [start, end). excludeID is skipped when not empty.
	FindOverlapping(ctx context.Context, pointID string, start, end time.Time, excludeID string) ([]domain.Reservation, error)

	// FindNoShowCandidates returns BOOKED reservations that started before
	// cutoff, ordered by (start_time, id) and positioned after the cursor.
	FindNoShowCandidates(ctx context.Context, cutoff time.Time, after domain.ScanCursor, limit int) ([]domain.Reservation, error)

	// FindOvertimeCandidates returns CHARGING reservations whose scheduled end
	// is before now and that have not been flagged yet, ordered by
	// (start_time, id) and positioned after the cursor.
	FindOvertimeCandidates(ctx context.Context, now time.Time, after domain.ScanCursor, limit int) ([]domain.Reservation, error)
}

type SessionRepository interface {
	Create(ctx context.Context, s *domain.Session) error
	Update(ctx context.Context, s *domain.Session) error
	FindByID(ctx context.Context, id string) (*domain.Session, error)
	FindByReservationID(ctx context.Context, reservationID string) (*domain.Session, error)
}

type FeeRepository interface {
	// Create returns domain.ErrDuplicateFee when a fee of the same type
	// already exists for the owner.
	Create(ctx context.Context, fee *domain.Fee) error
	FindByReservationID(ctx context.Context, reservationID string) ([]domain.Fee, error)
	FindBySessionID(ctx context.Context, sessionID string) ([]domain.Fee, error)
	FindByUserID(ctx context.Context, userID string) ([]domain.Fee, error)
}

type ReassignmentRepository interface {
	Create(ctx context.Context, rec *domain.ReassignmentRecord) error
	FindByReservationID(ctx context.Context, reservationID string) ([]domain.ReassignmentRecord, error)
}
