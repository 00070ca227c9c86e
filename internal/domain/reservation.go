package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReservationStatus represents the status of a reservation
type ReservationStatus string

const (
	ReservationStatusBooked    ReservationStatus = "BOOKED"
	ReservationStatusCharging  ReservationStatus = "CHARGING"
	ReservationStatusCompleted ReservationStatus = "COMPLETED"
	ReservationStatusCanceled  ReservationStatus = "CANCELED"
)

// ActiveReservationStatuses are the statuses that hold a claim on a charging point.
var ActiveReservationStatuses = []ReservationStatus{
	ReservationStatusBooked,
	ReservationStatusCharging,
}

// IsActive returns true if the status holds a claim on the charging point
func (s ReservationStatus) IsActive() bool {
	return s == ReservationStatusBooked || s == ReservationStatusCharging
}

// Reservation is a time-bounded claim on one charging point.
// Reservations are never deleted; they only change status.
type Reservation struct {
	ID                 string            `json:"id" gorm:"primaryKey"`
	UserID             string            `json:"user_id" gorm:"index"`
	VehicleID          string            `json:"vehicle_id"`
	StationID          string            `json:"station_id" gorm:"index"`
	ChargingPointID    string            `json:"charging_point_id" gorm:"index"`
	ConnectorTypeID    string            `json:"connector_type_id"` // frozen at booking time
	StartTime          time.Time         `json:"start_time" gorm:"index"`
	EndTime            time.Time         `json:"end_time"`
	StartBattery       int               `json:"start_battery"`
	TargetBattery      int               `json:"target_battery"`
	PricePerKWh        decimal.Decimal   `json:"price_per_kwh" gorm:"type:numeric(10,4)"`
	EnergyEstimateKWh  float64           `json:"energy_estimate_kwh"`
	EstimatedCost      decimal.Decimal   `json:"estimated_cost" gorm:"type:numeric(12,2)"`
	Status             ReservationStatus `json:"status" gorm:"index"`
	CancelReason       string            `json:"cancel_reason,omitempty"`
	CanceledBy         string            `json:"canceled_by,omitempty"`
	CanceledAt         *time.Time        `json:"canceled_at,omitempty"`
	OvertimeNotifiedAt *time.Time        `json:"-"`
	CreatedAt          time.Time         `json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`
}

// Interval returns the reserved [start, end) window.
func (r *Reservation) Interval() Interval {
	return Interval{Start: r.StartTime, End: r.EndTime}
}

// Overlaps reports whether the reservation's window intersects [start, end).
// Touching endpoints do not overlap.
func (r *Reservation) Overlaps(start, end time.Time) bool {
	return r.Interval().Overlaps(Interval{Start: start, End: end})
}

// GraceExpired returns true if a BOOKED reservation was not started within
// the grace period after its scheduled start.
func (r *Reservation) GraceExpired(now time.Time, grace time.Duration) bool {
	return r.Status == ReservationStatusBooked && now.After(r.StartTime.Add(grace))
}

// CanBeCancelled returns true if the reservation can still be cancelled
func (r *Reservation) CanBeCancelled() bool {
	return r.Status.IsActive()
}

// ReservationConfig holds scheduling configuration
type ReservationConfig struct {
	// Horizon is how far ahead the availability search looks
	Horizon time.Duration `json:"horizon"`

	// SlotGranularity truncates "now" for the search so repeated queries are stable
	SlotGranularity time.Duration `json:"slot_granularity"`

	// MaxAdvance is how far in advance a reservation may start
	MaxAdvance time.Duration `json:"max_advance"`

	// EarlyStartWindow is how long before the scheduled start a session may begin
	EarlyStartWindow time.Duration `json:"early_start_window"`

	// GracePeriod is how long after the scheduled start before a no-show is declared
	GracePeriod time.Duration `json:"grace_period"`

	// LockWaitTimeout bounds how long a write waits for a charging point
	LockWaitTimeout time.Duration `json:"lock_wait_timeout"`
}

// DefaultReservationConfig returns sensible defaults
func DefaultReservationConfig() *ReservationConfig {
	return &ReservationConfig{
		Horizon:          7 * 24 * time.Hour,
		SlotGranularity:  time.Minute,
		MaxAdvance:       7 * 24 * time.Hour,
		EarlyStartWindow: 10 * time.Minute,
		GracePeriod:      15 * time.Minute,
		LockWaitTimeout:  2 * time.Second,
	}
}

// Interval is a half-open [Start, End) time range.
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Duration returns End - Start.
func (i Interval) Duration() time.Duration {
	return i.End.Sub(i.Start)
}

// Overlaps reports whether two half-open intervals intersect.
func (i Interval) Overlaps(o Interval) bool {
	return i.Start.Before(o.End) && o.Start.Before(i.End)
}

// ScanCursor marks the last reservation returned by an ordered
// (start_time, id) scan. The zero cursor starts from the beginning.
type ScanCursor struct {
	StartTime time.Time
	ID        string
}

// CursorAfter returns the cursor positioned at r.
func CursorAfter(r *Reservation) ScanCursor {
	return ScanCursor{StartTime: r.StartTime, ID: r.ID}
}

// IsZero reports whether the cursor is at the beginning of the scan.
func (c ScanCursor) IsZero() bool {
	return c.ID == ""
}

// Before reports whether r sorts after the cursor.
func (c ScanCursor) Before(r *Reservation) bool {
	if c.IsZero() {
		return true
	}
	if r.StartTime.Equal(c.StartTime) {
		return r.ID > c.ID
	}
	return r.StartTime.After(c.StartTime)
}
