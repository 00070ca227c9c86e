package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type SessionStatus string

const (
	SessionStatusCharging  SessionStatus = "CHARGING"
	SessionStatusCompleted SessionStatus = "COMPLETED"
	SessionStatusAborted   SessionStatus = "ABORTED"
)

// Session is the realized execution of one reservation, created when
// charging starts. Once finished only fees may be appended to it.
type Session struct {
	ID                 string          `json:"id" gorm:"primaryKey"`
	ReservationID      string          `json:"reservation_id" gorm:"uniqueIndex"`
	UserID             string          `json:"user_id" gorm:"index"`
	ChargingPointID    string          `json:"charging_point_id"`
	Status             SessionStatus   `json:"status"`
	StartTime          time.Time       `json:"start_time"`
	EndTime            *time.Time      `json:"end_time,omitempty"`
	EnergyDeliveredKWh float64         `json:"energy_delivered_kwh"`
	BaseCost           decimal.Decimal `json:"base_cost" gorm:"type:numeric(12,2)"`
	Fees               []Fee           `json:"fees,omitempty" gorm:"foreignKey:SessionID"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// IsFinished returns true once the session can no longer change.
func (s *Session) IsFinished() bool {
	return s.Status == SessionStatusCompleted || s.Status == SessionStatusAborted
}
