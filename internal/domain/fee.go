package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// FeeType identifies the lifecycle violation a fee was raised for.
type FeeType string

const (
	FeeTypeNoShow   FeeType = "NO_SHOW"
	FeeTypeCancel   FeeType = "CANCEL"
	FeeTypeCharging FeeType = "CHARGING" // overtime
)

// Fee is a penalty attached to a reservation (no-show, late cancel) or to a
// session (overtime). At most one fee of each type exists per owner.
type Fee struct {
	ID            string          `json:"id" gorm:"primaryKey"`
	Type          FeeType         `json:"type"`
	Amount        decimal.Decimal `json:"amount" gorm:"type:numeric(12,2)"`
	Description   string          `json:"description"`
	Paid          bool            `json:"paid"`
	UserID        string          `json:"user_id" gorm:"index"`
	ReservationID *string         `json:"reservation_id,omitempty" gorm:"index"`
	SessionID     *string         `json:"session_id,omitempty" gorm:"index"`
	CreatedAt     time.Time       `json:"created_at"`
}

// OwnerKey identifies the (owner, type) pair a fee is unique on.
func (f *Fee) OwnerKey() string {
	if f.SessionID != nil {
		return "session:" + *f.SessionID + ":" + string(f.Type)
	}
	if f.ReservationID != nil {
		return "reservation:" + *f.ReservationID + ":" + string(f.Type)
	}
	return "fee:" + f.ID
}
