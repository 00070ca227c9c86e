package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ChargingPointStatus is the administrative status of a charging point.
// It is independent of whether the point has reservations for a given window.
type ChargingPointStatus string

const (
	ChargingPointStatusAvailable    ChargingPointStatus = "AVAILABLE"
	ChargingPointStatusOccupied     ChargingPointStatus = "OCCUPIED"
	ChargingPointStatusOutOfService ChargingPointStatus = "OUT_OF_SERVICE"
	ChargingPointStatusMaintenance  ChargingPointStatus = "MAINTENANCE"
	ChargingPointStatusReserved     ChargingPointStatus = "RESERVED"
)

// Schedulable reports whether new reservations may target a point in this status.
func (s ChargingPointStatus) Schedulable() bool {
	return s != ChargingPointStatusOutOfService && s != ChargingPointStatusMaintenance
}

// Station groups charging points at one site.
type Station struct {
	ID      string `json:"id" gorm:"primaryKey"`
	Name    string `json:"name"`
	Address string `json:"address"`
}

// ConnectorType binds vehicles to charging points and carries the power
// rating and the base energy price.
type ConnectorType struct {
	ID          string          `json:"id" gorm:"primaryKey"`
	Name        string          `json:"name"` // e.g., CCS2, CHAdeMO, Type2
	PowerKW     float64         `json:"power_kw"`
	PricePerKWh decimal.Decimal `json:"price_per_kwh" gorm:"type:numeric(10,4)"`
}

// ChargingPoint is a single schedulable resource.
type ChargingPoint struct {
	ID              string              `json:"id" gorm:"primaryKey"`
	StationID       string              `json:"station_id" gorm:"index"`
	Code            string              `json:"code"`
	ConnectorTypeID string              `json:"connector_type_id" gorm:"index"`
	ConnectorType   *ConnectorType      `json:"connector_type,omitempty" gorm:"foreignKey:ConnectorTypeID"`
	Status          ChargingPointStatus `json:"status"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

// PowerKW returns the power rating of the point's connector, or 0 when the
// connector type was not loaded.
func (p *ChargingPoint) PowerKW() float64 {
	if p.ConnectorType == nil {
		return 0
	}
	return p.ConnectorType.PowerKW
}
