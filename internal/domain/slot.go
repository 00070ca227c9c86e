package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AvailableTimeSlot is a free gap on a charging point long enough for the
// requested charge.
type AvailableTimeSlot struct {
	FreeFrom         time.Time       `json:"free_from"`
	FreeTo           time.Time       `json:"free_to"`
	AvailableMinutes int             `json:"available_minutes"`
	RequiredMinutes  int             `json:"required_minutes"`
	EstimatedCost    decimal.Decimal `json:"estimated_cost"`
}

// PointAvailability lists the usable slots of one charging point.
type PointAvailability struct {
	ChargingPointID    string              `json:"charging_point_id"`
	Code               string              `json:"code"`
	ConnectorTypeID    string              `json:"connector_type_id"`
	ConnectorName      string              `json:"connector_name"`
	PowerKW            float64             `json:"power_kw"`
	PricePerKWh        decimal.Decimal     `json:"price_per_kwh"`
	RequiredMinutes    int                 `json:"required_minutes"`
	TotalUsableMinutes int                 `json:"total_usable_minutes"`
	Slots              []AvailableTimeSlot `json:"slots"`
}

// StationAvailability groups per-point results under a station.
type StationAvailability struct {
	StationID      string              `json:"station_id"`
	VehicleID      string              `json:"vehicle_id"`
	HorizonStart   time.Time           `json:"horizon_start"`
	HorizonEnd     time.Time           `json:"horizon_end"`
	ChargingPoints []PointAvailability `json:"charging_points"`
}
