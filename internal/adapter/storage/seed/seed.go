// Package seed holds the demo charging catalog loaded by the memory storage
// driver and by the integration tests.
package seed

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/seu-repo/sigec-booking/internal/adapter/storage/memory"
	"github.com/seu-repo/sigec-booking/internal/domain"
)

// Catalog is a complete set of reference data.
type Catalog struct {
	ConnectorTypes []domain.ConnectorType
	Stations       []domain.Station
	ChargingPoints []domain.ChargingPoint
	CarModels      []domain.CarModel
	Vehicles       []domain.Vehicle
}

// Demo returns two stations with mixed connectors and three vehicles.
//
// Station st-1 has cp-1 and cp-2 (CCS2, 50kW), cp-3 (Type2, 22kW), cp-4
// (CCS2, MAINTENANCE) and cp-5 (CHAdeMO, 50kW). Station st-2 has cp-9 (CCS2).
// Vehicle v-1 (user-1) and v-2 (user-2) are 60kWh cars supporting CCS2 and
// Type2; v-3 (user-3) only supports CHAdeMO.
func Demo() Catalog {
	ccs2 := domain.ConnectorType{ID: "ccs2", Name: "CCS2", PowerKW: 50, PricePerKWh: decimal.RequireFromString("2.00")}
	type2 := domain.ConnectorType{ID: "type2", Name: "Type2", PowerKW: 22, PricePerKWh: decimal.RequireFromString("1.20")}
	chademo := domain.ConnectorType{ID: "chademo", Name: "CHAdeMO", PowerKW: 50, PricePerKWh: decimal.RequireFromString("2.00")}

	return Catalog{
		ConnectorTypes: []domain.ConnectorType{ccs2, type2, chademo},
		Stations: []domain.Station{
			{ID: "st-1", Name: "Central", Address: "Av. Paulista 1000"},
			{ID: "st-2", Name: "Airport", Address: "Rod. Hélio Smidt"},
		},
		ChargingPoints: []domain.ChargingPoint{
			{ID: "cp-1", StationID: "st-1", Code: "A1", ConnectorTypeID: ccs2.ID, Status: domain.ChargingPointStatusAvailable},
			{ID: "cp-2", StationID: "st-1", Code: "A2", ConnectorTypeID: ccs2.ID, Status: domain.ChargingPointStatusAvailable},
			{ID: "cp-3", StationID: "st-1", Code: "B1", ConnectorTypeID: type2.ID, Status: domain.ChargingPointStatusAvailable},
			{ID: "cp-4", StationID: "st-1", Code: "A3", ConnectorTypeID: ccs2.ID, Status: domain.ChargingPointStatusMaintenance},
			{ID: "cp-5", StationID: "st-1", Code: "C1", ConnectorTypeID: chademo.ID, Status: domain.ChargingPointStatusAvailable},
			{ID: "cp-9", StationID: "st-2", Code: "A1", ConnectorTypeID: ccs2.ID, Status: domain.ChargingPointStatusAvailable},
		},
		CarModels: []domain.CarModel{
			{ID: "m-1", Brand: "BYD", Model: "Dolphin", BatteryCapacityKWh: 60, ConnectorTypes: []domain.ConnectorType{ccs2, type2}},
			{ID: "m-2", Brand: "Nissan", Model: "Leaf", BatteryCapacityKWh: 40, ConnectorTypes: []domain.ConnectorType{chademo}},
		},
		Vehicles: []domain.Vehicle{
			{ID: "v-1", UserID: "user-1", CarModelID: "m-1", LicensePlate: "ABC1D23"},
			{ID: "v-2", UserID: "user-2", CarModelID: "m-1", LicensePlate: "XYZ9F87"},
			{ID: "v-3", UserID: "user-3", CarModelID: "m-2", LicensePlate: "LEA0F01"},
		},
	}
}

// LoadMemory adds the catalog to an in-memory store.
func LoadMemory(store *memory.Store, c Catalog) {
	for _, ct := range c.ConnectorTypes {
		store.AddConnectorType(ct)
	}
	for _, st := range c.Stations {
		store.AddStation(st)
	}
	for _, cp := range c.ChargingPoints {
		store.AddChargingPoint(cp)
	}
	for _, m := range c.CarModels {
		store.AddCarModel(m)
	}
	for _, v := range c.Vehicles {
		store.AddVehicle(v)
	}
}

// LoadPostgres upserts the catalog. Existing rows keep their status.
func LoadPostgres(ctx context.Context, db *gorm.DB, c Catalog) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		skip := tx.Clauses(clause.OnConflict{DoNothing: true})
		if err := skip.Create(&c.ConnectorTypes).Error; err != nil {
			return fmt.Errorf("failed to seed connector types: %w", err)
		}
		if err := skip.Create(&c.Stations).Error; err != nil {
			return fmt.Errorf("failed to seed stations: %w", err)
		}
		if err := skip.Omit(clause.Associations).Create(&c.ChargingPoints).Error; err != nil {
			return fmt.Errorf("failed to seed charging points: %w", err)
		}
		if err := skip.Omit("ConnectorTypes.*").Create(&c.CarModels).Error; err != nil {
			return fmt.Errorf("failed to seed car models: %w", err)
		}
		if err := skip.Omit(clause.Associations).Create(&c.Vehicles).Error; err != nil {
			return fmt.Errorf("failed to seed vehicles: %w", err)
		}
		return nil
	})
}
