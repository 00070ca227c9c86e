package postgres

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/seu-repo/sigec-booking/internal/domain"
)

type StationRepository struct {
	db *gorm.DB
}

func NewStationRepository(db *gorm.DB) *StationRepository {
	return &StationRepository{db: db}
}

func (r *StationRepository) FindByID(ctx context.Context, id string) (*domain.Station, error) {
	var st domain.Station
	err := conn(ctx, r.db).First(&st, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &st, nil
}

type ChargingPointRepository struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewChargingPointRepository(db *gorm.DB, log *zap.Logger) *ChargingPointRepository {
	return &ChargingPointRepository{
		db:  db,
		log: log,
	}
}

func (r *ChargingPointRepository) Save(ctx context.Context, cp *domain.ChargingPoint) error {
	result := conn(ctx, r.db).Omit(clause.Associations).Save(cp)
	if result.Error != nil {
		r.log.Error("Failed to save charging point", zap.String("charging_point_id", cp.ID), zap.Error(result.Error))
		return result.Error
	}
	return nil
}

func (r *ChargingPointRepository) FindByID(ctx context.Context, id string) (*domain.ChargingPoint, error) {
	var cp domain.ChargingPoint
	result := conn(ctx, r.db).Preload("ConnectorType").First(&cp, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &cp, nil
}

func (r *ChargingPointRepository) FindByStation(ctx context.Context, stationID string) ([]domain.ChargingPoint, error) {
	var cps []domain.ChargingPoint
	result := conn(ctx, r.db).
		Preload("ConnectorType").
		Where("station_id = ?", stationID).
		Order("id").
		Find(&cps)
	if result.Error != nil {
		return nil, result.Error
	}
	return cps, nil
}

func (r *ChargingPointRepository) UpdateStatus(ctx context.Context, id string, status domain.ChargingPointStatus) error {
	result := conn(ctx, r.db).
		Model(&domain.ChargingPoint{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return &domain.NotFoundError{Entity: "charging point", ID: id}
	}
	return nil
}

type VehicleRepository struct {
	db *gorm.DB
}

func NewVehicleRepository(db *gorm.DB) *VehicleRepository {
	return &VehicleRepository{db: db}
}

func (r *VehicleRepository) FindByID(ctx context.Context, id string) (*domain.Vehicle, error) {
	var v domain.Vehicle
	err := conn(ctx, r.db).Preload("CarModel.ConnectorTypes").First(&v, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &v, nil
}
