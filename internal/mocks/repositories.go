package mocks

import (
	"context"

	"github.com/seu-repo/sigec-booking/internal/domain"
)

// MockChargingPointRepository is a mock implementation of ChargingPointRepository
type MockChargingPointRepository struct {
	SaveFunc          func(ctx context.Context, cp *domain.ChargingPoint) error
	FindByIDFunc      func(ctx context.Context, id string) (*domain.ChargingPoint, error)
	FindByStationFunc func(ctx context.Context, stationID string) ([]domain.ChargingPoint, error)
	UpdateStatusFunc  func(ctx context.Context, id string, status domain.ChargingPointStatus) error
}

func (m *MockChargingPointRepository) Save(ctx context.Context, cp *domain.ChargingPoint) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, cp)
	}
	return nil
}

func (m *MockChargingPointRepository) FindByID(ctx context.Context, id string) (*domain.ChargingPoint, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockChargingPointRepository) FindByStation(ctx context.Context, stationID string) ([]domain.ChargingPoint, error) {
	if m.FindByStationFunc != nil {
		return m.FindByStationFunc(ctx, stationID)
	}
	return nil, nil
}

func (m *MockChargingPointRepository) UpdateStatus(ctx context.Context, id string, status domain.ChargingPointStatus) error {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, id, status)
	}
	return nil
}

// MockVehicleRepository is a mock implementation of VehicleRepository
type MockVehicleRepository struct {
	FindByIDFunc func(ctx context.Context, id string) (*domain.Vehicle, error)
}

func (m *MockVehicleRepository) FindByID(ctx context.Context, id string) (*domain.Vehicle, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	return nil, nil
}
