package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/sigec-booking/internal/domain"
	"github.com/seu-repo/sigec-booking/internal/mocks"
)

func TestListStationPoints_UsesCacheUntilInvalidated(t *testing.T) {
	// Arrange
	ctx := context.Background()
	calls := 0
	status := domain.ChargingPointStatusAvailable
	points := &mocks.MockChargingPointRepository{
		FindByStationFunc: func(ctx context.Context, stationID string) ([]domain.ChargingPoint, error) {
			calls++
			return []domain.ChargingPoint{{ID: "cp-1", StationID: stationID, Status: status}}, nil
		},
	}
	cache := mocks.NewMockCache()
	svc := NewService(points, &mocks.MockVehicleRepository{}, cache, time.Minute, zap.NewNop())

	// Act
	first, err := svc.ListStationPoints(ctx, "st-1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	status = domain.ChargingPointStatusMaintenance
	second, err := svc.ListStationPoints(ctx, "st-1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	// Assert
	if calls != 1 {
		t.Errorf("expected 1 repository call, got %d", calls)
	}
	if second[0].Status != first[0].Status {
		t.Errorf("expected cached status %s, got %s", first[0].Status, second[0].Status)
	}

	svc.Invalidate(ctx, "st-1")
	if cache.Has(stationKey("st-1")) {
		t.Error("expected cache entry to be removed")
	}

	third, err := svc.ListStationPoints(ctx, "st-1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 2 repository calls, got %d", calls)
	}
	if third[0].Status != domain.ChargingPointStatusMaintenance {
		t.Errorf("expected fresh status MAINTENANCE, got %s", third[0].Status)
	}
}

func TestListStationPoints_CacheFailureIsNotFatal(t *testing.T) {
	ctx := context.Background()
	points := &mocks.MockChargingPointRepository{
		FindByStationFunc: func(ctx context.Context, stationID string) ([]domain.ChargingPoint, error) {
			return []domain.ChargingPoint{{ID: "cp-1"}}, nil
		},
	}
	cache := &mocks.MockCache{
		GetFunc: func(ctx context.Context, key string) (string, error) {
			return "", errors.New("redis down")
		},
		SetFunc: func(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
			return errors.New("redis down")
		},
	}
	svc := NewService(points, &mocks.MockVehicleRepository{}, cache, time.Minute, zap.NewNop())

	list, err := svc.ListStationPoints(ctx, "st-1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(list) != 1 {
		t.Errorf("expected 1 point, got %d", len(list))
	}
}

func TestGetChargingPoint_NotFound(t *testing.T) {
	svc := NewService(&mocks.MockChargingPointRepository{}, &mocks.MockVehicleRepository{}, nil, 0, zap.NewNop())

	_, err := svc.GetChargingPoint(context.Background(), "missing")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestGetVehicle_NotFound(t *testing.T) {
	svc := NewService(&mocks.MockChargingPointRepository{}, &mocks.MockVehicleRepository{}, nil, 0, zap.NewNop())

	_, err := svc.GetVehicle(context.Background(), "missing")
	var nf *domain.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if nf.Entity != "vehicle" {
		t.Errorf("expected entity 'vehicle', got '%s'", nf.Entity)
	}
}
