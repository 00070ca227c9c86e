package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/sigec-booking/internal/domain"
	"github.com/seu-repo/sigec-booking/internal/ports"
)

const defaultTTL = 30 * time.Second

// Service is the read view over charging points and vehicles. Station point
// lists are cached; single-point reads always hit the repository because the
// ledger relies on the current administrative status.
type Service struct {
	points   ports.ChargingPointRepository
	vehicles ports.VehicleRepository
	cache    ports.Cache
	ttl      time.Duration
	log      *zap.Logger
}

// NewService creates the catalog service. cache may be nil.
func NewService(points ports.ChargingPointRepository, vehicles ports.VehicleRepository, cache ports.Cache, ttl time.Duration, log *zap.Logger) *Service {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Service{
		points:   points,
		vehicles: vehicles,
		cache:    cache,
		ttl:      ttl,
		log:      log,
	}
}

func stationKey(stationID string) string {
	return "catalog:station:" + stationID + ":points"
}

func (s *Service) GetChargingPoint(ctx context.Context, id string) (*domain.ChargingPoint, error) {
	cp, err := s.points.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load charging point: %w", err)
	}
	if cp == nil {
		return nil, &domain.NotFoundError{Entity: "charging point", ID: id}
	}
	return cp, nil
}

func (s *Service) ListStationPoints(ctx context.Context, stationID string) ([]domain.ChargingPoint, error) {
	key := stationKey(stationID)
	if s.cache != nil {
		if val, err := s.cache.Get(ctx, key); err == nil && val != "" {
			var cached []domain.ChargingPoint
			if err := json.Unmarshal([]byte(val), &cached); err == nil {
				return cached, nil
			}
			s.log.Warn("Discarding unreadable catalog cache entry", zap.String("key", key))
		}
	}

	list, err := s.points.FindByStation(ctx, stationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list charging points: %w", err)
	}

	if s.cache != nil && len(list) > 0 {
		if err := s.cache.Set(ctx, key, list, s.ttl); err != nil {
			s.log.Warn("Failed to cache station points",
				zap.String("station_id", stationID),
				zap.Error(err),
			)
		}
	}
	return list, nil
}

func (s *Service) GetVehicle(ctx context.Context, id string) (*domain.Vehicle, error) {
	v, err := s.vehicles.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load vehicle: %w", err)
	}
	if v == nil {
		return nil, &domain.NotFoundError{Entity: "vehicle", ID: id}
	}
	return v, nil
}

func (s *Service) Invalidate(ctx context.Context, stationID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, stationKey(stationID)); err != nil {
		s.log.Warn("Failed to invalidate catalog cache",
			zap.String("station_id", stationID),
			zap.Error(err),
		)
	}
}
