package availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/seu-repo/sigec-booking/internal/domain"
	"github.com/seu-repo/sigec-booking/internal/observability/telemetry"
	"github.com/seu-repo/sigec-booking/internal/ports"
	"github.com/seu-repo/sigec-booking/internal/service/estimator"
)

var tracer = otel.Tracer("github.com/seu-repo/sigec-booking/internal/service/availability")

// Finder searches the free windows of a station's charging points. Results
// are read without locks; ConfirmReservation re-validates every window.
type Finder struct {
	catalog      ports.CatalogService
	reservations ports.ReservationRepository
	pricing      ports.PricingReference
	config       *domain.ReservationConfig
	now          func() time.Time
	log          *zap.Logger
}

func NewFinder(
	catalog ports.CatalogService,
	reservations ports.ReservationRepository,
	pricing ports.PricingReference,
	config *domain.ReservationConfig,
	log *zap.Logger,
) *Finder {
	if config == nil {
		config = domain.DefaultReservationConfig()
	}
	return &Finder{
		catalog:      catalog,
		reservations: reservations,
		pricing:      pricing,
		config:       config,
		now:          time.Now,
		log:          log,
	}
}

// SetClock replaces the wall clock, for tests.
func (f *Finder) SetClock(now func() time.Time) {
	f.now = now
}

// FindAvailableSlots returns, per compatible and schedulable point, the gaps
// in the horizon long enough for the requested charge. The horizon starts at
// now truncated to the slot granularity, so repeated calls without writes in
// between return the same result.
func (f *Finder) FindAvailableSlots(ctx context.Context, q ports.SlotQuery) (*domain.StationAvailability, error) {
	ctx, span := tracer.Start(ctx, "availability.FindAvailableSlots")
	defer span.End()
	span.SetAttributes(
		attribute.String("station_id", q.StationID),
		attribute.String("vehicle_id", q.VehicleID),
	)

	started := time.Now()
	defer func() { telemetry.AvailabilityQueries.Observe(time.Since(started).Seconds()) }()

	if q.CurrentBattery < 0 || q.TargetBattery > 100 || q.TargetBattery <= q.CurrentBattery {
		return nil, &domain.InvalidRangeError{Current: q.CurrentBattery, Target: q.TargetBattery}
	}

	vehicle, err := f.catalog.GetVehicle(ctx, q.VehicleID)
	if err != nil {
		return nil, err
	}

	points, err := f.catalog.ListStationPoints(ctx, q.StationID)
	if err != nil {
		return nil, err
	}

	horizonStart := f.now().UTC().Truncate(f.config.SlotGranularity)
	horizonEnd := horizonStart.Add(f.config.Horizon)

	result := &domain.StationAvailability{
		StationID:      q.StationID,
		VehicleID:      q.VehicleID,
		HorizonStart:   horizonStart,
		HorizonEnd:     horizonEnd,
		ChargingPoints: []domain.PointAvailability{},
	}

	compatible := 0
	for i := range points {
		cp := &points[i]
		if !vehicle.Supports(cp.ConnectorTypeID) {
			continue
		}
		compatible++
		if !cp.Status.Schedulable() {
			continue
		}

		pa, err := f.pointAvailability(ctx, cp, vehicle, q, horizonStart, horizonEnd)
		if err != nil {
			if errors.Is(err, estimator.ErrInvalidRating) {
				f.log.Warn("Skipping charging point without a usable power rating",
					zap.String("charging_point_id", cp.ID),
				)
				continue
			}
			return nil, err
		}
		result.ChargingPoints = append(result.ChargingPoints, *pa)
	}

	if compatible == 0 {
		return nil, fmt.Errorf("%w: station %s has no connector for vehicle %s",
			domain.ErrNoCompatibleConnector, q.StationID, q.VehicleID)
	}

	f.log.Debug("Availability computed",
		zap.String("station_id", q.StationID),
		zap.String("vehicle_id", q.VehicleID),
		zap.Int("points", len(result.ChargingPoints)),
	)
	return result, nil
}

func (f *Finder) pointAvailability(
	ctx context.Context,
	cp *domain.ChargingPoint,
	vehicle *domain.Vehicle,
	q ports.SlotQuery,
	horizonStart, horizonEnd time.Time,
) (*domain.PointAvailability, error) {
	in := estimator.Input{
		BatteryCapacityKWh: vehicle.BatteryCapacityKWh(),
		CurrentBattery:     q.CurrentBattery,
		TargetBattery:      q.TargetBattery,
		PowerKW:            cp.PowerKW(),
	}
	est, err := estimator.Estimate(in)
	if err != nil {
		return nil, err
	}

	reservations, err := f.reservations.FindActiveByPoint(ctx, cp.ID, horizonStart)
	if err != nil {
		return nil, fmt.Errorf("failed to load reservations for %s: %w", cp.ID, err)
	}
	busy := make([]domain.Interval, 0, len(reservations))
	for i := range reservations {
		busy = append(busy, reservations[i].Interval())
	}

	required := time.Duration(est.RequiredMinutes) * time.Minute
	gaps := ComputeGaps(busy, horizonStart, horizonEnd, required)

	pa := &domain.PointAvailability{
		ChargingPointID: cp.ID,
		Code:            cp.Code,
		ConnectorTypeID: cp.ConnectorTypeID,
		PowerKW:         cp.PowerKW(),
		RequiredMinutes: est.RequiredMinutes,
		Slots:           make([]domain.AvailableTimeSlot, 0, len(gaps)),
	}
	if cp.ConnectorType != nil {
		pa.ConnectorName = cp.ConnectorType.Name
		pa.PricePerKWh = cp.ConnectorType.PricePerKWh
	}

	for _, gap := range gaps {
		quote := f.pricing.Quote(ctx, cp.ConnectorType, q.UserID, gap.Start)
		in.PricePerKWh = quote.Effective
		priced, err := estimator.Estimate(in)
		if err != nil {
			return nil, err
		}

		minutes := int(gap.Duration() / time.Minute)
		pa.Slots = append(pa.Slots, domain.AvailableTimeSlot{
			// The first gap may open up to one granularity step before now.
			// ConfirmReservation applies the same truncation, so it accepts it.
			FreeFrom:         gap.Start,
			FreeTo:           gap.End,
			AvailableMinutes: minutes,
			RequiredMinutes:  est.RequiredMinutes,
			EstimatedCost:    priced.EstimatedCost,
		})
		pa.TotalUsableMinutes += minutes
	}
	return pa, nil
}
