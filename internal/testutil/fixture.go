// Package testutil builds seeded in-memory environments for service tests.
package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/seu-repo/sigec-booking/internal/adapter/storage/memory"
	"github.com/seu-repo/sigec-booking/internal/adapter/storage/seed"
	"github.com/seu-repo/sigec-booking/internal/domain"
)

// Clock is a settable time source
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock(now time.Time) *Clock {
	return &Clock{now: now}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Identifiers from seed.Demo.
const (
	StationID      = "st-1"
	OtherStationID = "st-2"
	UserID         = "user-1"
	OtherUserID    = "user-2"
	VehicleID      = "v-1"
	OtherVehicleID = "v-2"
	ChademoVehicle = "v-3"
	CCS2           = "ccs2"
	Type2          = "type2"
	Chademo        = "chademo"
)

// Env wires memory repositories over one store.
type Env struct {
	Store         *memory.Store
	Stations      *memory.StationRepository
	Points        *memory.ChargingPointRepository
	Vehicles      *memory.VehicleRepository
	Reservations  *memory.ReservationRepository
	Sessions      *memory.SessionRepository
	Fees          *memory.FeeRepository
	Reassignments *memory.ReassignmentRepository
	Tx            *memory.Transactor
	Clock         *Clock
}

func NewEnv(now time.Time) *Env {
	store := memory.NewStore()
	Seed(store)
	return &Env{
		Store:         store,
		Stations:      memory.NewStationRepository(store),
		Points:        memory.NewChargingPointRepository(store),
		Vehicles:      memory.NewVehicleRepository(store),
		Reservations:  memory.NewReservationRepository(store),
		Sessions:      memory.NewSessionRepository(store),
		Fees:          memory.NewFeeRepository(store),
		Reassignments: memory.NewReassignmentRepository(store),
		Tx:            memory.NewTransactor(store),
		Clock:         NewClock(now),
	}
}

// Seed loads the demo catalog.
func Seed(store *memory.Store) {
	seed.LoadMemory(store, seed.Demo())
}

// Book inserts an active reservation directly, bypassing the ledger.
func (e *Env) Book(id, pointID string, start, end time.Time, status domain.ReservationStatus) *domain.Reservation {
	cp, _ := e.Points.FindByID(context.Background(), pointID)
	r := &domain.Reservation{
		ID:                id,
		UserID:            UserID,
		VehicleID:         VehicleID,
		ChargingPointID:   pointID,
		StartTime:         start,
		EndTime:           end,
		StartBattery:      20,
		TargetBattery:     80,
		PricePerKWh:       decimal.RequireFromString("2.00"),
		EnergyEstimateKWh: 36,
		EstimatedCost:     decimal.RequireFromString("72.00"),
		Status:            status,
		CreatedAt:         e.Clock.Now(),
		UpdatedAt:         e.Clock.Now(),
	}
	if cp != nil {
		r.StationID = cp.StationID
		r.ConnectorTypeID = cp.ConnectorTypeID
	}
	_ = e.Reservations.Create(context.Background(), r)
	return r
}
