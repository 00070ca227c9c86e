// Package memory keeps the booking data in process memory. It backs the
// "memory" storage driver and the service unit tests.
package memory

import (
	"context"
	"sync"

	"github.com/seu-repo/sigec-booking/internal/domain"
)

// Store holds every table. All repositories built on the same Store share it.
type Store struct {
	mu sync.RWMutex

	stations      map[string]domain.Station
	connectors    map[string]domain.ConnectorType
	points        map[string]domain.ChargingPoint
	carModels     map[string]domain.CarModel
	vehicles      map[string]domain.Vehicle
	reservations  map[string]domain.Reservation
	sessions      map[string]domain.Session
	fees          map[string]domain.Fee
	feeKeys       map[string]string
	reassignments []domain.ReassignmentRecord
}

func NewStore() *Store {
	return &Store{
		stations:     make(map[string]domain.Station),
		connectors:   make(map[string]domain.ConnectorType),
		points:       make(map[string]domain.ChargingPoint),
		carModels:    make(map[string]domain.CarModel),
		vehicles:     make(map[string]domain.Vehicle),
		reservations: make(map[string]domain.Reservation),
		sessions:     make(map[string]domain.Session),
		fees:         make(map[string]domain.Fee),
		feeKeys:      make(map[string]string),
	}
}

// Reference data setters. The catalog is owned elsewhere; these exist to load it.

func (s *Store) AddStation(st domain.Station) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stations[st.ID] = st
}

func (s *Store) AddConnectorType(ct domain.ConnectorType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connectors[ct.ID] = ct
}

func (s *Store) AddChargingPoint(cp domain.ChargingPoint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp.ConnectorType = nil
	s.points[cp.ID] = cp
}

func (s *Store) AddCarModel(m domain.CarModel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.carModels[m.ID] = m
}

func (s *Store) AddVehicle(v domain.Vehicle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v.CarModel = nil
	s.vehicles[v.ID] = v
}

// journal records how to revert the writes made inside one transaction.
type journal struct {
	undo []func()
}

type txKey struct{}

// record registers an undo step when ctx carries a transaction. Callers hold s.mu.
func (s *Store) record(ctx context.Context, fn func()) {
	if j, ok := ctx.Value(txKey{}).(*journal); ok {
		j.undo = append(j.undo, fn)
	}
}

// Transactor gives all-or-nothing semantics over a Store by rolling back the
// journaled writes when fn fails. Isolation between concurrent transactions
// comes from the per-point locks held by the callers.
type Transactor struct {
	store *Store
}

func NewTransactor(store *Store) *Transactor {
	return &Transactor{store: store}
}

func (t *Transactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*journal); ok {
		return fn(ctx)
	}

	j := &journal{}
	if err := fn(context.WithValue(ctx, txKey{}, j)); err != nil {
		t.store.mu.Lock()
		for i := len(j.undo) - 1; i >= 0; i-- {
			j.undo[i]()
		}
		t.store.mu.Unlock()
		return err
	}
	return nil
}
