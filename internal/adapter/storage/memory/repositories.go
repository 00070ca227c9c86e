package memory

import (
	"context"
	"sort"
	"time"

	"github.com/seu-repo/sigec-booking/internal/domain"
)

// Station

type StationRepository struct{ store *Store }

func NewStationRepository(store *Store) *StationRepository {
	return &StationRepository{store: store}
}

func (r *StationRepository) FindByID(ctx context.Context, id string) (*domain.Station, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	st, ok := r.store.stations[id]
	if !ok {
		return nil, nil
	}
	return &st, nil
}

// Charging point

type ChargingPointRepository struct{ store *Store }

func NewChargingPointRepository(store *Store) *ChargingPointRepository {
	return &ChargingPointRepository{store: store}
}

func (r *ChargingPointRepository) Save(ctx context.Context, cp *domain.ChargingPoint) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	id := cp.ID
	prev, existed := r.store.points[id]
	stored := *cp
	stored.ConnectorType = nil
	r.store.points[id] = stored
	r.store.record(ctx, func() {
		if existed {
			r.store.points[id] = prev
		} else {
			delete(r.store.points, id)
		}
	})
	return nil
}

func (r *ChargingPointRepository) FindByID(ctx context.Context, id string) (*domain.ChargingPoint, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	cp, ok := r.store.points[id]
	if !ok {
		return nil, nil
	}
	return r.withConnector(cp), nil
}

func (r *ChargingPointRepository) FindByStation(ctx context.Context, stationID string) ([]domain.ChargingPoint, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var result []domain.ChargingPoint
	for _, cp := range r.store.points {
		if cp.StationID == stationID {
			result = append(result, *r.withConnector(cp))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (r *ChargingPointRepository) UpdateStatus(ctx context.Context, id string, status domain.ChargingPointStatus) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cp, ok := r.store.points[id]
	if !ok {
		return &domain.NotFoundError{Entity: "charging point", ID: id}
	}
	prev := cp
	cp.Status = status
	cp.UpdatedAt = time.Now().UTC()
	r.store.points[id] = cp
	r.store.record(ctx, func() { r.store.points[id] = prev })
	return nil
}

func (r *ChargingPointRepository) withConnector(cp domain.ChargingPoint) *domain.ChargingPoint {
	if ct, ok := r.store.connectors[cp.ConnectorTypeID]; ok {
		cp.ConnectorType = &ct
	}
	return &cp
}

// Vehicle

type VehicleRepository struct{ store *Store }

func NewVehicleRepository(store *Store) *VehicleRepository {
	return &VehicleRepository{store: store}
}

func (r *VehicleRepository) FindByID(ctx context.Context, id string) (*domain.Vehicle, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	v, ok := r.store.vehicles[id]
	if !ok {
		return nil, nil
	}
	if m, ok := r.store.carModels[v.CarModelID]; ok {
		m.ConnectorTypes = append([]domain.ConnectorType(nil), m.ConnectorTypes...)
		v.CarModel = &m
	}
	return &v, nil
}

// Reservation

type ReservationRepository struct{ store *Store }

func NewReservationRepository(store *Store) *ReservationRepository {
	return &ReservationRepository{store: store}
}

func (r *ReservationRepository) Create(ctx context.Context, res *domain.Reservation) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	id := res.ID
	r.store.reservations[id] = *res
	r.store.record(ctx, func() { delete(r.store.reservations, id) })
	return nil
}

func (r *ReservationRepository) Update(ctx context.Context, res *domain.Reservation) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	id := res.ID
	prev, ok := r.store.reservations[id]
	if !ok {
		return &domain.NotFoundError{Entity: "reservation", ID: id}
	}
	r.store.reservations[id] = *res
	r.store.record(ctx, func() { r.store.reservations[id] = prev })
	return nil
}

func (r *ReservationRepository) FindByID(ctx context.Context, id string) (*domain.Reservation, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	res, ok := r.store.reservations[id]
	if !ok {
		return nil, nil
	}
	return &res, nil
}

func (r *ReservationRepository) FindByUserID(ctx context.Context, userID string, limit, offset int) ([]domain.Reservation, error) {
	result := r.filter(func(res *domain.Reservation) bool { return res.UserID == userID })
	sort.Slice(result, func(i, j int) bool { return result[i].StartTime.After(result[j].StartTime) })
	return page(result, limit, offset), nil
}

func (r *ReservationRepository) FindActiveByPoint(ctx context.Context, pointID string, after time.Time) ([]domain.Reservation, error) {
	result := r.filter(func(res *domain.Reservation) bool {
		return res.ChargingPointID == pointID && res.Status.IsActive() && res.EndTime.After(after)
	})
	sortByStart(result)
	return result, nil
}

func (r *ReservationRepository) FindOverlapping(ctx context.Context, pointID string, start, end time.Time, excludeID string) ([]domain.Reservation, error) {
	result := r.filter(func(res *domain.Reservation) bool {
		return res.ChargingPointID == pointID &&
			res.ID != excludeID &&
			res.Status.IsActive() &&
			res.Overlaps(start, end)
	})
	sortByStart(result)
	return result, nil
}

func (r *ReservationRepository) FindNoShowCandidates(ctx context.Context, cutoff time.Time, after domain.ScanCursor, limit int) ([]domain.Reservation, error) {
	result := r.filter(func(res *domain.Reservation) bool {
		return res.Status == domain.ReservationStatusBooked && res.StartTime.Before(cutoff) && after.Before(res)
	})
	sortByStart(result)
	return page(result, limit, 0), nil
}

func (r *ReservationRepository) FindOvertimeCandidates(ctx context.Context, now time.Time, after domain.ScanCursor, limit int) ([]domain.Reservation, error) {
	result := r.filter(func(res *domain.Reservation) bool {
		return res.Status == domain.ReservationStatusCharging &&
			res.EndTime.Before(now) &&
			res.OvertimeNotifiedAt == nil &&
			after.Before(res)
	})
	sortByStart(result)
	return page(result, limit, 0), nil
}

func (r *ReservationRepository) filter(keep func(*domain.Reservation) bool) []domain.Reservation {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var result []domain.Reservation
	for _, res := range r.store.reservations {
		if keep(&res) {
			result = append(result, res)
		}
	}
	return result
}

func sortByStart(list []domain.Reservation) {
	sort.Slice(list, func(i, j int) bool {
		if list[i].StartTime.Equal(list[j].StartTime) {
			return list[i].ID < list[j].ID
		}
		return list[i].StartTime.Before(list[j].StartTime)
	})
}

func page(list []domain.Reservation, limit, offset int) []domain.Reservation {
	if offset >= len(list) {
		return nil
	}
	list = list[offset:]
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list
}

// Session

type SessionRepository struct{ store *Store }

func NewSessionRepository(store *Store) *SessionRepository {
	return &SessionRepository{store: store}
}

func (r *SessionRepository) Create(ctx context.Context, s *domain.Session) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	id := s.ID
	stored := *s
	stored.Fees = nil
	r.store.sessions[id] = stored
	r.store.record(ctx, func() { delete(r.store.sessions, id) })
	return nil
}

func (r *SessionRepository) Update(ctx context.Context, s *domain.Session) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	id := s.ID
	prev, ok := r.store.sessions[id]
	if !ok {
		return &domain.NotFoundError{Entity: "session", ID: id}
	}
	stored := *s
	stored.Fees = nil
	r.store.sessions[id] = stored
	r.store.record(ctx, func() { r.store.sessions[id] = prev })
	return nil
}

func (r *SessionRepository) FindByID(ctx context.Context, id string) (*domain.Session, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	s, ok := r.store.sessions[id]
	if !ok {
		return nil, nil
	}
	return r.withFees(s), nil
}

func (r *SessionRepository) FindByReservationID(ctx context.Context, reservationID string) (*domain.Session, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	for _, s := range r.store.sessions {
		if s.ReservationID == reservationID {
			return r.withFees(s), nil
		}
	}
	return nil, nil
}

func (r *SessionRepository) withFees(s domain.Session) *domain.Session {
	for _, f := range r.store.fees {
		if f.SessionID != nil && *f.SessionID == s.ID {
			s.Fees = append(s.Fees, f)
		}
	}
	sortFees(s.Fees)
	return &s
}

// Fee

type FeeRepository struct{ store *Store }

func NewFeeRepository(store *Store) *FeeRepository {
	return &FeeRepository{store: store}
}

func (r *FeeRepository) Create(ctx context.Context, fee *domain.Fee) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	key := fee.OwnerKey()
	if _, exists := r.store.feeKeys[key]; exists {
		return domain.ErrDuplicateFee
	}
	id := fee.ID
	r.store.fees[id] = *fee
	r.store.feeKeys[key] = id
	r.store.record(ctx, func() {
		delete(r.store.fees, id)
		delete(r.store.feeKeys, key)
	})
	return nil
}

func (r *FeeRepository) FindByReservationID(ctx context.Context, reservationID string) ([]domain.Fee, error) {
	return r.filter(func(f *domain.Fee) bool {
		return f.ReservationID != nil && *f.ReservationID == reservationID
	}), nil
}

func (r *FeeRepository) FindBySessionID(ctx context.Context, sessionID string) ([]domain.Fee, error) {
	return r.filter(func(f *domain.Fee) bool {
		return f.SessionID != nil && *f.SessionID == sessionID
	}), nil
}

func (r *FeeRepository) FindByUserID(ctx context.Context, userID string) ([]domain.Fee, error) {
	return r.filter(func(f *domain.Fee) bool { return f.UserID == userID }), nil
}

func (r *FeeRepository) filter(keep func(*domain.Fee) bool) []domain.Fee {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var result []domain.Fee
	for _, f := range r.store.fees {
		if keep(&f) {
			result = append(result, f)
		}
	}
	sortFees(result)
	return result
}

func sortFees(list []domain.Fee) {
	sort.Slice(list, func(i, j int) bool {
		if list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].ID < list[j].ID
		}
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})
}

// Reassignment

type ReassignmentRepository struct{ store *Store }

func NewReassignmentRepository(store *Store) *ReassignmentRepository {
	return &ReassignmentRepository{store: store}
}

func (r *ReassignmentRepository) Create(ctx context.Context, rec *domain.ReassignmentRecord) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.reassignments = append(r.store.reassignments, *rec)
	id := rec.ID
	r.store.record(ctx, func() {
		kept := r.store.reassignments[:0]
		for _, existing := range r.store.reassignments {
			if existing.ID != id {
				kept = append(kept, existing)
			}
		}
		r.store.reassignments = kept
	})
	return nil
}

func (r *ReassignmentRepository) FindByReservationID(ctx context.Context, reservationID string) ([]domain.ReassignmentRecord, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var result []domain.ReassignmentRecord
	for _, rec := range r.store.reassignments {
		if rec.ReservationID == reservationID {
			result = append(result, rec)
		}
	}
	return result, nil
}
