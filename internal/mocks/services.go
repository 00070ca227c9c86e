package mocks

import (
	"context"
	"sync"

	"github.com/seu-repo/sigec-booking/internal/domain"
	"github.com/seu-repo/sigec-booking/internal/ports"
)

// MockEventPublisher records published events
type MockEventPublisher struct {
	mu     sync.Mutex
	Events []domain.Event
}

func NewMockEventPublisher() *MockEventPublisher {
	return &MockEventPublisher{}
}

func (m *MockEventPublisher) Publish(ctx context.Context, event domain.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, event)
}

// OfType returns the recorded events with the given type
func (m *MockEventPublisher) OfType(t domain.EventType) []domain.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []domain.Event
	for _, e := range m.Events {
		if e.Type == t {
			result = append(result, e)
		}
	}
	return result
}

// MockPointLocker is a mock implementation of PointLocker
type MockPointLocker struct {
	LockFunc func(ctx context.Context, pointIDs ...string) (func(), error)
}

func (m *MockPointLocker) Lock(ctx context.Context, pointIDs ...string) (func(), error) {
	if m.LockFunc != nil {
		return m.LockFunc(ctx, pointIDs...)
	}
	return func() {}, nil
}

// MockAvailabilityService is a mock implementation of AvailabilityService
type MockAvailabilityService struct {
	FindAvailableSlotsFunc func(ctx context.Context, q ports.SlotQuery) (*domain.StationAvailability, error)
}

func (m *MockAvailabilityService) FindAvailableSlots(ctx context.Context, q ports.SlotQuery) (*domain.StationAvailability, error) {
	if m.FindAvailableSlotsFunc != nil {
		return m.FindAvailableSlotsFunc(ctx, q)
	}
	return &domain.StationAvailability{StationID: q.StationID, VehicleID: q.VehicleID}, nil
}

// MockReservationService is a mock implementation of ReservationService
type MockReservationService struct {
	ConfirmReservationFunc   func(ctx context.Context, req ports.ConfirmRequest) (*domain.Reservation, error)
	CancelReservationFunc    func(ctx context.Context, req ports.CancelRequest) (*ports.CancelResult, error)
	StartSessionFunc         func(ctx context.Context, reservationID string, actor domain.Actor) (*domain.Session, error)
	CompleteSessionFunc      func(ctx context.Context, req ports.CompleteRequest) (*ports.CompleteResult, error)
	ExpireNoShowFunc         func(ctx context.Context, reservationID string) (*domain.Fee, error)
	FlagOvertimeFunc         func(ctx context.Context, reservationID string) (bool, error)
	GetReservationFunc       func(ctx context.Context, id string, actor domain.Actor) (*domain.Reservation, error)
	ListUserReservationsFunc func(ctx context.Context, userID string, limit, offset int) ([]domain.Reservation, error)
	GetSessionFunc           func(ctx context.Context, id string, actor domain.Actor) (*domain.Session, error)
	ListFeesFunc             func(ctx context.Context, reservationID string, actor domain.Actor) ([]domain.Fee, error)
}

func (m *MockReservationService) ConfirmReservation(ctx context.Context, req ports.ConfirmRequest) (*domain.Reservation, error) {
	if m.ConfirmReservationFunc != nil {
		return m.ConfirmReservationFunc(ctx, req)
	}
	return nil, nil
}

func (m *MockReservationService) CancelReservation(ctx context.Context, req ports.CancelRequest) (*ports.CancelResult, error) {
	if m.CancelReservationFunc != nil {
		return m.CancelReservationFunc(ctx, req)
	}
	return nil, nil
}

func (m *MockReservationService) StartSession(ctx context.Context, reservationID string, actor domain.Actor) (*domain.Session, error) {
	if m.StartSessionFunc != nil {
		return m.StartSessionFunc(ctx, reservationID, actor)
	}
	return nil, nil
}

func (m *MockReservationService) CompleteSession(ctx context.Context, req ports.CompleteRequest) (*ports.CompleteResult, error) {
	if m.CompleteSessionFunc != nil {
		return m.CompleteSessionFunc(ctx, req)
	}
	return nil, nil
}

func (m *MockReservationService) ExpireNoShow(ctx context.Context, reservationID string) (*domain.Fee, error) {
	if m.ExpireNoShowFunc != nil {
		return m.ExpireNoShowFunc(ctx, reservationID)
	}
	return nil, nil
}

func (m *MockReservationService) FlagOvertime(ctx context.Context, reservationID string) (bool, error) {
	if m.FlagOvertimeFunc != nil {
		return m.FlagOvertimeFunc(ctx, reservationID)
	}
	return false, nil
}

func (m *MockReservationService) GetReservation(ctx context.Context, id string, actor domain.Actor) (*domain.Reservation, error) {
	if m.GetReservationFunc != nil {
		return m.GetReservationFunc(ctx, id, actor)
	}
	return nil, nil
}

func (m *MockReservationService) ListUserReservations(ctx context.Context, userID string, limit, offset int) ([]domain.Reservation, error) {
	if m.ListUserReservationsFunc != nil {
		return m.ListUserReservationsFunc(ctx, userID, limit, offset)
	}
	return nil, nil
}

func (m *MockReservationService) GetSession(ctx context.Context, id string, actor domain.Actor) (*domain.Session, error) {
	if m.GetSessionFunc != nil {
		return m.GetSessionFunc(ctx, id, actor)
	}
	return nil, nil
}

func (m *MockReservationService) ListFees(ctx context.Context, reservationID string, actor domain.Actor) ([]domain.Fee, error) {
	if m.ListFeesFunc != nil {
		return m.ListFeesFunc(ctx, reservationID, actor)
	}
	return nil, nil
}

// MockReassignmentService is a mock implementation of ReassignmentService
type MockReassignmentService struct {
	FindAlternativePointsFunc func(ctx context.Context, reservationID, currentPointID string) ([]domain.ChargingPoint, error)
	ReassignPointFunc         func(ctx context.Context, req ports.ReassignRequest) (*domain.Reservation, error)
}

func (m *MockReassignmentService) FindAlternativePoints(ctx context.Context, reservationID, currentPointID string) ([]domain.ChargingPoint, error) {
	if m.FindAlternativePointsFunc != nil {
		return m.FindAlternativePointsFunc(ctx, reservationID, currentPointID)
	}
	return nil, nil
}

func (m *MockReassignmentService) ReassignPoint(ctx context.Context, req ports.ReassignRequest) (*domain.Reservation, error) {
	if m.ReassignPointFunc != nil {
		return m.ReassignPointFunc(ctx, req)
	}
	return nil, nil
}
