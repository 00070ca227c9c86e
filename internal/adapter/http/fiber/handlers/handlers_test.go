package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/seu-repo/sigec-booking/internal/adapter/http/fiber/middleware"
	"github.com/seu-repo/sigec-booking/internal/domain"
	"github.com/seu-repo/sigec-booking/internal/mocks"
	"github.com/seu-repo/sigec-booking/internal/ports"
)

type staticVerifier map[string]domain.Actor

func (v staticVerifier) Verify(token string) (domain.Actor, error) {
	if actor, ok := v[token]; ok {
		return actor, nil
	}
	return domain.Actor{}, errors.New("unknown token")
}

var verifier = staticVerifier{
	"driver": {ID: "user-1", Role: domain.UserRoleUser},
	"staff":  {ID: "op-1", Role: domain.UserRoleOperator},
}

func newApp() *fiber.App {
	return fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler(zap.NewNop())})
}

func call(t *testing.T, app *fiber.App, method, path, token string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		require.NoError(t, err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]interface{}
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp.StatusCode, decoded
}

func TestAvailabilityHandler_Get(t *testing.T) {
	var got ports.SlotQuery
	svc := &mocks.MockAvailabilityService{
		FindAvailableSlotsFunc: func(ctx context.Context, q ports.SlotQuery) (*domain.StationAvailability, error) {
			got = q
			return &domain.StationAvailability{StationID: q.StationID, VehicleID: q.VehicleID}, nil
		},
	}
	app := newApp()
	NewAvailabilityHandler(svc, zap.NewNop()).RegisterRoutes(app, middleware.AuthRequired(verifier))

	status, body := call(t, app, "GET", "/api/v1/stations/st-1/availability?vehicle_id=v-1&current=20&target=80", "driver", nil)

	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, ports.SlotQuery{StationID: "st-1", VehicleID: "v-1", UserID: "user-1", CurrentBattery: 20, TargetBattery: 80}, got)
	assert.Equal(t, "st-1", body["station_id"])
}

func TestAvailabilityHandler_Errors(t *testing.T) {
	svc := &mocks.MockAvailabilityService{
		FindAvailableSlotsFunc: func(ctx context.Context, q ports.SlotQuery) (*domain.StationAvailability, error) {
			if q.TargetBattery <= q.CurrentBattery {
				return nil, &domain.InvalidRangeError{Current: q.CurrentBattery, Target: q.TargetBattery}
			}
			return nil, domain.ErrNoCompatibleConnector
		},
	}
	app := newApp()
	NewAvailabilityHandler(svc, zap.NewNop()).RegisterRoutes(app, middleware.AuthRequired(verifier))

	status, _ := call(t, app, "GET", "/api/v1/stations/st-1/availability?current=20&target=80", "driver", nil)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, body := call(t, app, "GET", "/api/v1/stations/st-1/availability?vehicle_id=v-1&current=80&target=20", "driver", nil)
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)
	assert.Equal(t, "INVALID_RANGE", body["code"])

	status, body = call(t, app, "GET", "/api/v1/stations/st-1/availability?vehicle_id=v-1&current=20&target=80", "driver", nil)
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)
	assert.Equal(t, "NO_COMPATIBLE_CONNECTOR", body["code"])
}

func TestReassignmentHandler_StaffOnly(t *testing.T) {
	called := false
	svc := &mocks.MockReassignmentService{
		ReassignPointFunc: func(ctx context.Context, req ports.ReassignRequest) (*domain.Reservation, error) {
			called = true
			return &domain.Reservation{ID: req.ReservationID, ChargingPointID: req.NewPointID}, nil
		},
	}
	app := newApp()
	NewReassignmentHandler(svc, zap.NewNop()).RegisterRoutes(app, middleware.AuthRequired(verifier))

	status, _ := call(t, app, "POST", "/api/v1/reservations/r-1/reassign", "driver", map[string]string{"new_point_id": "cp-2"})

	assert.Equal(t, fiber.StatusForbidden, status)
	assert.False(t, called)
}

func TestReassignmentHandler_Reassign(t *testing.T) {
	var got ports.ReassignRequest
	svc := &mocks.MockReassignmentService{
		ReassignPointFunc: func(ctx context.Context, req ports.ReassignRequest) (*domain.Reservation, error) {
			got = req
			return &domain.Reservation{ID: req.ReservationID, ChargingPointID: req.NewPointID}, nil
		},
	}
	app := newApp()
	NewReassignmentHandler(svc, zap.NewNop()).RegisterRoutes(app, middleware.AuthRequired(verifier))

	status, body := call(t, app, "POST", "/api/v1/reservations/r-1/reassign", "staff", map[string]string{
		"current_point_id": "cp-1",
		"new_point_id":     "cp-2",
		"reason":           "cable damaged",
	})

	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "cp-2", body["charging_point_id"])
	assert.Equal(t, ports.ReassignRequest{
		ReservationID:  "r-1",
		CurrentPointID: "cp-1",
		NewPointID:     "cp-2",
		Reason:         "cable damaged",
		Actor:          domain.Actor{ID: "op-1", Role: domain.UserRoleOperator},
	}, got)
}

func TestReassignmentHandler_RuleViolation(t *testing.T) {
	tests := []struct {
		name   string
		rule   domain.ReassignmentRule
		status int
	}{
		{"connector mismatch", domain.RuleConnectorMismatch, fiber.StatusConflict},
		{"slot conflict", domain.RuleSlotConflict, fiber.StatusConflict},
		{"not found", domain.RuleNotFound, fiber.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mocks.MockReassignmentService{
				ReassignPointFunc: func(ctx context.Context, req ports.ReassignRequest) (*domain.Reservation, error) {
					return nil, &domain.ReassignmentError{Rule: tt.rule}
				},
			}
			app := newApp()
			NewReassignmentHandler(svc, zap.NewNop()).RegisterRoutes(app, middleware.AuthRequired(verifier))

			status, body := call(t, app, "POST", "/api/v1/reservations/r-1/reassign", "staff", map[string]string{"new_point_id": "cp-2"})

			assert.Equal(t, tt.status, status)
			assert.Equal(t, "REASSIGNMENT_REJECTED", body["code"])
			assert.Equal(t, string(tt.rule), body["rule"])
		})
	}
}

func TestReassignmentHandler_Alternatives(t *testing.T) {
	svc := &mocks.MockReassignmentService{
		FindAlternativePointsFunc: func(ctx context.Context, reservationID, currentPointID string) ([]domain.ChargingPoint, error) {
			assert.Equal(t, "r-1", reservationID)
			assert.Equal(t, "cp-1", currentPointID)
			return nil, nil
		},
	}
	app := newApp()
	NewReassignmentHandler(svc, zap.NewNop()).RegisterRoutes(app, middleware.AuthRequired(verifier))

	status, body := call(t, app, "GET", "/api/v1/reservations/r-1/alternatives?current_point_id=cp-1", "staff", nil)

	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, []interface{}{}, body["charging_points"])
}
