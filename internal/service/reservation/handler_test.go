package reservation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/seu-repo/sigec-booking/internal/adapter/http/fiber/middleware"
	"github.com/seu-repo/sigec-booking/internal/domain"
	"github.com/seu-repo/sigec-booking/internal/mocks"
	"github.com/seu-repo/sigec-booking/internal/ports"
)

type tokenTable map[string]domain.Actor

func (t tokenTable) Verify(token string) (domain.Actor, error) {
	if actor, ok := t[token]; ok {
		return actor, nil
	}
	return domain.Actor{}, errors.New("unknown token")
}

var tokens = tokenTable{
	"user-token":     owner,
	"stranger-token": stranger,
	"staff-token":    operator,
}

func setupApp(svc ports.ReservationService) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler(zap.NewNop())})
	NewHandler(svc).RegisterRoutes(app, middleware.AuthRequired(tokens))
	return app
}

func doRequest(t *testing.T, app *fiber.App, method, path, token string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	var payload []byte
	if body != nil {
		payload, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	var decoded map[string]interface{}
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp.StatusCode, decoded
}

func TestHandler_ConfirmUsesAuthenticatedUser(t *testing.T) {
	var got ports.ConfirmRequest
	svc := &mocks.MockReservationService{
		ConfirmReservationFunc: func(ctx context.Context, req ports.ConfirmRequest) (*domain.Reservation, error) {
			got = req
			return &domain.Reservation{ID: "r-1", UserID: req.UserID, Status: domain.ReservationStatusBooked, EstimatedCost: decimal.NewFromInt(72)}, nil
		},
	}
	app := setupApp(svc)

	status, body := doRequest(t, app, "POST", "/api/v1/reservations", "user-token", map[string]interface{}{
		"vehicle_id":        "v-1",
		"charging_point_id": "cp-1",
		"start_time":        hm(10, 0),
		"end_time":          hm(11, 0),
		"current_battery":   20,
		"target_battery":    80,
	})

	if status != fiber.StatusCreated {
		t.Fatalf("expected 201, got %d: %v", status, body)
	}
	if got.UserID != owner.ID {
		t.Errorf("expected user from token %s, got %s", owner.ID, got.UserID)
	}
	if !got.StartTime.Equal(hm(10, 0)) || got.TargetBattery != 80 {
		t.Errorf("unexpected request %+v", got)
	}
	if body["id"] != "r-1" {
		t.Errorf("expected id r-1, got %v", body["id"])
	}
}

func TestHandler_RequiresToken(t *testing.T) {
	app := setupApp(&mocks.MockReservationService{})

	status, _ := doRequest(t, app, "GET", "/api/v1/reservations", "", nil)
	if status != fiber.StatusUnauthorized {
		t.Errorf("expected 401, got %d", status)
	}

	status, _ = doRequest(t, app, "GET", "/api/v1/reservations", "forged", nil)
	if status != fiber.StatusUnauthorized {
		t.Errorf("expected 401 for unknown token, got %d", status)
	}
}

func TestHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"slot conflict", &domain.SlotConflictError{ChargingPointID: "cp-1"}, fiber.StatusConflict, "SLOT_CONFLICT"},
		{"invalid range", &domain.InvalidRangeError{Current: 80, Target: 20}, fiber.StatusUnprocessableEntity, "INVALID_RANGE"},
		{"no compatible connector", domain.ErrNoCompatibleConnector, fiber.StatusUnprocessableEntity, "NO_COMPATIBLE_CONNECTOR"},
		{"invalid window", domain.ErrInvalidWindow, fiber.StatusBadRequest, "INVALID_WINDOW"},
		{"forbidden", domain.ErrForbidden, fiber.StatusForbidden, "FORBIDDEN"},
		{"not found", &domain.NotFoundError{Entity: "vehicle", ID: "v-9"}, fiber.StatusNotFound, "NOT_FOUND"},
		{"unexpected", errors.New("database exploded"), fiber.StatusInternalServerError, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mocks.MockReservationService{
				ConfirmReservationFunc: func(ctx context.Context, req ports.ConfirmRequest) (*domain.Reservation, error) {
					return nil, tt.err
				},
			}
			app := setupApp(svc)

			status, body := doRequest(t, app, "POST", "/api/v1/reservations", "user-token", map[string]interface{}{
				"vehicle_id": "v-1", "charging_point_id": "cp-1",
			})

			if status != tt.wantStatus {
				t.Errorf("expected %d, got %d", tt.wantStatus, status)
			}
			if tt.wantCode != "" && body["code"] != tt.wantCode {
				t.Errorf("expected code %s, got %v", tt.wantCode, body["code"])
			}
		})
	}
}

func TestHandler_StartSessionNoShow(t *testing.T) {
	rid := "r-1"
	svc := &mocks.MockReservationService{
		StartSessionFunc: func(ctx context.Context, reservationID string, actor domain.Actor) (*domain.Session, error) {
			return nil, &domain.NoShowError{
				ReservationID: reservationID,
				Fee:           &domain.Fee{ID: "f-1", Type: domain.FeeTypeNoShow, Amount: decimal.RequireFromString("21.60"), ReservationID: &rid},
			}
		},
	}
	app := setupApp(svc)

	status, body := doRequest(t, app, "POST", "/api/v1/reservations/r-1/start", "user-token", nil)

	if status != fiber.StatusGone {
		t.Fatalf("expected 410, got %d", status)
	}
	fee, ok := body["fee"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected fee in body, got %v", body)
	}
	if fee["type"] != string(domain.FeeTypeNoShow) {
		t.Errorf("expected NO_SHOW fee, got %v", fee["type"])
	}
}

func TestHandler_CancelPassesActorAndReason(t *testing.T) {
	var got ports.CancelRequest
	svc := &mocks.MockReservationService{
		CancelReservationFunc: func(ctx context.Context, req ports.CancelRequest) (*ports.CancelResult, error) {
			got = req
			return &ports.CancelResult{Reservation: &domain.Reservation{ID: req.ReservationID, Status: domain.ReservationStatusCanceled}}, nil
		},
	}
	app := setupApp(svc)

	status, _ := doRequest(t, app, "POST", "/api/v1/reservations/r-7/cancel", "staff-token", map[string]string{"reason": "point broken"})

	if status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if got.ReservationID != "r-7" || got.Actor != operator || got.Reason != "point broken" {
		t.Errorf("unexpected cancel request %+v", got)
	}
}

func TestHandler_ListOtherUserRequiresStaff(t *testing.T) {
	var listed string
	svc := &mocks.MockReservationService{
		ListUserReservationsFunc: func(ctx context.Context, userID string, limit, offset int) ([]domain.Reservation, error) {
			listed = userID
			return nil, nil
		},
	}
	app := setupApp(svc)

	status, _ := doRequest(t, app, "GET", "/api/v1/reservations?user_id=user-1", "stranger-token", nil)
	if status != fiber.StatusForbidden {
		t.Errorf("expected 403, got %d", status)
	}

	status, body := doRequest(t, app, "GET", "/api/v1/reservations?user_id=user-1&limit=5", "staff-token", nil)
	if status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if listed != "user-1" {
		t.Errorf("expected listing for user-1, got %s", listed)
	}
	if body["limit"] != float64(5) {
		t.Errorf("expected limit 5, got %v", body["limit"])
	}
	if list, ok := body["reservations"].([]interface{}); !ok || len(list) != 0 {
		t.Errorf("expected empty list, got %v", body["reservations"])
	}
}

func TestHandler_CompleteSession(t *testing.T) {
	var got ports.CompleteRequest
	svc := &mocks.MockReservationService{
		CompleteSessionFunc: func(ctx context.Context, req ports.CompleteRequest) (*ports.CompleteResult, error) {
			got = req
			return &ports.CompleteResult{
				Reservation: &domain.Reservation{ID: "r-1", Status: domain.ReservationStatusCompleted},
				Session:     &domain.Session{ID: req.SessionID, Status: domain.SessionStatusCompleted},
			}, nil
		},
	}
	app := setupApp(svc)

	status, _ := doRequest(t, app, "POST", "/api/v1/sessions/s-1/complete", "user-token", map[string]interface{}{
		"energy_delivered_kwh": 35.5,
	})

	if status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if got.SessionID != "s-1" || got.EnergyDeliveredKWh != 35.5 || got.Actor != owner {
		t.Errorf("unexpected complete request %+v", got)
	}
}
