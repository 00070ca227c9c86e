package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/seu-repo/sigec-booking/internal/adapter/http/fiber/middleware"
	"github.com/seu-repo/sigec-booking/pkg/config"
)

const testSecret = "test-secret"

func newTestApp(t *testing.T) (*application, *fiber.App) {
	t.Helper()
	cfg, err := config.Load(t.TempDir())
	require.NoError(t, err)

	cfg.Storage = config.StorageConfig{Driver: "memory", Locker: "local", SeedDemo: true}
	cfg.Events.Driver = "none"
	cfg.Redis.URL = ""
	cfg.Vault.Enabled = false
	cfg.OpenTelemetry.Enabled = false
	cfg.Prometheus = config.PrometheusConfig{Enabled: true, Path: "/metrics"}
	cfg.JWT = config.JWTConfig{Secret: testSecret, Issuer: "sigec-test"}

	a, err := newApplication(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(a.Close)

	app, err := a.httpApp()
	require.NoError(t, err)
	return a, app
}

func token(t *testing.T, subject, role string) string {
	t.Helper()
	claims := middleware.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    "sigec-test",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Role: role,
		Type: "access",
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func do(t *testing.T, app *fiber.App, method, path, bearer string, body interface{}) (int, []byte) {
	t.Helper()
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		require.NoError(t, err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func TestServer_BookingFlow(t *testing.T) {
	_, app := newTestApp(t)
	driver := token(t, "user-1", "user")
	other := token(t, "user-2", "user")

	status, data := do(t, app, "GET", "/api/v1/stations/st-1/availability?vehicle_id=v-1&current=20&target=80", driver, nil)
	require.Equal(t, fiber.StatusOK, status, string(data))
	var availability struct {
		ChargingPoints []struct {
			ChargingPointID string `json:"charging_point_id"`
		} `json:"charging_points"`
	}
	require.NoError(t, json.Unmarshal(data, &availability))
	ids := make([]string, 0, len(availability.ChargingPoints))
	for _, p := range availability.ChargingPoints {
		ids = append(ids, p.ChargingPointID)
	}
	assert.ElementsMatch(t, []string{"cp-1", "cp-2", "cp-3"}, ids)

	start := time.Now().UTC().Add(2 * time.Hour).Truncate(time.Minute)
	confirm := map[string]interface{}{
		"vehicle_id":        "v-1",
		"charging_point_id": "cp-1",
		"start_time":        start,
		"end_time":          start.Add(time.Hour),
		"current_battery":   20,
		"target_battery":    80,
	}
	status, data = do(t, app, "POST", "/api/v1/reservations", driver, confirm)
	require.Equal(t, fiber.StatusCreated, status, string(data))
	var reservation struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(data, &reservation))
	assert.Equal(t, "BOOKED", reservation.Status)

	overlapping := map[string]interface{}{
		"vehicle_id":        "v-2",
		"charging_point_id": "cp-1",
		"start_time":        start.Add(30 * time.Minute),
		"end_time":          start.Add(90 * time.Minute),
		"current_battery":   20,
		"target_battery":    80,
	}
	status, data = do(t, app, "POST", "/api/v1/reservations", other, overlapping)
	assert.Equal(t, fiber.StatusConflict, status, string(data))

	status, _ = do(t, app, "GET", "/api/v1/reservations/"+reservation.ID, other, nil)
	assert.Equal(t, fiber.StatusForbidden, status)

	status, data = do(t, app, "POST", "/api/v1/reservations/"+reservation.ID+"/cancel", driver, map[string]string{"reason": "plans changed"})
	require.Equal(t, fiber.StatusOK, status, string(data))

	status, data = do(t, app, "POST", "/api/v1/reservations", other, overlapping)
	assert.Equal(t, fiber.StatusCreated, status, string(data))
}

func TestServer_AccessControl(t *testing.T) {
	_, app := newTestApp(t)

	status, _ := do(t, app, "GET", "/api/v1/reservations", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, _ = do(t, app, "GET", "/api/v1/reservations", "not-a-jwt", nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, _ = do(t, app, "GET", "/api/v1/reservations/any/alternatives?current_point_id=cp-1", token(t, "user-1", "user"), nil)
	assert.Equal(t, fiber.StatusForbidden, status)
}

func TestServer_OpsEndpoints(t *testing.T) {
	a, app := newTestApp(t)

	status, _ := do(t, app, "GET", "/health", "", nil)
	assert.Equal(t, fiber.StatusOK, status)

	status, _ = do(t, app, "GET", "/ready", "", nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.True(t, a.ready(context.Background()))

	status, data := do(t, app, "GET", "/metrics", "", nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, string(data), "go_goroutines")
}

func TestServer_RequiresJWTSecret(t *testing.T) {
	a := &application{cfg: &config.Config{}, log: zap.NewNop()}

	_, err := a.httpApp()
	assert.Error(t, err)
}

func TestSweepOnce_EmptyLedger(t *testing.T) {
	a, _ := newTestApp(t)

	result, err := a.monitor.Sweep(context.Background())
	require.NoError(t, err)
	assert.Zero(t, result.Expired)
	assert.Zero(t, result.Flagged)
}
