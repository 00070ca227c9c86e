package lifecycle

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/seu-repo/sigec-booking/internal/adapter/lock"
	"github.com/seu-repo/sigec-booking/internal/domain"
	"github.com/seu-repo/sigec-booking/internal/mocks"
	"github.com/seu-repo/sigec-booking/internal/service/catalog"
	"github.com/seu-repo/sigec-booking/internal/service/pricing"
	"github.com/seu-repo/sigec-booking/internal/service/reservation"
	"github.com/seu-repo/sigec-booking/internal/testutil"
)

func hm(h, m int) time.Time {
	return time.Date(2026, 3, 4, h, m, 0, 0, time.UTC)
}

func newLedger(env *testutil.Env, events *mocks.MockEventPublisher) *reservation.Service {
	log := zap.NewNop()
	svc := reservation.NewService(
		reservation.Repositories{
			Reservations: env.Reservations,
			Sessions:     env.Sessions,
			Fees:         env.Fees,
			Points:       env.Points,
		},
		catalog.NewService(env.Points, env.Vehicles, nil, 0, log),
		pricing.NewService(log, nil, nil),
		lock.NewLocalLocker(log),
		env.Tx,
		events,
		nil,
		domain.DefaultPenaltyPolicy(),
		log,
	)
	svc.SetClock(env.Clock.Now)
	return svc
}

func TestSweep_ExpiresNoShowWithFee(t *testing.T) {
	env := testutil.NewEnv(hm(10, 20))
	events := mocks.NewMockEventPublisher()
	monitor := NewMonitor(newLedger(env, events), env.Reservations, nil, zap.NewNop())
	monitor.SetClock(env.Clock.Now)
	env.Book("late", "cp-1", hm(10, 0), hm(11, 0), domain.ReservationStatusBooked)
	env.Book("inside-grace", "cp-2", hm(10, 10), hm(11, 10), domain.ReservationStatusBooked)

	result, err := monitor.Sweep(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, result.Expired)

	late, err := env.Reservations.FindByID(context.Background(), "late")
	require.NoError(t, err)
	assert.Equal(t, domain.ReservationStatusCanceled, late.Status)
	assert.Equal(t, domain.SystemActor.ID, late.CanceledBy)

	fees, err := env.Fees.FindByReservationID(context.Background(), "late")
	require.NoError(t, err)
	require.Len(t, fees, 1)
	assert.Equal(t, domain.FeeTypeNoShow, fees[0].Type)
	assert.True(t, fees[0].Amount.Equal(decimal.RequireFromString("21.60")), "got %s", fees[0].Amount)

	waiting, err := env.Reservations.FindByID(context.Background(), "inside-grace")
	require.NoError(t, err)
	assert.Equal(t, domain.ReservationStatusBooked, waiting.Status)
	assert.Len(t, events.OfType(domain.EventReservationNoShow), 1)
}

func TestSweep_IsIdempotent(t *testing.T) {
	env := testutil.NewEnv(hm(10, 20))
	monitor := NewMonitor(newLedger(env, mocks.NewMockEventPublisher()), env.Reservations, nil, zap.NewNop())
	monitor.SetClock(env.Clock.Now)
	env.Book("late", "cp-1", hm(10, 0), hm(11, 0), domain.ReservationStatusBooked)

	_, err := monitor.Sweep(context.Background())
	require.NoError(t, err)
	second, err := monitor.Sweep(context.Background())
	require.NoError(t, err)

	assert.Equal(t, SweepResult{}, second)
	fees, _ := env.Fees.FindByReservationID(context.Background(), "late")
	assert.Len(t, fees, 1)
}

func TestSweep_FlagsOvertimeOnce(t *testing.T) {
	env := testutil.NewEnv(hm(11, 5))
	events := mocks.NewMockEventPublisher()
	monitor := NewMonitor(newLedger(env, events), env.Reservations, nil, zap.NewNop())
	monitor.SetClock(env.Clock.Now)
	env.Book("running", "cp-1", hm(10, 0), hm(11, 0), domain.ReservationStatusCharging)

	first, err := monitor.Sweep(context.Background())
	require.NoError(t, err)
	second, err := monitor.Sweep(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, first.Flagged)
	assert.Equal(t, 0, second.Flagged)
	assert.Len(t, events.OfType(domain.EventSessionOvertime), 1)
}

func TestSweep_WorksThroughBatches(t *testing.T) {
	env := testutil.NewEnv(hm(12, 0))
	config := DefaultConfig()
	config.BatchSize = 2
	monitor := NewMonitor(newLedger(env, mocks.NewMockEventPublisher()), env.Reservations, config, zap.NewNop())
	monitor.SetClock(env.Clock.Now)
	for i := 0; i < 5; i++ {
		start := hm(8, 0).Add(time.Duration(i) * 30 * time.Minute)
		env.Book(fmt.Sprintf("r-%d", i), "cp-1", start, start.Add(30*time.Minute), domain.ReservationStatusBooked)
	}

	result, err := monitor.Sweep(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 5, result.Expired)
}

func TestSweep_PagesPastSkippedBatch(t *testing.T) {
	env := testutil.NewEnv(hm(12, 0))
	env.Book("stuck-0", "cp-1", hm(8, 0), hm(8, 30), domain.ReservationStatusBooked)
	env.Book("stuck-1", "cp-2", hm(8, 0), hm(8, 30), domain.ReservationStatusBooked)
	env.Book("due", "cp-3", hm(9, 0), hm(9, 30), domain.ReservationStatusBooked)

	var expired []string
	ledger := &stubLedger{expire: func(ctx context.Context, id string) (*domain.Fee, error) {
		if id != "due" {
			return nil, fmt.Errorf("%w: point busy", domain.ErrLockTimeout)
		}
		expired = append(expired, id)
		return &domain.Fee{ID: "f-1", Type: domain.FeeTypeNoShow}, nil
	}}
	config := DefaultConfig()
	config.BatchSize = 2
	monitor := NewMonitor(ledger, env.Reservations, config, zap.NewNop())
	monitor.SetClock(env.Clock.Now)

	result, err := monitor.Sweep(context.Background())

	require.NoError(t, err)
	assert.Equal(t, SweepResult{Expired: 1, Skipped: 2}, result)
	assert.Equal(t, []string{"due"}, expired)
}

type stubLedger struct {
	expire func(ctx context.Context, id string) (*domain.Fee, error)
}

func (s *stubLedger) ExpireNoShow(ctx context.Context, id string) (*domain.Fee, error) {
	return s.expire(ctx, id)
}

func (s *stubLedger) FlagOvertime(ctx context.Context, id string) (bool, error) {
	return false, nil
}

func TestSweep_SkipsBusyPoints(t *testing.T) {
	env := testutil.NewEnv(hm(10, 30))
	env.Book("busy", "cp-1", hm(10, 0), hm(11, 0), domain.ReservationStatusBooked)
	env.Book("free", "cp-2", hm(10, 0), hm(11, 0), domain.ReservationStatusBooked)

	ledger := &stubLedger{expire: func(ctx context.Context, id string) (*domain.Fee, error) {
		if id == "busy" {
			return nil, fmt.Errorf("%w: point cp-1", domain.ErrLockTimeout)
		}
		return &domain.Fee{ID: "f-1", Type: domain.FeeTypeNoShow}, nil
	}}
	monitor := NewMonitor(ledger, env.Reservations, nil, zap.NewNop())
	monitor.SetClock(env.Clock.Now)

	result, err := monitor.Sweep(context.Background())

	require.NoError(t, err)
	assert.Equal(t, SweepResult{Expired: 1, Skipped: 1}, result)
}

func TestRun_StopsWithContext(t *testing.T) {
	env := testutil.NewEnv(hm(10, 30))
	config := DefaultConfig()
	config.Interval = 5 * time.Millisecond
	monitor := NewMonitor(newLedger(env, mocks.NewMockEventPublisher()), env.Reservations, config, zap.NewNop())
	monitor.SetClock(env.Clock.Now)
	env.Book("late", "cp-1", hm(10, 0), hm(11, 0), domain.ReservationStatusBooked)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		monitor.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		r, _ := env.Reservations.FindByID(context.Background(), "late")
		return r.Status == domain.ReservationStatusCanceled
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("monitor did not stop")
	}
}
