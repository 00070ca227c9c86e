package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seu-repo/sigec-booking/internal/domain"
)

var base = time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)

func booking(id, point string, from, to time.Duration, status domain.ReservationStatus) *domain.Reservation {
	return &domain.Reservation{
		ID:              id,
		UserID:          "user-1",
		ChargingPointID: point,
		StartTime:       base.Add(from),
		EndTime:         base.Add(to),
		Status:          status,
	}
}

func TestTransactor_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	store.AddChargingPoint(domain.ChargingPoint{ID: "cp-1", StationID: "st-1", Status: domain.ChargingPointStatusAvailable})
	reservations := NewReservationRepository(store)
	points := NewChargingPointRepository(store)
	fees := NewFeeRepository(store)
	tx := NewTransactor(store)

	existing := booking("r-0", "cp-1", 0, time.Hour, domain.ReservationStatusBooked)
	require.NoError(t, reservations.Create(ctx, existing))

	boom := errors.New("boom")
	err := tx.WithinTx(ctx, func(ctx context.Context) error {
		require.NoError(t, reservations.Create(ctx, booking("r-1", "cp-1", 2*time.Hour, 3*time.Hour, domain.ReservationStatusBooked)))
		updated := *existing
		updated.Status = domain.ReservationStatusCanceled
		require.NoError(t, reservations.Update(ctx, &updated))
		require.NoError(t, points.UpdateStatus(ctx, "cp-1", domain.ChargingPointStatusReserved))
		rid := "r-0"
		require.NoError(t, fees.Create(ctx, &domain.Fee{ID: "f-1", Type: domain.FeeTypeCancel, ReservationID: &rid}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	created, err := reservations.FindByID(ctx, "r-1")
	require.NoError(t, err)
	assert.Nil(t, created)

	restored, err := reservations.FindByID(ctx, "r-0")
	require.NoError(t, err)
	assert.Equal(t, domain.ReservationStatusBooked, restored.Status)

	cp, err := points.FindByID(ctx, "cp-1")
	require.NoError(t, err)
	assert.Equal(t, domain.ChargingPointStatusAvailable, cp.Status)

	list, err := fees.FindByReservationID(ctx, "r-0")
	require.NoError(t, err)
	assert.Empty(t, list)

	// the fee key was released as well
	rid := "r-0"
	assert.NoError(t, fees.Create(ctx, &domain.Fee{ID: "f-2", Type: domain.FeeTypeCancel, ReservationID: &rid}))
}

func TestTransactor_CommitKeepsWrites(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	reservations := NewReservationRepository(store)
	tx := NewTransactor(store)

	err := tx.WithinTx(ctx, func(ctx context.Context) error {
		return reservations.Create(ctx, booking("r-1", "cp-1", 0, time.Hour, domain.ReservationStatusBooked))
	})
	require.NoError(t, err)

	got, err := reservations.FindByID(ctx, "r-1")
	require.NoError(t, err)
	require.NotNil(t, got)
}

func TestReservationRepository_FindOverlapping(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	repo := NewReservationRepository(store)

	require.NoError(t, repo.Create(ctx, booking("a", "cp-1", time.Hour, 2*time.Hour, domain.ReservationStatusBooked)))
	require.NoError(t, repo.Create(ctx, booking("b", "cp-1", 4*time.Hour, 5*time.Hour, domain.ReservationStatusCharging)))
	require.NoError(t, repo.Create(ctx, booking("c", "cp-1", 2*time.Hour, 4*time.Hour, domain.ReservationStatusCanceled)))
	require.NoError(t, repo.Create(ctx, booking("d", "cp-2", 2*time.Hour, 4*time.Hour, domain.ReservationStatusBooked)))

	tests := []struct {
		name    string
		from    time.Duration
		to      time.Duration
		exclude string
		want    []string
	}{
		{"touching both neighbours", 2 * time.Hour, 4 * time.Hour, "", nil},
		{"overlaps first", 90 * time.Minute, 3 * time.Hour, "", []string{"a"}},
		{"spans both", 0, 6 * time.Hour, "", []string{"a", "b"}},
		{"excluded id is ignored", 0, 3 * time.Hour, "a", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.FindOverlapping(ctx, "cp-1", base.Add(tt.from), base.Add(tt.to), tt.exclude)
			require.NoError(t, err)
			var ids []string
			for _, r := range got {
				ids = append(ids, r.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestReservationRepository_Candidates(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	repo := NewReservationRepository(store)

	require.NoError(t, repo.Create(ctx, booking("late", "cp-1", 0, time.Hour, domain.ReservationStatusBooked)))
	require.NoError(t, repo.Create(ctx, booking("future", "cp-1", 3*time.Hour, 4*time.Hour, domain.ReservationStatusBooked)))
	overdue := booking("overdue", "cp-2", 0, time.Hour, domain.ReservationStatusCharging)
	require.NoError(t, repo.Create(ctx, overdue))
	flagged := booking("flagged", "cp-3", 0, time.Hour, domain.ReservationStatusCharging)
	now := base.Add(2 * time.Hour)
	flagged.OvertimeNotifiedAt = &now
	require.NoError(t, repo.Create(ctx, flagged))

	noShows, err := repo.FindNoShowCandidates(ctx, base.Add(15*time.Minute), domain.ScanCursor{}, 10)
	require.NoError(t, err)
	require.Len(t, noShows, 1)
	assert.Equal(t, "late", noShows[0].ID)

	overtime, err := repo.FindOvertimeCandidates(ctx, now, domain.ScanCursor{}, 10)
	require.NoError(t, err)
	require.Len(t, overtime, 1)
	assert.Equal(t, "overdue", overtime[0].ID)
}

func TestReservationRepository_CandidatesAfterCursor(t *testing.T) {
	ctx := context.Background()
	repo := NewReservationRepository(NewStore())
	require.NoError(t, repo.Create(ctx, booking("a", "cp-1", 0, time.Hour, domain.ReservationStatusBooked)))
	require.NoError(t, repo.Create(ctx, booking("b", "cp-2", 0, time.Hour, domain.ReservationStatusBooked)))
	require.NoError(t, repo.Create(ctx, booking("c", "cp-3", 30*time.Minute, time.Hour, domain.ReservationStatusBooked)))
	cutoff := base.Add(time.Hour)

	first, err := repo.FindNoShowCandidates(ctx, cutoff, domain.ScanCursor{}, 2)
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, "a", first[0].ID)
	assert.Equal(t, "b", first[1].ID)

	rest, err := repo.FindNoShowCandidates(ctx, cutoff, domain.CursorAfter(&first[1]), 2)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, "c", rest[0].ID)
}

func TestFeeRepository_UniquePerOwnerAndType(t *testing.T) {
	ctx := context.Background()
	repo := NewFeeRepository(NewStore())
	rid := "r-1"

	require.NoError(t, repo.Create(ctx, &domain.Fee{ID: "f-1", Type: domain.FeeTypeNoShow, ReservationID: &rid}))
	err := repo.Create(ctx, &domain.Fee{ID: "f-2", Type: domain.FeeTypeNoShow, ReservationID: &rid})
	assert.ErrorIs(t, err, domain.ErrDuplicateFee)
	assert.NoError(t, repo.Create(ctx, &domain.Fee{ID: "f-3", Type: domain.FeeTypeCancel, ReservationID: &rid}))
}
