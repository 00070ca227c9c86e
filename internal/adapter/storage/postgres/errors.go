package postgres

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/seu-repo/sigec-booking/internal/domain"
)

const (
	codeUniqueViolation    = "23505"
	codeExclusionViolation = "23P01"
)

func pgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr, true
	}
	return nil, false
}

// translateReservationError maps the overlap constraint to a slot conflict
// for the given reservation.
func translateReservationError(err error, r *domain.Reservation) error {
	if pgErr, ok := pgError(err); ok && pgErr.Code == codeExclusionViolation {
		return &domain.SlotConflictError{
			ChargingPointID: r.ChargingPointID,
			Start:           r.StartTime,
			End:             r.EndTime,
		}
	}
	return err
}

func translateFeeError(err error) error {
	if pgErr, ok := pgError(err); ok && pgErr.Code == codeUniqueViolation &&
		strings.HasPrefix(pgErr.ConstraintName, "fees_") {
		return domain.ErrDuplicateFee
	}
	return err
}
