package postgres

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/seu-repo/sigec-booking/internal/domain"
)

type ReservationRepository struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewReservationRepository(db *gorm.DB, log *zap.Logger) *ReservationRepository {
	return &ReservationRepository{
		db:  db,
		log: log,
	}
}

func (r *ReservationRepository) Create(ctx context.Context, res *domain.Reservation) error {
	if err := conn(ctx, r.db).Create(res).Error; err != nil {
		return translateReservationError(err, res)
	}
	return nil
}

func (r *ReservationRepository) Update(ctx context.Context, res *domain.Reservation) error {
	result := conn(ctx, r.db).Model(res).Select("*").Where("id = ?", res.ID).Updates(res)
	if result.Error != nil {
		return translateReservationError(result.Error, res)
	}
	if result.RowsAffected == 0 {
		return &domain.NotFoundError{Entity: "reservation", ID: res.ID}
	}
	return nil
}

func (r *ReservationRepository) FindByID(ctx context.Context, id string) (*domain.Reservation, error) {
	var res domain.Reservation
	err := conn(ctx, r.db).First(&res, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &res, nil
}

func (r *ReservationRepository) FindByUserID(ctx context.Context, userID string, limit, offset int) ([]domain.Reservation, error) {
	var list []domain.Reservation
	query := conn(ctx, r.db).Where("user_id = ?", userID).Order("start_time desc, id")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	err := query.Find(&list).Error
	return list, err
}

func (r *ReservationRepository) FindActiveByPoint(ctx context.Context, pointID string, after time.Time) ([]domain.Reservation, error) {
	var list []domain.Reservation
	err := conn(ctx, r.db).
		Where("charging_point_id = ? AND status IN ? AND end_time > ?", pointID, domain.ActiveReservationStatuses, after).
		Order("start_time, id").
		Find(&list).Error
	return list, err
}

func (r *ReservationRepository) FindOverlapping(ctx context.Context, pointID string, start, end time.Time, excludeID string) ([]domain.Reservation, error) {
	var list []domain.Reservation
	query := conn(ctx, r.db).
		Where("charging_point_id = ? AND status IN ?", pointID, domain.ActiveReservationStatuses).
		Where("start_time < ? AND end_time > ?", end, start)
	if excludeID != "" {
		query = query.Where("id <> ?", excludeID)
	}
	err := query.Order("start_time, id").Find(&list).Error
	return list, err
}

func (r *ReservationRepository) FindNoShowCandidates(ctx context.Context, cutoff time.Time, after domain.ScanCursor, limit int) ([]domain.Reservation, error) {
	var list []domain.Reservation
	query := afterCursor(conn(ctx, r.db), after).
		Where("status = ? AND start_time < ?", domain.ReservationStatusBooked, cutoff).
		Order("start_time, id")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&list).Error
	return list, err
}

func (r *ReservationRepository) FindOvertimeCandidates(ctx context.Context, now time.Time, after domain.ScanCursor, limit int) ([]domain.Reservation, error) {
	var list []domain.Reservation
	query := afterCursor(conn(ctx, r.db), after).
		Where("status = ? AND end_time < ? AND overtime_notified_at IS NULL", domain.ReservationStatusCharging, now).
		Order("start_time, id")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&list).Error
	return list, err
}

func afterCursor(db *gorm.DB, after domain.ScanCursor) *gorm.DB {
	if after.IsZero() {
		return db
	}
	return db.Where("(start_time, id) > (?, ?)", after.StartTime, after.ID)
}
