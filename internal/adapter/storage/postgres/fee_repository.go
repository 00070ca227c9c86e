package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/seu-repo/sigec-booking/internal/domain"
)

type FeeRepository struct {
	db *gorm.DB
}

func NewFeeRepository(db *gorm.DB) *FeeRepository {
	return &FeeRepository{db: db}
}

// Create relies on the partial unique indexes on (session_id, type) and
// (reservation_id, type).
func (r *FeeRepository) Create(ctx context.Context, fee *domain.Fee) error {
	if err := conn(ctx, r.db).Create(fee).Error; err != nil {
		return translateFeeError(err)
	}
	return nil
}

func (r *FeeRepository) FindByReservationID(ctx context.Context, reservationID string) ([]domain.Fee, error) {
	return r.find(ctx, "reservation_id = ?", reservationID)
}

func (r *FeeRepository) FindBySessionID(ctx context.Context, sessionID string) ([]domain.Fee, error) {
	return r.find(ctx, "session_id = ?", sessionID)
}

func (r *FeeRepository) FindByUserID(ctx context.Context, userID string) ([]domain.Fee, error) {
	return r.find(ctx, "user_id = ?", userID)
}

func (r *FeeRepository) find(ctx context.Context, where string, arg interface{}) ([]domain.Fee, error) {
	var fees []domain.Fee
	err := conn(ctx, r.db).Where(where, arg).Order("created_at, id").Find(&fees).Error
	return fees, err
}

type ReassignmentRepository struct {
	db *gorm.DB
}

func NewReassignmentRepository(db *gorm.DB) *ReassignmentRepository {
	return &ReassignmentRepository{db: db}
}

func (r *ReassignmentRepository) Create(ctx context.Context, rec *domain.ReassignmentRecord) error {
	return conn(ctx, r.db).Create(rec).Error
}

func (r *ReassignmentRepository) FindByReservationID(ctx context.Context, reservationID string) ([]domain.ReassignmentRecord, error) {
	var list []domain.ReassignmentRecord
	err := conn(ctx, r.db).Where("reservation_id = ?", reservationID).Order("created_at, id").Find(&list).Error
	return list, err
}
