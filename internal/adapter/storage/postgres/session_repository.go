package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/seu-repo/sigec-booking/internal/domain"
)

type SessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Create(ctx context.Context, s *domain.Session) error {
	return conn(ctx, r.db).Omit(clause.Associations).Create(s).Error
}

func (r *SessionRepository) Update(ctx context.Context, s *domain.Session) error {
	result := conn(ctx, r.db).Model(s).Omit(clause.Associations).Select("*").Where("id = ?", s.ID).Updates(s)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return &domain.NotFoundError{Entity: "session", ID: s.ID}
	}
	return nil
}

func (r *SessionRepository) FindByID(ctx context.Context, id string) (*domain.Session, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *SessionRepository) FindByReservationID(ctx context.Context, reservationID string) (*domain.Session, error) {
	return r.findOne(ctx, "reservation_id = ?", reservationID)
}

func (r *SessionRepository) findOne(ctx context.Context, where string, arg interface{}) (*domain.Session, error) {
	var s domain.Session
	err := conn(ctx, r.db).
		Preload("Fees", func(db *gorm.DB) *gorm.DB { return db.Order("created_at, id") }).
		Where(where, arg).
		First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}
