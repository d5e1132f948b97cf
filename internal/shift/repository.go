package shift

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/fongpn/fmfalorsetar-sub000/internal/domain"
)

// GormRepository is the database-backed Repository implementation.
type GormRepository struct {
	DB *gorm.DB
}

var _ Repository = (*GormRepository)(nil)

func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{DB: db}
}

func (r *GormRepository) Atomically(ctx context.Context, fn func(Repository) error) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormRepository{DB: tx})
	})
}

func (r *GormRepository) GetShift(ctx context.Context, id int64) (*domain.Shift, error) {
	var s domain.Shift
	err := r.DB.WithContext(ctx).Where("id = ?", id).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *GormRepository) ActiveShiftForStaff(ctx context.Context, staffID int64) (*domain.Shift, error) {
	var s domain.Shift
	err := r.DB.WithContext(ctx).
		Where("starting_staff_id = ? AND status = ?", staffID, domain.ShiftActive).
		First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *GormRepository) CreateShift(ctx context.Context, s *domain.Shift) error {
	return r.DB.WithContext(ctx).Create(s).Error
}

func (r *GormRepository) UpdateShift(ctx context.Context, s *domain.Shift) error {
	s.UpdatedAt = time.Now()
	return r.DB.WithContext(ctx).Save(s).Error
}

// MarkEnding performs the conditional ACTIVE -> ENDING transition. The
// status guard in the WHERE clause makes concurrent closes race-free: only
// one of them observes RowsAffected == 1.
func (r *GormRepository) MarkEnding(ctx context.Context, shiftID int64) (bool, error) {
	res := r.DB.WithContext(ctx).Model(&domain.Shift{}).
		Where("id = ? AND status = ?", shiftID, domain.ShiftActive).
		Updates(map[string]interface{}{
			"status":     domain.ShiftEnding,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *GormRepository) ShiftTransactions(ctx context.Context, shiftID int64) ([]domain.Transaction, error) {
	var txns []domain.Transaction
	err := r.DB.WithContext(ctx).
		Where("shift_id = ?", shiftID).
		Order("created_at ASC").
		Find(&txns).Error
	if err != nil {
		return nil, err
	}
	return txns, nil
}
