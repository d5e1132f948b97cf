package membership

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

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

func (r *GormRepository) GetMember(ctx context.Context, id int64) (*domain.Member, error) {
	var m domain.Member
	err := r.DB.WithContext(ctx).Where("id = ?", id).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *GormRepository) GetPlan(ctx context.Context, id int64) (*domain.MembershipPlan, error) {
	var p domain.MembershipPlan
	err := r.DB.WithContext(ctx).Where("id = ?", id).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *GormRepository) ActiveMembership(ctx context.Context, memberID int64) (*domain.Membership, error) {
	var m domain.Membership
	err := r.DB.WithContext(ctx).
		Where("member_id = ? AND status = ?", memberID, domain.MembershipActive).
		Order("end_date DESC").
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *GormRepository) ExpireMembership(ctx context.Context, id int64) error {
	return r.DB.WithContext(ctx).Model(&domain.Membership{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     domain.MembershipExpired,
			"updated_at": time.Now(),
		}).Error
}

func (r *GormRepository) CreateMembership(ctx context.Context, m *domain.Membership) error {
	return r.DB.WithContext(ctx).Create(m).Error
}

func (r *GormRepository) CreateTransaction(ctx context.Context, t *domain.Transaction) error {
	return r.DB.WithContext(ctx).Create(t).Error
}

// ActiveShift locks the shift row for the rest of the transaction so a
// concurrent shift-close cannot slip between the status check and the
// transaction insert.
func (r *GormRepository) ActiveShift(ctx context.Context, shiftID int64) (*domain.Shift, error) {
	var shift domain.Shift
	err := r.DB.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND status = ?", shiftID, domain.ShiftActive).
		First(&shift).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &shift, nil
}
