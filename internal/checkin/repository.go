package checkin

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fongpn/fmfalorsetar-sub000/internal/domain"
	"github.com/fongpn/fmfalorsetar-sub000/pkg/common"
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

func (r *GormRepository) GetCouponByCode(ctx context.Context, code string) (*domain.SoldCoupon, error) {
	var c domain.SoldCoupon
	err := r.DB.WithContext(ctx).Where("code = ?", code).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// DecrementCouponEntry is the conditional decrement that closes the
// read-then-write race on coupon entries: the guard lives in the WHERE
// clause, so only one of two concurrent check-ins can consume the last
// entry.
func (r *GormRepository) DecrementCouponEntry(ctx context.Context, couponID int64) (bool, error) {
	res := r.DB.WithContext(ctx).Model(&domain.SoldCoupon{}).
		Where("id = ? AND entries_remaining > 0", couponID).
		Updates(map[string]interface{}{
			"entries_remaining": gorm.Expr("entries_remaining - 1"),
			"updated_at":        time.Now(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *GormRepository) HasCheckinOn(ctx context.Context, memberID int64, day time.Time) (bool, error) {
	start := common.Today(day)
	end := start.AddDate(0, 0, 1)
	var count int64
	err := r.DB.WithContext(ctx).Model(&domain.CheckIn{}).
		Where("member_id = ? AND kind = ? AND checkin_time >= ? AND checkin_time < ?",
			memberID, domain.CheckinMember, start, end).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GormRepository) CreateCheckin(ctx context.Context, ci *domain.CheckIn) error {
	return r.DB.WithContext(ctx).Create(ci).Error
}

func (r *GormRepository) CreateTransaction(ctx context.Context, t *domain.Transaction) error {
	return r.DB.WithContext(ctx).Create(t).Error
}

func (r *GormRepository) ActiveShift(ctx context.Context, shiftID int64) (*domain.Shift, error) {
	var s domain.Shift
	err := r.DB.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND status = ?", shiftID, domain.ShiftActive).
		First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}
