package pos

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

func (r *GormRepository) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	var p domain.Product
	err := r.DB.WithContext(ctx).Where("id = ?", id).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// DecrementStock subtracts qty only when the product can cover it. The
// stock guard is in the WHERE clause so concurrent sales cannot drive
// current_stock negative.
func (r *GormRepository) DecrementStock(ctx context.Context, productID int64, qty int) (bool, error) {
	res := r.DB.WithContext(ctx).Model(&domain.Product{}).
		Where("id = ? AND current_stock >= ?", productID, qty).
		Updates(map[string]interface{}{
			"current_stock": gorm.Expr("current_stock - ?", qty),
			"updated_at":    time.Now(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *GormRepository) IncrementStock(ctx context.Context, productID int64, qty int) error {
	return r.DB.WithContext(ctx).Model(&domain.Product{}).
		Where("id = ?", productID).
		Updates(map[string]interface{}{
			"current_stock": gorm.Expr("current_stock + ?", qty),
			"updated_at":    time.Now(),
		}).Error
}

func (r *GormRepository) CreateStockMovement(ctx context.Context, m *domain.StockMovement) error {
	return r.DB.WithContext(ctx).Create(m).Error
}

func (r *GormRepository) CreateTransaction(ctx context.Context, t *domain.Transaction) error {
	return r.DB.WithContext(ctx).Create(t).Error
}

func (r *GormRepository) GetCouponTemplate(ctx context.Context, id int64) (*domain.CouponTemplate, error) {
	var tpl domain.CouponTemplate
	err := r.DB.WithContext(ctx).Where("id = ?", id).First(&tpl).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &tpl, nil
}

func (r *GormRepository) CreateSoldCoupon(ctx context.Context, c *domain.SoldCoupon) error {
	return r.DB.WithContext(ctx).Create(c).Error
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
