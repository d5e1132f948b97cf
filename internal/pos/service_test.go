package pos

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fongpn/fmfalorsetar-sub000/internal/domain"
)

type fakePosRepo struct {
	products  map[int64]*domain.Product
	templates map[int64]*domain.CouponTemplate
	shifts    map[int64]*domain.Shift
	movements []*domain.StockMovement
	txns      []*domain.Transaction
	sold      []*domain.SoldCoupon
}

func newFakePosRepo() *fakePosRepo {
	return &fakePosRepo{
		products:  map[int64]*domain.Product{},
		templates: map[int64]*domain.CouponTemplate{},
		shifts:    map[int64]*domain.Shift{},
	}
}

// Atomically mimics transactional rollback: on error all staged writes are
// discarded, including stock decrements.
func (f *fakePosRepo) Atomically(ctx context.Context, fn func(Repository) error) error {
	stock := map[int64]int{}
	for id, p := range f.products {
		stock[id] = p.CurrentStock
	}
	movements, txns, sold := len(f.movements), len(f.txns), len(f.sold)

	if err := fn(f); err != nil {
		for id, v := range stock {
			f.products[id].CurrentStock = v
		}
		f.movements = f.movements[:movements]
		f.txns = f.txns[:txns]
		f.sold = f.sold[:sold]
		return err
	}
	return nil
}

func (f *fakePosRepo) GetProduct(_ context.Context, id int64) (*domain.Product, error) {
	return f.products[id], nil
}

func (f *fakePosRepo) DecrementStock(_ context.Context, productID int64, qty int) (bool, error) {
	p := f.products[productID]
	if p == nil || p.CurrentStock < qty {
		return false, nil
	}
	p.CurrentStock -= qty
	return true, nil
}

func (f *fakePosRepo) IncrementStock(_ context.Context, productID int64, qty int) error {
	f.products[productID].CurrentStock += qty
	return nil
}

func (f *fakePosRepo) CreateStockMovement(_ context.Context, m *domain.StockMovement) error {
	f.movements = append(f.movements, m)
	return nil
}

func (f *fakePosRepo) CreateTransaction(_ context.Context, t *domain.Transaction) error {
	f.txns = append(f.txns, t)
	return nil
}

func (f *fakePosRepo) GetCouponTemplate(_ context.Context, id int64) (*domain.CouponTemplate, error) {
	return f.templates[id], nil
}

func (f *fakePosRepo) CreateSoldCoupon(_ context.Context, c *domain.SoldCoupon) error {
	f.sold = append(f.sold, c)
	return nil
}

func (f *fakePosRepo) ActiveShift(_ context.Context, shiftID int64) (*domain.Shift, error) {
	s := f.shifts[shiftID]
	if s == nil || s.Status != domain.ShiftActive {
		return nil, nil
	}
	return s, nil
}

func seedCounter(repo *fakePosRepo) {
	repo.shifts[100] = &domain.Shift{ID: 100, Status: domain.ShiftActive}
	repo.products[1] = &domain.Product{ID: 1, Sku: "WTR-500", Name: "Mineral Water", Price: 2.50, CurrentStock: 10, IsActive: true}
	repo.products[2] = &domain.Product{ID: 2, Sku: "PRO-BAR", Name: "Protein Bar", Price: 8.00, CurrentStock: 3, IsActive: true}
}

func TestSale(t *testing.T) {
	repo := newFakePosRepo()
	seedCounter(repo)
	svc := NewService(repo, nil)

	txn, err := svc.Sale(context.Background(), SaleInput{
		Lines: []SaleLine{
			{ProductId: 1, Qty: 2},
			{ProductId: 2, Qty: 1},
		},
		ShiftId: 100, StaffId: 5, PaymentMethod: "CASH",
	})
	require.NoError(t, err)

	assert.Equal(t, domain.TransPosSale, txn.Type)
	assert.InDelta(t, 13.00, txn.Amount, 0.001)
	assert.Equal(t, 8, repo.products[1].CurrentStock)
	assert.Equal(t, 2, repo.products[2].CurrentStock)

	require.Len(t, repo.movements, 2)
	assert.Equal(t, -2, repo.movements[0].Delta)
	assert.Equal(t, domain.StockMoveSale, repo.movements[0].Reason)
	assert.Equal(t, -1, repo.movements[1].Delta)
	require.Len(t, repo.txns, 1)
}

func TestSaleInsufficientStockAbortsWholeSale(t *testing.T) {
	repo := newFakePosRepo()
	seedCounter(repo)
	svc := NewService(repo, nil)

	_, err := svc.Sale(context.Background(), SaleInput{
		Lines: []SaleLine{
			{ProductId: 1, Qty: 2},
			{ProductId: 2, Qty: 4}, // only 3 in stock
		},
		ShiftId: 100, PaymentMethod: "CASH",
	})
	var stockErr *ErrInsufficientStock
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, int64(2), stockErr.ProductId)
	assert.Equal(t, 4, stockErr.Requested)

	// the first line's decrement must not survive the failed sale
	assert.Equal(t, 10, repo.products[1].CurrentStock)
	assert.Equal(t, 3, repo.products[2].CurrentStock)
	assert.Empty(t, repo.movements)
	assert.Empty(t, repo.txns)
}

func TestSaleValidation(t *testing.T) {
	repo := newFakePosRepo()
	seedCounter(repo)
	repo.products[3] = &domain.Product{ID: 3, Name: "Retired", Price: 1, CurrentStock: 5, IsActive: false}
	svc := NewService(repo, nil)

	_, err := svc.Sale(context.Background(), SaleInput{ShiftId: 100})
	assert.ErrorIs(t, err, ErrEmptySale)

	_, err = svc.Sale(context.Background(), SaleInput{
		Lines: []SaleLine{{ProductId: 404, Qty: 1}}, ShiftId: 100,
	})
	assert.ErrorIs(t, err, ErrProductNotFound)

	_, err = svc.Sale(context.Background(), SaleInput{
		Lines: []SaleLine{{ProductId: 3, Qty: 1}}, ShiftId: 100,
	})
	assert.ErrorIs(t, err, ErrProductInactive)

	repo.shifts[100].Status = domain.ShiftClosed
	_, err = svc.Sale(context.Background(), SaleInput{
		Lines: []SaleLine{{ProductId: 1, Qty: 1}}, ShiftId: 100,
	})
	assert.ErrorIs(t, err, ErrShiftNotActive)
	assert.Equal(t, 10, repo.products[1].CurrentStock)
}

func TestRestock(t *testing.T) {
	repo := newFakePosRepo()
	seedCounter(repo)
	svc := NewService(repo, nil)

	err := svc.Restock(context.Background(), RestockInput{ProductId: 2, Qty: 12, StaffId: 5})
	require.NoError(t, err)
	assert.Equal(t, 15, repo.products[2].CurrentStock)
	require.Len(t, repo.movements, 1)
	assert.Equal(t, 12, repo.movements[0].Delta)
	assert.Equal(t, domain.StockMoveRestock, repo.movements[0].Reason)

	err = svc.Restock(context.Background(), RestockInput{ProductId: 2, Qty: 0})
	assert.Error(t, err)
	err = svc.Restock(context.Background(), RestockInput{ProductId: 404, Qty: 1})
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestSellCoupon(t *testing.T) {
	repo := newFakePosRepo()
	seedCounter(repo)
	repo.templates[10] = &domain.CouponTemplate{
		ID: 10, Name: "10-Entry Pass", Price: 60, Entries: 10, ValidityDays: 90, IsActive: true,
	}
	svc := NewService(repo, nil)
	svc.now = func() time.Time { return time.Date(2024, 1, 15, 14, 0, 0, 0, time.Local) }

	sold, err := svc.SellCoupon(context.Background(), CouponSaleInput{
		TemplateId: 10, MemberId: 1, ShiftId: 100, StaffId: 5, PaymentMethod: "CASH",
	})
	require.NoError(t, err)

	assert.Len(t, sold.Code, 8)
	assert.Equal(t, 10, sold.EntriesRemaining)
	assert.Equal(t, time.Date(2024, 4, 14, 0, 0, 0, 0, time.Local), sold.ExpiryDate)

	require.Len(t, repo.txns, 1)
	assert.Equal(t, domain.TransCouponSale, repo.txns[0].Type)
	assert.Equal(t, 60.0, repo.txns[0].Amount)
	require.Len(t, repo.sold, 1)
}

func TestSellCouponErrors(t *testing.T) {
	repo := newFakePosRepo()
	seedCounter(repo)
	repo.templates[11] = &domain.CouponTemplate{ID: 11, Name: "Retired Pass", IsActive: false}
	svc := NewService(repo, nil)

	_, err := svc.SellCoupon(context.Background(), CouponSaleInput{TemplateId: 404, ShiftId: 100})
	assert.ErrorIs(t, err, ErrTemplateNotFound)

	_, err = svc.SellCoupon(context.Background(), CouponSaleInput{TemplateId: 11, ShiftId: 100})
	assert.ErrorIs(t, err, ErrTemplateInactive)
	assert.Empty(t, repo.sold)
	assert.Empty(t, repo.txns)
}
