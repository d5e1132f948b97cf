package pos

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/fongpn/fmfalorsetar-sub000/internal/domain"
	"github.com/fongpn/fmfalorsetar-sub000/pkg/common"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrProductInactive   = errors.New("product is not active")
	ErrTemplateNotFound  = errors.New("coupon template not found")
	ErrTemplateInactive  = errors.New("coupon template is not active")
	ErrShiftNotActive    = errors.New("shift is not active")
	ErrEmptySale         = errors.New("sale has no lines")
)

// ErrInsufficientStock reports which product could not cover the requested
// quantity. The whole sale is rolled back when any line fails.
type ErrInsufficientStock struct {
	ProductId int64
	Name      string
	Requested int
}

func (e *ErrInsufficientStock) Error() string {
	return fmt.Sprintf("insufficient stock for %s (product %d, requested %d)", e.Name, e.ProductId, e.Requested)
}

// Event topics published after successful operations.
const (
	TopicSale       = "pos:sale"
	TopicCouponSold = "pos:coupon_sold"
)

// Repository is the persistence surface the point-of-sale service needs.
type Repository interface {
	Atomically(ctx context.Context, fn func(Repository) error) error
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	// DecrementStock conditionally subtracts qty from current_stock and
	// reports whether the product had enough stock. Must be atomic.
	DecrementStock(ctx context.Context, productID int64, qty int) (bool, error)
	IncrementStock(ctx context.Context, productID int64, qty int) error
	CreateStockMovement(ctx context.Context, m *domain.StockMovement) error
	CreateTransaction(ctx context.Context, t *domain.Transaction) error
	GetCouponTemplate(ctx context.Context, id int64) (*domain.CouponTemplate, error)
	CreateSoldCoupon(ctx context.Context, c *domain.SoldCoupon) error
	// ActiveShift returns the shift when it exists and is ACTIVE, holding a
	// row lock for the rest of the enclosing transaction.
	ActiveShift(ctx context.Context, shiftID int64) (*domain.Shift, error)
}

// Publisher is the in-process event bus surface.
type Publisher interface {
	Publish(topic string, args ...interface{})
}

// Service handles retail sales, restocks and coupon sales. Every operation
// runs as one database transaction; stock can never go negative because
// the decrement is guarded in SQL, not in application reads.
type Service struct {
	repo Repository
	bus  Publisher
	now  func() time.Time
}

func NewService(repo Repository, bus Publisher) *Service {
	return &Service{repo: repo, bus: bus, now: time.Now}
}

// SaleLine is one product line of a retail sale.
type SaleLine struct {
	ProductId int64 `json:"product_id,string"`
	Qty       int   `json:"qty"`
}

// SaleInput is a multi-line retail sale rung up at the counter.
type SaleInput struct {
	Lines         []SaleLine
	ShiftId       int64
	StaffId       int64
	MemberId      int64
	PaymentMethod string
}

// Sale decrements stock for every line, records the signed stock
// movements, and creates a single POS_SALE transaction for the total.
// Insufficient stock on any line aborts the whole sale.
func (s *Service) Sale(ctx context.Context, in SaleInput) (*domain.Transaction, error) {
	if len(in.Lines) == 0 {
		return nil, ErrEmptySale
	}

	var txn *domain.Transaction
	err := s.repo.Atomically(ctx, func(r Repository) error {
		shift, err := r.ActiveShift(ctx, in.ShiftId)
		if err != nil {
			return err
		}
		if shift == nil {
			return ErrShiftNotActive
		}

		var total float64
		for _, line := range in.Lines {
			if line.Qty <= 0 {
				return errors.Errorf("invalid quantity %d for product %d", line.Qty, line.ProductId)
			}
			product, err := r.GetProduct(ctx, line.ProductId)
			if err != nil {
				return err
			}
			if product == nil {
				return ErrProductNotFound
			}
			if !product.IsActive {
				return ErrProductInactive
			}
			decremented, err := r.DecrementStock(ctx, product.ID, line.Qty)
			if err != nil {
				return err
			}
			if !decremented {
				return &ErrInsufficientStock{ProductId: product.ID, Name: product.Name, Requested: line.Qty}
			}
			if err = r.CreateStockMovement(ctx, &domain.StockMovement{
				ID:        common.UUIDint64(),
				ProductId: product.ID,
				Delta:     -line.Qty,
				Reason:    domain.StockMoveSale,
				StaffId:   in.StaffId,
				ShiftId:   shift.ID,
			}); err != nil {
				return err
			}
			total += product.Price * float64(line.Qty)
		}

		txn = &domain.Transaction{
			ID:            common.UUIDint64(),
			ShiftId:       shift.ID,
			StaffId:       in.StaffId,
			MemberId:      in.MemberId,
			Type:          domain.TransPosSale,
			Amount:        total,
			PaymentMethod: in.PaymentMethod,
			Status:        domain.TransPaid,
		}
		return r.CreateTransaction(ctx, txn)
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("pos sale recorded",
		zap.Int64("shift_id", in.ShiftId),
		zap.Int("lines", len(in.Lines)),
		zap.Float64("amount", txn.Amount))
	if s.bus != nil {
		s.bus.Publish(TopicSale, txn)
	}
	return txn, nil
}

// RestockInput is a stock intake for a product.
type RestockInput struct {
	ProductId int64
	Qty       int
	StaffId   int64
	Remark    string
}

// Restock adds stock with a positive movement for the audit trail.
func (s *Service) Restock(ctx context.Context, in RestockInput) error {
	if in.Qty <= 0 {
		return errors.Errorf("invalid restock quantity %d", in.Qty)
	}
	return s.repo.Atomically(ctx, func(r Repository) error {
		product, err := r.GetProduct(ctx, in.ProductId)
		if err != nil {
			return err
		}
		if product == nil {
			return ErrProductNotFound
		}
		if err = r.IncrementStock(ctx, product.ID, in.Qty); err != nil {
			return err
		}
		return r.CreateStockMovement(ctx, &domain.StockMovement{
			ID:        common.UUIDint64(),
			ProductId: product.ID,
			Delta:     in.Qty,
			Reason:    domain.StockMoveRestock,
			StaffId:   in.StaffId,
			Remark:    in.Remark,
		})
	})
}

// CouponSaleInput is the sale of a multi-entry pass from a template.
type CouponSaleInput struct {
	TemplateId    int64
	MemberId      int64
	ShiftId       int64
	StaffId       int64
	PaymentMethod string
}

// SellCoupon creates a sold coupon from its template and records the
// COUPON_SALE transaction in the same database transaction. Expiry is
// sale day plus the template's validity window.
func (s *Service) SellCoupon(ctx context.Context, in CouponSaleInput) (*domain.SoldCoupon, error) {
	var sold *domain.SoldCoupon
	err := s.repo.Atomically(ctx, func(r Repository) error {
		tpl, err := r.GetCouponTemplate(ctx, in.TemplateId)
		if err != nil {
			return err
		}
		if tpl == nil {
			return ErrTemplateNotFound
		}
		if !tpl.IsActive {
			return ErrTemplateInactive
		}
		shift, err := r.ActiveShift(ctx, in.ShiftId)
		if err != nil {
			return err
		}
		if shift == nil {
			return ErrShiftNotActive
		}

		now := s.now()
		sold = &domain.SoldCoupon{
			ID:               common.UUIDint64(),
			Code:             common.RandomCode(8),
			TemplateId:       tpl.ID,
			MemberId:         in.MemberId,
			EntriesRemaining: tpl.Entries,
			ExpiryDate:       common.Today(now).AddDate(0, 0, tpl.ValidityDays),
			SoldAt:           now,
		}
		if err = r.CreateSoldCoupon(ctx, sold); err != nil {
			return err
		}
		return r.CreateTransaction(ctx, &domain.Transaction{
			ID:            common.UUIDint64(),
			ShiftId:       shift.ID,
			StaffId:       in.StaffId,
			MemberId:      in.MemberId,
			Type:          domain.TransCouponSale,
			Amount:        tpl.Price,
			PaymentMethod: in.PaymentMethod,
			Status:        domain.TransPaid,
			Remark:        tpl.Name,
		})
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("coupon sold",
		zap.Int64("template_id", in.TemplateId),
		zap.String("code", sold.Code))
	if s.bus != nil {
		s.bus.Publish(TopicCouponSold, sold)
	}
	return sold, nil
}
