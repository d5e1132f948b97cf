package domain

import "time"

// Stock movement reasons.
const (
	StockMoveSale       = "SALE"
	StockMoveRestock    = "RESTOCK"
	StockMoveAdjustment = "ADJUSTMENT"
)

// Product is a retail item sold over the counter. CurrentStock is mutated
// only through signed stock movements; sales use a conditional decrement so
// stock never goes negative.
type Product struct {
	ID           int64     `json:"id,string" form:"id"`
	Name         string    `gorm:"index" json:"name" form:"name"`
	Sku          string    `gorm:"uniqueIndex;size:64" json:"sku" form:"sku"`
	Price        float64   `json:"price" form:"price"`
	CurrentStock int       `json:"current_stock" form:"current_stock"`
	IsActive     bool      `gorm:"index" json:"is_active" form:"is_active"`
	Image        string    `gorm:"size:1024" json:"image" form:"image"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName Specify table name
func (Product) TableName() string {
	return "products"
}

// StockMovement is one signed stock delta (sale negative, restock positive)
// kept as the audit trail for CurrentStock.
type StockMovement struct {
	ID        int64     `json:"id,string" form:"id"`
	ProductId int64     `gorm:"index" json:"product_id,string" form:"product_id"`
	Delta     int       `json:"delta" form:"delta"`
	Reason    string    `gorm:"size:32" json:"reason" form:"reason"`
	StaffId   int64     `json:"staff_id,string" form:"staff_id"`
	ShiftId   int64     `gorm:"index" json:"shift_id,string" form:"shift_id"`
	Remark    string    `json:"remark" form:"remark"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// TableName Specify table name
func (StockMovement) TableName() string {
	return "stock_movements"
}
