package domain

import (
	"time"
)

// Transaction types. Every one of these counts as drawer revenue during
// shift reconciliation.
const (
	TransMembership = "MEMBERSHIP"
	TransCouponSale = "COUPON_SALE"
	TransPosSale    = "POS_SALE"
	TransWalkIn     = "WALK_IN"
	TransRegFee     = "REGISTRATION_FEE"
)

const (
	TransPaid        = "PAID"
	TransOutstanding = "OUTSTANDING"
)

// Transaction is a monetary event attributed to a shift and a staff
// operator. Rows are append-only and never mutated after creation.
type Transaction struct {
	ID            int64     `json:"id,string" form:"id"`
	ShiftId       int64     `gorm:"index" json:"shift_id,string" form:"shift_id"`
	StaffId       int64     `gorm:"index" json:"staff_id,string" form:"staff_id"`
	MemberId      int64     `gorm:"index" json:"member_id,string" form:"member_id"`
	Type          string    `gorm:"index;size:32" json:"type" form:"type"`
	Amount        float64   `json:"amount" form:"amount"`
	PaymentMethod string    `gorm:"size:32" json:"payment_method" form:"payment_method"`
	Status        string    `gorm:"size:16" json:"status" form:"status"`
	Remark        string    `json:"remark" form:"remark"`
	CreatedAt     time.Time `gorm:"index" json:"created_at"`
}

// TableName Specify table name
func (Transaction) TableName() string {
	return "transactions"
}
