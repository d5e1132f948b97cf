package domain

import (
	"time"
)

// CouponTemplate is the sellable definition of a multi-entry pass.
type CouponTemplate struct {
	ID           int64     `json:"id,string" form:"id"`
	Name         string    `gorm:"index" json:"name" form:"name"`
	Price        float64   `json:"price" form:"price"`
	Entries      int       `json:"entries" form:"entries"`
	ValidityDays int       `json:"validity_days" form:"validity_days"`
	IsActive     bool      `gorm:"index" json:"is_active" form:"is_active"`
	Remark       string    `json:"remark" form:"remark"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName Specify table name
func (CouponTemplate) TableName() string {
	return "coupon_templates"
}

// SoldCoupon is a purchased multi-entry pass. EntriesRemaining is only ever
// changed through a conditional decrement so it cannot go below zero under
// concurrent check-ins.
type SoldCoupon struct {
	ID               int64     `json:"id,string" form:"id"`
	Code             string    `gorm:"uniqueIndex;size:32" json:"code" form:"code"`
	TemplateId       int64     `gorm:"index" json:"template_id,string" form:"template_id"`
	MemberId         int64     `gorm:"index" json:"member_id,string" form:"member_id"`
	EntriesRemaining int       `json:"entries_remaining" form:"entries_remaining"`
	ExpiryDate       time.Time `gorm:"index" json:"expiry_date" form:"expiry_date"`
	SoldAt           time.Time `json:"sold_at" form:"sold_at"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// TableName Specify table name
func (SoldCoupon) TableName() string {
	return "sold_coupons"
}
