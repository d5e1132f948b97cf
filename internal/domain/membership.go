package domain

import (
	"time"
)

const (
	MembershipActive  = "ACTIVE"
	MembershipExpired = "EXPIRED"
)

// Membership is one paid access period for a member. A member has at most one
// ACTIVE membership row at a time; renewals expire the prior row in the same
// database transaction that creates the new one.
type Membership struct {
	ID        int64     `json:"id,string" form:"id"`
	MemberId  int64     `gorm:"index" json:"member_id,string" form:"member_id"`
	PlanId    int64     `gorm:"index" json:"plan_id,string" form:"plan_id"`
	StartDate time.Time `json:"start_date" form:"start_date"`
	EndDate   time.Time `gorm:"index" json:"end_date" form:"end_date"`
	Status    string    `gorm:"index;size:16" json:"status" form:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName Specify table name
func (Membership) TableName() string {
	return "memberships"
}

// MembershipPlan is a pricing template. Plans referenced by memberships are
// soft-deleted (is_active=false) rather than removed.
type MembershipPlan struct {
	ID             int64     `json:"id,string" form:"id"`
	Name           string    `gorm:"index" json:"name" form:"name"`
	Price          float64   `json:"price" form:"price"`
	DurationMonths int       `json:"duration_months" form:"duration_months"`
	FreeMonths     int       `json:"free_months" form:"free_months"`
	RegFeeRequired bool      `json:"reg_fee_required" form:"reg_fee_required"`
	IsActive       bool      `gorm:"index" json:"is_active" form:"is_active"`
	Remark         string    `json:"remark" form:"remark"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TableName Specify table name
func (MembershipPlan) TableName() string {
	return "membership_plans"
}
