package domain

import (
	"time"
)

// Check-in kinds accepted at the front desk.
const (
	CheckinMember        = "MEMBER"
	CheckinCoupon        = "COUPON"
	CheckinWalkIn        = "WALK_IN"
	CheckinWalkInStudent = "WALK_IN_STUDENT"
)

// CheckIn is one recorded gym entry. Member check-ins carry the membership
// status observed at the door; coupon check-ins reference the coupon they
// consumed an entry from.
type CheckIn struct {
	ID            int64     `json:"id,string" form:"id"`
	Kind          string    `gorm:"index;size:32" json:"kind" form:"kind"`
	MemberId      int64     `gorm:"index" json:"member_id,string" form:"member_id"`
	SoldCouponId  int64     `gorm:"index" json:"sold_coupon_id,string" form:"sold_coupon_id"`
	ShiftId       int64     `gorm:"index" json:"shift_id,string" form:"shift_id"`
	StaffId       int64     `json:"staff_id,string" form:"staff_id"`
	StatusAtEntry string    `gorm:"size:16" json:"status_at_entry" form:"status_at_entry"`
	Flagged       bool      `json:"flagged" form:"flagged"`
	Remark        string    `json:"remark" form:"remark"`
	CheckinTime   time.Time `gorm:"index" json:"checkin_time" form:"checkin_time"`
	CreatedAt     time.Time `json:"created_at"`
}

// TableName Specify table name
func (CheckIn) TableName() string {
	return "check_ins"
}
