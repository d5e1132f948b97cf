package domain

import (
	"time"
)

// Member is the gym member identity record. Identity fields are immutable in
// normal operation and change only through explicit profile edits.
type Member struct {
	ID         int64     `json:"id,string" form:"id"`
	MemberNo   string    `gorm:"uniqueIndex;size:32" json:"member_no" form:"member_no"`
	Name       string    `gorm:"index" json:"name" form:"name"`
	IcPassport string    `gorm:"size:32" json:"ic_passport" form:"ic_passport"`
	Phone      string    `gorm:"size:32" json:"phone" form:"phone"`
	Email      string    `gorm:"size:128" json:"email" form:"email"`
	PhotoUrl   string    `gorm:"size:1024" json:"photo_url" form:"photo_url"`
	JoinDate   time.Time `json:"join_date" form:"join_date"`
	Remark     string    `json:"remark" form:"remark"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TableName Specify table name
func (Member) TableName() string {
	return "members"
}
