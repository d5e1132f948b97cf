package domain

import (
	"time"
)

const (
	ShiftActive = "ACTIVE"
	// ShiftEnding marks a shift whose close has begun: the drawer is being
	// counted and no new transactions may be attributed to it.
	ShiftEnding = "ENDING"
	ShiftClosed = "CLOSED"
)

// Shift is a bounded staff work session. All monetary transactions and
// check-ins are attributed to exactly one shift. A staff member has at most
// one ACTIVE shift at a time.
type Shift struct {
	ID                   int64      `json:"id,string" form:"id"`
	StartingStaffId      int64      `gorm:"index" json:"starting_staff_id,string" form:"starting_staff_id"`
	EndingStaffId        int64      `json:"ending_staff_id,string" form:"ending_staff_id"`
	StartTime            time.Time  `json:"start_time" form:"start_time"`
	EndTime              *time.Time `json:"end_time" form:"end_time"`
	StartingCashFloat    float64    `json:"starting_cash_float" form:"starting_cash_float"`
	EndingCashBalance    float64    `json:"ending_cash_balance" form:"ending_cash_balance"`
	SystemCalculatedCash float64    `json:"system_calculated_cash" form:"system_calculated_cash"`
	CashDiscrepancy      float64    `json:"cash_discrepancy" form:"cash_discrepancy"`
	Status               string     `gorm:"index;size:16" json:"status" form:"status"`
	HandoverNotes        string     `json:"handover_notes" form:"handover_notes"`
	NextShiftId          int64      `json:"next_shift_id,string" form:"next_shift_id"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// TableName Specify table name
func (Shift) TableName() string {
	return "shifts"
}
