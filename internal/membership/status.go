package membership

import (
	"time"

	"github.com/fongpn/fmfalorsetar-sub000/pkg/common"
)

// Lifecycle states derived from a membership's end date. None of these are
// persisted; the stored status column only distinguishes the single ACTIVE
// row from historical EXPIRED ones.
type Status string

const (
	StatusActive  Status = "ACTIVE"
	StatusInGrace Status = "IN_GRACE"
	StatusExpired Status = "EXPIRED"
)

// DefaultGracePeriodDays is the canonical fallback used whenever the
// configured grace period is missing or unparseable. It is defined once
// here so every call site agrees on it.
const DefaultGracePeriodDays = 7

// StatusResult is the derived lifecycle state of a member.
// DaysUntilExpiry is nil when the member has no active membership row at
// all; otherwise it is the whole-day distance to the end date and may be
// negative after expiry.
type StatusResult struct {
	Status          Status `json:"status"`
	DaysUntilExpiry *int   `json:"days_until_expiry,omitempty"`
}

// Evaluate derives the lifecycle state for a membership ending on endDate,
// as seen on the calendar day of today. The end date itself is still ACTIVE;
// the day the grace period ends is still IN_GRACE.
func Evaluate(endDate time.Time, gracePeriodDays int, today time.Time) StatusResult {
	end := common.Today(endDate)
	day := common.Today(today)
	graceEnd := end.AddDate(0, 0, gracePeriodDays)

	days := calendarDays(day, end)
	res := StatusResult{DaysUntilExpiry: &days}

	switch {
	case !day.After(end):
		res.Status = StatusActive
	case !day.After(graceEnd):
		res.Status = StatusInGrace
	default:
		res.Status = StatusExpired
	}
	return res
}

// calendarDays counts whole days from a to b. Both dates are re-anchored
// at UTC midnight so the count is unaffected by DST transitions, where a
// local midnight-to-midnight interval is not a multiple of 24 hours.
func calendarDays(a, b time.Time) int {
	au := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bu := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(bu.Sub(au).Hours() / 24)
}

// NoMembership is the result for a member with no active membership row.
func NoMembership() StatusResult {
	return StatusResult{Status: StatusExpired}
}
