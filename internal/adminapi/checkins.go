package adminapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/araddon/dateparse"
	"github.com/labstack/echo/v4"

	"github.com/fongpn/fmfalorsetar-sub000/internal/checkin"
	"github.com/fongpn/fmfalorsetar-sub000/internal/domain"
	"github.com/fongpn/fmfalorsetar-sub000/internal/webserver"
	"github.com/fongpn/fmfalorsetar-sub000/pkg/common"
)

type checkinPayload struct {
	Kind             string `json:"kind" validate:"required,oneof=MEMBER COUPON WALK_IN WALK_IN_STUDENT"`
	MemberId         int64  `json:"member_id,string"`
	CouponCode       string `json:"coupon_code"`
	PaymentMethod    string `json:"payment_method" validate:"omitempty,oneof=CASH CARD QR"`
	ConfirmDuplicate bool   `json:"confirm_duplicate"`
}

func registerCheckinRoutes() {
	webserver.ApiGET("/checkins", listCheckins)
	webserver.ApiPOST("/checkins", createCheckin)
}

func checkinService(c echo.Context) *checkin.Service {
	appCtx := GetAppContext(c)
	return checkin.NewService(
		checkin.NewGormRepository(appCtx.DB()),
		appCtx.Settings(),
		appCtx.Bus(),
	)
}

func listCheckins(c echo.Context) error {
	page, perPage := parsePagination(c)

	query := GetDB(c).Model(&domain.CheckIn{})
	if kind := c.QueryParam("kind"); kind != "" {
		query = query.Where("kind = ?", kind)
	}
	if memberID := c.QueryParam("member_id"); memberID != "" {
		query = query.Where("member_id = ?", memberID)
	}
	if shiftID := c.QueryParam("shift_id"); shiftID != "" {
		query = query.Where("shift_id = ?", shiftID)
	}
	if from := strings.TrimSpace(c.QueryParam("from")); from != "" {
		if t, err := dateparse.ParseAny(from); err == nil {
			query = query.Where("checkin_time >= ?", common.Today(t))
		}
	}
	if to := strings.TrimSpace(c.QueryParam("to")); to != "" {
		if t, err := dateparse.ParseAny(to); err == nil {
			query = query.Where("checkin_time < ?", common.Today(t).AddDate(0, 0, 1))
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query check-ins", err.Error())
	}
	var rows []domain.CheckIn
	if err := query.Order("checkin_time DESC").Offset((page - 1) * perPage).Limit(perPage).Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query check-ins", err.Error())
	}
	return paged(c, rows, total, page, perPage)
}

// createCheckin dispatches a front-desk check-in by kind.
func createCheckin(c echo.Context) error {
	var payload checkinPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse check-in", err.Error())
	}
	if err := c.Validate(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Check-in validation failed", err.Error())
	}

	activeShift, staffID, err := activeShiftForOperator(c)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to resolve active shift", err.Error())
	}
	if activeShift == nil {
		return fail(c, http.StatusConflict, "NO_ACTIVE_SHIFT", "Open a shift before recording check-ins", nil)
	}

	if payload.Kind == domain.CheckinMember && payload.MemberId == 0 {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "member_id is required for member check-in", nil)
	}
	if payload.Kind == domain.CheckinCoupon && strings.TrimSpace(payload.CouponCode) == "" {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "coupon_code is required for coupon check-in", nil)
	}

	res, err := dispatchCheckin(c.Request().Context(), checkinService(c), payload, activeShift.ID, staffID)

	switch {
	case err == checkin.ErrUnknownCheckinKind:
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unknown check-in kind", payload.Kind)
	case err == checkin.ErrMemberNotFound:
		return fail(c, http.StatusNotFound, "MEMBER_NOT_FOUND", "Member not found", nil)
	case err == checkin.ErrMemberExpired:
		return fail(c, http.StatusConflict, "MEMBERSHIP_EXPIRED", "Membership has expired", res.Status)
	case err == checkin.ErrDuplicateUnconfirmed:
		return fail(c, http.StatusConflict, "DUPLICATE_CHECKIN", "Member already checked in today, set confirm_duplicate to admit anyway", nil)
	case err == checkin.ErrCouponNotFound:
		return fail(c, http.StatusNotFound, "COUPON_NOT_FOUND", "Coupon not found", nil)
	case err == checkin.ErrCouponExpired:
		return fail(c, http.StatusConflict, "COUPON_EXPIRED", "Coupon has expired", nil)
	case err == checkin.ErrCouponExhausted:
		return fail(c, http.StatusConflict, "COUPON_EXHAUSTED", "Coupon has no entries remaining", nil)
	case err == checkin.ErrShiftNotActive:
		return fail(c, http.StatusConflict, "SHIFT_NOT_ACTIVE", "Shift is no longer active", nil)
	case err != nil:
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to record check-in", err.Error())
	}
	return ok(c, res)
}

// dispatchCheckin routes a validated payload to the matching service branch.
func dispatchCheckin(ctx context.Context, svc *checkin.Service, payload checkinPayload, shiftID, staffID int64) (*checkin.Result, error) {
	switch payload.Kind {
	case domain.CheckinMember:
		return svc.Member(ctx, checkin.MemberInput{
			MemberId:         payload.MemberId,
			ShiftId:          shiftID,
			StaffId:          staffID,
			ConfirmDuplicate: payload.ConfirmDuplicate,
		})
	case domain.CheckinCoupon:
		return svc.Coupon(ctx, checkin.CouponInput{
			Code:    strings.TrimSpace(payload.CouponCode),
			ShiftId: shiftID,
			StaffId: staffID,
		})
	case domain.CheckinWalkIn, domain.CheckinWalkInStudent:
		method := payload.PaymentMethod
		if method == "" {
			method = "CASH"
		}
		return svc.WalkIn(ctx, checkin.WalkInInput{
			Student:       payload.Kind == domain.CheckinWalkInStudent,
			ShiftId:       shiftID,
			StaffId:       staffID,
			PaymentMethod: method,
		})
	default:
		return nil, checkin.ErrUnknownCheckinKind
	}
}
