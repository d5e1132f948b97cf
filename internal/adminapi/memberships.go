package adminapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/fongpn/fmfalorsetar-sub000/internal/domain"
	"github.com/fongpn/fmfalorsetar-sub000/internal/membership"
	"github.com/fongpn/fmfalorsetar-sub000/internal/shift"
	"github.com/fongpn/fmfalorsetar-sub000/internal/webserver"
)

type purchasePayload struct {
	MemberId      int64  `json:"member_id,string" validate:"required"`
	PlanId        int64  `json:"plan_id,string" validate:"required"`
	PaymentMethod string `json:"payment_method" validate:"required,oneof=CASH CARD QR"`
	ChargeRegFee  bool   `json:"charge_reg_fee"`
}

func registerMembershipRoutes() {
	webserver.ApiGET("/memberships", listMemberships)
	webserver.ApiGET("/members/:id/status", memberStatus)
	webserver.ApiPOST("/memberships/purchase", purchaseMembership)
}

func membershipService(c echo.Context) *membership.Service {
	appCtx := GetAppContext(c)
	return membership.NewService(
		membership.NewGormRepository(appCtx.DB()),
		appCtx.Settings(),
		appCtx.Bus(),
	)
}

// activeShiftForOperator resolves the calling operator's ACTIVE shift, the
// shift every counter operation is attributed to.
func activeShiftForOperator(c echo.Context) (*domain.Shift, int64, error) {
	staffID, _, _ := currentOperator(c)
	repo := shift.NewGormRepository(GetDB(c))
	s, err := repo.ActiveShiftForStaff(c.Request().Context(), staffID)
	if err != nil {
		return nil, staffID, err
	}
	return s, staffID, nil
}

func listMemberships(c echo.Context) error {
	page, perPage := parsePagination(c)

	query := GetDB(c).Model(&domain.Membership{})
	if memberID := c.QueryParam("member_id"); memberID != "" {
		query = query.Where("member_id = ?", memberID)
	}
	if status := c.QueryParam("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query memberships", err.Error())
	}
	var rows []domain.Membership
	if err := query.Order("end_date DESC").Offset((page - 1) * perPage).Limit(perPage).Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query memberships", err.Error())
	}
	return paged(c, rows, total, page, perPage)
}

// memberStatus derives the member's lifecycle state for the front desk.
func memberStatus(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid member ID", nil)
	}

	status, current, err := membershipService(c).Status(c.Request().Context(), id)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to derive member status", err.Error())
	}
	return ok(c, map[string]interface{}{
		"status":     status,
		"membership": current,
	})
}

func purchaseMembership(c echo.Context) error {
	var payload purchasePayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse purchase", err.Error())
	}
	if err := c.Validate(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Purchase validation failed", err.Error())
	}

	activeShift, staffID, err := activeShiftForOperator(c)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to resolve active shift", err.Error())
	}
	if activeShift == nil {
		return fail(c, http.StatusConflict, "NO_ACTIVE_SHIFT", "Open a shift before recording sales", nil)
	}

	created, err := membershipService(c).Purchase(c.Request().Context(), membership.PurchaseInput{
		MemberId:      payload.MemberId,
		PlanId:        payload.PlanId,
		ShiftId:       activeShift.ID,
		StaffId:       staffID,
		PaymentMethod: payload.PaymentMethod,
		ChargeRegFee:  payload.ChargeRegFee,
	})
	switch {
	case err == membership.ErrMemberNotFound:
		return fail(c, http.StatusNotFound, "MEMBER_NOT_FOUND", "Member not found", nil)
	case err == membership.ErrPlanNotFound:
		return fail(c, http.StatusNotFound, "PLAN_NOT_FOUND", "Plan not found", nil)
	case err == membership.ErrPlanInactive:
		return fail(c, http.StatusConflict, "PLAN_INACTIVE", "Plan is no longer offered", nil)
	case err == membership.ErrShiftNotActive:
		return fail(c, http.StatusConflict, "SHIFT_NOT_ACTIVE", "Shift is no longer active", nil)
	case err != nil:
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to record purchase", err.Error())
	}
	return ok(c, created)
}
