package adminapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/fongpn/fmfalorsetar-sub000/internal/domain"
	"github.com/fongpn/fmfalorsetar-sub000/internal/shift"
	"github.com/fongpn/fmfalorsetar-sub000/internal/webserver"
)

type openShiftPayload struct {
	StartingCashFloat float64 `json:"starting_cash_float" validate:"gte=0"`
}

type closeShiftPayload struct {
	ActualCounted float64 `json:"actual_counted" validate:"gte=0"`
	HandoverNotes string  `json:"handover_notes" validate:"omitempty,max=2000"`
	NextShiftId   int64   `json:"next_shift_id,string"`
}

func registerShiftRoutes() {
	webserver.ApiGET("/shifts", listShifts)
	webserver.ApiGET("/shifts/current", currentShift)
	webserver.ApiGET("/shifts/:id", getShift)
	webserver.ApiPOST("/shifts/open", openShift)
	webserver.ApiPOST("/shifts/:id/preview", previewShift)
	webserver.ApiPOST("/shifts/:id/close", closeShift)
}

func shiftService(c echo.Context) *shift.Service {
	appCtx := GetAppContext(c)
	return shift.NewService(
		shift.NewGormRepository(appCtx.DB()),
		shift.NewWebhookNotifier(appCtx.Settings()),
	)
}

func listShifts(c echo.Context) error {
	page, perPage := parsePagination(c)

	query := GetDB(c).Model(&domain.Shift{})
	if status := c.QueryParam("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if staffID := c.QueryParam("staff_id"); staffID != "" {
		query = query.Where("starting_staff_id = ?", staffID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query shifts", err.Error())
	}
	var rows []domain.Shift
	if err := query.Order("start_time DESC").Offset((page - 1) * perPage).Limit(perPage).Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query shifts", err.Error())
	}
	return paged(c, rows, total, page, perPage)
}

// currentShift returns the calling operator's ACTIVE shift, if any.
func currentShift(c echo.Context) error {
	s, _, err := activeShiftForOperator(c)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query current shift", err.Error())
	}
	return ok(c, s)
}

func getShift(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid shift ID", nil)
	}
	var s domain.Shift
	if err := GetDB(c).Where("id = ?", id).First(&s).Error; err != nil {
		return fail(c, http.StatusNotFound, "SHIFT_NOT_FOUND", "Shift not found", nil)
	}
	return ok(c, s)
}

func openShift(c echo.Context) error {
	var payload openShiftPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse shift open", err.Error())
	}
	if err := c.Validate(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Starting float must not be negative", nil)
	}

	staffID, _, _ := currentOperator(c)
	opened, err := shiftService(c).Open(c.Request().Context(), staffID, payload.StartingCashFloat)
	switch {
	case err == shift.ErrShiftAlreadyActive:
		return fail(c, http.StatusConflict, "SHIFT_ALREADY_ACTIVE", "You already have an active shift", nil)
	case err != nil:
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to open shift", err.Error())
	}
	return ok(c, opened)
}

// previewShift reconciles without closing, for the close screen. The shift
// stays ACTIVE, so the numbers are a snapshot that may still move.
func previewShift(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid shift ID", nil)
	}
	var payload closeShiftPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse reconciliation request", err.Error())
	}

	rec, err := shiftService(c).Preview(c.Request().Context(), id, payload.ActualCounted)
	switch {
	case err == shift.ErrShiftNotFound:
		return fail(c, http.StatusNotFound, "SHIFT_NOT_FOUND", "Shift not found", nil)
	case err != nil:
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to reconcile shift", err.Error())
	}
	return ok(c, rec)
}

func closeShift(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid shift ID", nil)
	}
	var payload closeShiftPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse shift close", err.Error())
	}
	if err := c.Validate(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Counted cash must not be negative", nil)
	}

	staffID, _, _ := currentOperator(c)
	closed, err := shiftService(c).Close(c.Request().Context(), shift.CloseInput{
		ShiftId:       id,
		EndingStaffId: staffID,
		ActualCounted: payload.ActualCounted,
		HandoverNotes: payload.HandoverNotes,
		NextShiftId:   payload.NextShiftId,
	})
	switch {
	case err == shift.ErrShiftNotFound:
		return fail(c, http.StatusNotFound, "SHIFT_NOT_FOUND", "Shift not found", nil)
	case err == shift.ErrShiftNotActive:
		return fail(c, http.StatusConflict, "SHIFT_NOT_ACTIVE", "Shift is already closing or closed", nil)
	case err != nil:
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to close shift", err.Error())
	}
	return ok(c, closed)
}
