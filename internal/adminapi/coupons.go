package adminapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/fongpn/fmfalorsetar-sub000/internal/domain"
	"github.com/fongpn/fmfalorsetar-sub000/internal/pos"
	"github.com/fongpn/fmfalorsetar-sub000/internal/webserver"
	"github.com/fongpn/fmfalorsetar-sub000/pkg/common"
)

type couponTemplatePayload struct {
	Name         string  `json:"name" validate:"required,min=1,max=200"`
	Price        float64 `json:"price" validate:"gte=0"`
	Entries      int     `json:"entries" validate:"required,min=1"`
	ValidityDays int     `json:"validity_days" validate:"required,min=1"`
	IsActive     bool    `json:"is_active"`
	Remark       string  `json:"remark" validate:"omitempty,max=500"`
}

type couponSalePayload struct {
	TemplateId    int64  `json:"template_id,string" validate:"required"`
	MemberId      int64  `json:"member_id,string"`
	PaymentMethod string `json:"payment_method" validate:"required,oneof=CASH CARD QR"`
}

func registerCouponRoutes() {
	webserver.ApiGET("/coupons/templates", listCouponTemplates)
	webserver.ApiPOST("/coupons/templates", createCouponTemplate)
	webserver.ApiPUT("/coupons/templates/:id", updateCouponTemplate)
	webserver.ApiGET("/coupons/sold", listSoldCoupons)
	webserver.ApiGET("/coupons/sold/:code", getSoldCoupon)
	webserver.ApiPOST("/coupons/sell", sellCoupon)
}

func listCouponTemplates(c echo.Context) error {
	page, perPage := parsePagination(c)

	query := GetDB(c).Model(&domain.CouponTemplate{})
	if active := c.QueryParam("is_active"); active != "" {
		query = query.Where("is_active = ?", active == "true")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query coupon templates", err.Error())
	}
	var rows []domain.CouponTemplate
	if err := query.Order("id DESC").Offset((page - 1) * perPage).Limit(perPage).Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query coupon templates", err.Error())
	}
	return paged(c, rows, total, page, perPage)
}

func createCouponTemplate(c echo.Context) error {
	var payload couponTemplatePayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse coupon template", err.Error())
	}
	if err := c.Validate(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Coupon template validation failed", err.Error())
	}

	t := domain.CouponTemplate{
		ID:           common.UUIDint64(),
		Name:         strings.TrimSpace(payload.Name),
		Price:        payload.Price,
		Entries:      payload.Entries,
		ValidityDays: payload.ValidityDays,
		IsActive:     payload.IsActive,
		Remark:       payload.Remark,
	}
	if err := GetDB(c).Create(&t).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create coupon template", err.Error())
	}
	return ok(c, t)
}

func updateCouponTemplate(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid template ID", nil)
	}
	var t domain.CouponTemplate
	if err := GetDB(c).Where("id = ?", id).First(&t).Error; err != nil {
		return fail(c, http.StatusNotFound, "TEMPLATE_NOT_FOUND", "Coupon template not found", nil)
	}

	var payload couponTemplatePayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse coupon template", err.Error())
	}
	if err := c.Validate(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Coupon template validation failed", err.Error())
	}

	t.Name = strings.TrimSpace(payload.Name)
	t.Price = payload.Price
	t.Entries = payload.Entries
	t.ValidityDays = payload.ValidityDays
	t.IsActive = payload.IsActive
	t.Remark = payload.Remark
	t.UpdatedAt = time.Now()

	if err := GetDB(c).Save(&t).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update coupon template", err.Error())
	}
	return ok(c, t)
}

func listSoldCoupons(c echo.Context) error {
	page, perPage := parsePagination(c)

	query := GetDB(c).Model(&domain.SoldCoupon{})
	if memberID := c.QueryParam("member_id"); memberID != "" {
		query = query.Where("member_id = ?", memberID)
	}
	if c.QueryParam("usable") == "true" {
		query = query.Where("entries_remaining > 0 AND expiry_date >= ?", common.Today(time.Now()))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query sold coupons", err.Error())
	}
	var rows []domain.SoldCoupon
	if err := query.Order("sold_at DESC").Offset((page - 1) * perPage).Limit(perPage).Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query sold coupons", err.Error())
	}
	return paged(c, rows, total, page, perPage)
}

func getSoldCoupon(c echo.Context) error {
	code := strings.TrimSpace(c.Param("code"))
	var sc domain.SoldCoupon
	if err := GetDB(c).Where("code = ?", code).First(&sc).Error; err != nil {
		return fail(c, http.StatusNotFound, "COUPON_NOT_FOUND", "Coupon not found", nil)
	}
	return ok(c, sc)
}

func sellCoupon(c echo.Context) error {
	var payload couponSalePayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse coupon sale", err.Error())
	}
	if err := c.Validate(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Coupon sale validation failed", err.Error())
	}

	activeShift, staffID, err := activeShiftForOperator(c)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to resolve active shift", err.Error())
	}
	if activeShift == nil {
		return fail(c, http.StatusConflict, "NO_ACTIVE_SHIFT", "Open a shift before recording sales", nil)
	}

	sold, err := posService(c).SellCoupon(c.Request().Context(), pos.CouponSaleInput{
		TemplateId:    payload.TemplateId,
		MemberId:      payload.MemberId,
		ShiftId:       activeShift.ID,
		StaffId:       staffID,
		PaymentMethod: payload.PaymentMethod,
	})
	switch {
	case err == pos.ErrTemplateNotFound:
		return fail(c, http.StatusNotFound, "TEMPLATE_NOT_FOUND", "Coupon template not found", nil)
	case err == pos.ErrTemplateInactive:
		return fail(c, http.StatusConflict, "TEMPLATE_INACTIVE", "Coupon template is no longer offered", nil)
	case err == pos.ErrShiftNotActive:
		return fail(c, http.StatusConflict, "SHIFT_NOT_ACTIVE", "Shift is no longer active", nil)
	case err != nil:
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to sell coupon", err.Error())
	}
	return ok(c, sold)
}
