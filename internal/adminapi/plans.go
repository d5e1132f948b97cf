package adminapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/fongpn/fmfalorsetar-sub000/internal/domain"
	"github.com/fongpn/fmfalorsetar-sub000/internal/webserver"
	"github.com/fongpn/fmfalorsetar-sub000/pkg/common"
)

type planPayload struct {
	Name           string  `json:"name" validate:"required,min=1,max=200"`
	Price          float64 `json:"price" validate:"gte=0"`
	DurationMonths int     `json:"duration_months" validate:"required,min=1"`
	FreeMonths     int     `json:"free_months" validate:"gte=0"`
	RegFeeRequired bool    `json:"reg_fee_required"`
	IsActive       bool    `json:"is_active"`
	Remark         string  `json:"remark" validate:"omitempty,max=500"`
}

func registerPlanRoutes() {
	webserver.ApiGET("/plans", listPlans)
	webserver.ApiGET("/plans/:id", getPlan)
	webserver.ApiPOST("/plans", createPlan)
	webserver.ApiPUT("/plans/:id", updatePlan)
	webserver.ApiDELETE("/plans/:id", deletePlan)
}

func listPlans(c echo.Context) error {
	page, perPage := parsePagination(c)

	query := GetDB(c).Model(&domain.MembershipPlan{})
	if q := strings.TrimSpace(c.QueryParam("q")); q != "" {
		query = query.Where("name ILIKE ?", "%"+q+"%")
	}
	if active := c.QueryParam("is_active"); active != "" {
		query = query.Where("is_active = ?", active == "true")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query plans", err.Error())
	}
	var rows []domain.MembershipPlan
	if err := query.Order("id DESC").Offset((page - 1) * perPage).Limit(perPage).Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query plans", err.Error())
	}
	return paged(c, rows, total, page, perPage)
}

func getPlan(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid plan ID", nil)
	}
	var p domain.MembershipPlan
	if err := GetDB(c).Where("id = ?", id).First(&p).Error; err != nil {
		return fail(c, http.StatusNotFound, "PLAN_NOT_FOUND", "Plan not found", nil)
	}
	return ok(c, p)
}

func createPlan(c echo.Context) error {
	var payload planPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse plan", err.Error())
	}
	if err := c.Validate(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Plan validation failed", err.Error())
	}

	p := domain.MembershipPlan{
		ID:             common.UUIDint64(),
		Name:           strings.TrimSpace(payload.Name),
		Price:          payload.Price,
		DurationMonths: payload.DurationMonths,
		FreeMonths:     payload.FreeMonths,
		RegFeeRequired: payload.RegFeeRequired,
		IsActive:       payload.IsActive,
		Remark:         payload.Remark,
	}
	if err := GetDB(c).Create(&p).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create plan", err.Error())
	}
	return ok(c, p)
}

func updatePlan(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid plan ID", nil)
	}
	var p domain.MembershipPlan
	if err := GetDB(c).Where("id = ?", id).First(&p).Error; err != nil {
		return fail(c, http.StatusNotFound, "PLAN_NOT_FOUND", "Plan not found", nil)
	}

	var payload planPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse plan", err.Error())
	}
	if err := c.Validate(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Plan validation failed", err.Error())
	}

	p.Name = strings.TrimSpace(payload.Name)
	p.Price = payload.Price
	p.DurationMonths = payload.DurationMonths
	p.FreeMonths = payload.FreeMonths
	p.RegFeeRequired = payload.RegFeeRequired
	p.IsActive = payload.IsActive
	p.Remark = payload.Remark
	p.UpdatedAt = time.Now()

	if err := GetDB(c).Save(&p).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update plan", err.Error())
	}
	return ok(c, p)
}

// deletePlan soft-deletes a plan still referenced by memberships and hard
// deletes one that never sold.
func deletePlan(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid plan ID", nil)
	}

	var inUse int64
	GetDB(c).Model(&domain.Membership{}).Where("plan_id = ?", id).Count(&inUse)
	if inUse > 0 {
		if err := GetDB(c).Model(&domain.MembershipPlan{}).Where("id = ?", id).
			Updates(map[string]interface{}{"is_active": false, "updated_at": time.Now()}).Error; err != nil {
			return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to deactivate plan", err.Error())
		}
		return ok(c, map[string]interface{}{"id": id, "deactivated": true})
	}

	if err := GetDB(c).Where("id = ?", id).Delete(&domain.MembershipPlan{}).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to delete plan", err.Error())
	}
	return ok(c, map[string]interface{}{"id": id})
}
