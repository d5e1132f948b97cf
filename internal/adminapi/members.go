package adminapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/labstack/echo/v4"

	"github.com/fongpn/fmfalorsetar-sub000/internal/domain"
	"github.com/fongpn/fmfalorsetar-sub000/internal/webserver"
	"github.com/fongpn/fmfalorsetar-sub000/pkg/common"
)

type memberPayload struct {
	MemberNo   string `json:"member_no" validate:"required,min=1,max=32"`
	Name       string `json:"name" validate:"required,min=1,max=200"`
	IcPassport string `json:"ic_passport" validate:"omitempty,max=32"`
	Phone      string `json:"phone" validate:"omitempty,max=32"`
	Email      string `json:"email" validate:"omitempty,email"`
	PhotoUrl   string `json:"photo_url" validate:"omitempty,max=1024"`
	JoinDate   string `json:"join_date"`
	Remark     string `json:"remark" validate:"omitempty,max=500"`
}

func registerMemberRoutes() {
	webserver.ApiGET("/members", listMembers)
	webserver.ApiGET("/members/:id", getMember)
	webserver.ApiPOST("/members", createMember)
	webserver.ApiPUT("/members/:id", updateMember)
	webserver.ApiDELETE("/members/:id", deleteMember)
}

func listMembers(c echo.Context) error {
	page, perPage := parsePagination(c)

	allowed := map[string]string{
		"id":         "id",
		"member_no":  "member_no",
		"name":       "name",
		"join_date":  "join_date",
		"created_at": "created_at",
	}
	sortCol, order := parseSort(c, allowed, "id")

	query := GetDB(c).Model(&domain.Member{})

	if q := strings.TrimSpace(c.QueryParam("q")); q != "" {
		like := "%" + q + "%"
		query = query.Where("name ILIKE ? OR member_no ILIKE ? OR phone ILIKE ? OR ic_passport ILIKE ?",
			like, like, like, like)
	}
	if from := strings.TrimSpace(c.QueryParam("joined_from")); from != "" {
		if t, err := dateparse.ParseAny(from); err == nil {
			query = query.Where("join_date >= ?", common.Today(t))
		}
	}
	if to := strings.TrimSpace(c.QueryParam("joined_to")); to != "" {
		if t, err := dateparse.ParseAny(to); err == nil {
			query = query.Where("join_date < ?", common.Today(t).AddDate(0, 0, 1))
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query members", err.Error())
	}

	var rows []domain.Member
	if err := query.Order(sortCol + " " + order).Offset((page - 1) * perPage).Limit(perPage).Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query members", err.Error())
	}
	return paged(c, rows, total, page, perPage)
}

func getMember(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid member ID", nil)
	}
	var m domain.Member
	if err := GetDB(c).Where("id = ?", id).First(&m).Error; err != nil {
		return fail(c, http.StatusNotFound, "MEMBER_NOT_FOUND", "Member not found", nil)
	}
	return ok(c, m)
}

func (p *memberPayload) joinDate() time.Time {
	if t, err := dateparse.ParseAny(strings.TrimSpace(p.JoinDate)); err == nil {
		return common.Today(t)
	}
	return common.Today(time.Now())
}

func createMember(c echo.Context) error {
	var payload memberPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse member", err.Error())
	}
	if err := c.Validate(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Member validation failed", err.Error())
	}

	m := domain.Member{
		ID:         common.UUIDint64(),
		MemberNo:   strings.TrimSpace(payload.MemberNo),
		Name:       strings.TrimSpace(payload.Name),
		IcPassport: strings.TrimSpace(payload.IcPassport),
		Phone:      strings.TrimSpace(payload.Phone),
		Email:      strings.TrimSpace(payload.Email),
		PhotoUrl:   strings.TrimSpace(payload.PhotoUrl),
		JoinDate:   payload.joinDate(),
		Remark:     payload.Remark,
	}
	if err := GetDB(c).Create(&m).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create member", err.Error())
	}
	return ok(c, m)
}

func updateMember(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid member ID", nil)
	}
	var m domain.Member
	if err := GetDB(c).Where("id = ?", id).First(&m).Error; err != nil {
		return fail(c, http.StatusNotFound, "MEMBER_NOT_FOUND", "Member not found", nil)
	}

	var payload memberPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse member", err.Error())
	}
	if err := c.Validate(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Member validation failed", err.Error())
	}

	m.MemberNo = strings.TrimSpace(payload.MemberNo)
	m.Name = strings.TrimSpace(payload.Name)
	m.IcPassport = strings.TrimSpace(payload.IcPassport)
	m.Phone = strings.TrimSpace(payload.Phone)
	m.Email = strings.TrimSpace(payload.Email)
	m.PhotoUrl = strings.TrimSpace(payload.PhotoUrl)
	if payload.JoinDate != "" {
		m.JoinDate = payload.joinDate()
	}
	m.Remark = payload.Remark
	m.UpdatedAt = time.Now()

	if err := GetDB(c).Save(&m).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update member", err.Error())
	}
	return ok(c, m)
}

func deleteMember(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid member ID", nil)
	}

	var count int64
	GetDB(c).Model(&domain.Membership{}).Where("member_id = ?", id).Count(&count)
	if count > 0 {
		return fail(c, http.StatusConflict, "MEMBER_IN_USE", "Member has membership history and cannot be deleted", nil)
	}

	if err := GetDB(c).Where("id = ?", id).Delete(&domain.Member{}).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to delete member", err.Error())
	}
	return ok(c, map[string]interface{}{"id": id})
}
