package adminapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/fongpn/fmfalorsetar-sub000/internal/domain"
	"github.com/fongpn/fmfalorsetar-sub000/internal/webserver"
	"github.com/fongpn/fmfalorsetar-sub000/pkg/common"
)

type operatorPayload struct {
	Realname string `json:"realname" validate:"required,min=1,max=100"`
	Mobile   string `json:"mobile" validate:"omitempty,max=30"`
	Email    string `json:"email" validate:"omitempty,email"`
	Username string `json:"username" validate:"required,min=3,max=60"`
	Password string `json:"password" validate:"omitempty,min=8"`
	Level    string `json:"level" validate:"required,oneof=super admin staff"`
	Status   string `json:"status" validate:"required,oneof=enabled disabled"`
	Remark   string `json:"remark" validate:"omitempty,max=500"`
}

func registerOperatorRoutes() {
	webserver.ApiGET("/operators", listOperators)
	webserver.ApiGET("/operators/:id", getOperator)
	webserver.ApiPOST("/operators", createOperator)
	webserver.ApiPUT("/operators/:id", updateOperator)
	webserver.ApiDELETE("/operators/:id", deleteOperator)
	webserver.ApiGET("/operators/logs", listOperatorLogs)
}

// requireSuper guards operator management. Staff accounts may read their own
// profile through /auth but cannot manage accounts.
func requireSuper(c echo.Context) error {
	_, _, level := currentOperator(c)
	if level != "super" && level != "admin" {
		return fail(c, http.StatusForbidden, "FORBIDDEN", "Operator management requires an admin account", nil)
	}
	return nil
}

func listOperators(c echo.Context) error {
	if err := requireSuper(c); err != nil {
		return err
	}
	page, perPage := parsePagination(c)

	query := GetDB(c).Model(&domain.SysOpr{})
	if q := strings.TrimSpace(c.QueryParam("q")); q != "" {
		like := "%" + q + "%"
		query = query.Where("username ILIKE ? OR realname ILIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query operators", err.Error())
	}
	var rows []domain.SysOpr
	if err := query.Order("username ASC").Offset((page - 1) * perPage).Limit(perPage).Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query operators", err.Error())
	}
	return paged(c, rows, total, page, perPage)
}

func getOperator(c echo.Context) error {
	if err := requireSuper(c); err != nil {
		return err
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid operator ID", nil)
	}
	var opr domain.SysOpr
	if err := GetDB(c).Where("id = ?", id).First(&opr).Error; err != nil {
		return fail(c, http.StatusNotFound, "OPERATOR_NOT_FOUND", "Operator not found", nil)
	}
	return ok(c, opr)
}

func createOperator(c echo.Context) error {
	if err := requireSuper(c); err != nil {
		return err
	}
	var payload operatorPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse operator", err.Error())
	}
	if err := c.Validate(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Operator validation failed", err.Error())
	}
	if payload.Password == "" {
		return fail(c, http.StatusBadRequest, "PASSWORD_REQUIRED", "A password is required for new operators", nil)
	}

	username := strings.TrimSpace(payload.Username)
	var count int64
	GetDB(c).Model(&domain.SysOpr{}).Where("username = ?", username).Count(&count)
	if count > 0 {
		return fail(c, http.StatusConflict, "USERNAME_EXISTS", "An operator with this username already exists", username)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(payload.Password), bcrypt.DefaultCost)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "PASSWORD_HASH_ERROR", "Failed to hash password", nil)
	}

	opr := domain.SysOpr{
		ID:       common.UUIDint64(),
		Realname: strings.TrimSpace(payload.Realname),
		Mobile:   payload.Mobile,
		Email:    payload.Email,
		Username: username,
		Password: string(hashed),
		Level:    payload.Level,
		Status:   payload.Status,
		Remark:   payload.Remark,
	}
	if err := GetDB(c).Create(&opr).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create operator", err.Error())
	}
	return ok(c, opr)
}

func updateOperator(c echo.Context) error {
	if err := requireSuper(c); err != nil {
		return err
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid operator ID", nil)
	}
	var opr domain.SysOpr
	if err := GetDB(c).Where("id = ?", id).First(&opr).Error; err != nil {
		return fail(c, http.StatusNotFound, "OPERATOR_NOT_FOUND", "Operator not found", nil)
	}

	var payload operatorPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse operator", err.Error())
	}
	if err := c.Validate(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Operator validation failed", err.Error())
	}

	opr.Realname = strings.TrimSpace(payload.Realname)
	opr.Mobile = payload.Mobile
	opr.Email = payload.Email
	opr.Level = payload.Level
	opr.Status = payload.Status
	opr.Remark = payload.Remark
	opr.UpdatedAt = time.Now()
	if payload.Password != "" {
		hashed, herr := bcrypt.GenerateFromPassword([]byte(payload.Password), bcrypt.DefaultCost)
		if herr != nil {
			return fail(c, http.StatusInternalServerError, "PASSWORD_HASH_ERROR", "Failed to hash password", nil)
		}
		opr.Password = string(hashed)
	}

	if err := GetDB(c).Save(&opr).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update operator", err.Error())
	}
	return ok(c, opr)
}

// deleteOperator disables the account instead of removing the row so shift
// and transaction history keeps a valid staff reference.
func deleteOperator(c echo.Context) error {
	if err := requireSuper(c); err != nil {
		return err
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid operator ID", nil)
	}
	selfID, _, _ := currentOperator(c)
	if id == selfID {
		return fail(c, http.StatusConflict, "SELF_DELETE", "You cannot disable your own account", nil)
	}
	result := GetDB(c).Model(&domain.SysOpr{}).Where("id = ?", id).
		Update("status", common.DISABLED)
	if result.Error != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to disable operator", result.Error.Error())
	}
	if result.RowsAffected == 0 {
		return fail(c, http.StatusNotFound, "OPERATOR_NOT_FOUND", "Operator not found", nil)
	}
	return ok(c, map[string]interface{}{"id": id, "status": common.DISABLED})
}

func listOperatorLogs(c echo.Context) error {
	if err := requireSuper(c); err != nil {
		return err
	}
	page, perPage := parsePagination(c)

	query := GetDB(c).Model(&domain.SysOprLog{})
	if name := strings.TrimSpace(c.QueryParam("opr_name")); name != "" {
		query = query.Where("opr_name = ?", name)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query operator logs", err.Error())
	}
	var rows []domain.SysOprLog
	if err := query.Order("opt_time DESC").Offset((page - 1) * perPage).Limit(perPage).Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query operator logs", err.Error())
	}
	return paged(c, rows, total, page, perPage)
}
