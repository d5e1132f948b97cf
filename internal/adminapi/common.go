package adminapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/fongpn/fmfalorsetar-sub000/internal/app"
	"github.com/fongpn/fmfalorsetar-sub000/internal/webserver"
)

// ErrorResponse is the uniform error envelope.
type ErrorResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Detail  interface{} `json:"detail,omitempty"`
}

// DataResponse wraps a single-object result.
type DataResponse struct {
	Data interface{} `json:"data"`
}

// ListResponse wraps a paginated list result.
type ListResponse struct {
	Data     interface{} `json:"data"`
	Total    int64       `json:"total"`
	Page     int         `json:"page"`
	PerPage  int         `json:"per_page"`
}

func ok(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, DataResponse{Data: data})
}

func paged(c echo.Context, data interface{}, total int64, page, perPage int) error {
	return c.JSON(http.StatusOK, ListResponse{Data: data, Total: total, Page: page, PerPage: perPage})
}

func fail(c echo.Context, status int, code, message string, detail interface{}) error {
	return c.JSON(status, ErrorResponse{Code: code, Message: message, Detail: detail})
}

// GetAppContext returns the application context injected by the webserver.
func GetAppContext(c echo.Context) app.AppContext {
	return c.Get(webserver.ContextKeyApp).(app.AppContext)
}

// GetDB returns the application database handle.
func GetDB(c echo.Context) *gorm.DB {
	return GetAppContext(c).DB()
}

func parsePagination(c echo.Context) (page, perPage int) {
	page, _ = strconv.Atoi(c.QueryParam("page"))
	perPage, _ = strconv.Atoi(c.QueryParam("perPage"))
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 500 {
		perPage = 20
	}
	return page, perPage
}

func parseIDParam(c echo.Context, name string) (int64, error) {
	return strconv.ParseInt(c.Param(name), 10, 64)
}

// parseSort returns a whitelisted sort column and a sanitized direction.
func parseSort(c echo.Context, allowed map[string]string, def string) (string, string) {
	col, okc := allowed[strings.TrimSpace(c.QueryParam("sort"))]
	if !okc || col == "" {
		col = def
	}
	order := strings.ToUpper(strings.TrimSpace(c.QueryParam("order")))
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	return col, order
}

// currentOperator extracts the operator identity from the verified JWT.
func currentOperator(c echo.Context) (id int64, username string, level string) {
	token, okt := c.Get("user").(*jwt.Token)
	if !okt {
		return 0, "", ""
	}
	claims, okc := token.Claims.(jwt.MapClaims)
	if !okc {
		return 0, "", ""
	}
	if v, okv := claims["uid"].(string); okv {
		id, _ = strconv.ParseInt(v, 10, 64)
	}
	username, _ = claims["usr"].(string)
	level, _ = claims["lvl"].(string)
	return id, username, level
}

// InitRouter registers every admin API route. Call after webserver.Init.
func InitRouter() {
	registerAuthRoutes()
	registerMemberRoutes()
	registerPlanRoutes()
	registerMembershipRoutes()
	registerShiftRoutes()
	registerCheckinRoutes()
	registerCouponRoutes()
	registerProductRoutes()
	registerTransactionRoutes()
	registerOperatorRoutes()
	registerSettingsRoutes()
	registerDashboardRoutes()
}
