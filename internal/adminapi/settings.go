package adminapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/fongpn/fmfalorsetar-sub000/internal/domain"
	"github.com/fongpn/fmfalorsetar-sub000/internal/webserver"
)

func registerSettingsRoutes() {
	webserver.ApiGET("/settings", listSettings)
	webserver.ApiGET("/settings/current", currentSettings)
	webserver.ApiPOST("/settings", saveSettings)
}

// listSettings returns the raw sys_config rows, optionally filtered by
// category.
func listSettings(c echo.Context) error {
	query := GetDB(c).Model(&domain.SysConfig{})
	if category := c.QueryParam("type"); category != "" {
		query = query.Where("type = ?", category)
	}
	var rows []domain.SysConfig
	if err := query.Order("type ASC, sort ASC, name ASC").Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query settings", err.Error())
	}
	return ok(c, rows)
}

// currentSettings returns the typed snapshot the services actually run on,
// which makes misconfigured values visible at a glance.
func currentSettings(c echo.Context) error {
	return ok(c, GetAppContext(c).Settings().Current())
}

// saveSettings upserts "category.name" keyed values and reloads the typed
// snapshot so changes apply without a restart.
func saveSettings(c echo.Context) error {
	if err := requireSuper(c); err != nil {
		return err
	}
	var payload map[string]interface{}
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse settings", err.Error())
	}
	if len(payload) == 0 {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "No settings provided", nil)
	}
	if err := GetAppContext(c).SaveSettings(payload); err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to save settings", err.Error())
	}
	return ok(c, GetAppContext(c).Settings().Current())
}
