package adminapi

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/fongpn/fmfalorsetar-sub000/internal/domain"
	"github.com/fongpn/fmfalorsetar-sub000/internal/webserver"
	"github.com/fongpn/fmfalorsetar-sub000/pkg/common"
)

type loginPayload struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func registerAuthRoutes() {
	webserver.PubPOST("/auth/login", login)
}

func login(c echo.Context) error {
	var payload loginPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse login request", err.Error())
	}
	if err := c.Validate(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Username and password are required", nil)
	}

	var operator domain.SysOpr
	err := GetDB(c).Where("username = ?", strings.TrimSpace(payload.Username)).First(&operator).Error
	if err != nil {
		return fail(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid username or password", nil)
	}
	if !strings.EqualFold(operator.Status, common.ENABLED) {
		return fail(c, http.StatusUnauthorized, "ACCOUNT_DISABLED", "Account is disabled", nil)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(operator.Password), []byte(payload.Password)); err != nil {
		return fail(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid username or password", nil)
	}

	claims := jwt.MapClaims{
		"uid": strconv.FormatInt(operator.ID, 10),
		"usr": operator.Username,
		"lvl": operator.Level,
		"exp": time.Now().Add(12 * time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(GetAppContext(c).Config().Web.JwtSecret))
	if err != nil {
		return fail(c, http.StatusInternalServerError, "TOKEN_ERROR", "Failed to sign token", err.Error())
	}

	GetDB(c).Model(&domain.SysOpr{}).Where("id = ?", operator.ID).
		Update("last_login", time.Now())
	GetDB(c).Create(&domain.SysOprLog{
		ID:        common.UUIDint64(),
		OprName:   operator.Username,
		OprIp:     c.RealIP(),
		OptAction: "login",
		OptDesc:   "operator login",
		OptTime:   time.Now(),
	})

	zap.L().Info("operator login", zap.String("username", operator.Username), zap.String("ip", c.RealIP()))
	return ok(c, map[string]interface{}{
		"token":    signed,
		"id":       strconv.FormatInt(operator.ID, 10),
		"username": operator.Username,
		"realname": operator.Realname,
		"level":    operator.Level,
	})
}
