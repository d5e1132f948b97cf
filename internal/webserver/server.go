package webserver

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	jsoniter "github.com/json-iterator/go"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/fongpn/fmfalorsetar-sub000/internal/app"
)

// ContextKeyApp is the echo context key holding the application context.
const ContextKeyApp = "gymd_app"

var server *WebServer

type WebServer struct {
	root *echo.Echo
	api  *echo.Group
	pub  *echo.Group
	appx app.AppContext
}

// jsoniterSerializer swaps echo's encoding/json for json-iterator.
type jsoniterSerializer struct{}

func (jsoniterSerializer) Serialize(c echo.Context, i interface{}, indent string) error {
	enc := jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(c.Response())
	if indent != "" {
		enc.SetIndent("", indent)
	}
	return enc.Encode(i)
}

func (jsoniterSerializer) Deserialize(c echo.Context, i interface{}) error {
	err := jsoniter.ConfigCompatibleWithStandardLibrary.NewDecoder(c.Request().Body).Decode(i)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest,
			fmt.Sprintf("unable to parse request: %v", err)).SetInternal(err)
	}
	return nil
}

type payloadValidator struct {
	validate *validator.Validate
}

func (v *payloadValidator) Validate(i interface{}) error {
	if err := v.validate.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

// Init builds the echo server: public routes under /api/v1/pub, JWT-guarded
// admin routes under /api/v1.
func Init(appCtx app.AppContext) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.JSONSerializer = jsoniterSerializer{}
	e.Validator = &payloadValidator{validate: validator.New()}

	e.Use(middleware.Recover())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(ContextKeyApp, appCtx)
			return next(c)
		}
	})
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:    true,
		LogStatus: true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			zap.L().Debug("request",
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status))
			return nil
		},
	}))

	pub := e.Group("/api/v1/pub")

	api := e.Group("/api/v1")
	api.Use(echojwt.WithConfig(echojwt.Config{
		SigningKey: []byte(appCtx.Config().Web.JwtSecret),
	}))

	server = &WebServer{root: e, api: api, pub: pub, appx: appCtx}
}

// Listen starts the HTTP listener and blocks.
func Listen() error {
	cfg := server.appx.Config().Web
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	zap.L().Info("admin api listening", zap.String("addr", addr))
	return server.root.Start(addr)
}

// Shutdown drains in-flight requests before stopping the listener. Requests
// such as shift close commit reconciliation writes and must not be cut off
// mid-transaction.
func Shutdown() {
	if server == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.root.Shutdown(ctx); err != nil {
		zap.L().Warn("graceful shutdown failed, closing", zap.Error(err))
		_ = server.root.Close()
	}
}

// ApiGET registers a JWT-guarded GET route.
func ApiGET(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	server.api.GET(path, h, m...)
}

// ApiPOST registers a JWT-guarded POST route.
func ApiPOST(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	server.api.POST(path, h, m...)
}

// ApiPUT registers a JWT-guarded PUT route.
func ApiPUT(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	server.api.PUT(path, h, m...)
}

// ApiDELETE registers a JWT-guarded DELETE route.
func ApiDELETE(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	server.api.DELETE(path, h, m...)
}

// PubPOST registers an unauthenticated POST route (login only).
func PubPOST(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	server.pub.POST(path, h, m...)
}
