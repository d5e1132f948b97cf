package webserver

import (
	"net/http"
	"testing"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/labstack/echo/v4"
	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/fongpn/fmfalorsetar-sub000/config"
	"github.com/fongpn/fmfalorsetar-sub000/internal/app"
)

type stubAppContext struct {
	cfg *config.AppConfig
}

var _ app.AppContext = (*stubAppContext)(nil)

func (s *stubAppContext) DB() *gorm.DB                                       { return nil }
func (s *stubAppContext) Config() *config.AppConfig                          { return s.cfg }
func (s *stubAppContext) GetSettingsStringValue(category, key string) string { return "" }
func (s *stubAppContext) GetSettingsInt64Value(category, key string) int64   { return 0 }
func (s *stubAppContext) GetSettingsBoolValue(category, key string) bool     { return false }
func (s *stubAppContext) SaveSettings(settings map[string]interface{}) error { return nil }
func (s *stubAppContext) Settings() *app.SettingsManager                     { return nil }
func (s *stubAppContext) Scheduler() *cron.Cron                              { return nil }
func (s *stubAppContext) Bus() EventBus.Bus                                  { return nil }
func (s *stubAppContext) MigrateDB(track bool) error                         { return nil }
func (s *stubAppContext) InitDb()                                            {}
func (s *stubAppContext) DropAll()                                           {}
func (s *stubAppContext) RunMembershipExpirySweep() error                    { return nil }
func (s *stubAppContext) RunExpiryReminders() error                          { return nil }

func TestShutdownDrainsInflightRequests(t *testing.T) {
	Init(&stubAppContext{cfg: &config.AppConfig{
		Web: config.WebConfig{Host: "127.0.0.1", Port: 0, JwtSecret: "test-secret"},
	}})

	entered := make(chan struct{})
	proceed := make(chan struct{})
	PubPOST("/drain", func(c echo.Context) error {
		close(entered)
		<-proceed
		return c.NoContent(http.StatusOK)
	})

	listenErr := make(chan error, 1)
	go func() { listenErr <- Listen() }()

	var addr string
	for i := 0; i < 200; i++ {
		if l := server.root.ListenerAddr(); l != nil {
			addr = l.String()
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	require.NotEmpty(t, addr, "listener never came up")

	type postResult struct {
		resp *http.Response
		err  error
	}
	results := make(chan postResult, 1)
	go func() {
		resp, err := http.Post("http://"+addr+"/api/v1/pub/drain", "application/json", nil)
		results <- postResult{resp, err}
	}()
	<-entered

	shutdownDone := make(chan struct{})
	go func() {
		Shutdown()
		close(shutdownDone)
	}()

	// Shutdown is now waiting on the in-flight request. Release the
	// handler and the response must still arrive intact.
	time.Sleep(50 * time.Millisecond)
	close(proceed)

	got := <-results
	require.NoError(t, got.err)
	assert.Equal(t, http.StatusOK, got.resp.StatusCode)
	got.resp.Body.Close()

	<-shutdownDone
	assert.ErrorIs(t, <-listenErr, http.ErrServerClosed)
}
