package app

import (
	"github.com/asaskevich/EventBus"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"github.com/fongpn/fmfalorsetar-sub000/config"
)

// DBProvider provides database access
type DBProvider interface {
	DB() *gorm.DB
}

// ConfigProvider provides application configuration
type ConfigProvider interface {
	Config() *config.AppConfig
}

// SettingsProvider provides system settings access
type SettingsProvider interface {
	GetSettingsStringValue(category, key string) string
	GetSettingsInt64Value(category, key string) int64
	GetSettingsBoolValue(category, key string) bool
	SaveSettings(settings map[string]interface{}) error
	Settings() *SettingsManager
}

// SchedulerProvider provides task scheduling capability
type SchedulerProvider interface {
	Scheduler() *cron.Cron
}

// BusProvider provides the in-process event bus
type BusProvider interface {
	Bus() EventBus.Bus
}

// AppContext combines all provider interfaces for full application context
// Services should depend on specific providers or this combined interface
type AppContext interface {
	DBProvider
	ConfigProvider
	SettingsProvider
	SchedulerProvider
	BusProvider

	// Application lifecycle methods
	MigrateDB(track bool) error
	InitDb()
	DropAll()
	// RunMembershipExpirySweep immediately runs the daily membership
	// status catch-up job
	RunMembershipExpirySweep() error
	// RunExpiryReminders immediately runs the expiry reminder mail job
	RunExpiryReminders() error
}
