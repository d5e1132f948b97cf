package app

import (
	"strings"
	"sync"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cast"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fongpn/fmfalorsetar-sub000/internal/domain"
	"github.com/fongpn/fmfalorsetar-sub000/internal/membership"
)

// BusinessSettings is the typed view of the sys_config table. It is decoded
// once per load and swapped atomically, so every call site reads the same
// validated snapshot instead of re-parsing rows ad hoc.
type BusinessSettings struct {
	Membership struct {
		GracePeriodDays int     `mapstructure:"grace_period_days"`
		RegistrationFee float64 `mapstructure:"registration_fee"`
		ReminderDays    int     `mapstructure:"reminder_days"`
	} `mapstructure:"membership"`
	Checkin struct {
		WalkinRate        float64 `mapstructure:"walkin_rate"`
		WalkinStudentRate float64 `mapstructure:"walkin_student_rate"`
	} `mapstructure:"checkin"`
	Shift struct {
		DiscrepancyWebhookUrl string `mapstructure:"discrepancy_webhook_url"`
	} `mapstructure:"shift"`
	Smtp struct {
		Enabled  bool   `mapstructure:"enabled"`
		Host     string `mapstructure:"host"`
		Port     int    `mapstructure:"port"`
		Username string `mapstructure:"username"`
		Password string `mapstructure:"password"`
		From     string `mapstructure:"from"`
	} `mapstructure:"smtp"`
}

func defaultBusinessSettings() *BusinessSettings {
	s := &BusinessSettings{}
	s.Membership.GracePeriodDays = membership.DefaultGracePeriodDays
	s.Membership.RegistrationFee = 50
	s.Membership.ReminderDays = 7
	s.Checkin.WalkinRate = 10
	s.Checkin.WalkinStudentRate = 5
	s.Smtp.Port = 587
	return s
}

// SettingsManager loads sys_config rows into a typed snapshot and serves
// both typed business values and raw category/name lookups.
type SettingsManager struct {
	db *gorm.DB

	mu      sync.RWMutex
	current *BusinessSettings
	raw     map[string]string // "category.name" -> value
}

func NewSettingsManager(db *gorm.DB) *SettingsManager {
	return &SettingsManager{
		db:      db,
		current: defaultBusinessSettings(),
		raw:     map[string]string{},
	}
}

// Load reads all sys_config rows, decodes them over the defaults and swaps
// the snapshot. Unparseable values fall back to their defaults; a negative
// grace period is kept as configured but reported, since the source of
// truth for intended behavior under that misconfiguration is undefined.
func (m *SettingsManager) Load() error {
	var rows []domain.SysConfig
	if err := m.db.Find(&rows).Error; err != nil {
		return err
	}

	raw := make(map[string]string, len(rows))
	nested := map[string]map[string]interface{}{}
	for _, row := range rows {
		raw[row.Type+"."+row.Name] = row.Value
		if _, ok := nested[row.Type]; !ok {
			nested[row.Type] = map[string]interface{}{}
		}
		nested[row.Type][row.Name] = row.Value
	}

	next := defaultBusinessSettings()
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           next,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	if err = decoder.Decode(nested); err != nil {
		zap.L().Warn("settings decode failed, keeping defaults for bad values", zap.Error(err))
		next = defaultBusinessSettings()
	}

	if next.Membership.GracePeriodDays < 0 {
		zap.L().Warn("grace_period_days is negative, treating as configuration error",
			zap.Int("grace_period_days", next.Membership.GracePeriodDays))
	}

	m.mu.Lock()
	m.current = next
	m.raw = raw
	m.mu.Unlock()
	return nil
}

// Current returns the active settings snapshot.
func (m *SettingsManager) Current() *BusinessSettings {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Save upserts the given "category.name" -> value pairs and reloads the
// snapshot.
func (m *SettingsManager) Save(settings map[string]interface{}) error {
	for key, value := range settings {
		parts := strings.SplitN(key, ".", 2)
		if len(parts) != 2 {
			zap.L().Warn("invalid settings key format", zap.String("key", key))
			continue
		}
		category, name := parts[0], parts[1]
		strval := cast.ToString(value)

		var count int64
		m.db.Model(&domain.SysConfig{}).
			Where("type = ? AND name = ?", category, name).
			Count(&count)
		if count == 0 {
			if err := m.db.Create(&domain.SysConfig{
				Type:  category,
				Name:  name,
				Value: strval,
			}).Error; err != nil {
				return err
			}
			continue
		}
		if err := m.db.Model(&domain.SysConfig{}).
			Where("type = ? AND name = ?", category, name).
			Updates(map[string]interface{}{"value": strval, "updated_at": time.Now()}).Error; err != nil {
			return err
		}
	}
	return m.Load()
}

func (m *SettingsManager) getRaw(category, name string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.raw[category+"."+name]
}

// GetString returns the raw string value of a setting.
func (m *SettingsManager) GetString(category, name string) string {
	return m.getRaw(category, name)
}

// GetInt64 returns a setting coerced to int64, 0 when unset or invalid.
func (m *SettingsManager) GetInt64(category, name string) int64 {
	return cast.ToInt64(m.getRaw(category, name))
}

// GetBool returns a setting coerced to bool, false when unset or invalid.
func (m *SettingsManager) GetBool(category, name string) bool {
	return cast.ToBool(m.getRaw(category, name))
}

// Typed accessors used by the domain services.

func (m *SettingsManager) GracePeriodDays() int {
	return m.Current().Membership.GracePeriodDays
}

func (m *SettingsManager) RegistrationFee() float64 {
	return m.Current().Membership.RegistrationFee
}

func (m *SettingsManager) ReminderDays() int {
	return m.Current().Membership.ReminderDays
}

func (m *SettingsManager) WalkInRate() float64 {
	return m.Current().Checkin.WalkinRate
}

func (m *SettingsManager) WalkInStudentRate() float64 {
	return m.Current().Checkin.WalkinStudentRate
}

func (m *SettingsManager) DiscrepancyWebhookURL() string {
	return m.Current().Shift.DiscrepancyWebhookUrl
}
