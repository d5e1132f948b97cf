package app

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/fongpn/fmfalorsetar-sub000/internal/domain"
	"github.com/fongpn/fmfalorsetar-sub000/pkg/common"
)

func (a *Application) checkSuper() {
	const superUsername = "admin"
	const defaultPassword = "gymadmin"

	hashed, err := bcrypt.GenerateFromPassword([]byte(defaultPassword), bcrypt.DefaultCost)
	if err != nil {
		zap.L().Error("failed to hash default password", zap.Error(err))
		return
	}

	var operator domain.SysOpr
	err = a.gormDB.Where("username = ?", superUsername).First(&operator).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		if err := a.gormDB.Create(&domain.SysOpr{
			ID:        common.UUIDint64(),
			Realname:  "administrator",
			Mobile:    "0000",
			Email:     "N/A",
			Username:  superUsername,
			Password:  string(hashed),
			Level:     "super",
			Status:    common.ENABLED,
			Remark:    "super",
			LastLogin: time.Now(),
		}).Error; err != nil {
			zap.L().Error("failed to create default super admin", zap.Error(err))
		} else {
			zap.L().Info("initialized default super admin account", zap.String("username", superUsername))
		}
		return
	case err != nil:
		zap.L().Error("failed to query super admin", zap.Error(err))
		return
	}

	resetLevel := !strings.EqualFold(operator.Level, "super")
	resetStatus := !strings.EqualFold(operator.Status, common.ENABLED)
	if !resetLevel && !resetStatus {
		return
	}

	updates := map[string]interface{}{
		"updated_at": time.Now(),
	}
	if resetLevel {
		updates["level"] = "super"
	}
	if resetStatus {
		updates["status"] = common.ENABLED
	}

	if err := a.gormDB.Model(&domain.SysOpr{}).Where("id = ?", operator.ID).Updates(updates).Error; err != nil {
		zap.L().Error("failed to repair super admin account", zap.Error(err))
		return
	}

	zap.L().Warn("repaired default super admin account",
		zap.String("username", superUsername),
		zap.Bool("levelReset", resetLevel),
		zap.Bool("statusEnabled", resetStatus))
}

type configSchema struct {
	Key         string
	Default     string
	Description string
}

// configSchemas lists every sys_config entry with its seeded default. The
// grace period default of 7 days is defined once here and mirrored by the
// typed settings fallback.
var configSchemas = []configSchema{
	{"membership.grace_period_days", "7", "Days after expiry during which entry is still allowed with a warning"},
	{"membership.registration_fee", "50", "One-time registration fee for plans that require it"},
	{"membership.reminder_days", "7", "Send expiry reminder emails this many days before end date"},
	{"checkin.walkin_rate", "10", "Flat walk-in entry rate"},
	{"checkin.walkin_student_rate", "5", "Flat student walk-in entry rate"},
	{"shift.discrepancy_webhook_url", "", "Webhook notified when a shift closes with a cash discrepancy"},
	{"smtp.enabled", "false", "Enable outgoing reminder mail"},
	{"smtp.host", "", "SMTP server host"},
	{"smtp.port", "587", "SMTP server port"},
	{"smtp.username", "", "SMTP username"},
	{"smtp.password", "", "SMTP password"},
	{"smtp.from", "", "Reminder mail sender address"},
}

func (a *Application) checkSettings() {
	for sortid, schema := range configSchemas {
		parts := strings.SplitN(schema.Key, ".", 2)
		if len(parts) != 2 {
			zap.L().Warn("invalid config key format", zap.String("key", schema.Key))
			continue
		}
		category := parts[0]
		name := parts[1]

		var count int64
		a.gormDB.Model(&domain.SysConfig{}).
			Where("type = ? and name = ?", category, name).
			Count(&count)

		if count == 0 {
			a.gormDB.Create(&domain.SysConfig{
				ID:     common.UUIDint64(),
				Sort:   sortid,
				Type:   category,
				Name:   name,
				Value:  schema.Default,
				Remark: schema.Description,
			})
			zap.L().Info("initialized config",
				zap.String("key", schema.Key),
				zap.String("default", schema.Default))
		}
	}
}

// checkPlans initializes default membership plans
func (a *Application) checkPlans() {
	defaultPlans := []domain.MembershipPlan{
		{Name: "Monthly", Price: 80, DurationMonths: 1, FreeMonths: 0, RegFeeRequired: true, IsActive: true},
		{Name: "Quarterly", Price: 210, DurationMonths: 3, FreeMonths: 0, RegFeeRequired: true, IsActive: true},
		{Name: "Annual + 2 Free", Price: 780, DurationMonths: 12, FreeMonths: 2, RegFeeRequired: false, IsActive: true},
	}

	for _, p := range defaultPlans {
		var count int64
		a.gormDB.Model(&domain.MembershipPlan{}).Where("name = ?", p.Name).Count(&count)
		if count == 0 {
			p.ID = common.UUIDint64()
			if err := a.gormDB.Create(&p).Error; err != nil {
				zap.L().Error("failed to create default plan", zap.String("name", p.Name), zap.Error(err))
			} else {
				zap.L().Info("initialized default plan", zap.String("name", p.Name))
			}
		}
	}
}

// checkCouponTemplates initializes default entry-pass templates
func (a *Application) checkCouponTemplates() {
	defaultTemplates := []domain.CouponTemplate{
		{Name: "10-Entry Pass", Price: 80, Entries: 10, ValidityDays: 90, IsActive: true},
		{Name: "20-Entry Pass", Price: 140, Entries: 20, ValidityDays: 180, IsActive: true},
	}

	for _, t := range defaultTemplates {
		var count int64
		a.gormDB.Model(&domain.CouponTemplate{}).Where("name = ?", t.Name).Count(&count)
		if count == 0 {
			t.ID = common.UUIDint64()
			if err := a.gormDB.Create(&t).Error; err != nil {
				zap.L().Error("failed to create default coupon template", zap.String("name", t.Name), zap.Error(err))
			} else {
				zap.L().Info("initialized default coupon template", zap.String("name", t.Name))
			}
		}
	}
}

// checkProducts initializes default retail products
func (a *Application) checkProducts() {
	defaultProducts := []domain.Product{
		{Name: "Mineral Water 500ml", Sku: "WATER-500", Price: 2, CurrentStock: 48, IsActive: true},
		{Name: "Isotonic Drink", Sku: "ISO-DRINK", Price: 3.5, CurrentStock: 24, IsActive: true},
		{Name: "Protein Bar", Sku: "PROT-BAR", Price: 6, CurrentStock: 12, IsActive: true},
	}

	for _, p := range defaultProducts {
		var count int64
		a.gormDB.Model(&domain.Product{}).Where("sku = ?", p.Sku).Count(&count)
		if count == 0 {
			p.ID = common.UUIDint64()
			if err := a.gormDB.Create(&p).Error; err != nil {
				zap.L().Error("failed to create default product", zap.String("sku", p.Sku), zap.Error(err))
			} else {
				zap.L().Info("initialized default product", zap.String("name", p.Name))
			}
		}
	}
}
